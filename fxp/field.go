//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

// Package fxp implements fixed-point arithmetic over the rings
// Z_2^k used for secret sharing. Real values are encoded as
// two's-complement ring elements scaled by 2^f where f is the
// field's fraction-bit count.
package fxp

import (
	"fmt"
	"math"

	"github.com/Ye-D/OpenBumbleBee/tensor"
)

// FieldType selects the share representation ring.
type FieldType uint8

// Supported field types. FM128 is enumerated for completeness but
// rejected by configuration validation: shares are carried on native
// 64-bit words.
const (
	FM32 FieldType = iota
	FM64
	FM128
)

func (t FieldType) String() string {
	switch t {
	case FM32:
		return "FM32"
	case FM64:
		return "FM64"
	case FM128:
		return "FM128"
	default:
		return fmt.Sprintf("{FieldType %d}", t)
	}
}

// Bits returns the ring width in bits.
func (t FieldType) Bits() int {
	switch t {
	case FM32:
		return 32
	case FM64:
		return 64
	case FM128:
		return 128
	default:
		return 0
	}
}

// FractionBits returns the default fixed-point fraction width.
func (t FieldType) FractionBits() int {
	switch t {
	case FM32:
		return 8
	case FM64:
		return 18
	case FM128:
		return 26
	default:
		return 0
	}
}

// Supported tests if the field type can be instantiated.
func (t FieldType) Supported() bool {
	return t == FM32 || t == FM64
}

// Field holds the concrete ring parameters of a field type.
type Field struct {
	ftype FieldType
	k     uint
	f     uint
	mask  uint64
}

// NewField instantiates the ring parameters for the field type.
func NewField(t FieldType) (Field, error) {
	if !t.Supported() {
		return Field{}, fmt.Errorf("fxp: field %s not supported", t)
	}
	k := uint(t.Bits())
	var mask uint64
	if k == 64 {
		mask = ^uint64(0)
	} else {
		mask = (uint64(1) << k) - 1
	}
	return Field{
		ftype: t,
		k:     k,
		f:     uint(t.FractionBits()),
		mask:  mask,
	}, nil
}

// Type returns the field type.
func (fl Field) Type() FieldType {
	return fl.ftype
}

// Bits returns the ring width k.
func (fl Field) Bits() uint {
	return fl.k
}

// FractionBits returns the fraction width f.
func (fl Field) FractionBits() uint {
	return fl.f
}

// Mask returns the k-bit word mask.
func (fl Field) Mask() uint64 {
	return fl.mask
}

// One returns the encoding of 1.0.
func (fl Field) One() uint64 {
	return uint64(1) << fl.f
}

// Eps returns the quantization step 2^-f.
func (fl Field) Eps() float64 {
	return 1.0 / float64(uint64(1)<<fl.f)
}

// MaxAbs returns the largest encodable magnitude.
func (fl Field) MaxAbs() float64 {
	return math.Ldexp(1, int(fl.k-1-fl.f))
}

// Encode converts a real value into its fixed-point ring element.
// Out-of-range values saturate.
func (fl Field) Encode(x float64) uint64 {
	scaled := math.Round(x * float64(uint64(1)<<fl.f))
	limit := math.Ldexp(1, int(fl.k-1))
	if scaled >= limit {
		return (uint64(1) << (fl.k - 1)) - 1
	}
	if scaled < -limit {
		return (uint64(1) << (fl.k - 1)) & fl.mask
	}
	return uint64(int64(scaled)) & fl.mask
}

// Decode converts a ring element back to a real value, interpreting
// the top bit as the sign.
func (fl Field) Decode(v uint64) float64 {
	return float64(fl.signed(v)) / float64(uint64(1)<<fl.f)
}

func (fl Field) signed(v uint64) int64 {
	v &= fl.mask
	if fl.k < 64 && v&(uint64(1)<<(fl.k-1)) != 0 {
		v |= ^fl.mask
	}
	return int64(v)
}

// SignBit returns the most significant bit of v.
func (fl Field) SignBit(v uint64) uint64 {
	return (v >> (fl.k - 1)) & 1
}

// Add returns a+b in the ring.
func (fl Field) Add(a, b uint64) uint64 {
	return (a + b) & fl.mask
}

// Sub returns a-b in the ring.
func (fl Field) Sub(a, b uint64) uint64 {
	return (a - b) & fl.mask
}

// Neg returns -a in the ring.
func (fl Field) Neg(a uint64) uint64 {
	return (-a) & fl.mask
}

// Mul returns a*b in the ring. The result keeps the sum of the
// operands' scales; fixed-point products need a subsequent Ars by f.
func (fl Field) Mul(a, b uint64) uint64 {
	return (a * b) & fl.mask
}

// Ars arithmetically shifts v right by sh bits within the ring,
// preserving the sign.
func (fl Field) Ars(v uint64, sh uint) uint64 {
	return uint64(fl.signed(v)>>sh) & fl.mask
}

// EncodeTensor encodes every element of t.
func (fl Field) EncodeTensor(t *tensor.Tensor) []uint64 {
	data := t.Data()
	out := make([]uint64, len(data))
	for i, x := range data {
		out[i] = fl.Encode(x)
	}
	return out
}

// DecodeTensor decodes a ring-element vector into a tensor with the
// given shape.
func (fl Field) DecodeTensor(vs []uint64, shape []int) (
	*tensor.Tensor, error) {

	data := make([]float64, len(vs))
	for i, v := range vs {
		data[i] = fl.Decode(v)
	}
	return tensor.FromSlice(data, shape...)
}
