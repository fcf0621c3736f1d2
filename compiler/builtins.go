//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package compiler

import (
	"fmt"
)

// Built-in intrinsics. These exist because exponential-like
// nonlinearities have no generic lowering to ring primitives with
// acceptable multiplicative depth; each is a hand-specified circuit
// over add/mul/compare with a documented error bound.

// Polynomial coefficients, fit by least squares over the segment
// each intrinsic is defined on.
var (
	// gelu(x) - x/2 is even; even-power coefficients of the degree-8
	// fit on [-3,3], constant term first. Max fit error 4.7e-3.
	geluEven = []float64{
		0.0016625671299534573,
		0.38791262563681544,
		-0.05444457502808319,
		0.005015771370060945,
		-0.00019022112618961688,
	}

	// silu(x) on [-8,0], degree 8, constant term first. Max fit
	// error 1.3e-3; the tail cut at -8 adds at most |silu(-8)|,
	// 2.7e-3, which dominates the overall bound.
	siluNeg = []float64{
		0.0012917770491147592,
		0.513324711934902,
		0.2802857884142401,
		0.022073746850763132,
		-0.021243345860232705,
		-0.007686487827163899,
		-0.0011634260252632452,
		-8.586378041161726e-05,
		-2.5318471878759183e-06,
	}
)

func intrinsicArgs(b *Builder, name string, want int, args []*Value) bool {
	if len(args) != want {
		b.fail(fmt.Errorf("intrinsic %s: %d arguments, expected %d",
			name, len(args), want))
		return false
	}
	return b.valid(args...)
}

// horner evaluates a polynomial with public coefficients (constant
// term first) at x.
func horner(x *Value, coeffs []float64) *Value {
	p := x.MulConst(coeffs[len(coeffs)-1])
	for i := len(coeffs) - 2; i > 0; i-- {
		p = p.AddConst(coeffs[i]).Mul(x)
	}
	return p.AddConst(coeffs[0])
}

// negExp computes exp(clip(x, -14)) for x <= 0: the argument is
// clamped, scaled by 2^-7, fed through a degree-4 Taylor polynomial
// of exp, and squared seven times. Absolute error below 1e-3 on FM64.
func negExp(b *Builder, args ...*Value) *Value {
	if !intrinsicArgs(b, "neg_exp", 1, args) {
		return &Value{b: b, id: -1}
	}
	x := args[0].ClampMin(-14)
	z := x.MulConst(1.0 / 128)
	// exp(z) ~ 1 + z + z^2/2 + z^3/6 + z^4/24
	p := z.MulConst(1.0 / 24).AddConst(1.0 / 6)
	p = p.Mul(z).AddConst(0.5)
	p = p.Mul(z).AddConst(1)
	p = p.Mul(z).AddConst(1)
	for i := 0; i < 7; i++ {
		p = p.Square()
	}
	return p
}

// seg3Gelu computes a three-segment gelu approximation: 0 below -3,
// identity above 3, and a degree-8 polynomial between.
func seg3Gelu(b *Builder, args ...*Value) *Value {
	if !intrinsicArgs(b, "seg3_gelu", 1, args) {
		return &Value{b: b, id: -1}
	}
	x := args[0]
	lo := x.AddConst(3).LessZero()       // x < -3
	hi := x.Neg().AddConst(3).LessZero() // x > 3
	mid := lo.Add(hi).Neg().AddConst(1)

	s := x.Square()
	even := horner(s, geluEven)
	poly := x.MulConst(0.5).Add(even)

	// The low segment contributes zero.
	return mid.Mul(poly).Add(hi.Mul(x))
}

// seg4Silu computes a four-segment silu approximation: 0 below -8, a
// degree-8 polynomial on [-8,0), x + p(-x) on [0,8] (silu(x) = x +
// silu(-x)), and identity above 8. Max error 2.7e-3.
func seg4Silu(b *Builder, args ...*Value) *Value {
	if !intrinsicArgs(b, "seg4_silu", 1, args) {
		return &Value{b: b, id: -1}
	}
	x := args[0]
	lo := x.AddConst(8).LessZero()       // x < -8
	neg := x.LessZero()                  // x < 0
	hi := x.Neg().AddConst(8).LessZero() // x > 8

	midNeg := neg.Sub(lo)                       // [-8, 0)
	midPos := neg.Add(hi).Neg().AddConst(1)     // [0, 8]

	pn := horner(x, siluNeg)
	pp := horner(x.Neg(), siluNeg)

	return midNeg.Mul(pn).
		Add(midPos.Mul(x.Add(pp))).
		Add(hi.Mul(x))
}
