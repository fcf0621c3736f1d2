//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package sim

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/Ye-D/OpenBumbleBee/fxp"
)

// Vector helpers over Z_2^k share words. All return fresh slices;
// share vectors are never aliased between values.

func cloneVec(a []uint64) []uint64 {
	out := make([]uint64, len(a))
	copy(out, a)
	return out
}

func addVec(fl fxp.Field, a, b []uint64) []uint64 {
	out := make([]uint64, len(a))
	for i := range a {
		out[i] = fl.Add(a[i], b[i])
	}
	return out
}

func subVec(fl fxp.Field, a, b []uint64) []uint64 {
	out := make([]uint64, len(a))
	for i := range a {
		out[i] = fl.Sub(a[i], b[i])
	}
	return out
}

func negVec(fl fxp.Field, a []uint64) []uint64 {
	out := make([]uint64, len(a))
	for i := range a {
		out[i] = fl.Neg(a[i])
	}
	return out
}

// mulVec is the elementwise ring product. The result carries the sum
// of the operands' fixed-point scales.
func mulVec(fl fxp.Field, a, b []uint64) []uint64 {
	out := make([]uint64, len(a))
	for i := range a {
		out[i] = fl.Mul(a[i], b[i])
	}
	return out
}

func scaleVec(fl fxp.Field, a []uint64, c uint64) []uint64 {
	out := make([]uint64, len(a))
	for i := range a {
		out[i] = fl.Mul(a[i], c)
	}
	return out
}

func sumVec(fl fxp.Field, a []uint64) []uint64 {
	var s uint64
	for _, v := range a {
		s = fl.Add(s, v)
	}
	return []uint64{s}
}

func xorVec(a, b []uint64) []uint64 {
	out := make([]uint64, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func andVec(a, b []uint64) []uint64 {
	out := make([]uint64, len(a))
	for i := range a {
		out[i] = a[i] & b[i]
	}
	return out
}

// expand broadcasts a scalar share over m elements. Every party
// replicates consistently, so each copy is a valid share.
func expand(a []uint64, m int) []uint64 {
	if len(a) == m {
		return a
	}
	out := make([]uint64, m)
	for i := range out {
		out[i] = a[0]
	}
	return out
}

// matMulRing multiplies an m-by-k and a k-by-n row-major matrix in
// the ring.
func matMulRing(fl fxp.Field, a, b []uint64, m, k, n int) []uint64 {
	out := make([]uint64, m*n)
	mask := fl.Mask()
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var s uint64
			for l := 0; l < k; l++ {
				s += a[i*k+l] * b[l*n+j]
			}
			out[i*n+j] = s & mask
		}
	}
	return out
}

// randWords draws n uniform ring elements from crypto/rand.
func randWords(n int, mask uint64) ([]uint64, error) {
	buf := make([]byte, 8*n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(buf[i*8:]) & mask
	}
	return out, nil
}

// splitRandom additively shares v across n parties with fresh
// crypto/rand masks.
func splitRandom(fl fxp.Field, v []uint64, n int) ([][]uint64, error) {
	shares := make([][]uint64, n)
	last := cloneVec(v)
	for i := 0; i < n-1; i++ {
		r, err := randWords(len(v), fl.Mask())
		if err != nil {
			return nil, err
		}
		shares[i] = r
		last = subVec(fl, last, r)
	}
	shares[n-1] = last
	return shares, nil
}
