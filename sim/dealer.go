//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package sim

import (
	"fmt"
	"sync"

	"github.com/Ye-D/OpenBumbleBee/fxp"
)

// dealer is the session's source of correlated randomness: Beaver
// triples, matrix triples, boolean triples, edabits, and bit pairs.
// Each product is generated once per (node, seq) tag and handed out
// share-wise to every party exactly once. In a networked deployment
// the equivalent material comes from an offline phase; the round and
// message structure of the online phase is unchanged.
type dealer struct {
	mu    sync.Mutex
	fl    fxp.Field
	n     int
	prng  *prng
	cache map[string]*handout
}

// handout holds one product's per-party share bundles until every
// party has collected its part.
type handout struct {
	shares [][][]uint64
	left   int
}

func newDealer(fl fxp.Field, n int, seed []byte) (*dealer, error) {
	p, err := newPRNG(seed)
	if err != nil {
		return nil, err
	}
	return &dealer{
		fl:    fl,
		n:     n,
		prng:  p,
		cache: make(map[string]*handout),
	}, nil
}

// get returns rank's share bundle for the keyed product, generating
// it on first request.
func (d *dealer) get(key string, rank int,
	gen func() [][][]uint64) [][]uint64 {

	d.mu.Lock()
	defer d.mu.Unlock()

	h, ok := d.cache[key]
	if !ok {
		h = &handout{
			shares: gen(),
			left:   d.n,
		}
		d.cache[key] = h
	}
	out := h.shares[rank]
	h.left--
	if h.left == 0 {
		delete(d.cache, key)
	}
	return out
}

// splitRing additively shares each vector across the parties using
// the dealer PRNG.
func (d *dealer) splitRing(vecs ...[]uint64) [][][]uint64 {
	out := make([][][]uint64, d.n)
	for rank := range out {
		out[rank] = make([][]uint64, len(vecs))
	}
	for vi, v := range vecs {
		last := cloneVec(v)
		for rank := 0; rank < d.n-1; rank++ {
			r := d.prng.words(len(v), d.fl.Mask())
			out[rank][vi] = r
			last = subVec(d.fl, last, r)
		}
		out[d.n-1][vi] = last
	}
	return out
}

// splitXor XOR-shares each single-bit vector across the parties.
func (d *dealer) splitXor(vecs ...[]uint64) [][][]uint64 {
	out := make([][][]uint64, d.n)
	for rank := range out {
		out[rank] = make([][]uint64, len(vecs))
	}
	for vi, v := range vecs {
		last := cloneVec(v)
		for rank := 0; rank < d.n-1; rank++ {
			r := d.prng.bits(len(v))
			out[rank][vi] = r
			last = xorVec(last, r)
		}
		out[d.n-1][vi] = last
	}
	return out
}

// triple returns additive shares of (a, b, a*b) over m elements.
func (d *dealer) triple(node, seq, rank, m int) (a, b, c []uint64) {
	key := fmt.Sprintf("triple/%d/%d", node, seq)
	sh := d.get(key, rank, func() [][][]uint64 {
		av := d.prng.words(m, d.fl.Mask())
		bv := d.prng.words(m, d.fl.Mask())
		cv := mulVec(d.fl, av, bv)
		return d.splitRing(av, bv, cv)
	})
	return sh[0], sh[1], sh[2]
}

// matTriple returns additive shares of matrices (A, B, A*B) with
// dimensions m-by-k and k-by-n.
func (d *dealer) matTriple(node, seq, rank, m, k, n int) (
	a, b, c []uint64) {

	key := fmt.Sprintf("mat/%d/%d", node, seq)
	sh := d.get(key, rank, func() [][][]uint64 {
		av := d.prng.words(m*k, d.fl.Mask())
		bv := d.prng.words(k*n, d.fl.Mask())
		cv := matMulRing(d.fl, av, bv, m, k, n)
		return d.splitRing(av, bv, cv)
	})
	return sh[0], sh[1], sh[2]
}

// bitTriple returns XOR shares of (a, b, a&b) over m bits.
func (d *dealer) bitTriple(node, seq, rank, m int) (a, b, c []uint64) {
	key := fmt.Sprintf("bit/%d/%d", node, seq)
	sh := d.get(key, rank, func() [][][]uint64 {
		av := d.prng.bits(m)
		bv := d.prng.bits(m)
		cv := andVec(av, bv)
		return d.splitXor(av, bv, cv)
	})
	return sh[0], sh[1], sh[2]
}

// edaBit returns, for m elements, additive shares of a uniform ring
// element r together with XOR shares of each of r's k bits, low bit
// first.
func (d *dealer) edaBit(node, seq, rank, m int) (
	r []uint64, bits [][]uint64) {

	k := int(d.fl.Bits())
	key := fmt.Sprintf("eda/%d/%d", node, seq)
	sh := d.get(key, rank, func() [][][]uint64 {
		rv := d.prng.words(m, d.fl.Mask())
		arith := d.splitRing(rv)
		bitVecs := make([][]uint64, k)
		for j := 0; j < k; j++ {
			bv := make([]uint64, m)
			for i, v := range rv {
				bv[i] = (v >> uint(j)) & 1
			}
			bitVecs[j] = bv
		}
		boolSh := d.splitXor(bitVecs...)
		out := make([][][]uint64, d.n)
		for rnk := 0; rnk < d.n; rnk++ {
			out[rnk] = append([][]uint64{arith[rnk][0]}, boolSh[rnk]...)
		}
		return out
	})
	return sh[0], sh[1:]
}

// truncPair returns, for m elements, additive shares of a uniform
// ring element r together with additive shares of r >> f (logical).
// Opening x+r and shifting the public value lets the parties divide
// by 2^f without the share-wise carry losses a local shift has past
// two parties.
func (d *dealer) truncPair(node, seq, rank, m int) (
	r, rHi []uint64) {

	f := uint(d.fl.FractionBits())
	key := fmt.Sprintf("trunc/%d/%d", node, seq)
	sh := d.get(key, rank, func() [][][]uint64 {
		rv := d.prng.words(m, d.fl.Mask())
		hv := make([]uint64, m)
		for i, v := range rv {
			hv[i] = v >> f
		}
		return d.splitRing(rv, hv)
	})
	return sh[0], sh[1]
}

// bitPair returns, for m elements, a random bit shared both ways:
// XOR shares and additive ring shares.
func (d *dealer) bitPair(node, seq, rank, m int) (
	boolSh, arithSh []uint64) {

	key := fmt.Sprintf("pair/%d/%d", node, seq)
	sh := d.get(key, rank, func() [][][]uint64 {
		sv := d.prng.bits(m)
		b := d.splitXor(sv)
		a := d.splitRing(sv)
		out := make([][][]uint64, d.n)
		for rnk := 0; rnk < d.n; rnk++ {
			out[rnk] = [][]uint64{b[rnk][0], a[rnk][0]}
		}
		return out
	})
	return sh[0], sh[1]
}
