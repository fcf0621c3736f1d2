//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package sim

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Ye-D/OpenBumbleBee/fxp"
	"github.com/Ye-D/OpenBumbleBee/ir"
)

// party executes one participant's view of the protocol. All parties
// run the same program over the same node order, so their message
// schedules and dealer requests stay aligned; the (node, seq) tag on
// every message and dealer product enforces that alignment.
type party struct {
	rank   int
	n      int
	fl     fxp.Field
	mesh   *mesh
	dealer *dealer
	ctx    context.Context
	log    *zap.SugaredLogger
	stats  *ExecStats

	node int
	seq  int
	op   string
}

func numel(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// nextSeq reserves a protocol step tag within the current node.
func (p *party) nextSeq() int {
	s := p.seq
	p.seq++
	return s
}

// open reconstructs the given share vectors in a single round. All
// vectors are packed into one message per peer. With xorMode the
// shares combine by XOR, otherwise by ring addition.
func (p *party) open(xorMode bool, vecs ...[]uint64) ([][]uint64, error) {
	total := 0
	for _, v := range vecs {
		total += len(v)
	}
	buf := make([]uint64, 0, total)
	for _, v := range vecs {
		buf = append(buf, v...)
	}
	seq := p.nextSeq()
	for to := 0; to < p.n; to++ {
		if to == p.rank {
			continue
		}
		msg := message{from: p.rank, node: p.node, seq: seq, words: buf}
		if err := p.mesh.send(p.ctx, p.rank, to, msg); err != nil {
			return nil, err
		}
	}
	acc := cloneVec(buf)
	for from := 0; from < p.n; from++ {
		if from == p.rank {
			continue
		}
		w, err := p.mesh.recv(p.ctx, from, p.rank, p.node, seq)
		if err != nil {
			return nil, err
		}
		if len(w) != total {
			return nil, &ProtocolExecutionError{
				Node: p.node,
				Reason: fmt.Sprintf(
					"open length mismatch from party %d: got %d, want %d",
					from, len(w), total),
			}
		}
		if xorMode {
			acc = xorVec(acc, w)
		} else {
			acc = addVec(p.fl, acc, w)
		}
	}
	st := p.stats.get(p.op)
	st.Rounds++
	st.Words += total * (p.n - 1)

	out := make([][]uint64, len(vecs))
	off := 0
	for i, v := range vecs {
		out[i] = acc[off : off+len(v)]
		off += len(v)
	}
	return out, nil
}

// trunc divides a fixed-point share by 2^f. With two parties the
// shift is local: party 0 shifts its share arithmetically and party 1
// shifts the negation, which reconstructs to within one unit in the
// last place. Past two parties the share-wise shifts no longer
// telescope, carries between the negated shares add multiples of
// 2^(k-f), so the value is masked with a dealer truncation pair,
// opened, and shifted in public instead.
func (p *party) trunc(x []uint64) ([]uint64, error) {
	f := p.fl.FractionBits()
	if p.n == 2 {
		out := make([]uint64, len(x))
		if p.rank == 0 {
			for i, v := range x {
				out[i] = p.fl.Ars(v, f)
			}
		} else {
			for i, v := range x {
				out[i] = p.fl.Neg(p.fl.Ars(p.fl.Neg(v), f))
			}
		}
		return out, nil
	}

	m := len(x)
	r, rHi := p.dealer.truncPair(p.node, p.nextSeq(), p.rank, m)
	p.stats.get(p.op).TruncPairs += m

	opened, err := p.open(false, addVec(p.fl, x, r))
	if err != nil {
		return nil, err
	}
	c := opened[0]

	// x = c - r up to a ring wrap; the modular subtraction of the
	// shifted halves absorbs the wrap as the sign extension of the
	// result, leaving a one-ulp borrow.
	out := negVec(p.fl, rHi)
	if p.rank == 0 {
		for i, v := range c {
			out[i] = p.fl.Add(out[i], v>>f)
		}
	}
	return out, nil
}

// mulRaw multiplies two share vectors with a Beaver triple, leaving
// the product at the sum of the operands' scales.
func (p *party) mulRaw(x, y []uint64) ([]uint64, error) {
	m := len(x)
	a, b, c := p.dealer.triple(p.node, p.nextSeq(), p.rank, m)
	p.stats.get(p.op).Triples += m

	opened, err := p.open(false,
		subVec(p.fl, x, a), subVec(p.fl, y, b))
	if err != nil {
		return nil, err
	}
	dv, ev := opened[0], opened[1]

	z := addVec(p.fl, c, mulVec(p.fl, dv, b))
	z = addVec(p.fl, z, mulVec(p.fl, ev, a))
	if p.rank == 0 {
		z = addVec(p.fl, z, mulVec(p.fl, dv, ev))
	}
	return z, nil
}

// mulTrunc is a fixed-point multiplication: Beaver product followed
// by truncation back to scale f.
func (p *party) mulTrunc(x, y []uint64) ([]uint64, error) {
	z, err := p.mulRaw(x, y)
	if err != nil {
		return nil, err
	}
	return p.trunc(z)
}

// matMul multiplies an m-by-k and a k-by-n shared matrix with a
// matrix triple and truncates the result.
func (p *party) matMul(x, y []uint64, m, k, n int) ([]uint64, error) {
	a, b, c := p.dealer.matTriple(p.node, p.nextSeq(), p.rank, m, k, n)
	p.stats.get(p.op).MatTriples++

	opened, err := p.open(false,
		subVec(p.fl, x, a), subVec(p.fl, y, b))
	if err != nil {
		return nil, err
	}
	dv, ev := opened[0], opened[1]

	z := addVec(p.fl, c, matMulRing(p.fl, dv, b, m, k, n))
	z = addVec(p.fl, z, matMulRing(p.fl, a, ev, m, k, n))
	if p.rank == 0 {
		z = addVec(p.fl, z, matMulRing(p.fl, dv, ev, m, k, n))
	}
	return p.trunc(z)
}

// addPub adds a public constant: only party 0 shifts its share.
func (p *party) addPub(x []uint64, c uint64) []uint64 {
	if p.rank != 0 {
		return x
	}
	out := make([]uint64, len(x))
	for i, v := range x {
		out[i] = p.fl.Add(v, c)
	}
	return out
}

// mulPub multiplies by a public fixed-point constant and truncates.
func (p *party) mulPub(x []uint64, c uint64) ([]uint64, error) {
	return p.trunc(scaleVec(p.fl, x, c))
}

// andBits computes the bitwise AND of two XOR-shared bit vectors
// with a boolean Beaver triple.
func (p *party) andBits(x, y []uint64) ([]uint64, error) {
	m := len(x)
	a, b, c := p.dealer.bitTriple(p.node, p.nextSeq(), p.rank, m)
	p.stats.get(p.op).BitTriples += m

	opened, err := p.open(true, xorVec(x, a), xorVec(y, b))
	if err != nil {
		return nil, err
	}
	dv, ev := opened[0], opened[1]

	z := xorVec(c, xorVec(andVec(dv, b), andVec(ev, a)))
	if p.rank == 0 {
		z = xorVec(z, andVec(dv, ev))
	}
	return z, nil
}

// bitdec decomposes an arithmetic share vector into XOR shares of
// its bits, low bit first. The value is masked with an edabit,
// opened, and the bits recovered with a public-private subtraction
// borrow chain.
func (p *party) bitdec(x []uint64) ([][]uint64, error) {
	m := len(x)
	k := int(p.fl.Bits())

	r, rBits := p.dealer.edaBit(p.node, p.nextSeq(), p.rank, m)
	p.stats.get(p.op).EdaBits += m

	opened, err := p.open(false, addVec(p.fl, x, r))
	if err != nil {
		return nil, err
	}
	c := opened[0]

	// Public bits of the masked value. Every party computes the
	// same vectors, so XOR-share arithmetic folds them in on party
	// 0 only.
	cb := make([][]uint64, k)
	for j := 0; j < k; j++ {
		bv := make([]uint64, m)
		for i, v := range c {
			bv[i] = (v >> uint(j)) & 1
		}
		cb[j] = bv
	}

	// x = c - r: diff_j = c_j ^ r_j ^ borrow_j,
	// borrow_{j+1} = (~c_j & r_j) ^ (~(c_j ^ r_j) & borrow_j).
	out := make([][]uint64, k)
	borrow := make([]uint64, m)
	for j := 0; j < k; j++ {
		xj := xorVec(rBits[j], borrow)
		if p.rank == 0 {
			xj = xorVec(xj, cb[j])
		}
		out[j] = xj

		if j == k-1 {
			break
		}
		notC := make([]uint64, m)
		for i, v := range cb[j] {
			notC[i] = v ^ 1
		}
		t1 := andVec(notC, rBits[j])
		u := rBits[j]
		if p.rank == 0 {
			u = xorVec(u, cb[j])
			u = xorVec(u, onesVec(m))
		}
		t2, err := p.andBits(u, borrow)
		if err != nil {
			return nil, err
		}
		borrow = xorVec(t1, t2)
	}
	return out, nil
}

func onesVec(m int) []uint64 {
	out := make([]uint64, m)
	for i := range out {
		out[i] = 1
	}
	return out
}

// b2aMany converts XOR-shared bit vectors to additive shares at
// scale 0 with a single bit pair and one boolean open.
func (p *party) b2aMany(vecs ...[]uint64) ([][]uint64, error) {
	total := 0
	for _, v := range vecs {
		total += len(v)
	}
	buf := make([]uint64, 0, total)
	for _, v := range vecs {
		buf = append(buf, v...)
	}

	sB, sA := p.dealer.bitPair(p.node, p.nextSeq(), p.rank, total)
	p.stats.get(p.op).BitPairs += total

	opened, err := p.open(true, xorVec(buf, sB))
	if err != nil {
		return nil, err
	}
	pb := opened[0]

	// bit = pb ^ s = pb + s - 2*pb*s with pb public.
	flat := make([]uint64, total)
	for i := range flat {
		w := sA[i]
		if pb[i] == 1 {
			w = p.fl.Neg(w)
			if p.rank == 0 {
				w = p.fl.Add(w, 1)
			}
		}
		flat[i] = w
	}

	out := make([][]uint64, len(vecs))
	off := 0
	for i, v := range vecs {
		out[i] = flat[off : off+len(v)]
		off += len(v)
	}
	return out, nil
}

// lessZero computes the sign predicate as a fixed-point 0/1 value.
func (p *party) lessZero(x []uint64) ([]uint64, error) {
	bits, err := p.bitdec(x)
	if err != nil {
		return nil, err
	}
	k := int(p.fl.Bits())
	a, err := p.b2aMany(bits[k-1])
	if err != nil {
		return nil, err
	}
	return scaleVec(p.fl, a[0], p.fl.One()), nil
}

// signFactor returns additive shares (at scale 0) of sign(x) as +1
// or -1, derived from the MSB.
func (p *party) signFactor(x []uint64) ([]uint64, error) {
	bits, err := p.bitdec(x)
	if err != nil {
		return nil, err
	}
	k := int(p.fl.Bits())
	a, err := p.b2aMany(bits[k-1])
	if err != nil {
		return nil, err
	}
	// u = 1 - 2*msb
	u := make([]uint64, len(x))
	for i, v := range a[0] {
		u[i] = p.fl.Neg(p.fl.Mul(v, 2))
		if p.rank == 0 {
			u[i] = p.fl.Add(u[i], 1)
		}
	}
	return u, nil
}

// highestOne returns, per element, additive scale-0 shares of the
// one-hot indicator of the highest set bit, computed with a
// top-down prefix OR over the bit decomposition.
func (p *party) highestOne(x []uint64) ([][]uint64, error) {
	bits, err := p.bitdec(x)
	if err != nil {
		return nil, err
	}
	k := int(p.fl.Bits())

	pref := make([][]uint64, k)
	pref[k-1] = bits[k-1]
	for j := k - 2; j >= 0; j-- {
		// a | b = a ^ b ^ (a & b)
		ab, err := p.andBits(pref[j+1], bits[j])
		if err != nil {
			return nil, err
		}
		pref[j] = xorVec(xorVec(pref[j+1], bits[j]), ab)
	}

	hot := make([][]uint64, k)
	hot[k-1] = pref[k-1]
	for j := 0; j < k-1; j++ {
		hot[j] = xorVec(pref[j], pref[j+1])
	}
	return p.b2aMany(hot...)
}

// combineOneHot folds a one-hot decomposition against public raw
// ring words, one per bit position.
func (p *party) combineOneHot(hot [][]uint64, words []uint64) []uint64 {
	m := len(hot[0])
	out := make([]uint64, m)
	for j, h := range hot {
		if words[j] == 0 {
			continue
		}
		for i, v := range h {
			out[i] = p.fl.Add(out[i], p.fl.Mul(v, words[j]))
		}
	}
	return out
}

// normFactor returns shares of the scale-f factor 2^(f-1-j) where j
// is the element's highest set bit, so that mulTrunc(x, factor)
// lands in [1/2, 1). Values at or above 2^f map to factor 0.
func (p *party) normFactor(hot [][]uint64) []uint64 {
	k := int(p.fl.Bits())
	f := int(p.fl.FractionBits())
	words := make([]uint64, k)
	for j := 0; j < k; j++ {
		sh := 2*f - 1 - j
		if sh >= 0 {
			words[j] = uint64(1) << uint(sh)
		}
	}
	return p.combineOneHot(hot, words)
}

// reciprocal approximates 1/x with sign extraction, power-of-two
// normalization into [1/2, 1), and three Goldschmidt iterations.
func (p *party) reciprocal(x []uint64) ([]uint64, error) {
	u, err := p.signFactor(x)
	if err != nil {
		return nil, err
	}
	ax, err := p.mulRaw(x, u)
	if err != nil {
		return nil, err
	}

	hot, err := p.highestOne(ax)
	if err != nil {
		return nil, err
	}
	factor := p.normFactor(hot)
	w, err := p.mulTrunc(ax, factor)
	if err != nil {
		return nil, err
	}

	// y0 = 2.9142 - 2w, e = 1 - w*y0.
	one := p.fl.One()
	y := p.addPub(negVec(p.fl, scaleVec(p.fl, w, 2)),
		p.fl.Encode(2.9142))
	wy, err := p.mulTrunc(w, y)
	if err != nil {
		return nil, err
	}
	e := p.addPub(negVec(p.fl, wy), one)
	for i := 0; i < 3; i++ {
		y, err = p.mulTrunc(y, p.addPub(e, one))
		if err != nil {
			return nil, err
		}
		e, err = p.mulTrunc(e, e)
		if err != nil {
			return nil, err
		}
	}

	// 1/x = u * factor * (1/w).
	r, err := p.mulTrunc(y, factor)
	if err != nil {
		return nil, err
	}
	return p.mulRaw(r, u)
}

// rsqrtScale returns shares of the factor 2^(-(j+1-f)/2) matching
// the normalization of normFactor, so that multiplying the
// normalized inverse square root by it undoes the scaling.
func (p *party) rsqrtScale(hot [][]uint64) []uint64 {
	k := int(p.fl.Bits())
	f := int(p.fl.FractionBits())
	words := make([]uint64, k)
	for j := 0; j < k; j++ {
		psi := math.Pow(2, -float64(j+1-f)/2)
		if psi <= p.fl.MaxAbs() {
			words[j] = p.fl.Encode(psi)
		}
	}
	return p.combineOneHot(hot, words)
}

// rsqrt approximates 1/sqrt(x) for positive x with power-of-two
// normalization and three Newton iterations.
func (p *party) rsqrt(x []uint64) ([]uint64, error) {
	hot, err := p.highestOne(x)
	if err != nil {
		return nil, err
	}
	factor := p.normFactor(hot)
	w, err := p.mulTrunc(x, factor)
	if err != nil {
		return nil, err
	}

	// Linear seed over [1/2, 1), then y = y*(1.5 - w*y^2/2).
	one := p.fl.One()
	sw, err := p.mulPub(w, p.fl.Encode(0.804113624912635))
	if err != nil {
		return nil, err
	}
	y := p.addPub(negVec(p.fl, sw), p.fl.Encode(1.7746936303999847))
	for i := 0; i < 3; i++ {
		y2, err := p.mulTrunc(y, y)
		if err != nil {
			return nil, err
		}
		wy2, err := p.mulTrunc(w, y2)
		if err != nil {
			return nil, err
		}
		hv, err := p.trunc(scaleVec(p.fl, wy2, one/2))
		if err != nil {
			return nil, err
		}
		h := p.addPub(negVec(p.fl, hv), p.fl.Encode(1.5))
		y, err = p.mulTrunc(y, h)
		if err != nil {
			return nil, err
		}
	}

	scale := p.rsqrtScale(hot)
	return p.mulTrunc(y, scale)
}

// run executes the program over this party's input shares and
// returns its output shares.
func (p *party) run(prog *ir.Program, inputs [][]uint64) (
	[][]uint64, error) {

	inputPos := make(map[int]int)
	for pos, id := range prog.Inputs {
		inputPos[id] = pos
	}

	vals := make([][]uint64, len(prog.Nodes))
	for id := range prog.Nodes {
		n := &prog.Nodes[id]
		p.node = id
		p.seq = 0
		p.op = n.Op.String()
		p.stats.get(p.op).Count++

		m := numel(n.Shape)
		arg := func(i int) []uint64 {
			return expand(vals[n.Args[i]], m)
		}

		var out []uint64
		var err error
		switch n.Op {
		case ir.Input:
			out = inputs[inputPos[id]]

		case ir.Const:
			if p.rank == 0 {
				out = p.fl.EncodeTensor(n.Value)
			} else {
				out = make([]uint64, m)
			}

		case ir.Add:
			out = addVec(p.fl, arg(0), arg(1))

		case ir.Sub:
			out = subVec(p.fl, arg(0), arg(1))

		case ir.Neg:
			out = negVec(p.fl, arg(0))

		case ir.Mul:
			out, err = p.mulTrunc(arg(0), arg(1))

		case ir.Square:
			x := arg(0)
			out, err = p.mulTrunc(x, x)

		case ir.AddConst:
			out = p.addPub(arg(0), p.fl.Encode(n.Scalar))

		case ir.MulConst:
			out, err = p.mulPub(arg(0), p.fl.Encode(n.Scalar))

		case ir.LessZero:
			out, err = p.lessZero(arg(0))

		case ir.Reciprocal:
			out, err = p.reciprocal(arg(0))

		case ir.Sqrt:
			var r []uint64
			r, err = p.rsqrt(arg(0))
			if err == nil {
				out, err = p.mulTrunc(arg(0), r)
			}

		case ir.Rsqrt:
			out, err = p.rsqrt(arg(0))

		case ir.Div:
			var r []uint64
			r, err = p.reciprocal(arg(1))
			if err == nil {
				out, err = p.mulTrunc(arg(0), r)
			}

		case ir.MatMul:
			ls := prog.Nodes[n.Args[0]].Shape
			rs := prog.Nodes[n.Args[1]].Shape
			out, err = p.matMul(vals[n.Args[0]], vals[n.Args[1]],
				ls[0], ls[1], rs[1])

		case ir.Sum:
			out = sumVec(p.fl, vals[n.Args[0]])

		default:
			err = fmt.Errorf("unhandled operation %s", n.Op)
		}
		if err != nil {
			if _, ok := err.(*ProtocolExecutionError); ok {
				return nil, err
			}
			if err == context.Canceled ||
				err == context.DeadlineExceeded {
				return nil, err
			}
			return nil, &ProtocolExecutionError{
				Node:   id,
				Reason: err.Error(),
			}
		}
		vals[id] = out
	}

	outs := make([][]uint64, len(prog.Outputs))
	for i, id := range prog.Outputs {
		outs[i] = vals[id]
	}
	return outs, nil
}
