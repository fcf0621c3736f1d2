//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package ir

import (
	"github.com/Ye-D/OpenBumbleBee/tensor"
)

// Cost estimates the correlated-randomness and communication budget
// of a program. The counts are per protocol invocation as executed by
// the simulator; sub-protocols with data-dependent behavior (the
// Goldschmidt and Newton loops have fixed iteration counts) make the
// estimate exact for multiplications and an upper bound for rounds.
// With two parties truncation is a local shift; past that every
// truncation consumes a dealer pair and an extra round.
type Cost struct {
	Triples    int
	MatTriples int
	BitTriples int
	EdaBits    int
	BitPairs   int
	TruncPairs int
	Rounds     int
}

func (c Cost) add(o Cost) Cost {
	return Cost{
		Triples:    c.Triples + o.Triples,
		MatTriples: c.MatTriples + o.MatTriples,
		BitTriples: c.BitTriples + o.BitTriples,
		EdaBits:    c.EdaBits + o.EdaBits,
		BitPairs:   c.BitPairs + o.BitPairs,
		TruncPairs: c.TruncPairs + o.TruncPairs,
		Rounds:     c.Rounds + o.Rounds,
	}
}

func scale(c Cost, n int) Cost {
	return Cost{
		Triples:    c.Triples * n,
		MatTriples: c.MatTriples * n,
		BitTriples: c.BitTriples * n,
		EdaBits:    c.EdaBits * n,
		BitPairs:   c.BitPairs * n,
		TruncPairs: c.TruncPairs * n,
		Rounds:     c.Rounds,
	}
}

// nodeCost returns the budget of one node. k is the ring width.
func nodeCost(n Node, k, parties int) Cost {
	numel := tensor.Numel(n.Shape)

	mul := Cost{Triples: 1, Rounds: 1}
	var tp Cost
	if parties > 2 {
		tp = Cost{TruncPairs: 1, Rounds: 1}
	}
	// Fixed-point multiplication: a raw product plus a truncation.
	mulT := mul.add(tp)
	// less_zero: one edabit masked open, a (k-1)-step borrow chain of
	// bit triples, and one bit pair for the arithmetic conversion.
	msb := Cost{EdaBits: 1, BitTriples: k - 1, BitPairs: 1, Rounds: k + 1}
	// bit decomposition plus prefix-OR for operand normalization.
	norm := Cost{
		EdaBits:    1,
		BitTriples: 2 * (k - 1),
		BitPairs:   k,
		Rounds:     2 * k,
	}
	// Goldschmidt: sign extraction, two raw products, normalization,
	// and nine fixed-point products.
	recip := msb.add(norm).add(scale(mul, 2)).add(scale(mulT, 9))
	recip.Rounds = msb.Rounds + norm.Rounds +
		2*mul.Rounds + 9*mulT.Rounds
	// Newton: normalization, eleven fixed-point products, and four
	// bare truncations (the seed scale and one halving per
	// iteration).
	rsqrt := norm.add(scale(mulT, 11)).add(scale(tp, 4))
	rsqrt.Rounds = norm.Rounds + 11*mulT.Rounds + 4*tp.Rounds

	switch n.Op {
	case Mul, Square:
		return scale(mulT, numel)
	case MulConst:
		return scale(tp, numel)
	case MatMul:
		return Cost{MatTriples: 1, Rounds: 1}.add(scale(tp, numel))
	case LessZero:
		return scale(msb, numel)
	case Reciprocal:
		return scale(recip, numel)
	case Rsqrt:
		return scale(rsqrt, numel)
	case Sqrt:
		return scale(rsqrt, numel).add(scale(mulT, numel))
	case Div:
		return scale(recip, numel).add(scale(mulT, numel))
	default:
		return Cost{}
	}
}

// Cost sums the budget over the whole program.
func (p *Program) Cost() Cost {
	k := p.Desc.Field.Bits()
	var total Cost
	for _, n := range p.Nodes {
		total = total.add(nodeCost(n, k, p.Desc.Parties))
	}
	return total
}
