//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package ir

import (
	"fmt"
	"math"

	"github.com/Ye-D/OpenBumbleBee/tensor"
)

// EvalNode evaluates a single node over plaintext argument tensors.
// Used by the reference evaluator and by compile-time constant
// folding.
func EvalNode(n Node, args []*tensor.Tensor) (*tensor.Tensor, error) {
	switch n.Op {
	case Const:
		return n.Value.Clone(), nil
	case Add:
		return tensor.Add(args[0], args[1])
	case Sub:
		return tensor.Sub(args[0], args[1])
	case Mul:
		return tensor.Mul(args[0], args[1])
	case Div:
		return tensor.Div(args[0], args[1])
	case Neg:
		return args[0].Neg(), nil
	case Square:
		return tensor.Mul(args[0], args[0])
	case AddConst:
		return args[0].AddScalar(n.Scalar), nil
	case MulConst:
		return args[0].Scale(n.Scalar), nil
	case LessZero:
		return args[0].Map(func(v float64) float64 {
			if v < 0 {
				return 1
			}
			return 0
		}), nil
	case Reciprocal:
		return args[0].Map(func(v float64) float64 { return 1 / v }), nil
	case Sqrt:
		return args[0].Map(math.Sqrt), nil
	case Rsqrt:
		return args[0].Map(func(v float64) float64 {
			return 1 / math.Sqrt(v)
		}), nil
	case MatMul:
		return tensor.MatMul(args[0], args[1])
	case Sum:
		return args[0].Sum(), nil
	default:
		return nil, fmt.Errorf("ir: cannot evaluate %s", n.Op)
	}
}

// EvalPlain runs the program over plaintext tensors with float64
// semantics. This is the reference the secure execution is diffed
// against; it is also what constant folding uses.
func (p *Program) EvalPlain(inputs ...*tensor.Tensor) (
	[]*tensor.Tensor, error) {

	if len(inputs) != len(p.Inputs) {
		return nil, fmt.Errorf("ir: %d inputs, program takes %d",
			len(inputs), len(p.Inputs))
	}
	inputIdx := make(map[int]int)
	for i, id := range p.Inputs {
		inputIdx[id] = i
	}
	vals := make([]*tensor.Tensor, len(p.Nodes))
	for id, n := range p.Nodes {
		if n.Op == Input {
			idx, ok := inputIdx[id]
			if !ok {
				return nil, fmt.Errorf("ir: unbound input node %%%d", id)
			}
			in := inputs[idx]
			if !tensor.SameShape(in.Shape(), n.Shape) {
				return nil, fmt.Errorf("ir: input %d shape %v, program "+
					"expects %v", idx, in.Shape(), n.Shape)
			}
			vals[id] = in
			continue
		}
		args := make([]*tensor.Tensor, len(n.Args))
		for i, a := range n.Args {
			args[i] = vals[a]
		}
		v, err := EvalNode(n, args)
		if err != nil {
			return nil, fmt.Errorf("ir: node %%%d: %w", id, err)
		}
		vals[id] = v
	}
	outs := make([]*tensor.Tensor, len(p.Outputs))
	for i, id := range p.Outputs {
		outs[i] = vals[id]
	}
	return outs, nil
}
