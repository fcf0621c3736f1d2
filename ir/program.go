//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package ir

import (
	"fmt"

	"github.com/Ye-D/OpenBumbleBee/protocol"
	"github.com/Ye-D/OpenBumbleBee/tensor"
)

// Node is one operation in a program. Args are value IDs, which are
// indices of earlier nodes; the graph is in topological order by
// construction.
type Node struct {
	Op    Op
	Args  []int
	Shape []int

	// Value holds the payload of a Const node.
	Value *tensor.Tensor

	// Scalar holds the public operand of AddConst and MulConst.
	Scalar float64
}

// Program is an immutable compiled function: an ordered node list
// plus the session configuration it was compiled for.
type Program struct {
	Desc    protocol.Descriptor
	Nodes   []Node
	Inputs  []int
	Outputs []int
}

// BinaryShape resolves the result shape of an elementwise binary
// operation: equal shapes, or a scalar broadcast against the other
// operand.
func BinaryShape(a, b []int) ([]int, bool) {
	if tensor.SameShape(a, b) {
		return a, true
	}
	if len(a) == 0 {
		return b, true
	}
	if len(b) == 0 {
		return a, true
	}
	return nil, false
}

// InferShape computes the result shape of op over the argument
// shapes, or reports that the combination is invalid.
func InferShape(op Op, args ...[]int) ([]int, bool) {
	switch op {
	case Add, Sub, Mul, Div:
		if len(args) != 2 {
			return nil, false
		}
		return BinaryShape(args[0], args[1])

	case Neg, Square, AddConst, MulConst, LessZero, Reciprocal, Sqrt,
		Rsqrt:
		if len(args) != 1 {
			return nil, false
		}
		return args[0], true

	case Sum:
		if len(args) != 1 {
			return nil, false
		}
		return []int{}, true

	case MatMul:
		if len(args) != 2 || len(args[0]) != 2 || len(args[1]) != 2 ||
			args[0][1] != args[1][0] {
			return nil, false
		}
		return []int{args[0][0], args[1][1]}, true

	default:
		return nil, false
	}
}

// Validate checks the program's internal consistency: argument
// ordering, arities, and shape propagation.
func (p *Program) Validate() error {
	for id, n := range p.Nodes {
		if n.Op.Arity() != len(n.Args) {
			return fmt.Errorf("ir: node %%%d: %s with %d arguments",
				id, n.Op, len(n.Args))
		}
		for _, a := range n.Args {
			if a < 0 || a >= id {
				return fmt.Errorf("ir: node %%%d: argument %%%d out of order",
					id, a)
			}
		}
		switch n.Op {
		case Input:
			// Shape is declared, nothing to infer.
		case Const:
			if n.Value == nil {
				return fmt.Errorf("ir: node %%%d: const without value", id)
			}
			if !tensor.SameShape(n.Value.Shape(), n.Shape) {
				return fmt.Errorf("ir: node %%%d: const shape %v vs %v",
					id, n.Value.Shape(), n.Shape)
			}
		default:
			shapes := make([][]int, len(n.Args))
			for i, a := range n.Args {
				shapes[i] = p.Nodes[a].Shape
			}
			want, ok := InferShape(n.Op, shapes...)
			if !ok {
				return fmt.Errorf("ir: node %%%d: %s over shapes %v",
					id, n.Op, shapes)
			}
			if !tensor.SameShape(want, n.Shape) {
				return fmt.Errorf("ir: node %%%d: shape %v, expected %v",
					id, n.Shape, want)
			}
		}
	}
	for _, id := range p.Inputs {
		if id < 0 || id >= len(p.Nodes) || p.Nodes[id].Op != Input {
			return fmt.Errorf("ir: invalid input node %%%d", id)
		}
	}
	if len(p.Outputs) == 0 {
		return fmt.Errorf("ir: program has no outputs")
	}
	for _, id := range p.Outputs {
		if id < 0 || id >= len(p.Nodes) {
			return fmt.Errorf("ir: invalid output node %%%d", id)
		}
	}
	return nil
}
