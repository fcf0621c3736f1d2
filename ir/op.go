//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

// Package ir defines the protocol-aware intermediate representation:
// a pure dataflow graph of tensor operations produced by the compiler
// and consumed by the party simulator.
package ir

import (
	"fmt"
)

// Op identifies a node operation.
type Op uint8

// Node operations. Every value in a program is a fixed-point encoded
// tensor; LessZero produces the encoding of 1.0 or 0.0.
const (
	Input Op = iota
	Const
	Add
	Sub
	Mul
	Neg
	Square
	AddConst
	MulConst
	LessZero
	Reciprocal
	Sqrt
	Rsqrt
	Div
	MatMul
	Sum
)

var opNames = map[Op]string{
	Input:      "input",
	Const:      "const",
	Add:        "add",
	Sub:        "sub",
	Mul:        "mul",
	Neg:        "neg",
	Square:     "square",
	AddConst:   "add_const",
	MulConst:   "mul_const",
	LessZero:   "less_zero",
	Reciprocal: "reciprocal",
	Sqrt:       "sqrt",
	Rsqrt:      "rsqrt",
	Div:        "div",
	MatMul:     "matmul",
	Sum:        "sum",
}

func (op Op) String() string {
	name, ok := opNames[op]
	if ok {
		return name
	}
	return fmt.Sprintf("{Op %d}", op)
}

// Arity returns the number of value arguments the operation takes.
func (op Op) Arity() int {
	switch op {
	case Input, Const:
		return 0
	case Neg, Square, AddConst, MulConst, LessZero, Reciprocal, Sqrt,
		Rsqrt, Sum:
		return 1
	case Add, Sub, Mul, Div, MatMul:
		return 2
	default:
		return -1
	}
}

// Interactive tests if executing the operation requires inter-party
// communication under additive sharing.
func (op Op) Interactive() bool {
	switch op {
	case Mul, Square, LessZero, Reciprocal, Sqrt, Rsqrt, Div, MatMul:
		return true
	default:
		return false
	}
}
