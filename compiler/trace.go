//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package compiler

import (
	"fmt"

	"github.com/Ye-D/OpenBumbleBee/ir"
	"github.com/Ye-D/OpenBumbleBee/protocol"
	"github.com/Ye-D/OpenBumbleBee/tensor"
)

// Builder records the operations a traced function invokes,
// appending one IR node per operation. The first error sticks: once
// tracing fails, every further operation returns an invalid value and
// Compile reports the original error.
type Builder struct {
	desc      protocol.Descriptor
	reg       *Registry
	nodes     []ir.Node
	inputs    []int
	subs      []Substitution
	callSites int
	err       error
}

// Value is a symbolic tensor: a handle to one value of the graph
// under construction. All supported operations are methods appending
// nodes to the builder.
type Value struct {
	b     *Builder
	id    int
	shape []int
}

// Shape returns the value's tensor shape.
func (v *Value) Shape() []int {
	return append([]int{}, v.shape...)
}

func (b *Builder) fail(err error) *Value {
	if b.err == nil {
		b.err = err
	}
	return &Value{b: b, id: -1}
}

func (b *Builder) push(n ir.Node) *Value {
	if b.err != nil {
		return &Value{b: b, id: -1}
	}
	b.nodes = append(b.nodes, n)
	return &Value{b: b, id: len(b.nodes) - 1, shape: n.Shape}
}

// valid reports whether all values belong to this builder and carry
// usable IDs.
func (b *Builder) valid(vs ...*Value) bool {
	if b.err != nil {
		return false
	}
	for _, v := range vs {
		if v == nil || v.b != b || v.id < 0 {
			if b.err == nil {
				b.err = fmt.Errorf("compile: value from another trace")
			}
			return false
		}
	}
	return true
}

// Input declares a function argument with the given shape.
func (b *Builder) Input(shape ...int) *Value {
	v := b.push(ir.Node{
		Op:    ir.Input,
		Args:  []int{},
		Shape: append([]int{}, shape...),
	})
	if v.id >= 0 {
		b.inputs = append(b.inputs, v.id)
	}
	return v
}

// Constant embeds a plaintext tensor as a public constant.
func (b *Builder) Constant(t *tensor.Tensor) *Value {
	return b.push(ir.Node{
		Op:    ir.Const,
		Args:  []int{},
		Shape: t.Shape(),
		Value: t.Clone(),
	})
}

// Intrinsic substitutes the named pre-built sub-circuit at the call
// site. The substitution is recorded in the compilation manifest.
func (b *Builder) Intrinsic(name string, args ...*Value) *Value {
	if !b.valid(args...) {
		return &Value{b: b, id: -1}
	}
	fn, ok := b.reg.Lookup(name)
	if !ok {
		return b.fail(&UnsupportedOperatorError{Name: name})
	}
	site := b.callSites
	b.callSites++
	first := len(b.nodes)
	out := fn(b, args...)
	if b.err != nil {
		return &Value{b: b, id: -1}
	}
	b.subs = append(b.subs, Substitution{
		Name:      name,
		CallSite:  site,
		FirstNode: first,
		LastNode:  len(b.nodes) - 1,
	})
	return out
}

func (b *Builder) binary(op ir.Op, x, y *Value) *Value {
	if !b.valid(x, y) {
		return &Value{b: b, id: -1}
	}
	shape, ok := ir.InferShape(op, x.shape, y.shape)
	if !ok {
		return b.fail(&ShapeMismatchError{
			Op:    op.String(),
			Left:  x.Shape(),
			Right: y.Shape(),
		})
	}
	return b.push(ir.Node{
		Op:    op,
		Args:  []int{x.id, y.id},
		Shape: append([]int{}, shape...),
	})
}

func (b *Builder) unary(op ir.Op, x *Value, scalar float64) *Value {
	if !b.valid(x) {
		return &Value{b: b, id: -1}
	}
	shape, _ := ir.InferShape(op, x.shape)
	return b.push(ir.Node{
		Op:     op,
		Args:   []int{x.id},
		Shape:  append([]int{}, shape...),
		Scalar: scalar,
	})
}

// Add returns v + o elementwise.
func (v *Value) Add(o *Value) *Value { return v.b.binary(ir.Add, v, o) }

// Sub returns v - o elementwise.
func (v *Value) Sub(o *Value) *Value { return v.b.binary(ir.Sub, v, o) }

// Mul returns v * o elementwise.
func (v *Value) Mul(o *Value) *Value { return v.b.binary(ir.Mul, v, o) }

// Div returns v / o elementwise.
func (v *Value) Div(o *Value) *Value { return v.b.binary(ir.Div, v, o) }

// MatMul returns the matrix product of two rank-2 values.
func (v *Value) MatMul(o *Value) *Value {
	return v.b.binary(ir.MatMul, v, o)
}

// Neg returns -v.
func (v *Value) Neg() *Value { return v.b.unary(ir.Neg, v, 0) }

// Square returns v * v.
func (v *Value) Square() *Value { return v.b.unary(ir.Square, v, 0) }

// Sqrt returns the elementwise square root.
func (v *Value) Sqrt() *Value { return v.b.unary(ir.Sqrt, v, 0) }

// Rsqrt returns the elementwise reciprocal square root.
func (v *Value) Rsqrt() *Value { return v.b.unary(ir.Rsqrt, v, 0) }

// Reciprocal returns the elementwise reciprocal.
func (v *Value) Reciprocal() *Value {
	return v.b.unary(ir.Reciprocal, v, 0)
}

// Sum reduces all elements to a scalar.
func (v *Value) Sum() *Value { return v.b.unary(ir.Sum, v, 0) }

// AddConst returns v + c elementwise for a public scalar c.
func (v *Value) AddConst(c float64) *Value {
	return v.b.unary(ir.AddConst, v, c)
}

// MulConst returns v * c elementwise for a public scalar c.
func (v *Value) MulConst(c float64) *Value {
	return v.b.unary(ir.MulConst, v, c)
}

// LessZero returns 1.0 where v < 0 and 0.0 elsewhere.
func (v *Value) LessZero() *Value {
	return v.b.unary(ir.LessZero, v, 0)
}

// Less returns 1.0 where v < o and 0.0 elsewhere.
func (v *Value) Less(o *Value) *Value {
	return v.Sub(o).LessZero()
}

// Max returns the elementwise maximum of v and o.
func (v *Value) Max(o *Value) *Value {
	// max(a,b) = a - (a-b)*[a<b]
	d := v.Sub(o)
	return v.Sub(d.Mul(d.LessZero()))
}

// Min returns the elementwise minimum of v and o.
func (v *Value) Min(o *Value) *Value {
	// min(a,b) = a - (a-b)*[b<a]
	d := v.Sub(o)
	return v.Sub(d.Mul(d.Neg().LessZero()))
}

// ClampMin returns the elementwise maximum of v and the public
// scalar c.
func (v *Value) ClampMin(c float64) *Value {
	// max(v,c) = v - (v-c)*[v<c]
	d := v.AddConst(-c)
	return v.Sub(d.Mul(d.LessZero()))
}

// ClampMax returns the elementwise minimum of v and the public
// scalar c.
func (v *Value) ClampMax(c float64) *Value {
	// min(v,c) = v - (v-c)*[c<v]
	d := v.AddConst(-c)
	return v.Sub(d.Mul(d.Neg().LessZero()))
}

// Clip limits v to the inclusive range [lo, hi].
func (v *Value) Clip(lo, hi float64) *Value {
	return v.ClampMin(lo).ClampMax(hi)
}

// Intrinsic applies the named registered intrinsic to v and any
// extra arguments.
func (v *Value) Intrinsic(name string, extra ...*Value) *Value {
	return v.b.Intrinsic(name, append([]*Value{v}, extra...)...)
}
