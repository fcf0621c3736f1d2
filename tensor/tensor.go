//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

// Package tensor implements dense n-dimensional arrays of float64
// values. The shape of a tensor is fixed at creation time.
package tensor

import (
	"fmt"
	"math"
)

// Tensor is a dense row-major n-dimensional array. A tensor with an
// empty shape is a scalar holding exactly one element.
type Tensor struct {
	shape []int
	data  []float64
}

// Numel returns the number of elements a shape holds.
func Numel(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// SameShape tests if the shapes a and b are equal.
func SameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i, d := range a {
		if d != b[i] {
			return false
		}
	}
	return true
}

// New creates a zero-valued tensor with the given shape.
func New(shape ...int) *Tensor {
	for _, d := range shape {
		if d <= 0 {
			panic(fmt.Sprintf("tensor: invalid dimension %d", d))
		}
	}
	return &Tensor{
		shape: append([]int{}, shape...),
		data:  make([]float64, Numel(shape)),
	}
}

// FromSlice creates a tensor with the given shape, initialized from
// data. The length of data must match the shape.
func FromSlice(data []float64, shape ...int) (*Tensor, error) {
	if len(data) != Numel(shape) {
		return nil, fmt.Errorf("tensor: %d elements for shape %v",
			len(data), shape)
	}
	t := New(shape...)
	copy(t.data, data)
	return t, nil
}

// Scalar creates a rank-0 tensor holding v.
func Scalar(v float64) *Tensor {
	return &Tensor{
		shape: []int{},
		data:  []float64{v},
	}
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() []int {
	return append([]int{}, t.shape...)
}

// Size returns the number of elements.
func (t *Tensor) Size() int {
	return len(t.data)
}

// IsScalar tests if the tensor is rank-0.
func (t *Tensor) IsScalar() bool {
	return len(t.shape) == 0
}

// Data returns the tensor's backing slice in row-major order.
func (t *Tensor) Data() []float64 {
	return t.data
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	c := &Tensor{
		shape: append([]int{}, t.shape...),
		data:  make([]float64, len(t.data)),
	}
	copy(c.data, t.data)
	return c
}

// At returns the element at the given index.
func (t *Tensor) At(index ...int) float64 {
	return t.data[t.offset(index)]
}

// Set assigns the element at the given index.
func (t *Tensor) Set(v float64, index ...int) {
	t.data[t.offset(index)] = v
}

func (t *Tensor) offset(index []int) int {
	if len(index) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index %v for shape %v", index, t.shape))
	}
	off := 0
	for i, idx := range index {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %v for shape %v", index, t.shape))
		}
		off = off*t.shape[i] + idx
	}
	return off
}

// Map applies f elementwise, returning a new tensor.
func (t *Tensor) Map(f func(float64) float64) *Tensor {
	r := t.Clone()
	for i, v := range r.data {
		r.data[i] = f(v)
	}
	return r
}

// Neg returns the elementwise negation.
func (t *Tensor) Neg() *Tensor {
	return t.Map(func(v float64) float64 { return -v })
}

// Scale returns the tensor multiplied by the scalar c.
func (t *Tensor) Scale(c float64) *Tensor {
	return t.Map(func(v float64) float64 { return v * c })
}

// AddScalar returns the tensor with c added to every element.
func (t *Tensor) AddScalar(c float64) *Tensor {
	return t.Map(func(v float64) float64 { return v + c })
}

// Sum reduces all elements to a rank-0 tensor.
func (t *Tensor) Sum() *Tensor {
	var s float64
	for _, v := range t.data {
		s += v
	}
	return Scalar(s)
}

// binop applies f elementwise over a and b. The shapes must be equal,
// or one operand must be a scalar which is broadcast over the other.
func binop(op string, a, b *Tensor, f func(x, y float64) float64) (
	*Tensor, error) {

	switch {
	case SameShape(a.shape, b.shape):
		r := &Tensor{shape: a.Shape(), data: make([]float64, len(a.data))}
		for i := range r.data {
			r.data[i] = f(a.data[i], b.data[i])
		}
		return r, nil

	case a.IsScalar():
		x := a.data[0]
		return b.Map(func(y float64) float64 { return f(x, y) }), nil

	case b.IsScalar():
		y := b.data[0]
		return a.Map(func(x float64) float64 { return f(x, y) }), nil

	default:
		return nil, fmt.Errorf("tensor: %s shape mismatch: %v vs %v",
			op, a.shape, b.shape)
	}
}

// Add returns the elementwise sum of a and b.
func Add(a, b *Tensor) (*Tensor, error) {
	return binop("add", a, b, func(x, y float64) float64 { return x + y })
}

// Sub returns the elementwise difference of a and b.
func Sub(a, b *Tensor) (*Tensor, error) {
	return binop("sub", a, b, func(x, y float64) float64 { return x - y })
}

// Mul returns the elementwise product of a and b.
func Mul(a, b *Tensor) (*Tensor, error) {
	return binop("mul", a, b, func(x, y float64) float64 { return x * y })
}

// Div returns the elementwise quotient of a and b.
func Div(a, b *Tensor) (*Tensor, error) {
	return binop("div", a, b, func(x, y float64) float64 { return x / y })
}

// MatMul returns the matrix product of two rank-2 tensors.
func MatMul(a, b *Tensor) (*Tensor, error) {
	if len(a.shape) != 2 || len(b.shape) != 2 {
		return nil, fmt.Errorf("tensor: matmul needs rank-2 operands: %v, %v",
			a.shape, b.shape)
	}
	m, k := a.shape[0], a.shape[1]
	k2, n := b.shape[0], b.shape[1]
	if k != k2 {
		return nil, fmt.Errorf("tensor: matmul inner dimensions: %v vs %v",
			a.shape, b.shape)
	}
	r := New(m, n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var s float64
			for l := 0; l < k; l++ {
				s += a.data[i*k+l] * b.data[l*n+j]
			}
			r.data[i*n+j] = s
		}
	}
	return r, nil
}

// MaxAbsDiff returns the largest elementwise |a-b|.
func MaxAbsDiff(a, b *Tensor) (float64, error) {
	if !SameShape(a.shape, b.shape) {
		return 0, fmt.Errorf("tensor: diff shape mismatch: %v vs %v",
			a.shape, b.shape)
	}
	var max float64
	for i := range a.data {
		d := math.Abs(a.data[i] - b.data[i])
		if d > max {
			max = d
		}
	}
	return max, nil
}
