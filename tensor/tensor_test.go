//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package tensor

import (
	"math"
	"testing"
)

func TestIndexing(t *testing.T) {
	x := New(2, 3)
	x.Set(1.5, 0, 1)
	x.Set(-2.25, 1, 2)

	if v := x.At(0, 1); v != 1.5 {
		t.Errorf("At(0,1): got %v, want 1.5", v)
	}
	if v := x.At(1, 2); v != -2.25 {
		t.Errorf("At(1,2): got %v, want -2.25", v)
	}
	if v := x.At(0, 0); v != 0 {
		t.Errorf("At(0,0): got %v, want 0", v)
	}
}

func TestFromSlice(t *testing.T) {
	_, err := FromSlice([]float64{1, 2, 3}, 2, 2)
	if err == nil {
		t.Error("FromSlice accepted mismatched length")
	}
	x, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if v := x.At(1, 0); v != 4 {
		t.Errorf("At(1,0): got %v, want 4", v)
	}
}

func TestScalarBroadcast(t *testing.T) {
	x, _ := FromSlice([]float64{1, 2, 3, 4}, 2, 2)
	c := Scalar(10)

	sum, err := Add(x, c)
	if err != nil {
		t.Fatal(err)
	}
	if !SameShape(sum.Shape(), []int{2, 2}) {
		t.Fatalf("broadcast shape: got %v", sum.Shape())
	}
	if v := sum.At(1, 1); v != 14 {
		t.Errorf("At(1,1): got %v, want 14", v)
	}

	sum2, err := Add(c, x)
	if err != nil {
		t.Fatal(err)
	}
	if v := sum2.At(0, 0); v != 11 {
		t.Errorf("At(0,0): got %v, want 11", v)
	}
}

func TestBinopShapeMismatch(t *testing.T) {
	a := New(2, 3)
	b := New(3, 2)
	if _, err := Add(a, b); err == nil {
		t.Error("Add accepted mismatched shapes")
	}
}

func TestMatMul(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	b, _ := FromSlice([]float64{7, 8, 9, 10, 11, 12}, 3, 2)

	c, err := MatMul(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]float64{{58, 64}, {139, 154}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if v := c.At(i, j); v != want[i][j] {
				t.Errorf("At(%d,%d): got %v, want %v", i, j, v, want[i][j])
			}
		}
	}

	if _, err := MatMul(a, a); err == nil {
		t.Error("MatMul accepted incompatible dimensions")
	}
}

func TestMapSum(t *testing.T) {
	x, _ := FromSlice([]float64{-1, 0, 1, 2}, 4)
	y := x.Map(math.Abs)
	if v := y.At(0); v != 1 {
		t.Errorf("Map abs: got %v, want 1", v)
	}
	s := x.Sum()
	if !s.IsScalar() {
		t.Fatalf("Sum shape: got %v", s.Shape())
	}
	if v := s.At(); v != 2 {
		t.Errorf("Sum: got %v, want 2", v)
	}
}

func TestDiff(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3}, 3)
	b, _ := FromSlice([]float64{1.5, 2, 2}, 3)

	d, err := Diff(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if d.Max != 1 {
		t.Errorf("Diff max: got %v, want 1", d.Max)
	}
	if math.Abs(d.Mean-0.5) > 1e-12 {
		t.Errorf("Diff mean: got %v, want 0.5", d.Mean)
	}
}
