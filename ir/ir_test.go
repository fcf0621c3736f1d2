//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package ir

import (
	"math"
	"strings"
	"testing"

	"github.com/Ye-D/OpenBumbleBee/fxp"
	"github.com/Ye-D/OpenBumbleBee/protocol"
	"github.com/Ye-D/OpenBumbleBee/tensor"
)

func testDesc() protocol.Descriptor {
	return protocol.Descriptor{
		Kind:    protocol.Cheetah,
		Field:   fxp.FM64,
		Parties: 2,
	}
}

// x*x + 2.5 over a length-3 vector.
func testProgram() *Program {
	return &Program{
		Desc: testDesc(),
		Nodes: []Node{
			{Op: Input, Shape: []int{3}},
			{Op: Square, Args: []int{0}, Shape: []int{3}},
			{Op: AddConst, Args: []int{1}, Shape: []int{3}, Scalar: 2.5},
		},
		Inputs:  []int{0},
		Outputs: []int{2},
	}
}

func TestValidate(t *testing.T) {
	p := testProgram()
	if err := p.Validate(); err != nil {
		t.Fatal(err)
	}

	bad := testProgram()
	bad.Nodes[1].Args = []int{1}
	if err := bad.Validate(); err == nil {
		t.Error("Validate accepted forward argument reference")
	}

	bad = testProgram()
	bad.Nodes[2].Shape = []int{4}
	if err := bad.Validate(); err == nil {
		t.Error("Validate accepted wrong result shape")
	}

	bad = testProgram()
	bad.Outputs = nil
	if err := bad.Validate(); err == nil {
		t.Error("Validate accepted program without outputs")
	}
}

func TestInferShape(t *testing.T) {
	shape, ok := InferShape(Add, []int{3, 4}, []int{3, 4})
	if !ok || !tensor.SameShape(shape, []int{3, 4}) {
		t.Errorf("Add: got %v, %v", shape, ok)
	}

	shape, ok = InferShape(Mul, []int{3, 4}, []int{})
	if !ok || !tensor.SameShape(shape, []int{3, 4}) {
		t.Errorf("scalar broadcast: got %v, %v", shape, ok)
	}

	if _, ok = InferShape(Add, []int{3}, []int{4}); ok {
		t.Error("Add accepted mismatched shapes")
	}

	shape, ok = InferShape(MatMul, []int{2, 3}, []int{3, 5})
	if !ok || !tensor.SameShape(shape, []int{2, 5}) {
		t.Errorf("MatMul: got %v, %v", shape, ok)
	}
	if _, ok = InferShape(MatMul, []int{2, 3}, []int{4, 5}); ok {
		t.Error("MatMul accepted incompatible dimensions")
	}

	shape, ok = InferShape(Sum, []int{2, 3})
	if !ok || len(shape) != 0 {
		t.Errorf("Sum: got %v, %v", shape, ok)
	}
}

func TestEvalPlain(t *testing.T) {
	p := testProgram()
	x, _ := tensor.FromSlice([]float64{1, -2, 3}, 3)

	outs, err := p.EvalPlain(x)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{3.5, 6.5, 11.5}
	for i, w := range want {
		if got := outs[0].At(i); math.Abs(got-w) > 1e-12 {
			t.Errorf("out[%d]: got %v, want %v", i, got, w)
		}
	}
}

func TestEvalPlainShapeCheck(t *testing.T) {
	p := testProgram()
	x, _ := tensor.FromSlice([]float64{1, 2}, 2)
	if _, err := p.EvalPlain(x); err == nil {
		t.Error("EvalPlain accepted wrong input shape")
	}
}

func TestRenderDeterministic(t *testing.T) {
	p := testProgram()

	r1 := p.Render()
	r2 := p.Render()
	if r1 != r2 {
		t.Error("Render is not deterministic")
	}

	q := testProgram()
	if q.Render() != r1 {
		t.Error("Render differs for identical programs")
	}
}

func TestRenderFormat(t *testing.T) {
	p := testProgram()
	r := p.Render()

	for _, want := range []string{
		"program protocol=Cheetah field=FM64 parties=2\n",
		"%0 = input() : tensor<3>\n",
		"%1 = square(%0) : tensor<3>\n",
		"%2 = add_const(%1, 2.5) : tensor<3>\n",
		"return %2 : tensor<3>\n",
		"digest: blake3:",
	} {
		if !strings.Contains(r, want) {
			t.Errorf("Render missing %q:\n%s", want, r)
		}
	}
}

func TestDigestSensitivity(t *testing.T) {
	p := testProgram()
	q := testProgram()
	q.Nodes[2].Scalar = 2.6

	if p.Digest() == q.Digest() {
		t.Error("digest ignores scalar operands")
	}
	if !strings.HasPrefix(p.Digest(), "blake3:") {
		t.Errorf("digest format: %s", p.Digest())
	}
}

func TestCost(t *testing.T) {
	p := testProgram()
	c := p.Cost()

	// One fixed-point multiplication per element.
	if c.Triples != 3 {
		t.Errorf("triples: got %d, want 3", c.Triples)
	}
	if c.Rounds == 0 {
		t.Error("interactive program has zero rounds")
	}

	q := &Program{
		Desc: testDesc(),
		Nodes: []Node{
			{Op: Input, Shape: []int{3}},
			{Op: LessZero, Args: []int{0}, Shape: []int{3}},
		},
		Inputs:  []int{0},
		Outputs: []int{1},
	}
	cq := q.Cost()
	if cq.EdaBits == 0 || cq.BitTriples == 0 || cq.BitPairs == 0 {
		t.Errorf("LessZero cost: %+v", cq)
	}
	if cq.Rounds <= c.Rounds {
		t.Error("comparison should cost more rounds than multiplication")
	}

	// Past two parties every truncation draws a dealer pair and adds
	// a round; with two parties it is a local shift.
	if c.TruncPairs != 0 {
		t.Errorf("two-party trunc pairs: got %d, want 0", c.TruncPairs)
	}
	r := testProgram()
	r.Desc = protocol.Descriptor{
		Kind:    protocol.Semi2k,
		Field:   fxp.FM64,
		Parties: 3,
	}
	cr := r.Cost()
	if cr.TruncPairs != 3 {
		t.Errorf("trunc pairs: got %d, want 3", cr.TruncPairs)
	}
	if cr.Rounds <= c.Rounds {
		t.Error("dealer truncation should add rounds past two parties")
	}
}

func TestOpProperties(t *testing.T) {
	if Add.Interactive() {
		t.Error("Add marked interactive")
	}
	for _, op := range []Op{Mul, LessZero, Reciprocal, Sqrt, Rsqrt, Div,
		MatMul} {
		if !op.Interactive() {
			t.Errorf("%s not marked interactive", op)
		}
	}
	if Mul.Arity() != 2 || Neg.Arity() != 1 || Input.Arity() != 0 {
		t.Error("arity table broken")
	}
}
