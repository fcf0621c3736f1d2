//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package compiler

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

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

func TestCompileBasic(t *testing.T) {
	fn := func(args []*Value) []*Value {
		return []*Value{args[0].Mul(args[1]).AddConst(1)}
	}
	prog, diag, err := Compile(fn, [][]int{{2, 3}, {2, 3}}, nil,
		testDesc(), nil)
	require.NoError(t, err)
	require.Len(t, prog.Inputs, 2)
	require.Len(t, prog.Outputs, 1)
	require.Equal(t, []int{2, 3}, prog.Nodes[prog.Outputs[0]].Shape)
	require.Contains(t, diag.Text, "digest: blake3:")

	x, _ := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	y, _ := tensor.FromSlice([]float64{6, 5, 4, 3, 2, 1}, 2, 3)
	outs, err := prog.EvalPlain(x, y)
	require.NoError(t, err)
	require.Equal(t, 7.0, outs[0].At(0, 0))
	require.Equal(t, 11.0, outs[0].At(0, 1))
}

func TestCompileShapeMismatch(t *testing.T) {
	fn := func(args []*Value) []*Value {
		return []*Value{args[0].Add(args[1])}
	}
	_, _, err := Compile(fn, [][]int{{2, 3}, {3, 2}}, nil, testDesc(), nil)

	var serr *ShapeMismatchError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, "add", serr.Op)
}

func TestCompileUnknownIntrinsic(t *testing.T) {
	fn := func(args []*Value) []*Value {
		return []*Value{args[0].Intrinsic("softmax_v9")}
	}
	_, _, err := Compile(fn, [][]int{{4}}, nil, testDesc(), nil)

	var uerr *UnsupportedOperatorError
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, "softmax_v9", uerr.Name)
}

func TestCompileInvalidDescriptor(t *testing.T) {
	fn := func(args []*Value) []*Value { return args }
	desc := testDesc()
	desc.Parties = 7
	_, _, err := Compile(fn, [][]int{{4}}, nil, desc, nil)

	var cerr *protocol.ConfigurationError
	require.ErrorAs(t, err, &cerr)
}

func TestStickyError(t *testing.T) {
	// Operations after a trace error return placeholder values and
	// the first error wins.
	fn := func(args []*Value) []*Value {
		bad := args[0].Intrinsic("nope")
		return []*Value{bad.AddConst(1).Mul(args[0])}
	}
	_, _, err := Compile(fn, [][]int{{4}}, nil, testDesc(), nil)

	var uerr *UnsupportedOperatorError
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, "nope", uerr.Name)
}

func TestDivSqrtRewrite(t *testing.T) {
	fn := func(args []*Value) []*Value {
		return []*Value{args[0].Div(args[1].Sqrt())}
	}

	prog, diag, err := Compile(fn, [][]int{{4}, {4}}, nil, testDesc(), nil)
	require.NoError(t, err)
	require.Contains(t, diag.Text, "rsqrt")
	require.NotContains(t, diag.Text, "div(")
	for _, pass := range diag.Passes {
		if pass.Name == "div_sqrt" {
			require.Equal(t, 1, pass.Count)
		}
	}

	opts := NewOptions()
	opts.DisableDivSqrtRewrite = true
	kept, diag2, err := Compile(fn, [][]int{{4}, {4}}, opts, testDesc(), nil)
	require.NoError(t, err)
	require.Contains(t, diag2.Text, "div(")
	require.NotContains(t, diag2.Text, "rsqrt")
	require.NotEqual(t, diag.Digest, diag2.Digest)

	// Both lowerings agree on the plaintext semantics.
	x, _ := tensor.FromSlice([]float64{1, 2, 3, 4}, 4)
	y, _ := tensor.FromSlice([]float64{4, 9, 16, 25}, 4)
	a, err := prog.EvalPlain(x, y)
	require.NoError(t, err)
	b, err := kept.EvalPlain(x, y)
	require.NoError(t, err)
	d, err := tensor.Diff(a[0], b[0])
	require.NoError(t, err)
	require.Less(t, d.Max, 1e-12)
}

func TestDivSqrtRewriteSharedSqrt(t *testing.T) {
	// The sqrt feeds two consumers: retargeting it would change the
	// other consumer, so the pattern must not fire.
	fn := func(args []*Value) []*Value {
		s := args[1].Sqrt()
		return []*Value{args[0].Div(s), s.AddConst(1)}
	}
	_, diag, err := Compile(fn, [][]int{{4}, {4}}, nil, testDesc(), nil)
	require.NoError(t, err)
	require.Contains(t, diag.Text, "div(")
	require.Contains(t, diag.Text, "sqrt(")
}

func TestSqrtPlusEpsilonRewrite(t *testing.T) {
	fn := func(args []*Value) []*Value {
		return []*Value{args[0].Sqrt().AddConst(1e-4)}
	}
	_, diag, err := Compile(fn, [][]int{{4}}, nil, testDesc(), nil)
	require.NoError(t, err)
	require.Contains(t, diag.Text, "1e-08")
	fired := false
	for _, pass := range diag.Passes {
		if pass.Name == "sqrt_plus_epsilon" && pass.Count > 0 {
			fired = true
		}
	}
	require.True(t, fired)

	// A large offset is not an epsilon.
	fn2 := func(args []*Value) []*Value {
		return []*Value{args[0].Sqrt().AddConst(0.5)}
	}
	_, diag2, err := Compile(fn2, [][]int{{4}}, nil, testDesc(), nil)
	require.NoError(t, err)
	require.Contains(t, diag2.Text, "0.5")
	for _, pass := range diag2.Passes {
		if pass.Name == "sqrt_plus_epsilon" {
			require.Equal(t, 0, pass.Count)
		}
	}
}

func TestConstantFolding(t *testing.T) {
	fn := func(args []*Value) []*Value {
		b := args[0].b
		c := b.Constant(tensor.Scalar(3)).AddConst(4)
		return []*Value{args[0].Mul(c)}
	}
	_, diag, err := Compile(fn, [][]int{{2}}, nil, testDesc(), nil)
	require.NoError(t, err)
	// 3+4 folds into a single constant.
	require.Contains(t, diag.Text, "const(7)")
	require.NotContains(t, diag.Text, "add_const")
}

func TestRewriteConfluence(t *testing.T) {
	// Compiling the same function twice yields byte-identical
	// renderings and equal graphs.
	fn := func(args []*Value) []*Value {
		s := args[0].Div(args[1].Sqrt().AddConst(1e-4))
		return []*Value{s.Intrinsic("neg_exp")}
	}
	p1, d1, err := Compile(fn, [][]int{{3}, {3}}, nil, testDesc(), nil)
	require.NoError(t, err)
	p2, d2, err := Compile(fn, [][]int{{3}, {3}}, nil, testDesc(), nil)
	require.NoError(t, err)

	require.Equal(t, d1.Text, d2.Text)
	require.Equal(t, d1.Digest, d2.Digest)

	tensorEq := cmp.Comparer(func(a, b *tensor.Tensor) bool {
		if a == nil || b == nil {
			return a == b
		}
		if !tensor.SameShape(a.Shape(), b.Shape()) {
			return false
		}
		av, bv := a.Data(), b.Data()
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	})
	if diff := cmp.Diff(p1.Nodes, p2.Nodes, tensorEq); diff != "" {
		t.Errorf("program mismatch (-p1 +p2):\n%s", diff)
	}
}

func TestSubstitutionManifest(t *testing.T) {
	fn := func(args []*Value) []*Value {
		a := args[0].Intrinsic("neg_exp")
		b := args[0].Intrinsic("seg3_gelu")
		return []*Value{a.Add(b)}
	}
	prog, diag, err := Compile(fn, [][]int{{4}}, nil, testDesc(), nil)
	require.NoError(t, err)
	require.Len(t, diag.Substitutions, 2)

	require.Equal(t, "neg_exp", diag.Substitutions[0].Name)
	require.Equal(t, 0, diag.Substitutions[0].CallSite)
	require.Equal(t, "seg3_gelu", diag.Substitutions[1].Name)
	require.Equal(t, 1, diag.Substitutions[1].CallSite)

	for _, sub := range diag.Substitutions {
		require.LessOrEqual(t, 0, sub.FirstNode)
		require.LessOrEqual(t, sub.FirstNode, sub.LastNode)
		require.Less(t, sub.LastNode, len(prog.Nodes))
	}
}

func TestNegExpAccuracy(t *testing.T) {
	fn := func(args []*Value) []*Value {
		return []*Value{args[0].Intrinsic("neg_exp")}
	}
	prog, _, err := Compile(fn, [][]int{{64}}, nil, testDesc(), nil)
	require.NoError(t, err)

	data := make([]float64, 64)
	for i := range data {
		data[i] = -float64(i) * 0.3
	}
	x, _ := tensor.FromSlice(data, 64)
	outs, err := prog.EvalPlain(x)
	require.NoError(t, err)

	for i, v := range data {
		want := math.Exp(v)
		got := outs[0].At(i)
		require.InDelta(t, want, got, 1e-3, "exp(%v)", v)
	}
}

func TestSeg3GeluAccuracy(t *testing.T) {
	fn := func(args []*Value) []*Value {
		return []*Value{args[0].Intrinsic("seg3_gelu")}
	}
	prog, _, err := Compile(fn, [][]int{{81}}, nil, testDesc(), nil)
	require.NoError(t, err)

	data := make([]float64, 81)
	for i := range data {
		data[i] = -8 + float64(i)*0.2
	}
	x, _ := tensor.FromSlice(data, 81)
	outs, err := prog.EvalPlain(x)
	require.NoError(t, err)

	for i, v := range data {
		want := 0.5 * v * (1 + math.Erf(v/math.Sqrt2))
		got := outs[0].At(i)
		require.InDelta(t, want, got, 1e-2, "gelu(%v)", v)
	}
}

func TestSeg4SiluAccuracy(t *testing.T) {
	fn := func(args []*Value) []*Value {
		return []*Value{args[0].Intrinsic("seg4_silu")}
	}
	prog, _, err := Compile(fn, [][]int{{121}}, nil, testDesc(), nil)
	require.NoError(t, err)

	// The grid covers the deep tail, where the zero segment starts,
	// not just the polynomial range.
	data := make([]float64, 121)
	for i := range data {
		data[i] = -12 + float64(i)*0.2
	}
	x, _ := tensor.FromSlice(data, 121)
	outs, err := prog.EvalPlain(x)
	require.NoError(t, err)

	for i, v := range data {
		want := v / (1 + math.Exp(-v))
		got := outs[0].At(i)
		require.InDelta(t, want, got, 5e-3, "silu(%v)", v)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register("twice", func(b *Builder, args ...*Value) *Value {
		return args[0].MulConst(2)
	})
	require.NoError(t, err)
	require.Error(t, reg.Register("twice", nil))

	fn := func(args []*Value) []*Value {
		return []*Value{args[0].Intrinsic("twice")}
	}
	prog, _, err := Compile(fn, [][]int{{2}}, nil, testDesc(), reg)
	require.NoError(t, err)

	x, _ := tensor.FromSlice([]float64{1.5, -2}, 2)
	outs, err := prog.EvalPlain(x)
	require.NoError(t, err)
	require.Equal(t, 3.0, outs[0].At(0))
	require.Equal(t, -4.0, outs[0].At(1))
}

func TestDefaultRegistryNames(t *testing.T) {
	names := DefaultRegistry().Names()
	require.Equal(t, []string{"neg_exp", "seg3_gelu", "seg4_silu"}, names)
}

func TestMinMaxClamp(t *testing.T) {
	fn := func(args []*Value) []*Value {
		return []*Value{
			args[0].Max(args[1]),
			args[0].Min(args[1]),
			args[0].ClampMin(-1),
			args[0].ClampMax(1),
			args[0].Clip(-1, 1),
		}
	}
	prog, _, err := Compile(fn, [][]int{{4}, {4}}, nil, testDesc(), nil)
	require.NoError(t, err)

	x, _ := tensor.FromSlice([]float64{-2, -0.5, 0.5, 2}, 4)
	y, _ := tensor.FromSlice([]float64{1, -1, 1, -1}, 4)
	outs, err := prog.EvalPlain(x, y)
	require.NoError(t, err)

	require.Equal(t, []float64{1, -0.5, 1, 2}, outs[0].Data())
	require.Equal(t, []float64{-2, -1, 0.5, -1}, outs[1].Data())
	require.Equal(t, []float64{-1, -0.5, 0.5, 2}, outs[2].Data())
	require.Equal(t, []float64{-2, -0.5, 0.5, 1}, outs[3].Data())
	require.Equal(t, []float64{-1, -0.5, 0.5, 1}, outs[4].Data())
}

func TestRenderStableAcrossOptions(t *testing.T) {
	// Disabling a pass that never fires must not change the digest.
	fn := func(args []*Value) []*Value {
		return []*Value{args[0].Square().AddConst(1)}
	}
	_, d1, err := Compile(fn, [][]int{{4}}, nil, testDesc(), nil)
	require.NoError(t, err)

	opts := NewOptions()
	opts.DisableDivSqrtRewrite = true
	_, d2, err := Compile(fn, [][]int{{4}}, opts, testDesc(), nil)
	require.NoError(t, err)
	require.Equal(t, d1.Digest, d2.Digest)
}

func TestPrunedIntrinsicDropped(t *testing.T) {
	// An intrinsic whose result is unused disappears from both the
	// graph and the manifest.
	fn := func(args []*Value) []*Value {
		args[0].Intrinsic("neg_exp")
		return []*Value{args[0].AddConst(1)}
	}
	prog, diag, err := Compile(fn, [][]int{{4}}, nil, testDesc(), nil)
	require.NoError(t, err)
	require.Empty(t, diag.Substitutions)
	require.LessOrEqual(t, len(prog.Nodes), 2)
	require.False(t, strings.Contains(diag.Text, "less_zero"))
}
