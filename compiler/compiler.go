//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

// Package compiler traces functions over symbolic tensors into the
// protocol-aware IR, applying option-gated rewrite passes and
// intrinsic substitutions.
package compiler

import (
	"fmt"

	"github.com/Ye-D/OpenBumbleBee/ir"
	"github.com/Ye-D/OpenBumbleBee/protocol"
)

// Func is a traceable function: it receives one symbolic value per
// declared input shape and returns the output values.
type Func func(args []*Value) []*Value

// Substitution records one intrinsic expansion in the compiled
// program.
type Substitution struct {
	Name      string
	CallSite  int
	FirstNode int
	LastNode  int
}

// PassCount records how often a rewrite pass fired.
type PassCount struct {
	Name  string
	Count int
}

// Diagnostics carries the human-readable compilation artifacts: the
// deterministic textual IR, its digest, the intrinsic substitution
// manifest, and the rewrite-pass counts.
type Diagnostics struct {
	Text          string
	Digest        string
	Substitutions []Substitution
	Passes        []PassCount
}

// Compile traces fn over symbolic inputs with the given shapes and
// lowers it to an IR program for the session described by desc. A nil
// opts compiles with defaults; a nil reg uses the built-in intrinsic
// registry.
func Compile(fn Func, shapes [][]int, opts *Options,
	desc protocol.Descriptor, reg *Registry) (
	*ir.Program, *Diagnostics, error) {

	if err := desc.Validate(); err != nil {
		return nil, nil, err
	}
	if opts == nil {
		opts = NewOptions()
	}
	if reg == nil {
		reg = DefaultRegistry()
	}

	b := &Builder{
		desc: desc,
		reg:  reg,
	}
	args := make([]*Value, len(shapes))
	for i, shape := range shapes {
		args[i] = b.Input(shape...)
	}

	outs := fn(args)
	if b.err != nil {
		return nil, nil, b.err
	}
	if len(outs) == 0 {
		return nil, nil, fmt.Errorf("compile: function returned no outputs")
	}
	outIDs := make([]int, len(outs))
	for i, out := range outs {
		if !b.valid(out) {
			return nil, nil, fmt.Errorf("compile: output %d is not a value "+
				"of this trace", i)
		}
		outIDs[i] = out.id
	}

	prog := &ir.Program{
		Desc:    desc,
		Nodes:   b.nodes,
		Inputs:  b.inputs,
		Outputs: outIDs,
	}

	var counts []PassCount
	for _, pass := range enabledPasses(opts) {
		counts = append(counts, PassCount{
			Name:  pass.name,
			Count: pass.apply(prog),
		})
	}
	remap := prune(prog)

	subs := make([]Substitution, 0, len(b.subs))
	for _, sub := range b.subs {
		first, last := remapRange(remap, sub.FirstNode, sub.LastNode)
		if first < 0 {
			// The call site was folded or pruned away entirely.
			continue
		}
		sub.FirstNode, sub.LastNode = first, last
		subs = append(subs, sub)
	}

	if err := prog.Validate(); err != nil {
		return nil, nil, err
	}

	diag := &Diagnostics{
		Text:          prog.Render(),
		Digest:        prog.Digest(),
		Substitutions: subs,
		Passes:        counts,
	}
	return prog, diag, nil
}

// remapRange maps an old node range through the pruning remap,
// returning the surviving sub-range or (-1, -1).
func remapRange(remap []int, first, last int) (int, int) {
	lo, hi := -1, -1
	for id := first; id <= last && id < len(remap); id++ {
		n := remap[id]
		if n < 0 {
			continue
		}
		if lo < 0 {
			lo = n
		}
		hi = n
	}
	return lo, hi
}
