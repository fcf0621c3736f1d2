//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package compiler

import (
	"github.com/Ye-D/OpenBumbleBee/ir"
	"github.com/Ye-D/OpenBumbleBee/tensor"
)

// epsilonLimit bounds the scalar magnitude the sqrt-plus-epsilon
// rewrite treats as a numerical-stability epsilon.
const epsilonLimit = 1e-3

// A rewritePass transforms the graph in place and returns the number
// of rewrites applied. Passes preserve shapes, value numbering, and
// semantics under the fixed-point encoding; they are confluent and
// applied in a canonical order.
type rewritePass struct {
	name  string
	apply func(p *ir.Program) int
}

func enabledPasses(opts *Options) []rewritePass {
	var passes []rewritePass
	if !opts.DisableDivSqrtRewrite {
		passes = append(passes, rewritePass{"div_sqrt", rewriteDivSqrt})
	}
	if !opts.DisableSqrtPlusEpsilonRewrite {
		passes = append(passes,
			rewritePass{"sqrt_plus_epsilon", rewriteSqrtPlusEpsilon})
	}
	if !opts.DisableConstantFolding {
		passes = append(passes, rewritePass{"constant_folding", foldConstants})
	}
	return passes
}

func useCounts(p *ir.Program) []int {
	uses := make([]int, len(p.Nodes))
	for _, n := range p.Nodes {
		for _, a := range n.Args {
			uses[a]++
		}
	}
	for _, id := range p.Outputs {
		uses[id]++
	}
	return uses
}

// rewriteDivSqrt replaces div(a, sqrt(b)) with mul(a, rsqrt(b)),
// trading the expensive reciprocal for the cheaper inverse square
// root. The sqrt node is retargeted in place, so it must have no
// other consumers.
func rewriteDivSqrt(p *ir.Program) int {
	uses := useCounts(p)
	count := 0
	for id := range p.Nodes {
		n := &p.Nodes[id]
		if n.Op != ir.Div {
			continue
		}
		s := n.Args[1]
		if p.Nodes[s].Op != ir.Sqrt || uses[s] != 1 {
			continue
		}
		p.Nodes[s].Op = ir.Rsqrt
		n.Op = ir.Mul
		count++
	}
	return count
}

// rewriteSqrtPlusEpsilon replaces sqrt(x) + eps with
// sqrt(x + eps*eps) for tiny eps, pushing the stabilizer under the
// root where the secure sqrt behaves better near zero.
func rewriteSqrtPlusEpsilon(p *ir.Program) int {
	uses := useCounts(p)
	count := 0
	for id := range p.Nodes {
		n := &p.Nodes[id]
		if n.Op != ir.AddConst || n.Scalar <= 0 || n.Scalar > epsilonLimit {
			continue
		}
		s := n.Args[0]
		if p.Nodes[s].Op != ir.Sqrt || uses[s] != 1 {
			continue
		}
		eps := n.Scalar
		// Node s becomes x + eps^2, node id becomes sqrt of it.
		p.Nodes[s].Op = ir.AddConst
		p.Nodes[s].Scalar = eps * eps
		n.Op = ir.Sqrt
		n.Scalar = 0
		count++
	}
	return count
}

// foldConstants evaluates nodes whose operands are all constants. A
// single forward walk reaches the fixpoint because the node list is
// topologically ordered.
func foldConstants(p *ir.Program) int {
	count := 0
	for id := range p.Nodes {
		n := &p.Nodes[id]
		if n.Op == ir.Input || n.Op == ir.Const {
			continue
		}
		allConst := true
		for _, a := range n.Args {
			if p.Nodes[a].Op != ir.Const {
				allConst = false
				break
			}
		}
		if !allConst || len(n.Args) == 0 {
			continue
		}
		args := make([]*tensor.Tensor, len(n.Args))
		for i, a := range n.Args {
			args[i] = p.Nodes[a].Value
		}
		folded, err := ir.EvalNode(*n, args)
		if err != nil {
			continue
		}
		p.Nodes[id] = ir.Node{
			Op:    ir.Const,
			Args:  []int{},
			Shape: n.Shape,
			Value: folded,
		}
		count++
	}
	return count
}

// prune drops nodes unreachable from the outputs and renumbers the
// survivors. It returns the old-to-new ID mapping, with -1 for
// removed nodes.
func prune(p *ir.Program) []int {
	live := make([]bool, len(p.Nodes))
	var mark func(id int)
	mark = func(id int) {
		if live[id] {
			return
		}
		live[id] = true
		for _, a := range p.Nodes[id].Args {
			mark(a)
		}
	}
	for _, id := range p.Outputs {
		mark(id)
	}
	// Inputs stay: they are part of the function signature.
	for _, id := range p.Inputs {
		live[id] = true
	}

	remap := make([]int, len(p.Nodes))
	nodes := make([]ir.Node, 0, len(p.Nodes))
	for id, n := range p.Nodes {
		if !live[id] {
			remap[id] = -1
			continue
		}
		remap[id] = len(nodes)
		args := make([]int, len(n.Args))
		for i, a := range n.Args {
			args[i] = remap[a]
		}
		n.Args = args
		nodes = append(nodes, n)
	}
	p.Nodes = nodes
	for i, id := range p.Inputs {
		p.Inputs[i] = remap[id]
	}
	for i, id := range p.Outputs {
		p.Outputs[i] = remap[id]
	}
	return remap
}
