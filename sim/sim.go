//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package sim

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Ye-D/OpenBumbleBee/fxp"
	"github.com/Ye-D/OpenBumbleBee/ir"
	"github.com/Ye-D/OpenBumbleBee/protocol"
	"github.com/Ye-D/OpenBumbleBee/tensor"
)

// Simulator executes compiled programs under a protocol descriptor.
// Every party runs in its own goroutine over an in-process channel
// mesh; correlated randomness comes from a trusted dealer seeded
// fresh for each execution.
type Simulator struct {
	desc      protocol.Descriptor
	fl        fxp.Field
	log       *zap.SugaredLogger
	lastStats *ExecStats
}

// New creates a simulator for the descriptor. A nil logger disables
// logging.
func New(desc protocol.Descriptor, log *zap.SugaredLogger) (
	*Simulator, error) {

	min, max := desc.Kind.PartyBounds()
	if min > 0 && (desc.Parties < min || desc.Parties > max) {
		return nil, &PartyCountMismatchError{
			Protocol: desc.Kind.String(),
			Want:     min,
			Got:      desc.Parties,
		}
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	fl, err := fxp.NewField(desc.Field)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Simulator{
		desc: desc,
		fl:   fl,
		log:  log,
	}, nil
}

// Field returns the simulator's fixed-point field.
func (s *Simulator) Field() fxp.Field {
	return s.fl
}

// Stats returns the protocol cost profile of the last Simulate call,
// or nil if nothing has run yet.
func (s *Simulator) Stats() *ExecStats {
	return s.lastStats
}

// Simulate executes prog over the given inputs and returns the
// reconstructed outputs. Inputs are secret-shared among the parties
// before execution, so no single party's trace determines any input
// value.
func (s *Simulator) Simulate(ctx context.Context, prog *ir.Program,
	inputs ...*tensor.Tensor) ([]*tensor.Tensor, error) {

	if prog.Desc.Kind != s.desc.Kind || prog.Desc.Field != s.desc.Field {
		return nil, &protocol.ConfigurationError{
			Field: "program",
			Reason: fmt.Sprintf("compiled for %s, simulator is %s",
				prog.Desc, s.desc),
		}
	}
	if prog.Desc.Parties != s.desc.Parties {
		return nil, &PartyCountMismatchError{
			Protocol: s.desc.Kind.String(),
			Want:     prog.Desc.Parties,
			Got:      s.desc.Parties,
		}
	}
	if err := prog.Validate(); err != nil {
		return nil, err
	}
	if len(inputs) != len(prog.Inputs) {
		return nil, fmt.Errorf("got %d inputs, program wants %d",
			len(inputs), len(prog.Inputs))
	}
	for i, id := range prog.Inputs {
		want := prog.Nodes[id].Shape
		if !shapeEq(inputs[i].Shape(), want) {
			return nil, fmt.Errorf(
				"input %d shape mismatch: got %v, want %v",
				i, inputs[i].Shape(), want)
		}
	}

	n := s.desc.Parties
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	dealer, err := newDealer(s.fl, n, seed)
	if err != nil {
		return nil, err
	}
	net := newMesh(n)

	// Secret-share the inputs.
	shares := make([][][]uint64, n)
	for rank := range shares {
		shares[rank] = make([][]uint64, len(inputs))
	}
	for i, in := range inputs {
		sh, err := splitRandom(s.fl, s.fl.EncodeTensor(in), n)
		if err != nil {
			return nil, err
		}
		for rank := 0; rank < n; rank++ {
			shares[rank][i] = sh[rank]
		}
	}

	s.log.Debugw("starting simulation",
		"protocol", s.desc.String(),
		"nodes", len(prog.Nodes),
		"inputs", len(inputs))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stats := make([]*ExecStats, n)
	outs := make([][][]uint64, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for rank := 0; rank < n; rank++ {
		stats[rank] = newExecStats()
		p := &party{
			rank:   rank,
			n:      n,
			fl:     s.fl,
			mesh:   net,
			dealer: dealer,
			ctx:    runCtx,
			log:    s.log.With("party", rank),
			stats:  stats[rank],
		}
		wg.Add(1)
		go func(rank int, p *party) {
			defer wg.Done()
			out, err := p.run(prog, shares[rank])
			if err != nil {
				errs[rank] = err
				cancel()
				return
			}
			outs[rank] = out
		}(rank, p)
	}
	wg.Wait()

	// Report the lowest-rank error that is not a cancellation
	// cascade.
	var firstErr error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		if err != context.Canceled {
			firstErr = err
			break
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	s.lastStats = stats[0]

	// Reconstruct the outputs.
	results := make([]*tensor.Tensor, len(prog.Outputs))
	for i, id := range prog.Outputs {
		shape := prog.Nodes[id].Shape
		acc := cloneVec(outs[0][i])
		for rank := 1; rank < n; rank++ {
			acc = addVec(s.fl, acc, outs[rank][i])
		}
		t, err := s.fl.DecodeTensor(acc, shape)
		if err != nil {
			return nil, err
		}
		results[i] = t
	}
	return results, nil
}

func shapeEq(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
