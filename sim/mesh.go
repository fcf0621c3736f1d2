//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package sim

import (
	"context"
	"fmt"
)

// message carries one vector of ring or bit words between parties.
// The (node, seq) tag identifies the protocol step so that a
// misordered delivery is detected instead of silently corrupting the
// computation.
type message struct {
	from  int
	node  int
	seq   int
	words []uint64
}

// mesh is the full pairwise channel fabric of the simulated network.
// ch[i][j] is the link from party i to party j.
type mesh struct {
	n  int
	ch [][]chan message
}

func newMesh(n int) *mesh {
	m := &mesh{
		n:  n,
		ch: make([][]chan message, n),
	}
	for i := 0; i < n; i++ {
		m.ch[i] = make([]chan message, n)
		for j := 0; j < n; j++ {
			if i != j {
				m.ch[i][j] = make(chan message, 8)
			}
		}
	}
	return m
}

func (m *mesh) send(ctx context.Context, from, to int,
	msg message) error {

	select {
	case m.ch[from][to] <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *mesh) recv(ctx context.Context, from, to, node, seq int) (
	[]uint64, error) {

	select {
	case msg := <-m.ch[from][to]:
		if msg.node != node || msg.seq != seq {
			return nil, &ProtocolExecutionError{
				Node: node,
				Reason: fmt.Sprintf(
					"message tag mismatch from party %d: got %d/%d, want %d/%d",
					from, msg.node, msg.seq, node, seq),
			}
		}
		return msg.words, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
