//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package sim

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// prng derives the dealer's correlated randomness from a blake2b XOF
// seeded once per session. Deterministic given the seed, which tests
// use; sessions seed it from crypto/rand.
type prng struct {
	xof blake2b.XOF
}

func newPRNG(seed []byte) (*prng, error) {
	xof, err := blake2b.NewXOF(blake2b.OutputLengthUnknown, nil)
	if err != nil {
		return nil, err
	}
	if _, err := xof.Write(seed); err != nil {
		return nil, err
	}
	return &prng{xof: xof}, nil
}

// words reads n ring elements.
func (p *prng) words(n int, mask uint64) []uint64 {
	buf := make([]byte, 8*n)
	if _, err := p.xof.Read(buf); err != nil {
		panic(err)
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(buf[i*8:]) & mask
	}
	return out
}

// bits reads n single-bit words.
func (p *prng) bits(n int) []uint64 {
	return p.words(n, 1)
}
