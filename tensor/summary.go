//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package tensor

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// Summary describes the elementwise absolute difference between two
// tensors.
type Summary struct {
	Max  float64
	Mean float64
}

func (s Summary) String() string {
	return fmt.Sprintf("max=%.6g mean=%.6g", s.Max, s.Mean)
}

// Diff summarizes |a-b| elementwise.
func Diff(a, b *Tensor) (Summary, error) {
	if !SameShape(a.shape, b.shape) {
		return Summary{}, fmt.Errorf("tensor: diff shape mismatch: %v vs %v",
			a.shape, b.shape)
	}
	diffs := make([]float64, len(a.data))
	for i := range a.data {
		diffs[i] = math.Abs(a.data[i] - b.data[i])
	}
	max, err := stats.Max(diffs)
	if err != nil {
		return Summary{}, err
	}
	mean, err := stats.Mean(diffs)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Max: max, Mean: mean}, nil
}
