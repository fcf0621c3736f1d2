//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package compiler

import (
	"fmt"
)

// UnsupportedOperatorError reports a traced operator with no generic
// lowering and no matching intrinsic.
type UnsupportedOperatorError struct {
	Name string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("compile: unsupported operator %q: no lowering "+
		"or intrinsic", e.Name)
}

// ShapeMismatchError reports operands whose shapes cannot be
// combined by the operation.
type ShapeMismatchError struct {
	Op    string
	Left  []int
	Right []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("compile: %s: shape mismatch: %v vs %v",
		e.Op, e.Left, e.Right)
}
