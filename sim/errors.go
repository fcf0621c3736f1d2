//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package sim

import (
	"fmt"
)

// PartyCountMismatchError reports a simulator instantiated with a
// party count the protocol or compiled program does not accept.
type PartyCountMismatchError struct {
	Protocol string
	Want     int
	Got      int
}

func (e *PartyCountMismatchError) Error() string {
	return fmt.Sprintf("party count mismatch: %s requires %d parties, got %d",
		e.Protocol, e.Want, e.Got)
}

// ProtocolExecutionError reports a runtime inconsistency detected by
// a protocol verification check: a message for the wrong node or
// round, or a malformed fragment.
type ProtocolExecutionError struct {
	Node   int
	Reason string
}

func (e *ProtocolExecutionError) Error() string {
	return fmt.Sprintf("protocol execution error: node %%%d: %s",
		e.Node, e.Reason)
}
