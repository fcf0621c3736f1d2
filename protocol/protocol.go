//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

// Package protocol defines the supported secure-computation
// protocols and validates protocol/field/party-count combinations.
package protocol

import (
	"fmt"

	"github.com/Ye-D/OpenBumbleBee/fxp"
)

// Kind selects the protocol family.
type Kind uint8

// Supported protocol kinds. Both share values additively over Z_2^k;
// they differ in the allowed party counts and, in a networked
// deployment, in how correlated randomness is produced.
const (
	Semi2k Kind = iota
	Cheetah
)

func (k Kind) String() string {
	switch k {
	case Semi2k:
		return "Semi2k"
	case Cheetah:
		return "Cheetah"
	default:
		return fmt.Sprintf("{Kind %d}", k)
	}
}

// PartyBounds returns the inclusive party-count range the protocol
// supports.
func (k Kind) PartyBounds() (min, max int) {
	switch k {
	case Semi2k:
		return 2, 16
	case Cheetah:
		return 2, 2
	default:
		return 0, 0
	}
}

// Descriptor is the full protocol configuration of a session.
type Descriptor struct {
	Kind    Kind
	Field   fxp.FieldType
	Parties int
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s/%s/%d", d.Kind, d.Field, d.Parties)
}

// Validate checks that the descriptor names a supported
// protocol/field/party-count combination.
func (d Descriptor) Validate() error {
	min, max := d.Kind.PartyBounds()
	if min == 0 {
		return &ConfigurationError{
			Field:  "protocol",
			Reason: fmt.Sprintf("unknown protocol %s", d.Kind),
		}
	}
	if d.Field.Bits() == 0 {
		return &ConfigurationError{
			Field:  "field",
			Reason: fmt.Sprintf("unknown field %s", d.Field),
		}
	}
	if !d.Field.Supported() {
		return &ConfigurationError{
			Field:  "field",
			Reason: fmt.Sprintf("field %s not supported", d.Field),
		}
	}
	if d.Parties < min || d.Parties > max {
		var want string
		if min == max {
			want = fmt.Sprintf("exactly %d", min)
		} else {
			want = fmt.Sprintf("%d to %d", min, max)
		}
		return &ConfigurationError{
			Field: "parties",
			Reason: fmt.Sprintf("protocol %s requires %s parties, got %d",
				d.Kind, want, d.Parties),
		}
	}
	return nil
}

// ConfigurationError reports an invalid protocol/field/party-count
// combination.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}
