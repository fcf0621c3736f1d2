//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package protocol

import (
	"strings"
	"testing"

	"github.com/Ye-D/OpenBumbleBee/fxp"
)

func TestValidateOK(t *testing.T) {
	for _, d := range []Descriptor{
		{Kind: Cheetah, Field: fxp.FM64, Parties: 2},
		{Kind: Semi2k, Field: fxp.FM32, Parties: 2},
		{Kind: Semi2k, Field: fxp.FM64, Parties: 16},
		{Kind: Semi2k, Field: fxp.FM64, Parties: 5},
	} {
		if err := d.Validate(); err != nil {
			t.Errorf("%s: %s", d, err)
		}
	}
}

func TestValidateParties(t *testing.T) {
	d := Descriptor{Kind: Cheetah, Field: fxp.FM64, Parties: 3}
	err := d.Validate()
	cerr, ok := err.(*ConfigurationError)
	if !ok {
		t.Fatalf("got %T, want *ConfigurationError", err)
	}
	if cerr.Field != "parties" {
		t.Errorf("field: got %s, want parties", cerr.Field)
	}
	if !strings.Contains(cerr.Reason, "exactly 2") {
		t.Errorf("reason: got %q", cerr.Reason)
	}

	d = Descriptor{Kind: Semi2k, Field: fxp.FM64, Parties: 17}
	err = d.Validate()
	cerr, ok = err.(*ConfigurationError)
	if !ok {
		t.Fatalf("got %T, want *ConfigurationError", err)
	}
	if !strings.Contains(cerr.Reason, "2 to 16") {
		t.Errorf("reason: got %q", cerr.Reason)
	}
}

func TestValidateField(t *testing.T) {
	d := Descriptor{Kind: Cheetah, Field: fxp.FM128, Parties: 2}
	err := d.Validate()
	cerr, ok := err.(*ConfigurationError)
	if !ok {
		t.Fatalf("got %T, want *ConfigurationError", err)
	}
	if cerr.Field != "field" {
		t.Errorf("field: got %s, want field", cerr.Field)
	}
}

func TestValidateUnknownKind(t *testing.T) {
	d := Descriptor{Kind: Kind(42), Field: fxp.FM64, Parties: 2}
	if err := d.Validate(); err == nil {
		t.Error("Validate accepted unknown protocol")
	}
}

func TestDescriptorString(t *testing.T) {
	d := Descriptor{Kind: Cheetah, Field: fxp.FM64, Parties: 2}
	if got := d.String(); got != "Cheetah/FM64/2" {
		t.Errorf("String: got %q", got)
	}
}
