//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package compiler

import (
	"fmt"
	"sort"
)

// IntrinsicFunc expands a pre-built secure sub-circuit into the
// builder at a call site. The fragment is parameterized by the
// argument shapes.
type IntrinsicFunc func(b *Builder, args ...*Value) *Value

// Registry maps symbolic intrinsic names to their sub-circuit
// definitions. Lookup is by exact name.
type Registry struct {
	funcs map[string]IntrinsicFunc
}

// NewRegistry creates an empty intrinsic registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]IntrinsicFunc),
	}
}

// Register adds a named intrinsic. Duplicate names are an error.
func (r *Registry) Register(name string, fn IntrinsicFunc) error {
	if _, ok := r.funcs[name]; ok {
		return fmt.Errorf("intrinsic %q already registered", name)
	}
	r.funcs[name] = fn
	return nil
}

// Lookup resolves a name to its intrinsic.
func (r *Registry) Lookup(name string) (IntrinsicFunc, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry holding the built-in BumbleBee
// activation intrinsics.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("neg_exp", negExp)
	r.Register("seg3_gelu", seg3Gelu)
	r.Register("seg4_silu", seg4Silu)
	return r
}
