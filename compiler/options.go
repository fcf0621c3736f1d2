//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package compiler

// Options control the optional IR rewrite passes. The zero value
// enables every pass; each flag disables exactly one of them.
// Options are immutable once passed to Compile.
type Options struct {
	// DisableDivSqrtRewrite keeps div(a, sqrt(b)) patterns instead of
	// rewriting them to mul(a, rsqrt(b)).
	DisableDivSqrtRewrite bool

	// DisableSqrtPlusEpsilonRewrite keeps sqrt(x) + eps patterns
	// instead of rewriting them to sqrt(x + eps*eps).
	DisableSqrtPlusEpsilonRewrite bool

	// DisableConstantFolding keeps nodes over constant operands
	// instead of evaluating them at compile time.
	DisableConstantFolding bool
}

// NewOptions returns compiler options initialized with the default
// values.
func NewOptions() *Options {
	return &Options{}
}
