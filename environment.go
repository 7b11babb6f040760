package fexpr

import "fexpr/env"

// Environment is the copy-on-write name→binding table expressions
// resolve symbols against at compile time; see the env package for the
// COW mechanics. It is re-exported here, undecorated, as the public
// entry point spec's API describes.
type Environment = env.Environment

// VarFlags controls a variable binding's mutability.
type VarFlags = env.VarFlags

// ReadOnly marks a variable binding as unassignable.
const ReadOnly = env.ReadOnly

// Bundle names a predefined set of bindings AddBundle can install.
type Bundle = env.Bundle

const (
	// Math installs E, PI, and the MATH function family (min, max,
	// avg, trig, sqrt, ...).
	Math = env.Math
	// All installs every predefined bundle.
	All = env.All
)

// NewEnvironment returns an empty Environment.
func NewEnvironment() Environment {
	return env.New()
}
