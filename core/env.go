// Package core defines environments and the wrappers layered around them.
package core

import (
	"github.com/zeu5/gymkit/spaces"
	"github.com/zeu5/gymkit/specs"
)

// Info carries auxiliary diagnostic data returned by reset and step
type Info map[string]any

// ResetOptions are passed to Reset. A non nil Seed reseeds the environment.
type ResetOptions struct {
	Seed    *int64
	Options map[string]any
}

// WithSeed is a shorthand for ResetOptions with a seed
func WithSeed(seed int64) ResetOptions {
	return ResetOptions{Seed: &seed}
}

// Transition is the result of a single step
type Transition struct {
	Observation any
	Reward      float64
	Terminated  bool
	Truncated   bool
	Info        Info
}

// Done reports whether the episode ended, by termination or truncation
func (t Transition) Done() bool {
	return t.Terminated || t.Truncated
}

// Env is a reinforcement learning environment
type Env interface {
	Reset(ResetOptions) (any, Info, error)
	Step(action any) (Transition, error)
	Close() error
	ObservationSpace() spaces.Space
	ActionSpace() spaces.Space
	// Spec is the spec of the base environment, nil when it was not built by a registry
	Spec() *specs.EnvSpec
	// Unwrapped returns the base environment
	Unwrapped() Env
}

// Wrapped is an environment layer around another environment
type Wrapped interface {
	Env
	Inner() Env
	// WrapperSpec is the spec recorded by the layer's constructor
	WrapperSpec() *specs.WrapperSpec
}
