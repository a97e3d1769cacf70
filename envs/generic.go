package envs

import (
	"github.com/zeu5/gymkit/core"
	"github.com/zeu5/gymkit/gymerr"
	"github.com/zeu5/gymkit/spaces"
	"github.com/zeu5/gymkit/specs"
	"golang.org/x/exp/rand"
)

// ResetFunc produces the first observation of an episode
type ResetFunc func(r *rand.Rand) any

// StepFunc produces the transition for an action
type StepFunc func(action any) core.Transition

// Generic is an environment whose dynamics are given as functions, mostly
// used to test wrappers
type Generic struct {
	*core.Base
	resetFn ResetFunc
	stepFn  StepFunc
}

var _ core.Env = &Generic{}

// NewGeneric builds a Generic environment. A nil resetFn samples the
// observation space and a nil stepFn returns a sampled observation with zero reward.
func NewGeneric(observationSpace, actionSpace spaces.Space, resetFn ResetFunc, stepFn StepFunc) *Generic {
	g := &Generic{Base: core.NewBase(observationSpace, actionSpace), resetFn: resetFn, stepFn: stepFn}
	if g.resetFn == nil {
		g.resetFn = func(*rand.Rand) any { return observationSpace.Sample() }
	}
	if g.stepFn == nil {
		g.stepFn = func(any) core.Transition {
			return core.Transition{Observation: observationSpace.Sample(), Info: core.Info{}}
		}
	}
	return g
}

// newGenericFromKwargs builds a Generic environment with a box observation
// of obs_dim elements in [low, high] and n_actions discrete actions. The
// optional reset_func and step_func callables override the dynamics.
func newGenericFromKwargs(kwargs specs.Kwargs) (core.Env, error) {
	dim, err := kwargs.Int("obs_dim", 1)
	if err != nil {
		return nil, err
	}
	low, err := kwargs.Float("low", -1)
	if err != nil {
		return nil, err
	}
	high, err := kwargs.Float("high", 1)
	if err != nil {
		return nil, err
	}
	nActions, err := kwargs.Int("n_actions", 2)
	if err != nil {
		return nil, err
	}
	obs, err := spaces.NewBoxScalar(low, high, []int{dim}, spaces.Float64)
	if err != nil {
		return nil, err
	}
	act, err := spaces.NewDiscrete(nActions)
	if err != nil {
		return nil, err
	}

	var resetFn ResetFunc
	if kwargs.Has("reset_func") {
		v, err := kwargs.Callable("reset_func")
		if err != nil {
			return nil, err
		}
		switch f := v.Func().(type) {
		case ResetFunc:
			resetFn = f
		case func(*rand.Rand) any:
			resetFn = f
		default:
			return nil, gymerr.Argument("Generic", "reset_func", "expected func(*rand.Rand) any, actual type: %T", v.Func())
		}
	}
	var stepFn StepFunc
	if kwargs.Has("step_func") {
		v, err := kwargs.Callable("step_func")
		if err != nil {
			return nil, err
		}
		switch f := v.Func().(type) {
		case StepFunc:
			stepFn = f
		case func(any) core.Transition:
			stepFn = f
		default:
			return nil, gymerr.Argument("Generic", "step_func", "expected func(any) core.Transition, actual type: %T", v.Func())
		}
	}
	return NewGeneric(obs, act, resetFn, stepFn), nil
}

func (g *Generic) Reset(opts core.ResetOptions) (any, core.Info, error) {
	if opts.Seed != nil {
		g.ResetSeed(opts)
		g.ObservationSpace().Seed(*opts.Seed)
	}
	return g.resetFn(g.Rand()), core.Info{}, nil
}

func (g *Generic) Step(action any) (core.Transition, error) {
	if !g.ActionSpace().Contains(action) {
		return core.Transition{}, gymerr.Argument("Generic", "action", "%v (%T) invalid", action, action)
	}
	t := g.stepFn(action)
	if t.Info == nil {
		t.Info = core.Info{}
	}
	return t, nil
}

func (g *Generic) Unwrapped() core.Env {
	return g
}
