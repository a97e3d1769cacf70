package core

import (
	"github.com/zeu5/gymkit/spaces"
	"github.com/zeu5/gymkit/specs"
)

// Wrapper forwards every call to the inner environment. Wrappers embed it
// and override the calls they transform.
type Wrapper struct {
	env  Env
	spec *specs.WrapperSpec

	observationSpace spaces.Space
	actionSpace      spaces.Space
}

var _ Wrapped = &Wrapper{}

// NewWrapper wraps env. spec is the record of the wrapper's own
// constructor arguments.
func NewWrapper(env Env, spec *specs.WrapperSpec) *Wrapper {
	return &Wrapper{env: env, spec: spec}
}

func (w *Wrapper) Reset(opts ResetOptions) (any, Info, error) {
	return w.env.Reset(opts)
}

func (w *Wrapper) Step(action any) (Transition, error) {
	return w.env.Step(action)
}

func (w *Wrapper) Close() error {
	return w.env.Close()
}

func (w *Wrapper) ObservationSpace() spaces.Space {
	if w.observationSpace != nil {
		return w.observationSpace
	}
	return w.env.ObservationSpace()
}

func (w *Wrapper) ActionSpace() spaces.Space {
	if w.actionSpace != nil {
		return w.actionSpace
	}
	return w.env.ActionSpace()
}

func (w *Wrapper) SetObservationSpace(s spaces.Space) {
	w.observationSpace = s
}

func (w *Wrapper) SetActionSpace(s spaces.Space) {
	w.actionSpace = s
}

func (w *Wrapper) Spec() *specs.EnvSpec {
	return w.env.Spec()
}

func (w *Wrapper) Unwrapped() Env {
	return w.env.Unwrapped()
}

func (w *Wrapper) Inner() Env {
	return w.env
}

func (w *Wrapper) WrapperSpec() *specs.WrapperSpec {
	if w.spec == nil {
		return nil
	}
	s := w.spec.Clone()
	return &s
}

// ObservationWrapper transforms every observation returned by reset and step
type ObservationWrapper struct {
	*Wrapper
	observation func(any) (any, error)
}

func NewObservationWrapper(env Env, spec *specs.WrapperSpec, observation func(any) (any, error)) *ObservationWrapper {
	return &ObservationWrapper{Wrapper: NewWrapper(env, spec), observation: observation}
}

func (w *ObservationWrapper) Reset(opts ResetOptions) (any, Info, error) {
	obs, info, err := w.Wrapper.Reset(opts)
	if err != nil {
		return nil, nil, err
	}
	obs, err = w.observation(obs)
	if err != nil {
		return nil, nil, err
	}
	return obs, info, nil
}

func (w *ObservationWrapper) Step(action any) (Transition, error) {
	t, err := w.Wrapper.Step(action)
	if err != nil {
		return t, err
	}
	t.Observation, err = w.observation(t.Observation)
	return t, err
}

// ActionWrapper transforms every action before it reaches the inner environment
type ActionWrapper struct {
	*Wrapper
	action func(any) (any, error)
}

func NewActionWrapper(env Env, spec *specs.WrapperSpec, action func(any) (any, error)) *ActionWrapper {
	return &ActionWrapper{Wrapper: NewWrapper(env, spec), action: action}
}

func (w *ActionWrapper) Step(action any) (Transition, error) {
	a, err := w.action(action)
	if err != nil {
		return Transition{}, err
	}
	return w.Wrapper.Step(a)
}

// RewardWrapper transforms every reward returned by step
type RewardWrapper struct {
	*Wrapper
	reward func(float64) float64
}

func NewRewardWrapper(env Env, spec *specs.WrapperSpec, reward func(float64) float64) *RewardWrapper {
	return &RewardWrapper{Wrapper: NewWrapper(env, spec), reward: reward}
}

func (w *RewardWrapper) Step(action any) (Transition, error) {
	t, err := w.Wrapper.Step(action)
	if err != nil {
		return t, err
	}
	t.Reward = w.reward(t.Reward)
	return t, nil
}
