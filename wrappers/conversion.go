package wrappers

import (
	"github.com/zeu5/gymkit/convert"
	"github.com/zeu5/gymkit/core"
	"github.com/zeu5/gymkit/specs"
)

// VecToSliceV0 exposes observations as plain []float64 slices and accepts
// slices as actions, converting them back to gonum vectors for the inner env
type VecToSliceV0 struct {
	*core.Wrapper
	toSlice *convert.Converter
	toVec   *convert.Converter
}

var _ core.Wrapped = &VecToSliceV0{}

func NewVecToSliceV0(env core.Env) *VecToSliceV0 {
	return &VecToSliceV0{
		Wrapper: core.NewWrapper(env, specs.NewWrapperSpec("VecToSlice", 0, nil)),
		toSlice: convert.VecToSlice(),
		toVec:   convert.SliceToVec(),
	}
}

func (v *VecToSliceV0) Reset(opts core.ResetOptions) (any, core.Info, error) {
	obs, info, err := v.Wrapper.Reset(opts)
	if err != nil {
		return nil, nil, err
	}
	obs, err = v.toSlice.Convert(obs)
	return obs, info, err
}

func (v *VecToSliceV0) Step(action any) (core.Transition, error) {
	a, err := v.toVec.Convert(action)
	if err != nil {
		return core.Transition{}, err
	}
	tr, err := v.Wrapper.Step(a)
	if err != nil {
		return tr, err
	}
	tr.Observation, err = v.toSlice.Convert(tr.Observation)
	return tr, err
}

func buildVecToSlice(env core.Env, _ specs.Kwargs) (core.Env, error) {
	return NewVecToSliceV0(env), nil
}
