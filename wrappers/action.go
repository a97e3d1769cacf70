package wrappers

import (
	"math"
	"time"

	"github.com/zeu5/gymkit/core"
	"github.com/zeu5/gymkit/gymerr"
	"github.com/zeu5/gymkit/spaces"
	"github.com/zeu5/gymkit/specs"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// sameRepresentation returns data in the representation of orig
func sameRepresentation(orig any, data []float64) any {
	if _, ok := orig.([]float64); ok {
		return data
	}
	return mat.NewVecDense(len(data), data)
}

func boxValue(owner string, x any, dim int) ([]float64, error) {
	data, ok := spaces.Floats(x)
	if !ok || len(data) != dim {
		return nil, gymerr.Argument(owner, "", "expected a box value with %d elements, actual value: %v", dim, x)
	}
	return append([]float64{}, data...), nil
}

// LambdaActionV0 applies a func(any) any to every action
type LambdaActionV0 struct {
	*core.ActionWrapper
}

var _ core.Wrapped = &LambdaActionV0{}

func NewLambdaActionV0(env core.Env, fn any) (*LambdaActionV0, error) {
	v, err := callableArg("LambdaActionV0", "func", fn)
	if err != nil {
		return nil, err
	}
	f, ok := v.Func().(func(any) any)
	if !ok {
		return nil, gymerr.Argument("LambdaActionV0", "func", "expected func(any) any, actual type: %T", v.Func())
	}
	spec := specs.NewWrapperSpec("LambdaAction", 0, specs.Kwargs{"func": v})
	return &LambdaActionV0{
		ActionWrapper: core.NewActionWrapper(env, spec, func(a any) (any, error) { return f(a), nil }),
	}, nil
}

func buildLambdaAction(env core.Env, kw specs.Kwargs) (core.Env, error) {
	v, err := kw.Callable("func")
	if err != nil {
		return nil, err
	}
	return NewLambdaActionV0(env, v)
}

// ClipActionV0 accepts any real valued action and clips it into the
// bounds of the inner Box action space
type ClipActionV0 struct {
	*core.ActionWrapper
}

var _ core.Wrapped = &ClipActionV0{}

func NewClipActionV0(env core.Env) (*ClipActionV0, error) {
	box, err := requireBox("ClipActionV0", env.ActionSpace(), "action")
	if err != nil {
		return nil, err
	}
	outer, err := spaces.NewBoxScalar(math.Inf(-1), math.Inf(1), box.Shape, box.Dtype)
	if err != nil {
		return nil, err
	}
	clip := func(a any) (any, error) {
		data, err := boxValue("ClipActionV0", a, box.Dim())
		if err != nil {
			return nil, err
		}
		for i := range data {
			data[i] = math.Max(box.Low[i], math.Min(box.High[i], data[i]))
		}
		return sameRepresentation(a, data), nil
	}
	w := core.NewActionWrapper(env, specs.NewWrapperSpec("ClipAction", 0, nil), clip)
	w.SetActionSpace(outer)
	return &ClipActionV0{ActionWrapper: w}, nil
}

func buildClipAction(env core.Env, _ specs.Kwargs) (core.Env, error) {
	return NewClipActionV0(env)
}

// RescaleActionV0 exposes a Box action space with bounds [min, max] and
// maps actions linearly into the bounds of the inner Box
type RescaleActionV0 struct {
	*core.ActionWrapper
}

var _ core.Wrapped = &RescaleActionV0{}

// NewRescaleActionV0 takes either one bound per element or a single bound
// for all elements
func NewRescaleActionV0(env core.Env, minAction, maxAction []float64) (*RescaleActionV0, error) {
	const owner = "RescaleActionV0"
	box, err := requireBox(owner, env.ActionSpace(), "action")
	if err != nil {
		return nil, err
	}
	if !box.IsBounded() {
		return nil, gymerr.Argument(owner, "", "the inner action space must be bounded, actual space: %s", box)
	}
	low, err := broadcast(owner, "min_action", minAction, box.Dim())
	if err != nil {
		return nil, err
	}
	high, err := broadcast(owner, "max_action", maxAction, box.Dim())
	if err != nil {
		return nil, err
	}
	for i := range low {
		if low[i] >= high[i] {
			return nil, gymerr.Argument(owner, "max_action", "min_action[%d]=%v must be smaller than max_action[%d]=%v", i, low[i], i, high[i])
		}
	}
	outer, err := spaces.NewBox(low, high, box.Shape, box.Dtype)
	if err != nil {
		return nil, err
	}
	rescale := func(a any) (any, error) {
		data, err := boxValue(owner, a, box.Dim())
		if err != nil {
			return nil, err
		}
		for i := range data {
			data[i] = box.Low[i] + (box.High[i]-box.Low[i])*((data[i]-low[i])/(high[i]-low[i]))
			data[i] = math.Max(box.Low[i], math.Min(box.High[i], data[i]))
		}
		return sameRepresentation(a, data), nil
	}
	spec := specs.NewWrapperSpec("RescaleAction", 0, specs.Kwargs{
		"min_action": floatList(minAction),
		"max_action": floatList(maxAction),
	})
	w := core.NewActionWrapper(env, spec, rescale)
	w.SetActionSpace(outer)
	return &RescaleActionV0{ActionWrapper: w}, nil
}

func buildRescaleAction(env core.Env, kw specs.Kwargs) (core.Env, error) {
	low, err := kw.Floats("min_action")
	if err != nil {
		return nil, err
	}
	high, err := kw.Floats("max_action")
	if err != nil {
		return nil, err
	}
	return NewRescaleActionV0(env, low, high)
}

// StickyActionV0 repeats the previous action with a fixed probability
type StickyActionV0 struct {
	*core.Wrapper
	probability float64
	rand        *rand.Rand
	lastAction  any
}

var _ core.Wrapped = &StickyActionV0{}

func NewStickyActionV0(env core.Env, repeatActionProbability float64) (*StickyActionV0, error) {
	if repeatActionProbability < 0 || repeatActionProbability >= 1 {
		return nil, gymerr.Argument("StickyActionV0", "repeat_action_probability", "must be in [0, 1), actual value: %v", repeatActionProbability)
	}
	spec := specs.NewWrapperSpec("StickyAction", 0, specs.Kwargs{
		"repeat_action_probability": specs.Float(repeatActionProbability),
	})
	return &StickyActionV0{
		Wrapper:     core.NewWrapper(env, spec),
		probability: repeatActionProbability,
		rand:        rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}, nil
}

func (s *StickyActionV0) Reset(opts core.ResetOptions) (any, core.Info, error) {
	if opts.Seed != nil {
		s.rand.Seed(uint64(*opts.Seed))
	}
	s.lastAction = nil
	return s.Wrapper.Reset(opts)
}

func (s *StickyActionV0) Step(action any) (core.Transition, error) {
	if s.lastAction != nil && s.rand.Float64() < s.probability {
		action = s.lastAction
	}
	s.lastAction = action
	return s.Wrapper.Step(action)
}

func buildStickyAction(env core.Env, kw specs.Kwargs) (core.Env, error) {
	p, err := kw.Float("repeat_action_probability", 0)
	if err != nil {
		return nil, err
	}
	return NewStickyActionV0(env, p)
}
