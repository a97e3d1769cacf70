package wrappers

import (
	"math"

	"github.com/zeu5/gymkit/core"
	"github.com/zeu5/gymkit/gymerr"
	"github.com/zeu5/gymkit/spaces"
	"github.com/zeu5/gymkit/specs"
	"gonum.org/v1/gonum/mat"
)

// LambdaObservationV0 applies a func(any) any to every observation
type LambdaObservationV0 struct {
	*core.ObservationWrapper
}

var _ core.Wrapped = &LambdaObservationV0{}

func NewLambdaObservationV0(env core.Env, fn any) (*LambdaObservationV0, error) {
	v, err := callableArg("LambdaObservationV0", "func", fn)
	if err != nil {
		return nil, err
	}
	f, ok := v.Func().(func(any) any)
	if !ok {
		return nil, gymerr.Argument("LambdaObservationV0", "func", "expected func(any) any, actual type: %T", v.Func())
	}
	spec := specs.NewWrapperSpec("LambdaObservation", 0, specs.Kwargs{"func": v})
	return &LambdaObservationV0{
		ObservationWrapper: core.NewObservationWrapper(env, spec, func(o any) (any, error) { return f(o), nil }),
	}, nil
}

func buildLambdaObservation(env core.Env, kw specs.Kwargs) (core.Env, error) {
	v, err := kw.Callable("func")
	if err != nil {
		return nil, err
	}
	return NewLambdaObservationV0(env, v)
}

// FilterObservationV0 keeps a subset of the keys of a Dict observation
type FilterObservationV0 struct {
	*core.ObservationWrapper
}

var _ core.Wrapped = &FilterObservationV0{}

func NewFilterObservationV0(env core.Env, filterKeys []string) (*FilterObservationV0, error) {
	const owner = "FilterObservationV0"
	dict, ok := env.ObservationSpace().(*spaces.Dict)
	if !ok {
		return nil, gymerr.Argument(owner, "", "expected a Dict observation space, actual space: %s", env.ObservationSpace())
	}
	if len(filterKeys) == 0 {
		return nil, gymerr.Argument(owner, "filter_keys", "at least one key is required")
	}
	kept := make(map[string]spaces.Space, len(filterKeys))
	for _, k := range filterKeys {
		s, ok := dict.Spaces[k]
		if !ok {
			return nil, gymerr.Argument(owner, "filter_keys", "key %q is not in the observation space %s", k, dict)
		}
		kept[k] = s
	}
	filtered, err := spaces.NewDict(kept)
	if err != nil {
		return nil, err
	}
	keys := append([]string{}, filterKeys...)
	filter := func(o any) (any, error) {
		m, ok := o.(map[string]any)
		if !ok {
			return nil, gymerr.Argument(owner, "", "expected a dict observation, actual type: %T", o)
		}
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			out[k] = m[k]
		}
		return out, nil
	}
	keyValues := make([]specs.Value, len(keys))
	for i, k := range keys {
		keyValues[i] = specs.String(k)
	}
	spec := specs.NewWrapperSpec("FilterObservation", 0, specs.Kwargs{"filter_keys": specs.List(keyValues...)})
	w := core.NewObservationWrapper(env, spec, filter)
	w.SetObservationSpace(filtered)
	return &FilterObservationV0{ObservationWrapper: w}, nil
}

func buildFilterObservation(env core.Env, kw specs.Kwargs) (core.Env, error) {
	keys, err := kw.Strings("filter_keys")
	if err != nil {
		return nil, err
	}
	return NewFilterObservationV0(env, keys)
}

// FlattenObservationV0 flattens observations into a single vector
type FlattenObservationV0 struct {
	*core.ObservationWrapper
}

var _ core.Wrapped = &FlattenObservationV0{}

func NewFlattenObservationV0(env core.Env) (*FlattenObservationV0, error) {
	inner := env.ObservationSpace()
	flat, err := spaces.FlattenSpace(inner)
	if err != nil {
		return nil, err
	}
	flatten := func(o any) (any, error) {
		data, err := spaces.Flatten(inner, o)
		if err != nil {
			return nil, err
		}
		return mat.NewVecDense(len(data), data), nil
	}
	w := core.NewObservationWrapper(env, specs.NewWrapperSpec("FlattenObservation", 0, nil), flatten)
	w.SetObservationSpace(flat)
	return &FlattenObservationV0{ObservationWrapper: w}, nil
}

func buildFlattenObservation(env core.Env, _ specs.Kwargs) (core.Env, error) {
	return NewFlattenObservationV0(env)
}

// DtypeObservationV0 casts Box observations to another dtype
type DtypeObservationV0 struct {
	*core.ObservationWrapper
}

var _ core.Wrapped = &DtypeObservationV0{}

func NewDtypeObservationV0(env core.Env, dtype spaces.Dtype) (*DtypeObservationV0, error) {
	const owner = "DtypeObservationV0"
	box, err := requireBox(owner, env.ObservationSpace(), "observation")
	if err != nil {
		return nil, err
	}
	low := make([]float64, box.Dim())
	high := make([]float64, box.Dim())
	for i := range low {
		low[i] = dtype.Cast(box.Low[i])
		high[i] = dtype.Cast(box.High[i])
	}
	outer, err := spaces.NewBox(low, high, box.Shape, dtype)
	if err != nil {
		return nil, err
	}
	cast := func(o any) (any, error) {
		data, err := boxValue(owner, o, box.Dim())
		if err != nil {
			return nil, err
		}
		for i := range data {
			data[i] = dtype.Cast(data[i])
		}
		return sameRepresentation(o, data), nil
	}
	spec := specs.NewWrapperSpec("DtypeObservation", 0, specs.Kwargs{"dtype": specs.String(dtype.String())})
	w := core.NewObservationWrapper(env, spec, cast)
	w.SetObservationSpace(outer)
	return &DtypeObservationV0{ObservationWrapper: w}, nil
}

func buildDtypeObservation(env core.Env, kw specs.Kwargs) (core.Env, error) {
	name, err := kw.String("dtype", "")
	if err != nil {
		return nil, err
	}
	dtype, err := spaces.ParseDtype(name)
	if err != nil {
		return nil, err
	}
	return NewDtypeObservationV0(env, dtype)
}

// RescaleObservationV0 maps bounded Box observations linearly into [min, max]
type RescaleObservationV0 struct {
	*core.ObservationWrapper
}

var _ core.Wrapped = &RescaleObservationV0{}

func NewRescaleObservationV0(env core.Env, minObs, maxObs []float64) (*RescaleObservationV0, error) {
	const owner = "RescaleObservationV0"
	box, err := requireBox(owner, env.ObservationSpace(), "observation")
	if err != nil {
		return nil, err
	}
	if !box.IsBounded() {
		return nil, gymerr.Argument(owner, "", "the inner observation space must be bounded, actual space: %s", box)
	}
	low, err := broadcast(owner, "min_obs", minObs, box.Dim())
	if err != nil {
		return nil, err
	}
	high, err := broadcast(owner, "max_obs", maxObs, box.Dim())
	if err != nil {
		return nil, err
	}
	for i := range low {
		if low[i] >= high[i] {
			return nil, gymerr.Argument(owner, "max_obs", "min_obs[%d]=%v must be smaller than max_obs[%d]=%v", i, low[i], i, high[i])
		}
	}
	outer, err := spaces.NewBox(low, high, box.Shape, box.Dtype)
	if err != nil {
		return nil, err
	}
	rescale := func(o any) (any, error) {
		data, err := boxValue(owner, o, box.Dim())
		if err != nil {
			return nil, err
		}
		for i := range data {
			span := box.High[i] - box.Low[i]
			if span == 0 {
				data[i] = low[i]
				continue
			}
			data[i] = low[i] + (high[i]-low[i])*(data[i]-box.Low[i])/span
		}
		return sameRepresentation(o, data), nil
	}
	spec := specs.NewWrapperSpec("RescaleObservation", 0, specs.Kwargs{
		"min_obs": floatList(minObs),
		"max_obs": floatList(maxObs),
	})
	w := core.NewObservationWrapper(env, spec, rescale)
	w.SetObservationSpace(outer)
	return &RescaleObservationV0{ObservationWrapper: w}, nil
}

func buildRescaleObservation(env core.Env, kw specs.Kwargs) (core.Env, error) {
	low, err := kw.Floats("min_obs")
	if err != nil {
		return nil, err
	}
	high, err := kw.Floats("max_obs")
	if err != nil {
		return nil, err
	}
	return NewRescaleObservationV0(env, low, high)
}

// NormalizeObservationV0 normalizes Box observations with a running mean
// and variance
type NormalizeObservationV0 struct {
	*core.ObservationWrapper
	rms *runningMeanStd
}

var _ core.Wrapped = &NormalizeObservationV0{}

func NewNormalizeObservationV0(env core.Env, epsilon float64) (*NormalizeObservationV0, error) {
	const owner = "NormalizeObservationV0"
	box, err := requireBox(owner, env.ObservationSpace(), "observation")
	if err != nil {
		return nil, err
	}
	if epsilon <= 0 {
		return nil, gymerr.Argument(owner, "epsilon", "must be positive, actual value: %v", epsilon)
	}
	outer, err := spaces.NewBoxScalar(math.Inf(-1), math.Inf(1), box.Shape, spaces.Float64)
	if err != nil {
		return nil, err
	}
	n := &NormalizeObservationV0{rms: newRunningMeanStd(box.Dim())}
	normalize := func(o any) (any, error) {
		data, err := boxValue(owner, o, box.Dim())
		if err != nil {
			return nil, err
		}
		n.rms.update(data)
		out := make([]float64, len(data))
		n.rms.normalize(out, data, epsilon)
		return sameRepresentation(o, out), nil
	}
	spec := specs.NewWrapperSpec("NormalizeObservation", 0, specs.Kwargs{"epsilon": specs.Float(epsilon)})
	n.ObservationWrapper = core.NewObservationWrapper(env, spec, normalize)
	n.SetObservationSpace(outer)
	return n, nil
}

// Mean is the running mean of the observations seen so far
func (n *NormalizeObservationV0) Mean() []float64 {
	return append([]float64{}, n.rms.mean...)
}

func buildNormalizeObservation(env core.Env, kw specs.Kwargs) (core.Env, error) {
	epsilon, err := kw.Float("epsilon", 1e-8)
	if err != nil {
		return nil, err
	}
	return NewNormalizeObservationV0(env, epsilon)
}

// TimeAwareObservationV0 adds the elapsed time of the episode to observations
type TimeAwareObservationV0 struct {
	*core.Wrapper
	timestep int
	observe  func(obs any, t int) (any, error)
}

var _ core.Wrapped = &TimeAwareObservationV0{}

// NewTimeAwareObservationV0 appends the time to a flattened observation when
// flatten is set, otherwise it adds a "time" entry to a Dict observation.
// With normalizeTime the time is divided by the episode step limit.
func NewTimeAwareObservationV0(env core.Env, flatten, normalizeTime bool) (*TimeAwareObservationV0, error) {
	const owner = "TimeAwareObservationV0"
	maxSteps := episodeStepLimit(env)
	if normalizeTime && maxSteps <= 0 {
		return nil, gymerr.Argument(owner, "normalize_time", "normalizing time requires an episode step limit")
	}
	timeHigh := math.Inf(1)
	switch {
	case normalizeTime:
		timeHigh = 1
	case maxSteps > 0:
		timeHigh = float64(maxSteps)
	}
	timeSpace, err := spaces.NewBox([]float64{0}, []float64{timeHigh}, nil, spaces.Float64)
	if err != nil {
		return nil, err
	}
	timeValue := func(t int) *mat.VecDense {
		v := float64(t)
		if normalizeTime {
			v /= float64(maxSteps)
		}
		return mat.NewVecDense(1, []float64{v})
	}

	inner := env.ObservationSpace()
	var outer spaces.Space
	var observe func(obs any, t int) (any, error)
	if flatten {
		joined, err := spaces.NewTuple(inner, timeSpace)
		if err != nil {
			return nil, err
		}
		if outer, err = spaces.FlattenSpace(joined); err != nil {
			return nil, err
		}
		observe = func(obs any, t int) (any, error) {
			data, err := spaces.Flatten(joined, []any{obs, timeValue(t)})
			if err != nil {
				return nil, err
			}
			return mat.NewVecDense(len(data), data), nil
		}
	} else {
		entries := map[string]spaces.Space{"time": timeSpace}
		dict, isDict := inner.(*spaces.Dict)
		if isDict {
			if _, ok := dict.Spaces["time"]; ok {
				return nil, gymerr.Argument(owner, "", "observation space already has a time key")
			}
			for k, s := range dict.Spaces {
				entries[k] = spaces.Copy(s)
			}
		} else {
			entries["obs"] = spaces.Copy(inner)
		}
		if outer, err = spaces.NewDict(entries); err != nil {
			return nil, err
		}
		observe = func(obs any, t int) (any, error) {
			out := map[string]any{"time": timeValue(t)}
			if !isDict {
				out["obs"] = obs
				return out, nil
			}
			m, ok := obs.(map[string]any)
			if !ok {
				return nil, gymerr.Argument(owner, "", "expected a dict observation, actual type: %T", obs)
			}
			for k, v := range m {
				out[k] = v
			}
			return out, nil
		}
	}

	spec := specs.NewWrapperSpec("TimeAwareObservation", 0, specs.Kwargs{
		"flatten":        specs.Bool(flatten),
		"normalize_time": specs.Bool(normalizeTime),
	})
	w := core.NewWrapper(env, spec)
	w.SetObservationSpace(outer)
	return &TimeAwareObservationV0{Wrapper: w, observe: observe}, nil
}

// episodeStepLimit looks for a TimeLimitV0 layer, then for the base spec
func episodeStepLimit(env core.Env) int {
	for _, layer := range core.Layers(env) {
		if t, ok := layer.(*TimeLimitV0); ok {
			return t.MaxEpisodeSteps()
		}
	}
	if spec := env.Spec(); spec != nil && spec.MaxEpisodeSteps != nil {
		return *spec.MaxEpisodeSteps
	}
	return 0
}

func (t *TimeAwareObservationV0) Reset(opts core.ResetOptions) (any, core.Info, error) {
	obs, info, err := t.Wrapper.Reset(opts)
	if err != nil {
		return nil, nil, err
	}
	t.timestep = 0
	obs, err = t.observe(obs, t.timestep)
	return obs, info, err
}

func (t *TimeAwareObservationV0) Step(action any) (core.Transition, error) {
	tr, err := t.Wrapper.Step(action)
	if err != nil {
		return tr, err
	}
	t.timestep++
	tr.Observation, err = t.observe(tr.Observation, t.timestep)
	return tr, err
}

func buildTimeAwareObservation(env core.Env, kw specs.Kwargs) (core.Env, error) {
	flatten, err := kw.Bool("flatten", true)
	if err != nil {
		return nil, err
	}
	normalize, err := kw.Bool("normalize_time", true)
	if err != nil {
		return nil, err
	}
	return NewTimeAwareObservationV0(env, flatten, normalize)
}

// DelayObservationV0 returns observations delayed by a number of steps.
// Until enough observations were seen the empty value of the space is returned.
type DelayObservationV0 struct {
	*core.ObservationWrapper
	delay int
	queue []any
}

var _ core.Wrapped = &DelayObservationV0{}

func NewDelayObservationV0(env core.Env, delay int) (*DelayObservationV0, error) {
	if delay < 0 {
		return nil, gymerr.Argument("DelayObservationV0", "delay", "The delay needs to be greater than zero, actual value: %d", delay)
	}
	d := &DelayObservationV0{delay: delay, queue: make([]any, 0, delay+1)}
	spec := specs.NewWrapperSpec("DelayObservation", 0, specs.Kwargs{"delay": specs.Int(int64(delay))})
	d.ObservationWrapper = core.NewObservationWrapper(env, spec, d.observation)
	return d, nil
}

func (d *DelayObservationV0) observation(obs any) (any, error) {
	d.queue = append(d.queue, obs)
	if len(d.queue) > d.delay {
		first := d.queue[0]
		d.queue = d.queue[1:]
		return first, nil
	}
	return spaces.EmptyValue(d.ObservationSpace()), nil
}

func (d *DelayObservationV0) Reset(opts core.ResetOptions) (any, core.Info, error) {
	d.queue = make([]any, 0, d.delay+1)
	return d.ObservationWrapper.Reset(opts)
}

func buildDelayObservation(env core.Env, kw specs.Kwargs) (core.Env, error) {
	v, ok := kw["delay"]
	if !ok {
		return nil, gymerr.Argument("DelayObservationV0", "delay", "missing argument")
	}
	delay, ok := v.AsInt()
	if !ok {
		return nil, gymerr.Argument("DelayObservationV0", "delay", "The delay is expected to be an integer, actual type: %s", v.Kind())
	}
	return NewDelayObservationV0(env, int(delay))
}

// FrameStackObservationV0 returns the last stackSize observations. Box
// observations are stacked along a new leading axis, others into a Tuple.
type FrameStackObservationV0 struct {
	*core.Wrapper
	stackSize int
	frames    []any
	render    func(frames []any) (any, error)
}

var _ core.Wrapped = &FrameStackObservationV0{}

func NewFrameStackObservationV0(env core.Env, stackSize int) (*FrameStackObservationV0, error) {
	const owner = "FrameStackObservationV0"
	if stackSize <= 0 {
		return nil, gymerr.Argument(owner, "stack_size", "must be positive, actual value: %d", stackSize)
	}
	inner := env.ObservationSpace()
	var outer spaces.Space
	var render func(frames []any) (any, error)
	if box, ok := inner.(*spaces.Box); ok {
		low := make([]float64, 0, stackSize*box.Dim())
		high := make([]float64, 0, stackSize*box.Dim())
		for i := 0; i < stackSize; i++ {
			low = append(low, box.Low...)
			high = append(high, box.High...)
		}
		stacked, err := spaces.NewBox(low, high, append([]int{stackSize}, box.Shape...), box.Dtype)
		if err != nil {
			return nil, err
		}
		outer = stacked
		render = func(frames []any) (any, error) {
			data := make([]float64, 0, len(low))
			for _, f := range frames {
				part, err := boxValue(owner, f, box.Dim())
				if err != nil {
					return nil, err
				}
				data = append(data, part...)
			}
			return mat.NewVecDense(len(data), data), nil
		}
	} else {
		copies := make([]spaces.Space, stackSize)
		for i := range copies {
			copies[i] = spaces.Copy(inner)
		}
		tuple, err := spaces.NewTuple(copies...)
		if err != nil {
			return nil, err
		}
		outer = tuple
		render = func(frames []any) (any, error) {
			out := make([]any, len(frames))
			for i, f := range frames {
				out[i] = spaces.Clone(f)
			}
			return out, nil
		}
	}
	spec := specs.NewWrapperSpec("FrameStackObservation", 0, specs.Kwargs{"stack_size": specs.Int(int64(stackSize))})
	w := core.NewWrapper(env, spec)
	w.SetObservationSpace(outer)
	return &FrameStackObservationV0{Wrapper: w, stackSize: stackSize, render: render}, nil
}

func (f *FrameStackObservationV0) Reset(opts core.ResetOptions) (any, core.Info, error) {
	obs, info, err := f.Wrapper.Reset(opts)
	if err != nil {
		return nil, nil, err
	}
	empty := spaces.EmptyValue(f.Inner().ObservationSpace())
	f.frames = make([]any, 0, f.stackSize)
	for i := 0; i < f.stackSize-1; i++ {
		f.frames = append(f.frames, empty)
	}
	f.frames = append(f.frames, obs)
	out, err := f.render(f.frames)
	return out, info, err
}

func (f *FrameStackObservationV0) Step(action any) (core.Transition, error) {
	if f.frames == nil {
		return core.Transition{}, gymerr.ErrResetNeeded
	}
	tr, err := f.Wrapper.Step(action)
	if err != nil {
		return tr, err
	}
	f.frames = append(f.frames[1:], tr.Observation)
	tr.Observation, err = f.render(f.frames)
	return tr, err
}

func buildFrameStackObservation(env core.Env, kw specs.Kwargs) (core.Env, error) {
	n, err := kw.Int("stack_size", 0)
	if err != nil {
		return nil, err
	}
	return NewFrameStackObservationV0(env, n)
}
