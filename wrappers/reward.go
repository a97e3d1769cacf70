package wrappers

import (
	"math"

	"github.com/zeu5/gymkit/core"
	"github.com/zeu5/gymkit/gymerr"
	"github.com/zeu5/gymkit/specs"
)

// LambdaRewardV0 applies a function to every reward. fn is a
// func(float64) float64, optionally named through specs.Func.
type LambdaRewardV0 struct {
	*core.RewardWrapper
}

var _ core.Wrapped = &LambdaRewardV0{}

func NewLambdaRewardV0(env core.Env, fn any) (*LambdaRewardV0, error) {
	v, err := callableArg("LambdaRewardV0", "func", fn)
	if err != nil {
		return nil, err
	}
	f, ok := v.Func().(func(float64) float64)
	if !ok {
		return nil, gymerr.Argument("LambdaRewardV0", "func", "expected func(float64) float64, actual type: %T", v.Func())
	}
	spec := specs.NewWrapperSpec("LambdaReward", 0, specs.Kwargs{"func": v})
	return &LambdaRewardV0{RewardWrapper: core.NewRewardWrapper(env, spec, f)}, nil
}

func buildLambdaReward(env core.Env, kw specs.Kwargs) (core.Env, error) {
	v, err := kw.Callable("func")
	if err != nil {
		return nil, err
	}
	return NewLambdaRewardV0(env, v)
}

// ClipRewardV0 clips rewards into [min, max]. A nil bound is unbounded but
// at least one bound is required.
type ClipRewardV0 struct {
	*core.RewardWrapper
}

var _ core.Wrapped = &ClipRewardV0{}

func NewClipRewardV0(env core.Env, minReward, maxReward *float64) (*ClipRewardV0, error) {
	if minReward == nil && maxReward == nil {
		return nil, gymerr.Argument("ClipRewardV0", "", "both min_reward and max_reward cannot be null")
	}
	if minReward != nil && maxReward != nil && *maxReward < *minReward {
		return nil, gymerr.Argument("ClipRewardV0", "max_reward", "max_reward (%v) cannot be smaller than min_reward (%v)", *maxReward, *minReward)
	}
	low, high := math.Inf(-1), math.Inf(1)
	if minReward != nil {
		low = *minReward
	}
	if maxReward != nil {
		high = *maxReward
	}
	spec := specs.NewWrapperSpec("ClipReward", 0, specs.Kwargs{
		"min_reward": optionalFloat(minReward),
		"max_reward": optionalFloat(maxReward),
	})
	clip := func(r float64) float64 {
		return math.Max(low, math.Min(high, r))
	}
	return &ClipRewardV0{RewardWrapper: core.NewRewardWrapper(env, spec, clip)}, nil
}

func buildClipReward(env core.Env, kw specs.Kwargs) (core.Env, error) {
	low, err := kw.OptionalFloat("min_reward")
	if err != nil {
		return nil, err
	}
	high, err := kw.OptionalFloat("max_reward")
	if err != nil {
		return nil, err
	}
	return NewClipRewardV0(env, low, high)
}

// NormalizeRewardV1 scales rewards so that the exponential moving average
// of discounted returns has roughly unit variance
type NormalizeRewardV1 struct {
	*core.Wrapper
	gamma    float64
	epsilon  float64
	rms      *runningMeanStd
	returned float64
}

var _ core.Wrapped = &NormalizeRewardV1{}

func NewNormalizeRewardV1(env core.Env, gamma, epsilon float64) (*NormalizeRewardV1, error) {
	if gamma < 0 || gamma > 1 {
		return nil, gymerr.Argument("NormalizeRewardV1", "gamma", "must be in [0, 1], actual value: %v", gamma)
	}
	if epsilon <= 0 {
		return nil, gymerr.Argument("NormalizeRewardV1", "epsilon", "must be positive, actual value: %v", epsilon)
	}
	spec := specs.NewWrapperSpec("NormalizeReward", 1, specs.Kwargs{
		"gamma":   specs.Float(gamma),
		"epsilon": specs.Float(epsilon),
	})
	return &NormalizeRewardV1{
		Wrapper: core.NewWrapper(env, spec),
		gamma:   gamma,
		epsilon: epsilon,
		rms:     newRunningMeanStd(1),
	}, nil
}

func (n *NormalizeRewardV1) Gamma() float64 {
	return n.gamma
}

func (n *NormalizeRewardV1) Step(action any) (core.Transition, error) {
	tr, err := n.Wrapper.Step(action)
	if err != nil {
		return tr, err
	}
	continuing := 1.0
	if tr.Terminated {
		continuing = 0
	}
	n.returned = n.returned*n.gamma*continuing + tr.Reward
	n.rms.update([]float64{n.returned})
	tr.Reward /= math.Sqrt(n.rms.variance[0] + n.epsilon)
	return tr, nil
}

func buildNormalizeReward(env core.Env, kw specs.Kwargs) (core.Env, error) {
	gamma, err := kw.Float("gamma", 0.99)
	if err != nil {
		return nil, err
	}
	epsilon, err := kw.Float("epsilon", 1e-8)
	if err != nil {
		return nil, err
	}
	return NewNormalizeRewardV1(env, gamma, epsilon)
}
