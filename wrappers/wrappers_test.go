package wrappers

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zeu5/gymkit/core"
	"github.com/zeu5/gymkit/gymerr"
	"github.com/zeu5/gymkit/spaces"
	"github.com/zeu5/gymkit/specs"
	"gonum.org/v1/gonum/mat"
)

// testEnv counts steps and terminates after a fixed number of them
type testEnv struct {
	*core.Base
	t       int
	steps   int
	obs     func(t int) any
	actions []any
}

func newTestEnv(obsSpace spaces.Space, obs func(t int) any) *testEnv {
	act, _ := spaces.NewBoxScalar(-1, 1, []int{2}, spaces.Float64)
	e := &testEnv{Base: core.NewBase(obsSpace, act), steps: 5, obs: obs}
	e.SetSpec(specs.EnvSpec{ID: "Test-v0", EntryPoint: "test:Env", Kwargs: specs.Kwargs{}})
	return e
}

func newBoxEnv(t *testing.T) *testEnv {
	t.Helper()
	obsSpace, err := spaces.NewBoxScalar(0, 100, []int{2}, spaces.Float64)
	if err != nil {
		t.Fatal(err)
	}
	return newTestEnv(obsSpace, func(t int) any {
		return mat.NewVecDense(2, []float64{float64(t) + 0.5, float64(2 * t)})
	})
}

func newDictEnv(t *testing.T) *testEnv {
	t.Helper()
	pos, _ := spaces.NewBoxScalar(0, 100, []int{2}, spaces.Float64)
	door, _ := spaces.NewDiscrete(2)
	obsSpace, err := spaces.NewDict(map[string]spaces.Space{"pos": pos, "door": door})
	if err != nil {
		t.Fatal(err)
	}
	return newTestEnv(obsSpace, func(t int) any {
		return map[string]any{
			"pos":  mat.NewVecDense(2, []float64{float64(t), float64(2 * t)}),
			"door": t % 2,
		}
	})
}

func (e *testEnv) Reset(opts core.ResetOptions) (any, core.Info, error) {
	e.ResetSeed(opts)
	e.t = 0
	return e.obs(0), core.Info{}, nil
}

func (e *testEnv) Step(action any) (core.Transition, error) {
	e.actions = append(e.actions, action)
	e.t++
	return core.Transition{
		Observation: e.obs(e.t),
		Reward:      float64(e.t),
		Terminated:  e.t >= e.steps,
		Info:        core.Info{},
	}, nil
}

func (e *testEnv) Unwrapped() core.Env {
	return e
}

var zeroAction = []float64{0, 0}

func vec(t *testing.T, x any) []float64 {
	t.Helper()
	data, ok := spaces.Floats(x)
	if !ok {
		t.Fatalf("%v is not a vector", x)
	}
	return data
}

func TestTimeLimit(t *testing.T) {
	env, err := NewTimeLimitV0(newBoxEnv(t), 3)
	if err != nil {
		t.Fatal(err)
	}
	env.Reset(core.ResetOptions{})
	for i := 1; i <= 3; i++ {
		tr, _ := env.Step(zeroAction)
		if tr.Truncated != (i == 3) {
			t.Errorf("step %d: truncated=%v", i, tr.Truncated)
		}
	}
	if _, err := NewTimeLimitV0(newBoxEnv(t), 0); !errors.Is(err, gymerr.ErrConstruction) {
		t.Errorf("expected construction error, got %v", err)
	}
}

func TestOrderEnforcing(t *testing.T) {
	env := NewOrderEnforcingV0(newBoxEnv(t))
	if _, err := env.Step(zeroAction); !errors.Is(err, gymerr.ErrResetNeeded) {
		t.Errorf("expected ErrResetNeeded, got %v", err)
	}
	env.Reset(core.ResetOptions{})
	if _, err := env.Step(zeroAction); err != nil {
		t.Errorf("unexpected error after reset: %s", err)
	}
}

func TestAutoreset(t *testing.T) {
	env := NewAutoresetV0(newBoxEnv(t))
	env.Reset(core.ResetOptions{})
	var tr core.Transition
	for i := 0; i < 5; i++ {
		tr, _ = env.Step(zeroAction)
	}
	if !tr.Terminated {
		t.Fatalf("expected termination on step 5")
	}
	tr, _ = env.Step(zeroAction)
	if tr.Reward != 0 || tr.Done() || vec(t, tr.Observation)[0] != 0.5 {
		t.Errorf("expected a reset transition, got %+v", tr)
	}
}

func TestRecordEpisodeStatistics(t *testing.T) {
	env, err := NewRecordEpisodeStatisticsV0(newBoxEnv(t), 2)
	if err != nil {
		t.Fatal(err)
	}
	for episode := 0; episode < 3; episode++ {
		env.Reset(core.ResetOptions{})
		for {
			tr, _ := env.Step(zeroAction)
			if tr.Done() {
				stats := tr.Info["episode"].(EpisodeStatistics)
				if stats.Return != 15 || stats.Length != 5 {
					t.Errorf("unexpected statistics %+v", stats)
				}
				break
			}
		}
	}
	if !cmp.Equal(env.Returns(), []float64{15, 15}) {
		t.Errorf("buffer should hold the last two returns, got %v", env.Returns())
	}
}

func TestClipReward(t *testing.T) {
	env, err := NewClipRewardV0(newBoxEnv(t), specs.FloatPtr(0), specs.FloatPtr(2))
	if err != nil {
		t.Fatal(err)
	}
	env.Reset(core.ResetOptions{})
	var rewards []float64
	for i := 0; i < 3; i++ {
		tr, _ := env.Step(zeroAction)
		rewards = append(rewards, tr.Reward)
	}
	if !cmp.Equal(rewards, []float64{1, 2, 2}) {
		t.Errorf("unexpected rewards %v", rewards)
	}
	if _, err := NewClipRewardV0(newBoxEnv(t), nil, nil); !errors.Is(err, gymerr.ErrConstruction) {
		t.Errorf("expected construction error when both bounds are missing")
	}
	if _, err := NewClipRewardV0(newBoxEnv(t), specs.FloatPtr(1), specs.FloatPtr(0)); !errors.Is(err, gymerr.ErrConstruction) {
		t.Errorf("expected construction error when max < min")
	}
}

func double(r float64) float64 { return 2 * r }

func TestLambdaReward(t *testing.T) {
	env, err := NewLambdaRewardV0(newBoxEnv(t), double)
	if err != nil {
		t.Fatal(err)
	}
	env.Reset(core.ResetOptions{})
	tr, _ := env.Step(zeroAction)
	if tr.Reward != 2 {
		t.Errorf("expected doubled reward, got %v", tr.Reward)
	}
	ref := env.WrapperSpec().Kwargs["func"].Ref()
	if !strings.HasSuffix(ref, "wrappers.double") {
		t.Errorf("unexpected reference %q", ref)
	}
	if _, err := NewLambdaRewardV0(newBoxEnv(t), func(int) int { return 0 }); !errors.Is(err, gymerr.ErrConstruction) {
		t.Errorf("expected construction error for a wrong signature, got %v", err)
	}
}

func TestNormalizeReward(t *testing.T) {
	env, err := NewNormalizeRewardV1(newBoxEnv(t), 0.99, 1e-8)
	if err != nil {
		t.Fatal(err)
	}
	env.Reset(core.ResetOptions{})
	for i := 0; i < 5; i++ {
		tr, _ := env.Step(zeroAction)
		if math.IsNaN(tr.Reward) || math.IsInf(tr.Reward, 0) || tr.Reward <= 0 {
			t.Errorf("step %d: unexpected normalized reward %v", i, tr.Reward)
		}
	}
	if _, err := NewNormalizeRewardV1(newBoxEnv(t), 1.5, 1e-8); !errors.Is(err, gymerr.ErrConstruction) {
		t.Errorf("expected construction error for gamma > 1")
	}
}

func TestClipAction(t *testing.T) {
	base := newBoxEnv(t)
	env, err := NewClipActionV0(base)
	if err != nil {
		t.Fatal(err)
	}
	if !env.ActionSpace().Contains([]float64{50, -50}) {
		t.Errorf("outer action space should be unbounded")
	}
	env.Reset(core.ResetOptions{})
	env.Step([]float64{5, -0.5})
	if !cmp.Equal(base.actions[0], []float64{1, -0.5}) {
		t.Errorf("unexpected clipped action %v", base.actions[0])
	}
}

func TestRescaleAction(t *testing.T) {
	base := newBoxEnv(t)
	env, err := NewRescaleActionV0(base, []float64{0}, []float64{4})
	if err != nil {
		t.Fatal(err)
	}
	env.Reset(core.ResetOptions{})
	env.Step(mat.NewVecDense(2, []float64{4, 2}))
	if got := vec(t, base.actions[0]); !cmp.Equal(got, []float64{1, 0}) {
		t.Errorf("unexpected rescaled action %v", got)
	}
	if _, err := NewRescaleActionV0(base, []float64{1}, []float64{1}); !errors.Is(err, gymerr.ErrConstruction) {
		t.Errorf("expected construction error for empty range")
	}
}

func TestStickyAction(t *testing.T) {
	base := newBoxEnv(t)
	env, err := NewStickyActionV0(base, 0)
	if err != nil {
		t.Fatal(err)
	}
	env.Reset(core.WithSeed(1))
	env.Step([]float64{1, 1})
	env.Step([]float64{0, 0})
	if !cmp.Equal(base.actions[1], []float64{0, 0}) {
		t.Errorf("action repeated with probability 0")
	}
	if _, err := NewStickyActionV0(base, 1); !errors.Is(err, gymerr.ErrConstruction) {
		t.Errorf("expected construction error for probability 1")
	}
}

func TestDelayObservation(t *testing.T) {
	env, err := NewDelayObservationV0(newBoxEnv(t), 2)
	if err != nil {
		t.Fatal(err)
	}
	obs, _, _ := env.Reset(core.ResetOptions{})
	if !cmp.Equal(vec(t, obs), []float64{0, 0}) {
		t.Errorf("reset observation should be empty, got %v", obs)
	}
	var got [][]float64
	for i := 0; i < 3; i++ {
		tr, _ := env.Step(zeroAction)
		got = append(got, vec(t, tr.Observation))
	}
	want := [][]float64{{0, 0}, {0.5, 0}, {1.5, 2}}
	if !cmp.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	_, err = NewDelayObservationV0(newBoxEnv(t), -1)
	if err == nil || !strings.Contains(err.Error(), "The delay needs to be greater than zero, actual value: -1") {
		t.Errorf("unexpected error %v", err)
	}
	_, err = buildDelayObservation(newBoxEnv(t), specs.Kwargs{"delay": specs.Float(1)})
	if err == nil || !strings.Contains(err.Error(), "The delay is expected to be an integer, actual type: float") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestFrameStack(t *testing.T) {
	env, err := NewFrameStackObservationV0(newBoxEnv(t), 3)
	if err != nil {
		t.Fatal(err)
	}
	obs, _, _ := env.Reset(core.ResetOptions{})
	if !cmp.Equal(vec(t, obs), []float64{0, 0, 0, 0, 0.5, 0}) {
		t.Errorf("unexpected reset stack %v", obs)
	}
	tr, _ := env.Step(zeroAction)
	if !cmp.Equal(vec(t, tr.Observation), []float64{0, 0, 0.5, 0, 1.5, 2}) {
		t.Errorf("unexpected stack %v", tr.Observation)
	}
	if !env.ObservationSpace().Contains(tr.Observation) {
		t.Errorf("stacked observation not in %s", env.ObservationSpace())
	}

	dictStack, err := NewFrameStackObservationV0(newDictEnv(t), 2)
	if err != nil {
		t.Fatal(err)
	}
	obs, _, _ = dictStack.Reset(core.ResetOptions{})
	if !dictStack.ObservationSpace().Contains(obs) {
		t.Errorf("stacked dict observation not in %s", dictStack.ObservationSpace())
	}
}

func TestFrameStackStepBeforeReset(t *testing.T) {
	env, err := NewFrameStackObservationV0(newBoxEnv(t), 3)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Step(zeroAction); !errors.Is(err, gymerr.ErrResetNeeded) {
		t.Errorf("expected ErrResetNeeded, got %v", err)
	}
}

func TestStackedSpacesAreIndependent(t *testing.T) {
	door, _ := spaces.NewDiscrete(3)
	inner := newTestEnv(door, func(t int) any { return t % 3 })
	env, err := NewFrameStackObservationV0(inner, 2)
	if err != nil {
		t.Fatal(err)
	}
	tuple, ok := env.ObservationSpace().(*spaces.Tuple)
	if !ok {
		t.Fatalf("expected a tuple space, got %s", env.ObservationSpace())
	}
	if tuple.Spaces[0] == tuple.Spaces[1] || tuple.Spaces[0] == spaces.Space(door) {
		t.Errorf("stacked components share a space")
	}
	if !tuple.Spaces[0].Equal(door) {
		t.Errorf("component %s differs from %s", tuple.Spaces[0], door)
	}
	seeds, err := tuple.Seed([]int64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(seeds, []int64{1, 2}) {
		t.Errorf("unexpected seeds %v", seeds)
	}

	timed, err := NewTimeAwareObservationV0(newTestEnv(door, func(t int) any { return t % 3 }), false, false)
	if err != nil {
		t.Fatal(err)
	}
	dict := timed.ObservationSpace().(*spaces.Dict)
	if dict.Spaces["obs"] == spaces.Space(door) {
		t.Errorf("time aware dict shares the inner space")
	}
}

func TestFlattenAndFilter(t *testing.T) {
	flat, err := NewFlattenObservationV0(newDictEnv(t))
	if err != nil {
		t.Fatal(err)
	}
	flat.Reset(core.ResetOptions{})
	tr, _ := flat.Step(zeroAction)
	if !cmp.Equal(vec(t, tr.Observation), []float64{0, 1, 1, 2}) {
		t.Errorf("unexpected flattened observation %v", tr.Observation)
	}
	if !flat.ObservationSpace().Contains(tr.Observation) {
		t.Errorf("flattened observation not in %s", flat.ObservationSpace())
	}

	filtered, err := NewFilterObservationV0(newDictEnv(t), []string{"pos"})
	if err != nil {
		t.Fatal(err)
	}
	obs, _, _ := filtered.Reset(core.ResetOptions{})
	if _, ok := obs.(map[string]any)["door"]; ok || !filtered.ObservationSpace().Contains(obs) {
		t.Errorf("unexpected filtered observation %v", obs)
	}
	if _, err := NewFilterObservationV0(newDictEnv(t), []string{"missing"}); !errors.Is(err, gymerr.ErrConstruction) {
		t.Errorf("expected construction error for a missing key")
	}
	if _, err := NewFilterObservationV0(newBoxEnv(t), []string{"pos"}); !errors.Is(err, gymerr.ErrConstruction) {
		t.Errorf("expected construction error for a Box space")
	}
}

func TestDtypeAndRescaleObservation(t *testing.T) {
	cast, err := NewDtypeObservationV0(newBoxEnv(t), spaces.Int64)
	if err != nil {
		t.Fatal(err)
	}
	cast.Reset(core.ResetOptions{})
	tr, _ := cast.Step(zeroAction)
	if !cmp.Equal(vec(t, tr.Observation), []float64{1, 2}) || !cast.ObservationSpace().Contains(tr.Observation) {
		t.Errorf("unexpected cast observation %v", tr.Observation)
	}

	rescaled, err := NewRescaleObservationV0(newBoxEnv(t), []float64{0}, []float64{1})
	if err != nil {
		t.Fatal(err)
	}
	obs, _, _ := rescaled.Reset(core.ResetOptions{})
	if got := vec(t, obs); got[0] != 0.005 || got[1] != 0 {
		t.Errorf("unexpected rescaled observation %v", got)
	}
}

func TestNormalizeObservation(t *testing.T) {
	env, err := NewNormalizeObservationV0(newBoxEnv(t), 1e-8)
	if err != nil {
		t.Fatal(err)
	}
	obs, _, _ := env.Reset(core.ResetOptions{})
	for i := 0; i < 5; i++ {
		if !env.ObservationSpace().Contains(obs) {
			t.Fatalf("normalized observation %v not in %s", obs, env.ObservationSpace())
		}
		tr, _ := env.Step(zeroAction)
		obs = tr.Observation
	}
	if env.Mean()[1] <= 0 {
		t.Errorf("running mean was not updated: %v", env.Mean())
	}
}

func TestTimeAwareObservation(t *testing.T) {
	limited, _ := NewTimeLimitV0(newBoxEnv(t), 10)
	env, err := NewTimeAwareObservationV0(limited, true, true)
	if err != nil {
		t.Fatal(err)
	}
	obs, _, _ := env.Reset(core.ResetOptions{})
	if got := vec(t, obs); !cmp.Equal(got, []float64{0.5, 0, 0}) {
		t.Errorf("unexpected reset observation %v", got)
	}
	tr, _ := env.Step(zeroAction)
	if got := vec(t, tr.Observation); got[2] != 0.1 {
		t.Errorf("expected normalized time 0.1, got %v", got)
	}

	dictEnv, err := NewTimeAwareObservationV0(newDictEnv(t), false, false)
	if err != nil {
		t.Fatal(err)
	}
	obs, _, _ = dictEnv.Reset(core.ResetOptions{})
	if !dictEnv.ObservationSpace().Contains(obs) {
		t.Errorf("observation %v not in %s", obs, dictEnv.ObservationSpace())
	}

	if _, err := NewTimeAwareObservationV0(newBoxEnv(t), true, true); !errors.Is(err, gymerr.ErrConstruction) {
		t.Errorf("expected construction error without a step limit")
	}
}

func TestLambdaObservationAndAction(t *testing.T) {
	base := newBoxEnv(t)
	negate := func(a any) any {
		data := vec(t, a)
		return []float64{-data[0], -data[1]}
	}
	act, err := NewLambdaActionV0(base, negate)
	if err != nil {
		t.Fatal(err)
	}
	first := func(o any) any { return vec(t, o)[0] }
	obsEnv, err := NewLambdaObservationV0(act, specs.Func{Name: "test.first", Fn: first})
	if err != nil {
		t.Fatal(err)
	}
	obs, _, _ := obsEnv.Reset(core.ResetOptions{})
	if obs != 0.5 {
		t.Errorf("unexpected observation %v", obs)
	}
	obsEnv.Step([]float64{0.25, -0.25})
	if !cmp.Equal(base.actions[0], []float64{-0.25, 0.25}) {
		t.Errorf("unexpected transformed action %v", base.actions[0])
	}
	if ref := obsEnv.WrapperSpec().Kwargs["func"].Ref(); ref != "test.first" {
		t.Errorf("unexpected reference %q", ref)
	}
}

func TestVecToSlice(t *testing.T) {
	base := newBoxEnv(t)
	env := NewVecToSliceV0(base)
	obs, _, _ := env.Reset(core.ResetOptions{})
	if _, ok := obs.([]float64); !ok {
		t.Errorf("expected a slice observation, got %T", obs)
	}
	env.Step([]float64{0.1, 0.2})
	if _, ok := base.actions[0].(*mat.VecDense); !ok {
		t.Errorf("expected the inner env to receive a vector, got %T", base.actions[0])
	}
}
