package wrappers

import (
	"time"

	"github.com/zeu5/gymkit/core"
	"github.com/zeu5/gymkit/gymerr"
	"github.com/zeu5/gymkit/specs"
)

// TimeLimitV0 truncates episodes after a fixed number of steps
type TimeLimitV0 struct {
	*core.Wrapper
	maxEpisodeSteps int
	elapsedSteps    int
}

var _ core.Wrapped = &TimeLimitV0{}

func NewTimeLimitV0(env core.Env, maxEpisodeSteps int) (*TimeLimitV0, error) {
	if maxEpisodeSteps <= 0 {
		return nil, gymerr.Argument("TimeLimitV0", "max_episode_steps", "must be positive, actual value: %d", maxEpisodeSteps)
	}
	spec := specs.NewWrapperSpec("TimeLimit", 0, specs.Kwargs{
		"max_episode_steps": specs.Int(int64(maxEpisodeSteps)),
	})
	return &TimeLimitV0{
		Wrapper:         core.NewWrapper(env, spec),
		maxEpisodeSteps: maxEpisodeSteps,
	}, nil
}

func (t *TimeLimitV0) Reset(opts core.ResetOptions) (any, core.Info, error) {
	t.elapsedSteps = 0
	return t.Wrapper.Reset(opts)
}

func (t *TimeLimitV0) Step(action any) (core.Transition, error) {
	tr, err := t.Wrapper.Step(action)
	if err != nil {
		return tr, err
	}
	t.elapsedSteps++
	if t.elapsedSteps >= t.maxEpisodeSteps {
		tr.Truncated = true
	}
	return tr, nil
}

// MaxEpisodeSteps is the step limit
func (t *TimeLimitV0) MaxEpisodeSteps() int {
	return t.maxEpisodeSteps
}

func buildTimeLimit(env core.Env, kw specs.Kwargs) (core.Env, error) {
	steps, err := kw.Int("max_episode_steps", 0)
	if err != nil {
		return nil, err
	}
	return NewTimeLimitV0(env, steps)
}

// OrderEnforcingV0 fails steps taken before the first reset
type OrderEnforcingV0 struct {
	*core.Wrapper
	hasReset bool
}

var _ core.Wrapped = &OrderEnforcingV0{}

func NewOrderEnforcingV0(env core.Env) *OrderEnforcingV0 {
	return &OrderEnforcingV0{
		Wrapper: core.NewWrapper(env, specs.NewWrapperSpec("OrderEnforcing", 0, nil)),
	}
}

func (o *OrderEnforcingV0) Reset(opts core.ResetOptions) (any, core.Info, error) {
	obs, info, err := o.Wrapper.Reset(opts)
	if err == nil {
		o.hasReset = true
	}
	return obs, info, err
}

func (o *OrderEnforcingV0) Step(action any) (core.Transition, error) {
	if !o.hasReset {
		return core.Transition{}, gymerr.ErrResetNeeded
	}
	return o.Wrapper.Step(action)
}

func (o *OrderEnforcingV0) HasReset() bool {
	return o.hasReset
}

func buildOrderEnforcing(env core.Env, _ specs.Kwargs) (core.Env, error) {
	return NewOrderEnforcingV0(env), nil
}

// AutoresetV0 resets the environment on the step call following the end
// of an episode. That step returns the reset observation with zero reward.
type AutoresetV0 struct {
	*core.Wrapper
	autoreset bool
}

var _ core.Wrapped = &AutoresetV0{}

func NewAutoresetV0(env core.Env) *AutoresetV0 {
	return &AutoresetV0{
		Wrapper: core.NewWrapper(env, specs.NewWrapperSpec("Autoreset", 0, nil)),
	}
}

func (a *AutoresetV0) Reset(opts core.ResetOptions) (any, core.Info, error) {
	a.autoreset = false
	return a.Wrapper.Reset(opts)
}

func (a *AutoresetV0) Step(action any) (core.Transition, error) {
	var tr core.Transition
	if a.autoreset {
		obs, info, err := a.Wrapper.Reset(core.ResetOptions{})
		if err != nil {
			return tr, err
		}
		tr = core.Transition{Observation: obs, Info: info}
	} else {
		var err error
		tr, err = a.Wrapper.Step(action)
		if err != nil {
			return tr, err
		}
	}
	a.autoreset = tr.Done()
	return tr, nil
}

func buildAutoreset(env core.Env, _ specs.Kwargs) (core.Env, error) {
	return NewAutoresetV0(env), nil
}

// EpisodeStatistics is added to the info of the last step of an episode
// under the "episode" key
type EpisodeStatistics struct {
	Return  float64
	Length  int
	Elapsed time.Duration
}

// RecordEpisodeStatisticsV0 tracks episode returns and lengths
type RecordEpisodeStatisticsV0 struct {
	*core.Wrapper
	bufferLength int

	episodeReturn float64
	episodeLength int
	episodeStart  time.Time

	returns []float64
	lengths []int
}

var _ core.Wrapped = &RecordEpisodeStatisticsV0{}

func NewRecordEpisodeStatisticsV0(env core.Env, bufferLength int) (*RecordEpisodeStatisticsV0, error) {
	if bufferLength <= 0 {
		return nil, gymerr.Argument("RecordEpisodeStatisticsV0", "buffer_length", "must be positive, actual value: %d", bufferLength)
	}
	spec := specs.NewWrapperSpec("RecordEpisodeStatistics", 0, specs.Kwargs{
		"buffer_length": specs.Int(int64(bufferLength)),
	})
	return &RecordEpisodeStatisticsV0{
		Wrapper:      core.NewWrapper(env, spec),
		bufferLength: bufferLength,
		returns:      make([]float64, 0, bufferLength),
		lengths:      make([]int, 0, bufferLength),
	}, nil
}

func (r *RecordEpisodeStatisticsV0) Reset(opts core.ResetOptions) (any, core.Info, error) {
	r.episodeReturn = 0
	r.episodeLength = 0
	r.episodeStart = time.Now()
	return r.Wrapper.Reset(opts)
}

func (r *RecordEpisodeStatisticsV0) Step(action any) (core.Transition, error) {
	tr, err := r.Wrapper.Step(action)
	if err != nil {
		return tr, err
	}
	r.episodeReturn += tr.Reward
	r.episodeLength++
	if tr.Done() {
		stats := EpisodeStatistics{
			Return:  r.episodeReturn,
			Length:  r.episodeLength,
			Elapsed: time.Since(r.episodeStart),
		}
		if tr.Info == nil {
			tr.Info = core.Info{}
		}
		tr.Info["episode"] = stats
		if len(r.returns) == r.bufferLength {
			r.returns = r.returns[1:]
			r.lengths = r.lengths[1:]
		}
		r.returns = append(r.returns, stats.Return)
		r.lengths = append(r.lengths, stats.Length)
		r.episodeReturn = 0
		r.episodeLength = 0
		r.episodeStart = time.Now()
	}
	return tr, nil
}

// Returns are the returns of the most recent episodes, oldest first
func (r *RecordEpisodeStatisticsV0) Returns() []float64 {
	return append([]float64{}, r.returns...)
}

func (r *RecordEpisodeStatisticsV0) Lengths() []int {
	return append([]int{}, r.lengths...)
}

func buildRecordEpisodeStatistics(env core.Env, kw specs.Kwargs) (core.Env, error) {
	n, err := kw.Int("buffer_length", 100)
	if err != nil {
		return nil, err
	}
	return NewRecordEpisodeStatisticsV0(env, n)
}
