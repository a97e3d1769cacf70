package rl

import (
	"encoding/json"

	"github.com/zeu5/gymkit/core"
	"github.com/zeu5/gymkit/spaces"
	"github.com/zeu5/gymkit/util"
)

// Step is a single transition of an episode
type Step struct {
	Observation     any     `json:"observation"`
	Action          any     `json:"action"`
	NextObservation any     `json:"next_observation"`
	Reward          float64 `json:"reward"`
	Terminated      bool    `json:"terminated"`
	Truncated       bool    `json:"truncated"`
}

// Trace of an episode
type Trace struct {
	Steps []Step `json:"steps"`
}

func NewTrace() *Trace {
	return &Trace{
		Steps: make([]Step, 0),
	}
}

func (t *Trace) Append(obs, action any, tr core.Transition) {
	t.Steps = append(t.Steps, Step{
		Observation:     plain(obs),
		Action:          plain(action),
		NextObservation: plain(tr.Observation),
		Reward:          tr.Reward,
		Terminated:      tr.Terminated,
		Truncated:       tr.Truncated,
	})
}

func (t *Trace) Len() int {
	return len(t.Steps)
}

func (t *Trace) Get(i int) (Step, bool) {
	if i < 0 || i >= len(t.Steps) {
		return Step{}, false
	}
	return t.Steps[i], true
}

func (t *Trace) Last() (Step, bool) {
	return t.Get(len(t.Steps) - 1)
}

func (t *Trace) GetPrefix(i int) (*Trace, bool) {
	if i > len(t.Steps) {
		return nil, false
	}
	return &Trace{Steps: t.Steps[0:i]}, true
}

// Return is the undiscounted sum of rewards
func (t *Trace) Return() float64 {
	sum := 0.0
	for _, s := range t.Steps {
		sum += s.Reward
	}
	return sum
}

// Record appends the trace as a json line to path
func (t *Trace) Record(path string) error {
	bs, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return util.AppendToFile(path, string(bs))
}

// plain copies box values so traces own their data and marshal as arrays
func plain(x any) any {
	if data, ok := spaces.Floats(x); ok {
		return append([]float64{}, data...)
	}
	return x
}
