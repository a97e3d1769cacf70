// Package rl runs policies on environments and analyzes the resulting traces.
package rl

import (
	"context"
	"fmt"

	"github.com/zeu5/gymkit/core"
)

type AgentConfig struct {
	Episodes    int
	Horizon     int
	Policy      Policy
	Environment core.Env
	// Seed of the first reset, nil leaves the environment unseeded
	Seed *int64
}

// RL Agent configured with the corresponding
// policy and environment
type Agent struct {
	config *AgentConfig
	// collects the traces of the run
	// Only populated if the Run function is invoked
	traces      []*Trace
	policy      Policy
	environment core.Env
}

// Instantiates a new Agent
func NewAgent(config *AgentConfig) *Agent {
	return &Agent{
		config:      config,
		traces:      make([]*Trace, 0, config.Episodes),
		policy:      config.Policy,
		environment: config.Environment,
	}
}

func (a *Agent) Traces() []*Trace {
	return a.traces
}

// Run the agent for the specified number of episodes and horizon
func (a *Agent) Run(ctx context.Context) error {
	for i := 0; i < a.config.Episodes; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		trace, err := a.runEpisode(i)
		if err != nil {
			return fmt.Errorf("episode %d: %w", i, err)
		}
		a.traces = append(a.traces, trace)
	}
	return nil
}

// run a single episode and return the resulting trace
func (a *Agent) runEpisode(episode int) (*Trace, error) {
	opts := core.ResetOptions{}
	if episode == 0 && a.config.Seed != nil {
		opts = core.WithSeed(*a.config.Seed)
	}
	obs, _, err := a.environment.Reset(opts)
	if err != nil {
		return nil, err
	}
	trace := NewTrace()
	actionSpace := a.environment.ActionSpace()

	for i := 0; a.config.Horizon <= 0 || i < a.config.Horizon; i++ {
		action, ok := a.policy.NextAction(i, obs, actionSpace)
		if !ok {
			break
		}
		tr, err := a.environment.Step(action)
		if err != nil {
			return nil, err
		}
		a.policy.Update(i, obs, action, tr)
		trace.Append(obs, action, tr)
		obs = tr.Observation
		if tr.Done() {
			break
		}
	}
	a.policy.UpdateIteration(episode, trace)

	return trace, nil
}
