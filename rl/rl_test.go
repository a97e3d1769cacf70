package rl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zeu5/gymkit/core"
	"github.com/zeu5/gymkit/envs"
	"github.com/zeu5/gymkit/spaces"
)

func newGrid(t *testing.T) core.Env {
	t.Helper()
	r := envs.NewRegistry()
	env, err := r.Make("GridWorld-v0", nil)
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func TestAgentRespectsHorizon(t *testing.T) {
	seed := int64(4)
	agent := NewAgent(&AgentConfig{
		Episodes:    3,
		Horizon:     7,
		Policy:      NewSeededRandomPolicy(1),
		Environment: newGrid(t),
		Seed:        &seed,
	})
	if err := agent.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(agent.Traces()) != 3 {
		t.Fatalf("expected 3 traces, got %d", len(agent.Traces()))
	}
	for _, trace := range agent.Traces() {
		if trace.Len() > 7 {
			t.Errorf("trace longer than the horizon: %d", trace.Len())
		}
		for i := 1; i < trace.Len(); i++ {
			prev, _ := trace.Get(i - 1)
			cur, _ := trace.Get(i)
			if !cmp.Equal(prev.NextObservation, cur.Observation) {
				t.Errorf("step %d does not continue from the previous one", i)
			}
		}
	}
}

func TestAgentStopsOnTruncation(t *testing.T) {
	agent := NewAgent(&AgentConfig{
		Episodes:    1,
		Policy:      NewSeededRandomPolicy(2),
		Environment: newGrid(t),
	})
	if err := agent.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	last, ok := agent.Traces()[0].Last()
	if !ok || !(last.Terminated || last.Truncated) {
		t.Errorf("episode should run until done, last step %+v", last)
	}
	if agent.Traces()[0].Len() > 100 {
		t.Errorf("episode longer than the step limit")
	}
}

func TestRandomPolicySpaces(t *testing.T) {
	p := NewSeededRandomPolicy(3)
	box, _ := spaces.NewBoxScalar(-2, 2, []int{3}, spaces.Float64)
	discrete, _ := spaces.NewDiscreteStart(4, 10)
	binary, _ := spaces.NewMultiBinary(5)
	for _, s := range []spaces.Space{box, discrete, binary} {
		for i := 0; i < 20; i++ {
			a, ok := p.NextAction(i, nil, s)
			if !ok || !s.Contains(a) {
				t.Fatalf("action %v outside %s", a, s)
			}
		}
	}
}

func TestSoftMaxPolicyLearns(t *testing.T) {
	p := NewSoftMaxPolicy(0.5, 0.9, 5)
	act, _ := spaces.NewDiscrete(2)
	for i := 0; i < 50; i++ {
		a, ok := p.NextAction(i, 0, act)
		if !ok {
			t.Fatal("expected an action")
		}
		reward := 0.0
		if a == 1 {
			reward = 1
		}
		p.Update(i, 0, a, core.Transition{Observation: 1, Reward: reward, Terminated: true})
	}
	if p.QTable["0"][1] <= p.QTable["0"][0] {
		t.Errorf("rewarded action should have the higher value: %v", p.QTable["0"])
	}
	box, _ := spaces.NewBoxScalar(0, 1, []int{2}, spaces.Float64)
	if _, ok := p.NextAction(0, 0, box); ok {
		t.Errorf("non discrete action spaces are not supported")
	}
}

func TestComparison(t *testing.T) {
	dir := t.TempDir()
	out := new(bytes.Buffer)
	summary := new(bytes.Buffer)

	c := NewComparison(ReturnsAnalyzer(), SummaryPrinter(summary, "return"), ReturnsPlotter(dir, "returns"))
	c.Out = out
	for _, name := range []string{"random", "softmax"} {
		var policy Policy = NewSeededRandomPolicy(7)
		if name == "softmax" {
			policy = NewSoftMaxPolicy(0.3, 0.95, 7)
		}
		e := NewExperiment(name, &AgentConfig{Episodes: 4, Horizon: 20, Policy: policy, Environment: newGrid(t)})
		e.RecordPath = RecordPath(dir, name)
		c.AddExperiment(e)
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	for _, e := range c.Experiments {
		if len(e.Result) != 4 {
			t.Errorf("%s: expected 4 traces, got %d", e.Name, len(e.Result))
		}
		f, err := os.Open(RecordPath(dir, e.Name))
		if err != nil {
			t.Fatal(err)
		}
		lines := 0
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 1<<20), 1<<20)
		for scanner.Scan() {
			trace := &Trace{}
			if err := json.Unmarshal(scanner.Bytes(), trace); err != nil {
				t.Errorf("invalid trace line: %s", err)
			}
			lines++
		}
		f.Close()
		if lines != 4 {
			t.Errorf("%s: expected 4 recorded traces, got %d", e.Name, lines)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "returns.png")); err != nil {
		t.Errorf("plot not saved: %s", err)
	}
	if !strings.Contains(summary.String(), "random: return") || !strings.Contains(summary.String(), "softmax: return") {
		t.Errorf("unexpected summary %q", summary.String())
	}
	if !strings.Contains(out.String(), "completed 4 episodes") {
		t.Errorf("final progress not printed: %q", out.String())
	}
}

func TestLengthAnalyzer(t *testing.T) {
	trace := NewTrace()
	trace.Append(0, 1, core.Transition{Observation: 1, Reward: 2})
	trace.Append(1, 0, core.Transition{Observation: 0, Reward: 3, Terminated: true})
	got := LengthAnalyzer()("x", []*Trace{trace, NewTrace()})
	if !cmp.Equal(got, []float64{2, 0}) {
		t.Errorf("unexpected lengths %v", got)
	}
	if trace.Return() != 5 {
		t.Errorf("unexpected return %v", trace.Return())
	}
	prefix, _ := trace.GetPrefix(1)
	if prefix.Len() != 1 {
		t.Errorf("unexpected prefix length %d", prefix.Len())
	}
}
