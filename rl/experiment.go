package rl

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sync"
	"time"
)

// Experiment runs one agent configuration and keeps the traces
type Experiment struct {
	Name   string
	config *AgentConfig
	Result []*Trace

	// RecordPath, when set, receives every trace as a json line
	RecordPath string
}

func NewExperiment(name string, config *AgentConfig) *Experiment {
	return &Experiment{
		Name:   name,
		config: config,
		Result: make([]*Trace, 0),
	}
}

// Run the experiment for the configured number of episodes, reporting
// progress to output when it is not nil
func (e *Experiment) Run(ctx context.Context, output *Output) error {
	agent := NewAgent(&AgentConfig{
		Episodes:    1,
		Horizon:     e.config.Horizon,
		Policy:      e.config.Policy,
		Environment: e.config.Environment,
	})
	for i := 0; i < e.config.Episodes; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if output != nil {
			output.Set(fmt.Sprintf("Experiment: %s, Episode: %d/%d", e.Name, i+1, e.config.Episodes))
		}
		if i == 0 {
			agent.config.Seed = e.config.Seed
		} else {
			agent.config.Seed = nil
		}
		trace, err := agent.runEpisode(i)
		if err != nil {
			return fmt.Errorf("experiment %s, episode %d: %w", e.Name, i, err)
		}
		e.Result = append(e.Result, trace)
		if e.RecordPath != "" {
			if err := trace.Record(e.RecordPath); err != nil {
				return err
			}
		}
	}
	if output != nil {
		output.Set(fmt.Sprintf("Experiment: %s, completed %d episodes", e.Name, e.config.Episodes))
	}
	return nil
}

type DataSet interface{}

// Analyzer reduces the traces of an experiment to a data set
type Analyzer func(name string, traces []*Trace) DataSet

// Comparator outputs the data sets of all experiments
type Comparator func(names []string, datasets []DataSet) error

// Comparison runs experiments concurrently and compares their data sets.
// Experiments must not share environments or policies.
type Comparison struct {
	Experiments []*Experiment
	analyzer    Analyzer
	comparators []Comparator

	// Out receives the live progress, nil disables it
	Out io.Writer
	// PrintInterval is the progress refresh interval
	PrintInterval time.Duration
}

func NewComparison(analyzer Analyzer, comparators ...Comparator) *Comparison {
	return &Comparison{
		Experiments:   make([]*Experiment, 0),
		analyzer:      analyzer,
		comparators:   comparators,
		Out:           os.Stdout,
		PrintInterval: time.Second,
	}
}

func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

func (c *Comparison) Run(ctx context.Context) error {
	outputs := make([]*Output, len(c.Experiments))
	for i := range outputs {
		outputs[i] = NewOutput()
	}
	if c.Out != nil && len(outputs) > 0 {
		printer := NewTerminalPrinter(ctx, c.Out, outputs, c.PrintInterval)
		printer.Start()
		defer printer.Stop()
	}

	errs := make([]error, len(c.Experiments))
	wg := new(sync.WaitGroup)
	for i, e := range c.Experiments {
		wg.Add(1)
		go func(i int, e *Experiment) {
			defer wg.Done()
			errs[i] = e.Run(ctx, outputs[i])
		}(i, e)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	datasets := make([]DataSet, len(c.Experiments))
	names := make([]string, len(c.Experiments))
	for i, e := range c.Experiments {
		datasets[i] = c.analyzer(e.Name, e.Result)
		names[i] = e.Name
	}
	for _, comparator := range c.comparators {
		if err := comparator(names, datasets); err != nil {
			return err
		}
	}
	return nil
}

// RecordPath is the jsonl file of an experiment's traces under dir
func RecordPath(dir, name string) string {
	return path.Join(dir, name+".jsonl")
}
