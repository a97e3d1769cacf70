package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/spf13/cobra"
	"github.com/zeu5/gymkit/core"
	"github.com/zeu5/gymkit/rl"
	"github.com/zeu5/gymkit/specs"
)

var (
	episodes   int
	horizon    int
	seed       int64
	stackFiles []string
	policyName string
	plot       bool
	record     bool
)

func RolloutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollout [id]...",
		Short: "Run a policy on environments and compare the returns",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(stackFiles) == 0 {
				return fmt.Errorf("expected environment ids or --stack files")
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt)
			defer signal.Stop(sigChan)
			go func() {
				select {
				case <-sigChan:
					cancel()
				case <-ctx.Done():
				}
			}()

			comparators := []rl.Comparator{rl.SummaryPrinter(cmd.OutOrStdout(), "return")}
			if plot {
				comparators = append(comparators, rl.ReturnsPlotter(cfg.Results, "returns"))
			}
			comparison := rl.NewComparison(rl.ReturnsAnalyzer(), comparators...)
			comparison.Out = cmd.OutOrStdout()

			add := func(name string, env core.Env) error {
				policy, err := newPolicy(policyName, uint64(seed))
				if err != nil {
					return err
				}
				s := seed
				e := rl.NewExperiment(name, &rl.AgentConfig{
					Episodes:    episodes,
					Horizon:     horizon,
					Policy:      policy,
					Environment: env,
					Seed:        &s,
				})
				if record {
					e.RecordPath = rl.RecordPath(path.Join(cfg.Results, "traces"), name)
				}
				comparison.AddExperiment(e)
				return nil
			}

			envs := make([]core.Env, 0)
			defer func() {
				for _, env := range envs {
					env.Close()
				}
			}()
			for _, id := range args {
				env, err := buildEnv(id, kwargsJSON, wraps)
				if err != nil {
					return err
				}
				envs = append(envs, env)
				if err := add(id, env); err != nil {
					return err
				}
			}
			for _, file := range stackFiles {
				text, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				stack, err := specs.Deserialize(string(text))
				if err != nil {
					return err
				}
				env, err := reg.MakeFromStack(stack)
				if err != nil {
					return err
				}
				envs = append(envs, env)
				if err := add(path.Base(file), env); err != nil {
					return err
				}
			}
			return comparison.Run(ctx)
		},
	}
	cmd.Flags().IntVarP(&episodes, "episodes", "e", 10, "Number of episodes to run")
	cmd.Flags().IntVar(&horizon, "horizon", 0, "Maximum steps of each episode, 0 runs until done")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed of the environments and the policy")
	cmd.Flags().StringArrayVar(&stackFiles, "stack", nil, "Serialized spec stack file to rebuild and run")
	cmd.Flags().StringVar(&policyName, "policy", "random", "Policy to run: random or softmax")
	cmd.Flags().StringVar(&kwargsJSON, "kwargs", "", "Json object of environment arguments")
	cmd.Flags().StringArrayVar(&wraps, "wrap", nil, "Wrapper to add as Name=json, innermost first")
	cmd.Flags().BoolVar(&plot, "plot", false, "Plot the returns under the results folder")
	cmd.Flags().BoolVar(&record, "record", false, "Record the traces as jsonl under the results folder")
	return cmd
}

func newPolicy(name string, seed uint64) (rl.Policy, error) {
	switch name {
	case "random":
		return rl.NewSeededRandomPolicy(seed), nil
	case "softmax":
		return rl.NewSoftMaxPolicy(0.3, 0.95, seed), nil
	}
	return nil, fmt.Errorf("unknown policy %q", name)
}
