package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zeu5/gymkit/core"
	"github.com/zeu5/gymkit/gymerr"
	"github.com/zeu5/gymkit/specs"
	"github.com/zeu5/gymkit/util"
)

var (
	kwargsJSON string
	wraps      []string
	outFile    string
	pretty     bool
)

func MakeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "make <id>",
		Short: "Build an environment and print its serialized spec stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnv(args[0], kwargsJSON, wraps)
			if err != nil {
				return err
			}
			defer env.Close()
			stack, err := core.SpecStack(env)
			if err != nil {
				return err
			}
			out := ""
			if pretty {
				out = specs.Pprint(stack)
			} else if out, err = specs.Serialize(stack); err != nil {
				return err
			}
			if outFile != "" {
				return util.WriteToFile(outFile, out)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&kwargsJSON, "kwargs", "", "Json object of environment arguments")
	cmd.Flags().StringArrayVar(&wraps, "wrap", nil, "Wrapper to add as Name=json, innermost first. Name carries the version, e.g. ClipRewardV0={\"max_reward\":1}")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the spec stack to a file")
	cmd.Flags().BoolVar(&pretty, "pprint", false, "Print the readable form instead of the serialized text")
	return cmd
}

// buildEnv makes id and adds the wrappers given as Name=json
func buildEnv(id, kwargsText string, wrappers []string) (core.Env, error) {
	kwargs, err := parseKwargs(kwargsText)
	if err != nil {
		return nil, err
	}
	env, err := reg.Make(id, kwargs)
	if err != nil {
		return nil, err
	}
	for _, w := range wrappers {
		name, args, _ := strings.Cut(w, "=")
		base, version, err := specs.ParseWrapperName(name)
		if err != nil {
			env.Close()
			return nil, err
		}
		wkwargs, err := parseKwargs(args)
		if err != nil {
			env.Close()
			return nil, err
		}
		wrapped, err := reg.Catalog().Build(env, *specs.NewWrapperSpec(base, version, wkwargs))
		if err != nil {
			env.Close()
			return nil, err
		}
		env = wrapped
	}
	return env, nil
}

func parseKwargs(text string) (specs.Kwargs, error) {
	if strings.TrimSpace(text) == "" {
		return specs.Kwargs{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	values := make(map[string]any)
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("%w: arguments %q are not a json object: %s", gymerr.ErrConstruction, text, err)
	}
	return specs.NewKwargs(values)
}

func PprintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pprint <file>",
		Short: "Print a serialized spec stack in readable form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			out, err := specs.PprintText(string(text))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
