// Package commands is the gymkit command line.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeu5/gymkit/config"
	"github.com/zeu5/gymkit/envs"
	"github.com/zeu5/gymkit/registry"
)

var (
	manifest string
	envFile  string

	cfg *config.Config
	reg *registry.Registry
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "gymkit",
		Short:         "Build, inspect and run reinforcement learning environments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
	}
	rootCommand.PersistentFlags().StringVar(&manifest, "manifest", "", "Yaml manifest of additional environments")
	rootCommand.PersistentFlags().StringVar(&envFile, "env-file", ".env", "File of environment variables to load")
	// adding the subcommands here
	rootCommand.AddCommand(EnvsCommand())
	rootCommand.AddCommand(MakeCommand())
	rootCommand.AddCommand(PprintCommand())
	rootCommand.AddCommand(RolloutCommand())
	rootCommand.AddCommand(ServeCommand())
	rootCommand.AddCommand(StoreCommand())
	return rootCommand
}

// setup loads the configuration and the registry shared by all commands
func setup() error {
	c, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if manifest != "" {
		c.Manifest = manifest
	}
	cfg = c

	reg = envs.NewRegistry()
	if cfg.Manifest != "" {
		n, err := registry.LoadManifest(reg, cfg.Manifest)
		if err != nil {
			return err
		}
		fmt.Printf("Registered %d environments from %s\n", n, cfg.Manifest)
	}
	return nil
}

func EnvsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "envs",
		Short: "List the registered environments",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), reg.Pprint())
			return nil
		},
	}
}
