package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zeu5/gymkit/specs"
	"github.com/zeu5/gymkit/store"
)

var unsafeLoad bool

// openStore is replaced in tests
var openStore = func() store.Store {
	return store.NewRedisAddr(cfg.RedisAddr, cfg.RedisPrefix)
}

func StoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Keep spec stacks in redis",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "put <name> <file>",
		Short: "Store the spec stack serialized in file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			stack, err := specs.Deserialize(string(text), specs.AllowUnsafe())
			if err != nil {
				return err
			}
			return openStore().Put(context.Background(), args[0], stack)
		},
	})
	get := &cobra.Command{
		Use:   "get <name>",
		Short: "Print a stored spec stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openStore()
			var stack specs.Stack
			var err error
			if unsafeLoad {
				stack, err = s.GetUnsafe(context.Background(), args[0])
			} else {
				stack, err = s.Get(context.Background(), args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), specs.Pprint(stack))
			return nil
		},
	}
	get.Flags().BoolVar(&unsafeLoad, "unsafe", false, "Load stacks holding callables as opaque references")
	cmd.AddCommand(get)
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the stored spec stacks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := openStore().List(context.Background())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored spec stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return openStore().Delete(context.Background(), args[0])
		},
	})
	return cmd
}
