package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/zeu5/gymkit/server"
)

var addr string

func ServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the registered environments over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.ServerAddr
			}
			ctx, cancel := context.WithCancel(context.Background())
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt)

			s := server.New(addr, reg)
			s.Start(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s\n", addr)
			<-sigChan
			cancel()
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, defaults to GYMKIT_ADDR")
	return cmd
}
