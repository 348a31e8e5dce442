package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"secdash/pkg/client"
	"secdash/pkg/dashboard"
)

func newWatchCommand() *cobra.Command {
	var (
		url      string
		interval = dashboard.DefaultInterval
		noClear  bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show a refreshing terminal view of a running instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			renderer := dashboard.NewRenderer(cmd.OutOrStdout(), !noClear)
			watcher := dashboard.NewWatcher(client.New(url, client.Options{}), renderer, interval)

			return watcher.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&url, "url", defaultURL, "base URL of the instance")
	cmd.Flags().DurationVar(&interval, "interval", interval, "refresh interval")
	cmd.Flags().BoolVar(&noClear, "no-clear", false, "append views instead of redrawing the screen")

	return cmd
}
