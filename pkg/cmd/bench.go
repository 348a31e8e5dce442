package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"secdash/pkg/client"
	"secdash/pkg/loadtest"
)

const defaultBenchTimeout = 2 * time.Minute

func newBenchCommand() *cobra.Command {
	var (
		url     string
		opts    loadtest.Options
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Send sequential and concurrent requests to a running instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			api := client.New(url, client.Options{Timeout: timeout})
			summary, err := loadtest.New(api, opts).Run(ctx, cmd.OutOrStdout())

			fmt.Fprintf(cmd.OutOrStdout(), "%d requests, %d failed, %.2fs\n",
				summary.Requests, summary.Failures, summary.Elapsed.Seconds())
			return err
		},
	}

	cmd.Flags().StringVar(&url, "url", defaultURL, "base URL of the instance")
	cmd.Flags().IntVar(&opts.Passes, "passes", 3, "sequential passes over both metrics endpoints")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 10, "concurrent requests per endpoint")
	cmd.Flags().BoolVar(&opts.Summary, "summary", true, "print the per-step breakdown")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultBenchTimeout, "overall timeout")

	return cmd
}
