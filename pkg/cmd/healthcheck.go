package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"secdash/pkg/client"
	"secdash/pkg/models"
)

const defaultHealthTimeout = 5 * time.Second

func newHealthcheckCommand() *cobra.Command {
	var (
		url     string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check that a running instance answers its health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			status, err := client.New(url, client.Options{Timeout: timeout, RetryMax: 1}).Health(ctx)
			if err != nil {
				return err
			}
			if status.Status != models.StatusHealthy {
				return fmt.Errorf("unexpected health status %q", status.Status)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s at %s\n", status.Status, status.Timestamp.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", defaultURL, "base URL of the instance")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultHealthTimeout, "overall timeout")

	return cmd
}
