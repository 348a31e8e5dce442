package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"secdash/pkg/collector"
	"secdash/pkg/log"
	"secdash/pkg/models"
)

const (
	targetSecurity = "security"
	targetSystem   = "system"

	msgSecurityFailure = "Failed to retrieve CrowdSec metrics"
	msgSystemFailure   = "Failed to retrieve system metrics"
)

// ErrCollectionFailed is returned when a one-shot collection fails.
var ErrCollectionFailed = errors.New("metrics collection failed")

// combinedMetrics is printed when no target is given.
type combinedMetrics struct {
	Security []models.SecurityDecision `json:"crowdsec"`
	System   *models.SystemSnapshot    `json:"system"`
}

func newMetricsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "metrics [security|system]",
		Short:     "Collect metrics once and print them as JSON",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{targetSecurity, targetSystem},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			coll, exec, err := a.newCollector(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := exec.Close(); err != nil {
					log.Warn().Err(err).Msg("Failed to close executor")
				}
			}()

			target := ""
			if len(args) == 1 {
				target = args[0]
			}

			return printMetrics(cmd.Context(), cmd.OutOrStdout(), coll, target)
		},
	}
}

func printMetrics(ctx context.Context, out io.Writer, coll *collector.Collector, target string) error {
	var result combinedMetrics

	if target == "" || target == targetSecurity {
		decisions, err := coll.SecurityMetrics(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to collect security metrics")
			return writeFailure(out, msgSecurityFailure)
		}
		result.Security = decisions
	}

	if target == "" || target == targetSystem {
		snapshot, err := coll.SystemMetrics(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to collect system metrics")
			return writeFailure(out, msgSystemFailure)
		}
		result.System = snapshot
	}

	switch target {
	case targetSecurity:
		return writeJSON(out, result.Security)
	case targetSystem:
		return writeJSON(out, result.System)
	default:
		return writeJSON(out, result)
	}
}

func writeFailure(out io.Writer, message string) error {
	if err := writeJSON(out, models.NewErrorResponse(message)); err != nil {
		return err
	}
	return ErrCollectionFailed
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
