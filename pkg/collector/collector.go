// Package collector turns probe command output into the dashboard's JSON
// models. Each call runs its probes afresh; nothing is cached between calls.
package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc"

	"secdash/pkg/config"
	"secdash/pkg/log"
	"secdash/pkg/models"
	"secdash/pkg/parser"
)

// Probe names used in errors and logs.
const (
	ProbeSecurity = "security"
	ProbeUptime   = "uptime"
	ProbeMemory   = "memory"
	ProbeDisk     = "disk"
)

// CommandExecutor runs a command, inside container when it is not empty.
type CommandExecutor interface {
	Execute(ctx context.Context, command, container string) models.CommandResult
}

// Collector runs the configured probes and parses their output.
type Collector struct {
	executor CommandExecutor
	security config.SecurityConfig
	system   config.SystemConfig
	table    parser.TablePolicy
}

// New creates a Collector from the probe sections of cfg.
func New(executor CommandExecutor, cfg *config.Config) *Collector {
	return &Collector{
		executor: executor,
		security: cfg.Security,
		system:   cfg.System,
		table:    cfg.Table,
	}
}

// SecurityMetrics runs the security agent's metrics command and returns the
// active decision counters, largest first.
func (c *Collector) SecurityMetrics(ctx context.Context) ([]models.SecurityDecision, error) {
	result := c.executor.Execute(context.WithoutCancel(ctx), c.security.Command, c.security.Container)
	if result.Failed {
		return nil, &ProbeError{Probe: ProbeSecurity, Command: c.security.Command, Message: result.Message}
	}

	decisions, report := parser.ParseDecisionsReport(result.Output, c.table)

	log.Debug().
		Int("rows", report.Rows).
		Int("kept", report.Kept).
		Int("zero_count", report.ZeroCount).
		Int("malformed", report.Malformed).
		Msg("Parsed security decisions")

	return decisions, nil
}

type probe struct {
	name    string
	command string
	result  models.CommandResult
}

// SystemMetrics runs the uptime, memory and disk probes concurrently and
// waits for all of them. Any failed probe fails the whole call; no partial
// snapshot is returned.
func (c *Collector) SystemMetrics(ctx context.Context) (*models.SystemSnapshot, error) {
	// Detached so a disconnecting client does not kill in-flight probes.
	probeCtx := context.WithoutCancel(ctx)

	probes := []*probe{
		{name: ProbeUptime, command: c.system.UptimeCommand},
		{name: ProbeMemory, command: c.system.MemoryCommand},
		{name: ProbeDisk, command: c.system.DiskCommand},
	}

	var wg conc.WaitGroup
	for _, p := range probes {
		wg.Go(func() {
			p.result = c.executor.Execute(probeCtx, p.command, "")
		})
	}
	if recovered := wg.WaitAndRecover(); recovered != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbePanicked, recovered.Value)
	}

	var errs []error
	for _, p := range probes {
		if p.result.Failed {
			errs = append(errs, &ProbeError{Probe: p.name, Command: p.command, Message: p.result.Message})
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	snapshot := parser.ParseSystemMetrics(probes[0].result.Output, probes[1].result.Output, probes[2].result.Output)
	return &snapshot, nil
}
