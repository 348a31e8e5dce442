// Package executor runs probe commands on the host or inside a container and
// normalizes the outcome into a models.CommandResult.
//
// Failures never escape as Go errors: a timed out, missing or failing command
// becomes a failed result carrying a diagnostic message, so that one broken
// probe cannot abort an aggregation of several probes.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"secdash/pkg/config"
	"secdash/pkg/log"
	"secdash/pkg/models"
)

// Runner runs a single command and returns its raw stdout.
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// ContainerBackend provides Runners that execute inside a named container.
type ContainerBackend interface {
	ForContainer(name string) Runner
}

// Executor picks the local or containerized strategy for each command and
// enforces a per-invocation timeout.
type Executor struct {
	local      Runner
	containers ContainerBackend
	timeout    time.Duration
}

// New creates an Executor from explicit strategies.
func New(local Runner, containers ContainerBackend, timeout time.Duration) *Executor {
	return &Executor{
		local:      local,
		containers: containers,
		timeout:    timeout,
	}
}

// NewFromConfig builds an Executor with a local shell runner and the
// container backend selected by cfg.Mode.
func NewFromConfig(cfg config.ExecutorConfig) (*Executor, error) {
	var containers ContainerBackend

	switch cfg.Mode {
	case config.ExecModeCLI:
		containers = DockerCLI{Binary: cfg.DockerBinary}
	case config.ExecModeAPI:
		engine, err := NewDockerAPI()
		if err != nil {
			return nil, err
		}
		containers = engine
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}

	return New(LocalRunner{Shell: cfg.Shell}, containers, cfg.Timeout), nil
}

// Execute runs command, inside container when it is not empty. It never
// returns an error: failures are reported through the result.
func (e *Executor) Execute(ctx context.Context, command, container string) (result models.CommandResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = e.failure(command, container, start, fmt.Errorf("%w: %v", ErrRunnerPanic, r))
		}
	}()

	if strings.TrimSpace(command) == "" {
		return e.failure(command, container, start, ErrEmptyCommand)
	}

	runner, err := e.runnerFor(container)
	if err != nil {
		return e.failure(command, container, start, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	output, err := runner.Run(runCtx, command)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %w", ErrTimeout, e.timeout, err)
		}
		return e.failure(command, container, start, err)
	}

	log.Debug().
		Str("command", command).
		Str("container", container).
		Dur("duration", time.Since(start)).
		Msg("Command completed")

	return models.CommandResult{Output: strings.TrimSpace(output)}
}

func (e *Executor) runnerFor(container string) (Runner, error) {
	if container == "" {
		return e.local, nil
	}
	if e.containers == nil {
		return nil, ErrNoContainerBackend
	}
	return e.containers.ForContainer(container), nil
}

func (e *Executor) failure(command, container string, start time.Time, err error) models.CommandResult {
	log.Error().
		Err(err).
		Str("command", command).
		Str("container", container).
		Dur("duration", time.Since(start)).
		Msg("Command execution error")

	return models.CommandResult{Failed: true, Message: err.Error()}
}

// Close releases resources held by the container backend, if any.
func (e *Executor) Close() error {
	if closer, ok := e.containers.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
