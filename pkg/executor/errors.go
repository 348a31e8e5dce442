package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCommand is returned when there is nothing to run.
	ErrEmptyCommand = errors.New("empty command")

	// ErrTimeout is returned when a command does not finish within the executor timeout.
	ErrTimeout = errors.New("command timed out")

	// ErrNonZeroExit is returned when a command inside a container exits with a non-zero status.
	ErrNonZeroExit = errors.New("non-zero exit status")

	// ErrNoContainerBackend is returned when a container target is given but no container backend is configured.
	ErrNoContainerBackend = errors.New("no container backend configured")

	// ErrRunnerPanic is returned when a runner panics instead of returning.
	ErrRunnerPanic = errors.New("runner panicked")

	// ErrUnknownMode is returned for an unsupported container execution mode.
	ErrUnknownMode = errors.New("unknown container execution mode")
)

// CommandError represents a failed command together with its stderr output.
type CommandError struct {
	Command  string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed: %v\nstderr: %s", e.Command, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
