package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

const (
	defaultShell = "/bin/sh"
	// waitDelay bounds how long a killed command may keep its output pipes open
	// through orphaned children.
	waitDelay = 500 * time.Millisecond
)

// LocalRunner runs commands through the host shell.
type LocalRunner struct {
	Shell string
}

// Run executes command with `<shell> -c`.
func (r LocalRunner) Run(ctx context.Context, command string) (string, error) {
	shell := r.Shell
	if shell == "" {
		shell = defaultShell
	}
	return runProcess(ctx, shell, "-c", command)
}

// runProcess runs name with args and returns stdout. Non-zero exits and
// spawn failures are returned as *CommandError.
func runProcess(ctx context.Context, name string, args ...string) (string, error) {
	//nolint:gosec // commands come from operator configuration, not from requests
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &CommandError{
			Command:  strings.Join(append([]string{name}, args...), " "),
			Stderr:   strings.TrimSpace(stderr.String()),
			ExitCode: exitCode(err),
			Err:      err,
		}
	}

	return stdout.String(), nil
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
