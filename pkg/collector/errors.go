package collector

import (
	"errors"
	"fmt"
)

var (
	// ErrProbeFailed is wrapped by every ProbeError.
	ErrProbeFailed = errors.New("probe failed")

	// ErrProbePanicked is returned when a probe goroutine panics.
	ErrProbePanicked = errors.New("probe panicked")
)

// ProbeError reports which probe command failed and why.
type ProbeError struct {
	Probe   string
	Command string
	Message string
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("%s probe (%s): %s", e.Probe, e.Command, e.Message)
}

func (e *ProbeError) Unwrap() error {
	return ErrProbeFailed
}
