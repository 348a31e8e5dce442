package config

import "errors"

var (
	// ErrInvalidPort is returned when the listen port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid listen port")

	// ErrInvalidTimeout is returned for a non-positive timeout.
	ErrInvalidTimeout = errors.New("timeout must be positive")

	// ErrInvalidMode is returned for an unknown executor mode.
	ErrInvalidMode = errors.New("executor mode must be cli or api")

	// ErrMissingCommand is returned when a probe command is empty.
	ErrMissingCommand = errors.New("probe command must not be empty")

	// ErrInvalidEnv is returned when an environment override cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment value")
)
