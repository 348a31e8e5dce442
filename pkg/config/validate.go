package config

import (
	"fmt"
	"strings"
)

const maxPort = 65535

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout: %w", ErrInvalidTimeout)
	}

	if c.Executor.Timeout <= 0 {
		return fmt.Errorf("executor.timeout: %w", ErrInvalidTimeout)
	}
	switch c.Executor.Mode {
	case ExecModeCLI, ExecModeAPI:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Executor.Mode)
	}

	commands := map[string]string{
		"security.command":      c.Security.Command,
		"system.uptime_command": c.System.UptimeCommand,
		"system.memory_command": c.System.MemoryCommand,
		"system.disk_command":   c.System.DiskCommand,
	}
	for name, command := range commands {
		if strings.TrimSpace(command) == "" {
			return fmt.Errorf("%s: %w", name, ErrMissingCommand)
		}
	}

	if err := c.Table.Validate(); err != nil {
		return fmt.Errorf("table: %w", err)
	}

	return nil
}
