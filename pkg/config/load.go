package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"secdash/pkg/log"
)

// Environment variables read by Load.
const (
	EnvHost           = "HOST"
	EnvPort           = "PORT"
	EnvCORSOrigins    = "CORS_ORIGINS"
	EnvStaticDir      = "SECDASH_STATIC_DIR"
	EnvContainer      = "SECDASH_CONTAINER"
	EnvExecMode       = "SECDASH_EXEC_MODE"
	EnvCommandTimeout = "SECDASH_COMMAND_TIMEOUT"
)

// Load builds the configuration: defaults, then the YAML file at path (if
// path is not empty), then variables from envFile (a missing file is
// ignored), then the process environment. The result is validated.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = Parse(data); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		log.Debug().Str("path", path).Msg("Loaded config file")
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load env file %s: %w", envFile, err)
			}
			log.Debug().Str("env_file", envFile).Msg("Env file not found, skipping")
		}
	}

	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides cfg with the environment variables found by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvHost); ok && v != "" {
		cfg.Server.Host = v
	}

	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvPort, v)
		}
		cfg.Server.Port = port
	}

	if v, ok := lookup(EnvCORSOrigins); ok && v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}

	if v, ok := lookup(EnvStaticDir); ok && v != "" {
		cfg.Server.StaticDir = v
	}

	if v, ok := lookup(EnvContainer); ok && v != "" {
		cfg.Security.Container = v
	}

	if v, ok := lookup(EnvExecMode); ok && v != "" {
		cfg.Executor.Mode = strings.ToLower(strings.TrimSpace(v))
	}

	if v, ok := lookup(EnvCommandTimeout); ok && v != "" {
		timeout, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvCommandTimeout, v)
		}
		cfg.Executor.Timeout = timeout
	}

	return nil
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
