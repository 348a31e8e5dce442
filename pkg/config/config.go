// Package config holds the process configuration. It is loaded once at
// startup and passed explicitly to the components that need it.
package config

import (
	"time"

	"secdash/pkg/parser"
)

// Container execution modes.
const (
	ExecModeCLI = "cli"
	ExecModeAPI = "api"
)

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 3456
	defaultStaticDir       = "dist"
	defaultShutdownTimeout = 10 * time.Second
	defaultCommandTimeout  = 10 * time.Second
	defaultContainer       = "crowdsec"
	defaultSecurityCommand = "cscli metrics"
	defaultUptimeCommand   = "uptime"
	defaultMemoryCommand   = "free -h"
	defaultDiskCommand     = "df -h /"
)

// Config is the complete process configuration.
type Config struct {
	Server   ServerConfig       `yaml:"server"`
	Executor ExecutorConfig     `yaml:"executor"`
	Security SecurityConfig     `yaml:"security"`
	System   SystemConfig       `yaml:"system"`
	Table    parser.TablePolicy `yaml:"table"`
	Log      LogConfig          `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	StaticDir       string        `yaml:"static_dir"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ExecutorConfig configures how probe commands are run.
type ExecutorConfig struct {
	Mode         string        `yaml:"mode"`
	Timeout      time.Duration `yaml:"timeout"`
	Shell        string        `yaml:"shell"`
	DockerBinary string        `yaml:"docker_binary"`
}

// SecurityConfig names the security agent container and its metrics command.
type SecurityConfig struct {
	Container string `yaml:"container"`
	Command   string `yaml:"command"`
}

// SystemConfig holds the host probe commands.
type SystemConfig struct {
	UptimeCommand string `yaml:"uptime_command"`
	MemoryCommand string `yaml:"memory_command"`
	DiskCommand   string `yaml:"disk_command"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Debug bool `yaml:"debug"`
	JSON  bool `yaml:"json"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            defaultHost,
			Port:            defaultPort,
			CORSOrigins:     []string{"*"},
			StaticDir:       defaultStaticDir,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Executor: ExecutorConfig{
			Mode:    ExecModeCLI,
			Timeout: defaultCommandTimeout,
		},
		Security: SecurityConfig{
			Container: defaultContainer,
			Command:   defaultSecurityCommand,
		},
		System: SystemConfig{
			UptimeCommand: defaultUptimeCommand,
			MemoryCommand: defaultMemoryCommand,
			DiskCommand:   defaultDiskCommand,
		},
		Table: parser.DefaultTablePolicy(),
	}
}
