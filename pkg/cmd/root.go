// Package cmd wires the secdash command line.
package cmd

import (
	"github.com/spf13/cobra"

	"secdash/pkg/collector"
	"secdash/pkg/config"
	"secdash/pkg/executor"
	"secdash/pkg/log"
)

const (
	defaultEnvFile = ".env"
	defaultURL     = "http://localhost:3456"
)

// commandExecutor is what the collector needs from an executor, plus cleanup.
type commandExecutor interface {
	collector.CommandExecutor
	Close() error
}

// app carries state shared by every subcommand.
type app struct {
	version    string
	configPath string
	envFile    string
	debug      bool
	jsonLogs   bool

	newExecutor func(cfg config.ExecutorConfig) (commandExecutor, error)
}

// NewRootCommand builds the secdash command tree.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(&app{
		version: version,
		newExecutor: func(cfg config.ExecutorConfig) (commandExecutor, error) {
			return executor.NewFromConfig(cfg)
		},
	})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "secdash",
		Short:        "CrowdSec decision and host metrics dashboard backend",
		Version:      a.version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			log.Configure(cmd.ErrOrStderr(), a.debug, a.jsonLogs)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVar(&a.envFile, "env-file", defaultEnvFile, "dotenv file loaded before reading the environment")
	flags.BoolVar(&a.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&a.jsonLogs, "json-logs", false, "write logs as JSON")

	root.AddCommand(
		newServeCommand(a),
		newMetricsCommand(a),
		newHealthcheckCommand(),
		newWatchCommand(),
		newBenchCommand(),
	)

	return root
}

// loadConfig reads the configuration and reapplies logging settings from it.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return nil, err
	}

	cfg.Log.Debug = cfg.Log.Debug || a.debug
	cfg.Log.JSON = cfg.Log.JSON || a.jsonLogs
	log.Configure(cmd.ErrOrStderr(), cfg.Log.Debug, cfg.Log.JSON)

	return cfg, nil
}

// newCollector builds the executor and collector for cfg. The returned
// executor must be closed by the caller.
func (a *app) newCollector(cfg *config.Config) (*collector.Collector, commandExecutor, error) {
	exec, err := a.newExecutor(cfg.Executor)
	if err != nil {
		return nil, nil, err
	}
	return collector.New(exec, cfg), exec, nil
}
