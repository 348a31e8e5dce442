package cmd

import (
	"github.com/spf13/cobra"

	"secdash/pkg/config"
	"secdash/pkg/log"
	"secdash/pkg/server"
)

type serveFlags struct {
	host      string
	port      int
	staticDir string
	container string
	execMode  string
}

func newServeCommand(a *app) *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the metrics API and dashboard bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}

			coll, exec, err := a.newCollector(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := exec.Close(); err != nil {
					log.Warn().Err(err).Msg("Failed to close executor")
				}
			}()

			return server.New(cfg.Server, a.version, coll).Start()
		},
	}

	cmd.Flags().StringVar(&flags.host, "host", "", "listen host (overrides HOST)")
	cmd.Flags().IntVarP(&flags.port, "port", "p", 0, "listen port (overrides PORT)")
	cmd.Flags().StringVar(&flags.staticDir, "static-dir", "", "dashboard bundle directory")
	cmd.Flags().StringVar(&flags.container, "container", "", "security agent container name")
	cmd.Flags().StringVar(&flags.execMode, "exec-mode", "", "container exec mode: cli or api")

	return cmd
}

// apply copies explicitly set flags over cfg and revalidates it.
func (f serveFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("host") {
		cfg.Server.Host = f.host
	}
	if changed("port") {
		cfg.Server.Port = f.port
	}
	if changed("static-dir") {
		cfg.Server.StaticDir = f.staticDir
	}
	if changed("container") {
		cfg.Security.Container = f.container
	}
	if changed("exec-mode") {
		cfg.Executor.Mode = f.execMode
	}

	return cfg.Validate()
}
