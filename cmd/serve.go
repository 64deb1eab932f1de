package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	cfgPkg "github.com/xhad/seogap/pkg/config"
	"github.com/xhad/seogap/server"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, func(c *cfgPkg.Config) {
				if cmd.Flags().Changed("port") {
					c.Server.Port = port
				}
			})
			if err != nil {
				return err
			}

			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := buildPipeline(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer p.Close()

			srv, err := server.New(server.Config{
				Port:           cfg.Server.Port,
				AllowedOrigin:  cfg.Server.AllowedOrigin,
				RequestTimeout: cfg.Server.RequestTimeout,
				RateLimit:      cfg.Server.RateLimit,
				RateBurst:      cfg.Server.RateBurst,
				Logger:         log.Named("server"),
			}, p.analyzer)
			if err != nil {
				return err
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides PORT)")
	return cmd
}
