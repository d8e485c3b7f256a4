package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/comptes-dev/comptes/internal/logging"
	"github.com/comptes-dev/comptes/internal/stubserver"
)

const shutdownPeriod = 5 * time.Second

func newServeCommand(g *globalFlags) *cobra.Command {
	var addr, store, basePath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a development comptes backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("store") {
				cfg.Server.Store = store
			}
			if cmd.Flags().Changed("base-path") {
				cfg.Server.BasePath = basePath
			}

			level := cfg.Log.Level
			if !cmd.Flags().Changed("log-level") {
				level = "info"
			}
			logger := logging.NewJSON(level, cmd.ErrOrStderr())

			ctx := cmd.Context()
			st, closeStore, err := stubserver.OpenStore(ctx, cfg.Server, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			srv := stubserver.New(st, stubserver.Options{
				Addr:     cfg.Server.Addr,
				BasePath: cfg.Server.BasePath,
				Logger:   logger,
			})

			srvErrCh := make(chan error, 1)
			go func() {
				srvErrCh <- srv.Listen()
			}()
			logger.Info("serving comptes", "addr", cfg.Server.Addr, "base_path", cfg.Server.BasePath, "store", cfg.Server.Store)

			select {
			case <-ctx.Done():
				logger.Info("shutdown signal received")
			case err := <-srvErrCh:
				return err
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			logger.Info("server exited cleanly")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&store, "store", "", "store: memory, redis or postgres (overrides server.store)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "route prefix (overrides server.base_path)")

	return cmd
}
