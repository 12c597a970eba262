package main

import (
	"github.com/aretw0/coach/internal/cli"
	httpAdapter "github.com/aretw0/coach/pkg/adapters/http"
	"github.com/aretw0/coach/pkg/observability"
	"github.com/aretw0/coach/pkg/session"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Hosts many sessions behind a JSON API with server-sent events.
Sessions live in memory unless COACH_STORE=redis. Prometheus metrics are
exposed on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		logger := cli.NewLogger(cfg, debugFlag(cmd))
		metrics := observability.NewMetrics()

		engine, err := cli.NewEngine(cli.EngineOptions{
			Table:   cfg.Table,
			Logger:  logger,
			Metrics: metrics,
			Debug:   debugFlag(cmd),
		})
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		backend, err := cli.NewBackend(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer backend.Close()

		mgrOpts := []session.Option{session.WithLogger(logger)}
		if backend.Locker != nil {
			mgrOpts = append(mgrOpts, session.WithLocker(backend.Locker))
		}
		mgr := session.NewManager(engine, backend.Store, mgrOpts...)

		handler, err := httpAdapter.NewHandler(mgr, engine.Table(),
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMetrics(metrics.Handler()),
			httpAdapter.WithMaxInputSize(cfg.MaxInputSize),
			httpAdapter.WithTableName(engine.Name),
		)
		if err != nil {
			return err
		}

		logger.Info("serving response table", "table", engine.Name, "nodes", engine.Table().Len())
		return cli.Serve(ctx, addr, handler, logger, nil)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on (overrides COACH_ADDR)")
}
