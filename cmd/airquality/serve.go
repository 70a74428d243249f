package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/air-quality-etl/internal/adapter/http"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/couchcryptid/air-quality-etl/internal/query"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the input, then serve lookups over HTTP until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				a.cfg.HTTPAddr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, observability.NewMetrics())
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

// serve loads the input, then answers HTTP requests until ctx is done.
func (a *app) serve(ctx context.Context, metrics *observability.Metrics) error {
	cfg, logger := a.cfg, a.logger

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}()

	p, cleanup, err := newIngestPipeline(cfg, store, logger, metrics)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := query.NewService(store, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, svc, logger, metrics)

	// Start HTTP server. /readyz reports 503 until the load completes.
	srvErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	var runErr error
	if _, err := p.Run(ctx); err != nil && ctx.Err() == nil {
		runErr = fmt.Errorf("initial load: %w", err)
		logger.Error("initial load failed", "error", err)
	}

	if runErr == nil {
		select {
		case <-ctx.Done():
		case err := <-srvErr:
			runErr = fmt.Errorf("http server: %w", err)
			logger.Error("http server error", "error", err)
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}
