package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Recreate the table and load the input file, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.load(ctx, cmd)
		},
	}
}

func (a *app) load(ctx context.Context, cmd *cobra.Command) error {
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())

	store, err := openStore(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	p, cleanup, err := newIngestPipeline(a.cfg, store, a.logger, metrics)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := p.Run(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "rows read: %d, loaded: %d, skipped: %d, anomalies: %d\n",
		report.RowsRead, report.Loaded, report.Skipped, report.Anomalies)
	return err
}
