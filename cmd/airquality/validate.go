package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/couchcryptid/air-quality-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Dry-run the input through normalization and report anomalies",
		Long: `Reads the input file without touching the database and prints what a load
would do: rows read, rows that would be skipped, and recovered field anomalies
grouped by field and kind. Exits non-zero when any row would be skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := csvfile.Open(a.cfg.InputPath, inputOptions(a.cfg))
			if err != nil {
				return err
			}
			defer func() { _ = reader.Close() }()

			fmt.Fprintf(cmd.OutOrStdout(), "Validating %s\n\n", a.cfg.InputPath)
			return validate(cmd.Context(), reader, cmd.OutOrStdout(), a.logger)
		},
	}
}

type anomalyKey struct {
	field string
	kind  domain.AnomalyKind
}

// tally wraps a Transformer and counts the anomalies it reports.
type tally struct {
	pipeline.Transformer
	counts map[anomalyKey]int
}

func (t *tally) Transform(ctx context.Context, row domain.RawRow, line int) (domain.Record, []domain.Anomaly, error) {
	rec, anomalies, err := t.Transformer.Transform(ctx, row, line)
	for _, an := range anomalies {
		t.counts[anomalyKey{an.Field, an.Kind}]++
	}
	return rec, anomalies, err
}

type discardLoader struct{}

func (discardLoader) Load(context.Context, domain.Record) error { return nil }

// validate runs ext through normalization only and writes a summary to out.
func validate(ctx context.Context, ext pipeline.Extractor, out io.Writer, logger *slog.Logger) error {
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())
	t := &tally{Transformer: pipeline.NewTransformer(logger, metrics), counts: map[anomalyKey]int{}}

	report, err := pipeline.New(ext, t, discardLoader{}, logger, metrics).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "  %-42s %d\n", "rows read", report.RowsRead)
	fmt.Fprintf(out, "  %-42s %d\n", "rows loadable", report.Loaded)
	fmt.Fprintf(out, "  %-42s %d\n", "rows skipped", report.Skipped)
	fmt.Fprintf(out, "  %-42s %d\n", "field anomalies", report.Anomalies)

	if len(t.counts) > 0 {
		fmt.Fprintln(out, "\n--- anomalies ---")
		keys := slices.SortedFunc(maps.Keys(t.counts), func(a, b anomalyKey) int {
			return cmp.Or(cmp.Compare(a.field, b.field), cmp.Compare(a.kind, b.kind))
		})
		for _, k := range keys {
			fmt.Fprintf(out, "  %-42s %d\n", k.field+" "+string(k.kind), t.counts[k])
		}
	}

	if report.Skipped > 0 {
		fmt.Fprintln(out, "\nValidation FAILED.")
		return fmt.Errorf("%d rows would be skipped", report.Skipped)
	}
	fmt.Fprintln(out, "\nAll rows loadable.")
	return nil
}
