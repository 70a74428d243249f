package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
)

// Extractor yields raw rows in input order and io.EOF when exhausted.
type Extractor interface {
	Next(ctx context.Context) (domain.RawRow, error)
	Line() int
}

// Transformer converts a raw row into a record, returning the field-level
// anomalies it recovered from.
type Transformer interface {
	Transform(ctx context.Context, row domain.RawRow, line int) (domain.Record, []domain.Anomaly, error)
}

// Loader writes one record to its destination.
type Loader interface {
	Load(ctx context.Context, rec domain.Record) error
}

// Report summarizes one ingestion run.
type Report struct {
	RowsRead   int
	Loaded     int
	Skipped    int
	Anomalies  int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the wall time of the run.
func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Pipeline loads every row of the input, one at a time, in file order.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loader      Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, t Transformer, l Loader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once a run has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("initial load has not completed")
	}
	return nil
}

// Run reads the input until EOF. Rows missing a required field and lines that
// cannot be split are skipped; a loader failure stops the run and is returned
// along with the counts so far. Records loaded before a failure stay stored.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	report := Report{StartedAt: clock.Now()}
	p.logger.Info("load started")
	p.metrics.LoadRunning.Set(1)
	defer p.metrics.LoadRunning.Set(0)

	finish := func(err error) (Report, error) {
		report.FinishedAt = clock.Now()
		p.metrics.LoadDuration.Observe(report.Duration().Seconds())
		return report, err
	}

	for {
		row, err := p.extractor.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, csvfile.ErrMalformedRow) {
			report.Skipped++
			p.metrics.RowsSkipped.WithLabelValues("malformed_row").Inc()
			p.logger.Warn("unreadable row, skipping", "line", p.extractor.Line(), "error", err)
			continue
		}
		if err != nil {
			return finish(fmt.Errorf("read row: %w", err))
		}

		report.RowsRead++
		p.metrics.RowsRead.Inc()
		line := p.extractor.Line()

		rec, anomalies, err := p.transformer.Transform(ctx, row, line)
		report.Anomalies += len(anomalies)
		if err != nil {
			if !errors.Is(err, domain.ErrMissingRequiredField) {
				return finish(fmt.Errorf("transform line %d: %w", line, err))
			}
			report.Skipped++
			p.metrics.RowsSkipped.WithLabelValues("missing_required_field").Inc()
			p.logger.Warn("row rejected, skipping", "line", line, "row", []string(row), "error", err)
			continue
		}

		if err := p.loader.Load(ctx, rec); err != nil {
			p.logger.Error("load record failed", "line", line, "city", rec.City, "error", err)
			return finish(fmt.Errorf("load line %d: %w", line, err))
		}
		report.Loaded++
		p.metrics.RecordsLoaded.Inc()
	}

	out, _ := finish(nil)
	p.ready.Store(true)
	p.logger.Info("load finished",
		"rows_read", out.RowsRead,
		"loaded", out.Loaded,
		"skipped", out.Skipped,
		"anomalies", out.Anomalies,
		"duration", out.Duration(),
	)
	return out, nil
}

// Tee fans each record out to several loaders in order, stopping at the
// first error.
func Tee(loaders ...Loader) Loader {
	return teeLoader(loaders)
}

type teeLoader []Loader

func (t teeLoader) Load(ctx context.Context, rec domain.Record) error {
	for _, l := range t {
		if err := l.Load(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
