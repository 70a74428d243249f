package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
)

// RowNormalizer implements Transformer with domain.Normalize, logging and
// counting each recovered anomaly.
type RowNormalizer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a RowNormalizer.
func NewTransformer(logger *slog.Logger, metrics *observability.Metrics) *RowNormalizer {
	return &RowNormalizer{logger: logger, metrics: metrics}
}

func (t *RowNormalizer) Transform(_ context.Context, row domain.RawRow, line int) (domain.Record, []domain.Anomaly, error) {
	rec, anomalies, err := domain.Normalize(row)
	if err != nil {
		return domain.Record{}, nil, err
	}

	for _, a := range anomalies {
		t.metrics.FieldAnomalies.WithLabelValues(a.Field, string(a.Kind)).Inc()
		attrs := []any{"line", line, "field", a.Field, "kind", a.Kind, "row", []string(row)}
		if a.Raw != "" {
			attrs = append(attrs, "value", a.Raw)
		}
		if a.Err != nil {
			attrs = append(attrs, "error", a.Err)
		}
		t.logger.Warn("field anomaly", attrs...)
	}
	return rec, anomalies, nil
}
