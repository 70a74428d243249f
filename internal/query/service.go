package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
)

// Source executes a predicate against stored records.
type Source interface {
	Select(ctx context.Context, p Predicate) ([]domain.StoredRecord, error)
}

// Service answers filtered lookups.
type Service struct {
	source  Source
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService creates a lookup service over source.
func NewService(source Source, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{source: source, logger: logger, metrics: metrics}
}

// Lookup returns the records matching every filter in spec, in storage order.
// Source errors are returned wrapped but otherwise untouched.
func (s *Service) Lookup(ctx context.Context, spec domain.FilterSpec) ([]domain.StoredRecord, error) {
	start := time.Now()
	pred := Build(spec)

	records, err := s.source.Select(ctx, pred)
	s.metrics.QueryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.QueryRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("execute query: %w", err)
	}

	s.metrics.QueryRequests.WithLabelValues("success").Inc()
	s.logger.Debug("query executed", "filters", len(pred.Clauses), "rows", len(records))
	return records, nil
}

// Render joins the one-line rendering of each record with newlines.
func Render(records []domain.StoredRecord) string {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = r.String()
	}
	return strings.Join(lines, "\n")
}
