package http

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/couchcryptid/air-quality-etl/internal/query"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Querier answers filtered record lookups.
type Querier interface {
	Lookup(ctx context.Context, spec domain.FilterSpec) ([]domain.StoredRecord, error)
}

// Server exposes the lookup endpoint plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	querier    Querier
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server with /query, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, querier Querier, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		querier: querier,
		logger:  logger,
		metrics: metrics,
	}

	mux.HandleFunc("GET /query", s.handleQuery)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleQuery renders matching records as text, one per line. Clients sending
// Accept: application/json get a JSON array instead.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	spec, err := domain.ParseFilterSpec(r.URL.Query())
	if err != nil {
		s.metrics.QueryRequests.WithLabelValues("invalid").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := s.querier.Lookup(r.Context(), spec)
	if err != nil {
		s.logger.Error("query failed", "query", r.URL.RawQuery, "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}

	if wantsJSON(r) {
		if records == nil {
			records = []domain.StoredRecord{}
		}
		sharedobs.WriteJSON(w, http.StatusOK, records)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	body := query.Render(records)
	if body != "" {
		body += "\n"
	}
	_, _ = w.Write([]byte(body))
}

func wantsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == "application/json" {
			return true
		}
	}
	return false
}
