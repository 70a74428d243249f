package main

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	kafkaadapter "github.com/couchcryptid/air-quality-etl/internal/adapter/kafka"
	"github.com/couchcryptid/air-quality-etl/internal/adapter/sqlstore"
	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/couchcryptid/air-quality-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

func inputOptions(cfg *config.Config) csvfile.Options {
	return csvfile.Options{
		Delimiter: cfg.InputDelimiter,
		Quoting:   cfg.InputQuoting,
		HasHeader: cfg.InputHasHeader,
	}
}

// openStore connects to the configured database and recreates the table.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sqlstore.Store, error) {
	store, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if err := store.Recreate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	logger.Info("database ready", "driver", cfg.DBDriver)
	return store, nil
}

// newIngestPipeline wires the input file into store, publishing each record
// to Kafka as well when enabled. The returned func releases the input and
// the publisher.
func newIngestPipeline(cfg *config.Config, store *sqlstore.Store, logger *slog.Logger, metrics *observability.Metrics) (*pipeline.Pipeline, func(), error) {
	reader, err := csvfile.Open(cfg.InputPath, inputOptions(cfg))
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{reader.Close}

	var loader pipeline.Loader = store
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger, metrics, clockwork.NewRealClock())
		closers = append(closers, writer.Close)
		loader = pipeline.Tee(store, writer)
		metrics.PublishEnabled.Set(1)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Error("close error", "error", err)
			}
		}
	}

	p := pipeline.New(reader, pipeline.NewTransformer(logger, metrics), loader, logger, metrics)
	return p, cleanup, nil
}
