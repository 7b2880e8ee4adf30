package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/openwx-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/openwx-service/internal/adapter/kafka"
	"github.com/couchcryptid/openwx-service/internal/adapter/noaa"
	"github.com/couchcryptid/openwx-service/internal/config"
	"github.com/couchcryptid/openwx-service/internal/fetch"
	"github.com/couchcryptid/openwx-service/internal/observability"
	"github.com/couchcryptid/openwx-service/internal/pipeline"
)

// alwaysReady is the readiness checker when the retrieval worker is off; the
// API has nothing to warm up.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := noaa.NewClient(cfg.FetchTimeout, metrics, logger)
	fetcher := fetch.New(client, cfg.Locator(), logger,
		fetch.WithStrictCatalog(cfg.CatalogStrict),
		fetch.WithLimits(cfg.MaxCatalogBytes, cfg.MaxRecordBytes),
	)
	logger.Info("gfs source configured",
		"base_url", cfg.GFSBaseURL, "product", cfg.GFSProduct, "strict_catalog", cfg.CatalogStrict)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ready sharedobs.ReadinessChecker = alwaysReady{}
	var reader *kafkaadapter.Reader
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(fetcher, logger)

		p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
		ready = p

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
		logger.Info("retrieval worker enabled",
			"source_topic", cfg.KafkaSourceTopic, "sink_topic", cfg.KafkaSinkTopic, "group_id", cfg.KafkaGroupID)
	} else {
		logger.Info("retrieval worker disabled")
	}

	// No array query backend ships with the service, so /api/forecast
	// answers 501 until one is wired against cfg.DatasetLocator().
	logger.Info("array query backend not configured", "dods_base_url", cfg.GFSDODSBaseURL)
	api := httpadapter.NewAPI(fetcher, nil, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, api, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
