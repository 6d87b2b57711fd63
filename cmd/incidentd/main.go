package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/incident-address-pipeline/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/incident-address-pipeline/internal/adapter/kafka"
	"github.com/couchcryptid/incident-address-pipeline/internal/adapter/rest"
	"github.com/couchcryptid/incident-address-pipeline/internal/config"
	"github.com/couchcryptid/incident-address-pipeline/internal/domain"
	"github.com/couchcryptid/incident-address-pipeline/internal/observability"
	"github.com/couchcryptid/incident-address-pipeline/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	addresses := rest.NewAddressClient(cfg.AddressServiceURL, cfg.ServiceTimeout, metrics, logger)
	incidents := rest.NewIncidentClient(cfg.IncidentServiceURL, cfg.ServiceTimeout, metrics, logger)

	// Geography lookups are cached unless GEOGRAPHY_CACHE_SIZE is 0.
	var geography domain.GeographyService = rest.NewGeographyClient(cfg.GeographyServiceURL, cfg.ServiceTimeout, metrics, logger)
	if cfg.GeographyCacheSize > 0 {
		cached, err := rest.NewCachedGeography(geography, cfg.GeographyCacheSize, metrics)
		if err != nil {
			logger.Error("failed to create geography cache", "error", err)
			os.Exit(1)
		}
		geography = cached
		logger.Info("geography cache enabled", "cache_size", cfg.GeographyCacheSize)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A failed load is retried lazily on the first request that needs it.
	catalog := pipeline.NewCatalog(geography, metrics, logger)
	if err := catalog.Load(ctx); err != nil {
		logger.Warn("geography catalog not loaded at startup", "error", err)
	}

	var opts []pipeline.CoordinatorOption
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		opts = append(opts, pipeline.WithPublisher(publisher))
		logger.Info("lifecycle events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("lifecycle events disabled")
	}

	resolver := pipeline.NewResolver(addresses, catalog, metrics, logger)
	fetcher := pipeline.NewFetcher(addresses, geography, catalog, metrics, logger)
	enricher := pipeline.NewEnricher(fetcher, cfg.EnrichChunkSize, metrics, logger)
	coordinator := pipeline.NewCoordinator(resolver, incidents, catalog, metrics, logger, opts...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Creator:   coordinator,
		Incidents: incidents,
		Enricher:  enricher,
		Addresses: fetcher,
		Ready:     catalog,
	}, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
