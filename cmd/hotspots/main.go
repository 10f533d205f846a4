package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/waste-hotspot-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/waste-hotspot-service/internal/adapter/kafka"
	"github.com/couchcryptid/waste-hotspot-service/internal/adapter/mapbox"
	"github.com/couchcryptid/waste-hotspot-service/internal/adapter/upstream"
	"github.com/couchcryptid/waste-hotspot-service/internal/adapter/ws"
	"github.com/couchcryptid/waste-hotspot-service/internal/config"
	"github.com/couchcryptid/waste-hotspot-service/internal/dashboard"
	"github.com/couchcryptid/waste-hotspot-service/internal/domain"
	"github.com/couchcryptid/waste-hotspot-service/internal/geo"
	"github.com/couchcryptid/waste-hotspot-service/internal/observability"
	"github.com/couchcryptid/waste-hotspot-service/internal/render"
	"github.com/couchcryptid/waste-hotspot-service/internal/selection"
	"github.com/couchcryptid/waste-hotspot-service/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	client := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout, logger, metrics)
	source := upstream.NewBreakerSource(client, logger, metrics)

	static := geo.Bangalore()
	st := store.New(source, geocoder, cfg.MapboxRegion, static, logger, metrics)
	enricher := store.NewEnricher(source, st, cfg.UpstreamTimeout, logger, metrics)
	coord := selection.New(logger, metrics)
	engine := render.NewTileEngine(cfg.MapTileURL, cfg.MapTileProbe, cfg.UpstreamTimeout)
	renderer := render.NewMapRenderer(engine, coord, logger, metrics)

	hub := ws.NewHub(logger, metrics)
	opts := dashboard.Options{TableRows: cfg.TableRows, Broadcaster: hub}

	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger, metrics)
		opts.Publisher = publisher
		logger.Info("kafka event publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	svc := dashboard.New(st, enricher, coord, renderer, geo.NewResolver(static), logger, metrics, opts)

	live := ws.Handler(hub, func() ws.Message {
		return ws.Message{Type: ws.MessageTypeView, Data: svc.View(context.Background())}
	})
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, live, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Initial load. Readiness flips once it settles, live or sample.
	go func() {
		view, err := svc.Load(ctx, cfg.DefaultFestival)
		if err != nil {
			logger.Error("initial load failed", "festival", cfg.DefaultFestival, "error", err)
			return
		}
		logger.Info("initial load settled",
			"festival", view.Festival,
			"source", view.Source,
			"areas", view.Breakdown.Areas,
		)
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	enricher.Wait()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
