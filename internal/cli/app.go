package cli

import (
	"context"
	"fmt"

	"infinite-experiment/flightlog/internal/common"
	"infinite-experiment/flightlog/internal/config"
	"infinite-experiment/flightlog/internal/db"
	"infinite-experiment/flightlog/internal/geometry"
	"infinite-experiment/flightlog/internal/logging"
	"infinite-experiment/flightlog/internal/metrics"
	"infinite-experiment/flightlog/internal/providers"
	"infinite-experiment/flightlog/internal/services"
	"infinite-experiment/flightlog/internal/workers"
)

// app holds everything one command run needs, built from the config.
type app struct {
	cfg       *config.Config
	store     *db.Store
	metrics   *metrics.MetricsRegistry
	cache     common.CacheInterface
	aero      providers.FlightLookupProvider
	historian providers.RecentFlightsProvider
	registry  services.ResolverWithCreate
	ingest    *services.IngestionService
	routes    *services.RouteService
	imports   *services.ImportService
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := db.Open(cfg.StorePath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &app{cfg: cfg, store: store, metrics: metrics.NewMetricsRegistry()}

	if cfg.Cache.RedisAddr != "" {
		redisCache, err := common.NewRedisCacheService(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		a.cache = redisCache
	} else {
		a.cache = common.NewCacheService(cfg.Cache.TTL, 2*cfg.Cache.TTL)
	}

	if cfg.AeroAPI.APIKey != "" {
		a.aero = providers.NewAeroAPIProvider(providers.AeroAPIOptions{
			BaseURL:     cfg.AeroAPI.BaseURL,
			APIKey:      cfg.AeroAPI.APIKey,
			Timeout:     cfg.AeroAPI.Timeout,
			MinInterval: cfg.AeroAPI.MinInterval,
			Cache:       a.cache,
			CacheTTL:    cfg.Cache.TTL,
			Metrics:     a.metrics,
		})
	}
	if cfg.Historian.APIKey != "" {
		a.historian = providers.NewHistorianProvider(cfg.Historian.BaseURL, cfg.Historian.APIKey, cfg.Historian.Timeout, a.metrics)
	}

	var enrich services.AirportSeedEnricher
	if a.aero != nil {
		enrich = providers.AirportSeedFiller(a.aero)
	}
	a.registry = services.NewCreatingCodeRegistry(store.DB(), a.metrics, enrich)
	opts := []services.IngestOption{services.WithIngestMetrics(a.metrics)}
	if cfg.CreateMissing {
		opts = append(opts, services.WithEntityCreation(a.registry))
	}
	a.ingest = services.NewIngestionService(store, a.registry, opts...)
	a.routes = services.NewRouteService(store, geometry.GreatCircleOptions{
		StepKm:            cfg.Routes.StepKm,
		PolarThresholdDeg: cfg.Routes.PolarThresholdDeg,
		PolarDensity:      cfg.Routes.PolarDensity,
	}, a.metrics)
	a.imports = services.NewImportService(store, a.ingest, a.routes, a.registry, a.aero, a.historian,
		workers.NewLookupPool(cfg.Lookup.Concurrency),
		services.ImportOptions{
			ArchiveImported: cfg.ArchiveImported,
			EnrichBarcodes:  cfg.EnrichBarcodes,
			Lookahead:       cfg.Lookahead,
		},
	)

	logging.Debug("Flight log opened",
		"store", cfg.StorePath,
		"aeroapi", a.aero != nil,
		"historian", a.historian != nil,
		"redis", cfg.Cache.RedisAddr != "",
	)
	return a, nil
}

func (a *app) Close() error {
	var firstErr error
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			firstErr = err
		}
	}
	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close store: %w", err)
	}
	return firstErr
}
