package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/ontap-client/internal/api"
	"github.com/Sternrassler/ontap-client/internal/config"
	"github.com/Sternrassler/ontap-client/pkg/cache"
	"github.com/Sternrassler/ontap-client/pkg/client"
	"github.com/Sternrassler/ontap-client/pkg/logging"
	"github.com/Sternrassler/ontap-client/pkg/service"
	"github.com/rs/zerolog"
)

// app holds the wired dependencies of one command invocation.
type app struct {
	cfg     config.Config
	cache   *cache.Tiered
	checks  map[string]api.PingFunc
	closers []func() error
	logger  zerolog.Logger

	svc *service.Service
}

// openApp builds the tiered cache described by cfg. The catalog client and
// service are built by withService, since some commands never need them.
func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{
		cfg:    cfg,
		checks: make(map[string]api.PingFunc),
		logger: logging.NewLogger("ontap"),
	}

	tiers := []cache.Store{cache.NewExpiringMemoryStore(cfg.Cache.TTL)}

	if cfg.Cache.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, redisClient.Close)

		store := cache.NewRedisStore(redisClient, cfg.Cache.TTL)
		tiers = append(tiers, store)
		a.checks[store.Name()] = store.Ping
		a.logger.Info().Str("tier", store.Name()).Msg("Connected to Redis")
	}

	if cfg.Cache.SQLitePath != "" {
		store, err := cache.OpenSQLiteStore(cfg.Cache.SQLitePath, cfg.Cache.TTL)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.closers = append(a.closers, store.Close)

		tiers = append(tiers, store)
		a.checks[store.Name()] = store.Ping
		a.logger.Info().Str("tier", store.Name()).Str("path", cfg.Cache.SQLitePath).Msg("Opened SQLite cache")
	}

	a.cache = cache.NewTiered(tiers, cache.TieredOptions{
		Backfill: cfg.Cache.Backfill,
		Logger:   logging.NewLogger("cache"),
	})

	return a, nil
}

// withService builds the catalog client and service over the cache.
func (a *app) withService() (*service.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}

	c, err := client.New(a.cfg.ClientConfig(a.cache))
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog client: %w", err)
	}

	a.svc = service.New(c, service.Options{Fanout: a.cfg.FanoutConfig()})
	return a.svc, nil
}

// Close releases cache connections in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
