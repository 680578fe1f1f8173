package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	edgeAuth "github.com/MrEthical07/edgeAuth"
	"github.com/MrEthical07/edgeAuth/internal/logging"
	"github.com/MrEthical07/edgeAuth/jwks"
	"github.com/MrEthical07/edgeAuth/keycache"
	"github.com/MrEthical07/edgeAuth/store/memory"
	redisstore "github.com/MrEthical07/edgeAuth/store/redis"
)

// runtime is every component built from a Config.
type runtime struct {
	cfg       edgeAuth.Config
	logger    *zap.Logger
	metrics   *edgeAuth.Metrics
	fetcher   *jwks.Fetcher
	cache     *keycache.Cache
	validator *edgeAuth.Validator
	close     func()
}

func loadRuntime(envFiles []string) (*runtime, error) {
	cfg, err := edgeAuth.LoadConfig(envFiles...)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Config{Env: cfg.Log.Env, Level: cfg.Log.Level, Service: "edgeauth"})
	if err != nil {
		return nil, err
	}
	return buildRuntime(cfg, logger)
}

func buildRuntime(cfg edgeAuth.Config, logger *zap.Logger) (*runtime, error) {
	closeFn := func() { _ = logger.Sync() }

	var store keycache.Store
	switch cfg.Cache.Driver {
	case edgeAuth.CacheDriverRedis:
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{cfg.Cache.RedisAddr},
			DB:    cfg.Cache.RedisDB,
		})
		rs := redisstore.NewStore(client, "")
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		rtt, err := rs.Ping(ctx)
		cancel()
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Cache.RedisAddr, err)
		}
		logger.Info("using redis key cache", zap.String("addr", cfg.Cache.RedisAddr), zap.Duration("rtt", rtt))
		store = rs
		closeFn = func() {
			_ = client.Close()
			_ = logger.Sync()
		}
	default:
		store = memory.New(memory.WithPropagationDelay(cfg.Cache.PropagationDelay))
		logger.Info("using in-memory key cache", zap.Duration("propagationDelay", cfg.Cache.PropagationDelay))
	}

	metrics := edgeAuth.NewMetrics(cfg.Metrics)
	fetcher := jwks.NewFetcher(
		jwks.WithHTTPClient(&http.Client{Timeout: cfg.Provider.HTTPTimeout}),
		jwks.WithLogger(logger.Named("jwks")),
	)
	cache, err := keycache.New(store, fetcher,
		keycache.WithKeyPrefix(cfg.Cache.KeyPrefix),
		keycache.WithKeyTTL(cfg.Cache.KeyTTL),
		keycache.WithLockTTL(cfg.Cache.LockTTL),
		keycache.WithLogger(logger.Named("keycache")),
		keycache.WithObserver(metrics),
	)
	if err != nil {
		closeFn()
		return nil, err
	}
	validator := edgeAuth.NewValidator(
		edgeAuth.WithLogger(logger.Named("validator")),
		edgeAuth.WithMetrics(metrics),
	)

	return &runtime{
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		fetcher:   fetcher,
		cache:     cache,
		validator: validator,
		close:     closeFn,
	}, nil
}
