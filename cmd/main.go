package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/predimarket/indexer/internal/adminserver"
	"github.com/predimarket/indexer/internal/backfill"
	"github.com/predimarket/indexer/internal/cache"
	"github.com/predimarket/indexer/internal/config"
	"github.com/predimarket/indexer/internal/httpclient"
	"github.com/predimarket/indexer/internal/orchestrator"
	"github.com/predimarket/indexer/internal/realtime"
	"github.com/predimarket/indexer/internal/store"
	batchsync "github.com/predimarket/indexer/internal/sync"
	"github.com/predimarket/indexer/internal/upstream"
	"github.com/predimarket/indexer/internal/upstream/auth"
	"github.com/predimarket/indexer/internal/upstream/catalog"
	"github.com/predimarket/indexer/internal/upstream/clob"
	"github.com/predimarket/indexer/internal/upstream/pricehistory"
	"github.com/predimarket/indexer/internal/upstream/trades"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.Info("config loaded")

	st, err := store.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	logger.Info("store ready")

	httpClient := httpclient.New(httpclient.Options{Timeout: cfg.Upstream.Timeout, Proxy: cfg.Upstream.Proxy}, logger)
	signer := auth.New(auth.Credentials{
		Address:    cfg.Credentials.Address,
		APIKey:     cfg.Credentials.APIKey,
		Secret:     cfg.Credentials.Secret,
		Passphrase: cfg.Credentials.Passphrase,
	})

	catalogClient := catalog.New(upstream.NewRequester(httpClient, cfg.Upstream.CatalogBaseURL, signer, cfg.Upstream.Timeout))
	clobClient := clob.New(upstream.NewRequester(httpClient, cfg.Upstream.ClobBaseURL, signer, cfg.Upstream.Timeout))
	tradesClient := trades.New(upstream.NewRequester(httpClient, cfg.Upstream.DataBaseURL, nil, cfg.Upstream.Timeout))
	priceHistoryClient := pricehistory.New(upstream.NewRequester(httpClient, cfg.Upstream.DataBaseURL, signer, cfg.Upstream.Timeout))

	var invalidator cache.Invalidator = cache.Noop{}
	if cfg.Cache.RedisURL != "" {
		redisInvalidator, err := cache.NewRedisInvalidator(cfg.Cache.RedisURL)
		if err != nil {
			logger.Fatalf("connect to redis: %v", err)
		}
		invalidator = redisInvalidator
	} else {
		logger.Info("cache_redis_url not set, cache invalidation is a no-op")
	}

	batchManager := batchsync.New(catalogClient, clobClient, tradesClient, st, invalidator, cfg.BatchSync, logger)
	realtimeManager := realtime.New(cfg.Upstream.WSURL, st, cfg.Realtime, logger)
	backfillManager := backfill.New(priceHistoryClient, st, logger)

	orch := orchestrator.New(batchManager, realtimeManager, backfillManager, st, cfg.Retention, cfg.BatchSync.EnableTradesSync, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := orch.Start(ctx); err != nil {
		logger.Fatalf("start orchestrator: %v", err)
	}
	logger.Info("orchestrator started")

	admin := adminserver.New(cfg.Admin.Port, cfg.Admin.Mode, orch, logger)
	admin.Start()
	if cfg.Admin.Port != 0 {
		logger.Infof("admin server listening on :%d", cfg.Admin.Port)
	}

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := admin.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Warn("admin server shutdown error")
	}
	orch.Stop()

	logger.Info("shutdown complete")
	os.Exit(0)
}
