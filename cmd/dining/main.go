package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/couchcryptid/dining-data-service/internal/adapter/cache"
	"github.com/couchcryptid/dining-data-service/internal/adapter/feed"
	httpadapter "github.com/couchcryptid/dining-data-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/dining-data-service/internal/adapter/kafka"
	"github.com/couchcryptid/dining-data-service/internal/catalog"
	"github.com/couchcryptid/dining-data-service/internal/config"
	"github.com/couchcryptid/dining-data-service/internal/observability"
	"github.com/couchcryptid/dining-data-service/internal/scheduler"
	"github.com/couchcryptid/dining-data-service/internal/staticdata"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	static, err := loadStaticData(cfg.StaticDataPath)
	if err != nil {
		logger.Error("failed to load static data", "path", cfg.StaticDataPath, "error", err)
		os.Exit(1)
	}
	logger.Info("static data loaded", "menus", len(static.MenuSlugs()), "external_locations", len(static.ExternalRecords()))

	responses, closeCache, err := newResponseCache(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize response cache", "backend", cfg.CacheBackend, "error", err)
		os.Exit(1)
	}
	defer closeCache()

	client := feed.NewClient(cfg.FeedBaseURL, cfg.FeedTimeout, logger)
	cat := catalog.New(client, responses, static, logger, metrics, catalog.WithLocation(cfg.Location))

	// Initialize snapshot publishing (feature-flagged via KAFKA_ENABLED).
	var (
		publisher scheduler.Publisher
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("snapshot publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("snapshot publishing disabled")
	}

	sched, err := scheduler.New(cat, publisher, cfg.RefreshSchedule, cfg.Location, logger, metrics)
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, cat, sched, cat, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh schedule.
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := sched.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-schedDone:
	case <-shutdownCtx.Done():
		logger.Warn("scheduler did not stop before shutdown timeout")
	}
	cat.Wait()
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func loadStaticData(path string) (*staticdata.Tables, error) {
	if path == "" {
		return staticdata.Default()
	}
	return staticdata.Load(path)
}

// newResponseCache builds the configured backend. An unreachable Valkey
// server falls back to the in-memory cache so the service still starts.
func newResponseCache(cfg *config.Config, logger *slog.Logger) (catalog.ResponseCache, func(), error) {
	noop := func() {}

	switch cfg.CacheBackend {
	case config.CacheDisk:
		c, err := cache.NewDiskCache(cfg.CacheDir)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("response cache ready", "backend", config.CacheDisk, "dir", cfg.CacheDir)
		return c, noop, nil

	case config.CacheValkey:
		opt, err := cache.ClientOption(cfg.ValkeyAddr)
		if err != nil {
			return nil, noop, err
		}
		client, err := valkey.NewClient(opt)
		if err == nil {
			c := cache.NewValkeyCache(client, "dining", 2*catalog.FreshnessWindow)
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err = c.Ping(pingCtx)
			cancel()
			if err == nil {
				logger.Info("response cache ready", "backend", config.CacheValkey, "addr", cfg.ValkeyAddr)
				return c, c.Close, nil
			}
			c.Close()
		}
		logger.Warn("valkey unavailable, falling back to memory cache", "addr", cfg.ValkeyAddr, "error", err)
	}

	logger.Info("response cache ready", "backend", config.CacheMemory, "max_entries", cfg.CacheMaxEntries)
	return cache.NewMemoryCache(cfg.CacheMaxEntries), noop, nil
}
