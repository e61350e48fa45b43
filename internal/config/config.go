package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve in minimal containers.

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/robfig/cron/v3"
)

// Response cache backends.
const (
	CacheMemory = "memory"
	CacheDisk   = "disk"
	CacheValkey = "valkey"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	FeedBaseURL string
	FeedTimeout time.Duration
	Location    *time.Location

	CacheBackend    string
	CacheDir        string
	CacheMaxEntries int
	ValkeyAddr      string

	RefreshSchedule string
	StaticDataPath  string

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	feedTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FEED_TIMEOUT", "15s"))
	if err != nil || feedTimeout <= 0 {
		return nil, errors.New("invalid FEED_TIMEOUT")
	}

	tz := sharedcfg.EnvOrDefault("TIMEZONE", "America/New_York")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	cacheMaxEntries, err := parsePositiveInt("CACHE_MAX_ENTRIES", 16)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		FeedBaseURL: sharedcfg.EnvOrDefault("FEED_BASE_URL", "https://now.dining.cornell.edu/api/1.0/dining"),
		FeedTimeout: feedTimeout,
		Location:    loc,

		CacheBackend:    sharedcfg.EnvOrDefault("CACHE_BACKEND", CacheMemory),
		CacheDir:        sharedcfg.EnvOrDefault("CACHE_DIR", "./var/feed-cache"),
		CacheMaxEntries: cacheMaxEntries,
		ValkeyAddr:      os.Getenv("VALKEY_ADDR"),

		RefreshSchedule: sharedcfg.EnvOrDefault("REFRESH_SCHEDULE", "0 */4 * * *"),
		StaticDataPath:  os.Getenv("STATIC_DATA_PATH"),

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "dining-location-snapshots"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.FeedBaseURL == "" {
		return nil, errors.New("FEED_BASE_URL is required")
	}
	switch cfg.CacheBackend {
	case CacheMemory, CacheDisk:
	case CacheValkey:
		if cfg.ValkeyAddr == "" {
			return nil, errors.New("CACHE_BACKEND is valkey but VALKEY_ADDR is not set")
		}
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q: want memory, disk or valkey", cfg.CacheBackend)
	}
	if _, err := cron.ParseStandard(cfg.RefreshSchedule); err != nil {
		return nil, fmt.Errorf("invalid REFRESH_SCHEDULE: %w", err)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required")
		}
	}

	return cfg, nil
}

func parsePositiveInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}
