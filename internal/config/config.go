// Package config loads the indexer's configuration from config/config.yaml,
// with sensitive fields overridable from the environment (via .env, not
// committed to git).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full, typed configuration surface, mirroring config.yaml.
type Config struct {
	Admin       AdminConfig       `mapstructure:"admin"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Upstream    UpstreamConfig    `mapstructure:"upstream"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	BatchSync   BatchSyncConfig   `mapstructure:"batch_sync"`
	Realtime    RealtimeConfig    `mapstructure:"realtime"`
	Retention   RetentionConfig   `mapstructure:"retention"`
	Cache       CacheConfig       `mapstructure:"cache"`
}

// AdminConfig controls the operator-facing health/status/pprof surface.
// Port 0 disables it entirely.
type AdminConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug/release/test
}

// DatabaseConfig is the store connection.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
}

// UpstreamConfig holds the three base URLs the core must inject into its
// clients, plus transport-level knobs shared by all of them.
type UpstreamConfig struct {
	CatalogBaseURL string        `mapstructure:"catalog_base_url"`
	ClobBaseURL    string        `mapstructure:"clob_base_url"`
	DataBaseURL    string        `mapstructure:"data_base_url"`
	WSURL          string        `mapstructure:"ws_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Proxy          string        `mapstructure:"proxy"`
}

// CredentialsConfig is the optional CLOB L2 signing identity. Empty
// APIKey disables signing; requests go out unauthenticated.
type CredentialsConfig struct {
	Address    string `mapstructure:"address"`
	APIKey     string `mapstructure:"api_key"`
	Secret     string `mapstructure:"secret"`
	Passphrase string `mapstructure:"passphrase"`
}

// BatchSyncConfig drives the Batch Sync Manager's cadences and batch sizes.
type BatchSyncConfig struct {
	MarketsInterval       time.Duration `mapstructure:"markets_interval"`
	TradesInterval        time.Duration `mapstructure:"trades_interval"`
	EnableTradesSync      bool          `mapstructure:"enable_trades_sync"`
	MarketsBatchSize      int           `mapstructure:"markets_batch_size"`
	TradesBatchSize       int           `mapstructure:"trades_batch_size"`
	TradesSyncMarketLimit int           `mapstructure:"trades_sync_market_limit"`
	ClobAuditInterval     time.Duration `mapstructure:"clob_audit_interval"`
	ClobAuditBatchSize    int           `mapstructure:"clob_audit_batch_size"`
	ClobAuditConcurrency  int           `mapstructure:"clob_audit_concurrency"`
	SyncStaleThreshold    time.Duration `mapstructure:"sync_stale_threshold"`
}

// RealtimeConfig drives the Realtime Sync Manager.
type RealtimeConfig struct {
	ReconnectInterval   time.Duration `mapstructure:"ws_reconnect_interval"`
	MaxReconnectAttempt int           `mapstructure:"ws_max_reconnect_attempts"`
	Connections         int           `mapstructure:"ws_connections"`
	PriceFlushInterval  time.Duration `mapstructure:"price_flush_interval"`
}

// RetentionConfig drives the retention sweep and price-history defaults.
type RetentionConfig struct {
	PriceHistoryDays int `mapstructure:"price_history_retention_days"`
	TradesDays       int `mapstructure:"trades_retention_days"`
}

// CacheConfig is the Redis-backed cache invalidator. Empty URL disables it.
type CacheConfig struct {
	RedisURL string `mapstructure:"redis_url"`
}

func defaults() Config {
	return Config{
		Admin: AdminConfig{Port: 8080, Mode: "release"},
		Database: DatabaseConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
			QueryTimeout:    30 * time.Second,
		},
		Upstream: UpstreamConfig{Timeout: 30 * time.Second},
		BatchSync: BatchSyncConfig{
			MarketsInterval:       5 * time.Minute,
			TradesInterval:        time.Minute,
			EnableTradesSync:      true,
			MarketsBatchSize:      500,
			TradesBatchSize:       500,
			TradesSyncMarketLimit: 100,
			ClobAuditInterval:     10 * time.Minute,
			ClobAuditBatchSize:    200,
			ClobAuditConcurrency:  6,
			SyncStaleThreshold:    15 * time.Minute,
		},
		Realtime: RealtimeConfig{
			ReconnectInterval:   3 * time.Second,
			MaxReconnectAttempt: 10,
			Connections:         4,
			PriceFlushInterval:  time.Second,
		},
		Retention: RetentionConfig{PriceHistoryDays: 30, TradesDays: 30},
	}
}

// Load reads config/config.yaml, falling back to built-in defaults for any
// key it omits, then overrides sensitive fields from the environment (via
// .env if present).
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := defaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("POLY_ADDRESS"); v != "" {
		cfg.Credentials.Address = v
	}
	if v := os.Getenv("POLY_API_KEY"); v != "" {
		cfg.Credentials.APIKey = v
	}
	if v := os.Getenv("POLY_SECRET"); v != "" {
		cfg.Credentials.Secret = v
	}
	if v := os.Getenv("POLY_PASSPHRASE"); v != "" {
		cfg.Credentials.Passphrase = v
	}
	if v := os.Getenv("CACHE_REDIS_URL"); v != "" {
		cfg.Cache.RedisURL = v
	}
}
