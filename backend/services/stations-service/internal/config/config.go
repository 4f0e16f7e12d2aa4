package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "evcharge/backend/libs/config"
)

const (
	defaultPort         = "8083"
	defaultFeedURL      = "https://apis.data.go.kr/B552584/EvCharger/getChargerInfo"
	defaultFeedTimeout  = 15 * time.Second
	defaultPageSize     = 500
	defaultMaxPages     = 3
	defaultRegion       = "11"
	defaultSyncInterval = 2 * time.Minute
	defaultLockTTL      = 5 * time.Minute
	defaultEventsTopic  = "evcharge.catalog"
	defaultNearbyRadius = 2000
)

// Config defines stations service configuration.
type Config struct {
	HTTP struct {
		Port       string `yaml:"port" env:"STATIONS_HTTP_PORT"`
		AdminToken string `yaml:"adminToken" env:"STATIONS_ADMIN_TOKEN"`
	} `yaml:"http"`
	Database struct {
		DSN          string `yaml:"dsn" env:"STATIONS_POSTGRES_DSN"`
		MaxOpenConns int    `yaml:"maxOpenConns" env:"STATIONS_POSTGRES_MAX_OPEN"`
		Migrate      bool   `yaml:"migrate" env:"STATIONS_POSTGRES_MIGRATE"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"STATIONS_REDIS_ADDR"`
		Password string `yaml:"password" env:"STATIONS_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"STATIONS_REDIS_DB"`
	} `yaml:"redis"`
	Feed struct {
		URL        string        `yaml:"url" env:"STATIONS_FEED_URL"`
		ServiceKey string        `yaml:"serviceKey" env:"STATIONS_FEED_SERVICE_KEY"`
		Timeout    time.Duration `yaml:"timeout" env:"STATIONS_FEED_TIMEOUT"`
	} `yaml:"feed"`
	Sync struct {
		Enabled  bool          `yaml:"enabled" env:"STATIONS_SYNC_ENABLED"`
		Region   string        `yaml:"region" env:"STATIONS_SYNC_REGION"`
		PageSize int           `yaml:"pageSize" env:"STATIONS_SYNC_PAGE_SIZE"`
		MaxPages int           `yaml:"maxPages" env:"STATIONS_SYNC_MAX_PAGES"`
		Interval time.Duration `yaml:"interval" env:"STATIONS_SYNC_INTERVAL"`
		LockTTL  time.Duration `yaml:"lockTTL" env:"STATIONS_SYNC_LOCK_TTL"`
	} `yaml:"sync"`
	Query struct {
		DefaultRadius float64 `yaml:"defaultRadius" env:"STATIONS_DEFAULT_RADIUS_M"`
	} `yaml:"query"`
	Kafka struct {
		Brokers []string `yaml:"brokers" env:"STATIONS_KAFKA_BROKERS"`
		Topic   string   `yaml:"topic" env:"STATIONS_KAFKA_TOPIC"`
	} `yaml:"kafka"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = defaultPort
	cfg.Feed.URL = defaultFeedURL
	cfg.Feed.Timeout = defaultFeedTimeout
	cfg.Sync.Enabled = true
	cfg.Sync.Region = defaultRegion
	cfg.Sync.PageSize = defaultPageSize
	cfg.Sync.MaxPages = defaultMaxPages
	cfg.Sync.Interval = defaultSyncInterval
	cfg.Sync.LockTTL = defaultLockTTL
	cfg.Query.DefaultRadius = defaultNearbyRadius
	cfg.Kafka.Topic = defaultEventsTopic

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database dsn required")
	}
	if strings.TrimSpace(c.Feed.ServiceKey) == "" {
		return errors.New("config: feed service key required")
	}
	if c.Sync.PageSize <= 0 || c.Sync.MaxPages <= 0 {
		return errors.New("config: sync page size and max pages must be positive")
	}
	if c.Sync.Interval <= 0 {
		return errors.New("config: sync interval must be positive")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = defaultPort
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// RedisEnabled reports whether the cross-replica sync lock is configured.
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}
