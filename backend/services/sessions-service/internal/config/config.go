package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "evcharge/backend/libs/config"
)

const (
	defaultPort               = "8082"
	defaultGeofenceToleranceM = 30.0
	defaultVehicleEfficiency  = 5.0
	defaultOCRTimeout         = 20 * time.Second
	defaultActiveSessionTTL   = 24 * time.Hour
	defaultEventsTopic        = "evcharge.sessions"
	defaultOCRLang            = "ko"
)

// Config defines sessions service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"SESSIONS_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN          string `yaml:"dsn" env:"SESSIONS_POSTGRES_DSN"`
		MaxOpenConns int    `yaml:"maxOpenConns" env:"SESSIONS_POSTGRES_MAX_OPEN"`
		Migrate      bool   `yaml:"migrate" env:"SESSIONS_POSTGRES_MIGRATE"`
	} `yaml:"database"`
	Redis struct {
		Addr     string        `yaml:"addr" env:"SESSIONS_REDIS_ADDR"`
		Password string        `yaml:"password" env:"SESSIONS_REDIS_PASSWORD"`
		DB       int           `yaml:"db" env:"SESSIONS_REDIS_DB"`
		TTL      time.Duration `yaml:"ttl" env:"SESSIONS_REDIS_TTL"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret" env:"SESSIONS_JWT_SECRET"`
	} `yaml:"auth"`
	Geofence struct {
		ToleranceMeters float64 `yaml:"toleranceMeters" env:"SESSIONS_GEOFENCE_TOLERANCE_M"`
	} `yaml:"geofence"`
	Carbon struct {
		DefaultEfficiency float64 `yaml:"defaultEfficiency" env:"SESSIONS_DEFAULT_EFFICIENCY"`
	} `yaml:"carbon"`
	OCR struct {
		URL     string        `yaml:"url" env:"SESSIONS_OCR_URL"`
		Secret  string        `yaml:"secret" env:"SESSIONS_OCR_SECRET"`
		Lang    string        `yaml:"lang" env:"SESSIONS_OCR_LANG"`
		Timeout time.Duration `yaml:"timeout" env:"SESSIONS_OCR_TIMEOUT"`
	} `yaml:"ocr"`
	Kafka struct {
		Brokers []string `yaml:"brokers" env:"SESSIONS_KAFKA_BROKERS"`
		Topic   string   `yaml:"topic" env:"SESSIONS_KAFKA_TOPIC"`
	} `yaml:"kafka"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = defaultPort
	cfg.Redis.TTL = defaultActiveSessionTTL
	cfg.Geofence.ToleranceMeters = defaultGeofenceToleranceM
	cfg.Carbon.DefaultEfficiency = defaultVehicleEfficiency
	cfg.OCR.Lang = defaultOCRLang
	cfg.OCR.Timeout = defaultOCRTimeout
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
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("config: jwt secret required")
	}
	if strings.TrimSpace(c.OCR.URL) == "" {
		return errors.New("config: ocr url required")
	}
	if c.Geofence.ToleranceMeters <= 0 {
		return errors.New("config: geofence tolerance must be positive")
	}
	if c.Carbon.DefaultEfficiency <= 0 {
		return errors.New("config: default efficiency must be positive")
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

// RedisEnabled reports whether the active session cache is configured.
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}

// ActiveSessionTTL returns the cache ttl.
func (c *Config) ActiveSessionTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return defaultActiveSessionTTL
	}
	return c.Redis.TTL
}

// OCRTimeout bounds a single OCR call.
func (c *Config) OCRTimeout() time.Duration {
	if c.OCR.Timeout <= 0 {
		return defaultOCRTimeout
	}
	return c.OCR.Timeout
}
