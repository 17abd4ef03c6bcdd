package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Event publisher kinds.
const (
	PublisherLog   = "log"
	PublisherRedis = "redis"
	PublisherNone  = "none"
)

// Config holds all application configuration.
type Config struct {
	// HTTP Server
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	HTTPIdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"60s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Redis (optional - leave empty to disable idempotency and the redis publisher)
	RedisURL string `env:"REDIS_URL" envDefault:""`

	// Idempotency
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	// Events
	EventPublisher  string `env:"EVENT_PUBLISHER"   envDefault:"log"`
	EventChannel    string `env:"EVENT_CHANNEL"     envDefault:"txledger.events"`
	EventBufferSize int    `env:"EVENT_BUFFER_SIZE" envDefault:"1024"`

	// Rate limiting (0 disables)
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"0"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"0"`

	// Authentication (optional - leave empty to disable)
	JWTSecret     string        `env:"JWT_SECRET"       envDefault:""`
	JWTExpiration time.Duration `env:"JWT_EXPIRATION"   envDefault:"24h"`
	AuthEnabled   bool          `env:"AUTH_ENABLED"     envDefault:"false"`

	// Metrics
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.EventPublisher {
	case PublisherLog, PublisherNone:
	case PublisherRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("EVENT_PUBLISHER=redis requires REDIS_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EVENT_PUBLISHER %q", c.EventPublisher))
	}

	if c.AuthEnabled && c.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_ENABLED requires JWT_SECRET"))
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		errs = append(errs, errors.New("rate limit settings must not be negative"))
	}
	if c.EventBufferSize <= 0 {
		errs = append(errs, errors.New("EVENT_BUFFER_SIZE must be positive"))
	}

	return errors.Join(errs...)
}

// RedisEnabled reports whether a Redis connection is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

// RateLimitEnabled reports whether the rate limit middleware is active.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitRPS > 0 && c.RateLimitBurst > 0
}
