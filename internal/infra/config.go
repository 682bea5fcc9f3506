package infra

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/fincore/platform/internal/domain"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database. DATABASE_URL wins; the PG* parts are the fallback.
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"postgres"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"postgres"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"fincore"`
	PGSSLMode   string `env:"PGSSLMODE" envDefault:"disable"`

	// HTTP
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	Env      string `env:"ENV" envDefault:"development"`

	// Outbox dispatcher
	DispatchInterval  time.Duration `env:"DISPATCH_INTERVAL" envDefault:"2s"`
	DispatchBatchSize int           `env:"DISPATCH_BATCH_SIZE" envDefault:"50"`
	MetricsAddr       string        `env:"METRICS_ADDR" envDefault:":9091"`

	// Webhook delivery. An empty signing secret disables the signature
	// header (local dev); production deployments should set one.
	WebhookSigningSecret string        `env:"WEBHOOK_SIGNING_SECRET"`
	WebhookTimeout       time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`

	// Kafka mirror for queue: destinations. Empty brokers disables it.
	KafkaBrokers string `env:"KAFKA_BROKERS"`
	KafkaTopic   string `env:"KAFKA_TOPIC" envDefault:"fincore.domain-events"`

	// Dev webhook sink.
	SinkAddr string `env:"WEBHOOK_SINK_ADDR" envDefault:":9092"`

	// Redis projection cache. Empty falls back to the in-memory store.
	RedisURL string `env:"REDIS_URL"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate rejects values the dispatcher and HTTP layer cannot run with.
func (c *Config) Validate() error {
	if c.DispatchBatchSize < 1 || c.DispatchBatchSize > domain.MaxDispatchBatch {
		return fmt.Errorf("DISPATCH_BATCH_SIZE must be between 1 and %d, got %d", domain.MaxDispatchBatch, c.DispatchBatchSize)
	}
	if c.DispatchInterval <= 0 {
		return fmt.Errorf("DISPATCH_INTERVAL must be positive, got %s", c.DispatchInterval)
	}
	if c.WebhookTimeout <= 0 {
		return fmt.Errorf("WEBHOOK_TIMEOUT must be positive, got %s", c.WebhookTimeout)
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase, c.PGSSLMode)
}

// LogLevel maps ENV to a slog level: debug for development, info otherwise.
func (c *Config) LogLevel() slog.Level {
	if c.Env == "development" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
