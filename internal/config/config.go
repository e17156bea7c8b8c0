package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"5"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	Port   string `env:"PORT" envDefault:"3333"`
	AppEnv string `env:"APP_ENV" envDefault:"development"`

	ClerkSecretKey     string `env:"CLERK_SECRET_KEY,required,notEmpty"`
	ClerkWebhookSecret string `env:"CLERK_WEBHOOK_SECRET"`
	SyncSecret         string `env:"SYNC_SECRET,required,notEmpty"`
	MetricsUser        string `env:"METRICS_USER"`
	MetricsPass        string `env:"METRICS_PASS"`

	// Empty disables the per-(profile, type) recalculation lock.
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RecalcLockTTL time.Duration `env:"RECALC_LOCK_TTL" envDefault:"2m"`

	// Empty falls back to the SQL sibling lookups.
	Neo4jURI      string `env:"NEO4J_URI"`
	Neo4jUser     string `env:"NEO4J_USER"`
	Neo4jPassword string `env:"NEO4J_PASSWORD"`
	Neo4jDatabase string `env:"NEO4J_DATABASE" envDefault:"neo4j"`

	OtelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load reads an optional .env file and parses the environment into a Config.
// A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return nil, fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", cfg.DBMinConns, cfg.DBMaxConns)
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "prod" || c.AppEnv == "production"
}
