// Package config provides environment configuration for the service.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime settings, read from environment variables.
// An empty DatabaseURL selects the in-memory store.
type Config struct {
	Addr        string        `env:"ADDR"          envDefault:":8080"`
	DatabaseURL string        `env:"DATABASE_URL"  envDefault:""`
	JWTSecret   string        `env:"JWT_SECRET"    envDefault:"dev-secret-change-me"`
	TokenTTL    time.Duration `env:"TOKEN_TTL"     envDefault:"24h"`
	BcryptCost  int           `env:"BCRYPT_COST"   envDefault:"10"`
	LogLevel    string        `env:"LOG_LEVEL"     envDefault:"info"`
}

// Load parses environment variables into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
