// Package config loads the server configuration from environment variables.
//
// Every knob has a sensible default except JWT_SECRET, which has no safe
// default by definition — the server refuses to start without one.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the server needs at startup.
//
// The env tags are parsed by caarlos0/env — each field maps to one
// environment variable, with defaults applied when the variable is unset.
type Config struct {
	Port       int           `env:"PORT" envDefault:"8080"`
	DBPath     string        `env:"DB_PATH" envDefault:"data/taskify.db"`
	JWTSecret  string        `env:"JWT_SECRET"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"60m"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"12"`
	LogLevel   string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d is out of range", c.Port)
	}
	if c.JWTSecret == "" {
		// Generate one with: JWT_SECRET=$(openssl rand -hex 32)
		return errors.New("JWT_SECRET must be set")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST %d is outside bcrypt's supported range [4,31]", c.BcryptCost)
	}
	return nil
}
