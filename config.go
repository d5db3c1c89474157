package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read from the environment, after an optional .env file.
type Config struct {
	ServerAddr    string        `env:"SERVER_ADDR"     envDefault:":8080"`
	DBDialect     string        `env:"DB_DIALECT"      envDefault:"sqlite"`
	SQLitePath    string        `env:"DB_SQLITE_PATH"  envDefault:"tmp/presidential_sim.sqlite"`
	PostgresDSN   string        `env:"DB_POSTGRES_DSN"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	RedisURL      string        `env:"REDIS_URL"`
	MongoURI      string        `env:"MONGO_URI"`
	MongoDatabase string        `env:"MONGO_DATABASE"  envDefault:"presidential_sim"`
	ElectionSeed  int64         `env:"ELECTION_SEED"`
	SaveTimeout   time.Duration `env:"SAVE_TIMEOUT"    envDefault:"5s"`
	SaveRetention time.Duration `env:"SAVE_RETENTION"  envDefault:"2160h"`
}

func loadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return parseConfig()
}

func parseConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDialect = strings.TrimSpace(strings.ToLower(cfg.DBDialect))
	if cfg.DBDialect == "" {
		cfg.DBDialect = string(dialectSQLite)
	}
	if cfg.SaveTimeout <= 0 {
		return Config{}, fmt.Errorf("SAVE_TIMEOUT must be positive, got %s", cfg.SaveTimeout)
	}
	return cfg, nil
}

// postgresDSN prefers the explicit DSN over the platform DATABASE_URL.
func (c Config) postgresDSN() string {
	if dsn := strings.TrimSpace(c.PostgresDSN); dsn != "" {
		return dsn
	}
	return strings.TrimSpace(c.DatabaseURL)
}
