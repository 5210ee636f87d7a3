// Package config reads the server settings from the environment, after
// loading a .env file if one is found.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// EnvPaths are the .env locations tried in order; the first that loads wins.
var EnvPaths = []string{".env", "../.env", "../../.env"}

// Config holds the server settings.
type Config struct {
	Port string

	// Store selection, first match wins: DatabaseURL (PostgreSQL),
	// TursoURL (libSQL), SQLitePath, otherwise in memory.
	DatabaseURL string
	TursoURL    string
	TursoToken  string
	SQLitePath  string

	// RedisURL enables the read-through cache in front of the store.
	RedisURL string
	CacheTTL time.Duration

	AutosaveDelay time.Duration
	RulesFile     string
}

// LoadEnvFile loads the first .env file found in paths and returns its path,
// or "" if none was found. Variables already set are not overridden.
func LoadEnvFile(paths ...string) string {
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	return ""
}

// Load loads a .env file from EnvPaths and reads the configuration.
func Load() (Config, error) {
	if path := LoadEnvFile(EnvPaths...); path != "" {
		slog.Info("loaded .env", "path", path)
	} else {
		slog.Debug("no .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv reads the configuration from environment variables only.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:        getenv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		TursoURL:    os.Getenv("TURSO_DATABASE_URL"),
		TursoToken:  os.Getenv("TURSO_AUTH_TOKEN"),
		SQLitePath:  os.Getenv("SQLITE_PATH"),
		RedisURL:    os.Getenv("REDIS_URL"),
		RulesFile:   os.Getenv("RULES_FILE"),
	}

	var err error
	if cfg.CacheTTL, err = duration("CACHE_TTL", 30*time.Second); err != nil {
		return cfg, err
	}
	if cfg.AutosaveDelay, err = duration("AUTOSAVE_DELAY", 500*time.Millisecond); err != nil {
		return cfg, err
	}

	if cfg.RulesFile != "" {
		if _, err := os.Stat(cfg.RulesFile); err != nil {
			return cfg, fmt.Errorf("RULES_FILE: %w", err)
		}
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", key)
	}
	return d, nil
}
