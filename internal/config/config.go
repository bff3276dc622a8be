// Package config loads runtime configuration from the environment.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds environment-sourced settings. Flags override these where a
// binary exposes both.
type Config struct {
	PostgresDSN   string
	ClickhouseDSN string

	AlpacaAPIKey    string
	AlpacaSecretKey string

	LogLevel zerolog.Level
}

// Load reads a .env file when present, then the environment. Missing
// variables stay zero-valued; each binary validates what it needs.
func Load() *Config {
	// Best-effort: a missing .env file is the normal production case.
	_ = godotenv.Load()

	return &Config{
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		ClickhouseDSN:   os.Getenv("CLICKHOUSE_DSN"),
		AlpacaAPIKey:    os.Getenv("ALPACA_API_KEY"),
		AlpacaSecretKey: os.Getenv("ALPACA_SECRET_KEY"),
		LogLevel:        parseLevel(os.Getenv("LOG_LEVEL")),
	}
}

func parseLevel(s string) zerolog.Level {
	if s == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
