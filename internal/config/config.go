package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config carries everything the server needs from the environment. It is
// built once in main and passed down explicitly; nothing in this repo reads
// os.Getenv after startup.
type Config struct {
	Port        string
	DatabaseURL string

	// Token signing
	TokenSecret string
	TokenTTL    time.Duration
	Domain      string // JWT issuer

	// Connection pool
	DBMaxOpen     int
	DBMaxIdle     int
	DBMaxLifetime time.Duration

	LogFormat string // "json" or "console"
}

// helper to read env with default
func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getint(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// Load reads the environment into a Config. DATABASE_URL and TOKEN_SECRET
// have no sane defaults and are required.
func Load() (Config, error) {
	cfg := Config{
		Port:          getenv("PORT", "3000"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		TokenSecret:   os.Getenv("TOKEN_SECRET"),
		Domain:        getenv("DOMAIN", "localhost"),
		TokenTTL:      7 * 24 * time.Hour,
		DBMaxOpen:     getint("DB_MAX_OPEN", 25),
		DBMaxIdle:     getint("DB_MAX_IDLE", 25),
		DBMaxLifetime: time.Duration(getint("DB_MAX_LIFETIME", 300)) * time.Second,
		LogFormat:     getenv("LOG_FORMAT", "json"),
	}

	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return Config{}, errors.New("config: invalid TOKEN_TTL: " + ttl)
		}
		cfg.TokenTTL = d
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("config: DATABASE_URL is required")
	}
	if cfg.TokenSecret == "" {
		return Config{}, errors.New("config: TOKEN_SECRET is required")
	}
	return cfg, nil
}
