// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds every tunable the service reads at startup.
type Config struct {
	ListenAddr    string
	JWTSecret     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PostgresDSN   string
	LogLevel      string

	// MismatchDelay is how long a mismatched pair stays visible before the
	// service submits the ClearMismatch move on the players' behalf.
	MismatchDelay time.Duration

	// TokenTTL is the lifetime of issued session tokens.
	TokenTTL time.Duration
}

// Load reads the configuration. A missing .env file is not an error.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("could not load .env file")
	}

	return Config{
		ListenAddr:    getenv("LISTEN_ADDR", ":8080"),
		JWTSecret:     getenv("JWT_SECRET", "dev-secret-change-me"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvInt("REDIS_DB", 0),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		MismatchDelay: time.Duration(getenvInt("MISMATCH_DELAY_MS", 1200)) * time.Millisecond,
		TokenTTL:      time.Duration(getenvInt("TOKEN_TTL_MINUTES", 12*60)) * time.Minute,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("invalid integer %q, using default %d", v, def)
		return def
	}
	return n
}
