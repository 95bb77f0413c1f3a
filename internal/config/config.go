// Package config loads application configuration from environment
// variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable; strings for identifiers and secrets, typed
// values where the application consumes them as such.
type Config struct {
	Env           string // application environment (e.g. "dev", "prod")
	Port          string // HTTP port to listen on
	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	JWTSecret     string // secret used to verify staff JWTs
	WebhookSecret string // shared secret for payment webhook signatures
	OpenTime      string // first bookable time of day, "HH:MM"
	CloseTime     string // last bookable time of day, "HH:MM"
}

// RateLimitConfig drives the Redis-backed limiter on the public booking
// and availability endpoints.
type RateLimitConfig struct {
	Enabled bool
	Limit   int           // requests allowed per window
	Window  time.Duration // window length
}

// Load reads configuration from the environment.  Required variables are
// enforced by must(); missing values exit with a fatal log message so a
// misconfigured server never starts half-working.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		JWTSecret:     must("JWT_SECRET"),
		WebhookSecret: must("PAYMENT_WEBHOOK_SECRET"),
		OpenTime:      getenv("OPEN_TIME", "08:00"),
		CloseTime:     getenv("CLOSE_TIME", "20:00"),
	}
}

// LoadRateLimit reads the limiter settings.  Defaults allow 60 requests
// per minute per client and route.
func LoadRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Enabled: getenv("RATE_LIMIT_ENABLED", "true") == "true",
		Limit:   atoi(getenv("RATE_LIMIT_PER_WINDOW", "60")),
		Window:  parseDur(getenv("RATE_LIMIT_WINDOW", "1m")),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Minute
	}
	return d
}
