// Package config builds runtime configuration from the environment so main
// stays lean. Every knob has a development default; production overrides via
// BHULEKH_* variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// HTTP captures server level configuration.
type HTTP struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Postgres selects the durable store. An empty URL keeps the in-memory
// stores, which is the development and test default.
type Postgres struct {
	URL string
}

// Redis configures the retry-queue backend. An empty URL falls back to the
// in-process queue.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Anchor configures the external-ledger client and its dispatcher.
type Anchor struct {
	BaseURL       string
	APIKey        string
	CallTimeout   time.Duration
	RetryInterval time.Duration
	MaxAttempts   int
}

// Registry points at the upstream land-records service.
type Registry struct {
	BaseURL string
	Timeout time.Duration
}

// Config is the full runtime configuration.
type Config struct {
	HTTP     HTTP
	Postgres Postgres
	Redis    Redis
	Anchor   Anchor
	Registry Registry
	LogLevel string
}

// FromEnv assembles the configuration from environment variables.
func FromEnv() Config {
	return Config{
		HTTP: HTTP{
			Addr:            envOr("BHULEKH_ADDR", ":8080"),
			RequestTimeout:  envDuration("BHULEKH_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: envDuration("BHULEKH_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: Postgres{
			URL: os.Getenv("BHULEKH_POSTGRES_URL"),
		},
		Redis: Redis{
			URL:          os.Getenv("BHULEKH_REDIS_URL"),
			PoolSize:     envInt("BHULEKH_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("BHULEKH_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("BHULEKH_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("BHULEKH_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("BHULEKH_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Anchor: Anchor{
			BaseURL:       os.Getenv("BHULEKH_ANCHOR_URL"),
			APIKey:        os.Getenv("BHULEKH_ANCHOR_API_KEY"),
			CallTimeout:   envDuration("BHULEKH_ANCHOR_CALL_TIMEOUT", 5*time.Second),
			RetryInterval: envDuration("BHULEKH_ANCHOR_RETRY_INTERVAL", 30*time.Second),
			MaxAttempts:   envInt("BHULEKH_ANCHOR_MAX_ATTEMPTS", 10),
		},
		Registry: Registry{
			BaseURL: os.Getenv("BHULEKH_REGISTRY_URL"),
			Timeout: envDuration("BHULEKH_REGISTRY_TIMEOUT", 5*time.Second),
		},
		LogLevel: envOr("BHULEKH_LOG_LEVEL", "info"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
