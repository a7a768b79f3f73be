// Package config reads storefront settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/remote"
	"github.com/joho/godotenv"
)

// Policies are the per-call-site remote call budgets.
type Policies struct {
	Badge    remote.Policy
	CartLoad remote.Policy
	Mutation remote.Policy
	Default  remote.Policy
}

type Config struct {
	HTTPPort           string
	APIURL             string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	// Store is "memory" or "redis"; it backs browser state in serve mode.
	Store         string
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration

	StateFile string

	BreakerThreshold uint32
	BreakerOpenFor   time.Duration

	LogLevel  string
	LogFormat string

	Policies Policies
}

// Load reads files (default ".env") when present, then the environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	p := parser{}
	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		APIURL:             getEnv("STOREFRONT_API_URL", "http://localhost:5000/api"),
		RequestTimeout:     p.duration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxRequestBodySize: int64(p.integer("MAX_REQUEST_BODY_SIZE", 8<<20)), // 8MB, fits an image upload

		Store:         getEnv("STOREFRONT_STORE", "memory"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SessionTTL:    p.duration("SESSION_TTL", 30*24*time.Hour),

		StateFile: getEnv("STOREFRONT_STATE", defaultStateFile()),

		BreakerThreshold: uint32(p.integer("BREAKER_THRESHOLD", 5)),
		BreakerOpenFor:   p.duration("BREAKER_OPEN_FOR", 30*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Policies: Policies{
			Badge: remote.Policy{
				Timeout: p.duration("BADGE_TIMEOUT", 5*time.Second),
			},
			CartLoad: remote.Policy{
				Timeout:    p.duration("CART_LOAD_TIMEOUT", 10*time.Second),
				MaxRetries: p.integer("CART_LOAD_RETRIES", 2),
				Backoff:    p.duration("CART_LOAD_BACKOFF", 2*time.Second),
			},
			Mutation: remote.Policy{
				Timeout:    p.duration("MUTATION_TIMEOUT", 15*time.Second),
				MaxRetries: p.integer("MUTATION_RETRIES", 0),
			},
			Default: remote.Policy{
				Timeout:    p.duration("DEFAULT_TIMEOUT", 10*time.Second),
				MaxRetries: p.integer("DEFAULT_RETRIES", 1),
				Backoff:    p.duration("DEFAULT_BACKOFF", time.Second),
			},
		},
	}
	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}
	if cfg.Store != "memory" && cfg.Store != "redis" {
		return nil, fmt.Errorf("STOREFRONT_STORE must be memory or redis, got %q", cfg.Store)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser collects malformed values so Load can report all of them at once.
type parser struct {
	errs []error
}

func (p *parser) duration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Bare numbers are milliseconds, as in the browser build.
		ms, msErr := strconv.Atoi(v)
		if msErr != nil {
			p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
			return defaultValue
		}
		d = time.Duration(ms) * time.Millisecond
	}
	if d < 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: must not be negative", key))
		return defaultValue
	}
	return d
}

func (p *parser) integer(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	if n < 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: must not be negative", key))
		return defaultValue
	}
	return n
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".storefront.yaml"
	}
	return filepath.Join(dir, "storefront", "state.yaml")
}
