package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full environment contract of the service.
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	RateLimit RateLimitConfig
	Webhook   WebhookConfig
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int32
	MinConnections int32
	AcquireTimeout time.Duration
}

type ServerConfig struct {
	Host string
	Port int
}

type RateLimitConfig struct {
	RequestsPerHour int
}

type WebhookConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
}

// Load reads configuration from the environment, consulting a .env
// file when present. DATABASE_URL is the only required variable.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	maxConns, err := intEnv("DATABASE_MAX_CONNECTIONS", 10)
	if err != nil {
		return nil, err
	}
	minConns, err := intEnv("DATABASE_MIN_CONNECTIONS", 2)
	if err != nil {
		return nil, err
	}
	acquireTimeout, err := intEnv("DATABASE_ACQUIRE_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	host := os.Getenv("SERVER_HOST")
	if host == "" {
		host = "0.0.0.0"
	}

	rateLimit, err := intEnv("RATE_LIMIT_PER_HOUR", 1000)
	if err != nil {
		return nil, err
	}

	webhookTimeout, err := intEnv("WEBHOOK_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	webhookRetries, err := intEnv("WEBHOOK_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	webhookBackoffMS, err := intEnv("WEBHOOK_INITIAL_BACKOFF_MS", 500)
	if err != nil {
		return nil, err
	}

	return &Config{
		Database: DatabaseConfig{
			URL:            dbURL,
			MaxConnections: int32(maxConns),
			MinConnections: int32(minConns),
			AcquireTimeout: time.Duration(acquireTimeout) * time.Second,
		},
		Server: ServerConfig{
			Host: host,
			Port: port,
		},
		RateLimit: RateLimitConfig{
			RequestsPerHour: rateLimit,
		},
		Webhook: WebhookConfig{
			Timeout:        time.Duration(webhookTimeout) * time.Second,
			MaxRetries:     webhookRetries,
			InitialBackoff: time.Duration(webhookBackoffMS) * time.Millisecond,
		},
	}, nil
}

// Addr is the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func intEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q", name, raw)
	}
	return value, nil
}
