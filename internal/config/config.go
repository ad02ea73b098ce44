package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/enso-go/pkg/enso"
)

type Config struct {
	// Enso API settings
	EnsoAPIKey    string
	EnsoBaseURL   string
	EnsoRateLimit float64

	// HTTP client settings
	HTTPTimeout time.Duration
	MaxRetries  int

	// Gateway settings
	APIAddr string
	APIKey  string
	DevMode bool

	// Redis settings
	RedisAddr     string
	PriceCacheTTL time.Duration

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	LogLevel string
}

func Load() *Config {
	return &Config{
		// Enso
		EnsoAPIKey:    getEnv("ENSO_API_KEY", ""),
		EnsoBaseURL:   getEnv("ENSO_BASE_URL", enso.DefaultBaseURL),
		EnsoRateLimit: getFloatEnv("ENSO_RATE_LIMIT", 0),

		// HTTP
		HTTPTimeout: getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:  getIntEnv("MAX_RETRIES", enso.DefaultMaxRetries),

		// Gateway
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		PriceCacheTTL: getDurationEnv("PRICE_CACHE_TTL", 30*time.Second),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "enso"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.EnsoAPIKey) == "" {
		return fmt.Errorf("ENSO_API_KEY is required")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative, got %d", c.MaxRetries)
	}
	if c.EnsoRateLimit < 0 {
		return fmt.Errorf("ENSO_RATE_LIMIT must not be negative, got %v", c.EnsoRateLimit)
	}
	if c.RedisAddr != "" && c.PriceCacheTTL <= 0 {
		return fmt.Errorf("PRICE_CACHE_TTL must be positive, got %s", c.PriceCacheTTL)
	}
	return nil
}

// ClientOptions translates the config into enso client options.
func (c *Config) ClientOptions() []enso.Option {
	opts := []enso.Option{
		enso.WithBaseURL(c.EnsoBaseURL),
		enso.WithHTTPClient(enso.NewHTTPClient(c.HTTPTimeout)),
		enso.WithRetry(c.MaxRetries, nil),
	}
	if c.EnsoRateLimit > 0 {
		burst := int(c.EnsoRateLimit)
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, enso.WithRateLimit(c.EnsoRateLimit, burst))
	}
	return opts
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
