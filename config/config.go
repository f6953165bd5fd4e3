package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Predictor PredictorConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Feedback  FeedbackConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DataConfig locates the historical fertilizer data and the lookup table
type DataConfig struct {
	DatasetPath string `mapstructure:"dataset_path"`
	LookupPath  string `mapstructure:"lookup_path"`
	Sheet       string `mapstructure:"sheet"`
	Table       string `mapstructure:"table"`
	LookupSheet string `mapstructure:"lookup_sheet"` // XLSX sheet of the lookup table
	LookupTable string `mapstructure:"lookup_table"` // SQLite table of the lookup table
}

// PredictorConfig holds the model-serving endpoint configuration.
// An empty BaseURL disables predictions.
type PredictorConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RateLimit        float64       `mapstructure:"rate_limit"`
	Burst            int           `mapstructure:"burst"`
	MaxRetries       uint64        `mapstructure:"max_retries"`
	RetryInterval    time.Duration `mapstructure:"retry_interval"`
	BreakerFailures  uint32        `mapstructure:"breaker_failures"`
	BreakerOpenDelay time.Duration `mapstructure:"breaker_open_delay"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
	Burst int `mapstructure:"burst"`
}

// FeedbackConfig holds the feedback store location
type FeedbackConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Caller bool   `mapstructure:"caller"`
}

// Load loads configuration from a .env file, environment variables and
// config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/tumbuh/")

	// Environment variable settings: TUMBUH_SERVER_PORT -> server.port
	v.SetEnvPrefix("TUMBUH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads .env from the working directory when present. Variables
// already set in the environment win.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error reading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Data defaults
	v.SetDefault("data.dataset_path", "data/pupuk.csv")
	v.SetDefault("data.lookup_path", "data/lookup_tabel.csv")
	v.SetDefault("data.sheet", "")
	v.SetDefault("data.table", "observations")
	v.SetDefault("data.lookup_sheet", "")
	v.SetDefault("data.lookup_table", "lookup")

	// Predictor defaults
	v.SetDefault("predictor.base_url", "")
	v.SetDefault("predictor.timeout", "10s")
	v.SetDefault("predictor.rate_limit", 20)
	v.SetDefault("predictor.burst", 10)
	v.SetDefault("predictor.max_retries", 3)
	v.SetDefault("predictor.retry_interval", "200ms")
	v.SetDefault("predictor.breaker_failures", 5)
	v.SetDefault("predictor.breaker_open_delay", "30s")

	// Cache defaults
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.burst", 20)

	// Feedback defaults
	v.SetDefault("feedback.db_path", "data/feedback.db")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.caller", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set TUMBUH_SERVER_PORT)")
	}

	if config.Data.DatasetPath == "" {
		return fmt.Errorf("dataset path is required (set TUMBUH_DATA_DATASET_PATH)")
	}

	if config.Predictor.BaseURL != "" {
		u, err := url.Parse(config.Predictor.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("predictor base URL must be an absolute URL, got: %s", config.Predictor.BaseURL)
		}
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %s", config.Cache.TTL)
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("per-IP rate limit must be positive, got: %d", config.RateLimit.PerIP)
	}

	switch config.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be 'json' or 'console', got: %s", config.Log.Format)
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
