package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// run from an empty directory so no config.yaml or .env is picked up
	t.Chdir(t.TempDir())

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Data.DatasetPath != "data/pupuk.csv" {
			t.Errorf("Data.DatasetPath = %s, want data/pupuk.csv", cfg.Data.DatasetPath)
		}
		if cfg.Data.Table != "observations" {
			t.Errorf("Data.Table = %s, want observations", cfg.Data.Table)
		}
		if cfg.Data.LookupSheet != "" || cfg.Data.LookupTable != "lookup" {
			t.Errorf("lookup sheet/table = %q/%q, want \"\"/lookup", cfg.Data.LookupSheet, cfg.Data.LookupTable)
		}
		if cfg.Predictor.BaseURL != "" {
			t.Errorf("Predictor.BaseURL = %s, want empty", cfg.Predictor.BaseURL)
		}
		if cfg.Predictor.MaxRetries != 3 {
			t.Errorf("Predictor.MaxRetries = %d, want 3", cfg.Predictor.MaxRetries)
		}
		if cfg.Predictor.BreakerOpenDelay != 30*time.Second {
			t.Errorf("Predictor.BreakerOpenDelay = %v, want 30s", cfg.Predictor.BreakerOpenDelay)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 100 {
			t.Errorf("RateLimit.PerIP = %d, want 100", cfg.RateLimit.PerIP)
		}
		if cfg.Feedback.DBPath != "data/feedback.db" {
			t.Errorf("Feedback.DBPath = %s, want data/feedback.db", cfg.Feedback.DBPath)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Errorf("Log = %+v, want info/json", cfg.Log)
		}
		if cfg.IsProduction() {
			t.Error("IsProduction() = true for development")
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		t.Setenv("TUMBUH_SERVER_PORT", "9090")
		t.Setenv("TUMBUH_SERVER_ENVIRONMENT", "production")
		t.Setenv("TUMBUH_DATA_DATASET_PATH", "/srv/pupuk.xlsx")
		t.Setenv("TUMBUH_DATA_SHEET", "Data")
		t.Setenv("TUMBUH_DATA_LOOKUP_SHEET", "Lookup")
		t.Setenv("TUMBUH_PREDICTOR_BASE_URL", "http://models:8501")
		t.Setenv("TUMBUH_PREDICTOR_TIMEOUT", "3s")
		t.Setenv("TUMBUH_CACHE_TTL", "1h")
		t.Setenv("TUMBUH_RATELIMIT_PER_IP", "200")
		t.Setenv("TUMBUH_LOG_FORMAT", "console")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if !cfg.IsProduction() {
			t.Error("IsProduction() = false, want true")
		}
		if cfg.Data.DatasetPath != "/srv/pupuk.xlsx" || cfg.Data.Sheet != "Data" {
			t.Errorf("Data = %+v", cfg.Data)
		}
		if cfg.Data.LookupSheet != "Lookup" {
			t.Errorf("Data.LookupSheet = %q, want Lookup", cfg.Data.LookupSheet)
		}
		if cfg.Predictor.BaseURL != "http://models:8501" {
			t.Errorf("Predictor.BaseURL = %s", cfg.Predictor.BaseURL)
		}
		if cfg.Predictor.Timeout != 3*time.Second {
			t.Errorf("Predictor.Timeout = %v, want 3s", cfg.Predictor.Timeout)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if cfg.Log.Format != "console" {
			t.Errorf("Log.Format = %s, want console", cfg.Log.Format)
		}
	})

	t.Run("reads config.yaml", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		yaml := "server:\n  port: \"7070\"\ndata:\n  table: obs2024\n"
		if err := os.WriteFile("config.yaml", []byte(yaml), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Server.Port != "7070" {
			t.Errorf("Server.Port = %s, want 7070", cfg.Server.Port)
		}
		if cfg.Data.Table != "obs2024" {
			t.Errorf("Data.Table = %s, want obs2024", cfg.Data.Table)
		}
	})

	t.Run("fails validation for relative predictor URL", func(t *testing.T) {
		t.Setenv("TUMBUH_PREDICTOR_BASE_URL", "models:8501/v1")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for relative predictor URL")
		}
	})

	t.Run("fails validation for unknown log format", func(t *testing.T) {
		t.Setenv("TUMBUH_LOG_FORMAT", "xml")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for log format")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		t.Chdir(t.TempDir())

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables and skips comments", func(t *testing.T) {
		t.Chdir(t.TempDir())

		envContent := `
# Comment line
TUMBUH_TEST_VAR_1=value1

TUMBUH_TEST_VAR_2=value2
# TUMBUH_TEST_COMMENTED=should_not_load
`
		if err := os.WriteFile(".env", []byte(envContent), 0o644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		t.Cleanup(func() {
			os.Unsetenv("TUMBUH_TEST_VAR_1")
			os.Unsetenv("TUMBUH_TEST_VAR_2")
		})

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TUMBUH_TEST_VAR_1") != "value1" {
			t.Errorf("TUMBUH_TEST_VAR_1 = %s, want value1", os.Getenv("TUMBUH_TEST_VAR_1"))
		}
		if os.Getenv("TUMBUH_TEST_VAR_2") != "value2" {
			t.Errorf("TUMBUH_TEST_VAR_2 = %s, want value2", os.Getenv("TUMBUH_TEST_VAR_2"))
		}
		if os.Getenv("TUMBUH_TEST_COMMENTED") != "" {
			t.Error("TUMBUH_TEST_COMMENTED should not be loaded from comment")
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("TUMBUH_TEST_OVERRIDE", "existing-value")

		if err := os.WriteFile(".env", []byte("TUMBUH_TEST_OVERRIDE=new-value"), 0o644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}
		if os.Getenv("TUMBUH_TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TUMBUH_TEST_OVERRIDE = %s, want existing-value", os.Getenv("TUMBUH_TEST_OVERRIDE"))
		}
	})

	t.Run("env file feeds Load", func(t *testing.T) {
		t.Chdir(t.TempDir())
		if err := os.WriteFile(".env", []byte("TUMBUH_SERVER_PORT=6060\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { os.Unsetenv("TUMBUH_SERVER_PORT") })

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Port != "6060" {
			t.Errorf("Server.Port = %s, want 6060", cfg.Server.Port)
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080"},
			Data:      DataConfig{DatasetPath: "data/pupuk.csv"},
			Cache:     CacheConfig{TTL: time.Hour},
			RateLimit: RateLimitConfig{PerIP: 10},
			Log:       LogConfig{Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"valid predictor URL", func(c *Config) { c.Predictor.BaseURL = "https://models.example.com" }, false},
		{"missing port", func(c *Config) { c.Server.Port = "" }, true},
		{"missing dataset", func(c *Config) { c.Data.DatasetPath = "" }, true},
		{"bad predictor URL", func(c *Config) { c.Predictor.BaseURL = "::nope" }, true},
		{"zero cache TTL", func(c *Config) { c.Cache.TTL = 0 }, true},
		{"zero rate limit", func(c *Config) { c.RateLimit.PerIP = 0 }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "text" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
