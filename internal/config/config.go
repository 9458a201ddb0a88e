// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration. It is loaded once at startup
// and treated as immutable for the process lifetime.
type Config struct {
	DataDir             string // Base directory for all databases (always absolute)
	Port                int
	LogLevel            string
	DevMode             bool
	AnalyzersConfigPath string // Path to configs/analyzers.yaml
	AnalyzerTimeout     time.Duration
	ScanWorkers         int
	ScanSchedule        string // cron expression for the universe scan
	PriceSyncSchedule   string // cron expression for price history sync
	MarketAvgPE         float64
	AlphaVantageAPIKey  string
	Export              ExportConfig
}

// ExportConfig holds S3 score-export settings.
type ExportConfig struct {
	Enabled   bool
	Bucket    string
	Prefix    string
	Region    string
	Schedule  string // cron expression
	AccessKey string // optional static credentials; default chain otherwise
	SecretKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("FEA_DATA_DIR", "./data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:             absDataDir,
		Port:                getEnvAsInt("FEA_PORT", 8010),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		AnalyzersConfigPath: getEnv("FEA_ANALYZERS_CONFIG", "configs/analyzers.yaml"),
		AnalyzerTimeout:     getEnvAsDuration("FEA_ANALYZER_TIMEOUT", 10*time.Second),
		ScanWorkers:         getEnvAsInt("FEA_SCAN_WORKERS", 4),
		ScanSchedule:        getEnv("FEA_SCAN_SCHEDULE", "0 0 3 * * *"),       // 3 AM daily
		PriceSyncSchedule:   getEnv("FEA_PRICE_SYNC_SCHEDULE", "0 30 1 * * *"), // 1:30 AM daily
		MarketAvgPE:         getEnvAsFloat("FEA_MARKET_AVG_PE", 20.0),
		AlphaVantageAPIKey:  getEnv("ALPHAVANTAGE_API_KEY", ""),
		Export: ExportConfig{
			Enabled:   getEnvAsBool("FEA_EXPORT_ENABLED", false),
			Bucket:    getEnv("FEA_EXPORT_BUCKET", ""),
			Prefix:    getEnv("FEA_EXPORT_PREFIX", "scores"),
			Region:    getEnv("FEA_EXPORT_REGION", "us-east-1"),
			Schedule:  getEnv("FEA_EXPORT_SCHEDULE", "0 0 5 * * *"), // 5 AM daily
			AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration consistency
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.ScanWorkers <= 0 {
		return fmt.Errorf("scan workers must be positive, got %d", c.ScanWorkers)
	}
	if c.Export.Enabled && c.Export.Bucket == "" {
		return fmt.Errorf("score export enabled but FEA_EXPORT_BUCKET is empty")
	}
	return nil
}

// getEnv retrieves an environment variable with a fallback
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer
func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvAsFloat retrieves an environment variable as a float64
func getEnvAsFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvAsBool retrieves an environment variable as a boolean
func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a duration
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
