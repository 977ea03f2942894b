package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"tradeLog/internal/adapters/logger" // Import the logger package for LogLevel
	"tradeLog/internal/ports"
)

// Config holds all application configuration.
type Config struct {
	// Database
	DBPath string

	// Logging
	LogLevel  logger.LogLevel // Use the LogLevel type from the logger adapter
	LogPretty bool

	// Reconciliation
	ReconcileSchedule string // Cron spec; empty disables the periodic recompute

	// Binance API (only needed for fill import)
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Connection Settings for the Binance client
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/tradelog.db")
	if strings.TrimSpace(cfg.DBPath) == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogPretty = getEnvAsBool("LOG_PRETTY", true)

	// Reconciliation
	cfg.ReconcileSchedule = strings.TrimSpace(getEnvOrEmpty("RECONCILE_SCHEDULE", "@every 1h"))
	if cfg.ReconcileSchedule != "" {
		if _, err := cron.ParseStandard(cfg.ReconcileSchedule); err != nil {
			errs = append(errs, fmt.Sprintf("invalid RECONCILE_SCHEDULE %q: %v", cfg.ReconcileSchedule, err))
		}
	}

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety

	// Connection Settings
	reconnectDelaySeconds, err := getEnvAsIntRequired("RECONNECT_DELAY_SECONDS", 5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RECONNECT_DELAY_SECONDS: %v", err))
	} else if reconnectDelaySeconds <= 0 {
		errs = append(errs, "RECONNECT_DELAY_SECONDS must be positive")
	}
	cfg.ReconnectDelay = time.Duration(reconnectDelaySeconds) * time.Second

	cfg.MaxReconnectAttempts, err = getEnvAsIntRequired("MAX_RECONNECT_ATTEMPTS", 10)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_RECONNECT_ATTEMPTS: %v", err))
	} else if cfg.MaxReconnectAttempts < 0 {
		errs = append(errs, "MAX_RECONNECT_ATTEMPTS cannot be negative")
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: configuration validation failed: %s", ports.ErrConfigurationError, strings.Join(errs, "; "))
	}

	return cfg, nil
}

// RequireExchangeCredentials reports an error unless both Binance keys are set.
func (c *Config) RequireExchangeCredentials() error {
	var errs []string
	if c.APIKey == "" {
		errs = append(errs, "BINANCE_API_KEY must be set")
	}
	if c.SecretKey == "" {
		errs = append(errs, "BINANCE_API_SECRET must be set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ports.ErrConfigurationError, strings.Join(errs, "; "))
	}
	return nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvOrEmpty distinguishes an unset variable from one set to "".
func getEnvOrEmpty(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
