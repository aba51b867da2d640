// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"bank-ledger/pkg/db" // Import db package for its Config struct
)

const (
	defaultLogLevel          = "info"
	defaultMinOpeningBalance = "2000"
	defaultMaxRetries        = 3
	defaultRetryBackoff      = 25 * time.Millisecond
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	LogLevel string
	DB       db.Config
	Ledger   LedgerConfig
}

// LedgerConfig holds the rules and retry policy of the ledger engine.
type LedgerConfig struct {
	MinOpeningBalance decimal.Decimal // Smallest balance an account may be opened with
	MaxRetries        int             // Attempts per operation on transient storage conflicts
	RetryBackoff      time.Duration   // Pause between attempts
}

// LoadConfig loads configuration from environment variables, after reading an
// optional .env file from the working directory.
// It returns an AppConfig instance or an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	minOpening, err := decimal.NewFromString(getEnv("LEDGER_MIN_OPENING_BALANCE", defaultMinOpeningBalance))
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_MIN_OPENING_BALANCE: %w", err)
	}
	if minOpening.IsNegative() {
		return nil, fmt.Errorf("invalid LEDGER_MIN_OPENING_BALANCE: must not be negative, got %s", minOpening)
	}

	maxRetries := defaultMaxRetries
	if v := os.Getenv("LEDGER_MAX_RETRIES"); v != "" {
		maxRetries, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LEDGER_MAX_RETRIES: %w", err)
		}
		if maxRetries < 1 {
			return nil, fmt.Errorf("invalid LEDGER_MAX_RETRIES: must be at least 1, got %d", maxRetries)
		}
	}

	retryBackoff := defaultRetryBackoff
	if v := os.Getenv("LEDGER_RETRY_BACKOFF"); v != "" {
		retryBackoff, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LEDGER_RETRY_BACKOFF: %w", err)
		}
	}

	return &AppConfig{
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DB: db.Config{
			Host:     getEnv("DB_HOST", "localhost"), // Default to localhost for local development
			Port:     dbPort,
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "ledgerdb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Ledger: LedgerConfig{
			MinOpeningBalance: minOpening,
			MaxRetries:        maxRetries,
			RetryBackoff:      retryBackoff,
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
