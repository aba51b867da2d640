// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "LOG_LEVEL",
		"LEDGER_MIN_OPENING_BALANCE", "LEDGER_MAX_RETRIES", "LEDGER_RETRY_BACKOFF",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "ledgerdb", cfg.DB.DBName)
	assert.True(t, decimal.NewFromInt(2000).Equal(cfg.Ledger.MinOpeningBalance))
	assert.Equal(t, 3, cfg.Ledger.MaxRetries)
	assert.Equal(t, 25*time.Millisecond, cfg.Ledger.RetryBackoff)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_PORT", "6543")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LEDGER_MIN_OPENING_BALANCE", "0")
	t.Setenv("LEDGER_MAX_RETRIES", "5")
	t.Setenv("LEDGER_RETRY_BACKOFF", "100ms")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Ledger.MinOpeningBalance.IsZero())
	assert.Equal(t, 5, cfg.Ledger.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.Ledger.RetryBackoff)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"BadPort", "DB_PORT", "postgres"},
		{"BadMinimum", "LEDGER_MIN_OPENING_BALANCE", "two thousand"},
		{"NegativeMinimum", "LEDGER_MIN_OPENING_BALANCE", "-1"},
		{"BadRetries", "LEDGER_MAX_RETRIES", "many"},
		{"ZeroRetries", "LEDGER_MAX_RETRIES", "0"},
		{"BadBackoff", "LEDGER_RETRY_BACKOFF", "soon"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)

			cfg, err := LoadConfig()
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.key)
		})
	}
}
