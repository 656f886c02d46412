package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/spice-ledger/internal/common"
)

func TestConfig_Validate(t *testing.T) {
	valid := func(mod func(*Config)) Config {
		c := DefaultConfig()
		c.ClientID = "test-client"
		c.ClientSecret = "test-secret"
		c.RefreshToken = "test-token"
		if mod != nil {
			mod(&c)
		}
		return c
	}

	tests := []struct {
		wantErr error
		name    string
		errMsg  string
		config  Config
	}{
		{
			name:   "valid oauth config",
			config: valid(nil),
		},
		{
			name: "valid service account config",
			config: valid(func(c *Config) {
				c.ClientID, c.ClientSecret, c.RefreshToken = "", "", ""
				c.ServiceAccountPath = "/path/to/key.json"
			}),
		},
		{
			name:    "partial oauth credentials",
			config:  valid(func(c *Config) { c.ClientSecret = "" }),
			wantErr: common.ErrMissingConfig,
			errMsg:  "no Google Sheets authentication method configured",
		},
		{
			name:    "multiple auth methods",
			config:  valid(func(c *Config) { c.ServiceAccountPath = "/path/to/key.json" }),
			wantErr: common.ErrInvalidConfig,
			errMsg:  "multiple authentication methods configured",
		},
		{
			name:    "no spreadsheet id or name",
			config:  valid(func(c *Config) { c.SpreadsheetName = "" }),
			wantErr: common.ErrMissingConfig,
		},
		{
			name:    "invalid batch size",
			config:  valid(func(c *Config) { c.BatchSize = 0 }),
			wantErr: common.ErrInvalidConfig,
			errMsg:  "batch size must be positive",
		},
		{
			name:    "negative retry attempts",
			config:  valid(func(c *Config) { c.RetryAttempts = -1 }),
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:   "zero retry delay is valid",
			config: valid(func(c *Config) { c.RetryAttempts, c.RetryDelay = 0, 0 }),
		},
		{
			name:    "negative retry delay",
			config:  valid(func(c *Config) { c.RetryDelay = -time.Second }),
			wantErr: common.ErrInvalidConfig,
			errMsg:  "retry delay cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestConfig_LoadFromEnv(t *testing.T) {
	tests := []struct {
		envVars map[string]string
		check   func(t *testing.T, c Config)
		preset  Config
		name    string
	}{
		{
			name: "oauth credentials",
			envVars: map[string]string{
				"GOOGLE_SHEETS_CLIENT_ID":        "test-client",
				"GOOGLE_SHEETS_CLIENT_SECRET":    "test-secret",
				"GOOGLE_SHEETS_REFRESH_TOKEN":    "test-token",
				"GOOGLE_SHEETS_SPREADSHEET_ID":   "test-id",
				"GOOGLE_SHEETS_SPREADSHEET_NAME": "Test Sheet",
			},
			preset: DefaultConfig(),
			check: func(t *testing.T, c Config) {
				t.Helper()
				assert.Equal(t, "test-client", c.ClientID)
				assert.Equal(t, "test-secret", c.ClientSecret)
				assert.Equal(t, "test-token", c.RefreshToken)
				assert.Equal(t, "test-id", c.SpreadsheetID)
				assert.Equal(t, "Test Sheet", c.SpreadsheetName)
			},
		},
		{
			name:    "default name kept without env",
			envVars: map[string]string{"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH": "/path/to/key.json"},
			preset:  DefaultConfig(),
			check: func(t *testing.T, c Config) {
				t.Helper()
				assert.Equal(t, "/path/to/key.json", c.ServiceAccountPath)
				assert.Equal(t, DefaultSpreadsheetName, c.SpreadsheetName)
			},
		},
		{
			name:    "configured values win over env",
			envVars: map[string]string{"GOOGLE_SHEETS_CLIENT_ID": "env-client", "GOOGLE_SHEETS_SPREADSHEET_NAME": "Env Sheet"},
			preset:  Config{ClientID: "file-client", SpreadsheetName: "Budget"},
			check: func(t *testing.T, c Config) {
				t.Helper()
				assert.Equal(t, "file-client", c.ClientID)
				assert.Equal(t, "Budget", c.SpreadsheetName)
			},
		},
	}

	keys := []string{
		"GOOGLE_SHEETS_CLIENT_ID", "GOOGLE_SHEETS_CLIENT_SECRET", "GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "GOOGLE_SHEETS_SPREADSHEET_ID", "GOOGLE_SHEETS_SPREADSHEET_NAME",
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range keys {
				t.Setenv(key, tt.envVars[key])
			}

			config := tt.preset
			config.LoadFromEnv()
			tt.check(t, config)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.True(t, config.EnableFormatting)
	assert.Equal(t, DefaultSpreadsheetName, config.SpreadsheetName)
	assert.Equal(t, "America/New_York", config.TimeZone)
	assert.Equal(t, 1000, config.BatchSize)
	assert.Equal(t, 3, config.RetryAttempts)
	assert.Equal(t, time.Second, config.RetryDelay)
}
