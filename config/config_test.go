package config

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := parseFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Contains(t, cfg.DBUrl, "postgres://")
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 5*time.Second, cfg.EventServiceTimeout)
	assert.Equal(t, "noop", cfg.Email.Provider)
	assert.Equal(t, "us-east-1", cfg.Email.AWSRegion)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := parseFrom(map[string]string{
		"PORT":                     "9090",
		"STORE_DRIVER":             "SQLite",
		"JWT_SECRET":               "s3cret",
		"JWT_EXPIRY":               "2h",
		"EVENT_SERVICE_TIMEOUT":    "750ms",
		"CORS_ALLOWED_ORIGINS":     "http://localhost:3000, https://app.example.com,",
		"EMAIL_PROVIDER":           "ses",
		"EMAIL_FROM_ADDRESS":       "no-reply@example.com",
		"SES_INSECURE_SKIP_VERIFY": "true",
	})
	require.NoError(t, err)

	assert.Equal(t, StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, "file:eventhub.db", cfg.DBUrl)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 750*time.Millisecond, cfg.EventServiceTimeout)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "ses", cfg.Email.Provider)
	assert.Equal(t, "no-reply@example.com", cfg.Email.FromAddress)
	assert.True(t, cfg.Email.SESInsecureSkipVerify)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantMsg string
	}{
		{name: "unknown store", vars: map[string]string{"STORE_DRIVER": "mongo"}, wantMsg: "STORE_DRIVER"},
		{name: "production without secret", vars: map[string]string{"GO_ENV": "production"}, wantMsg: "JWT_SECRET"},
		{name: "test without secret", vars: map[string]string{"GO_ENV": "test"}, wantMsg: "JWT_SECRET is required in test"},
		{name: "staging without secret", vars: map[string]string{"GO_ENV": "staging"}, wantMsg: "JWT_SECRET is required in staging"},
		{name: "staging with dev secret", vars: map[string]string{"GO_ENV": "staging", "JWT_SECRET": devJWTSecret}, wantMsg: "set explicitly in staging"},
		{name: "bad duration", vars: map[string]string{"JWT_EXPIRY": "soon"}, wantMsg: "parse env"},
		{name: "zero timeout", vars: map[string]string{"EVENT_SERVICE_TIMEOUT": "0s"}, wantMsg: "EVENT_SERVICE_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFrom(tt.vars)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, EnvProduction, "warn")
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "shown", record["msg"])
	assert.Equal(t, "v", record["k"])

	buf.Reset()
	newLogger(&buf, EnvDevelopment, "debug").Debug("dev line")
	assert.Contains(t, buf.String(), "msg=\"dev line\"")
}
