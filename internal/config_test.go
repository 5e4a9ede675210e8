package internal

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CATALOG_API_URL", "http://catalog.internal:3000")
}

func TestNewConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 5, cfg.DefaultPageSize)
	assert.Equal(t, 10*time.Second, cfg.CatalogAPITimeout)
	assert.Equal(t, "X-Actor-Role", cfg.RoleHeader)
	assert.Equal(t, "X-Actor-Tenant", cfg.TenantHeader)
	assert.Equal(t, 60, cfg.WriteRateLimit)
	assert.False(t, cfg.HSTSEnabled)
	assert.Empty(t, cfg.ValidationRulesFile)
}

func TestNewConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("DEFAULT_PAGE_SIZE", "25")
	t.Setenv("CATALOG_API_TIMEOUT", "3s")
	t.Setenv("ROLE_HEADER", "X-Role")
	t.Setenv("HSTS_ENABLED", "true")
	t.Setenv("VALIDATION_RULES_FILE", "rules.yaml")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 25, cfg.DefaultPageSize)
	assert.Equal(t, 3*time.Second, cfg.CatalogAPITimeout)
	assert.Equal(t, "X-Role", cfg.RoleHeader)
	assert.True(t, cfg.HSTSEnabled)
	assert.Equal(t, "rules.yaml", cfg.ValidationRulesFile)
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "missing API URL", env: map[string]string{"CATALOG_API_URL": ""}, wantErr: "CATALOG_API_URL is required"},
		{name: "relative API URL", env: map[string]string{"CATALOG_API_URL": "catalog.internal"}, wantErr: "must be an absolute URL"},
		{name: "bad port", env: map[string]string{"PORT": "http"}, wantErr: "PORT must be an integer"},
		{name: "port out of range", env: map[string]string{"PORT": "70000"}, wantErr: "PORT must be between"},
		{name: "zero page size", env: map[string]string{"DEFAULT_PAGE_SIZE": "0"}, wantErr: "DEFAULT_PAGE_SIZE must be positive"},
		{name: "bad duration", env: map[string]string{"CATALOG_API_TIMEOUT": "soon"}, wantErr: "CATALOG_API_TIMEOUT must be a duration"},
		{name: "bad bool", env: map[string]string{"HSTS_ENABLED": "maybe"}, wantErr: "HSTS_ENABLED must be a boolean"},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "verbose"}, wantErr: "LOG_LEVEL must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := NewConfig()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewConfig_ReportsEveryProblem(t *testing.T) {
	t.Setenv("CATALOG_API_URL", "")
	t.Setenv("PORT", "x")
	t.Setenv("DEFAULT_PAGE_SIZE", "-1")

	_, err := NewConfig()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "production", "warn")

	logger.Info("dropped")
	logger.Warn("kept", "product_id", "p-1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, ServiceName, record["service"])
	assert.Equal(t, "p-1", record["product_id"])
}

func TestNewLogger_DevelopmentIsText(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "development", "debug").Debug("hello")

	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "service=catalog-admin")
}
