package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, 5, cfg.TopClientsLimit)
		assert.Equal(t, "localhost", cfg.DB.Host)
		assert.Empty(t, cfg.JobsAPIKey)
	})

	t.Run("environment_overrides", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("JOBS_API_KEY", "cron-key")
		t.Setenv("TOP_CLIENTS_LIMIT", "10")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, "db.internal", cfg.DB.Host)
		assert.Equal(t, "cron-key", cfg.JobsAPIKey)
		assert.Equal(t, 10, cfg.TopClientsLimit)
		assert.Contains(t, cfg.DSN(), "host=db.internal")
		assert.Contains(t, cfg.MigrationURL(), "@db.internal:5432/")
	})

	t.Run("rejects_non_positive_top_clients", func(t *testing.T) {
		t.Setenv("TOP_CLIENTS_LIMIT", "0")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &Config{CORSAllowedOrigins: "https://app.example.com, https://admin.example.com,,"}
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.AllowedOrigins())
}
