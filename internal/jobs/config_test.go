package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("reads env", func(t *testing.T) {
		t.Setenv("API_URL", "http://localhost:8080")
		t.Setenv("JOBS_API_KEY", "key")
		t.Setenv("JOB_ORG_IDS", "org-1,org-2")
		t.Setenv("REQUEST_TIMEOUT", "5s")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080", cfg.APIURL)
		assert.Equal(t, []string{"org-1", "org-2"}, cfg.OrgIDs)
		assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
		assert.Empty(t, cfg.Period)
	})

	t.Run("requires API key", func(t *testing.T) {
		t.Setenv("API_URL", "http://localhost:8080")
		t.Setenv("JOBS_API_KEY", "")
		t.Setenv("JOB_ORG_IDS", "org-1")

		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("rejects non-positive timeout", func(t *testing.T) {
		t.Setenv("API_URL", "http://localhost:8080")
		t.Setenv("JOBS_API_KEY", "key")
		t.Setenv("JOB_ORG_IDS", "org-1")
		t.Setenv("REQUEST_TIMEOUT", "0s")

		_, err := LoadConfig()
		assert.Error(t, err)
	})
}

func TestLoadConfig_TrimsOrgIDs(t *testing.T) {
	t.Setenv("API_URL", "http://localhost:8080")
	t.Setenv("JOBS_API_KEY", "key")
	t.Setenv("JOB_ORG_IDS", " org-1 ,,org-2")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"org-1", "org-2"}, cfg.OrgIDs)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}
