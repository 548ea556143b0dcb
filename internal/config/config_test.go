package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := LoadServerConfig()

	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.AutoMigrate)
}

func TestLoadServerConfigRejectsDefaultSecretInProd(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadServerConfig()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadServerConfigInvalidDuration(t *testing.T) {
	t.Setenv("JWT_TTL", "soon")

	_, err := LoadServerConfig()
	assert.ErrorContains(t, err, "invalid JWT_TTL")
}

func TestLoadClientConfig(t *testing.T) {
	t.Setenv("LEADFLOW_PAGE_SIZE", "50")
	t.Setenv("LEADFLOW_MODAL_CLOSE_DELAY", "0s")
	t.Setenv("LEADFLOW_EXEMPT_STATUSES", "RNR,Not Reachable")

	cfg, err := LoadClientConfig()

	require.NoError(t, err)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, time.Duration(0), cfg.ModalCloseDelay)
	assert.Equal(t, 400.0, cfg.ScrollThreshold)
	assert.Equal(t, 3, cfg.MinCommentWords)
	assert.Equal(t, []string{"RNR", "Not Reachable"}, cfg.ExemptLabels)
}

func TestLoadClientConfigValidation(t *testing.T) {
	tests := map[string]string{
		"LEADFLOW_PAGE_SIZE":         "0",
		"LEADFLOW_REQUEST_TIMEOUT":   "0s",
		"LEADFLOW_SCROLL_THRESHOLD":  "-1",
		"LEADFLOW_MIN_COMMENT_WORDS": "abc",
	}
	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, value)
			_, err := LoadClientConfig()
			assert.ErrorContains(t, err, name)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LEADFLOW_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("LEADFLOW_TEST_VALUE", "")
	os.Unsetenv("LEADFLOW_TEST_VALUE")

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("LEADFLOW_TEST_VALUE"))
}
