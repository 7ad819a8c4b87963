package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CRYPTODASH_CONFIG", "")
	t.Setenv("CRYPTODASH_API_URL", "")
	t.Setenv("VITE_API_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, time.Duration(0), cfg.API.Timeout)
	assert.Equal(t, OtherPolicyOmit, cfg.Onboarding.OtherPolicy)
	assert.Equal(t, "prices,news", cfg.Refresh.Sections)
	assert.Empty(t, cfg.Refresh.Schedule)
	assert.Equal(t, time.Hour, cfg.Server.JWTTTL)
}

func TestLoad_EnvOverridesAndTrimsSlashes(t *testing.T) {
	t.Setenv("CRYPTODASH_API_URL", "https://api.example.com///")
	t.Setenv("CRYPTODASH_HTTP_TIMEOUT", "15s")
	t.Setenv("ONBOARDING_OTHER_POLICY", "raw")
	t.Setenv("DB_MAX_CONNS", "12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int32(12), cfg.Server.DBMaxConns)

	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, OtherPolicyRaw, cfg.Onboarding.OtherPolicy)
}

func TestLoad_ViteFallback(t *testing.T) {
	t.Setenv("CRYPTODASH_API_URL", "")
	t.Setenv("VITE_API_URL", "http://backend:9000/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000", cfg.API.BaseURL)
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cryptodash.yaml")
	content := []byte("api:\n  base_url: http://from-file:8000\nrefresh:\n  schedule: \"@every 5m\"\n  sections: news\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CRYPTODASH_CONFIG", path)
	t.Setenv("CRYPTODASH_API_URL", "")
	t.Setenv("VITE_API_URL", "")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://from-file:8000", cfg.API.BaseURL)
	assert.Equal(t, "@every 5m", cfg.Refresh.Schedule)
	assert.Equal(t, "news", cfg.Refresh.Sections)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("ONBOARDING_OTHER_POLICY", "sometimes")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("ONBOARDING_OTHER_POLICY", "")
	t.Setenv("CRYPTODASH_HTTP_TIMEOUT", "soon")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("CRYPTODASH_HTTP_TIMEOUT", "")
	t.Setenv("DB_MAX_CONNS", "0")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CRYPTODASH_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
