package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithSecretFromEnv(t *testing.T) {
	t.Setenv("TENANTGATE_SESSION_SECRET", "dev-secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "dev-secret", cfg.Session.Secret)
	assert.Equal(t, "session", cfg.Session.CookieName)
	assert.Equal(t, 1500*time.Millisecond, cfg.Policy.Timeout)
	assert.Equal(t, "ip-sensitive", cfg.RateLimit.KeyPrefix)
	assert.Equal(t, 30, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Contains(t, cfg.Routes.Public, "/sign-in")
	assert.Contains(t, cfg.Routes.Sensitive, "/api/messages")
	assert.Contains(t, cfg.Routes.BillingExempt, "/api/payments")
	assert.Equal(t, "messaging", cfg.Routes.FeatureMap["/api/messages"])
	assert.Equal(t, "/dashboard/settings/billing", cfg.Routes.BillingPath)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Setenv("TENANTGATE_SESSION_SECRET", "dev-secret")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
rate_limit:
  max: 5
  window: 10s
policy:
  base_url: "http://policy.internal/api"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, "http://policy.internal/api", cfg.Policy.BaseURL)
	// Defaults not named in the file survive.
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_MissingSecretFails(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_RejectsBadRule(t *testing.T) {
	t.Setenv("TENANTGATE_SESSION_SECRET", "dev-secret")
	t.Setenv("TENANTGATE_RATE_LIMIT_MAX", "0")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_RejectsBadLogLevel(t *testing.T) {
	t.Setenv("TENANTGATE_SESSION_SECRET", "dev-secret")
	t.Setenv("TENANTGATE_LOG_LEVEL", "verbose")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_RejectsMalformedPolicyURL(t *testing.T) {
	t.Setenv("TENANTGATE_SESSION_SECRET", "dev-secret")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
policy:
  base_url: "not a url"
`), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsPathInBothRoleAreas(t *testing.T) {
	t.Setenv("TENANTGATE_SESSION_SECRET", "dev-secret")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
routes:
  back_office:
    - /dashboard/hr
    - /api/pos
  field:
    - /field
    - /api/pos
`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/api/pos")
}

func TestLoad_MissingFileFails(t *testing.T) {
	t.Setenv("TENANTGATE_SESSION_SECRET", "dev-secret")

	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
