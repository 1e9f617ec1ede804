package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unlockd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: 0.0.0.0:9000
token_ttl: 30s
user_header: X-Remote-User
rate_limit:
  rps: 1.5
  burst: 3
log:
  json: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddr)
	assert.Equal(t, 30*time.Second, cfg.TokenTTL)
	assert.Equal(t, "X-Remote-User", cfg.UserHeader)
	assert.Equal(t, RateLimit{RPS: 1.5, Burst: 3}, cfg.RateLimit)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "data/unlock.db", cfg.Database, "unset fields keep defaults")
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: x\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.TokenTTL = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.UserHeader = " "
	assert.Error(t, cfg.Validate())
}

func TestLoadSecret(t *testing.T) {
	t.Setenv(SecretEnv, "")
	cfg := Default()
	_, err := cfg.LoadSecret()
	assert.Error(t, err)

	cfg.SecretFile = filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(cfg.SecretFile, []byte("  file-secret\n"), 0o600))
	got, err := cfg.LoadSecret()
	require.NoError(t, err)
	assert.Equal(t, "file-secret", string(got))

	t.Setenv(SecretEnv, "env-secret")
	got, err = cfg.LoadSecret()
	require.NoError(t, err)
	assert.Equal(t, "env-secret", string(got))
}
