package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_Environment(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":8080")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("VAULT_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "vaults")

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseEnv(cfg, ""))

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "smtp.example.com", cfg.SMTPHost)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.True(t, cfg.SMTPEnabled())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, VaultBackendS3, cfg.VaultBackend)
	assert.Equal(t, "vaults", cfg.S3Bucket)

	// untouched
	assert.Equal(t, "dev-secret", cfg.SecretKey)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
}

func TestParseEnv_DotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("APP_NAME=DotenvApp\nREFRESH_EXPIRES_IN=2d\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("APP_NAME")
		_ = os.Unsetenv("REFRESH_EXPIRES_IN")
	})

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseEnv(cfg, path))

	assert.Equal(t, "DotenvApp", cfg.AppName)
	assert.Equal(t, 48*time.Hour, cfg.RefreshTokenValidityDuration)
}

func TestParseEnv_MissingDotenvIsFine(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()
	assert.NoError(t, parseEnv(cfg, filepath.Join(t.TempDir(), "nope.env")))
}

func TestParseEnv_BadDuration(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "soon")

	cfg := &Config{}
	assert.Error(t, parseEnv(cfg, ""))
}
