package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  admin_allowlist: ["10.0.0.0/8", "127.0.0.1"]
  trusted_proxies: ["172.16.0.0/12"]
security:
  jwt_secret: "a-test-secret-of-enough-length"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.Server.AdminAllowlist)
	assert.Equal(t, []string{"172.16.0.0/12"}, cfg.Server.TrustedProxies)
	assert.Equal(t, "sqlite", cfg.Database.Mode)
	assert.Equal(t, 60*time.Minute, cfg.Security.JWTTTL)
	assert.Equal(t, 12, cfg.Security.BcryptCost)
	assert.Equal(t, 5, cfg.Security.LoginMaxFailures)
	assert.Equal(t, 15*time.Minute, cfg.Security.LoginLockout)
	assert.Equal(t, 720*time.Hour, cfg.Audit.Retention)
}

func TestLoad_EnvOverridesSecret(t *testing.T) {
	t.Setenv("GAMEAPI_SECURITY_JWT_SECRET", "secret-from-the-environment")
	path := writeConfig(t, "server:\n  port: 8081\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-from-the-environment", cfg.Security.JWTSecret)
}

func TestLoad_NoFileUsesEnv(t *testing.T) {
	t.Setenv("GAMEAPI_SECURITY_JWT_SECRET", "secret-from-the-environment")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Empty(t, cfg.Server.TrustedProxies)
}

func TestLoad_MissingSecret(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8081\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "jwt_secret is required")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		Database: DatabaseConfig{Mode: "sqlite"},
		Security: SecurityConfig{JWTSecret: "0123456789abcdef", JWTTTL: time.Hour},
	}
	require.NoError(t, base.Validate())

	short := base
	short.Security.JWTSecret = "short"
	assert.ErrorContains(t, short.Validate(), "too short")

	noTTL := base
	noTTL.Security.JWTTTL = 0
	assert.Error(t, noTTL.Validate())

	badMode := base
	badMode.Database.Mode = "embedded_xml"
	assert.Error(t, badMode.Validate())
}
