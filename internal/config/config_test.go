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
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "./data/befriend.db", cfg.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "http://localhost:3000", cfg.FrontendURL)
	assert.Equal(t, cfg.FrontendURL, cfg.CORSOrigin)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.SecureCookies)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("CORS_ORIGIN", "https://befriend.example.com")
	t.Setenv("SECURE_COOKIES", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "https://befriend.example.com", cfg.CORSOrigin)
	assert.True(t, cfg.SecureCookies)
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	t.Setenv("FRONTEND_URL", "https://from-env.example.com")

	path := filepath.Join(t.TempDir(), ".env")
	content := "JWT_SECRET=from-file\nFRONTEND_URL=https://from-file.example.com\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "https://from-env.example.com", cfg.FrontendURL, "environment wins over the file")
}

func TestLoadGoogle(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.GoogleEnabled())

	t.Setenv("GOOGLE_CLIENT_ID", "client-1")
	_, err = Load()
	assert.Error(t, err, "secret and redirect are required with a client id")

	t.Setenv("GOOGLE_CLIENT_SECRET", "shh")
	t.Setenv("GOOGLE_REDIRECT_URL", "http://localhost:3000/auth/google/callback")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.GoogleEnabled())
	assert.Equal(t, "client-1", cfg.GoogleClientID)
	assert.Equal(t, "http://localhost:3000/auth/google/callback", cfg.GoogleRedirectURL)
}
