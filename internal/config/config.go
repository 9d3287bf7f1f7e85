// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds the server settings.
type Config struct {
	Port        int           `env:"PORT,default=8080"`
	DBPath      string        `env:"DB_PATH,default=./data/befriend.db"`
	JWTSecret   string        `env:"JWT_SECRET,required"`
	TokenTTL    time.Duration `env:"TOKEN_TTL,default=24h"`
	FrontendURL string        `env:"FRONTEND_URL,default=http://localhost:3000"`
	CORSOrigin  string        `env:"CORS_ORIGIN"`
	LogLevel    string        `env:"LOG_LEVEL,default=info"`

	// SecureCookies marks the session cookie Secure. Enable behind HTTPS.
	SecureCookies bool `env:"SECURE_COOKIES,default=false"`

	// Google sign-in is enabled when GOOGLE_CLIENT_ID is set.
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
}

// Load reads envFiles (missing files are skipped) and then decodes the
// process environment. Variables already set in the environment win over
// the files.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = cfg.FrontendURL
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	if cfg.GoogleEnabled() && (cfg.GoogleClientSecret == "" || cfg.GoogleRedirectURL == "") {
		return nil, errors.New("GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URL are required with GOOGLE_CLIENT_ID")
	}
	return &cfg, nil
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
