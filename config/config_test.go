package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("ADDR", "")
	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "static/customer_images", cfg.GalleryRoot)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Len(t, cfg.SessionSecret, 32, "a random secret is generated")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ADDR", "127.0.0.1:9000")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("RECAPTCHA_SITE_KEY", " site ")
	t.Setenv("DATABASE_URL", "postgres://localhost/carenest")
	t.Setenv("LOG_DEV", "true")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, []byte("s3cret"), cfg.SessionSecret)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "site", cfg.RecaptchaSiteKey)
	assert.Equal(t, "postgres://localhost/carenest", cfg.DatabaseURL)
	assert.True(t, cfg.LogDev)
}

func TestLoadRejectsBadTTL(t *testing.T) {
	t.Setenv("SESSION_TTL", "-1h")
	_, err := Load(New())
	assert.Error(t, err)
}
