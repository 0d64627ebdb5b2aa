package config

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("STORE", "memory")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 365*24*time.Hour, cfg.VoterTokenTTL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, http.SameSiteLaxMode, cfg.CookieSameSite)
	assert.True(t, cfg.CookieSecure)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestLoad_PostgresFromParts(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("POSTGRES_USER", "arena")
	t.Setenv("POSTGRES_PASSWORD", "p@ss word")
	t.Setenv("POSTGRES_DB", "predix")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load([]string{"-store", "postgres"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://arena:p%40ss%20word@db:5433/predix?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("STORE", "memory")
	t.Setenv("HTTP_ADDR", ":9000")

	cfg, err := Load([]string{"-addr", ":9100", "-log-format", "json", "-log-level", "debug"})
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.HTTPAddr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.NotNil(t, cfg.NewLogger(nil))
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("STORE", "redis")
	t.Setenv("COOKIE_SAMESITE", "sometimes")
	t.Setenv("REQUEST_TIMEOUT", "soon")

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "STORE")
	assert.Contains(t, err.Error(), "COOKIE_SAMESITE")
	assert.Contains(t, err.Error(), "REQUEST_TIMEOUT")
}

func TestLoad_SameSiteNoneNeedsSecure(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("STORE", "memory")
	t.Setenv("COOKIE_SAMESITE", "none")
	t.Setenv("COOKIE_SECURE", "false")

	_, err := Load(nil)
	require.Error(t, err)
}

func TestLoadDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@h:5432/d")

	db, err := LoadDatabase("migrations", nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@h:5432/d", db.URL)

	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_USER", "")
	_, err = LoadDatabase("migrations", nil)
	require.Error(t, err)
}
