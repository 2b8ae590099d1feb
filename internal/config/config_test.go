package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "PORT", "DATABASE_URL", "POSTGRES_ADDR", "POSTGRES_USER", "POSTGRES_PASSWORD",
		"POSTGRES_DB", "JWT_SECRET", "RL_ENABLED", "RL_REQUESTS_LIMIT", "RL_WINDOW_SECONDS",
		"CAPACITY_CACHE_TTL", "CORS_ALLOWED_ORIGINS", "OUTBOX_RETENTION",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_FailsWithoutDatabase(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing database config")
}

func TestLoad_FailsWithoutJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/rsvp")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_BuildsDSNAndDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("POSTGRES_ADDR", "db:5432")
	t.Setenv("POSTGRES_USER", "rsvp")
	t.Setenv("POSTGRES_PASSWORD", "p@ss word")
	t.Setenv("POSTGRES_DB", "rsvp")
	t.Setenv("CAPACITY_CACHE_TTL", "2s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://rsvp:p%40ss%20word@db:5432/rsvp?sslmode=disable", cfg.DBDSN)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.CapacityCacheTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 7*24*time.Hour, cfg.OutboxRetention)
	assert.True(t, cfg.RLEnabled)
}

func TestGetBool_PanicsOnGarbage(t *testing.T) {
	t.Setenv("SOME_FLAG", "maybe")
	assert.Panics(t, func() { getBool("SOME_FLAG", false) })
}
