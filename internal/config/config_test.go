package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://intake@localhost:5432/intake")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "postgres://intake@localhost:5432/intake", cfg.DBDSN)
	assert.False(t, cfg.RLEnabled)
	assert.False(t, cfg.VisibilityFilter)
	assert.Equal(t, -2, cfg.VisibilityOffset)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, "", cfg.RabbitURL)
}

func TestLoad_BuildsDSNFromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_ADDR", "db:5432")
	t.Setenv("POSTGRES_USER", "intake")
	t.Setenv("POSTGRES_PASSWORD", "p@ss word")
	t.Setenv("POSTGRES_DB", "registrations")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://intake:p%40ss%20word@db:5432/registrations?sslmode=disable", cfg.DBDSN)
}

func TestLoad_MissingDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_ADDR", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidBool(t *testing.T) {
	for _, key := range []string{"VISIBILITY_FILTER", "RL_ENABLED"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://intake@localhost/intake")
			t.Setenv(key, "sometimes")

			var (
				cfg *Config
				err error
			)
			require.NotPanics(t, func() { cfg, err = Load() })
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), key+`="sometimes"`)
		})
	}
}

func TestLoad_LogSettings(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://intake@localhost/intake")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_RateLimitNeedsPositiveLimit(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://intake@localhost/intake")
	t.Setenv("RL_ENABLED", "true")
	t.Setenv("RL_REQUESTS_LIMIT", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MemoryDriverNeedsNoDatabase(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("DATABASE_URL", "postgres://intake@localhost:5432/intake")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
}
