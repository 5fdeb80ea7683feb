package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joestump/quotedb/internal/db"
)

func TestLoadFromEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("QUOTEDB_DRIVER", "postgres")
	t.Setenv("QUOTEDB_DSN", "postgres://localhost/quotes")
	t.Setenv("QUOTEDB_LOG_LEVEL", "debug")
	t.Setenv("QUOTEDB_VERBOSE", "true")
	viper.SetEnvPrefix("QUOTEDB")
	viper.AutomaticEnv()

	cfg := Load()
	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "postgres://localhost/quotes", cfg.DSN)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Verbose)

	driver, err := cfg.Store()
	require.NoError(t, err)
	assert.Equal(t, db.DriverPostgres, driver)
}

func TestStoreRequiresDSN(t *testing.T) {
	_, err := Config{Driver: "sqlite"}.Store()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn is required")
}

func TestStoreRejectsUnknownDriver(t *testing.T) {
	_, err := Config{Driver: "oracle", DSN: "x"}.Store()
	require.Error(t, err)
}
