package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/joestump/quotedb/internal/db"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Config holds all runtime configuration for quotedb.
type Config struct {
	Driver   string
	DSN      string
	LogLevel string
	Verbose  bool
}

// Load reads configuration from viper, which merges flag values, env vars,
// and defaults (set up by the cobra command in cmd/quotedb).
func Load() Config {
	return Config{
		Driver:   viper.GetString("driver"),
		DSN:      viper.GetString("dsn"),
		LogLevel: viper.GetString("log_level"),
		Verbose:  viper.GetBool("verbose"),
	}
}

// Store returns the configured driver after checking the DSN is set.
func (c Config) Store() (db.Driver, error) {
	driver, err := db.ParseDriver(c.Driver)
	if err != nil {
		return "", err
	}
	if c.DSN == "" {
		return "", fmt.Errorf("dsn is required for driver %s", driver)
	}
	return driver, nil
}
