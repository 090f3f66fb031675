package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Environment variables read by Load.
const (
	EnvDBPath            = "ATTENTION_TRACKER_DB"
	EnvDatabaseURL       = "DATABASE_URL"
	EnvBasicAuthUser     = "BASIC_AUTH_USER"
	EnvBasicAuthPassword = "BASIC_AUTH_PASSWORD"
	EnvAddr              = "ATTENTION_TRACKER_ADDR"
	EnvLogLevel          = "LOG_LEVEL"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	DefaultDBPath = "attention_tracker.db"
)

// Config holds everything the application needs at construction time.
type Config struct {
	Addr              string
	DBPath            string
	DatabaseURL       string
	BasicAuthUser     string
	BasicAuthPassword string
	LogLevel          string
}

// Load reads configuration from the environment. Empty variables count as unset.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	bindings := map[string]string{
		"addr":                EnvAddr,
		"db_path":             EnvDBPath,
		"database_url":        EnvDatabaseURL,
		"basic_auth_user":     EnvBasicAuthUser,
		"basic_auth_password": EnvBasicAuthPassword,
		"log_level":           EnvLogLevel,
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	cfg := &Config{
		Addr:              v.GetString("addr"),
		DBPath:            v.GetString("db_path"),
		DatabaseURL:       v.GetString("database_url"),
		BasicAuthUser:     v.GetString("basic_auth_user"),
		BasicAuthPassword: v.GetString("basic_auth_password"),
		LogLevel:          v.GetString("log_level"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("db_path", DefaultDBPath)
	v.SetDefault("log_level", "info")
}

// Validate checks that a data source is configured.
func (c *Config) Validate() error {
	if c.DataSource() == "" {
		return errors.New("config: no database configured")
	}
	return nil
}

// BasicAuthEnabled reports whether both credentials are present.
func (c *Config) BasicAuthEnabled() bool {
	return c.BasicAuthUser != "" && c.BasicAuthPassword != ""
}

// Driver returns the database/sql driver name for the configured store.
// DATABASE_URL wins over the file path.
func (c *Config) Driver() string {
	if c.DatabaseURL != "" {
		return DriverPostgres
	}
	return DriverSQLite
}

// DataSource returns the DSN handed to the driver returned by Driver.
func (c *Config) DataSource() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DBPath
}
