package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pliu/attention-tracker/internal/config"
	"github.com/pliu/attention-tracker/internal/store/sqlstore"
)

// Init prepares the store named by the current environment. It is safe to
// call repeatedly; once it returns the schema exists.
func Init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return InitWith(cfg)
}

// InitWith prepares the store described by cfg and closes its connection.
func InitWith(cfg *config.Config) error {
	s, err := Open(cfg)
	if err != nil {
		return err
	}
	return s.Close()
}

// Open connects to the configured store and ensures the schema exists.
func Open(cfg *config.Config) (*sqlstore.SQLStore, error) {
	if cfg.Driver() == config.DriverSQLite {
		if path := sqliteFile(cfg.DBPath); path != "" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
	}

	s, err := sqlstore.New(cfg.Driver(), cfg.DataSource())
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// sqliteFile returns the file a go-sqlite3 DSN points at, or "" for
// in-memory databases. "file:" URIs are reduced to their path.
func sqliteFile(dsn string) string {
	path := dsn
	if rest, ok := strings.CutPrefix(dsn, "file:"); ok {
		var query string
		path, query, _ = strings.Cut(rest, "?")
		if strings.Contains(query, "mode=memory") {
			return ""
		}
	}
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return ""
	}
	return path
}
