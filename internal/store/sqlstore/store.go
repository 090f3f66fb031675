package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"           // Postgres driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/pliu/attention-tracker/internal/models"
	"github.com/pliu/attention-tracker/internal/store"
)

type SQLStore struct {
	db         *sql.DB
	driverName string
}

var _ store.Store = (*SQLStore)(nil)

// New opens and pings the database. It does not create the schema; call Migrate.
func New(driverName, dataSourceName string) (*SQLStore, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driverName, err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", driverName, err)
	}
	if driverName == "sqlite3" {
		// A single writer avoids SQLITE_BUSY between handler goroutines.
		db.SetMaxOpenConns(1)
	}

	return &SQLStore{db: db, driverName: driverName}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	priority INTEGER NOT NULL DEFAULT 3,
	status TEXT NOT NULL DEFAULT 'open',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_status ON items (status);
`

// Migrate creates the schema. It is safe to call any number of times.
func (s *SQLStore) Migrate() error {
	query := schema
	if s.driverName == "postgres" {
		query = strings.ReplaceAll(query, "INTEGER PRIMARY KEY AUTOINCREMENT", "BIGSERIAL PRIMARY KEY")
		query = strings.ReplaceAll(query, "DATETIME", "TIMESTAMPTZ")
	}

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

func (s *SQLStore) Ping() error {
	return s.db.Ping()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Helper to handle placeholders
func (s *SQLStore) rebind(query string) string {
	if s.driverName == "postgres" {
		// Replace ? with $1, $2, etc.
		n := strings.Count(query, "?")
		for i := 1; i <= n; i++ {
			query = strings.Replace(query, "?", fmt.Sprintf("$%d", i), 1)
		}
	}
	return query
}

func (s *SQLStore) CreateItem(item *models.Item) error {
	now := time.Now().UTC()
	if item.Status == "" {
		item.Status = models.StatusOpen
	}
	if item.Priority == 0 {
		item.Priority = models.DefaultPriority
	}

	query := s.rebind("INSERT INTO items (title, notes, priority, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?) RETURNING id")
	err := s.db.QueryRow(query, item.Title, item.Notes, item.Priority, item.Status, now, now).Scan(&item.ID)
	if err != nil {
		return err
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

func (s *SQLStore) GetItem(id int64) (*models.Item, error) {
	var item models.Item
	query := s.rebind("SELECT id, title, notes, priority, status, created_at, updated_at FROM items WHERE id = ?")
	err := s.db.QueryRow(query, id).Scan(&item.ID, &item.Title, &item.Notes, &item.Priority, &item.Status, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems returns items ordered by priority, highest first. An empty status lists all.
func (s *SQLStore) ListItems(status string) ([]models.Item, error) {
	query := "SELECT id, title, notes, priority, status, created_at, updated_at FROM items"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY priority DESC, id ASC"

	rows, err := s.db.Query(s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.Title, &item.Notes, &item.Priority, &item.Status, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLStore) UpdateItem(item *models.Item) error {
	item.UpdatedAt = time.Now().UTC()
	query := s.rebind("UPDATE items SET title = ?, notes = ?, priority = ?, status = ?, updated_at = ? WHERE id = ?")
	result, err := s.db.Exec(query, item.Title, item.Notes, item.Priority, item.Status, item.UpdatedAt, item.ID)
	if err != nil {
		return err
	}
	return expectRow(result)
}

func (s *SQLStore) DeleteItem(id int64) error {
	query := s.rebind("DELETE FROM items WHERE id = ?")
	result, err := s.db.Exec(query, id)
	if err != nil {
		return err
	}
	return expectRow(result)
}

func expectRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}
