package store

import (
	"errors"

	"github.com/pliu/attention-tracker/internal/models"
)

var ErrNotFound = errors.New("not found")

type Store interface {
	// Item operations
	CreateItem(item *models.Item) error
	GetItem(id int64) (*models.Item, error)
	ListItems(status string) ([]models.Item, error)
	UpdateItem(item *models.Item) error
	DeleteItem(id int64) error

	// Lifecycle
	Migrate() error
	Ping() error
	Close() error
}
