package models

import "time"

const (
	StatusOpen = "open"
	StatusDone = "done"

	MinPriority     = 1
	MaxPriority     = 5
	DefaultPriority = 3
)

type Item struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes"`
	Priority  int       `json:"priority"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidStatus reports whether s is a known item status.
func ValidStatus(s string) bool {
	return s == StatusOpen || s == StatusDone
}

const (
	EventItemCreated = "item.created"
	EventItemUpdated = "item.updated"
	EventItemDeleted = "item.deleted"
)

// Event is pushed to websocket subscribers after every item mutation.
type Event struct {
	Type string    `json:"type"`
	Item Item      `json:"item"`
	At   time.Time `json:"at"`
}
