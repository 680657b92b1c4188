package store

import (
	"context"
	"strings"

	"github.com/gcbaptista/go-lostfound/model"
)

// Filter narrows GetRecords. Zero values match everything.
type Filter struct {
	Type   model.ItemType
	Search string // case-insensitive substring over name, description and place
}

// Reader is the read side of a record store. The matcher depends only on this.
type Reader interface {
	// GetRecords returns matching records in insertion order.
	GetRecords(ctx context.Context, filter Filter) ([]model.Item, error)
	Get(ctx context.Context, id string) (model.Item, error)
}

// Store is a full record store.
type Store interface {
	Reader
	Add(ctx context.Context, item model.Item) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Matches reports whether item passes filter.
func (f Filter) Matches(item model.Item) bool {
	if f.Type != "" && item.Type != f.Type {
		return false
	}
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	for _, field := range []*string{item.Name, item.Description, item.Place} {
		if field != nil && strings.Contains(strings.ToLower(*field), needle) {
			return true
		}
	}
	return false
}
