// Package history records successful diagram generations.
//
// Each generation appends an [Entry] with the prompt, the cleaned source and
// the model that produced it. Backends:
//   - file: JSON lines under the user config directory, for the CLI
//   - mongo: a MongoDB collection, for shared server deployments
//   - null: history disabled
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultLimit is the number of entries returned when no limit is given.
const DefaultLimit = 20

// Entry is one recorded generation.
type Entry struct {
	ID        string    `json:"id" bson:"_id"`
	Prompt    string    `json:"prompt" bson:"prompt"`
	Source    string    `json:"source" bson:"source"`
	Model     string    `json:"model" bson:"model"`
	Dialect   string    `json:"dialect" bson:"dialect"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// NewEntry creates an entry with a fresh id and the current time.
func NewEntry(prompt, source, model, dialect string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		Source:    source,
		Model:     model,
		Dialect:   dialect,
		CreatedAt: time.Now().UTC(),
	}
}

// Store is the interface for history backends.
type Store interface {
	// Append records an entry.
	Append(ctx context.Context, e Entry) error

	// Recent returns up to limit entries, newest first.
	// A limit <= 0 means DefaultLimit.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// Close releases backend resources.
	Close() error
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// NullStore discards all entries.
type NullStore struct{}

func (NullStore) Append(context.Context, Entry) error          { return nil }
func (NullStore) Recent(context.Context, int) ([]Entry, error) { return nil, nil }
func (NullStore) Close() error                                 { return nil }

var _ Store = NullStore{}
