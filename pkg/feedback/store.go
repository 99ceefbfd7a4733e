// Package feedback records answered queries and the ratings users give them.
package feedback

import (
	"context"
	"time"
)

// Query is an answered chat request.
type Query struct {
	ID           string        `json:"query_id"`
	Question     string        `json:"question"`
	Answer       string        `json:"answer"`
	SourceCount  int           `json:"source_count"`
	ResponseTime time.Duration `json:"response_time"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Entry is a rating of one query.
type Entry struct {
	QueryID   string    `json:"query_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"feedback,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists queries and feedback entries.
type Store interface {
	// PutQuery records an answered query. Re-putting an ID replaces it.
	PutQuery(ctx context.Context, q *Query) error

	// GetQuery retrieves a query by ID. Returns ErrNotFound if it doesn't exist.
	GetQuery(ctx context.Context, id string) (*Query, error)

	// Put records a feedback entry. Entries are never replaced; a query can be
	// rated more than once.
	Put(ctx context.Context, e *Entry) error

	// List returns every entry, oldest first.
	List(ctx context.Context) ([]*Entry, error)

	// ListByQuery returns the entries for one query, oldest first.
	ListByQuery(ctx context.Context, queryID string) ([]*Entry, error)

	// Close closes the store and releases any resources.
	Close() error
}

// ErrNotFound is returned when a query doesn't exist in the store.
type ErrNotFound struct {
	ID string
}

func (e ErrNotFound) Error() string {
	if e.ID == "" {
		return "query not found"
	}

	return "query not found: " + e.ID
}
