// Package docstore provides a minimal document-store contract: schemaless
// records grouped into collections, equality filters, and single-field
// ordering. Compound queries (filter + order together) require a provisioned
// composite index; until the index is ready the store rejects them with a
// typed IndexError so callers can fall back to an unordered read.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document is one schemaless record. Implementations always include the "id"
// field on read.
type Document map[string]any

// Filter is a field equality predicate.
type Filter struct {
	Field string
	Value any
}

// Order sorts results by a single field.
type Order struct {
	Field string
	Desc  bool
}

var (
	ErrNotFound = errors.New("document not found")
	ErrExists   = errors.New("document already exists")
)

// IndexError reports a compound query whose composite index is not ready.
// It is a distinct failure mode: callers may substitute an unordered query,
// but must propagate every other error unchanged.
type IndexError struct {
	Collection  string
	FilterField string
	OrderField  string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index for %s (%s, %s) is not ready", e.Collection, e.FilterField, e.OrderField)
}

// IsIndexError reports whether err is an index-provisioning failure.
func IsIndexError(err error) bool {
	var ie *IndexError
	return errors.As(err, &ie)
}

// Store is the minimal persistence contract the application depends on.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Create(ctx context.Context, collection, id string, doc Document) error
	Update(ctx context.Context, collection, id string, patch Document) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, filters []Filter, order *Order) ([]Document, error)
}

// IndexStatus describes one composite index known to a store.
type IndexStatus struct {
	ID          uuid.UUID `json:"id"`
	Collection  string    `json:"collection"`
	FilterField string    `json:"filter_field"`
	OrderField  string    `json:"order_field"`
	Ready       bool      `json:"ready"`
}

// Provisioner is implemented by stores whose composite indexes are built
// out-of-band. A compound query on an unknown index registers it (not ready)
// and fails with IndexError; MarkReady completes the provisioning.
type Provisioner interface {
	ListIndexes(ctx context.Context) ([]IndexStatus, error)
	MarkReady(ctx context.Context, id uuid.UUID) error
}

// timeLayout keeps a fixed-width fraction so the text ordering the SQL store
// pushes down matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Now returns the current time in the canonical document timestamp encoding.
func Now() string {
	return time.Now().UTC().Format(timeLayout)
}

// ParseTime decodes a canonical document timestamp; zero time on failure.
func ParseTime(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatTime encodes t in the canonical document timestamp encoding.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
