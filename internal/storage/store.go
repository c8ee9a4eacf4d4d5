// Package storage persists named JSON documents. It carries no business
// logic: callers decide what lives under each key.
package storage

import (
	"context"
	"errors"
)

// ErrEmptyKey is returned when a document key is blank.
var ErrEmptyKey = errors.New("storage: key is required")

// Store reads and writes JSON-serialized documents under named keys.
type Store interface {
	// Get decodes the document stored under key into dst. It reports
	// false with a nil error when nothing is stored under key.
	Get(ctx context.Context, key string, dst any) (bool, error)

	// Set replaces the document stored under key with v.
	Set(ctx context.Context, key string, v any) error

	// Delete removes the document stored under key. Deleting a missing
	// key is not an error.
	Delete(ctx context.Context, key string) error
}
