// Package identities persists the fallback identity table: one opaque
// record per lower-cased email.
package identities

import "context"

// Repository stores raw identity records. Decoding is left to the caller so
// that a corrupt row can be reported without losing the rest of the table.
type Repository interface {
	// Insert adds a record; it returns common.ErrDuplicateEmail if emailKey exists.
	Insert(ctx context.Context, emailKey string, record []byte) error
	// Put inserts or replaces a record.
	Put(ctx context.Context, emailKey string, record []byte) error
	// Get returns common.ErrNotFound when emailKey is absent.
	Get(ctx context.Context, emailKey string) ([]byte, error)
	List(ctx context.Context) (map[string][]byte, error)
	Delete(ctx context.Context, emailKey string) error
	Clear(ctx context.Context) error
}
