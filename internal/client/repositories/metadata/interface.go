// Package metadata stores small named blobs in the client database, such as
// the persisted session record.
package metadata

import "context"

type Repository interface {
	// Get returns common.ErrNotFound when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value of key in a single statement.
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
