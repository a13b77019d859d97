// Package userdata persists per-user cached collections in a namespace
// keyed first by owner id, then by data kind.
package userdata

import (
	"context"

	"github.com/dmitrijs2005/gophwalk/internal/client/models"
)

type Repository interface {
	Put(ctx context.Context, ownerID string, kind models.DataKind, value []byte) error
	// ListOwner returns every stored kind for ownerID.
	ListOwner(ctx context.Context, ownerID string) (map[models.DataKind][]byte, error)
	// DeleteOwner drops the whole namespace of ownerID.
	DeleteOwner(ctx context.Context, ownerID string) (int64, error)
	// DeleteKinds drops the given kinds for every owner.
	DeleteKinds(ctx context.Context, kinds []models.DataKind) (int64, error)
}
