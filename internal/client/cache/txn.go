package cache

import (
	"context"
	"fmt"
	"maps"

	"github.com/dmitrijs2005/gophwalk/internal/client/models"
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/userdata"
)

// Txn is a staged change to the cache. Durable rows change as its methods
// run; the live generation is swapped only by Commit. The cache stays locked
// while a Txn is open, so Get and Put wait for it.
type Txn struct {
	c    *Cache
	repo userdata.Repository
	live *generation
	done bool
}

// Using routes the Txn's durable reads and writes through repo, typically
// one bound to a database transaction.
func (t *Txn) Using(repo userdata.Repository) *Txn {
	t.repo = repo
	return t
}

// Owner is the owner the live generation will have after Commit.
func (t *Txn) Owner() string {
	if t.live == nil {
		return ""
	}
	return t.live.owner
}

func (t *Txn) PurgeAllForAnyUser(ctx context.Context) error {
	n, err := t.repo.DeleteKinds(ctx, models.AllDataKinds)
	if err != nil {
		return fmt.Errorf("purge all: %w", err)
	}
	t.live = nil
	t.c.logger.Info(ctx, "cache purged for all owners", "rows", n)
	return nil
}

func (t *Txn) PurgeForUserSwitch(ctx context.Context, previousOwner string) error {
	if previousOwner == "" {
		return nil
	}

	n, err := t.repo.DeleteOwner(ctx, previousOwner)
	if err != nil {
		return fmt.Errorf("purge owner: %w", err)
	}
	if t.Owner() == previousOwner {
		t.live = nil
	}
	t.c.logger.Info(ctx, "cache purged for previous owner", "rows", n)
	return nil
}

func (t *Txn) Reload(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return ErrNoLiveOwner
	}

	rows, err := t.repo.ListOwner(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	gen := &generation{owner: ownerID, values: make(map[models.DataKind][]byte, len(rows))}
	for kind, value := range rows {
		if !kind.Valid() {
			continue
		}
		gen.values[kind] = value
	}
	t.live = gen

	t.c.logger.Debug(ctx, "cache reloaded", "kinds", len(gen.values))
	return nil
}

func (t *Txn) Detach() {
	t.live = nil
}

func (t *Txn) ClearPreferences(ctx context.Context) error {
	if _, err := t.repo.DeleteKinds(ctx, accountKinds); err != nil {
		return fmt.Errorf("clear preferences: %w", err)
	}
	if t.live != nil {
		values := maps.Clone(t.live.values)
		for _, kind := range accountKinds {
			delete(values, kind)
		}
		t.live = &generation{owner: t.live.owner, values: values}
	}
	return nil
}

// Commit publishes the staged generation and unlocks the cache.
func (t *Txn) Commit() {
	if t.done {
		return
	}
	t.done = true
	t.c.live = t.live
	t.c.mu.Unlock()
}

// Rollback unlocks the cache and leaves the live generation as it was. It is
// a no-op after Commit.
func (t *Txn) Rollback() {
	if t.done {
		return
	}
	t.done = true
	t.c.mu.Unlock()
}
