// Package cache holds the per-user cached collections of the active owner.
//
// Durable rows live in a namespace keyed by owner id, then data kind. At most
// one owner is live at a time; only the live owner's data is reachable
// through Get and Put.
package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophwalk/internal/client/models"
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/userdata"
	"github.com/dmitrijs2005/gophwalk/internal/logging"
)

var (
	ErrNoLiveOwner     = errors.New("no live cache owner")
	ErrUnknownDataKind = errors.New("unknown data kind")
)

// accountKinds are wiped for every owner when an account is deleted.
var accountKinds = []models.DataKind{models.KindPreferences, models.KindAchievements}

type generation struct {
	owner  string
	values map[models.DataKind][]byte
}

type Cache struct {
	mu     sync.RWMutex
	repo   userdata.Repository
	live   *generation
	logger logging.Logger
}

func New(repo userdata.Repository, logger logging.Logger) *Cache {
	return &Cache{repo: repo, logger: logger.With("module", "cache")}
}

// Owner returns the id the live generation is bound to, or "".
func (c *Cache) Owner() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.live == nil {
		return ""
	}
	return c.live.owner
}

// Begin locks the cache for one change to the live generation and returns
// the staged change. Durable writes go through the cache's repository unless
// Using binds another one. Exactly one of Commit or Rollback must follow.
func (c *Cache) Begin() *Txn {
	c.mu.Lock()
	return &Txn{c: c, repo: c.repo, live: c.live}
}

// update runs fn in a Txn and commits it when fn succeeds.
func (c *Cache) update(fn func(t *Txn) error) error {
	t := c.Begin()
	defer t.Rollback()
	if err := fn(t); err != nil {
		return err
	}
	t.Commit()
	return nil
}

// PurgeAllForAnyUser deletes every enumerated kind for every owner and drops
// the live generation.
func (c *Cache) PurgeAllForAnyUser(ctx context.Context) error {
	return c.update(func(t *Txn) error { return t.PurgeAllForAnyUser(ctx) })
}

// PurgeForUserSwitch drops the namespace of previousOwner.
func (c *Cache) PurgeForUserSwitch(ctx context.Context, previousOwner string) error {
	return c.update(func(t *Txn) error { return t.PurgeForUserSwitch(ctx, previousOwner) })
}

// Reload binds the live generation to ownerID and hydrates it from durable
// storage. Kinds with no stored value read as empty.
func (c *Cache) Reload(ctx context.Context, ownerID string) error {
	return c.update(func(t *Txn) error { return t.Reload(ctx, ownerID) })
}

// ClearPreferences removes preference and achievement data for every owner.
func (c *Cache) ClearPreferences(ctx context.Context) error {
	return c.update(func(t *Txn) error { return t.ClearPreferences(ctx) })
}

// Detach unbinds the live generation without touching durable data.
func (c *Cache) Detach() {
	c.mu.Lock()
	c.live = nil
	c.mu.Unlock()
}

// Get returns the live owner's value of kind; nil when nothing is stored.
func (c *Cache) Get(ctx context.Context, kind models.DataKind) ([]byte, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataKind, kind)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.live == nil {
		return nil, ErrNoLiveOwner
	}
	return bytes.Clone(c.live.values[kind]), nil
}

// Put stores value for the live owner, durable storage first.
func (c *Cache) Put(ctx context.Context, kind models.DataKind, value []byte) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownDataKind, kind)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.live == nil {
		return ErrNoLiveOwner
	}
	if err := c.repo.Put(ctx, c.live.owner, kind, value); err != nil {
		return err
	}
	c.live.values[kind] = bytes.Clone(value)
	return nil
}
