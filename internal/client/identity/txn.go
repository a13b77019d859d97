package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/dmitrijs2005/gophwalk/internal/client/models"
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/identities"
	"github.com/dmitrijs2005/gophwalk/internal/common"
	"github.com/dmitrijs2005/gophwalk/internal/cryptox"
	"github.com/google/uuid"
)

// Txn is a staged change to the store. Durable rows change as its methods
// run; the in-memory view is replaced only by Commit. The store stays locked
// while a Txn is open.
type Txn struct {
	s     *Store
	repo  identities.Repository
	users map[string]record
	done  bool
}

// Begin locks the store and returns a Txn over a copy of its records. Durable
// writes go through the store's repository unless Using binds another one.
// Exactly one of Commit or Rollback must follow.
func (s *Store) Begin() *Txn {
	s.mu.Lock()
	return &Txn{s: s, repo: s.repo, users: maps.Clone(s.users)}
}

// Using routes the Txn's durable reads and writes through repo, typically
// one bound to a database transaction.
func (t *Txn) Using(repo identities.Repository) *Txn {
	t.repo = repo
	return t
}

func (t *Txn) lookup(ctx context.Context, key string) (record, error) {
	if rec, ok := t.users[key]; ok {
		return rec, nil
	}
	return fetch(ctx, t.repo, t.users, key)
}

func (t *Txn) put(ctx context.Context, key string, rec record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := t.repo.Put(ctx, key, raw); err != nil {
		return err
	}
	t.users[key] = rec
	return nil
}

func (t *Txn) AddUser(ctx context.Context, user models.Identity, password []byte) (models.Identity, error) {
	key := models.NormalizeEmail(user.Email)
	if key == "" {
		return models.Identity{}, fmt.Errorf("%w: empty email", common.ErrInvalidCredentials)
	}
	if _, ok := t.users[key]; ok {
		return models.Identity{}, common.ErrDuplicateEmail
	}

	user.Email = key
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	rec := record{Identity: user, Credential: cryptox.NewCredential(password)}

	raw, err := json.Marshal(rec)
	if err != nil {
		return models.Identity{}, err
	}
	// Insert also catches a row written by another process since the last reload.
	if err := t.repo.Insert(ctx, key, raw); err != nil {
		return models.Identity{}, err
	}

	t.users[key] = rec
	t.s.logger.Info(ctx, "identity added", "id", user.ID)
	return user, nil
}

func (t *Txn) Remember(ctx context.Context, user models.Identity, password []byte) error {
	key := models.NormalizeEmail(user.Email)
	user.Email = key

	existing, err := t.lookup(ctx, key)
	switch {
	case err == nil && existing.Identity.ID != user.ID:
		t.s.logger.Warn(ctx, "keeping local identity with a different id",
			"local_id", existing.Identity.ID, "remote_id", user.ID)
		return fmt.Errorf("%w: %s", ErrIDConflict, key)
	case err != nil && !errors.Is(err, common.ErrNotFound) && !errors.Is(err, common.ErrStorageCorrupt):
		return err
	}

	return t.put(ctx, key, record{Identity: user, Credential: cryptox.NewCredential(password)})
}

func (t *Txn) UpdateProfile(ctx context.Context, email string, patch models.ProfilePatch) (models.Identity, error) {
	key := models.NormalizeEmail(email)
	rec, err := t.lookup(ctx, key)
	if err != nil {
		return models.Identity{}, err
	}
	rec.Identity = patch.Apply(rec.Identity)

	if err := t.put(ctx, key, rec); err != nil {
		return models.Identity{}, err
	}
	return rec.Identity, nil
}

func (t *Txn) Remove(ctx context.Context, email string) error {
	key := models.NormalizeEmail(email)
	if err := t.repo.Delete(ctx, key); err != nil {
		return err
	}
	delete(t.users, key)
	return nil
}

func (t *Txn) RemoveAll(ctx context.Context) error {
	if err := t.repo.Clear(ctx); err != nil {
		return err
	}
	t.users = make(map[string]record)
	t.s.logger.Warn(ctx, "identity table wiped")
	return nil
}

func (t *Txn) Repair(ctx context.Context) error {
	rows, err := t.repo.List(ctx)
	if err != nil {
		return err
	}

	durable := make(map[string]bool, len(rows))
	var restored, unrecoverable int
	for key, raw := range rows {
		rec, err := decodeRecord(key, raw)
		if err != nil {
			if _, ok := t.users[key]; !ok {
				unrecoverable++
				t.s.logger.Warn(ctx, "corrupt identity row has no in-memory copy", "error", err)
			}
			continue
		}
		t.users[key] = rec
		durable[key] = true
		restored++
	}

	var written int
	for key, rec := range t.users {
		if durable[key] {
			continue
		}
		if models.NormalizeEmail(rec.Identity.Email) != key || rec.Identity.ID == "" {
			t.s.logger.Warn(ctx, "skipping inconsistent in-memory identity", "key", key)
			continue
		}
		if err := t.put(ctx, key, rec); err != nil {
			return err
		}
		written++
	}

	t.s.logger.Info(ctx, "identity store repaired",
		"from_durable", restored, "written_back", written, "unrecoverable", unrecoverable)
	return nil
}

// Commit publishes the staged records and unlocks the store.
func (t *Txn) Commit() {
	if t.done {
		return
	}
	t.done = true
	t.s.users = t.users
	t.s.mu.Unlock()
}

// Rollback unlocks the store and keeps its records as they were. It is a
// no-op after Commit.
func (t *Txn) Rollback() {
	if t.done {
		return
	}
	t.done = true
	t.s.mu.Unlock()
}
