// Package identity is the on-device fallback identity store used when the
// remote identity service cannot be reached.
//
// Durable storage is the ground truth; the in-memory map is a view over it
// that can be resynchronised with ReloadFromDurableStorage or Repair.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/gophwalk/internal/client/models"
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/identities"
	"github.com/dmitrijs2005/gophwalk/internal/common"
	"github.com/dmitrijs2005/gophwalk/internal/cryptox"
	"github.com/dmitrijs2005/gophwalk/internal/logging"
)

// record is the durable form of one identity.
type record struct {
	Identity   models.Identity    `json:"identity"`
	Credential cryptox.Credential `json:"credential"`
}

func decodeRecord(emailKey string, raw []byte) (record, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return record{}, fmt.Errorf("%w: identity %q: %v", common.ErrStorageCorrupt, emailKey, err)
	}
	if rec.Identity.ID == "" || models.NormalizeEmail(rec.Identity.Email) != emailKey {
		return record{}, fmt.Errorf("%w: identity %q: inconsistent record", common.ErrStorageCorrupt, emailKey)
	}
	return rec, nil
}

// ErrIDConflict is returned by Remember when the local record for an email
// carries a different id than the one offered.
var ErrIDConflict = errors.New("identity id conflict")

type Store struct {
	mu     sync.RWMutex
	users  map[string]record
	repo   identities.Repository
	logger logging.Logger
}

func NewStore(repo identities.Repository, logger logging.Logger) *Store {
	return &Store{
		users:  make(map[string]record),
		repo:   repo,
		logger: logger.With("module", "identity"),
	}
}

// update runs fn in a Txn over the store's own repository and commits it
// when fn succeeds.
func (s *Store) update(fn func(t *Txn) error) error {
	t := s.Begin()
	defer t.Rollback()
	if err := fn(t); err != nil {
		return err
	}
	t.Commit()
	return nil
}

// AddUser registers a new identity. The email is stored lower-cased and an id
// is generated when user.ID is empty.
func (s *Store) AddUser(ctx context.Context, user models.Identity, password []byte) (added models.Identity, err error) {
	err = s.update(func(t *Txn) error {
		added, err = t.AddUser(ctx, user, password)
		return err
	})
	return added, err
}

// Remember stores the identity returned by the remote service together with
// the password that was just accepted. A local record with another id is kept
// and ErrIDConflict returned.
func (s *Store) Remember(ctx context.Context, user models.Identity, password []byte) error {
	return s.update(func(t *Txn) error { return t.Remember(ctx, user, password) })
}

func (s *Store) GetUser(ctx context.Context, email string) (models.Identity, error) {
	rec, err := s.lookup(ctx, models.NormalizeEmail(email))
	if err != nil {
		return models.Identity{}, err
	}
	return rec.Identity, nil
}

// VerifyPassword reports whether password matches the stored credential.
func (s *Store) VerifyPassword(ctx context.Context, email string, password []byte) (bool, error) {
	rec, err := s.lookup(ctx, models.NormalizeEmail(email))
	if err != nil {
		return false, err
	}
	return rec.Credential.Matches(password), nil
}

// lookup reads memory first, then durable storage, caching what it finds.
// The durable read happens under the write lock so a concurrent Remove
// cannot be undone by a stale row.
func (s *Store) lookup(ctx context.Context, key string) (record, error) {
	s.mu.RLock()
	rec, ok := s.users[key]
	s.mu.RUnlock()
	if ok {
		return rec, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.users[key]; ok {
		return rec, nil
	}
	return fetch(ctx, s.repo, s.users, key)
}

// fetch loads key from repo into users.
func fetch(ctx context.Context, repo identities.Repository, users map[string]record, key string) (record, error) {
	raw, err := repo.Get(ctx, key)
	if err != nil {
		return record{}, err
	}
	rec, err := decodeRecord(key, raw)
	if err != nil {
		return record{}, err
	}
	users[key] = rec
	return rec, nil
}

// ListAll returns every identity held in memory, ordered by email.
func (s *Store) ListAll(ctx context.Context) []models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Identity, 0, len(s.users))
	for _, rec := range s.users {
		out = append(out, rec.Identity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func (s *Store) Remove(ctx context.Context, email string) error {
	return s.update(func(t *Txn) error { return t.Remove(ctx, email) })
}

// RemoveAll wipes the table. It cannot be undone.
func (s *Store) RemoveAll(ctx context.Context) error {
	return s.update(func(t *Txn) error { return t.RemoveAll(ctx) })
}

// UpdateProfile applies patch to the profile fields of an identity.
func (s *Store) UpdateProfile(ctx context.Context, email string, patch models.ProfilePatch) (updated models.Identity, err error) {
	err = s.update(func(t *Txn) error {
		updated, err = t.UpdateProfile(ctx, email, patch)
		return err
	})
	return updated, err
}

// ReloadFromDurableStorage replaces memory with the durable table. Rows that
// cannot be decoded are skipped and reported as common.ErrStorageCorrupt once
// the rest has been loaded.
func (s *Store) ReloadFromDurableStorage(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	users := make(map[string]record, len(rows))
	var corrupt []error
	for key, raw := range rows {
		rec, err := decodeRecord(key, raw)
		if err != nil {
			corrupt = append(corrupt, err)
			continue
		}
		users[key] = rec
	}
	s.users = users

	s.logger.Debug(ctx, "identities reloaded", "count", len(users), "corrupt", len(corrupt))
	return errors.Join(corrupt...)
}

// Repair merges memory and durable storage, favoring durable storage.
// Every decodable durable row replaces its memory copy; memory records that
// have no decodable durable row are written back. Nothing is deleted.
func (s *Store) Repair(ctx context.Context) error {
	return s.update(func(t *Txn) error { return t.Repair(ctx) })
}
