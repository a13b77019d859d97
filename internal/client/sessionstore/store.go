// Package sessionstore persists the current session across restarts as one
// versioned record, replaced wholesale on every save.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophwalk/internal/client/models"
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophwalk/internal/common"
	"github.com/dmitrijs2005/gophwalk/internal/logging"
)

const (
	sessionKey    = "session"
	recordVersion = 1
)

type envelope struct {
	Version int                 `json:"v"`
	State   models.SessionState `json:"state"`
}

type Store struct {
	repo   metadata.Repository
	logger logging.Logger
}

func New(repo metadata.Repository, logger logging.Logger) *Store {
	return &Store{repo: repo, logger: logger.With("module", "sessionstore")}
}

// Using returns a Store that reads and writes through repo, such as one
// bound to a database transaction.
func (s *Store) Using(repo metadata.Repository) *Store {
	return &Store{repo: repo, logger: s.logger}
}

// Load returns the persisted session, or Unauthenticated when none is stored.
// A record that cannot be decoded is logged and treated as absent.
func (s *Store) Load(ctx context.Context) (models.SessionState, error) {
	raw, err := s.repo.Get(ctx, sessionKey)
	if errors.Is(err, common.ErrNotFound) {
		return models.Unauthenticated(), nil
	}
	if err != nil {
		return models.SessionState{}, err
	}

	state, err := decode(raw)
	if err != nil {
		s.logger.Warn(ctx, "discarding persisted session", "error", err)
		return models.Unauthenticated(), nil
	}
	return state, nil
}

func decode(raw []byte) (models.SessionState, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return models.SessionState{}, fmt.Errorf("%w: %v", common.ErrStorageCorrupt, err)
	}
	if env.Version != recordVersion {
		return models.SessionState{}, fmt.Errorf("%w: unsupported session version %d", common.ErrStorageCorrupt, env.Version)
	}
	if err := env.State.Validate(); err != nil {
		return models.SessionState{}, fmt.Errorf("%w: %v", common.ErrStorageCorrupt, err)
	}
	return env.State, nil
}

// Save replaces the persisted record with state in a single write.
func (s *Store) Save(ctx context.Context, state models.SessionState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(envelope{Version: recordVersion, State: state})
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, sessionKey, raw)
}

// Clear removes the record; the next Load yields Unauthenticated.
func (s *Store) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, sessionKey)
}
