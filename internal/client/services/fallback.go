package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophwalk/internal/client/client"
	"github.com/dmitrijs2005/gophwalk/internal/client/models"
	"github.com/dmitrijs2005/gophwalk/internal/common"
	"github.com/google/uuid"
)

// register creates the identity remotely, or locally when the remote service
// cannot be reached.
func (s *sessionService) register(ctx context.Context, email string, password []byte, firstName, lastName string) (models.Identity, string, models.Origin, error) {
	res, err := s.remote.SignUp(ctx, email, password, firstName, lastName)
	switch {
	case err == nil:
		s.mirror(ctx, res.User, password)
		return res.User, res.Token, models.OriginRemote, nil

	case errors.Is(err, client.ErrUnreachable):
		s.logger.Warn(ctx, "identity service unreachable, registering locally")
		user, err := s.withRepair(ctx, s.repairIdentities, func() (models.Identity, error) {
			return s.identities.AddUser(ctx, models.Identity{Email: email, FirstName: firstName, LastName: lastName}, password)
		})
		if err != nil {
			return models.Identity{}, "", "", err
		}
		return user, localToken(), models.OriginLocal, nil

	default:
		return models.Identity{}, "", "", err
	}
}

// authenticate verifies credentials remotely, or against the local identity
// store when the remote service cannot be reached.
func (s *sessionService) authenticate(ctx context.Context, email string, password []byte) (models.Identity, string, models.Origin, error) {
	res, err := s.remote.SignIn(ctx, email, password)
	switch {
	case err == nil:
		s.mirror(ctx, res.User, password)
		return res.User, res.Token, models.OriginRemote, nil

	case errors.Is(err, client.ErrUnreachable):
		s.logger.Warn(ctx, "identity service unreachable, signing in locally")
		ok, err := s.withRepairBool(ctx, s.repairIdentities, func() (bool, error) {
			return s.identities.VerifyPassword(ctx, email, password)
		})
		if err != nil {
			return models.Identity{}, "", "", err
		}
		if !ok {
			return models.Identity{}, "", "", common.ErrInvalidCredentials
		}
		user, err := s.withRepair(ctx, s.repairIdentities, func() (models.Identity, error) {
			return s.identities.GetUser(ctx, email)
		})
		if err != nil {
			return models.Identity{}, "", "", err
		}
		return user, localToken(), models.OriginLocal, nil

	default:
		return models.Identity{}, "", "", err
	}
}

// mirror keeps a local copy of a remotely accepted identity so the same
// credentials keep working while offline.
func (s *sessionService) mirror(ctx context.Context, user models.Identity, password []byte) {
	if err := s.identities.Remember(ctx, user, password); err != nil {
		s.logger.Warn(ctx, "failed to mirror identity locally", "error", err)
	}
}

func localToken() string {
	return common.LocalTokenPrefix + uuid.NewString()
}

// withRepair runs fn, calling repair and retrying once when it reports corrupt
// storage. Corruption that survives the repair reads as common.ErrNotFound.
func (s *sessionService) withRepair(ctx context.Context, repair func(context.Context) error, fn func() (models.Identity, error)) (models.Identity, error) {
	user, err := fn()
	if !errors.Is(err, common.ErrStorageCorrupt) {
		return user, err
	}

	s.logger.Warn(ctx, "identity storage corrupt, repairing", "error", err)
	if rerr := repair(ctx); rerr != nil {
		s.logger.Error(ctx, "identity repair failed", "error", rerr)
	}

	user, err = fn()
	if errors.Is(err, common.ErrStorageCorrupt) {
		return models.Identity{}, fmt.Errorf("%w: %v", common.ErrNotFound, err)
	}
	return user, err
}

func (s *sessionService) withRepairBool(ctx context.Context, repair func(context.Context) error, fn func() (bool, error)) (bool, error) {
	var ok bool
	_, err := s.withRepair(ctx, repair, func() (models.Identity, error) {
		var err error
		ok, err = fn()
		return models.Identity{}, err
	})
	return ok, err
}

// Restore loads the persisted session at startup. Remote sessions are
// re-validated and local ones must still have their identity record; any
// doubt yields Unauthenticated rather than an error.
func (s *sessionService) Restore(ctx context.Context) (state models.SessionState, err error) {
	ctx, span, gen := s.begin(ctx, "restore")
	defer func() { s.end(span, state, err) }()

	if err := s.resyncIdentities(ctx); err != nil {
		return s.Current(), err
	}

	persisted, err := s.sessions.Load(ctx)
	if err != nil {
		return s.Current(), err
	}
	restored := s.revalidate(ctx, persisted)

	return s.commit(ctx, gen, "restore", func(ctx context.Context, w *work, prev models.SessionState) (models.SessionState, error) {
		owner := restored.OwnerID()
		if owner == "" {
			w.cache.Detach()
			return restored, nil
		}
		if err := w.cache.Reload(ctx, owner); err != nil {
			return prev, err
		}
		return restored, nil
	})
}

// repairIdentities repairs the identity store between transitions.
func (s *sessionService) repairIdentities(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identities.Repair(ctx)
}

// resyncIdentities reloads the identity store from disk, repairing it when
// some rows cannot be decoded.
func (s *sessionService) resyncIdentities(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.identities.ReloadFromDurableStorage(ctx)
	if !errors.Is(err, common.ErrStorageCorrupt) {
		return err
	}
	s.logger.Warn(ctx, "identity table has corrupt rows, repairing", "error", err)
	if err := s.identities.Repair(ctx); err != nil {
		s.logger.Error(ctx, "identity repair failed", "error", err)
	}
	return nil
}

func (s *sessionService) revalidate(ctx context.Context, state models.SessionState) models.SessionState {
	if !state.IsAuthenticated() {
		return state
	}

	switch state.Origin {
	case models.OriginRemote:
		user, err := s.remote.ValidateToken(ctx, state.Token)
		if err != nil {
			s.logger.Info(ctx, "persisted session rejected", "error", err)
			return models.Unauthenticated()
		}
		return models.Authenticated(*user, state.Token, state.Origin)

	default:
		user, err := s.withRepair(ctx, s.repairIdentities, func() (models.Identity, error) {
			return s.identities.GetUser(ctx, state.User.Email)
		})
		if err != nil || user.ID != state.User.ID {
			s.logger.Info(ctx, "local identity for persisted session is gone")
			return models.Unauthenticated()
		}
		return models.Authenticated(user, state.Token, state.Origin)
	}
}
