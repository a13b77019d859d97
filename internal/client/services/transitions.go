package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophwalk/internal/client/models"
	"github.com/dmitrijs2005/gophwalk/internal/common"
	"github.com/google/uuid"
)

func errSuperseded(name string) error {
	return fmt.Errorf("%s: %w", name, common.ErrSuperseded)
}

func errInvalidTransition(name string, from models.SessionState) error {
	return fmt.Errorf("%s from %s: %w", name, from.Variant, common.ErrInvalidTransition)
}

// EnterGuest wipes every user's cached data and starts a fresh guest session.
// It is allowed from any state.
func (s *sessionService) EnterGuest(ctx context.Context) (state models.SessionState, err error) {
	ctx, span, gen := s.begin(ctx, "enter_guest")
	defer func() { s.end(span, state, err) }()

	return s.commit(ctx, gen, "enter_guest", func(ctx context.Context, w *work, prev models.SessionState) (models.SessionState, error) {
		if err := w.cache.PurgeAllForAnyUser(ctx); err != nil {
			return prev, err
		}
		next := models.Guest(uuid.NewString())
		if err := w.cache.Reload(ctx, next.GuestID); err != nil {
			return prev, err
		}
		return next, nil
	})
}

// ExitGuest ends a guest session. Cached data is left in place.
func (s *sessionService) ExitGuest(ctx context.Context) (state models.SessionState, err error) {
	ctx, span, gen := s.begin(ctx, "exit_guest")
	defer func() { s.end(span, state, err) }()

	return s.commit(ctx, gen, "exit_guest", func(ctx context.Context, w *work, prev models.SessionState) (models.SessionState, error) {
		if !prev.IsGuest() {
			return prev, errInvalidTransition("exit_guest", prev)
		}
		w.cache.Detach()
		return models.Unauthenticated(), nil
	})
}

// SignUp creates an account and signs into it. Cached data of every owner is
// purged before the new identity's generation is loaded.
func (s *sessionService) SignUp(ctx context.Context, email string, password []byte, firstName, lastName string) (state models.SessionState, err error) {
	ctx, span, gen := s.begin(ctx, "sign_up")
	defer func() { s.end(span, state, err) }()

	if sameAccount(s.Current(), email) {
		return s.Current(), errInvalidTransition("sign_up", s.Current())
	}

	user, token, origin, err := s.register(ctx, email, password, firstName, lastName)
	if err != nil {
		return s.Current(), err
	}

	return s.commit(ctx, gen, "sign_up", func(ctx context.Context, w *work, prev models.SessionState) (models.SessionState, error) {
		if sameAccount(prev, email) {
			return prev, errInvalidTransition("sign_up", prev)
		}
		if err := w.cache.PurgeAllForAnyUser(ctx); err != nil {
			return prev, err
		}
		if err := w.cache.Reload(ctx, user.ID); err != nil {
			return prev, err
		}
		return models.Authenticated(user, token, origin), nil
	})
}

// SignIn authenticates from any state. Signing into the account that is
// already active keeps its cache; signing into a different one drops the
// previous account's data first.
func (s *sessionService) SignIn(ctx context.Context, email string, password []byte) (state models.SessionState, err error) {
	ctx, span, gen := s.begin(ctx, "sign_in")
	defer func() { s.end(span, state, err) }()

	user, token, origin, err := s.authenticate(ctx, email, password)
	if err != nil {
		return s.Current(), err
	}

	return s.commit(ctx, gen, "sign_in", func(ctx context.Context, w *work, prev models.SessionState) (models.SessionState, error) {
		if prev.IsAuthenticated() && prev.UserID() != user.ID {
			if err := w.cache.PurgeForUserSwitch(ctx, prev.UserID()); err != nil {
				return prev, err
			}
		}
		if err := w.cache.Reload(ctx, user.ID); err != nil {
			return prev, err
		}
		return models.Authenticated(user, token, origin), nil
	})
}

// SignOut commits locally first; revoking the token remotely is best effort
// and its failure is only logged.
func (s *sessionService) SignOut(ctx context.Context) (state models.SessionState, err error) {
	ctx, span, gen := s.begin(ctx, "sign_out")
	defer func() { s.end(span, state, err) }()

	var token string
	var origin models.Origin
	state, err = s.commit(ctx, gen, "sign_out", func(ctx context.Context, w *work, prev models.SessionState) (models.SessionState, error) {
		if !prev.IsAuthenticated() {
			return prev, errInvalidTransition("sign_out", prev)
		}
		if err := w.cache.PurgeAllForAnyUser(ctx); err != nil {
			return prev, err
		}
		token, origin = prev.Token, prev.Origin
		return models.Unauthenticated(), nil
	})
	if err != nil {
		return state, err
	}

	if origin == models.OriginRemote {
		if err := s.remote.SignOut(ctx, token); err != nil {
			s.logger.Warn(ctx, "remote sign-out failed", "error", err)
		}
	}
	return state, nil
}

// DeleteAccount destroys the active account on this device: all cached data,
// its local identity record and every stored preference.
func (s *sessionService) DeleteAccount(ctx context.Context) (state models.SessionState, err error) {
	ctx, span, gen := s.begin(ctx, "delete_account")
	defer func() { s.end(span, state, err) }()

	return s.commit(ctx, gen, "delete_account", func(ctx context.Context, w *work, prev models.SessionState) (models.SessionState, error) {
		if !prev.IsAuthenticated() {
			return prev, errInvalidTransition("delete_account", prev)
		}
		if err := w.cache.PurgeAllForAnyUser(ctx); err != nil {
			return prev, err
		}
		if err := w.identities.Remove(ctx, prev.User.Email); err != nil && !errors.Is(err, common.ErrNotFound) {
			return prev, err
		}
		if err := w.cache.ClearPreferences(ctx); err != nil {
			return prev, err
		}
		return models.Unauthenticated(), nil
	})
}

// ResetDevice wipes everything this device knows about any account: the
// cache, the local identity table and the persisted session.
func (s *sessionService) ResetDevice(ctx context.Context) (state models.SessionState, err error) {
	ctx, span, gen := s.begin(ctx, "reset_device")
	defer func() { s.end(span, state, err) }()

	return s.commit(ctx, gen, "reset_device", func(ctx context.Context, w *work, prev models.SessionState) (models.SessionState, error) {
		if err := w.cache.PurgeAllForAnyUser(ctx); err != nil {
			return prev, err
		}
		if err := w.identities.RemoveAll(ctx); err != nil {
			return prev, err
		}
		if err := w.sessions.Clear(ctx); err != nil {
			return prev, err
		}
		return models.Unauthenticated(), nil
	})
}

// UpdateProfile changes the profile fields of the signed-in identity.
func (s *sessionService) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (state models.SessionState, err error) {
	ctx, span, gen := s.begin(ctx, "update_profile")
	defer func() { s.end(span, state, err) }()

	return s.commit(ctx, gen, "update_profile", func(ctx context.Context, w *work, prev models.SessionState) (models.SessionState, error) {
		if !prev.IsAuthenticated() {
			return prev, errInvalidTransition("update_profile", prev)
		}

		user := patch.Apply(*prev.User)
		stored, err := s.withRepair(ctx, w.identities.Repair, func() (models.Identity, error) {
			return w.identities.UpdateProfile(ctx, prev.User.Email, patch)
		})
		switch {
		case err == nil:
			user = stored
		case errors.Is(err, common.ErrNotFound) && prev.Origin == models.OriginRemote:
			// remote accounts need not have a local copy
		default:
			return prev, err
		}
		return models.Authenticated(user, prev.Token, prev.Origin), nil
	})
}

func sameAccount(state models.SessionState, email string) bool {
	return state.IsAuthenticated() && models.NormalizeEmail(state.User.Email) == models.NormalizeEmail(email)
}
