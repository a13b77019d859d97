// Package services contains application services for the gophwalk client.
// This file defines the session service: the state machine that moves the
// device between unauthenticated, guest and authenticated sessions and keeps
// the per-user cache in step with it.
package services

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/gophwalk/internal/client/cache"
	"github.com/dmitrijs2005/gophwalk/internal/client/client"
	"github.com/dmitrijs2005/gophwalk/internal/client/identity"
	"github.com/dmitrijs2005/gophwalk/internal/client/models"
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/gophwalk/internal/client/sessionstore"
	"github.com/dmitrijs2005/gophwalk/internal/dbx"
	"github.com/dmitrijs2005/gophwalk/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrijs2005/gophwalk/internal/client/services"

// IdentityStore is the on-device fallback identity table. Transitions change
// it through a Txn so its writes join their database transaction.
type IdentityStore interface {
	AddUser(ctx context.Context, user models.Identity, password []byte) (models.Identity, error)
	Remember(ctx context.Context, user models.Identity, password []byte) error
	GetUser(ctx context.Context, email string) (models.Identity, error)
	VerifyPassword(ctx context.Context, email string, password []byte) (bool, error)
	ListAll(ctx context.Context) []models.Identity
	ReloadFromDurableStorage(ctx context.Context) error
	Repair(ctx context.Context) error
	Begin() *identity.Txn
}

// SessionPersistence keeps the current session across restarts.
type SessionPersistence interface {
	Load(ctx context.Context) (models.SessionState, error)
	Using(repo metadata.Repository) *sessionstore.Store
}

// DataCache is the feature-facing view of the live cache generation.
type DataCache interface {
	Owner() string
	Get(ctx context.Context, kind models.DataKind) ([]byte, error)
	Put(ctx context.Context, kind models.DataKind, value []byte) error
}

// UserCache is the per-user cache as driven by session transitions.
type UserCache interface {
	DataCache
	Begin() *cache.Txn
}

// SessionService drives session transitions.
//
// Contract:
//   - Every transition either commits fully (state persisted, cache purged or
//     reloaded, listener notified) or fails and leaves the prior state, both
//     on disk and in memory.
//   - Transitions are serialized. A transition whose remote call finishes
//     after a later transition has committed fails with common.ErrSuperseded.
//   - SignUp and SignIn fall back to the local identity store only when the
//     remote service is unreachable.
//   - Current never blocks.
type SessionService interface {
	Restore(ctx context.Context) (models.SessionState, error)
	Current() models.SessionState

	EnterGuest(ctx context.Context) (models.SessionState, error)
	ExitGuest(ctx context.Context) (models.SessionState, error)
	SignUp(ctx context.Context, email string, password []byte, firstName, lastName string) (models.SessionState, error)
	SignIn(ctx context.Context, email string, password []byte) (models.SessionState, error)
	SignOut(ctx context.Context) (models.SessionState, error)
	DeleteAccount(ctx context.Context) (models.SessionState, error)
	ResetDevice(ctx context.Context) (models.SessionState, error)
	UpdateProfile(ctx context.Context, patch models.ProfilePatch) (models.SessionState, error)

	// ListIdentities reports the identities known to this device.
	ListIdentities(ctx context.Context) []models.Identity
	Cache() DataCache
}

// Option configures a SessionService.
type Option func(*sessionService)

// WithListener registers fn to be called after every committed transition,
// in commit order.
func WithListener(fn func(models.SessionState)) Option {
	return func(s *sessionService) { s.listener = fn }
}

func WithLogger(logger logging.Logger) Option {
	return func(s *sessionService) { s.logger = logger }
}

type sessionService struct {
	db         *sql.DB
	repos      repomanager.RepositoryManager
	remote     client.IdentityClient
	identities IdentityStore
	sessions   SessionPersistence
	cache      UserCache

	listener func(models.SessionState)
	logger   logging.Logger
	tracer   trace.Tracer

	// mu serializes commits; current is readable without it.
	mu            sync.Mutex
	current       atomic.Pointer[models.SessionState]
	generation    atomic.Uint64
	lastCommitted uint64
}

// NewSessionService wires a SessionService over the stores sharing db. repos
// binds them to each transition's transaction. The initial state is
// Unauthenticated until Restore is called.
func NewSessionService(db *sql.DB, repos repomanager.RepositoryManager, remote client.IdentityClient, identities IdentityStore, sessions SessionPersistence, userCache UserCache, opts ...Option) SessionService {
	s := &sessionService{
		db:         db,
		repos:      repos,
		remote:     remote,
		identities: identities,
		sessions:   sessions,
		cache:      userCache,
		logger:     logging.NopLogger{},
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("module", "session")

	initial := models.Unauthenticated()
	s.current.Store(&initial)
	return s
}

func (s *sessionService) Current() models.SessionState {
	return *s.current.Load()
}

func (s *sessionService) Cache() DataCache {
	return s.cache
}

func (s *sessionService) ListIdentities(ctx context.Context) []models.Identity {
	return s.identities.ListAll(ctx)
}

// begin tags a transition attempt and opens its span. Once started, a
// transition runs to completion: the caller's cancellation is detached and
// only the identity client's own deadlines bound it.
func (s *sessionService) begin(ctx context.Context, name string) (context.Context, trace.Span, uint64) {
	ctx = context.WithoutCancel(ctx)
	gen := s.generation.Add(1)
	ctx, span := s.tracer.Start(ctx, "session."+name,
		trace.WithAttributes(
			attribute.String("session.transition", name),
			attribute.Int64("session.generation", int64(gen)),
		))
	return ctx, span, gen
}

func (s *sessionService) end(span trace.Span, state models.SessionState, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.String("session.variant", string(state.Variant)))
	}
	span.End()
}

// work is one transition's view of the stores. Durable changes go through
// the transition's database transaction; in-memory ones are published only
// after it commits.
type work struct {
	cache      *cache.Txn
	identities *identity.Txn
	sessions   *sessionstore.Store
}

// apply computes the next state from prev, performing its cache and identity
// side effects through w. It runs under the commit lock.
type apply func(ctx context.Context, w *work, prev models.SessionState) (models.SessionState, error)

// commit runs fn for the attempt tagged gen, persists its result, publishes
// it and notifies the listener. fn's durable writes and the saved session
// share one transaction; a failure rolls all of them back and leaves the
// published state and the cache as they were.
func (s *sessionService) commit(ctx context.Context, gen uint64, name string, fn apply) (models.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.Current()
	if gen < s.lastCommitted {
		s.logger.Info(ctx, "discarding superseded transition", "transition", name, "generation", gen)
		return prev, errSuperseded(name)
	}

	// store locks are taken before the transaction holds the connection
	w := &work{cache: s.cache.Begin(), identities: s.identities.Begin()}
	defer w.identities.Rollback()
	defer w.cache.Rollback()

	var next models.SessionState
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		w.cache.Using(s.repos.UserData(tx))
		w.identities.Using(s.repos.Identities(tx))
		w.sessions = s.sessions.Using(s.repos.Metadata(tx))

		var err error
		if next, err = fn(ctx, w, prev); err != nil {
			return err
		}
		return w.sessions.Save(ctx, next)
	})
	if err != nil {
		s.logger.Info(ctx, "transition rolled back", "transition", name, "error", err)
		return prev, err
	}
	w.identities.Commit()
	w.cache.Commit()

	s.lastCommitted = gen
	s.current.Store(&next)
	s.logger.Info(ctx, "session committed", "transition", name, "variant", next.Variant)

	if s.listener != nil {
		s.listener(next)
	}
	return next, nil
}
