package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophwalk/internal/client/cache"
	"github.com/dmitrijs2005/gophwalk/internal/client/client"
	"github.com/dmitrijs2005/gophwalk/internal/client/identity"
	"github.com/dmitrijs2005/gophwalk/internal/client/models"
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/identities"
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/userdata"
	"github.com/dmitrijs2005/gophwalk/internal/client/sessionstore"
	"github.com/dmitrijs2005/gophwalk/internal/dbx"
	"github.com/dmitrijs2005/gophwalk/internal/logging"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// ---- fake remote identity service ----

type fakeAccount struct {
	user     models.Identity
	password string
}

type fakeRemote struct {
	mu          sync.Mutex
	accounts    map[string]fakeAccount
	tokens      map[string]string
	unreachable bool
	validateErr error
	signOutErr  error
	signOuts    []string
	nextID      int

	// when gate is set, SignIn reports on entered and waits for gate
	entered chan struct{}
	gate    chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{accounts: map[string]fakeAccount{}, tokens: map[string]string{}}
}

func (f *fakeRemote) setUnreachable(v bool) {
	f.mu.Lock()
	f.unreachable = v
	f.mu.Unlock()
}

func (f *fakeRemote) issue(email string) string {
	f.nextID++
	token := fmt.Sprintf("tok-%s-%d", email, f.nextID)
	f.tokens[token] = email
	return token
}

func (f *fakeRemote) SignUp(ctx context.Context, email string, password []byte, firstName, lastName string) (*client.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.unreachable {
		return nil, client.ErrUnreachable
	}
	key := models.NormalizeEmail(email)
	if _, ok := f.accounts[key]; ok {
		return nil, &client.RejectedError{HTTPStatus: http.StatusConflict, Message: "email taken"}
	}
	f.nextID++
	user := models.Identity{ID: "remote-" + key, Email: key, FirstName: firstName, LastName: lastName}
	f.accounts[key] = fakeAccount{user: user, password: string(password)}
	return &client.AuthResult{User: user, Token: f.issue(key)}, nil
}

func (f *fakeRemote) SignIn(ctx context.Context, email string, password []byte) (*client.AuthResult, error) {
	f.mu.Lock()
	entered, gate := f.entered, f.gate
	f.mu.Unlock()
	if gate != nil {
		entered <- struct{}{}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.unreachable {
		return nil, client.ErrUnreachable
	}
	acc, ok := f.accounts[models.NormalizeEmail(email)]
	if !ok || acc.password != string(password) {
		return nil, &client.RejectedError{HTTPStatus: http.StatusUnauthorized, Message: "invalid credentials"}
	}
	return &client.AuthResult{User: acc.user, Token: f.issue(acc.user.Email)}, nil
}

func (f *fakeRemote) SignOut(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.signOuts = append(f.signOuts, token)
	if f.unreachable {
		return client.ErrUnreachable
	}
	if f.signOutErr != nil {
		return f.signOutErr
	}
	delete(f.tokens, token)
	return nil
}

func (f *fakeRemote) ValidateToken(ctx context.Context, token string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.unreachable {
		return nil, client.ErrUnreachable
	}
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	email, ok := f.tokens[token]
	if !ok {
		return nil, &client.RejectedError{HTTPStatus: http.StatusUnauthorized, Message: "invalid token"}
	}
	user := f.accounts[email].user
	return &user, nil
}

func (f *fakeRemote) Close() error { return nil }

// ---- repositories whose session writes can be made to fail ----

var errSaveFailed = errors.New("disk full")

type flakyRepos struct {
	repomanager.RepositoryManager
	mu   sync.Mutex
	fail bool
}

func (f *flakyRepos) failSaves(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func (f *flakyRepos) failing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail
}

func (f *flakyRepos) Metadata(db dbx.DBTX) metadata.Repository {
	return &flakyMetadata{Repository: f.RepositoryManager.Metadata(db), repos: f}
}

type flakyMetadata struct {
	metadata.Repository
	repos *flakyRepos
}

func (m *flakyMetadata) Set(ctx context.Context, key string, value []byte) error {
	if m.repos.failing() {
		return errSaveFailed
	}
	return m.Repository.Set(ctx, key, value)
}

// ---- harness ----

type harness struct {
	db         *sql.DB
	remote     *fakeRemote
	repos      *flakyRepos
	identities *identity.Store
	sessions   *sessionstore.Store
	cache      *cache.Cache
	userdata   *userdata.SQLiteRepository
	svc        SessionService
	notified   []models.SessionState
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := &harness{db: db, remote: newFakeRemote()}
	h.build()
	return h
}

// build (re)creates every component over the same database, as a process
// restart would.
func (h *harness) build() {
	logger := logging.NopLogger{}
	h.repos = &flakyRepos{RepositoryManager: repomanager.NewSQLiteRepositoryManager()}
	h.identities = identity.NewStore(identities.NewSQLiteRepository(h.db), logger)
	h.sessions = sessionstore.New(metadata.NewSQLiteRepository(h.db), logger)
	h.userdata = userdata.NewSQLiteRepository(h.db)
	h.cache = cache.New(h.userdata, logger)
	h.notified = nil
	h.svc = NewSessionService(h.db, h.repos, h.remote, h.identities, h.sessions, h.cache,
		WithLogger(logger),
		WithListener(func(s models.SessionState) { h.notified = append(h.notified, s) }))
}

func (h *harness) rows(t *testing.T, owner string) int {
	t.Helper()
	var n int
	require.NoError(t, h.db.QueryRow(`SELECT COUNT(*) FROM user_data WHERE owner_id = ?`, owner).Scan(&n))
	return n
}

func (h *harness) put(t *testing.T, kind models.DataKind, value string) {
	t.Helper()
	require.NoError(t, h.svc.Cache().Put(context.Background(), kind, []byte(value)))
}

func (h *harness) get(t *testing.T, kind models.DataKind) string {
	t.Helper()
	v, err := h.svc.Cache().Get(context.Background(), kind)
	require.NoError(t, err)
	return string(v)
}
