package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophwalk/internal/client/cache"
	"github.com/dmitrijs2005/gophwalk/internal/client/models"
	"github.com/dmitrijs2005/gophwalk/internal/client/services"
	"github.com/dmitrijs2005/gophwalk/internal/logging"
)

type fakeSession struct {
	state    models.SessionState
	err      error
	calls    []string
	lastPass string
	patch    models.ProfilePatch
	data     map[models.DataKind][]byte
	known    []models.Identity
}

func newFakeSession() *fakeSession {
	return &fakeSession{state: models.Unauthenticated(), data: map[models.DataKind][]byte{}}
}

func (f *fakeSession) record(name string, next models.SessionState) (models.SessionState, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return f.state, f.err
	}
	f.state = next
	return next, nil
}

func (f *fakeSession) Restore(ctx context.Context) (models.SessionState, error) {
	return f.record("restore", f.state)
}
func (f *fakeSession) Current() models.SessionState { return f.state }
func (f *fakeSession) EnterGuest(ctx context.Context) (models.SessionState, error) {
	return f.record("guest", models.Guest("g-1"))
}
func (f *fakeSession) ExitGuest(ctx context.Context) (models.SessionState, error) {
	return f.record("leave-guest", models.Unauthenticated())
}
func (f *fakeSession) SignUp(ctx context.Context, email string, password []byte, first, last string) (models.SessionState, error) {
	f.lastPass = string(password)
	return f.record("register", models.Authenticated(models.Identity{ID: "u1", Email: email, FirstName: first, LastName: last}, "t", models.OriginLocal))
}
func (f *fakeSession) SignIn(ctx context.Context, email string, password []byte) (models.SessionState, error) {
	f.lastPass = string(password)
	return f.record("login", models.Authenticated(models.Identity{ID: "u1", Email: email}, "t", models.OriginRemote))
}
func (f *fakeSession) SignOut(ctx context.Context) (models.SessionState, error) {
	return f.record("logout", models.Unauthenticated())
}
func (f *fakeSession) DeleteAccount(ctx context.Context) (models.SessionState, error) {
	return f.record("delete-account", models.Unauthenticated())
}
func (f *fakeSession) ResetDevice(ctx context.Context) (models.SessionState, error) {
	return f.record("reset", models.Unauthenticated())
}
func (f *fakeSession) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (models.SessionState, error) {
	f.patch = patch
	return f.record("profile", f.state)
}
func (f *fakeSession) ListIdentities(ctx context.Context) []models.Identity {
	return f.known
}
func (f *fakeSession) Cache() services.DataCache { return f }

func (f *fakeSession) Owner() string { return f.state.OwnerID() }
func (f *fakeSession) Get(ctx context.Context, kind models.DataKind) ([]byte, error) {
	if f.Owner() == "" {
		return nil, cache.ErrNoLiveOwner
	}
	if !kind.Valid() {
		return nil, cache.ErrUnknownDataKind
	}
	return f.data[kind], nil
}
func (f *fakeSession) Put(ctx context.Context, kind models.DataKind, value []byte) error {
	if f.Owner() == "" {
		return cache.ErrNoLiveOwner
	}
	if !kind.Valid() {
		return cache.ErrUnknownDataKind
	}
	f.data[kind] = value
	return nil
}

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

// newTestApp returns an App reading input and writing into the returned buffer.
func newTestApp(t *testing.T, session *fakeSession, input string) (*App, *bytes.Buffer) {
	t.Helper()

	oldTerm := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = oldTerm })

	var out bytes.Buffer
	return &App{session: session, reader: rdr(input), out: &out, logger: logging.NopLogger{}}, &out
}
