package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophwalk/internal/client/client"
	"github.com/dmitrijs2005/gophwalk/internal/client/models"
	"github.com/dmitrijs2005/gophwalk/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(l ...string) string { return strings.Join(l, "\n") + "\n" }

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	session := newFakeSession()
	app, out := newTestApp(t, session, lines(
		"login", "a@x.com", "secret1",
		"whoami",
		"data put history walk one",
		"data get history",
		"logout",
		"exit",
	))

	require.NoError(t, runREPL(context.Background(), app, app.reader, app.out))

	assert.Equal(t, []string{"login", "logout"}, session.calls)
	assert.Equal(t, "secret1", session.lastPass)
	assert.Equal(t, []byte("walk one"), session.data[models.KindHistory])

	got := out.String()
	assert.Contains(t, got, "a@x.com () id=u1 via remote")
	assert.Contains(t, got, "history: walk one")
	assert.Contains(t, got, "Bye!")
}

func TestRunREPL_StopsAtEOF(t *testing.T) {
	session := newFakeSession()
	app, _ := newTestApp(t, session, "guest")

	require.NoError(t, runREPL(context.Background(), app, app.reader, app.out))
	assert.Equal(t, []string{"guest"}, session.calls)
}

func TestRunREPL_ErrorsAreOneLine(t *testing.T) {
	session := newFakeSession()
	session.err = common.ErrInvalidCredentials
	app, out := newTestApp(t, session, lines("login", "a@x.com", "nope", "quit"))

	require.NoError(t, runREPL(context.Background(), app, app.reader, app.out))
	assert.Contains(t, out.String(), "Wrong email or password.\n")
	assert.Equal(t, models.Unauthenticated(), session.state)
}

func TestRunREPL_UnknownCommand(t *testing.T) {
	app, out := newTestApp(t, newFakeSession(), lines("fly", "exit"))

	require.NoError(t, runREPL(context.Background(), app, app.reader, app.out))
	assert.Contains(t, out.String(), `unknown command "fly"`)
}

func TestRunREPL_RegisterReportsOfflineOrigin(t *testing.T) {
	session := newFakeSession()
	app, out := newTestApp(t, session, lines("register", "a@x.com", "Ann", "", "secret1", "exit"))

	require.NoError(t, runREPL(context.Background(), app, app.reader, app.out))
	assert.Equal(t, []string{"register"}, session.calls)
	assert.Equal(t, "Ann", session.state.User.FirstName)
	assert.Contains(t, out.String(), "Server unreachable")
}

func TestRunREPL_Accounts(t *testing.T) {
	session := newFakeSession()
	app, out := newTestApp(t, session, lines("accounts", "exit"))

	require.NoError(t, runREPL(context.Background(), app, app.reader, app.out))
	assert.Contains(t, out.String(), "no identities stored on this device")

	session.known = []models.Identity{{ID: "u0", Email: "a@x.com"}, {ID: "u1", Email: "b@x.com"}}
	session.state = models.Authenticated(session.known[1], "t", models.OriginLocal)
	app, out = newTestApp(t, session, lines("accounts", "exit"))

	require.NoError(t, runREPL(context.Background(), app, app.reader, app.out))
	assert.Contains(t, out.String(), "  a@x.com id=u0\n")
	assert.Contains(t, out.String(), "* b@x.com id=u1\n")
}

func TestRunREPL_DataWithoutSession(t *testing.T) {
	app, out := newTestApp(t, newFakeSession(), lines("data get history", "exit"))

	require.NoError(t, runREPL(context.Background(), app, app.reader, app.out))
	assert.Contains(t, out.String(), "Sign in or start a guest session first.")
}

func TestRunREPL_ProfileFlagsDoNotLeak(t *testing.T) {
	session := newFakeSession()
	session.state = models.Authenticated(models.Identity{ID: "u1", Email: "a@x.com"}, "t", models.OriginRemote)
	app, _ := newTestApp(t, session, lines("profile --first Ann likes hills", "profile quiet", "exit"))

	require.NoError(t, runREPL(context.Background(), app, app.reader, app.out))

	assert.Nil(t, session.patch.FirstName)
	require.NotNil(t, session.patch.Bio)
	assert.Equal(t, "quiet", *session.patch.Bio)
}

func TestRunREPL_DeleteAccountNeedsConfirmation(t *testing.T) {
	session := newFakeSession()
	session.state = models.Authenticated(models.Identity{ID: "u1", Email: "a@x.com"}, "t", models.OriginRemote)
	app, _ := newTestApp(t, session, lines("delete-account", "n", "delete-account", "yes", "exit"))

	require.NoError(t, runREPL(context.Background(), app, app.reader, app.out))
	assert.Equal(t, []string{"delete-account"}, session.calls)
}

func TestRunREPL_DeleteAccountWhenSignedOut(t *testing.T) {
	session := newFakeSession()
	app, out := newTestApp(t, session, lines("delete-account", "exit"))

	require.NoError(t, runREPL(context.Background(), app, app.reader, app.out))
	assert.Empty(t, session.calls)
	assert.Contains(t, out.String(), "not available in the current session")
}

func TestRunREPL_UnreachableMessage(t *testing.T) {
	session := newFakeSession()
	session.state = models.Authenticated(models.Identity{ID: "u1", Email: "a@x.com"}, "t", models.OriginRemote)
	session.err = client.ErrUnreachable
	app, out := newTestApp(t, session, lines("logout", "exit"))

	require.NoError(t, runREPL(context.Background(), app, app.reader, app.out))
	assert.Contains(t, out.String(), "could not be reached")
}

func TestOnSessionChanged(t *testing.T) {
	app, out := newTestApp(t, newFakeSession(), "")
	app.onSessionChanged(models.Guest("g"))
	assert.Equal(t, "* session is now guest\n", out.String())
}
