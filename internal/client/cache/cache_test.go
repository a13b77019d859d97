package cache

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophwalk/internal/client/client"
	"github.com/dmitrijs2005/gophwalk/internal/client/models"
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/userdata"
	"github.com/dmitrijs2005/gophwalk/internal/dbx"
	"github.com/dmitrijs2005/gophwalk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newCache(t *testing.T) (*Cache, *userdata.SQLiteRepository, *sql.DB) {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := userdata.NewSQLiteRepository(db)
	return New(repo, logging.NopLogger{}), repo, db
}

func countRows(t *testing.T, db *sql.DB, owner string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM user_data WHERE owner_id = ?`, owner).Scan(&n))
	return n
}

func TestCache_NoLiveOwner(t *testing.T) {
	c, _, _ := newCache(t)
	ctx := context.Background()

	assert.Empty(t, c.Owner())

	_, err := c.Get(ctx, models.KindHistory)
	require.ErrorIs(t, err, ErrNoLiveOwner)
	require.ErrorIs(t, c.Put(ctx, models.KindHistory, []byte("x")), ErrNoLiveOwner)
	require.ErrorIs(t, c.Reload(ctx, ""), ErrNoLiveOwner)
}

func TestCache_UnknownKind(t *testing.T) {
	c, _, _ := newCache(t)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx, "u1"))

	_, err := c.Get(ctx, "gems")
	require.ErrorIs(t, err, ErrUnknownDataKind)
	require.ErrorIs(t, c.Put(ctx, "gems", []byte("1")), ErrUnknownDataKind)
}

func TestCache_ReloadMissingKindsAreEmpty(t *testing.T) {
	c, _, _ := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Reload(ctx, "u1"))
	assert.Equal(t, "u1", c.Owner())

	for _, kind := range models.AllDataKinds {
		v, err := c.Get(ctx, kind)
		require.NoError(t, err)
		assert.Empty(t, v)
	}
}

func TestCache_PutPersistsAndReloads(t *testing.T) {
	c, repo, _ := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Reload(ctx, "u1"))
	require.NoError(t, c.Put(ctx, models.KindHistory, []byte(`["walk-1"]`)))

	stored, err := repo.ListOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`["walk-1"]`), stored[models.KindHistory])

	other := New(repo, logging.NopLogger{})
	require.NoError(t, other.Reload(ctx, "u1"))
	v, err := other.Get(ctx, models.KindHistory)
	require.NoError(t, err)
	assert.Equal(t, []byte(`["walk-1"]`), v)
}

func TestCache_GetReturnsCopy(t *testing.T) {
	c, _, _ := newCache(t)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx, "u1"))
	require.NoError(t, c.Put(ctx, models.KindStreak, []byte("7")))

	v, err := c.Get(ctx, models.KindStreak)
	require.NoError(t, err)
	v[0] = '9'

	again, err := c.Get(ctx, models.KindStreak)
	require.NoError(t, err)
	assert.Equal(t, []byte("7"), again)
}

func TestCache_PurgeAllForAnyUser(t *testing.T) {
	c, repo, db := newCache(t)
	ctx := context.Background()

	for _, owner := range []string{"u1", "u2", "guest-1"} {
		for _, kind := range models.AllDataKinds {
			require.NoError(t, repo.Put(ctx, owner, kind, []byte("v")))
		}
	}
	require.NoError(t, c.Reload(ctx, "u1"))

	require.NoError(t, c.PurgeAllForAnyUser(ctx))

	assert.Empty(t, c.Owner())
	for _, owner := range []string{"u1", "u2", "guest-1"} {
		assert.Zero(t, countRows(t, db, owner))
	}
}

func TestCache_PurgeForUserSwitch(t *testing.T) {
	c, repo, db := newCache(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "u1", models.KindHistory, []byte("h1")))
	require.NoError(t, repo.Put(ctx, "u1", models.KindCityState, []byte("c1")))
	require.NoError(t, repo.Put(ctx, "u2", models.KindHistory, []byte("h2")))
	require.NoError(t, c.Reload(ctx, "u1"))

	require.NoError(t, c.PurgeForUserSwitch(ctx, "u1"))
	assert.Empty(t, c.Owner())
	assert.Zero(t, countRows(t, db, "u1"))
	assert.Equal(t, 1, countRows(t, db, "u2"))

	require.NoError(t, c.PurgeForUserSwitch(ctx, ""))
	assert.Equal(t, 1, countRows(t, db, "u2"))
}

func TestCache_PurgeForUserSwitch_KeepsOtherLiveOwner(t *testing.T) {
	c, repo, _ := newCache(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "u2", models.KindHistory, []byte("h2")))
	require.NoError(t, c.Reload(ctx, "u2"))

	require.NoError(t, c.PurgeForUserSwitch(ctx, "u1"))
	assert.Equal(t, "u2", c.Owner())
}

func TestCache_ClearPreferences(t *testing.T) {
	c, repo, _ := newCache(t)
	ctx := context.Background()

	for _, owner := range []string{"u1", "u2"} {
		require.NoError(t, repo.Put(ctx, owner, models.KindPreferences, []byte("p")))
		require.NoError(t, repo.Put(ctx, owner, models.KindAchievements, []byte("a")))
		require.NoError(t, repo.Put(ctx, owner, models.KindHistory, []byte("h")))
	}
	require.NoError(t, c.Reload(ctx, "u1"))

	require.NoError(t, c.ClearPreferences(ctx))

	v, err := c.Get(ctx, models.KindPreferences)
	require.NoError(t, err)
	assert.Empty(t, v)

	v, err = c.Get(ctx, models.KindHistory)
	require.NoError(t, err)
	assert.Equal(t, []byte("h"), v)

	rows, err := repo.ListOwner(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Contains(t, rows, models.KindHistory)
}

func TestCache_Detach(t *testing.T) {
	c, repo, _ := newCache(t)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx, "g1"))
	require.NoError(t, c.Put(ctx, models.KindHistory, []byte("h")))

	c.Detach()
	assert.Empty(t, c.Owner())

	rows, err := repo.ListOwner(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []byte("h"), rows[models.KindHistory])
}

func TestTxn_RollbackKeepsLiveGeneration(t *testing.T) {
	c, repo, db := newCache(t)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx, "u1"))
	require.NoError(t, c.Put(ctx, models.KindHistory, []byte("walk")))

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txn := c.Begin().Using(userdata.NewSQLiteRepository(tx))
		defer txn.Rollback()

		require.NoError(t, txn.PurgeAllForAnyUser(ctx))
		require.NoError(t, txn.Reload(ctx, "g1"))
		assert.Equal(t, "g1", txn.Owner())
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	assert.Equal(t, "u1", c.Owner())
	v, err := c.Get(ctx, models.KindHistory)
	require.NoError(t, err)
	assert.Equal(t, []byte("walk"), v)

	rows, err := repo.ListOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []byte("walk"), rows[models.KindHistory])
}

func TestTxn_ClearPreferencesDoesNotLeakBeforeCommit(t *testing.T) {
	c, _, _ := newCache(t)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx, "u1"))
	require.NoError(t, c.Put(ctx, models.KindPreferences, []byte("p")))

	txn := c.Begin()
	require.NoError(t, txn.ClearPreferences(ctx))
	txn.Rollback()

	// durable rows are gone but the live generation was never swapped
	v, err := c.Get(ctx, models.KindPreferences)
	require.NoError(t, err)
	assert.Equal(t, []byte("p"), v)

	txn = c.Begin()
	txn.Commit()
	txn.Rollback()
	assert.Equal(t, "u1", c.Owner())
}

// slowListing pauses ListOwner after the rows have been read.
type slowListing struct {
	userdata.Repository
	read    chan struct{}
	release chan struct{}
}

func (r *slowListing) ListOwner(ctx context.Context, ownerID string) (map[models.DataKind][]byte, error) {
	rows, err := r.Repository.ListOwner(ctx, ownerID)
	r.read <- struct{}{}
	<-r.release
	return rows, err
}

func TestCache_PurgeDuringReloadIsNotUndone(t *testing.T) {
	_, repo, db := newCache(t)
	ctx := context.Background()
	require.NoError(t, repo.Put(ctx, "u1", models.KindHistory, []byte("h")))

	slow := &slowListing{Repository: repo, read: make(chan struct{}), release: make(chan struct{})}
	c := New(slow, logging.NopLogger{})

	reloaded := make(chan error, 1)
	go func() { reloaded <- c.Reload(ctx, "u1") }()
	<-slow.read

	purged := make(chan error, 1)
	go func() { purged <- c.PurgeForUserSwitch(ctx, "u1") }()

	require.Never(t, func() bool { return len(purged) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	close(slow.release)

	require.NoError(t, <-reloaded)
	require.NoError(t, <-purged)

	assert.Empty(t, c.Owner())
	assert.Zero(t, countRows(t, db, "u1"))
}
