package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophwalk/internal/common"
	"github.com/dmitrijs2005/gophwalk/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQuery  = `(?s)^INSERT\s+INTO\s+users\s*\(email,\s*first_name,\s*last_name,\s*bio,\s*salt,\s*verifier\).*RETURNING\s+id,\s*created_at$`
	byEmailQuery = `(?s)^SELECT\s+id,\s*email,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`
	byIDQuery    = `(?s)^SELECT\s+id,\s*email,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
)

var userColumns = []string{"id", "email", "first_name", "last_name", "bio", "salt", "verifier", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(insertQuery).
		WithArgs("ann@x.com", "Ann", "", nil, []byte("salt"), []byte("ver")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", created))

	got, err := repo.Create(context.Background(), &models.User{
		Email: "ann@x.com", FirstName: "Ann", Salt: []byte("salt"), Verifier: []byte("ver"),
	})
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, created, got.CreatedAt)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	_, err := repo.Create(context.Background(), &models.User{Email: "ann@x.com"})
	require.ErrorIs(t, err, common.ErrDuplicateEmail)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "ann@x.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrDuplicateEmail)
	assert.Contains(t, err.Error(), "db down")
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Now().UTC()

	mock.ExpectQuery(byEmailQuery).
		WithArgs("ann@x.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "ann@x.com", "Ann", "Lee", "walker", []byte("s"), []byte("v"), created))

	got, err := repo.GetByEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Lee", got.LastName)
	require.NotNil(t, got.Bio)
	assert.Equal(t, "walker", *got.Bio)
	assert.Equal(t, []byte("v"), got.Verifier)
}

func TestGetByID_NullBio(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(byIDQuery).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "ann@x.com", "", "", nil, []byte("s"), []byte("v"), time.Now()))

	got, err := repo.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Nil(t, got.Bio)
}

func TestGet_NotFoundAndDBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(byEmailQuery).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(byIDQuery).WithArgs("u-9").WillReturnError(errors.New("db err"))

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.GetByID(context.Background(), "u-9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}
