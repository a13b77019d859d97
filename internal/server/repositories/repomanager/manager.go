package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophwalk/internal/dbx"
	"github.com/dmitrijs2005/gophwalk/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/gophwalk/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a *sql.DB or a *sql.Tx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RevokedTokens(db dbx.DBTX) revokedtokens.Repository
}
