// Package repomanager vends the client's SQLite repositories, bound either to
// the database or to one of its transactions.
package repomanager

import (
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/identities"
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/userdata"
	"github.com/dmitrijs2005/gophwalk/internal/dbx"
)

// RepositoryManager vends repositories bound to a *sql.DB or a *sql.Tx.
type RepositoryManager interface {
	Identities(db dbx.DBTX) identities.Repository
	Metadata(db dbx.DBTX) metadata.Repository
	UserData(db dbx.DBTX) userdata.Repository
}

type SQLiteRepositoryManager struct{}

func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

func (m *SQLiteRepositoryManager) Identities(db dbx.DBTX) identities.Repository {
	return identities.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Metadata(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) UserData(db dbx.DBTX) userdata.Repository {
	return userdata.NewSQLiteRepository(db)
}
