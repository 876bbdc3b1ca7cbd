package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/hydrotrack/internal/dbx"
	"github.com/dmitrijs2005/hydrotrack/internal/server/repositories/records"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Records(db dbx.DBTX) records.Repository
}
