package repomanager

import (
	"context"
	"database/sql"

	"github.com/ar1701/demo-tedx/internal/dbx"
	"github.com/ar1701/demo-tedx/internal/server/repositories/identities"
	"github.com/ar1701/demo-tedx/internal/server/repositories/profiles"
)

// RepositoryManager vends repository implementations bound to a DBTX, so
// flows can run the same repositories against either the pool or an open
// transaction.
type RepositoryManager interface {
	Identities(db dbx.DBTX) identities.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	RunMigrations(context.Context, *sql.DB) error
}
