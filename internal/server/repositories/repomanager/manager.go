package repomanager

import (
	"context"
	"database/sql"

	"github.com/maildepot/maildepot/internal/dbx"
	"github.com/maildepot/maildepot/internal/server/repositories/messages"
	"github.com/maildepot/maildepot/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Messages(db dbx.DBTX) messages.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
