package messages

import (
	"context"
	"fmt"

	"github.com/maildepot/maildepot/internal/dbx"
	"github.com/maildepot/maildepot/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, m *models.MessageRecord) (uint64, error) {

	query := `INSERT INTO messages (usernum, foldernum, server, status, size, signum, sigkey)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING messagenum`

	var messagenum uint64
	err := r.db.QueryRowContext(ctx, query,
		m.UserNum, m.FolderNum, m.Server, m.Status, m.Size, m.SpamSignature, m.SpamKey).Scan(&messagenum)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return messagenum, nil
}

func (r *PostgresRepository) InsertDuplicate(ctx context.Context, m *models.MessageRecord) (uint64, error) {

	query := `INSERT INTO messages (usernum, foldernum, server, status, size, signum, sigkey, created)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING messagenum`

	var messagenum uint64
	err := r.db.QueryRowContext(ctx, query,
		m.UserNum, m.FolderNum, m.Server, m.Status, m.Size, m.SpamSignature, m.SpamKey, m.Created).Scan(&messagenum)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return messagenum, nil
}

func (r *PostgresRepository) UpdateFolder(ctx context.Context, usernum, messagenum, source, target uint64) (int64, error) {
	query := `UPDATE messages SET foldernum = $1
	          WHERE usernum = $2 AND messagenum = $3 AND foldernum = $4`
	return dbx.ExecAffected(ctx, r.db, query, target, usernum, messagenum, source)
}
