package users

import (
	"context"
	"fmt"

	"github.com/maildepot/maildepot/internal/common"
	"github.com/maildepot/maildepot/internal/dbx"
	"github.com/maildepot/maildepot/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const authColumns = `usernum, userid, salt, verification, bonus, legacy, locked`

func (r *PostgresRepository) GetAuthByUsername(ctx context.Context, username string) (*models.AuthRow, error) {
	query := `SELECT ` + authColumns + ` FROM users WHERE userid = $1`
	return r.fetchAuthRow(ctx, query, username)
}

func (r *PostgresRepository) GetAuthByAddress(ctx context.Context, address string) (*models.AuthRow, error) {
	query := `SELECT u.usernum, u.userid, u.salt, u.verification, u.bonus, u.legacy, u.locked
	          FROM users u
	          INNER JOIN mailboxes m ON m.usernum = u.usernum
	          WHERE m.address = $1`
	return r.fetchAuthRow(ctx, query, address)
}

// fetchAuthRow runs a single-row auth lookup and enforces the row-count
// contract: zero rows is ErrNotFound, more than one is ErrConflict.
func (r *PostgresRepository) fetchAuthRow(ctx context.Context, query, key string) (*models.AuthRow, error) {

	rows, err := r.db.QueryContext(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var row *models.AuthRow
	for rows.Next() {
		if row != nil {
			return nil, common.ErrConflict
		}
		row = &models.AuthRow{}
		if err := rows.Scan(&row.UserNum, &row.Username, &row.Salt,
			&row.Verification, &row.BonusRounds, &row.LegacyToken, &row.Locked); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if row == nil {
		return nil, common.ErrNotFound
	}

	return row, nil
}

func (r *PostgresRepository) ReplaceLegacy(ctx context.Context, usernum uint64, legacyHex, saltEncoded, verificationEncoded string, bonusRounds uint32) (int64, error) {
	query := `UPDATE users
	          SET salt = $1, verification = $2, bonus = $3, legacy = NULL
	          WHERE usernum = $4 AND legacy = $5`
	return dbx.ExecAffected(ctx, r.db, query, saltEncoded, verificationEncoded, bonusRounds, usernum, legacyHex)
}

func (r *PostgresRepository) SetLock(ctx context.Context, usernum uint64, lock models.LockStatus) (int64, error) {
	query := `UPDATE users SET locked = $1 WHERE usernum = $2`
	return dbx.ExecAffected(ctx, r.db, query, uint8(lock), usernum)
}
