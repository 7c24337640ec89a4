// Package messages provides the mail metadata tier: message row insertion,
// duplication, and folder moves. Message numbers are assigned by the database
// and never reused, which is what keeps concurrent blob writers from
// colliding on disk.
package messages

import (
	"context"

	"github.com/maildepot/maildepot/internal/server/models"
)

type Repository interface {
	// Insert creates a metadata row for a newly stored message and returns
	// the assigned message number. The creation time is set by the database.
	Insert(ctx context.Context, m *models.MessageRecord) (uint64, error)

	// InsertDuplicate creates a copy row with a new message number, carrying
	// over the original's attributes including its creation time.
	InsertDuplicate(ctx context.Context, m *models.MessageRecord) (uint64, error)

	// UpdateFolder repoints the folder of the row matching (owner, message,
	// source folder) and returns the affected-row count. Callers require
	// exactly one.
	UpdateFolder(ctx context.Context, usernum, messagenum, source, target uint64) (int64, error)
}
