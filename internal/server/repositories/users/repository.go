// Package users provides the authentication data tier: credential row
// lookups by username or mailbox address, the legacy-to-modern credential
// replacement, and lock updates.
package users

import (
	"context"

	"github.com/maildepot/maildepot/internal/server/models"
)

type Repository interface {
	// GetAuthByUsername fetches the auth row whose userid matches exactly.
	// Zero rows is common.ErrNotFound; more than one is common.ErrConflict.
	GetAuthByUsername(ctx context.Context, username string) (*models.AuthRow, error)

	// GetAuthByAddress fetches the auth row owning the given mailbox address.
	// Same row-count semantics as GetAuthByUsername.
	GetAuthByAddress(ctx context.Context, address string) (*models.AuthRow, error)

	// ReplaceLegacy atomically sets the modern credential fields and clears
	// the legacy token, keyed on (usernum, legacy). Returns the affected-row
	// count; callers require exactly one.
	ReplaceLegacy(ctx context.Context, usernum uint64, legacyHex, saltEncoded, verificationEncoded string, bonusRounds uint32) (int64, error)

	// SetLock updates the account lock column and returns the affected-row
	// count.
	SetLock(ctx context.Context, usernum uint64, lock models.LockStatus) (int64, error)
}
