// Package services contains server-side business logic. This file implements
// AuthService, the credential data tier: fetching authentication records with
// their format invariants enforced, migrating legacy credentials in place,
// and updating account locks.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/maildepot/maildepot/internal/common"
	"github.com/maildepot/maildepot/internal/logging"
	"github.com/maildepot/maildepot/internal/server/models"
	"github.com/maildepot/maildepot/internal/server/repositories/repomanager"
)

type AuthService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger
}

func NewAuthService(db *sql.DB, repos repomanager.RepositoryManager, logger logging.Logger) *AuthService {
	return &AuthService{db: db, repos: repos, logger: logger}
}

// Fetch resolves a username or mailbox address to its authentication record.
//
// The users table is consulted first so that an address sneaked into the
// mailboxes table can never override an account. The secondary address
// lookup only runs when the primary lookup misses and the input contains an
// '@'. The returned record carries the stored canonical username, not the
// caller's spelling, so downstream password derivation stays deterministic
// however the user authenticated.
func (s *AuthService) Fetch(ctx context.Context, usernameOrAddress string) (*models.AuthRecord, error) {

	if usernameOrAddress == "" {
		return nil, fmt.Errorf("%w: empty username", common.ErrInvalidInput)
	}

	repo := s.repos.Users(s.db)

	row, err := repo.GetAuthByUsername(ctx, usernameOrAddress)
	if errors.Is(err, common.ErrNotFound) && strings.Contains(usernameOrAddress, "@") {
		row, err = repo.GetAuthByAddress(ctx, usernameOrAddress)
	}
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			s.logger.Error(ctx, "multiple auth rows for one principal", "principal", usernameOrAddress)
		}
		return nil, err
	}

	record, err := row.Record()
	if err != nil {
		s.logger.Error(ctx, "stored credential fields violate the exclusivity invariant",
			"usernum", row.UserNum, "error", err)
		return nil, err
	}

	return record, nil
}

// ReplaceLegacy swaps an account's legacy hash for the modern salted triple
// in a single row update. All length and range constraints are validated
// before the database is touched; an update that does not hit exactly one
// row never reports success.
func (s *AuthService) ReplaceLegacy(ctx context.Context, usernum uint64, legacyHex, saltEncoded, verificationEncoded string, bonusRounds uint32) error {

	switch {
	case usernum == 0:
		return fmt.Errorf("%w: zero user number", common.ErrInvalidInput)
	case len(legacyHex) != models.LegacyTokenHexLen:
		return fmt.Errorf("%w: legacy token must be %d characters", common.ErrInvalidInput, models.LegacyTokenHexLen)
	case len(saltEncoded) != models.SaltEncodedLen:
		return fmt.Errorf("%w: salt must be %d characters", common.ErrInvalidInput, models.SaltEncodedLen)
	case len(verificationEncoded) != models.VerificationEncodedLen:
		return fmt.Errorf("%w: verification token must be %d characters", common.ErrInvalidInput, models.VerificationEncodedLen)
	case bonusRounds > models.BonusRoundsMax:
		return fmt.Errorf("%w: bonus rounds above maximum", common.ErrInvalidInput)
	}

	affected, err := s.repos.Users(s.db).ReplaceLegacy(ctx, usernum, legacyHex, saltEncoded, verificationEncoded, bonusRounds)
	if err != nil {
		return fmt.Errorf("replace legacy credentials: %w", err)
	}
	switch {
	case affected == 0:
		return common.ErrNotFound
	case affected != 1:
		s.logger.Error(ctx, "legacy credential replacement affected multiple rows",
			"usernum", usernum, "affected", affected)
		return common.ErrInconsistent
	}

	return nil
}

// SetLock updates the account lock, best-effort. Failing to (un)lock is
// recorded but never request-fatal, so this returns nothing.
func (s *AuthService) SetLock(ctx context.Context, usernum uint64, lock models.LockStatus) {

	if usernum == 0 {
		s.logger.Warn(ctx, "ignoring lock update for zero user number", "lock", lock)
		return
	}

	affected, err := s.repos.Users(s.db).SetLock(ctx, usernum, lock)
	if err != nil {
		s.logger.Warn(ctx, "lock update failed", "usernum", usernum, "lock", lock, "error", err)
		return
	}
	if affected != 1 {
		s.logger.Warn(ctx, "lock update did not match one row",
			"usernum", usernum, "lock", lock, "affected", affected)
	}
}
