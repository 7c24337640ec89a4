package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maildepot/maildepot/internal/common"
	"github.com/maildepot/maildepot/internal/logging"
	"github.com/maildepot/maildepot/internal/server/models"
	"github.com/maildepot/maildepot/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newAuthService(t *testing.T) (*AuthService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewAuthService(db, repomanager.NewPostgresRepositoryManager(), discardLogger())
	return svc, mock, db
}

func authColumns() []string {
	return []string{"usernum", "userid", "salt", "verification", "bonus", "legacy", "locked"}
}

func validLegacyHex() string { return strings.Repeat("ab", models.LegacyTokenLen) }
func validSaltEnc() string   { return strings.Repeat("A", models.SaltEncodedLen) }
func validVerifyEnc() string { return strings.Repeat("B", models.VerificationEncodedLen) }

func TestFetch_EmptyInput(t *testing.T) {
	svc, mock, _ := newAuthService(t)

	_, err := svc.Fetch(context.Background(), "")
	require.ErrorIs(t, err, common.ErrInvalidInput)
	require.NoError(t, mock.ExpectationsWereMet(), "no query may run for empty input")
}

func TestFetch_PrimaryHitAdoptsCanonicalUsername(t *testing.T) {
	svc, mock, _ := newAuthService(t)

	rows := sqlmock.NewRows(authColumns()).
		AddRow(int64(42), "magma", nil, nil, int64(0), validLegacyHex(), int64(0))
	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+userid`).WithArgs("Magma").WillReturnRows(rows)

	rec, err := svc.Fetch(context.Background(), "Magma")
	require.NoError(t, err)
	require.Equal(t, "magma", rec.Username, "stored canonical username must replace caller input")
	require.EqualValues(t, 42, rec.UserNum)
	require.Equal(t, models.SchemeLegacy, rec.Credential.Scheme)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetch_FallsThroughToAddressLookup(t *testing.T) {
	svc, mock, _ := newAuthService(t)

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+userid`).
		WithArgs("magma@otherdomain.com").
		WillReturnRows(sqlmock.NewRows(authColumns()))

	rows := sqlmock.NewRows(authColumns()).
		AddRow(int64(42), "magma", nil, nil, int64(0), validLegacyHex(), int64(0))
	mock.ExpectQuery(`INNER\s+JOIN\s+mailboxes`).
		WithArgs("magma@otherdomain.com").
		WillReturnRows(rows)

	rec, err := svc.Fetch(context.Background(), "magma@otherdomain.com")
	require.NoError(t, err)
	require.Equal(t, "magma", rec.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetch_NoAtSkipsAddressLookup(t *testing.T) {
	svc, mock, _ := newAuthService(t)

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+userid`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(authColumns()))

	_, err := svc.Fetch(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet(), "secondary lookup must not run without an @")
}

func TestFetch_AddressLookupMiss(t *testing.T) {
	svc, mock, _ := newAuthService(t)

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+userid`).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(authColumns()))
	mock.ExpectQuery(`INNER\s+JOIN\s+mailboxes`).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(authColumns()))

	_, err := svc.Fetch(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestFetch_DuplicateRowsConflict(t *testing.T) {
	svc, mock, _ := newAuthService(t)

	rows := sqlmock.NewRows(authColumns()).
		AddRow(int64(1), "magma", nil, nil, int64(0), validLegacyHex(), int64(0)).
		AddRow(int64(2), "magma", nil, nil, int64(0), validLegacyHex(), int64(0))
	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+userid`).WithArgs("magma").WillReturnRows(rows)

	_, err := svc.Fetch(context.Background(), "magma")
	require.ErrorIs(t, err, common.ErrConflict)
}

func TestFetch_MixedCredentialsInconsistent(t *testing.T) {
	svc, mock, _ := newAuthService(t)

	// Legacy token and a modern salt on the same row.
	rows := sqlmock.NewRows(authColumns()).
		AddRow(int64(42), "magma", "c2FsdA", nil, int64(0), validLegacyHex(), int64(0))
	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+userid`).WithArgs("magma").WillReturnRows(rows)

	_, err := svc.Fetch(context.Background(), "magma")
	require.ErrorIs(t, err, common.ErrInconsistent)
}

func TestReplaceLegacy_Validation(t *testing.T) {
	svc, mock, _ := newAuthService(t)

	cases := map[string]struct {
		usernum uint64
		legacy  string
		salt    string
		verify  string
		rounds  uint32
	}{
		"zero usernum":       {0, validLegacyHex(), validSaltEnc(), validVerifyEnc(), 8},
		"short legacy":       {42, "abcd", validSaltEnc(), validVerifyEnc(), 8},
		"short salt":         {42, validLegacyHex(), "salt", validVerifyEnc(), 8},
		"short verification": {42, validLegacyHex(), validSaltEnc(), "ver", 8},
		"rounds above max":   {42, validLegacyHex(), validSaltEnc(), validVerifyEnc(), models.BonusRoundsMax + 1},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := svc.ReplaceLegacy(context.Background(), tc.usernum, tc.legacy, tc.salt, tc.verify, tc.rounds)
			require.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}
	require.NoError(t, mock.ExpectationsWereMet(), "validation failures must not touch the database")
}

func TestReplaceLegacy_Success(t *testing.T) {
	svc, mock, _ := newAuthService(t)

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+salt`).
		WithArgs(validSaltEnc(), validVerifyEnc(), uint32(8), uint64(42), validLegacyHex()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.ReplaceLegacy(context.Background(), 42, validLegacyHex(), validSaltEnc(), validVerifyEnc(), 8)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceLegacy_NoRowMatched(t *testing.T) {
	svc, mock, _ := newAuthService(t)

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+salt`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.ReplaceLegacy(context.Background(), 42, validLegacyHex(), validSaltEnc(), validVerifyEnc(), 8)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSetLock_ZeroUserNumIgnored(t *testing.T) {
	svc, mock, _ := newAuthService(t)

	svc.SetLock(context.Background(), 0, models.LockAdmin)
	require.NoError(t, mock.ExpectationsWereMet(), "zero user number must not reach the database")
}

func TestSetLock_FailureIsSwallowed(t *testing.T) {
	svc, mock, _ := newAuthService(t)

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+locked`).
		WithArgs(uint8(models.LockNone), uint64(42)).
		WillReturnError(sql.ErrConnDone)

	// Must not panic or propagate.
	svc.SetLock(context.Background(), 42, models.LockNone)
	require.NoError(t, mock.ExpectationsWereMet())
}
