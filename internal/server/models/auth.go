// Package models holds the value types exchanged between repositories and
// services: authentication records with their credential variants, and mail
// message metadata.
package models

import (
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/maildepot/maildepot/internal/common"
)

// Encoded and decoded credential field lengths. The encoded forms are what the
// database stores; the decoded forms are what the password-derivation code
// consumes.
const (
	// LegacyTokenHexLen is the length of the hex-encoded legacy hash column.
	LegacyTokenHexLen = 128
	// LegacyTokenLen is the decoded legacy hash length in bytes.
	LegacyTokenLen = 64

	// SaltEncodedLen is the length of the base64-encoded salt column.
	SaltEncodedLen = 171
	// SaltLen is the decoded salt length in bytes.
	SaltLen = 128

	// VerificationEncodedLen is the length of the base64-encoded verification
	// token column.
	VerificationEncodedLen = 86
	// VerificationLen is the decoded verification token length in bytes.
	VerificationLen = 64

	// BonusRoundsMax caps the number of bonus key-derivation rounds.
	BonusRoundsMax = 1 << 24
)

// fieldEncoding is the unpadded URL-safe base64 variant used for the salt and
// verification columns.
var fieldEncoding = base64.RawURLEncoding

// LockStatus records why an account is locked. Zero means unlocked.
type LockStatus uint8

const (
	LockNone LockStatus = iota
	LockExpired
	LockAdmin
	LockAbuse
	LockUser
	LockInactivity
)

// CredentialScheme tags which credential variant a record carries.
type CredentialScheme uint8

const (
	// SchemeLegacy is the single pre-migration password hash.
	SchemeLegacy CredentialScheme = iota + 1
	// SchemeStacie is the salted, iterated scheme that replaces it.
	SchemeStacie
)

// Credential is a tagged union: exactly one of the two field groups is
// populated, according to Scheme. Values are only constructed by
// AuthRow.Record after the exclusivity invariant has been checked.
type Credential struct {
	Scheme CredentialScheme

	// LegacyToken is the decoded legacy hash. SchemeLegacy only.
	LegacyToken []byte

	// Salt, Verification, and BonusRounds form the modern triple.
	// SchemeStacie only.
	Salt         []byte
	Verification []byte
	BonusRounds  uint32
}

// AuthRecord identifies one authenticatable principal.
type AuthRecord struct {
	UserNum    uint64
	Username   string
	Credential Credential
	Locked     LockStatus
}

// AuthRow is the raw shape of an authentication row as read from the
// database, before any decoding or invariant checking. Salt, Verification,
// and LegacyToken columns are nullable.
type AuthRow struct {
	UserNum      uint64
	Username     string
	Salt         sql.NullString
	Verification sql.NullString
	BonusRounds  uint32
	LegacyToken  sql.NullString
	Locked       uint8
}

// Record decodes the row's credential fields and constructs an AuthRecord,
// enforcing the exclusivity invariant: the row must resolve to exactly one of
// the legacy or modern schemes. A mix of the two, a partial modern triple, or
// an out-of-range rounds count is ErrInconsistent. Rows never reach callers in
// a "both fields present" intermediate state.
func (r *AuthRow) Record() (*AuthRecord, error) {

	if r.UserNum == 0 {
		return nil, fmt.Errorf("%w: zero user number", common.ErrInconsistent)
	}

	var legacy, salt, verification []byte
	var err error

	if r.LegacyToken.Valid && r.LegacyToken.String != "" {
		if legacy, err = hex.DecodeString(r.LegacyToken.String); err != nil {
			return nil, fmt.Errorf("%w: undecodable legacy token: %v", common.ErrInconsistent, err)
		}
	}
	if r.Salt.Valid && r.Salt.String != "" {
		if salt, err = fieldEncoding.DecodeString(r.Salt.String); err != nil {
			return nil, fmt.Errorf("%w: undecodable salt: %v", common.ErrInconsistent, err)
		}
	}
	if r.Verification.Valid && r.Verification.String != "" {
		if verification, err = fieldEncoding.DecodeString(r.Verification.String); err != nil {
			return nil, fmt.Errorf("%w: undecodable verification token: %v", common.ErrInconsistent, err)
		}
	}

	record := &AuthRecord{
		UserNum:  r.UserNum,
		Username: r.Username,
		Locked:   LockStatus(r.Locked),
	}

	if len(legacy) == 0 {
		// Without a legacy hash the full modern triple must be present and
		// well-formed.
		if len(salt) != SaltLen || len(verification) != VerificationLen || r.BonusRounds > BonusRoundsMax {
			return nil, fmt.Errorf("%w: incomplete or malformed credential fields", common.ErrInconsistent)
		}
		record.Credential = Credential{
			Scheme:       SchemeStacie,
			Salt:         salt,
			Verification: verification,
			BonusRounds:  r.BonusRounds,
		}
		return record, nil
	}

	// A legacy hash must stand alone.
	if len(legacy) != LegacyTokenLen || len(salt) != 0 || len(verification) != 0 || r.BonusRounds > BonusRoundsMax {
		return nil, fmt.Errorf("%w: mixed legacy and modern credential fields", common.ErrInconsistent)
	}
	record.Credential = Credential{
		Scheme:      SchemeLegacy,
		LegacyToken: legacy,
	}
	return record, nil
}
