package models

import (
	"bytes"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/maildepot/maildepot/internal/common"
	"github.com/stretchr/testify/require"
)

func encSalt(t *testing.T, b byte) string {
	t.Helper()
	s := base64.RawURLEncoding.EncodeToString(bytes.Repeat([]byte{b}, SaltLen))
	require.Len(t, s, SaltEncodedLen)
	return s
}

func encVerification(t *testing.T, b byte) string {
	t.Helper()
	s := base64.RawURLEncoding.EncodeToString(bytes.Repeat([]byte{b}, VerificationLen))
	require.Len(t, s, VerificationEncodedLen)
	return s
}

func encLegacy(t *testing.T, b byte) string {
	t.Helper()
	s := hex.EncodeToString(bytes.Repeat([]byte{b}, LegacyTokenLen))
	require.Len(t, s, LegacyTokenHexLen)
	return s
}

func ns(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestAuthRowRecord_Stacie(t *testing.T) {
	row := &AuthRow{
		UserNum:      7,
		Username:     "magma",
		Salt:         ns(encSalt(t, 0xAA)),
		Verification: ns(encVerification(t, 0xBB)),
		BonusRounds:  128,
		Locked:       uint8(LockAdmin),
	}

	rec, err := row.Record()
	require.NoError(t, err)
	require.Equal(t, SchemeStacie, rec.Credential.Scheme)
	require.Len(t, rec.Credential.Salt, SaltLen)
	require.Len(t, rec.Credential.Verification, VerificationLen)
	require.EqualValues(t, 128, rec.Credential.BonusRounds)
	require.Empty(t, rec.Credential.LegacyToken)
	require.Equal(t, LockAdmin, rec.Locked)
}

func TestAuthRowRecord_Legacy(t *testing.T) {
	row := &AuthRow{
		UserNum:     7,
		Username:    "magma",
		LegacyToken: ns(encLegacy(t, 0x11)),
	}

	rec, err := row.Record()
	require.NoError(t, err)
	require.Equal(t, SchemeLegacy, rec.Credential.Scheme)
	require.Len(t, rec.Credential.LegacyToken, LegacyTokenLen)
	require.Empty(t, rec.Credential.Salt)
	require.Equal(t, LockNone, rec.Locked)
}

func TestAuthRowRecord_MixedFieldsInconsistent(t *testing.T) {
	row := &AuthRow{
		UserNum:      7,
		Username:     "magma",
		Salt:         ns(encSalt(t, 0xAA)),
		Verification: ns(encVerification(t, 0xBB)),
		LegacyToken:  ns(encLegacy(t, 0x11)),
	}

	_, err := row.Record()
	require.ErrorIs(t, err, common.ErrInconsistent)
}

func TestAuthRowRecord_PartialStacieInconsistent(t *testing.T) {
	cases := map[string]*AuthRow{
		"missing verification": {
			UserNum:  7,
			Username: "magma",
			Salt:     ns(encSalt(t, 0xAA)),
		},
		"missing salt": {
			UserNum:      7,
			Username:     "magma",
			Verification: ns(encVerification(t, 0xBB)),
		},
		"neither populated": {
			UserNum:  7,
			Username: "magma",
		},
	}

	for name, row := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := row.Record()
			require.ErrorIs(t, err, common.ErrInconsistent)
		})
	}
}

func TestAuthRowRecord_RoundsAboveMax(t *testing.T) {
	row := &AuthRow{
		UserNum:      7,
		Username:     "magma",
		Salt:         ns(encSalt(t, 0xAA)),
		Verification: ns(encVerification(t, 0xBB)),
		BonusRounds:  BonusRoundsMax + 1,
	}

	_, err := row.Record()
	require.ErrorIs(t, err, common.ErrInconsistent)
}

func TestAuthRowRecord_BadEncodings(t *testing.T) {
	legacyBadHex := ns("zz" + encLegacy(t, 0x11)[2:])

	row := &AuthRow{UserNum: 7, Username: "magma", LegacyToken: legacyBadHex}
	_, err := row.Record()
	require.ErrorIs(t, err, common.ErrInconsistent)

	row = &AuthRow{
		UserNum:      7,
		Username:     "magma",
		Salt:         ns("!!!not base64!!!"),
		Verification: ns(encVerification(t, 0xBB)),
	}
	_, err = row.Record()
	require.ErrorIs(t, err, common.ErrInconsistent)
}

func TestAuthRowRecord_ZeroUserNum(t *testing.T) {
	row := &AuthRow{Username: "magma", LegacyToken: ns(encLegacy(t, 0x11))}
	_, err := row.Record()
	require.ErrorIs(t, err, common.ErrInconsistent)
}

func TestAuthRowRecord_ShortLegacyToken(t *testing.T) {
	short := hex.EncodeToString(bytes.Repeat([]byte{0x11}, 32))
	row := &AuthRow{UserNum: 7, Username: "magma", LegacyToken: ns(short)}
	_, err := row.Record()
	require.ErrorIs(t, err, common.ErrInconsistent)
}
