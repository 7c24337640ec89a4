// Package common defines shared constants and sentinel errors used across
// maildepot layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// ErrInvalidInput marks malformed or out-of-range caller input, rejected
	// before any resource is touched.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means no matching user, message, or folder row exists.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a uniqueness violation, such as duplicate username rows.
	ErrConflict = errors.New("conflict")

	// ErrInconsistent marks stored data that violates a required invariant,
	// such as mixed credential formats or an ambiguous affected-row count.
	// Always a hard failure, never recovered best-effort.
	ErrInconsistent = errors.New("inconsistent data")
)
