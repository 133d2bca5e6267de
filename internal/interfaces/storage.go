// Package interfaces defines service contracts for Questfolio
package interfaces

import (
	"context"
	"errors"
)

// Sentinel errors for the CredentialStore contract.
var (
	// ErrTokenNotFound indicates no refresh-token record exists yet.
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrTokenConflict indicates the stored token no longer equals the
	// expected value at swap time: the record was rotated elsewhere.
	// Callers must abort rather than retry, a stale token is already
	// burned server-side.
	ErrTokenConflict = errors.New("refresh token conflict")
)

// CredentialStore persists exactly one refresh-token record.
//
// Swap is atomic with respect to the single logical record: either the
// stored value still equals expectedOld and is replaced by next, or the
// call fails with ErrTokenConflict and nothing changes. No partial update
// is observable.
type CredentialStore interface {
	// Read returns the stored refresh token, or ErrTokenNotFound.
	Read(ctx context.Context) (string, error)

	// Swap replaces expectedOld with next, or fails with ErrTokenConflict
	// if the stored value has drifted since Read.
	Swap(ctx context.Context, expectedOld, next string) error

	// Seed unconditionally writes the token, creating the record if absent.
	// Used for first-time setup only; rotation goes through Swap.
	Seed(ctx context.Context, token string) error

	Close() error
}
