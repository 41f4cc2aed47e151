package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshTokenStore keeps the server-side record of refresh credentials.
// An identity has at most one current value at any time; rotation makes
// the previous value invalid the instant the new one is stored.
type RefreshTokenStore interface {
	// Save installs token as the identity's current refresh credential,
	// unconditionally superseding any previous value. Used at login and
	// registration.
	Save(ctx context.Context, token RefreshToken) error

	// Rotate installs token as the current credential only if the value
	// stored right now hashes to prevHash. Returns ErrRefreshMismatch when
	// another writer got there first and ErrNotFound when the identity has
	// no current credential. A plain read-then-write is not an acceptable
	// implementation; the compare must happen at write time.
	Rotate(ctx context.Context, token RefreshToken, prevHash []byte) error

	// Lookup resolves the identity historically associated with a presented
	// value and whether that value is still the current one. Superseded
	// values must keep resolving until their natural expiry so that replays
	// can be attributed to an identity.
	Lookup(ctx context.Context, tokenHash []byte) (RefreshLookup, error)

	// Clear removes the identity's refresh credential. Idempotent.
	Clear(ctx context.Context, userID uuid.UUID) error
}

// RefreshToken is the stored form of a refresh credential. Only the
// SHA-256 hash of the opaque value is persisted.
type RefreshToken struct {
	UserID    uuid.UUID
	TokenHash []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}

// RefreshLookup is the result of resolving a presented refresh value.
type RefreshLookup struct {
	UserID  uuid.UUID
	Current bool
}
