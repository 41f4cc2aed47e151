package model

import "errors"

var (
	// ErrNotFound is returned by stores when no matching record exists.
	ErrNotFound = errors.New("record not found")

	// Access token decode failures. None of these ever crash a request;
	// they all resolve to "unauthenticated".
	ErrTokenExpired     = errors.New("access token expired")
	ErrInvalidSignature = errors.New("access token signature invalid")
	ErrTokenMalformed   = errors.New("access token malformed")

	// ErrRefreshMismatch is returned by RefreshTokenStore.Rotate when the
	// stored value changed between read and write. It marks a lost rotation
	// race, not a fault.
	ErrRefreshMismatch = errors.New("refresh token mismatch")

	// Auth service failures surfaced to login/registration handlers.
	ErrUserExists         = errors.New("user already exists")
	ErrPasswordsDiffer    = errors.New("passwords do not match")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrResetTokenInvalid  = errors.New("password reset token invalid or expired")
)
