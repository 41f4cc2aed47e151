package model

import "time"

// Credential lifetimes. An access token lives a full hour but renewal is
// triggered EarlyRenewalWindow before expiry, so a client always holds a
// token with plenty of remaining validity while a fresh one is minted.
const (
	AccessTokenLifetime  = 60 * time.Minute
	RefreshTokenLifetime = 30 * 24 * time.Hour
	EarlyRenewalWindow   = 15 * time.Minute
	ExpiryGrace          = time.Minute
)

// TokenManager encodes and decodes signed access tokens.
//
// PeekExpiry is deliberately separate from ParseAccessToken: it reads the
// expiry claim without verifying the signature and exists only to schedule
// renewals. Its result must never feed an authorization decision.
type TokenManager interface {
	GenerateAccessToken(identity Identity) (string, error)
	ParseAccessToken(raw string) (Identity, error)
	PeekExpiry(raw string) (time.Time, error)
}
