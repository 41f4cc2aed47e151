package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dankrut/callisto-server/internal/logger"
	"github.com/dankrut/callisto-server/internal/model"
)

// IssuedCredentials is a freshly minted (access, refresh) pair together
// with the expiries the transport layer stamps on the cookies.
type IssuedCredentials struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// TokenService mints, rotates and revokes credential pairs. It composes
// the TokenManager with the RefreshTokenStore.
type TokenService struct {
	manager model.TokenManager
	store   model.RefreshTokenStore
	logger  *logger.Logger
	now     func() time.Time
}

func NewTokenService(manager model.TokenManager, store model.RefreshTokenStore, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, store: store, logger: logger, now: time.Now}
}

// Issue creates a fresh credential pair for the identity and installs the
// refresh value as current, superseding any previous one. Used at login
// and registration; rotation goes through Rotate instead.
func (s *TokenService) Issue(ctx context.Context, identity model.Identity) (IssuedCredentials, error) {
	creds, rt, err := s.mint(identity)
	if err != nil {
		return IssuedCredentials{}, err
	}

	if err := s.store.Save(ctx, rt); err != nil {
		return IssuedCredentials{}, fmt.Errorf("persist refresh: %w", err)
	}

	return creds, nil
}

// Rotate replaces the identity's current refresh credential with a new
// pair, but only if presentedRefresh is still the current value at write
// time. A concurrent rotation that got there first surfaces as
// model.ErrRefreshMismatch.
func (s *TokenService) Rotate(ctx context.Context, identity model.Identity, presentedRefresh string) (IssuedCredentials, error) {
	creds, rt, err := s.mint(identity)
	if err != nil {
		return IssuedCredentials{}, err
	}

	if err := s.store.Rotate(ctx, rt, hashRefresh(presentedRefresh)); err != nil {
		return IssuedCredentials{}, err
	}

	return creds, nil
}

// RevokeForUser invalidates the identity's refresh credential. Revoking an
// already-revoked identity is a no-op success.
func (s *TokenService) RevokeForUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Clear(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh: %w", err)
	}
	return nil
}

// IdentityFromAccessToken verifies the access token and returns the
// identity it carries.
func (s *TokenService) IdentityFromAccessToken(raw string) (model.Identity, error) {
	return s.manager.ParseAccessToken(raw)
}

func (s *TokenService) mint(identity model.Identity) (IssuedCredentials, model.RefreshToken, error) {
	access, err := s.manager.GenerateAccessToken(identity)
	if err != nil {
		return IssuedCredentials{}, model.RefreshToken{}, fmt.Errorf("issue access: %w", err)
	}

	refresh, err := newRefreshValue()
	if err != nil {
		return IssuedCredentials{}, model.RefreshToken{}, fmt.Errorf("issue refresh: %w", err)
	}

	now := s.now()
	creds := IssuedCredentials{
		AccessToken:      access,
		AccessExpiresAt:  now.Add(model.AccessTokenLifetime),
		RefreshToken:     refresh,
		RefreshExpiresAt: now.Add(model.RefreshTokenLifetime),
	}
	rt := model.RefreshToken{
		UserID:    identity.ID,
		TokenHash: hashRefresh(refresh),
		CreatedAt: now,
		ExpiresAt: creds.RefreshExpiresAt,
	}
	return creds, rt, nil
}

// newRefreshValue returns 64 bytes of cryptographically strong randomness
// in base64, the opaque wire form of a refresh credential.
func newRefreshValue() (string, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func hashRefresh(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}
