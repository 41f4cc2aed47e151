package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dankrut/callisto-server/internal/model"
)

// Claims represents access token claims. Subject carries the user ID;
// username, email and roles ride along so collaborators can authorize
// without a user-directory round trip.
type Claims struct {
	jwt.RegisteredClaims
	Username string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// JWT implements model.TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey []byte
	issuer    string
	audience  string
	now       func() time.Time
}

// NewJWT creates a token manager signing with the provided secret key and
// stamping the configured issuer and audience.
func NewJWT(secretKey, issuer, audience string) *JWT {
	return &JWT{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		audience:  audience,
		now:       time.Now,
	}
}

var _ model.TokenManager = (*JWT)(nil)

// GenerateAccessToken creates a signed short-lived access token for the
// identity with a unique jti.
func (j *JWT) GenerateAccessToken(identity model.Identity) (string, error) {
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			ID:        uuid.NewString(),
			Issuer:    j.issuer,
			Audience:  jwt.ClaimStrings{j.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(model.AccessTokenLifetime)),
		},
		Username: identity.Username,
		Email:    identity.Email,
		Roles:    identity.Roles,
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// ParseAccessToken verifies signature, expiry, issuer and audience, and
// returns the identity carried by the token.
func (j *JWT) ParseAccessToken(raw string) (model.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secretKey, nil
	},
		jwt.WithIssuer(j.issuer),
		jwt.WithAudience(j.audience),
		jwt.WithTimeFunc(func() time.Time { return j.now() }),
	)
	if err != nil {
		return model.Identity{}, mapParseError(err)
	}
	if !token.Valid {
		return model.Identity{}, model.ErrTokenMalformed
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: bad subject", model.ErrTokenMalformed)
	}

	return model.Identity{
		ID:       userID,
		Username: claims.Username,
		Email:    claims.Email,
		Roles:    claims.Roles,
	}, nil
}

// PeekExpiry reads the expiry claim without verifying the signature. A
// forged but well-formed expiry is harmless here: the value only schedules
// a renewal attempt, every security decision happens against the store.
func (j *JWT) PeekExpiry(raw string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", model.ErrTokenMalformed, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp claim", model.ErrTokenMalformed)
	}
	return claims.ExpiresAt.Time, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return model.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return model.ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", model.ErrTokenMalformed, err)
	}
}
