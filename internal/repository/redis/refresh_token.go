package redis

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dankrut/callisto-server/internal/model"
)

// Key layout:
//
//	crt:user:{userID} -> hex hash of the current refresh value, TTL = value expiry
//	crt:val:{hash}    -> owning userID, TTL = refresh lifetime
//
// Value keys are written for every issued credential and deliberately kept
// after rotation: a superseded value must still resolve to its owner so a
// replay can be attributed and the session revoked.
const (
	userKeyPrefix  = "crt:user:"
	valueKeyPrefix = "crt:val:"
)

// Rotation status codes returned by the CAS script.
const (
	rotateStatusNotFound = 0
	rotateStatusMismatch = 1
	rotateStatusRotated  = 2
)

// rotateScript performs the compare-and-swap in a single atomic step:
// the current hash is replaced only if it still equals the provided one.
const rotateScript = `
local cur = redis.call("GET", KEYS[1])
if not cur then
  return 0
end
if cur ~= ARGV[1] then
  return 1
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
redis.call("SET", KEYS[2], ARGV[4], "PX", ARGV[5])
return 2
`

var rotateLua = redis.NewScript(rotateScript)

var _ model.RefreshTokenStore = (*RefreshTokenStore)(nil)

// RefreshTokenStore is a redis-backed model.RefreshTokenStore with atomic
// rotation via a Lua compare-and-swap.
type RefreshTokenStore struct {
	client redis.UniversalClient
}

func NewRefreshTokenStore(client redis.UniversalClient) *RefreshTokenStore {
	return &RefreshTokenStore{client: client}
}

func userKey(userID uuid.UUID) string {
	return userKeyPrefix + userID.String()
}

func valueKey(tokenHash []byte) string {
	return valueKeyPrefix + hex.EncodeToString(tokenHash)
}

func (s *RefreshTokenStore) Save(ctx context.Context, token model.RefreshToken) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("refusing to store expired refresh token")
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, userKey(token.UserID), hex.EncodeToString(token.TokenHash), ttl)
		pipe.Set(ctx, valueKey(token.TokenHash), token.UserID.String(), model.RefreshTokenLifetime)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (s *RefreshTokenStore) Rotate(ctx context.Context, token model.RefreshToken, prevHash []byte) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("refusing to store expired refresh token")
	}

	result, err := rotateLua.Run(ctx, s.client,
		[]string{userKey(token.UserID), valueKey(token.TokenHash)},
		hex.EncodeToString(prevHash),
		hex.EncodeToString(token.TokenHash),
		ttl.Milliseconds(),
		token.UserID.String(),
		model.RefreshTokenLifetime.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	switch result {
	case rotateStatusNotFound:
		return model.ErrNotFound
	case rotateStatusMismatch:
		return model.ErrRefreshMismatch
	case rotateStatusRotated:
		return nil
	default:
		return fmt.Errorf("unexpected rotation status %d", result)
	}
}

func (s *RefreshTokenStore) Lookup(ctx context.Context, tokenHash []byte) (model.RefreshLookup, error) {
	owner, err := s.client.Get(ctx, valueKey(tokenHash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.RefreshLookup{}, model.ErrNotFound
		}
		return model.RefreshLookup{}, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	userID, err := uuid.Parse(owner)
	if err != nil {
		return model.RefreshLookup{}, fmt.Errorf("corrupt refresh token owner: %w", err)
	}

	current, err := s.client.Get(ctx, userKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return model.RefreshLookup{}, fmt.Errorf("failed to read current refresh token: %w", err)
	}

	return model.RefreshLookup{
		UserID:  userID,
		Current: err == nil && current == hex.EncodeToString(tokenHash),
	}, nil
}

func (s *RefreshTokenStore) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, userKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}
