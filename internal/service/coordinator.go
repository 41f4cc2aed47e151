package service

import (
	"context"
	"errors"
	"time"

	"github.com/dankrut/callisto-server/internal/logger"
	"github.com/dankrut/callisto-server/internal/model"
)

// RefreshAction tells the transport layer what to do with the client's
// credential slots after the coordinator has run.
type RefreshAction int

const (
	// RefreshActionNone leaves the client's credentials untouched.
	RefreshActionNone RefreshAction = iota
	// RefreshActionSetPair installs freshly rotated credentials.
	RefreshActionSetPair
	// RefreshActionClear deletes both credential slots client-side.
	RefreshActionClear
)

// RefreshOutcome is the coordinator's per-request decision.
type RefreshOutcome struct {
	Action      RefreshAction
	Credentials IssuedCredentials
}

// RefreshCoordinator runs once per inbound request, before any handler,
// and decides whether the client's credential pair is left alone, silently
// rotated, or revoked. It never produces a user-visible error: every
// failure resolves to continuing the request unauthenticated.
type RefreshCoordinator struct {
	tokens *TokenService
	users  model.UserStore
	store  model.RefreshTokenStore
	logger *logger.Logger
	now    func() time.Time
}

func NewRefreshCoordinator(tokens *TokenService, users model.UserStore, store model.RefreshTokenStore, logger *logger.Logger) *RefreshCoordinator {
	return &RefreshCoordinator{
		tokens: tokens,
		users:  users,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Coordinate applies the sliding-refresh rules to the request's current
// credentials. First matching rule wins:
//
//  1. no refresh credential: nothing to renew with, clear stray cookies.
//  2. refresh without access: renewal due immediately, so a tab that lost
//     its access cookie silently recovers.
//  3. unreadable access expiry: skip renewal this request.
//  4. inside the fresh window: no-op, zero store writes.
//  5. renewal due: rotate against the store, with replay and race handling.
func (c *RefreshCoordinator) Coordinate(ctx context.Context, accessRaw, refreshRaw string) RefreshOutcome {
	if refreshRaw == "" {
		return RefreshOutcome{Action: RefreshActionClear}
	}

	if accessRaw != "" {
		expiry, err := c.tokens.manager.PeekExpiry(accessRaw)
		if err != nil {
			c.logger.Debug("refresh coordinator: unreadable access token expiry, skipping renewal",
				"error", err.Error())
			return RefreshOutcome{Action: RefreshActionNone}
		}

		now := c.now()
		renewalDueAt := expiry.Add(-model.EarlyRenewalWindow)
		if now.Before(renewalDueAt) && now.Before(expiry.Add(model.ExpiryGrace)) {
			return RefreshOutcome{Action: RefreshActionNone}
		}
	}

	return c.rotate(ctx, refreshRaw)
}

func (c *RefreshCoordinator) rotate(ctx context.Context, refreshRaw string) RefreshOutcome {
	lookup, err := c.store.Lookup(ctx, hashRefresh(refreshRaw))
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			// Store trouble fails closed: same path as an unknown value.
			c.logger.Error("refresh coordinator: store lookup failed, revoking defensively",
				"error", err.Error())
		}
		return RefreshOutcome{Action: RefreshActionClear}
	}

	if !lookup.Current {
		// The presented value has been superseded by a later rotation: two
		// clients hold what was once the same credential. Kill the session.
		c.logger.Warn("refresh coordinator: superseded refresh token presented, revoking session",
			"user_id", lookup.UserID)
		if err := c.tokens.RevokeForUser(ctx, lookup.UserID); err != nil {
			c.logger.Error("refresh coordinator: revocation failed",
				"user_id", lookup.UserID,
				"error", err.Error())
		}
		return RefreshOutcome{Action: RefreshActionClear}
	}

	user, err := c.users.GetByID(ctx, lookup.UserID)
	if err != nil {
		c.logger.Error("refresh coordinator: failed to load identity, revoking defensively",
			"user_id", lookup.UserID,
			"error", err.Error())
		return RefreshOutcome{Action: RefreshActionClear}
	}

	creds, err := c.tokens.Rotate(ctx, user.Identity(), refreshRaw)
	if err != nil {
		if errors.Is(err, model.ErrRefreshMismatch) {
			// A concurrent request won the rotation between our lookup and
			// our write. The winner's credentials are legitimate; this
			// request just proceeds on its still-valid access token.
			c.logger.Debug("refresh coordinator: lost rotation race",
				"user_id", lookup.UserID)
			return RefreshOutcome{Action: RefreshActionNone}
		}
		c.logger.Error("refresh coordinator: rotation failed, revoking defensively",
			"user_id", lookup.UserID,
			"error", err.Error())
		return RefreshOutcome{Action: RefreshActionClear}
	}

	c.logger.Debug("refresh coordinator: rotated credentials",
		"user_id", lookup.UserID)
	return RefreshOutcome{Action: RefreshActionSetPair, Credentials: creds}
}
