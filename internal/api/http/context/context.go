// Package context threads the request identity through request contexts
// as an explicit value.
package context

import (
	"context"

	"github.com/dankrut/callisto-server/internal/model"
)

type identityKey struct{}

// Manager implements model.ContextManager over a plain context key.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

var _ model.ContextManager = (*Manager)(nil)

// SetIdentity returns a child context carrying the identity.
func (m *Manager) SetIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentity retrieves the identity set by the authenticate middleware.
// The second return is false for anonymous requests.
func (m *Manager) GetIdentity(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(model.Identity)
	if !ok || identity.IsAnonymous() {
		return model.Identity{}, false
	}
	return identity, true
}
