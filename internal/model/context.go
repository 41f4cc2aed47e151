package model

import "context"

// ContextManager threads the request identity through a context. The
// identity is always an explicit value set by the authenticate middleware,
// never looked up from process-global state.
type ContextManager interface {
	SetIdentity(ctx context.Context, identity Identity) context.Context
	GetIdentity(ctx context.Context) (Identity, bool)
}
