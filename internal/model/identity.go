package model

import "github.com/google/uuid"

// Role names assigned to users at registration and carried in access
// token claims.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the authenticated principal for a single request. It is
// threaded explicitly through call chains and request contexts; nothing
// in the server reads the "current user" from ambient state.
type Identity struct {
	ID       uuid.UUID
	Username string
	Email    string
	Roles    []string
}

// IsAnonymous reports whether the identity belongs to no signed-in user.
func (i Identity) IsAnonymous() bool {
	return i.ID == uuid.Nil
}
