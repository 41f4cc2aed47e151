package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dankrut/callisto-server/internal/model"
	"github.com/dankrut/callisto-server/internal/service"
)

// UserService derives per-user data for signed-in clients.
type UserService interface {
	SIPCredentials(identity model.Identity) service.SIPCredentials
}

// User handles HTTP endpoints for per-user derived data.
type User struct {
	userService    UserService
	contextManager model.ContextManager
}

// NewUser creates a new User handler.
func NewUser(userService UserService, contextManager model.ContextManager) *User {
	return &User{userService: userService, contextManager: contextManager}
}

type sipCredentialsResponse struct {
	SipUsername string `json:"sipUsername"`
	SipPassword string `json:"sipPassword"`
	SipDomain   string `json:"sipDomain"`
}

// SIPCredentials returns the credentials the client registers with at the
// SIP infrastructure.
func (h *User) SIPCredentials(c *gin.Context) {
	identity, _ := h.contextManager.GetIdentity(c.Request.Context())

	creds := h.userService.SIPCredentials(identity)
	c.JSON(http.StatusOK, sipCredentialsResponse{
		SipUsername: creds.Username,
		SipPassword: creds.Password,
		SipDomain:   creds.Domain,
	})
}
