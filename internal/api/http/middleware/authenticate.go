package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dankrut/callisto-server/internal/api/http/cookie"
	"github.com/dankrut/callisto-server/internal/logger"
	"github.com/dankrut/callisto-server/internal/model"
)

// TokenDecoder resolves an identity from a raw access token.
type TokenDecoder interface {
	IdentityFromAccessToken(raw string) (model.Identity, error)
}

// Authenticate derives the request identity from the access cookie and
// threads it through the request context. Decode failures mean the
// request proceeds anonymously; protected routes enforce with RequireAuth.
type Authenticate struct {
	decoder        TokenDecoder
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewAuthenticate(decoder TokenDecoder, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{decoder: decoder, contextManager: contextManager, logger: logger}
}

func (m *Authenticate) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(cookie.AccessToken)
		if err != nil || raw == "" {
			c.Next()
			return
		}

		identity, err := m.decoder.IdentityFromAccessToken(raw)
		if err != nil {
			m.logger.Debug("authenticate middleware: rejected access token",
				"error", err.Error())
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(m.contextManager.SetIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// RequireAuth aborts anonymous requests with 401.
func (m *Authenticate) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := m.contextManager.GetIdentity(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}
