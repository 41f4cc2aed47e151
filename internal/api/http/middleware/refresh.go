package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/dankrut/callisto-server/internal/api/http/cookie"
	"github.com/dankrut/callisto-server/internal/logger"
	"github.com/dankrut/callisto-server/internal/service"
)

// RefreshCoordinator decides per request whether the client's credential
// pair is left alone, silently rotated, or revoked.
type RefreshCoordinator interface {
	Coordinate(ctx context.Context, accessRaw, refreshRaw string) service.RefreshOutcome
}

// Refresh runs the sliding-refresh coordinator before any handler and
// applies its outcome to the response cookies. The request itself always
// continues; the coordinator never fails a request.
type Refresh struct {
	coordinator RefreshCoordinator
	cookies     cookie.Options
	logger      *logger.Logger
}

func NewRefresh(coordinator RefreshCoordinator, cookies cookie.Options, logger *logger.Logger) *Refresh {
	return &Refresh{coordinator: coordinator, cookies: cookies, logger: logger}
}

func (m *Refresh) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessRaw, _ := c.Cookie(cookie.AccessToken)
		refreshRaw, _ := c.Cookie(cookie.RefreshToken)

		outcome := m.coordinator.Coordinate(c.Request.Context(), accessRaw, refreshRaw)
		switch outcome.Action {
		case service.RefreshActionSetPair:
			creds := outcome.Credentials
			cookie.Set(c.Writer, cookie.AccessToken, creds.AccessToken, creds.AccessExpiresAt, m.cookies)
			cookie.Set(c.Writer, cookie.RefreshToken, creds.RefreshToken, creds.RefreshExpiresAt, m.cookies)
		case service.RefreshActionClear:
			cookie.DeletePair(c.Writer, m.cookies)
		}

		c.Next()
	}
}
