package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dankrut/callisto-server/internal/logger"
)

// Logging logs every HTTP request with its status and duration.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

func (l *Logging) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		l.logger.Info("HTTP request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", duration.Milliseconds())

		for _, ginErr := range c.Errors {
			l.logger.Error("HTTP request failed",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", ginErr.Error())
		}
	}
}
