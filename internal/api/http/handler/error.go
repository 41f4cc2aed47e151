package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dankrut/callisto-server/internal/model"
)

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
	case errors.Is(err, model.ErrPasswordsDiffer):
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
	case errors.Is(err, model.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, model.ErrResetTokenInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "reset token invalid or expired"})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
