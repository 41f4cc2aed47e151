package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dankrut/callisto-server/internal/api/http/cookie"
	"github.com/dankrut/callisto-server/internal/logger"
	"github.com/dankrut/callisto-server/internal/model"
	"github.com/dankrut/callisto-server/internal/service"
)

// AuthService defines registration, login and account operations.
type AuthService interface {
	Register(ctx context.Context, params service.RegisterParams) (model.User, service.IssuedCredentials, error)
	Login(ctx context.Context, email, password string) (model.User, service.IssuedCredentials, error)
	Logout(ctx context.Context, identity model.Identity) error
	Account(ctx context.Context, identity model.Identity) (model.User, error)
	ChangeInfo(ctx context.Context, identity model.Identity, params service.ChangeInfoParams) (model.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Auth handles HTTP endpoints for authentication and account management.
type Auth struct {
	authService    AuthService
	contextManager model.ContextManager
	cookies        cookie.Options
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, contextManager model.ContextManager, cookies cookie.Options, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		contextManager: contextManager,
		cookies:        cookies,
		logger:         logger,
	}
}

type registerRequest struct {
	Username       string `json:"username" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone"`
	Password       string `json:"password" binding:"required,min=8"`
	RepeatPassword string `json:"repeatPassword" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type changeInfoRequest struct {
	NewUsername *string `json:"newUsername"`
	NewEmail    *string `json:"newEmail"`
	NewPhone    *string `json:"newPhone"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

type userResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone,omitempty"`
	Roles    []string `json:"roles"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Email:    u.Email,
		Phone:    u.Phone,
		Roles:    u.Roles,
	}
}

// Register creates an account and signs the client in.
func (h *Auth) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, creds, err := h.authService.Register(c.Request.Context(), service.RegisterParams{
		Username:       req.Username,
		Email:          req.Email,
		Phone:          req.Phone,
		Password:       req.Password,
		RepeatPassword: req.RepeatPassword,
	})
	if err != nil {
		h.logger.Error("Auth handler: registration failed",
			"email", req.Email,
			"error", err.Error())
		handleError(c, err)
		return
	}

	h.setCredentials(c, creds)
	c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login verifies credentials and signs the client in.
func (h *Auth) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, creds, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("Auth handler: login failed",
			"email", req.Email,
			"error", err.Error())
		handleError(c, err)
		return
	}

	h.setCredentials(c, creds)
	c.JSON(http.StatusOK, toUserResponse(user))
}

// Logout revokes the refresh credential and clears both cookies. Always
// succeeds, even for anonymous callers.
func (h *Auth) Logout(c *gin.Context) {
	identity, _ := h.contextManager.GetIdentity(c.Request.Context())

	if err := h.authService.Logout(c.Request.Context(), identity); err != nil {
		h.logger.Error("Auth handler: logout failed",
			"user_id", identity.ID,
			"error", err.Error())
		handleError(c, err)
		return
	}

	cookie.DeletePair(c.Writer, h.cookies)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Account returns the signed-in user's profile.
func (h *Auth) Account(c *gin.Context) {
	identity, _ := h.contextManager.GetIdentity(c.Request.Context())

	user, err := h.authService.Account(c.Request.Context(), identity)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// ChangeInfo updates the signed-in user's profile.
func (h *Auth) ChangeInfo(c *gin.Context) {
	identity, _ := h.contextManager.GetIdentity(c.Request.Context())

	var req changeInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.ChangeInfo(c.Request.Context(), identity, service.ChangeInfoParams{
		NewUsername: req.NewUsername,
		NewEmail:    req.NewEmail,
		NewPhone:    req.NewPhone,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// ForgotPassword mails a password reset token.
func (h *Auth) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.logger.Error("Auth handler: forgot password failed",
			"email", req.Email,
			"error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "reset token sent"})
}

// ResetPassword redeems a reset token and sets a new password.
func (h *Auth) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password reset"})
}

func (h *Auth) setCredentials(c *gin.Context, creds service.IssuedCredentials) {
	cookie.Set(c.Writer, cookie.AccessToken, creds.AccessToken, creds.AccessExpiresAt, h.cookies)
	cookie.Set(c.Writer, cookie.RefreshToken, creds.RefreshToken, creds.RefreshExpiresAt, h.cookies)
}
