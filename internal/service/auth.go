package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dankrut/callisto-server/internal/logger"
	"github.com/dankrut/callisto-server/internal/model"
)

const resetTokenLifetime = 12 * time.Hour

// RegisterParams carries the registration form.
type RegisterParams struct {
	Username       string
	Email          string
	Phone          string
	Password       string
	RepeatPassword string
}

// ChangeInfoParams carries the optional profile updates. Nil fields are
// left unchanged; taken usernames and emails are silently skipped, as a
// profile update must not fail halfway.
type ChangeInfoParams struct {
	NewUsername *string
	NewEmail    *string
	NewPhone    *string
}

// Auth implements registration, login and account management on top of
// the user store and the token service.
type Auth struct {
	users  model.UserStore
	tokens *TokenService
	mailer model.Mailer
	logger *logger.Logger
	now    func() time.Time
}

func NewAuth(users model.UserStore, tokens *TokenService, mailer model.Mailer, logger *logger.Logger) *Auth {
	return &Auth{
		users:  users,
		tokens: tokens,
		mailer: mailer,
		logger: logger,
		now:    time.Now,
	}
}

// Register creates a user and signs them in with a fresh credential pair.
func (a *Auth) Register(ctx context.Context, params RegisterParams) (model.User, IssuedCredentials, error) {
	if params.Password != params.RepeatPassword {
		return model.User{}, IssuedCredentials{}, model.ErrPasswordsDiffer
	}

	existing, err := a.users.GetByEmail(ctx, params.Email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.User{}, IssuedCredentials{}, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing.ID != uuid.Nil {
		return model.User{}, IssuedCredentials{}, model.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, IssuedCredentials{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := a.users.Create(ctx, model.User{
		ID:           uuid.New(),
		Username:     params.Username,
		Email:        params.Email,
		Phone:        params.Phone,
		PasswordHash: hash,
		Roles:        []string{model.RoleUser},
	})
	if err != nil {
		return model.User{}, IssuedCredentials{}, fmt.Errorf("failed to create user: %w", err)
	}

	a.logger.Info("Auth service: user registered",
		"user_id", user.ID,
		"username", user.Username)

	creds, err := a.tokens.Issue(ctx, user.Identity())
	if err != nil {
		return model.User{}, IssuedCredentials{}, fmt.Errorf("failed to issue credentials: %w", err)
	}

	return user, creds, nil
}

// Login verifies the password and signs the user in with a fresh
// credential pair, superseding any refresh value from another device.
func (a *Auth) Login(ctx context.Context, email, password string) (model.User, IssuedCredentials, error) {
	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, IssuedCredentials{}, model.ErrInvalidCredentials
		}
		return model.User{}, IssuedCredentials{}, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		a.logger.Info("Auth service: rejected login",
			"user_id", user.ID)
		return model.User{}, IssuedCredentials{}, model.ErrInvalidCredentials
	}

	creds, err := a.tokens.Issue(ctx, user.Identity())
	if err != nil {
		return model.User{}, IssuedCredentials{}, fmt.Errorf("failed to issue credentials: %w", err)
	}

	a.logger.Info("Auth service: user logged in",
		"user_id", user.ID)

	return user, creds, nil
}

// Logout revokes the identity's refresh credential. Idempotent.
func (a *Auth) Logout(ctx context.Context, identity model.Identity) error {
	if identity.IsAnonymous() {
		return nil
	}
	return a.tokens.RevokeForUser(ctx, identity.ID)
}

// Account returns the stored profile for the identity.
func (a *Auth) Account(ctx context.Context, identity model.Identity) (model.User, error) {
	return a.users.GetByID(ctx, identity.ID)
}

// ChangeInfo applies the requested profile updates.
func (a *Auth) ChangeInfo(ctx context.Context, identity model.Identity, params ChangeInfoParams) (model.User, error) {
	user, err := a.users.GetByID(ctx, identity.ID)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to load user: %w", err)
	}

	if params.NewEmail != nil && a.emailFree(ctx, *params.NewEmail) {
		user.Email = *params.NewEmail
	}
	if params.NewUsername != nil && a.usernameFree(ctx, *params.NewUsername) {
		user.Username = *params.NewUsername
	}
	if params.NewPhone != nil {
		user.Phone = *params.NewPhone
	}

	if err := a.users.Update(ctx, user); err != nil {
		return model.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// ForgotPassword stores a short-lived reset token on the user and mails
// it. An unknown email is reported to the caller as ErrNotFound; handlers
// decide how much of that to reveal.
func (a *Auth) ForgotPassword(ctx context.Context, email string) error {
	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	if err := a.users.SetResetToken(ctx, user.ID, token, a.now().Add(resetTokenLifetime)); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	body := fmt.Sprintf("Token for resetting your password:\n\n%s\n\nIt expires in 12 hours.", token)
	if err := a.mailer.Send(ctx, user.Email, "Callisto password reset", body); err != nil {
		return fmt.Errorf("failed to send reset mail: %w", err)
	}

	a.logger.Info("Auth service: password reset token sent",
		"user_id", user.ID)
	return nil
}

// ResetPassword redeems a reset token, replaces the password and revokes
// the refresh credential so stolen sessions die with the old password.
func (a *Auth) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := a.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrResetTokenInvalid
		}
		return fmt.Errorf("failed to load user by reset token: %w", err)
	}

	if user.ResetTokenExpires == nil || a.now().After(*user.ResetTokenExpires) {
		return model.ErrResetTokenInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := a.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := a.tokens.RevokeForUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	a.logger.Info("Auth service: password reset completed",
		"user_id", user.ID)
	return nil
}

func (a *Auth) emailFree(ctx context.Context, email string) bool {
	_, err := a.users.GetByEmail(ctx, email)
	return errors.Is(err, model.ErrNotFound)
}

func (a *Auth) usernameFree(ctx context.Context, username string) bool {
	_, err := a.users.GetByUsername(ctx, username)
	return errors.Is(err, model.ErrNotFound)
}

func newResetToken() (string, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
