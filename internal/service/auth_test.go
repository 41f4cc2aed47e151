package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dankrut/callisto-server/internal/logger"
	servermocks "github.com/dankrut/callisto-server/internal/mocks"
	"github.com/dankrut/callisto-server/internal/model"
)

type authFixture struct {
	users  *servermocks.UserStore
	store  *servermocks.RefreshTokenStore
	tokman *servermocks.TokenManager
	mailer *servermocks.Mailer
	auth   *Auth
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := &servermocks.UserStore{}
	store := &servermocks.RefreshTokenStore{}
	tokman := &servermocks.TokenManager{}
	mailer := &servermocks.Mailer{}
	log := logger.New(0)

	tokens := NewTokenService(tokman, store, log)
	auth := NewAuth(users, tokens, mailer, log)

	return &authFixture{users: users, store: store, tokman: tokman, mailer: mailer, auth: auth}
}

func TestAuth_Register(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	f.users.On("GetByEmail", ctx, "a@b.c").Return(model.User{}, model.ErrNotFound).Once()
	f.users.On("Create", ctx, mock.Anything).Return(func(_ context.Context, u model.User) model.User {
		return u
	}, nil).Once()
	f.tokman.On("GenerateAccessToken", mock.Anything).Return("access", nil).Once()
	f.store.On("Save", ctx, mock.Anything).Return(nil).Once()

	user, creds, err := f.auth.Register(ctx, RegisterParams{
		Username:       "alice",
		Email:          "a@b.c",
		Password:       "hunter2hunter2",
		RepeatPassword: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, []string{model.RoleUser}, user.Roles)
	assert.Equal(t, "access", creds.AccessToken)
	assert.NotEmpty(t, creds.RefreshToken)

	// Stored hash must verify against the chosen password.
	require.NoError(t, bcrypt.CompareHashAndPassword(user.PasswordHash, []byte("hunter2hunter2")))
}

func TestAuth_Register_PasswordsDiffer(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	_, _, err := f.auth.Register(ctx, RegisterParams{
		Username:       "alice",
		Email:          "a@b.c",
		Password:       "one",
		RepeatPassword: "two",
	})
	require.ErrorIs(t, err, model.ErrPasswordsDiffer)
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuth_Register_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	f.users.On("GetByEmail", ctx, "a@b.c").Return(model.User{ID: uuid.New()}, nil).Once()

	_, _, err := f.auth.Register(ctx, RegisterParams{
		Username:       "alice",
		Email:          "a@b.c",
		Password:       "hunter2hunter2",
		RepeatPassword: "hunter2hunter2",
	})
	require.ErrorIs(t, err, model.ErrUserExists)
}

func TestAuth_Login(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.DefaultCost)
	require.NoError(t, err)
	stored := model.User{ID: uuid.New(), Username: "alice", Email: "a@b.c", PasswordHash: hash, Roles: []string{model.RoleUser}}

	f.users.On("GetByEmail", ctx, "a@b.c").Return(stored, nil).Once()
	f.tokman.On("GenerateAccessToken", stored.Identity()).Return("access", nil).Once()
	f.store.On("Save", ctx, mock.Anything).Return(nil).Once()

	user, creds, err := f.auth.Login(ctx, "a@b.c", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, user.ID)
	assert.Equal(t, "access", creds.AccessToken)
}

func TestAuth_Login_WrongPassword(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.DefaultCost)
	require.NoError(t, err)

	f.users.On("GetByEmail", ctx, "a@b.c").
		Return(model.User{ID: uuid.New(), PasswordHash: hash}, nil).Once()

	_, _, err = f.auth.Login(ctx, "a@b.c", "wrong")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
	f.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuth_Login_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	f.users.On("GetByEmail", ctx, "nobody@b.c").Return(model.User{}, model.ErrNotFound).Once()

	_, _, err := f.auth.Login(ctx, "nobody@b.c", "whatever")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestAuth_Logout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	identity := testIdentity()
	f.store.On("Clear", ctx, identity.ID).Return(nil).Once()

	require.NoError(t, f.auth.Logout(ctx, identity))
	f.store.AssertExpectations(t)
}

func TestAuth_Logout_Anonymous(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	require.NoError(t, f.auth.Logout(ctx, model.Identity{}))
	f.store.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}

func TestAuth_ChangeInfo(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	identity := testIdentity()
	stored := model.User{ID: identity.ID, Username: "alice", Email: "a@b.c"}

	newEmail := "new@b.c"
	newPhone := "+123456"

	f.users.On("GetByID", ctx, identity.ID).Return(stored, nil).Once()
	f.users.On("GetByEmail", ctx, newEmail).Return(model.User{}, model.ErrNotFound).Once()
	f.users.On("Update", ctx, mock.Anything).Return(nil).Once()

	user, err := f.auth.ChangeInfo(ctx, identity, ChangeInfoParams{NewEmail: &newEmail, NewPhone: &newPhone})
	require.NoError(t, err)
	assert.Equal(t, newEmail, user.Email)
	assert.Equal(t, newPhone, user.Phone)
	assert.Equal(t, "alice", user.Username)
}

func TestAuth_ChangeInfo_TakenEmailSkipped(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	identity := testIdentity()
	stored := model.User{ID: identity.ID, Username: "alice", Email: "a@b.c"}

	taken := "taken@b.c"

	f.users.On("GetByID", ctx, identity.ID).Return(stored, nil).Once()
	f.users.On("GetByEmail", ctx, taken).Return(model.User{ID: uuid.New()}, nil).Once()
	f.users.On("Update", ctx, mock.Anything).Return(nil).Once()

	user, err := f.auth.ChangeInfo(ctx, identity, ChangeInfoParams{NewEmail: &taken})
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", user.Email)
}

func TestAuth_ForgotPassword(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	stored := model.User{ID: uuid.New(), Email: "a@b.c"}

	var issuedToken string
	f.users.On("GetByEmail", ctx, "a@b.c").Return(stored, nil).Once()
	f.users.On("SetResetToken", ctx, stored.ID, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			issuedToken = args.Get(2).(string)
		}).Return(nil).Once()
	f.mailer.On("Send", ctx, "a@b.c", mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(t, f.auth.ForgotPassword(ctx, "a@b.c"))
	assert.NotEmpty(t, issuedToken)

	// The mailed body carries the token.
	body := f.mailer.Calls[0].Arguments.Get(3).(string)
	assert.Contains(t, body, issuedToken)
}

func TestAuth_ResetPassword(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	expires := time.Now().Add(time.Hour)
	stored := model.User{ID: uuid.New(), Email: "a@b.c", ResetTokenExpires: &expires}

	f.users.On("GetByResetToken", ctx, "token").Return(stored, nil).Once()
	f.users.On("UpdatePassword", ctx, stored.ID, mock.Anything).Return(nil).Once()
	f.store.On("Clear", ctx, stored.ID).Return(nil).Once()

	require.NoError(t, f.auth.ResetPassword(ctx, "token", "new-password"))
	f.store.AssertExpectations(t)
}

func TestAuth_ResetPassword_Expired(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	expires := time.Now().Add(-time.Hour)
	stored := model.User{ID: uuid.New(), ResetTokenExpires: &expires}

	f.users.On("GetByResetToken", ctx, "token").Return(stored, nil).Once()

	err := f.auth.ResetPassword(ctx, "token", "new-password")
	require.ErrorIs(t, err, model.ErrResetTokenInvalid)
	f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuth_ResetPassword_UnknownToken(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	f.users.On("GetByResetToken", ctx, "bogus").Return(model.User{}, model.ErrNotFound).Once()

	err := f.auth.ResetPassword(ctx, "bogus", "new-password")
	require.ErrorIs(t, err, model.ErrResetTokenInvalid)
}
