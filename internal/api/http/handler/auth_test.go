package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dankrut/callisto-server/internal/api/http/context"
	"github.com/dankrut/callisto-server/internal/api/http/cookie"
	"github.com/dankrut/callisto-server/internal/model"
	"github.com/dankrut/callisto-server/internal/service"
	"github.com/dankrut/callisto-server/internal/testutil"
)

type stubAuthService struct {
	user  model.User
	creds service.IssuedCredentials
	err   error

	loggedOut bool
}

func (s *stubAuthService) Register(context.Context, service.RegisterParams) (model.User, service.IssuedCredentials, error) {
	return s.user, s.creds, s.err
}

func (s *stubAuthService) Login(context.Context, string, string) (model.User, service.IssuedCredentials, error) {
	return s.user, s.creds, s.err
}

func (s *stubAuthService) Logout(context.Context, model.Identity) error {
	s.loggedOut = true
	return s.err
}

func (s *stubAuthService) Account(context.Context, model.Identity) (model.User, error) {
	return s.user, s.err
}

func (s *stubAuthService) ChangeInfo(context.Context, model.Identity, service.ChangeInfoParams) (model.User, error) {
	return s.user, s.err
}

func (s *stubAuthService) ForgotPassword(context.Context, string) error {
	return s.err
}

func (s *stubAuthService) ResetPassword(context.Context, string, string) error {
	return s.err
}

func testCreds() service.IssuedCredentials {
	return service.IssuedCredentials{
		AccessToken:      "access",
		AccessExpiresAt:  time.Now().Add(time.Hour),
		RefreshToken:     "refresh",
		RefreshExpiresAt: time.Now().Add(24 * time.Hour),
	}
}

func newAuthEngine(svc *stubAuthService, identity *model.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)

	ctxMgr := httpctx.NewManager()
	h := NewAuth(svc, ctxMgr, cookie.Options{}, testutil.MakeNoopLogger())

	engine := gin.New()
	if identity != nil {
		engine.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(ctxMgr.SetIdentity(c.Request.Context(), *identity))
			c.Next()
		})
	}
	engine.POST("/api/auth/register", h.Register)
	engine.POST("/api/auth/login", h.Login)
	engine.POST("/api/auth/logout", h.Logout)
	engine.POST("/api/auth/forgot-password", h.ForgotPassword)
	engine.POST("/api/auth/reset-password", h.ResetPassword)
	engine.GET("/api/auth/account", h.Account)
	engine.PATCH("/api/auth/account", h.ChangeInfo)
	return engine
}

func postJSON(engine *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func credentialCookies(w *httptest.ResponseRecorder) map[string]string {
	got := map[string]string{}
	for _, c := range w.Result().Cookies() {
		got[c.Name] = c.Value
	}
	return got
}

func TestAuthHandler_Register(t *testing.T) {
	svc := &stubAuthService{
		user:  model.User{ID: uuid.New(), Username: "alice", Email: "a@b.c", Roles: []string{model.RoleUser}},
		creds: testCreds(),
	}
	engine := newAuthEngine(svc, nil)

	w := postJSON(engine, "/api/auth/register",
		`{"username":"alice","email":"a@b.c","password":"hunter2hunter2","repeatPassword":"hunter2hunter2"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
	assert.NotContains(t, w.Body.String(), "hunter2hunter2")

	cookies := credentialCookies(w)
	assert.Equal(t, "access", cookies[cookie.AccessToken])
	assert.Equal(t, "refresh", cookies[cookie.RefreshToken])
}

func TestAuthHandler_Register_BadBody(t *testing.T) {
	engine := newAuthEngine(&stubAuthService{}, nil)

	w := postJSON(engine, "/api/auth/register", `{"username":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	engine := newAuthEngine(&stubAuthService{err: model.ErrUserExists}, nil)

	w := postJSON(engine, "/api/auth/register",
		`{"username":"alice","email":"a@b.c","password":"hunter2hunter2","repeatPassword":"hunter2hunter2"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	engine := newAuthEngine(&stubAuthService{err: model.ErrInvalidCredentials}, nil)

	w := postJSON(engine, "/api/auth/login", `{"email":"a@b.c","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, credentialCookies(w))
}

func TestAuthHandler_Login_SetsCookies(t *testing.T) {
	svc := &stubAuthService{
		user:  model.User{ID: uuid.New(), Username: "alice", Email: "a@b.c"},
		creds: testCreds(),
	}
	engine := newAuthEngine(svc, nil)

	w := postJSON(engine, "/api/auth/login", `{"email":"a@b.c","password":"hunter2hunter2"}`)
	require.Equal(t, http.StatusOK, w.Code)

	cookies := credentialCookies(w)
	assert.Equal(t, "access", cookies[cookie.AccessToken])
	assert.Equal(t, "refresh", cookies[cookie.RefreshToken])
}

func TestAuthHandler_Logout_ClearsCookies(t *testing.T) {
	identity := model.Identity{ID: uuid.New()}
	svc := &stubAuthService{}
	engine := newAuthEngine(svc, &identity)

	w := postJSON(engine, "/api/auth/logout", ``)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.loggedOut)

	for _, c := range w.Result().Cookies() {
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}
}

func TestAuthHandler_ResetPassword_InvalidToken(t *testing.T) {
	engine := newAuthEngine(&stubAuthService{err: model.ErrResetTokenInvalid}, nil)

	w := postJSON(engine, "/api/auth/reset-password", `{"token":"bogus","newPassword":"new-password"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_ForgotPassword_UnknownEmail(t *testing.T) {
	engine := newAuthEngine(&stubAuthService{err: model.ErrNotFound}, nil)

	w := postJSON(engine, "/api/auth/forgot-password", `{"email":"nobody@b.c"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthHandler_Account(t *testing.T) {
	identity := model.Identity{ID: uuid.New(), Username: "alice"}
	svc := &stubAuthService{user: model.User{ID: identity.ID, Username: "alice", Email: "a@b.c"}}
	engine := newAuthEngine(svc, &identity)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/account", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a@b.c")
}
