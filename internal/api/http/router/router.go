// Package router assembles the HTTP routes and middleware chain.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/dankrut/callisto-server/internal/api/http/cookie"
	"github.com/dankrut/callisto-server/internal/api/http/handler"
	"github.com/dankrut/callisto-server/internal/api/http/middleware"
	"github.com/dankrut/callisto-server/internal/logger"
	"github.com/dankrut/callisto-server/internal/model"
	"github.com/dankrut/callisto-server/internal/service"
	"github.com/dankrut/callisto-server/internal/signal"
)

// Router builds the gin engine for the API.
type Router struct {
	authService    *service.Auth
	userService    *service.User
	tokenService   *service.TokenService
	coordinator    *service.RefreshCoordinator
	signalHandler  *signal.Handler
	contextManager model.ContextManager
	cookies        cookie.Options
	logger         *logger.Logger
}

// New creates a new Router instance.
func New(
	authService *service.Auth,
	userService *service.User,
	tokenService *service.TokenService,
	coordinator *service.RefreshCoordinator,
	signalHandler *signal.Handler,
	contextManager model.ContextManager,
	cookies cookie.Options,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		userService:    userService,
		tokenService:   tokenService,
		coordinator:    coordinator,
		signalHandler:  signalHandler,
		contextManager: contextManager,
		cookies:        cookies,
		logger:         logger,
	}
}

// Register wires middleware and routes and returns the engine.
//
// Order matters: the refresh middleware runs before authentication so a
// rotated pair is already on its way back to the client by the time the
// handler executes, and authentication still reads the cookie the request
// arrived with.
func (r *Router) Register() *gin.Engine {
	logging := middleware.NewLogging(r.logger)
	refresh := middleware.NewRefresh(r.coordinator, r.cookies, r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		logging.Handle(),
		refresh.Handle(),
		authenticate.Handle(),
	)

	r.registerAuthRoutes(engine, authenticate)
	r.registerUserRoutes(engine, authenticate)
	r.registerSignalRoutes(engine, authenticate)

	return engine
}

func (r *Router) registerAuthRoutes(engine *gin.Engine, authenticate *middleware.Authenticate) {
	authHandler := handler.NewAuth(r.authService, r.contextManager, r.cookies, r.logger)

	group := engine.Group("/api/auth")
	group.POST("/register", authHandler.Register)
	group.POST("/login", authHandler.Login)
	group.POST("/logout", authHandler.Logout)
	group.POST("/forgot-password", authHandler.ForgotPassword)
	group.POST("/reset-password", authHandler.ResetPassword)

	protected := group.Group("", authenticate.RequireAuth())
	protected.GET("/account", authHandler.Account)
	protected.PATCH("/account", authHandler.ChangeInfo)
}

func (r *Router) registerUserRoutes(engine *gin.Engine, authenticate *middleware.Authenticate) {
	userHandler := handler.NewUser(r.userService, r.contextManager)

	group := engine.Group("/api/user", authenticate.RequireAuth())
	group.GET("/sip-credentials", userHandler.SIPCredentials)
}

func (r *Router) registerSignalRoutes(engine *gin.Engine, authenticate *middleware.Authenticate) {
	group := engine.Group("/ws", authenticate.RequireAuth())
	group.GET("/call", r.signalHandler.HandleConnection)
	group.GET("/call/stats", r.signalHandler.HandleStats)
}
