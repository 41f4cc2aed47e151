package main

import (
	"context"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"sync"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	httpapi "github.com/dankrut/callisto-server/internal/api/http"
	httpctx "github.com/dankrut/callisto-server/internal/api/http/context"
	"github.com/dankrut/callisto-server/internal/api/http/cookie"
	"github.com/dankrut/callisto-server/internal/api/http/router"
	"github.com/dankrut/callisto-server/internal/config"
	"github.com/dankrut/callisto-server/internal/logger"
	"github.com/dankrut/callisto-server/internal/mail"
	"github.com/dankrut/callisto-server/internal/model"
	"github.com/dankrut/callisto-server/internal/repository/postgres"
	"github.com/dankrut/callisto-server/internal/repository/redis"
	"github.com/dankrut/callisto-server/internal/server"
	"github.com/dankrut/callisto-server/internal/service"
	"github.com/dankrut/callisto-server/internal/signal"
	"github.com/dankrut/callisto-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	refreshStore := newRefreshTokenStore(cfg, db, logger)
	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience)

	tokenService := service.NewTokenService(tokenManager, refreshStore, logger)
	coordinator := service.NewRefreshCoordinator(tokenService, userRepo, refreshStore, logger)
	authService := service.NewAuth(userRepo, tokenService, newMailer(cfg, logger), logger)
	userService := service.NewUser(cfg.SIP.Domain, cfg.SIP.Secret)
	ctxMgr := httpctx.NewManager()

	hub := signal.NewHub(logger)
	go hub.Run(ctx)
	signalHandler := signal.NewHandler(hub, ctxMgr, logger)

	cookies := cookie.Options{Domain: cfg.Cookie.Domain, Secure: cfg.Cookie.Secure}

	r := router.New(authService, userService, tokenService, coordinator, signalHandler, ctxMgr, cookies, logger)
	httpServer := httpapi.NewServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func newRefreshTokenStore(cfg *config.Config, db *postgres.Connection, logger *logger.Logger) model.RefreshTokenStore {
	if cfg.Redis.Addr == "" {
		return postgres.NewRefreshTokenRepository(db)
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	logger.Info("using redis refresh token store", "addr", cfg.Redis.Addr)
	return redis.NewRefreshTokenStore(client)
}

func newMailer(cfg *config.Config, logger *logger.Logger) model.Mailer {
	if cfg.Mail.Domain == "" || cfg.Mail.APIKey == "" {
		return mail.NewLogMailer(logger)
	}
	return mail.NewMailgun(cfg.Mail.Domain, cfg.Mail.APIKey, cfg.Mail.Sender)
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
