package app

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smartwork/assistant/internal/middleware"
	"github.com/smartwork/assistant/internal/modules/auth"
	"github.com/smartwork/assistant/internal/modules/content/history"
	"github.com/smartwork/assistant/internal/modules/content/inventory"
	"github.com/smartwork/assistant/internal/modules/google/calendar"
	"github.com/smartwork/assistant/internal/modules/google/drive"
	"github.com/smartwork/assistant/internal/modules/processing/ai"
	"github.com/smartwork/assistant/internal/modules/processing/dedup"
	"github.com/smartwork/assistant/internal/modules/storage/file"
	"github.com/smartwork/assistant/internal/modules/syndication/news"
	"github.com/smartwork/assistant/internal/modules/system/health"
	"github.com/smartwork/assistant/internal/modules/system/migrate"
	"github.com/smartwork/assistant/internal/modules/system/settings"
	"github.com/smartwork/assistant/internal/pkg/cache"
	"github.com/smartwork/assistant/internal/pkg/googleauth"
	"github.com/smartwork/assistant/internal/pkg/response"
	"github.com/smartwork/assistant/internal/pkg/secure"
	"go.uber.org/zap"
)

var errGoogleDisabled = errors.New("Google integration is not configured")

func (a *App) registerRoutes() {
	r := a.router
	st := a.store
	log := a.logger
	authMW := middleware.Auth()
	adminMW := middleware.RequireAdmin(a.cfg.IsAdmin)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})

	appInfo := gin.H{
		"name":    "smart-work-assistant",
		"version": "1.0.0",
		"env":     a.cfg.Env,
	}
	r.GET("/", func(c *gin.Context) { response.OK(c, appInfo) })

	// Session claims must be present before the rate limit and idempotence keys are built.
	r.Use(middleware.OptionalAuth())
	r.Use(middleware.RateLimit(a.rc, a.cfg.RateLimitPerSecond, log))
	r.Use(middleware.Idempotence(a.rc))

	api := r.Group("/api")

	// Infrastructure
	var redisPinger health.Pinger
	if a.rc != nil {
		redisPinger = a.rc
	}
	health.NewHandler(st, redisPinger, a.cfg.LogDir()).RegisterRoutes(api, authMW, adminMW)

	// Notes and their configuration
	guard := dedup.NewGuard(st)
	history.NewHandler(history.NewService(st, guard, log.Named("history"))).RegisterRoutes(api, authMW)
	settings.NewHandler(settings.NewService(st)).RegisterRoutes(api, authMW)
	inventory.NewHandler(inventory.NewService(st)).RegisterRoutes(api, authMW)
	migrate.NewHandler(migrate.NewService(st, log.Named("migrate"))).RegisterRoutes(api, authMW, adminMW)

	// Google sign-in, Calendar and Drive
	var (
		oauthClient auth.OAuthClient
		tokens      auth.TokenSaver
		openCal     calendar.Opener = func(context.Context, string) (calendar.Calendar, error) { return nil, errGoogleDisabled }
		openDrive   drive.Opener    = func(context.Context, string) (drive.Drive, error) { return nil, errGoogleDisabled }
	)
	if a.cfg.Google.Enabled() {
		oauthCfg := googleauth.NewOAuthConfig(a.cfg.Google)
		sealer, err := secure.NewSealer(tokenKey(a.cfg, log))
		if err != nil {
			log.Fatal("token sealer", zap.Error(err))
		}
		vault := googleauth.NewVault(st, sealer, oauthCfg)
		oauthClient = oauthCfg
		tokens = vault
		openCal = calendar.NewOpener(vault)
		openDrive = drive.NewOpener(vault)
	} else {
		log.Warn("google client id/secret missing, sign-in and calendar are disabled")
	}
	authOpts := auth.Options{
		SessionTTL: time.Duration(a.cfg.SessionDays) * 24 * time.Hour,
		Secure:     isHTTPS(a.cfg.AppURL),
		IsAdmin:    a.cfg.IsAdmin,
	}
	auth.NewHandler(oauthClient, nil, st, tokens, authOpts, log.Named("auth")).RegisterRoutes(api, authMW)
	calendar.NewHandler(openCal, log.Named("calendar")).RegisterRoutes(api, authMW)
	drive.NewHandler(openDrive, log.Named("drive")).RegisterRoutes(api, authMW)

	// AI helpers
	ai.NewHandler(ai.NewService(a.cfg.AI, log.Named("ai"))).RegisterRoutes(api, authMW)

	// Public feeds and files
	news.NewHandler(news.NewService(news.DefaultBaseURL, cache.New(a.rc, "sw:cache:"), log.Named("news"))).RegisterRoutes(api)
	file.NewHandler(file.NewService(a.blobs, st, log.Named("file"))).RegisterRoutes(api, authMW)
}
