// Package app wires repositories, services, handlers and the router into a
// runnable session store.
package app

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"honquedoro/internal/cache"
	"honquedoro/internal/clock"
	"honquedoro/internal/handler"
	"honquedoro/internal/middleware"
	"honquedoro/internal/repository"
	"honquedoro/internal/router"
	"honquedoro/internal/service"
)

type Options struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AuthRequired  bool
	CORSOrigins   []string
	CORSMaxAge    time.Duration
	SweepInterval time.Duration
	Cache         cache.Cache
	Clock         clock.Clock
	Logger        zerolog.Logger
}

type App struct {
	Engine     *gin.Engine
	Sessions   *service.SessionService
	Settings   *service.SettingsService
	Statistics *service.StatisticsService
	Auth       *service.AuthService
	Sweeper    *service.Sweeper
}

func New(database *sql.DB, opts Options) *App {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 5 * time.Second
	}

	userRepo := repository.NewUserRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)
	statisticsRepo := repository.NewStatisticsRepository(database)
	achievementRepo := repository.NewAchievementRepository(database)

	statisticsService := service.NewStatisticsService(
		sessionRepo, statisticsRepo, achievementRepo, settingsRepo, opts.Cache, opts.Clock, opts.Logger,
	)
	sessionService := service.NewSessionService(sessionRepo, statisticsService, opts.Clock, opts.Logger)
	settingsService := service.NewSettingsService(settingsRepo, statisticsService, opts.Clock, opts.Logger)
	authService := service.NewAuthService(userRepo, settingsService, opts.Clock, opts.JWTSecret, opts.TokenTTL)

	engine := router.New(authService, router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Sessions:   handler.NewSessionHandler(sessionService),
		Settings:   handler.NewSettingsHandler(settingsService),
		Statistics: handler.NewStatisticsHandler(statisticsService),
	}, router.Options{
		CORS:         middleware.CORSPolicy{Origins: opts.CORSOrigins, MaxAge: opts.CORSMaxAge},
		AuthRequired: opts.AuthRequired,
		Logger:       opts.Logger,
	})

	return &App{
		Engine:     engine,
		Sessions:   sessionService,
		Settings:   settingsService,
		Statistics: statisticsService,
		Auth:       authService,
		Sweeper:    service.NewSweeper(sessionService, opts.SweepInterval, opts.Logger),
	}
}
