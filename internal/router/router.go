package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"honquedoro/internal/handler"
	"honquedoro/internal/middleware"
	"honquedoro/internal/service"
)

type Options struct {
	CORS         middleware.CORSPolicy
	AuthRequired bool
	Logger       zerolog.Logger
}

type Handlers struct {
	Auth       *handler.AuthHandler
	Sessions   *handler.SessionHandler
	Settings   *handler.SettingsHandler
	Statistics *handler.StatisticsHandler
}

func New(authService *service.AuthService, h Handlers, opts Options) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.Logging(opts.Logger), middleware.CORS(opts.CORS))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	protected := api.Group("")
	protected.Use(middleware.Auth(authService, opts.AuthRequired))

	sessions := protected.Group("/sessions")
	sessions.POST("/start", h.Sessions.Start)
	sessions.POST("/pause/:id", h.Sessions.Pause)
	sessions.POST("/resume/:id", h.Sessions.Resume)
	sessions.POST("/complete/:id", h.Sessions.Complete)
	sessions.DELETE("/cancel/:id", h.Sessions.Cancel)
	sessions.GET("/active", h.Sessions.Active)
	sessions.GET("/recent", h.Sessions.Recent)
	sessions.GET("/today", h.Sessions.Today)
	sessions.GET("/:id", h.Sessions.Get)

	settings := protected.Group("/settings")
	settings.GET("", h.Settings.Get)
	settings.PUT("", h.Settings.Update)
	settings.POST("", h.Settings.Update)
	settings.POST("/reset", h.Settings.Reset)
	settings.GET("/timer-config", h.Settings.GetTimerConfig)
	settings.PUT("/timer-config", h.Settings.UpdateTimerConfig)
	settings.POST("/timer-config", h.Settings.UpdateTimerConfig)

	statistics := protected.Group("/statistics")
	statistics.GET("", h.Statistics.Page)
	statistics.GET("/overall", h.Statistics.Overall)
	statistics.GET("/weekly", h.Statistics.Weekly)
	statistics.GET("/monthly/:year/:month", h.Statistics.Monthly)
	statistics.GET("/achievements", h.Statistics.Achievements)

	dashboard := protected.Group("/dashboard")
	dashboard.GET("", h.Statistics.Dashboard)
	dashboard.GET("/today-stats", h.Statistics.TodayStats)
	dashboard.GET("/weekly-goal", h.Statistics.WeeklyGoal)

	return engine
}
