package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"honquedoro/internal/app"
	"honquedoro/internal/cache"
	"honquedoro/internal/config"
	"honquedoro/internal/db"
	"honquedoro/internal/logging"
)

const shutdownTimeout = 10 * time.Second

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the session store",
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(cfg.Logging)
	log.Logger = logger
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting HonqueDoro session store")

	database, err := db.Open(cfg.Database.Driver, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info().
		Str("driver", cfg.Database.Driver).
		Str("path", cfg.Database.Path).
		Msg("Database ready")

	statsCache, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer func() {
		if err := statsCache.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close cache")
		}
	}()
	logger.Info().Str("type", cfg.Cache.Type).Msg("Statistics cache initialized")

	application := app.New(database, app.Options{
		JWTSecret:     cfg.Auth.JWTSecret,
		TokenTTL:      cfg.Auth.TokenTTL,
		AuthRequired:  cfg.Auth.Required,
		CORSOrigins:   cfg.Server.CORSOrigins,
		CORSMaxAge:    cfg.Server.CORSMaxAge,
		SweepInterval: cfg.Sweep.Interval,
		Cache:         statsCache,
		Logger:        logger,
	})

	application.Sweeper.Start()
	defer application.Sweeper.Stop()

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           application.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received, gracefully stopping...")
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("run server: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to shut down HTTP server")
	}

	logger.Info().Msg("HonqueDoro session store stopped")
	return nil
}
