package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"honquedoro/internal/client"
	"honquedoro/internal/clock"
	"honquedoro/internal/config"
	"honquedoro/internal/localstore"
	"honquedoro/internal/logging"
)

var (
	version    = "dev"
	configPath string
	offline    bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "honque",
	Short: "HonqueDoro terminal client",
	Long: `honque is the HonqueDoro Pomodoro timer for the terminal. It keeps tasks and
session history on disk and mirrors timer transitions to the session store
when one is reachable.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Do not contact the session store")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at the configured level instead of warnings only")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

// env is what every command needs: configuration, the local store and, unless
// offline, a store client.
type env struct {
	cfg    *config.Config
	logger zerolog.Logger
	local  *localstore.Store
	remote *client.Client
	clock  clock.Clock
}

func loadEnv() (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg := cfg.Logging
	if !verbose {
		logCfg.Level = "warn"
	}
	logCfg.Format = "text"
	logger := logging.NewWithWriter(logCfg, os.Stderr)

	e := &env{
		cfg:    cfg,
		logger: logger,
		local:  localstore.New(cfg.Client.DataDir, logger),
		clock:  clock.Real{},
	}
	if !offline && !cfg.Client.Offline {
		e.remote = client.New(cfg.Client.BaseURL, cfg.Client.Token, cfg.Client.RequestTimeout)
	}
	return e, nil
}

func (e *env) now() time.Time {
	return e.clock.Now()
}
