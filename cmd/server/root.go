package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "honquedoro-server",
	Short: "HonqueDoro session store",
	Long: `honquedoro-server runs the HonqueDoro session store: the HTTP API that
owns Pomodoro sessions, user settings, statistics and achievements.`,
	Version: version,
	RunE:    runServer,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
