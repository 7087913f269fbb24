package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"honquedoro/internal/localstore"
)

var statsLocal bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics and achievements",
	Long: `stats shows the session store's statistics. When the store is unreachable,
or with --local, it summarizes the local session history instead.`,
	RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
		out := cmd.OutOrStdout()
		if e.remote != nil && !statsLocal {
			page, err := e.remote.Statistics(cmd.Context())
			if err == nil {
				fmt.Fprintln(out, renderStatistics(page))
				return nil
			}
			e.logger.Debug().Err(err).Msg("Falling back to local statistics")
		}

		settings, _ := e.local.Settings()
		summary := localstore.Summarize(e.local.Sessions(), settings.DailyGoal, e.now())
		fmt.Fprintln(out, renderSummary(summary))
		return nil
	}),
}

func init() {
	statsCmd.Flags().BoolVar(&statsLocal, "local", false, "Summarize the local history only")
	rootCmd.AddCommand(statsCmd)
}
