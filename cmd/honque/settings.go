package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"honquedoro/internal/localstore"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change timer settings",
	RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
		settings := loadTimerSettings(cmd.Context(), e)
		fmt.Fprintln(cmd.OutOrStdout(), renderSettings(settings))
		return nil
	}),
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY=VALUE...",
	Short: "Change settings and sync them to the session store",
	Long:  "Keys: " + strings.Join(settingKeys(), ", "),
	Args:  cobra.MinimumNArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
		settings := loadTimerSettings(cmd.Context(), e)
		for _, arg := range args {
			key, value, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("expected KEY=VALUE, got %q", arg)
			}
			if err := applySetting(&settings, strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
				return err
			}
		}
		if err := settings.Validate(); err != nil {
			return err
		}
		return saveSettings(cmd, e, settings)
	}),
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore default settings",
	RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
		current, _ := e.local.Settings()
		settings := localstore.DefaultAppSettings()
		settings.CurrentTaskID = current.CurrentTaskID
		return saveSettings(cmd, e, settings)
	}),
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd, settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

// saveSettings writes settings locally, then pushes the shared fields to the
// store. Only a local failure is an error.
func saveSettings(cmd *cobra.Command, e *env, settings localstore.AppSettings) error {
	out := cmd.OutOrStdout()
	if err := e.local.SaveSettings(settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if e.remote == nil {
		fmt.Fprintln(out, successStyle.Render("Settings saved.")+" "+warningStyle.Render("(local-only)"))
		return nil
	}

	ctx := cmd.Context()
	remote, err := e.remote.Settings(ctx)
	if err == nil {
		settings.ApplyTo(remote)
		_, err = e.remote.UpdateSettings(ctx, *remote)
	}
	if err != nil {
		e.logger.Debug().Err(err).Msg("Settings sync failed")
		fmt.Fprintln(out, successStyle.Render("Settings saved locally.")+" "+
			warningStyle.Render("Could not sync to the session store: "+err.Error()))
		return nil
	}
	fmt.Fprintln(out, successStyle.Render("Settings saved and synced."))
	return nil
}

type settingField struct {
	intValue  func(*localstore.AppSettings) *int
	boolValue func(*localstore.AppSettings) *bool
}

var settingFields = map[string]settingField{
	"work":              {intValue: func(s *localstore.AppSettings) *int { return &s.WorkDuration }},
	"short-break":       {intValue: func(s *localstore.AppSettings) *int { return &s.ShortBreakDuration }},
	"long-break":        {intValue: func(s *localstore.AppSettings) *int { return &s.LongBreakDuration }},
	"cadence":           {intValue: func(s *localstore.AppSettings) *int { return &s.SessionsUntilLongBreak }},
	"daily-goal":        {intValue: func(s *localstore.AppSettings) *int { return &s.DailyGoal }},
	"auto-start-breaks": {boolValue: func(s *localstore.AppSettings) *bool { return &s.AutoStartBreaks }},
	"auto-start-work":   {boolValue: func(s *localstore.AppSettings) *bool { return &s.AutoStartPomodoros }},
	"sound":             {boolValue: func(s *localstore.AppSettings) *bool { return &s.SoundEnabled }},
	"notifications":     {boolValue: func(s *localstore.AppSettings) *bool { return &s.DesktopNotifications }},
	"dark-mode":         {boolValue: func(s *localstore.AppSettings) *bool { return &s.DarkMode }},
}

func settingKeys() []string {
	keys := make([]string, 0, len(settingFields))
	for key := range settingFields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func applySetting(s *localstore.AppSettings, key, value string) error {
	field, ok := settingFields[key]
	if !ok {
		return fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(settingKeys(), ", "))
	}
	if field.intValue != nil {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("setting %s: %q is not a number", key, value)
		}
		*field.intValue(s) = n
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("setting %s: %q is not true or false", key, value)
	}
	*field.boolValue(s) = b
	return nil
}
