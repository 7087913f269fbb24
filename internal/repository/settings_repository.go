package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"honquedoro/internal/model"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context, userID string) (*model.UserSettings, error) {
	return getSettings(ctx, r.db, userID)
}

func (r *SettingsRepository) GetTx(ctx context.Context, tx *sql.Tx, userID string) (*model.UserSettings, error) {
	return getSettings(ctx, tx, userID)
}

func getSettings(ctx context.Context, q querier, userID string) (*model.UserSettings, error) {
	settings := model.UserSettings{UserID: userID}
	var autoStartBreaks, autoStartWork, sounds, desktop int
	err := q.QueryRowContext(
		ctx,
		`SELECT work_duration_minutes, short_break_duration_minutes, long_break_duration_minutes,
		        sessions_until_long_break, auto_start_breaks, auto_start_work,
		        play_notification_sounds, show_desktop_notifications,
		        daily_goal_sessions, weekly_goal_sessions
		 FROM user_settings WHERE user_id = ?`,
		userID,
	).Scan(
		&settings.WorkDurationMinutes,
		&settings.ShortBreakDurationMinutes,
		&settings.LongBreakDurationMinutes,
		&settings.SessionsUntilLongBreak,
		&autoStartBreaks,
		&autoStartWork,
		&sounds,
		&desktop,
		&settings.DailyGoalSessions,
		&settings.WeeklyGoalSessions,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	settings.AutoStartBreaks = autoStartBreaks != 0
	settings.AutoStartWork = autoStartWork != 0
	settings.PlayNotificationSounds = sounds != 0
	settings.ShowDesktopNotifications = desktop != 0
	return &settings, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, settings *model.UserSettings, now time.Time) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO user_settings (
			user_id, work_duration_minutes, short_break_duration_minutes, long_break_duration_minutes,
			sessions_until_long_break, auto_start_breaks, auto_start_work,
			play_notification_sounds, show_desktop_notifications,
			daily_goal_sessions, weekly_goal_sessions, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			work_duration_minutes = excluded.work_duration_minutes,
			short_break_duration_minutes = excluded.short_break_duration_minutes,
			long_break_duration_minutes = excluded.long_break_duration_minutes,
			sessions_until_long_break = excluded.sessions_until_long_break,
			auto_start_breaks = excluded.auto_start_breaks,
			auto_start_work = excluded.auto_start_work,
			play_notification_sounds = excluded.play_notification_sounds,
			show_desktop_notifications = excluded.show_desktop_notifications,
			daily_goal_sessions = excluded.daily_goal_sessions,
			weekly_goal_sessions = excluded.weekly_goal_sessions,
			updated_at = excluded.updated_at`,
		settings.UserID,
		settings.WorkDurationMinutes,
		settings.ShortBreakDurationMinutes,
		settings.LongBreakDurationMinutes,
		settings.SessionsUntilLongBreak,
		boolToInt(settings.AutoStartBreaks),
		boolToInt(settings.AutoStartWork),
		boolToInt(settings.PlayNotificationSounds),
		boolToInt(settings.ShowDesktopNotifications),
		settings.DailyGoalSessions,
		settings.WeeklyGoalSessions,
		formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
