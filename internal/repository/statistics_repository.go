package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"honquedoro/internal/model"
)

type StatisticsRepository struct {
	db *sql.DB
}

func NewStatisticsRepository(db *sql.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

func (r *StatisticsRepository) GetDayTx(ctx context.Context, tx *sql.Tx, userID string, day time.Time) (*model.UserStatistics, error) {
	stats := model.UserStatistics{UserID: userID, Date: day}
	err := tx.QueryRowContext(
		ctx,
		`SELECT completed_sessions, total_work_minutes, current_streak, best_streak,
		        weekly_target, weekly_completed
		 FROM user_statistics WHERE user_id = ? AND date = ?`,
		userID,
		day.Format(dateLayout),
	).Scan(
		&stats.CompletedSessions,
		&stats.TotalWorkTimeMinutes,
		&stats.CurrentStreak,
		&stats.BestStreak,
		&stats.WeeklyTarget,
		&stats.WeeklyCompleted,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get day statistics: %w", err)
	}
	return &stats, nil
}

func (r *StatisticsRepository) UpsertDayTx(ctx context.Context, tx *sql.Tx, stats *model.UserStatistics) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO user_statistics (
			user_id, date, completed_sessions, total_work_minutes, current_streak,
			best_streak, weekly_target, weekly_completed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			completed_sessions = excluded.completed_sessions,
			total_work_minutes = excluded.total_work_minutes,
			current_streak = excluded.current_streak,
			best_streak = excluded.best_streak,
			weekly_target = excluded.weekly_target,
			weekly_completed = excluded.weekly_completed`,
		stats.UserID,
		stats.Date.Format(dateLayout),
		stats.CompletedSessions,
		stats.TotalWorkTimeMinutes,
		stats.CurrentStreak,
		stats.BestStreak,
		stats.WeeklyTarget,
		stats.WeeklyCompleted,
	)
	if err != nil {
		return fmt.Errorf("upsert day statistics: %w", err)
	}
	return nil
}

// BestStreak is the highest streak ever recorded for the user.
func (r *StatisticsRepository) BestStreak(ctx context.Context, userID string) (int, error) {
	return bestStreak(ctx, r.db, userID)
}

func (r *StatisticsRepository) BestStreakTx(ctx context.Context, tx *sql.Tx, userID string) (int, error) {
	return bestStreak(ctx, tx, userID)
}

func bestStreak(ctx context.Context, q querier, userID string) (int, error) {
	var best int
	if err := q.QueryRowContext(
		ctx,
		`SELECT COALESCE(MAX(best_streak), 0) FROM user_statistics WHERE user_id = ?`,
		userID,
	).Scan(&best); err != nil {
		return 0, fmt.Errorf("get best streak: %w", err)
	}
	return best, nil
}
