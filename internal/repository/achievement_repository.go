package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"honquedoro/internal/model"
)

type AchievementRepository struct {
	db *sql.DB
}

func NewAchievementRepository(db *sql.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// ListForUser returns every seeded achievement with the user's earned state.
func (r *AchievementRepository) ListForUser(ctx context.Context, userID string) ([]model.Achievement, error) {
	return listAchievements(ctx, r.db, userID)
}

func (r *AchievementRepository) ListForUserTx(ctx context.Context, tx *sql.Tx, userID string) ([]model.Achievement, error) {
	return listAchievements(ctx, tx, userID)
}

func listAchievements(ctx context.Context, q querier, userID string) ([]model.Achievement, error) {
	rows, err := q.QueryContext(
		ctx,
		`SELECT a.id, a.title, a.description, a.icon, a.type, a.required_count, ua.earned_at
		 FROM achievements a
		 LEFT JOIN user_achievements ua ON ua.achievement_id = a.id AND ua.user_id = ?
		 ORDER BY a.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	achievements := make([]model.Achievement, 0)
	for rows.Next() {
		var achievement model.Achievement
		var achievementType int
		var earnedAt sql.NullString
		if err := rows.Scan(
			&achievement.ID,
			&achievement.Title,
			&achievement.Description,
			&achievement.Icon,
			&achievementType,
			&achievement.RequiredCount,
			&earnedAt,
		); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		achievement.Type = model.AchievementType(achievementType)
		earned, err := parseNullableTime(earnedAt)
		if err != nil {
			return nil, fmt.Errorf("parse achievement earned_at: %w", err)
		}
		achievement.EarnedDate = earned
		achievement.Earned = earned != nil
		achievements = append(achievements, achievement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate achievements: %w", err)
	}
	return achievements, nil
}

func (r *AchievementRepository) AwardTx(ctx context.Context, tx *sql.Tx, userID string, achievementID int64, at time.Time) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO user_achievements (user_id, achievement_id, earned_at) VALUES (?, ?, ?)`,
		userID,
		achievementID,
		formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("award achievement: %w", err)
	}
	return nil
}
