package model

import "time"

type AchievementType int

const (
	AchievementFirstSession  AchievementType = 1
	AchievementTotalSessions AchievementType = 2
	AchievementStreak        AchievementType = 3
)

// Achievement is a seeded definition joined with the user's earned state.
type Achievement struct {
	ID            int64           `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Icon          string          `json:"icon"`
	Type          AchievementType `json:"-"`
	RequiredCount int             `json:"-"`
	Earned        bool            `json:"earned"`
	EarnedDate    *time.Time      `json:"earnedDate,omitempty"`
}

// Reached reports whether the given totals satisfy the achievement.
func (a Achievement) Reached(totalSessions, currentStreak int) bool {
	switch a.Type {
	case AchievementFirstSession:
		return totalSessions >= 1
	case AchievementTotalSessions:
		return totalSessions >= a.RequiredCount
	case AchievementStreak:
		return currentStreak >= a.RequiredCount
	default:
		return false
	}
}
