package model

import "time"

// UserStatistics is one row per user per UTC day.
type UserStatistics struct {
	UserID               string
	Date                 time.Time
	CompletedSessions    int
	TotalWorkTimeMinutes int
	CurrentStreak        int
	BestStreak           int
	WeeklyTarget         int
	WeeklyCompleted      int
}

type TodayStats struct {
	CompletedSessions int `json:"completedSessions"`
	TotalWorkTime     int `json:"totalWorkTime"`
	CurrentStreak     int `json:"currentStreak"`
	BestStreak        int `json:"bestStreak"`
}

type WeeklyGoal struct {
	Target             int     `json:"target"`
	Completed          int     `json:"completed"`
	ProgressPercentage float64 `json:"progressPercentage"`
}

type Dashboard struct {
	TodayStats     TodayStats    `json:"todayStats"`
	WeeklyGoal     WeeklyGoal    `json:"weeklyGoal"`
	RecentSessions []SessionView `json:"recentSessions"`
}

type OverallStats struct {
	TotalSessions           int     `json:"totalSessions"`
	TotalFocusTime          int     `json:"totalFocusTime"`
	TotalFocusTimeFormatted string  `json:"totalFocusTimeFormatted"`
	AverageSessionsPerDay   float64 `json:"averageSessionsPerDay"`
	CurrentStreak           int     `json:"currentStreak"`
	LongestStreak           int     `json:"longestStreak"`
}

// DayData is one bar of the weekly or monthly chart.
type DayData struct {
	Day       string `json:"day"`
	Sessions  int    `json:"sessions"`
	FocusTime int    `json:"focusTime"`
}

type StatisticsPage struct {
	OverallStats       OverallStats  `json:"overallStats"`
	WeeklyData         []DayData     `json:"weeklyData"`
	Achievements       []Achievement `json:"achievements"`
	MaxSessions        int           `json:"maxSessions"`
	EarnedAchievements int           `json:"earnedAchievements"`
}
