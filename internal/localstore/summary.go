package localstore

import (
	"time"

	"honquedoro/internal/stats"
)

// Summary is the local fallback for the server's statistics.
type Summary struct {
	TodaySessions     int
	TodayFocusMinutes int
	WeekSessions      int
	WeekFocusMinutes  int
	MonthSessions     int
	MonthFocusMinutes int
	TotalSessions     int
	CurrentStreak     int
	DailyGoal         int
	DailyProgress     float64
	Week              []stats.Bucket
}

// Summarize computes work statistics from the local history as of now.
func Summarize(records []SessionRecord, dailyGoal int, now time.Time) Summary {
	today := stats.DayStart(now)
	tomorrow := today.AddDate(0, 0, 1)
	weekStart := stats.WeekStart(now)
	monthStart, monthEnd, _ := stats.MonthRange(today.Year(), int(today.Month()))

	summary := Summary{DailyGoal: dailyGoal}
	entries := make([]stats.Entry, 0, len(records))
	days := make([]time.Time, 0, len(records))

	for _, record := range records {
		if record.Type != RecordWork {
			continue
		}
		at := record.Date.UTC()
		entries = append(entries, stats.Entry{At: at, Minutes: record.Duration})
		days = append(days, at)
		summary.TotalSessions++

		if !at.Before(today) && at.Before(tomorrow) {
			summary.TodaySessions++
			summary.TodayFocusMinutes += record.Duration
		}
		if !at.Before(weekStart) && at.Before(weekStart.AddDate(0, 0, 7)) {
			summary.WeekSessions++
			summary.WeekFocusMinutes += record.Duration
		}
		if !at.Before(monthStart) && at.Before(monthEnd) {
			summary.MonthSessions++
			summary.MonthFocusMinutes += record.Duration
		}
	}

	summary.CurrentStreak = stats.CurrentStreak(days, now)
	summary.DailyProgress = stats.Progress(summary.TodaySessions, dailyGoal)
	summary.Week = stats.Daily(weekStart, weekStart.AddDate(0, 0, 7), entries)
	return summary
}
