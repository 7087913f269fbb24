// Package stats holds the calendar arithmetic shared by the server
// statistics and the client's local fallback statistics. Every day boundary
// is a UTC midnight and weeks start on Monday.
package stats

import (
	"fmt"
	"math"
	"time"
)

var WeekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func DayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func WeekStart(t time.Time) time.Time {
	day := DayStart(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// MonthRange returns [first day, first day of next month).
func MonthRange(year, month int) (time.Time, time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return time.Time{}, time.Time{}, fmt.Errorf("year must be between 1 and 9999")
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0), nil
}

// CurrentStreak counts consecutive days ending today that appear in days.
// A day without activity today yields 0.
func CurrentStreak(days []time.Time, today time.Time) int {
	seen := make(map[time.Time]struct{}, len(days))
	for _, day := range days {
		seen[DayStart(day)] = struct{}{}
	}

	streak := 0
	for check := DayStart(today); ; check = check.AddDate(0, 0, -1) {
		if _, ok := seen[check]; !ok {
			return streak
		}
		streak++
	}
}

// AveragePerDay spreads total over the days from first through today,
// rounded to one decimal.
func AveragePerDay(total int, first *time.Time, today time.Time) float64 {
	if first == nil || total == 0 {
		return 0
	}
	days := int(DayStart(today).Sub(DayStart(*first)).Hours()/24) + 1
	if days <= 0 {
		return 0
	}
	return Round1(float64(total) / float64(days))
}

// Progress is completed/target as a percentage capped at 100.
func Progress(completed, target int) float64 {
	if target <= 0 {
		return 0
	}
	return Round1(math.Min(100, float64(completed)/float64(target)*100))
}

func FormatMinutes(minutes int) string {
	hours := minutes / 60
	rest := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", rest)
	}
	return fmt.Sprintf("%dh %dm", hours, rest)
}

func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Bucket is a day's completed count and minutes.
type Bucket struct {
	Day      time.Time
	Sessions int
	Minutes  int
}

// Daily buckets entries by UTC day over [from, to).
func Daily(from, to time.Time, entries []Entry) []Bucket {
	from = DayStart(from)
	buckets := make([]Bucket, 0, int(to.Sub(from).Hours()/24)+1)
	index := make(map[time.Time]int)
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		index[day] = len(buckets)
		buckets = append(buckets, Bucket{Day: day})
	}
	for _, entry := range entries {
		i, ok := index[DayStart(entry.At)]
		if !ok {
			continue
		}
		buckets[i].Sessions++
		buckets[i].Minutes += entry.Minutes
	}
	return buckets
}

// Entry is one completed work interval.
type Entry struct {
	At      time.Time
	Minutes int
}
