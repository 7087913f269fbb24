package stats

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekStartIsMonday(t *testing.T) {
	cases := map[time.Time]time.Time{
		day(2026, time.October, 18):                               day(2026, time.October, 12), // Sunday
		day(2026, time.October, 12):                               day(2026, time.October, 12), // Monday
		time.Date(2026, time.October, 14, 23, 59, 0, 0, time.UTC): day(2026, time.October, 12),
	}
	for in, want := range cases {
		if got := WeekStart(in); !got.Equal(want) {
			t.Fatalf("WeekStart(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestCurrentStreak(t *testing.T) {
	today := time.Date(2026, time.October, 18, 15, 0, 0, 0, time.UTC)
	days := []time.Time{
		day(2026, time.October, 18),
		day(2026, time.October, 17),
		day(2026, time.October, 16),
		day(2026, time.October, 14),
	}
	if got := CurrentStreak(days, today); got != 3 {
		t.Fatalf("expected streak 3, got %d", got)
	}
	if got := CurrentStreak(days[1:], today); got != 0 {
		t.Fatalf("expected streak 0 without activity today, got %d", got)
	}
	if got := CurrentStreak(nil, today); got != 0 {
		t.Fatalf("expected streak 0 for no days, got %d", got)
	}
}

func TestMonthRange(t *testing.T) {
	from, to, err := MonthRange(2024, 2)
	if err != nil {
		t.Fatalf("month range: %v", err)
	}
	if days := int(to.Sub(from).Hours() / 24); days != 29 {
		t.Fatalf("expected 29 days in Feb 2024, got %d", days)
	}
	if _, _, err := MonthRange(2024, 13); err == nil {
		t.Fatal("expected error for month 13")
	}
}

func TestDailyBuckets(t *testing.T) {
	from := day(2026, time.October, 12)
	to := from.AddDate(0, 0, 7)
	buckets := Daily(from, to, []Entry{
		{At: time.Date(2026, time.October, 12, 9, 0, 0, 0, time.UTC), Minutes: 25},
		{At: time.Date(2026, time.October, 12, 10, 0, 0, 0, time.UTC), Minutes: 25},
		{At: time.Date(2026, time.October, 18, 23, 0, 0, 0, time.UTC), Minutes: 50},
		{At: time.Date(2026, time.October, 19, 1, 0, 0, 0, time.UTC), Minutes: 50},
	})
	if len(buckets) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(buckets))
	}
	if buckets[0].Sessions != 2 || buckets[0].Minutes != 50 {
		t.Fatalf("unexpected monday bucket %+v", buckets[0])
	}
	if buckets[6].Sessions != 1 || buckets[6].Minutes != 50 {
		t.Fatalf("unexpected sunday bucket %+v", buckets[6])
	}
}

func TestAverageAndProgress(t *testing.T) {
	first := day(2026, time.October, 9)
	if got := AveragePerDay(25, &first, day(2026, time.October, 18)); got != 2.5 {
		t.Fatalf("expected 2.5 sessions/day, got %v", got)
	}
	if got := Progress(50, 40); got != 100 {
		t.Fatalf("expected progress capped at 100, got %v", got)
	}
	if got := FormatMinutes(135); got != "2h 15m" {
		t.Fatalf("unexpected format %q", got)
	}
}
