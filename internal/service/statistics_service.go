package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"honquedoro/internal/cache"
	"honquedoro/internal/clock"
	apperrors "honquedoro/internal/errors"
	"honquedoro/internal/metrics"
	"honquedoro/internal/model"
	"honquedoro/internal/repository"
	"honquedoro/internal/stats"
)

const recentCompletedCount = 4

const (
	kindPage         = "page"
	kindOverall      = "overall"
	kindWeekly       = "weekly"
	kindAchievements = "achievements"
	kindDashboard    = "dashboard"
	kindToday        = "today"
	kindWeeklyGoal   = "weekly-goal"
)

var cachedKinds = []string{kindPage, kindOverall, kindWeekly, kindAchievements, kindDashboard, kindToday, kindWeeklyGoal}

type StatisticsService struct {
	sessions     *repository.SessionRepository
	stats        *repository.StatisticsRepository
	achievements *repository.AchievementRepository
	settings     *repository.SettingsRepository
	cache        cache.Cache
	clock        clock.Clock
	logger       zerolog.Logger
}

func NewStatisticsService(
	sessions *repository.SessionRepository,
	statsRepo *repository.StatisticsRepository,
	achievements *repository.AchievementRepository,
	settings *repository.SettingsRepository,
	statsCache cache.Cache,
	clk clock.Clock,
	logger zerolog.Logger,
) *StatisticsService {
	if statsCache == nil {
		statsCache = cache.Nop{}
	}
	return &StatisticsService{
		sessions:     sessions,
		stats:        statsRepo,
		achievements: achievements,
		settings:     settings,
		cache:        statsCache,
		clock:        clk,
		logger:       logger.With().Str("component", "statistics").Logger(),
	}
}

// RecordCompletionTx updates today's statistics row and awards any newly
// reached achievements after a work session completes.
func (s *StatisticsService) RecordCompletionTx(ctx context.Context, tx *sql.Tx, session *model.Session, now time.Time) error {
	today := stats.DayStart(now)

	days, err := s.sessions.CompletedWorkDaysTx(ctx, tx, session.UserID)
	if err != nil {
		return err
	}
	streak := stats.CurrentStreak(days, now)

	weekStart := stats.WeekStart(now)
	week, err := s.sessions.CompletedWorkBetweenTx(ctx, tx, session.UserID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return err
	}

	target := model.DefaultSettings(session.UserID).WeeklyGoalSessions
	settings, err := s.settings.GetTx(ctx, tx, session.UserID)
	switch {
	case err == nil:
		target = settings.WeeklyGoalSessions
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	best, err := s.stats.BestStreakTx(ctx, tx, session.UserID)
	if err != nil {
		return err
	}

	row, err := s.stats.GetDayTx(ctx, tx, session.UserID, today)
	if errors.Is(err, repository.ErrNotFound) {
		row = &model.UserStatistics{UserID: session.UserID, Date: today}
	} else if err != nil {
		return err
	}
	row.CompletedSessions++
	row.TotalWorkTimeMinutes += session.DurationMinutes
	row.CurrentStreak = streak
	row.BestStreak = max(best, streak, row.BestStreak)
	row.WeeklyCompleted = len(week)
	row.WeeklyTarget = target
	if err := s.stats.UpsertDayTx(ctx, tx, row); err != nil {
		return err
	}

	totals, err := s.sessions.CompletedWorkTotalsTx(ctx, tx, session.UserID)
	if err != nil {
		return err
	}
	achievements, err := s.achievements.ListForUserTx(ctx, tx, session.UserID)
	if err != nil {
		return err
	}
	for _, achievement := range achievements {
		if achievement.Earned || !achievement.Reached(totals.Sessions, streak) {
			continue
		}
		if err := s.achievements.AwardTx(ctx, tx, session.UserID, achievement.ID, now); err != nil {
			return err
		}
		metrics.AchievementsEarned.Inc()
		s.logger.Info().
			Str("user_id", session.UserID).
			Str("achievement", achievement.Title).
			Msg("Achievement earned")
	}
	return nil
}

// Invalidate drops every cached statistics response for the user.
func (s *StatisticsService) Invalidate(ctx context.Context, userID string) {
	keys := make([]string, 0, len(cachedKinds))
	for _, kind := range cachedKinds {
		keys = append(keys, cache.Key(userID, kind))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to invalidate statistics cache")
	}
}

func (s *StatisticsService) Page(ctx context.Context, userID string) (*model.StatisticsPage, *apperrors.APIError) {
	return cached(ctx, s, userID, kindPage, func() (*model.StatisticsPage, *apperrors.APIError) {
		overall, apiErr := s.computeOverall(ctx, userID)
		if apiErr != nil {
			return nil, apiErr
		}
		weekly, apiErr := s.computeWeekly(ctx, userID)
		if apiErr != nil {
			return nil, apiErr
		}
		achievements, apiErr := s.computeAchievements(ctx, userID)
		if apiErr != nil {
			return nil, apiErr
		}

		page := model.StatisticsPage{
			OverallStats: *overall,
			WeeklyData:   weekly,
			Achievements: achievements,
		}
		for _, day := range weekly {
			page.MaxSessions = max(page.MaxSessions, day.Sessions)
		}
		for _, achievement := range achievements {
			if achievement.Earned {
				page.EarnedAchievements++
			}
		}
		return &page, nil
	})
}

func (s *StatisticsService) Overall(ctx context.Context, userID string) (*model.OverallStats, *apperrors.APIError) {
	return cached(ctx, s, userID, kindOverall, func() (*model.OverallStats, *apperrors.APIError) {
		return s.computeOverall(ctx, userID)
	})
}

func (s *StatisticsService) Weekly(ctx context.Context, userID string) ([]model.DayData, *apperrors.APIError) {
	return cached(ctx, s, userID, kindWeekly, func() ([]model.DayData, *apperrors.APIError) {
		return s.computeWeekly(ctx, userID)
	})
}

func (s *StatisticsService) Monthly(ctx context.Context, userID string, year, month int) ([]model.DayData, *apperrors.APIError) {
	from, to, err := stats.MonthRange(year, month)
	if err != nil {
		return nil, apperrors.BadRequest("invalid_month", err.Error())
	}
	entries, err := s.sessions.CompletedWorkBetween(ctx, userID, from, to)
	if err != nil {
		return nil, apperrors.Internal("failed to get monthly statistics")
	}

	buckets := stats.Daily(from, to, toStatsEntries(entries))
	data := make([]model.DayData, 0, len(buckets))
	for _, bucket := range buckets {
		data = append(data, model.DayData{
			Day:       bucket.Day.Format("02"),
			Sessions:  bucket.Sessions,
			FocusTime: bucket.Minutes,
		})
	}
	return data, nil
}

func (s *StatisticsService) Achievements(ctx context.Context, userID string) ([]model.Achievement, *apperrors.APIError) {
	return cached(ctx, s, userID, kindAchievements, func() ([]model.Achievement, *apperrors.APIError) {
		return s.computeAchievements(ctx, userID)
	})
}

func (s *StatisticsService) Dashboard(ctx context.Context, userID string) (*model.Dashboard, *apperrors.APIError) {
	return cached(ctx, s, userID, kindDashboard, func() (*model.Dashboard, *apperrors.APIError) {
		today, apiErr := s.computeToday(ctx, userID)
		if apiErr != nil {
			return nil, apiErr
		}
		goal, apiErr := s.computeWeeklyGoal(ctx, userID)
		if apiErr != nil {
			return nil, apiErr
		}
		recent, err := s.sessions.ListRecentCompleted(ctx, userID, recentCompletedCount)
		if err != nil {
			return nil, apperrors.Internal("failed to list recent sessions")
		}

		now := s.clock.Now()
		dashboard := model.Dashboard{
			TodayStats:     *today,
			WeeklyGoal:     *goal,
			RecentSessions: make([]model.SessionView, 0, len(recent)),
		}
		for i := range recent {
			dashboard.RecentSessions = append(dashboard.RecentSessions, recent[i].View(now))
		}
		return &dashboard, nil
	})
}

func (s *StatisticsService) TodayStats(ctx context.Context, userID string) (*model.TodayStats, *apperrors.APIError) {
	return cached(ctx, s, userID, kindToday, func() (*model.TodayStats, *apperrors.APIError) {
		return s.computeToday(ctx, userID)
	})
}

func (s *StatisticsService) WeeklyGoal(ctx context.Context, userID string) (*model.WeeklyGoal, *apperrors.APIError) {
	return cached(ctx, s, userID, kindWeeklyGoal, func() (*model.WeeklyGoal, *apperrors.APIError) {
		return s.computeWeeklyGoal(ctx, userID)
	})
}

func (s *StatisticsService) computeOverall(ctx context.Context, userID string) (*model.OverallStats, *apperrors.APIError) {
	now := s.clock.Now()
	totals, err := s.sessions.CompletedWorkTotals(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to get totals")
	}
	current, longest, apiErr := s.streaks(ctx, userID, now)
	if apiErr != nil {
		return nil, apiErr
	}
	return &model.OverallStats{
		TotalSessions:           totals.Sessions,
		TotalFocusTime:          totals.Minutes,
		TotalFocusTimeFormatted: stats.FormatMinutes(totals.Minutes),
		AverageSessionsPerDay:   stats.AveragePerDay(totals.Sessions, totals.FirstEndTime, now),
		CurrentStreak:           current,
		LongestStreak:           longest,
	}, nil
}

func (s *StatisticsService) computeWeekly(ctx context.Context, userID string) ([]model.DayData, *apperrors.APIError) {
	from := stats.WeekStart(s.clock.Now())
	to := from.AddDate(0, 0, 7)
	entries, err := s.sessions.CompletedWorkBetween(ctx, userID, from, to)
	if err != nil {
		return nil, apperrors.Internal("failed to get weekly statistics")
	}

	buckets := stats.Daily(from, to, toStatsEntries(entries))
	data := make([]model.DayData, 0, len(buckets))
	for i, bucket := range buckets {
		data = append(data, model.DayData{
			Day:       stats.WeekdayLabels[i],
			Sessions:  bucket.Sessions,
			FocusTime: bucket.Minutes,
		})
	}
	return data, nil
}

func (s *StatisticsService) computeAchievements(ctx context.Context, userID string) ([]model.Achievement, *apperrors.APIError) {
	achievements, err := s.achievements.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list achievements")
	}
	return achievements, nil
}

func (s *StatisticsService) computeToday(ctx context.Context, userID string) (*model.TodayStats, *apperrors.APIError) {
	now := s.clock.Now()
	from := stats.DayStart(now)
	entries, err := s.sessions.CompletedWorkBetween(ctx, userID, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, apperrors.Internal("failed to get today statistics")
	}
	current, best, apiErr := s.streaks(ctx, userID, now)
	if apiErr != nil {
		return nil, apiErr
	}

	today := model.TodayStats{
		CompletedSessions: len(entries),
		CurrentStreak:     current,
		BestStreak:        best,
	}
	for _, entry := range entries {
		today.TotalWorkTime += entry.DurationMinutes
	}
	return &today, nil
}

func (s *StatisticsService) computeWeeklyGoal(ctx context.Context, userID string) (*model.WeeklyGoal, *apperrors.APIError) {
	from := stats.WeekStart(s.clock.Now())
	entries, err := s.sessions.CompletedWorkBetween(ctx, userID, from, from.AddDate(0, 0, 7))
	if err != nil {
		return nil, apperrors.Internal("failed to get weekly goal")
	}

	target := model.DefaultSettings(userID).WeeklyGoalSessions
	settings, err := s.settings.Get(ctx, userID)
	switch {
	case err == nil:
		target = settings.WeeklyGoalSessions
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.Internal("failed to get settings")
	}

	return &model.WeeklyGoal{
		Target:             target,
		Completed:          len(entries),
		ProgressPercentage: stats.Progress(len(entries), target),
	}, nil
}

// streaks returns the live current streak and the best streak, which is
// never lower than the current one.
func (s *StatisticsService) streaks(ctx context.Context, userID string, now time.Time) (int, int, *apperrors.APIError) {
	days, err := s.sessions.CompletedWorkDays(ctx, userID)
	if err != nil {
		return 0, 0, apperrors.Internal("failed to get streak")
	}
	current := stats.CurrentStreak(days, now)
	best, err := s.stats.BestStreak(ctx, userID)
	if err != nil {
		return 0, 0, apperrors.Internal("failed to get best streak")
	}
	return current, max(current, best), nil
}

func cached[T any](
	ctx context.Context,
	s *StatisticsService,
	userID, kind string,
	compute func() (T, *apperrors.APIError),
) (T, *apperrors.APIError) {
	key := cache.Key(userID, kind)
	var value T

	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Statistics cache read failed")
	}
	if ok {
		if err := json.Unmarshal(raw, &value); err == nil {
			metrics.StatsCacheHits.Inc()
			return value, nil
		}
		s.logger.Warn().Str("key", key).Msg("Discarding undecodable cache entry")
	}
	metrics.StatsCacheMisses.Inc()

	value, apiErr := compute()
	if apiErr != nil {
		return value, apiErr
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to encode statistics for cache")
		return value, nil
	}
	if err := s.cache.Set(ctx, key, encoded); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Statistics cache write failed")
	}
	return value, nil
}

func toStatsEntries(entries []repository.WorkEntry) []stats.Entry {
	out := make([]stats.Entry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, stats.Entry{At: entry.EndTime, Minutes: entry.DurationMinutes})
	}
	return out
}
