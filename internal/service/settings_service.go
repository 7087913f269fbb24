package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"honquedoro/internal/clock"
	apperrors "honquedoro/internal/errors"
	"honquedoro/internal/model"
	"honquedoro/internal/repository"
)

type SettingsService struct {
	repo   *repository.SettingsRepository
	stats  *StatisticsService
	clock  clock.Clock
	logger zerolog.Logger
}

func NewSettingsService(
	repo *repository.SettingsRepository,
	stats *StatisticsService,
	clk clock.Clock,
	logger zerolog.Logger,
) *SettingsService {
	return &SettingsService{
		repo:   repo,
		stats:  stats,
		clock:  clk,
		logger: logger.With().Str("component", "settings").Logger(),
	}
}

// Get returns the stored settings or the defaults when none are saved yet.
func (s *SettingsService) Get(ctx context.Context, userID string) (*model.UserSettings, *apperrors.APIError) {
	settings, err := s.repo.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		defaults := model.DefaultSettings(userID)
		return &defaults, nil
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get settings")
	}
	return settings, nil
}

// Update replaces the user's settings. Field ranges are checked by the
// caller's binding before this point.
func (s *SettingsService) Update(ctx context.Context, userID string, settings model.UserSettings) (*model.UserSettings, *apperrors.APIError) {
	settings.UserID = userID
	if err := s.repo.Upsert(ctx, &settings, s.clock.Now()); err != nil {
		return nil, apperrors.Internal("failed to save settings")
	}
	s.stats.Invalidate(ctx, userID)
	s.logger.Info().Str("user_id", userID).Msg("Updated settings")
	return &settings, nil
}

func (s *SettingsService) Reset(ctx context.Context, userID string) (*model.UserSettings, *apperrors.APIError) {
	return s.Update(ctx, userID, model.DefaultSettings(userID))
}

// EnsureDefaults stores the default settings when the user has none.
func (s *SettingsService) EnsureDefaults(ctx context.Context, userID string) *apperrors.APIError {
	_, err := s.repo.Get(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return apperrors.Internal("failed to get settings")
	}
	defaults := model.DefaultSettings(userID)
	if err := s.repo.Upsert(ctx, &defaults, s.clock.Now()); err != nil {
		return apperrors.Internal("failed to initialize settings")
	}
	return nil
}

func (s *SettingsService) TimerConfig(ctx context.Context, userID string) (*model.TimerConfig, *apperrors.APIError) {
	settings, apiErr := s.Get(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	config := settings.TimerConfig()
	return &config, nil
}

func (s *SettingsService) UpdateTimerConfig(ctx context.Context, userID string, patch model.TimerConfigPatch) (*model.TimerConfig, *apperrors.APIError) {
	settings, apiErr := s.Get(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	patch.Apply(settings)

	updated, apiErr := s.Update(ctx, userID, *settings)
	if apiErr != nil {
		return nil, apiErr
	}
	config := updated.TimerConfig()
	return &config, nil
}
