package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"honquedoro/internal/clock"
	apperrors "honquedoro/internal/errors"
	"honquedoro/internal/metrics"
	"honquedoro/internal/model"
	"honquedoro/internal/repository"
)

const (
	defaultRecentCount = 10
	maxRecentCount     = 100
	maxNotesLength     = 1000
)

type SessionService struct {
	repo   *repository.SessionRepository
	stats  *StatisticsService
	clock  clock.Clock
	logger zerolog.Logger
}

type StartSessionInput struct {
	Type            model.SessionType
	DurationMinutes int
	Notes           string
}

type CompleteSessionInput struct {
	CompletedAt *time.Time
	Notes       *string
}

func NewSessionService(
	repo *repository.SessionRepository,
	stats *StatisticsService,
	clk clock.Clock,
	logger zerolog.Logger,
) *SessionService {
	return &SessionService{
		repo:   repo,
		stats:  stats,
		clock:  clk,
		logger: logger.With().Str("component", "sessions").Logger(),
	}
}

func (s *SessionService) Start(ctx context.Context, userID string, input StartSessionInput) (*model.ActiveSession, *apperrors.APIError) {
	if !input.Type.Valid() {
		return nil, apperrors.BadRequest("invalid_session_type", "type must be one of Work, ShortBreak, LongBreak")
	}
	if input.DurationMinutes < model.MinDurationMinutes || input.DurationMinutes > model.MaxDurationMinutes {
		return nil, apperrors.BadRequest("invalid_duration", "durationMinutes must be between 1 and 60")
	}
	if len(input.Notes) > maxNotesLength {
		return nil, apperrors.BadRequest("invalid_notes", "notes must be at most 1000 characters")
	}

	now := s.clock.Now()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	open, err := s.repo.GetOpenTx(ctx, tx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, apperrors.Internal("failed to check active session")
	case open.Expired(now):
		if apiErr := s.finishTx(ctx, tx, open, model.SessionStatusCompleted, expiryTime(open, now), now); apiErr != nil {
			return nil, apiErr
		}
		s.logger.Info().Int64("session_id", open.ID).Str("user_id", userID).Msg("Completed expired session before start")
	default:
		return nil, apperrors.BadRequest("session_already_open", "a session is already active or paused")
	}

	session := model.Session{
		UserID:          userID,
		Type:            input.Type,
		DurationMinutes: input.DurationMinutes,
		Status:          model.SessionStatusActive,
		StartTime:       now,
		LastUpdated:     &now,
		Notes:           strings.TrimSpace(input.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.InsertTx(ctx, tx, &session); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.BadRequest("session_already_open", "a session is already active or paused")
		}
		return nil, apperrors.Internal("failed to create session")
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}
	if open != nil {
		s.afterFinish(ctx, open)
	}

	metrics.SessionsStarted.WithLabelValues(session.Type.String()).Inc()
	s.logger.Info().
		Int64("session_id", session.ID).
		Str("user_id", userID).
		Str("type", session.Type.String()).
		Int("duration_minutes", session.DurationMinutes).
		Msg("Started session")

	view := session.ActiveView(now)
	return &view, nil
}

func (s *SessionService) Pause(ctx context.Context, userID string, id int64) (*model.ActiveSession, *apperrors.APIError) {
	now := s.clock.Now()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	session, apiErr := s.getForUpdate(ctx, tx, userID, id)
	if apiErr != nil {
		return nil, apiErr
	}
	if session.Status != model.SessionStatusActive {
		return nil, apperrors.BadRequest("session_not_active", "session is not active")
	}
	if session.Expired(now) {
		if apiErr := s.finishTx(ctx, tx, session, model.SessionStatusCompleted, expiryTime(session, now), now); apiErr != nil {
			return nil, apiErr
		}
		if commitErr := tx.Commit(); commitErr != nil {
			return nil, apperrors.Internal("failed to commit transaction")
		}
		s.afterFinish(ctx, session)
		return nil, apperrors.BadRequest("session_expired", "session has already run out")
	}

	session.ElapsedSeconds = session.RunningElapsed(now)
	session.Status = model.SessionStatusPaused
	session.PausedAt = &now
	session.LastUpdated = nil
	session.UpdatedAt = now

	if err := s.repo.UpdateTx(ctx, tx, session); err != nil {
		return nil, apperrors.Internal("failed to update session")
	}
	if commitErr := tx.Commit(); commitErr != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	s.logger.Debug().Int64("session_id", id).Int("elapsed_seconds", session.ElapsedSeconds).Msg("Paused session")
	view := session.ActiveView(now)
	return &view, nil
}

func (s *SessionService) Resume(ctx context.Context, userID string, id int64) (*model.ActiveSession, *apperrors.APIError) {
	now := s.clock.Now()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	session, apiErr := s.getForUpdate(ctx, tx, userID, id)
	if apiErr != nil {
		return nil, apiErr
	}
	if session.Status != model.SessionStatusPaused {
		return nil, apperrors.BadRequest("session_not_paused", "session is not paused")
	}

	session.Status = model.SessionStatusActive
	session.LastUpdated = &now
	session.PausedAt = nil
	session.UpdatedAt = now

	if err := s.repo.UpdateTx(ctx, tx, session); err != nil {
		return nil, apperrors.Internal("failed to update session")
	}
	if commitErr := tx.Commit(); commitErr != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	s.logger.Debug().Int64("session_id", id).Msg("Resumed session")
	view := session.ActiveView(now)
	return &view, nil
}

func (s *SessionService) Complete(ctx context.Context, userID string, id int64, input CompleteSessionInput) *apperrors.APIError {
	if input.Notes != nil && len(*input.Notes) > maxNotesLength {
		return apperrors.BadRequest("invalid_notes", "notes must be at most 1000 characters")
	}

	now := s.clock.Now()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	session, apiErr := s.getForUpdate(ctx, tx, userID, id)
	if apiErr != nil {
		return apiErr
	}
	switch session.Status {
	case model.SessionStatusCompleted:
		return apperrors.BadRequest("session_already_completed", "session is already completed")
	case model.SessionStatusCancelled:
		return apperrors.BadRequest("session_cancelled", "session was cancelled")
	}

	endTime := now
	if input.CompletedAt != nil {
		endTime = input.CompletedAt.UTC()
	}
	if input.Notes != nil && strings.TrimSpace(*input.Notes) != "" {
		session.Notes = strings.TrimSpace(*input.Notes)
	}

	if apiErr := s.finishTx(ctx, tx, session, model.SessionStatusCompleted, endTime, now); apiErr != nil {
		return apiErr
	}
	if commitErr := tx.Commit(); commitErr != nil {
		return apperrors.Internal("failed to commit transaction")
	}
	s.afterFinish(ctx, session)
	return nil
}

// Cancel ends an open session. Cancelling a cancelled session succeeds.
func (s *SessionService) Cancel(ctx context.Context, userID string, id int64) *apperrors.APIError {
	now := s.clock.Now()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	session, apiErr := s.getForUpdate(ctx, tx, userID, id)
	if apiErr != nil {
		return apiErr
	}
	switch session.Status {
	case model.SessionStatusCompleted:
		return apperrors.BadRequest("session_already_completed", "cannot cancel a completed session")
	case model.SessionStatusCancelled:
		return nil
	}

	if apiErr := s.finishTx(ctx, tx, session, model.SessionStatusCancelled, now, now); apiErr != nil {
		return apiErr
	}
	if commitErr := tx.Commit(); commitErr != nil {
		return apperrors.Internal("failed to commit transaction")
	}
	s.afterFinish(ctx, session)
	return nil
}

// Active reports the user's open session without modifying it. An Active
// session whose time has run out is reported as expired and left for the
// sweeper.
func (s *SessionService) Active(ctx context.Context, userID string) (*model.TimerState, *apperrors.APIError) {
	now := s.clock.Now()
	session, err := s.repo.GetOpen(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return &model.TimerState{HasActiveSession: false, Message: "No active session"}, nil
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get active session")
	}
	if session.Expired(now) {
		return &model.TimerState{HasActiveSession: false, Message: "Session expired"}, nil
	}

	view := session.ActiveView(now)
	return &model.TimerState{HasActiveSession: true, ActiveSession: &view}, nil
}

func (s *SessionService) Get(ctx context.Context, userID string, id int64) (*model.SessionView, *apperrors.APIError) {
	session, err := s.repo.Get(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("session_not_found", "session not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get session")
	}
	view := session.View(s.clock.Now())
	return &view, nil
}

func (s *SessionService) Recent(ctx context.Context, userID string, count int) ([]model.SessionView, *apperrors.APIError) {
	if count <= 0 {
		count = defaultRecentCount
	}
	if count > maxRecentCount {
		count = maxRecentCount
	}
	sessions, err := s.repo.ListRecent(ctx, userID, count)
	if err != nil {
		return nil, apperrors.Internal("failed to list sessions")
	}
	return s.views(sessions), nil
}

func (s *SessionService) Today(ctx context.Context, userID string) ([]model.SessionView, *apperrors.APIError) {
	now := s.clock.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	sessions, err := s.repo.ListStartedBetween(ctx, userID, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, apperrors.Internal("failed to list sessions")
	}
	return s.views(sessions), nil
}

// CompleteExpired completes every Active session whose countdown has run out
// and returns how many it completed.
func (s *SessionService) CompleteExpired(ctx context.Context) (int, error) {
	candidates, err := s.repo.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	completed := 0
	for i := range candidates {
		if !candidates[i].Expired(s.clock.Now()) {
			continue
		}
		ok, err := s.completeIfExpired(ctx, candidates[i].UserID, candidates[i].ID)
		if err != nil {
			return completed, err
		}
		if ok {
			completed++
		}
	}
	return completed, nil
}

func (s *SessionService) completeIfExpired(ctx context.Context, userID string, id int64) (bool, error) {
	now := s.clock.Now()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	session, err := s.repo.GetTx(ctx, tx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !session.Expired(now) {
		return false, nil
	}

	if apiErr := s.finishTx(ctx, tx, session, model.SessionStatusCompleted, expiryTime(session, now), now); apiErr != nil {
		return false, apiErr
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	s.afterFinish(ctx, session)
	metrics.SessionsSwept.Inc()
	return true, nil
}

func (s *SessionService) getForUpdate(ctx context.Context, tx *sql.Tx, userID string, id int64) (*model.Session, *apperrors.APIError) {
	session, err := s.repo.GetTx(ctx, tx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("session_not_found", "session not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get session")
	}
	return session, nil
}

// finishTx moves an open session to Completed or Cancelled and, for
// completed work, records the statistics in the same transaction.
func (s *SessionService) finishTx(
	ctx context.Context,
	tx *sql.Tx,
	session *model.Session,
	status model.SessionStatus,
	endTime time.Time,
	now time.Time,
) *apperrors.APIError {
	session.ElapsedSeconds = session.RunningElapsed(now)
	session.Status = status
	session.EndTime = &endTime
	session.LastUpdated = nil
	session.PausedAt = nil
	session.UpdatedAt = now

	if err := s.repo.UpdateTx(ctx, tx, session); err != nil {
		return apperrors.Internal("failed to update session")
	}

	if status == model.SessionStatusCompleted && session.Type == model.SessionTypeWork {
		if err := s.stats.RecordCompletionTx(ctx, tx, session, now); err != nil {
			s.logger.Error().Err(err).Int64("session_id", session.ID).Msg("Failed to record statistics")
			return apperrors.Internal("failed to update statistics")
		}
	}
	return nil
}

func (s *SessionService) afterFinish(ctx context.Context, session *model.Session) {
	switch session.Status {
	case model.SessionStatusCompleted:
		metrics.SessionsCompleted.WithLabelValues(session.Type.String()).Inc()
	case model.SessionStatusCancelled:
		metrics.SessionsCancelled.WithLabelValues(session.Type.String()).Inc()
	}
	s.stats.Invalidate(ctx, session.UserID)
	s.logger.Info().
		Int64("session_id", session.ID).
		Str("user_id", session.UserID).
		Str("type", session.Type.String()).
		Str("status", session.Status.String()).
		Msg("Finished session")
}

func (s *SessionService) views(sessions []model.Session) []model.SessionView {
	now := s.clock.Now()
	views := make([]model.SessionView, 0, len(sessions))
	for i := range sessions {
		views = append(views, sessions[i].View(now))
	}
	return views
}

// expiryTime is the moment an Active session's countdown reached zero.
func expiryTime(session *model.Session, now time.Time) time.Time {
	if session.LastUpdated == nil {
		return now
	}
	left := session.TotalSeconds() - session.ElapsedSeconds
	if left < 0 {
		left = 0
	}
	end := session.LastUpdated.Add(time.Duration(left) * time.Second)
	if end.After(now) {
		return now
	}
	return end
}
