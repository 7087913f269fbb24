package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"honquedoro/internal/model"
)

const sessionColumns = `id, user_id, type, duration_minutes, status, start_time, end_time,
	paused_at, elapsed_seconds, last_updated, notes, created_at, updated_at`

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

func (r *SessionRepository) InsertTx(ctx context.Context, tx *sql.Tx, session *model.Session) error {
	result, err := tx.ExecContext(
		ctx,
		`INSERT INTO sessions (
			user_id, type, duration_minutes, status, start_time, end_time, paused_at,
			elapsed_seconds, last_updated, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.UserID,
		int(session.Type),
		session.DurationMinutes,
		int(session.Status),
		formatTime(session.StartTime),
		formatNullableTime(session.EndTime),
		formatNullableTime(session.PausedAt),
		session.ElapsedSeconds,
		formatNullableTime(session.LastUpdated),
		session.Notes,
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert session id: %w", err)
	}
	session.ID = id
	return nil
}

func (r *SessionRepository) UpdateTx(ctx context.Context, tx *sql.Tx, session *model.Session) error {
	_, err := tx.ExecContext(
		ctx,
		`UPDATE sessions
		 SET status = ?,
		     end_time = ?,
		     paused_at = ?,
		     elapsed_seconds = ?,
		     last_updated = ?,
		     notes = ?,
		     updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		int(session.Status),
		formatNullableTime(session.EndTime),
		formatNullableTime(session.PausedAt),
		session.ElapsedSeconds,
		formatNullableTime(session.LastUpdated),
		session.Notes,
		formatTime(session.UpdatedAt),
		session.ID,
		session.UserID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, userID string, id int64) (*model.Session, error) {
	return getSession(ctx, r.db, userID, id)
}

func (r *SessionRepository) GetTx(ctx context.Context, tx *sql.Tx, userID string, id int64) (*model.Session, error) {
	return getSession(ctx, tx, userID, id)
}

func getSession(ctx context.Context, q querier, userID string, id int64) (*model.Session, error) {
	row := q.QueryRowContext(
		ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	return scanSession(row)
}

// GetOpen returns the user's Active or Paused session.
func (r *SessionRepository) GetOpen(ctx context.Context, userID string) (*model.Session, error) {
	return getOpenSession(ctx, r.db, userID)
}

func (r *SessionRepository) GetOpenTx(ctx context.Context, tx *sql.Tx, userID string) (*model.Session, error) {
	return getOpenSession(ctx, tx, userID)
}

func getOpenSession(ctx context.Context, q querier, userID string) (*model.Session, error) {
	row := q.QueryRowContext(
		ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE user_id = ? AND status IN (?, ?)
		 ORDER BY start_time DESC
		 LIMIT 1`,
		userID,
		int(model.SessionStatusActive),
		int(model.SessionStatusPaused),
	)
	return scanSession(row)
}

// ListActive returns every Active session across users.
func (r *SessionRepository) ListActive(ctx context.Context) ([]model.Session, error) {
	return listSessions(ctx, r.db,
		`SELECT `+sessionColumns+` FROM sessions WHERE status = ? ORDER BY id`,
		int(model.SessionStatusActive),
	)
}

func (r *SessionRepository) ListRecent(ctx context.Context, userID string, limit int) ([]model.Session, error) {
	return listSessions(ctx, r.db,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE user_id = ?
		 ORDER BY start_time DESC, id DESC
		 LIMIT ?`,
		userID,
		limit,
	)
}

func (r *SessionRepository) ListRecentCompleted(ctx context.Context, userID string, limit int) ([]model.Session, error) {
	return listSessions(ctx, r.db,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE user_id = ? AND status = ?
		 ORDER BY end_time DESC, id DESC
		 LIMIT ?`,
		userID,
		int(model.SessionStatusCompleted),
		limit,
	)
}

// ListStartedBetween returns sessions with from <= start_time < to.
func (r *SessionRepository) ListStartedBetween(ctx context.Context, userID string, from, to time.Time) ([]model.Session, error) {
	return listSessions(ctx, r.db,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE user_id = ? AND start_time >= ? AND start_time < ?
		 ORDER BY start_time DESC, id DESC`,
		userID,
		formatTime(from),
		formatTime(to),
	)
}

// WorkEntry is a completed work session reduced to what statistics need.
type WorkEntry struct {
	EndTime         time.Time
	DurationMinutes int
}

// CompletedWorkBetween returns completed work sessions with from <= end_time < to.
func (r *SessionRepository) CompletedWorkBetween(ctx context.Context, userID string, from, to time.Time) ([]WorkEntry, error) {
	return completedWorkBetween(ctx, r.db, userID, from, to)
}

func (r *SessionRepository) CompletedWorkBetweenTx(ctx context.Context, tx *sql.Tx, userID string, from, to time.Time) ([]WorkEntry, error) {
	return completedWorkBetween(ctx, tx, userID, from, to)
}

func completedWorkBetween(ctx context.Context, q querier, userID string, from, to time.Time) ([]WorkEntry, error) {
	rows, err := q.QueryContext(
		ctx,
		`SELECT end_time, duration_minutes FROM sessions
		 WHERE user_id = ? AND type = ? AND status = ? AND end_time >= ? AND end_time < ?
		 ORDER BY end_time`,
		userID,
		int(model.SessionTypeWork),
		int(model.SessionStatusCompleted),
		formatTime(from),
		formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("list completed work: %w", err)
	}
	defer rows.Close()

	entries := make([]WorkEntry, 0)
	for rows.Next() {
		var endTime string
		var entry WorkEntry
		if err := rows.Scan(&endTime, &entry.DurationMinutes); err != nil {
			return nil, fmt.Errorf("scan completed work: %w", err)
		}
		parsed, err := parseTime(endTime)
		if err != nil {
			return nil, fmt.Errorf("parse completed work end_time: %w", err)
		}
		entry.EndTime = parsed
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed work: %w", err)
	}
	return entries, nil
}

// WorkTotals aggregates every completed work session of a user.
type WorkTotals struct {
	Sessions     int
	Minutes      int
	FirstEndTime *time.Time
}

func (r *SessionRepository) CompletedWorkTotals(ctx context.Context, userID string) (WorkTotals, error) {
	return completedWorkTotals(ctx, r.db, userID)
}

func (r *SessionRepository) CompletedWorkTotalsTx(ctx context.Context, tx *sql.Tx, userID string) (WorkTotals, error) {
	return completedWorkTotals(ctx, tx, userID)
}

func completedWorkTotals(ctx context.Context, q querier, userID string) (WorkTotals, error) {
	var totals WorkTotals
	var first sql.NullString
	err := q.QueryRowContext(
		ctx,
		`SELECT COUNT(1), COALESCE(SUM(duration_minutes), 0), MIN(end_time)
		 FROM sessions
		 WHERE user_id = ? AND type = ? AND status = ?`,
		userID,
		int(model.SessionTypeWork),
		int(model.SessionStatusCompleted),
	).Scan(&totals.Sessions, &totals.Minutes, &first)
	if err != nil {
		return WorkTotals{}, fmt.Errorf("sum completed work: %w", err)
	}
	parsed, err := parseNullableTime(first)
	if err != nil {
		return WorkTotals{}, fmt.Errorf("parse first end_time: %w", err)
	}
	totals.FirstEndTime = parsed
	return totals, nil
}

// CompletedWorkDays returns the distinct UTC days holding at least one
// completed work session, newest first.
func (r *SessionRepository) CompletedWorkDays(ctx context.Context, userID string) ([]time.Time, error) {
	return completedWorkDays(ctx, r.db, userID)
}

func (r *SessionRepository) CompletedWorkDaysTx(ctx context.Context, tx *sql.Tx, userID string) ([]time.Time, error) {
	return completedWorkDays(ctx, tx, userID)
}

func completedWorkDays(ctx context.Context, q querier, userID string) ([]time.Time, error) {
	rows, err := q.QueryContext(
		ctx,
		`SELECT DISTINCT substr(end_time, 1, 10) AS day FROM sessions
		 WHERE user_id = ? AND type = ? AND status = ? AND end_time IS NOT NULL
		 ORDER BY day DESC`,
		userID,
		int(model.SessionTypeWork),
		int(model.SessionStatusCompleted),
	)
	if err != nil {
		return nil, fmt.Errorf("list work days: %w", err)
	}
	defer rows.Close()

	days := make([]time.Time, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan work day: %w", err)
		}
		day, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("parse work day: %w", err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate work days: %w", err)
	}
	return days, nil
}

func listSessions(ctx context.Context, q querier, query string, args ...interface{}) ([]model.Session, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.Session, 0)
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

func scanSession(s scanner) (*model.Session, error) {
	session := model.Session{}
	var sessionType, status int
	var startTime, createdAt, updatedAt string
	var endTime, pausedAt, lastUpdated sql.NullString
	err := s.Scan(
		&session.ID,
		&session.UserID,
		&sessionType,
		&session.DurationMinutes,
		&status,
		&startTime,
		&endTime,
		&pausedAt,
		&session.ElapsedSeconds,
		&lastUpdated,
		&session.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	session.Type = model.SessionType(sessionType)
	session.Status = model.SessionStatus(status)

	if session.StartTime, err = parseTime(startTime); err != nil {
		return nil, fmt.Errorf("parse session start_time: %w", err)
	}
	if session.EndTime, err = parseNullableTime(endTime); err != nil {
		return nil, fmt.Errorf("parse session end_time: %w", err)
	}
	if session.PausedAt, err = parseNullableTime(pausedAt); err != nil {
		return nil, fmt.Errorf("parse session paused_at: %w", err)
	}
	if session.LastUpdated, err = parseNullableTime(lastUpdated); err != nil {
		return nil, fmt.Errorf("parse session last_updated: %w", err)
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse session updated_at: %w", err)
	}

	return &session, nil
}
