package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// DefaultUserID owns every session when auth is disabled.
const DefaultUserID = "default-user"

const (
	MinDurationMinutes = 1
	MaxDurationMinutes = 60
)

// SessionType is stored as its integer value and encoded in JSON by name.
type SessionType int

const (
	SessionTypeWork SessionType = iota
	SessionTypeShortBreak
	SessionTypeLongBreak
)

var sessionTypeNames = [...]string{"Work", "ShortBreak", "LongBreak"}

func (t SessionType) Valid() bool {
	return t >= SessionTypeWork && t <= SessionTypeLongBreak
}

func (t SessionType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("SessionType(%d)", int(t))
	}
	return sessionTypeNames[t]
}

func ParseSessionType(name string) (SessionType, error) {
	for i, candidate := range sessionTypeNames {
		if candidate == name {
			return SessionType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown session type %q", name)
}

func (t SessionType) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid session type %d", int(t))
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts the name and, for older clients, the bare integer.
func (t *SessionType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, parseErr := ParseSessionType(name)
		if parseErr != nil {
			return parseErr
		}
		*t = parsed
		return nil
	}

	var number int
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("session type must be a name or 0..2")
	}
	candidate := SessionType(number)
	if !candidate.Valid() {
		return fmt.Errorf("unknown session type %d", number)
	}
	*t = candidate
	return nil
}

type SessionStatus int

const (
	SessionStatusNotStarted SessionStatus = iota
	SessionStatusActive
	SessionStatusPaused
	SessionStatusCompleted
	SessionStatusCancelled
)

var sessionStatusNames = [...]string{"NotStarted", "Active", "Paused", "Completed", "Cancelled"}

func (s SessionStatus) Valid() bool {
	return s >= SessionStatusNotStarted && s <= SessionStatusCancelled
}

func (s SessionStatus) String() string {
	if !s.Valid() {
		return fmt.Sprintf("SessionStatus(%d)", int(s))
	}
	return sessionStatusNames[s]
}

func ParseSessionStatus(name string) (SessionStatus, error) {
	for i, candidate := range sessionStatusNames {
		if candidate == name {
			return SessionStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown session status %q", name)
}

func (s SessionStatus) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid session status %d", int(s))
	}
	return json.Marshal(s.String())
}

func (s *SessionStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("session status must be a string: %w", err)
	}
	parsed, err := ParseSessionStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Open reports whether the status counts toward the single-active-session rule.
func (s SessionStatus) Open() bool {
	return s == SessionStatusActive || s == SessionStatusPaused
}

type Session struct {
	ID              int64
	UserID          string
	Type            SessionType
	DurationMinutes int
	Status          SessionStatus
	StartTime       time.Time
	EndTime         *time.Time
	PausedAt        *time.Time
	ElapsedSeconds  int
	LastUpdated     *time.Time
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (s *Session) TotalSeconds() int {
	return s.DurationMinutes * 60
}

// RunningElapsed is the elapsed time including the stretch since the last
// resume, capped at the session length.
func (s *Session) RunningElapsed(now time.Time) int {
	elapsed := s.ElapsedSeconds
	if s.Status == SessionStatusActive && s.LastUpdated != nil {
		delta := int(now.Sub(*s.LastUpdated).Seconds())
		if delta > 0 {
			elapsed += delta
		}
	}
	if elapsed > s.TotalSeconds() {
		return s.TotalSeconds()
	}
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

func (s *Session) RemainingSeconds(now time.Time) int {
	switch s.Status {
	case SessionStatusNotStarted:
		return s.TotalSeconds()
	case SessionStatusActive, SessionStatusPaused:
		remaining := s.TotalSeconds() - s.RunningElapsed(now)
		if remaining < 0 {
			return 0
		}
		return remaining
	default:
		return 0
	}
}

// Expired reports an Active session whose countdown has already run out.
func (s *Session) Expired(now time.Time) bool {
	return s.Status == SessionStatusActive && s.RemainingSeconds(now) <= 0
}

func (s *Session) ProgressPercentage(now time.Time) float64 {
	total := s.TotalSeconds()
	if total == 0 {
		return 0
	}
	progress := float64(total-s.RemainingSeconds(now)) / float64(total) * 100
	return math.Min(100, math.Max(0, progress))
}

func (s *Session) EstimatedEndTime(now time.Time) *time.Time {
	if s.Status != SessionStatusActive {
		return nil
	}
	remaining := s.RemainingSeconds(now)
	if remaining <= 0 {
		return nil
	}
	end := now.Add(time.Duration(remaining) * time.Second)
	return &end
}

// ActiveSession is the wire view of an open session.
type ActiveSession struct {
	ID                 int64         `json:"id"`
	Type               SessionType   `json:"type"`
	Status             SessionStatus `json:"status"`
	DurationMinutes    int           `json:"durationMinutes"`
	RemainingSeconds   int           `json:"remainingSeconds"`
	ElapsedSeconds     int           `json:"elapsedSeconds"`
	EstimatedEndTime   *time.Time    `json:"estimatedEndTime,omitempty"`
	ProgressPercentage float64       `json:"progressPercentage"`
	StartTime          time.Time     `json:"startTime"`
	LastUpdated        *time.Time    `json:"lastUpdated,omitempty"`
	Notes              string        `json:"notes,omitempty"`
}

func (s *Session) ActiveView(now time.Time) ActiveSession {
	return ActiveSession{
		ID:                 s.ID,
		Type:               s.Type,
		Status:             s.Status,
		DurationMinutes:    s.DurationMinutes,
		RemainingSeconds:   s.RemainingSeconds(now),
		ElapsedSeconds:     s.RunningElapsed(now),
		EstimatedEndTime:   s.EstimatedEndTime(now),
		ProgressPercentage: round1(s.ProgressPercentage(now)),
		StartTime:          s.StartTime,
		LastUpdated:        s.LastUpdated,
		Notes:              s.Notes,
	}
}

// SessionView is the wire view used by history listings.
type SessionView struct {
	ID                 int64         `json:"id"`
	Type               SessionType   `json:"type"`
	Duration           int           `json:"duration"`
	CompletedAt        time.Time     `json:"completedAt"`
	IsCompleted        bool          `json:"isCompleted"`
	Notes              string        `json:"notes,omitempty"`
	Status             SessionStatus `json:"status"`
	RemainingSeconds   int           `json:"remainingSeconds"`
	ElapsedSeconds     int           `json:"elapsedSeconds"`
	EstimatedEndTime   *time.Time    `json:"estimatedEndTime,omitempty"`
	ProgressPercentage float64       `json:"progressPercentage"`
	LastUpdated        *time.Time    `json:"lastUpdated,omitempty"`
}

func (s *Session) View(now time.Time) SessionView {
	completedAt := s.StartTime
	if s.EndTime != nil {
		completedAt = *s.EndTime
	}
	return SessionView{
		ID:                 s.ID,
		Type:               s.Type,
		Duration:           s.DurationMinutes,
		CompletedAt:        completedAt,
		IsCompleted:        s.Status == SessionStatusCompleted,
		Notes:              s.Notes,
		Status:             s.Status,
		RemainingSeconds:   s.RemainingSeconds(now),
		ElapsedSeconds:     s.RunningElapsed(now),
		EstimatedEndTime:   s.EstimatedEndTime(now),
		ProgressPercentage: round1(s.ProgressPercentage(now)),
		LastUpdated:        s.LastUpdated,
	}
}

type TimerState struct {
	HasActiveSession bool           `json:"hasActiveSession"`
	ActiveSession    *ActiveSession `json:"activeSession,omitempty"`
	Message          string         `json:"message,omitempty"`
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
