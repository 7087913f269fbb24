// Package timer implements the client-side Pomodoro state machine. The engine
// counts down locally, mirrors every transition to an optional session store
// and reconciles with that store on a fixed poll.
package timer

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConflict means the store rejected a transition (HTTP 400).
	ErrConflict = errors.New("timer: store rejected transition")
	// ErrNotFound means the bound session no longer exists (HTTP 404).
	ErrNotFound = errors.New("timer: session not found")
	// ErrUnavailable means the store could not be reached.
	ErrUnavailable = errors.New("timer: store unavailable")
	// ErrRunning is returned by operations that need a stopped timer.
	ErrRunning = errors.New("timer: timer is running")
)

type Mode string

const (
	ModeWork       Mode = "work"
	ModeShortBreak Mode = "shortBreak"
	ModeLongBreak  Mode = "longBreak"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeWork, ModeShortBreak, ModeLongBreak:
		return true
	}
	return false
}

func (m Mode) IsBreak() bool {
	return m == ModeShortBreak || m == ModeLongBreak
}

func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown timer mode %q", s)
	}
	return m, nil
}

type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	default:
		return "idle"
	}
}

// RemoteSession is the store's view of a session, reduced to what the
// engine reconciles against.
type RemoteSession struct {
	ID               int64
	Mode             Mode
	Paused           bool
	RemainingSeconds int
}

// Store is the session store the engine mirrors transitions to. Errors
// should wrap ErrConflict, ErrNotFound or ErrUnavailable.
type Store interface {
	StartSession(ctx context.Context, mode Mode, durationMinutes int) (RemoteSession, error)
	ResumeSession(ctx context.Context, id int64) (RemoteSession, error)
	PauseSession(ctx context.Context, id int64) (RemoteSession, error)
	CompleteSession(ctx context.Context, id int64) error
	CancelSession(ctx context.Context, id int64) error
	// ActiveSession returns nil when the store has no open session.
	ActiveSession(ctx context.Context) (*RemoteSession, error)
}

// Completion describes one finished interval.
type Completion struct {
	Mode           Mode
	ElapsedSeconds int
	Next           Mode
	Skipped        bool
	At             time.Time
}

// Recorder receives a tracking entry for every finished interval.
type Recorder interface {
	Record(Completion)
}

// Notifier is told when an interval ends.
type Notifier interface {
	Notify(Completion)
}

// Scheduler runs fn every d until the returned stop func is called. Stop must
// not wait for an in-flight fn.
type Scheduler interface {
	Every(d time.Duration, fn func()) (stop func())
}

type Config struct {
	WorkMinutes       int
	ShortBreakMinutes int
	LongBreakMinutes  int
	// Cadence is the number of work intervals before a long break.
	Cadence         int
	AutoStartBreaks bool
	AutoStartWork   bool
	TickInterval    time.Duration
	PollInterval    time.Duration
}

func DefaultConfig() Config {
	return Config{
		WorkMinutes:       25,
		ShortBreakMinutes: 5,
		LongBreakMinutes:  15,
		Cadence:           4,
		TickInterval:      time.Second,
		PollInterval:      10 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.WorkMinutes < 1 || c.WorkMinutes > 60 {
		return fmt.Errorf("work duration must be between 1 and 60 minutes")
	}
	if c.ShortBreakMinutes < 1 || c.ShortBreakMinutes > 30 {
		return fmt.Errorf("short break must be between 1 and 30 minutes")
	}
	if c.LongBreakMinutes < 1 || c.LongBreakMinutes > 60 {
		return fmt.Errorf("long break must be between 1 and 60 minutes")
	}
	if c.Cadence < 2 || c.Cadence > 10 {
		return fmt.Errorf("sessions until long break must be between 2 and 10")
	}
	if c.TickInterval <= 0 || c.PollInterval <= 0 {
		return fmt.Errorf("tick and poll intervals must be positive")
	}
	return nil
}

func (c Config) Minutes(m Mode) int {
	switch m {
	case ModeShortBreak:
		return c.ShortBreakMinutes
	case ModeLongBreak:
		return c.LongBreakMinutes
	default:
		return c.WorkMinutes
	}
}

func (c Config) FullSeconds(m Mode) int {
	return c.Minutes(m) * 60
}

// NextMode applies the cadence rule after an interval of mode m ends.
// completedWork is the work count including the interval that just ended.
func (c Config) NextMode(m Mode, completedWork int) Mode {
	if m != ModeWork {
		return ModeWork
	}
	if completedWork > 0 && completedWork%c.Cadence == 0 {
		return ModeLongBreak
	}
	return ModeShortBreak
}

// State is a consistent copy of the engine's local state.
type State struct {
	Mode                  Mode
	Status                Status
	CurrentTime           int
	BoundSessionID        *int64
	ServerSync            bool
	CompletedWorkSessions int
	LongBreaksTaken       int
	EstimatedEndTime      *time.Time
}

func (s State) IsRunning() bool {
	return s.Status == StatusRunning
}

// Synced reports whether the engine is bound to a store session and its last
// store call succeeded.
func (s State) Synced() bool {
	return s.BoundSessionID != nil && s.ServerSync
}
