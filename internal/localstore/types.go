package localstore

import (
	"fmt"
	"time"

	"honquedoro/internal/model"
	"honquedoro/internal/timer"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

type Task struct {
	ID                 string     `json:"id" yaml:"id"`
	Title              string     `json:"title" yaml:"title"`
	Description        string     `json:"description,omitempty" yaml:"description,omitempty"`
	Completed          bool       `json:"completed" yaml:"completed"`
	CreatedAt          time.Time  `json:"createdAt" yaml:"createdAt"`
	CompletedAt        *time.Time `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	EstimatedPomodoros int        `json:"estimatedPomodoros" yaml:"estimatedPomodoros"`
	CompletedPomodoros int        `json:"completedPomodoros" yaml:"completedPomodoros"`
	Priority           Priority   `json:"priority" yaml:"priority"`
	Category           string     `json:"category,omitempty" yaml:"category,omitempty"`
	Pinned             bool       `json:"pinned" yaml:"pinned"`
}

func (t Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task id is required")
	}
	if t.Title == "" {
		return fmt.Errorf("task %s: title is required", t.ID)
	}
	if t.EstimatedPomodoros < 1 || t.EstimatedPomodoros > 20 {
		return fmt.Errorf("task %s: estimatedPomodoros must be between 1 and 20", t.ID)
	}
	if t.CompletedPomodoros < 0 {
		return fmt.Errorf("task %s: completedPomodoros must not be negative", t.ID)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("task %s: unknown priority %q", t.ID, t.Priority)
	}
	return nil
}

type RecordType string

const (
	RecordWork  RecordType = "Work"
	RecordBreak RecordType = "Break"
)

// SessionRecord is one finished interval in the local history.
type SessionRecord struct {
	Date     time.Time  `json:"date" yaml:"date"`
	Type     RecordType `json:"type" yaml:"type"`
	Duration int        `json:"duration" yaml:"duration"`
	TaskID   string     `json:"taskId,omitempty" yaml:"taskId,omitempty"`
}

func (r SessionRecord) Validate() error {
	if r.Date.IsZero() {
		return fmt.Errorf("session date is required")
	}
	if r.Type != RecordWork && r.Type != RecordBreak {
		return fmt.Errorf("unknown session type %q", r.Type)
	}
	if r.Duration < 0 || r.Duration > 60 {
		return fmt.Errorf("session duration must be between 0 and 60 minutes")
	}
	return nil
}

// AppSettings mirrors the server's timer settings plus client-only
// preferences.
type AppSettings struct {
	WorkDuration           int    `json:"workDuration" yaml:"workDuration"`
	ShortBreakDuration     int    `json:"shortBreakDuration" yaml:"shortBreakDuration"`
	LongBreakDuration      int    `json:"longBreakDuration" yaml:"longBreakDuration"`
	SessionsUntilLongBreak int    `json:"sessionsUntilLongBreak" yaml:"sessionsUntilLongBreak"`
	AutoStartBreaks        bool   `json:"autoStartBreaks" yaml:"autoStartBreaks"`
	AutoStartPomodoros     bool   `json:"autoStartPomodoros" yaml:"autoStartPomodoros"`
	SoundEnabled           bool   `json:"soundEnabled" yaml:"soundEnabled"`
	DesktopNotifications   bool   `json:"desktopNotifications" yaml:"desktopNotifications"`
	DarkMode               bool   `json:"darkMode" yaml:"darkMode"`
	DailyGoal              int    `json:"dailyGoal" yaml:"dailyGoal"`
	CurrentTaskID          string `json:"currentTaskId,omitempty" yaml:"currentTaskId,omitempty"`
}

func DefaultAppSettings() AppSettings {
	return AppSettings{
		WorkDuration:           25,
		ShortBreakDuration:     5,
		LongBreakDuration:      15,
		SessionsUntilLongBreak: 4,
		SoundEnabled:           true,
		DesktopNotifications:   true,
		DailyGoal:              8,
	}
}

func (a AppSettings) Validate() error {
	if err := a.TimerConfig(timer.DefaultConfig()).Validate(); err != nil {
		return err
	}
	if a.DailyGoal < 1 || a.DailyGoal > 200 {
		return fmt.Errorf("daily goal must be between 1 and 200")
	}
	return nil
}

// TimerConfig overlays the settings on base, keeping base's intervals.
func (a AppSettings) TimerConfig(base timer.Config) timer.Config {
	base.WorkMinutes = a.WorkDuration
	base.ShortBreakMinutes = a.ShortBreakDuration
	base.LongBreakMinutes = a.LongBreakDuration
	base.Cadence = a.SessionsUntilLongBreak
	base.AutoStartBreaks = a.AutoStartBreaks
	base.AutoStartWork = a.AutoStartPomodoros
	return base
}

// FromServer copies the server's settings over the client-only fields of a.
func (a AppSettings) FromServer(s model.UserSettings) AppSettings {
	a.WorkDuration = s.WorkDurationMinutes
	a.ShortBreakDuration = s.ShortBreakDurationMinutes
	a.LongBreakDuration = s.LongBreakDurationMinutes
	a.SessionsUntilLongBreak = s.SessionsUntilLongBreak
	a.AutoStartBreaks = s.AutoStartBreaks
	a.AutoStartPomodoros = s.AutoStartWork
	a.SoundEnabled = s.PlayNotificationSounds
	a.DesktopNotifications = s.ShowDesktopNotifications
	a.DailyGoal = s.DailyGoalSessions
	return a
}

// ApplyTo writes the shared fields of a into the server's settings.
func (a AppSettings) ApplyTo(s *model.UserSettings) {
	s.WorkDurationMinutes = a.WorkDuration
	s.ShortBreakDurationMinutes = a.ShortBreakDuration
	s.LongBreakDurationMinutes = a.LongBreakDuration
	s.SessionsUntilLongBreak = a.SessionsUntilLongBreak
	s.AutoStartBreaks = a.AutoStartBreaks
	s.AutoStartWork = a.AutoStartPomodoros
	s.PlayNotificationSounds = a.SoundEnabled
	s.ShowDesktopNotifications = a.DesktopNotifications
	s.DailyGoalSessions = a.DailyGoal
}
