package model

// UserSettings are the per-user timer and goal preferences. The binding tags
// are enforced by gin's validator on every write.
type UserSettings struct {
	UserID                    string `json:"userId,omitempty"`
	WorkDurationMinutes       int    `json:"workDurationMinutes" binding:"min=1,max=60" yaml:"workDurationMinutes"`
	ShortBreakDurationMinutes int    `json:"shortBreakDurationMinutes" binding:"min=1,max=30" yaml:"shortBreakDurationMinutes"`
	LongBreakDurationMinutes  int    `json:"longBreakDurationMinutes" binding:"min=1,max=60" yaml:"longBreakDurationMinutes"`
	SessionsUntilLongBreak    int    `json:"sessionsUntilLongBreak" binding:"min=2,max=10" yaml:"sessionsUntilLongBreak"`
	AutoStartBreaks           bool   `json:"autoStartBreaks" yaml:"autoStartBreaks"`
	AutoStartWork             bool   `json:"autoStartWork" yaml:"autoStartWork"`
	PlayNotificationSounds    bool   `json:"playNotificationSounds" yaml:"playNotificationSounds"`
	ShowDesktopNotifications  bool   `json:"showDesktopNotifications" yaml:"showDesktopNotifications"`
	DailyGoalSessions         int    `json:"dailyGoalSessions" binding:"min=1,max=200" yaml:"dailyGoalSessions"`
	WeeklyGoalSessions        int    `json:"weeklyGoalSessions" binding:"min=1,max=100" yaml:"weeklyGoalSessions"`
}

func DefaultSettings(userID string) UserSettings {
	return UserSettings{
		UserID:                    userID,
		WorkDurationMinutes:       25,
		ShortBreakDurationMinutes: 5,
		LongBreakDurationMinutes:  15,
		SessionsUntilLongBreak:    4,
		AutoStartBreaks:           false,
		AutoStartWork:             false,
		PlayNotificationSounds:    true,
		ShowDesktopNotifications:  true,
		DailyGoalSessions:         8,
		WeeklyGoalSessions:        40,
	}
}

// TimerConfig is the timer-only subset of UserSettings.
type TimerConfig struct {
	WorkDuration             int  `json:"workDuration"`
	ShortBreakDuration       int  `json:"shortBreakDuration"`
	LongBreakDuration        int  `json:"longBreakDuration"`
	SessionsUntilLongBreak   int  `json:"sessionsUntilLongBreak"`
	AutoStartBreaks          bool `json:"autoStartBreaks"`
	AutoStartWork            bool `json:"autoStartWork"`
	PlayNotificationSounds   bool `json:"playNotificationSounds"`
	ShowDesktopNotifications bool `json:"showDesktopNotifications"`
}

func (s UserSettings) TimerConfig() TimerConfig {
	return TimerConfig{
		WorkDuration:             s.WorkDurationMinutes,
		ShortBreakDuration:       s.ShortBreakDurationMinutes,
		LongBreakDuration:        s.LongBreakDurationMinutes,
		SessionsUntilLongBreak:   s.SessionsUntilLongBreak,
		AutoStartBreaks:          s.AutoStartBreaks,
		AutoStartWork:            s.AutoStartWork,
		PlayNotificationSounds:   s.PlayNotificationSounds,
		ShowDesktopNotifications: s.ShowDesktopNotifications,
	}
}

// TimerConfigPatch updates only the fields that are present.
type TimerConfigPatch struct {
	WorkDuration             *int  `json:"workDuration" binding:"omitempty,min=1,max=60"`
	ShortBreakDuration       *int  `json:"shortBreakDuration" binding:"omitempty,min=1,max=30"`
	LongBreakDuration        *int  `json:"longBreakDuration" binding:"omitempty,min=1,max=60"`
	SessionsUntilLongBreak   *int  `json:"sessionsUntilLongBreak" binding:"omitempty,min=2,max=10"`
	AutoStartBreaks          *bool `json:"autoStartBreaks"`
	AutoStartWork            *bool `json:"autoStartWork"`
	PlayNotificationSounds   *bool `json:"playNotificationSounds"`
	ShowDesktopNotifications *bool `json:"showDesktopNotifications"`
}

func (p TimerConfigPatch) Apply(s *UserSettings) {
	if p.WorkDuration != nil {
		s.WorkDurationMinutes = *p.WorkDuration
	}
	if p.ShortBreakDuration != nil {
		s.ShortBreakDurationMinutes = *p.ShortBreakDuration
	}
	if p.LongBreakDuration != nil {
		s.LongBreakDurationMinutes = *p.LongBreakDuration
	}
	if p.SessionsUntilLongBreak != nil {
		s.SessionsUntilLongBreak = *p.SessionsUntilLongBreak
	}
	if p.AutoStartBreaks != nil {
		s.AutoStartBreaks = *p.AutoStartBreaks
	}
	if p.AutoStartWork != nil {
		s.AutoStartWork = *p.AutoStartWork
	}
	if p.PlayNotificationSounds != nil {
		s.PlayNotificationSounds = *p.PlayNotificationSounds
	}
	if p.ShowDesktopNotifications != nil {
		s.ShowDesktopNotifications = *p.ShowDesktopNotifications
	}
}
