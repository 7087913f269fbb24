package localstore

import (
	"errors"

	"honquedoro/internal/timer"
)

// Tracker records finished intervals in the local history and credits work
// intervals to the current task.
type Tracker struct {
	store *Store
}

func NewTracker(store *Store) *Tracker {
	return &Tracker{store: store}
}

func (t *Tracker) Record(c timer.Completion) {
	record := SessionRecord{
		Date:     c.At.UTC(),
		Type:     RecordBreak,
		Duration: (c.ElapsedSeconds + 30) / 60,
	}

	if c.Mode == timer.ModeWork {
		record.Type = RecordWork
		settings, _ := t.store.Settings()
		if settings.CurrentTaskID != "" {
			if _, err := t.store.IncrementPomodoros(settings.CurrentTaskID); err == nil {
				record.TaskID = settings.CurrentTaskID
			} else if errors.Is(err, ErrTaskNotFound) {
				t.store.logger.Warn().Str("task_id", settings.CurrentTaskID).Msg("Current task no longer exists")
			}
		}
	}

	// AddSession logs its own failures.
	_ = t.store.AddSession(record)
}
