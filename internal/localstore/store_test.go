package localstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"honquedoro/internal/timer"
)

var now = time.Date(2026, time.October, 14, 15, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir(), zerolog.Nop())
}

func TestMissingDataReadsAsEmpty(t *testing.T) {
	store := newTestStore(t)

	if tasks := store.Tasks(); len(tasks) != 0 {
		t.Fatalf("expected no tasks, got %d", len(tasks))
	}
	if sessions := store.Sessions(); len(sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(sessions))
	}
	settings, ok := store.Settings()
	if ok || settings != DefaultAppSettings() {
		t.Fatalf("expected defaults without saved settings, got %+v", settings)
	}
}

func TestCorruptedFileIsRemoved(t *testing.T) {
	store := newTestStore(t)
	path := filepath.Join(store.Dir(), KeyTasks+".json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupted file: %v", err)
	}

	if tasks := store.Tasks(); len(tasks) != 0 {
		t.Fatalf("expected corrupted tasks to read as empty, got %d", len(tasks))
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected corrupted file to be removed, stat err: %v", err)
	}
}

func TestTaskLifecycle(t *testing.T) {
	store := newTestStore(t)

	low, err := store.AddTask(NewTask{Title: "Inbox zero", Priority: PriorityLow}, now)
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	high, err := store.AddTask(NewTask{Title: "Write report", EstimatedPomodoros: 4, Priority: PriorityHigh}, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if _, err := store.AddTask(NewTask{Title: " "}, now); err == nil {
		t.Fatal("expected an empty title to be rejected")
	}

	if _, err := store.TogglePin(low.ID); err != nil {
		t.Fatalf("pin task: %v", err)
	}
	tasks := store.Tasks()
	SortTasks(tasks)
	if tasks[0].ID != low.ID || tasks[1].ID != high.ID {
		t.Fatalf("expected pinned task first, got %s then %s", tasks[0].Title, tasks[1].Title)
	}

	completed, err := store.CompleteTask(high.ID, now)
	if err != nil {
		t.Fatalf("complete task: %v", err)
	}
	if !completed.Completed || completed.CompletedAt == nil {
		t.Fatalf("expected completed task with timestamp, got %+v", completed)
	}

	found, err := store.FindTask(high.ID[:8])
	if err != nil || found.ID != high.ID {
		t.Fatalf("expected prefix lookup to find task, got %+v, %v", found, err)
	}

	if err := store.DeleteTask(low.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if err := store.DeleteTask(low.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}

	counts := CountTasks(store.Tasks())
	if counts.Total != 1 || counts.Completed != 1 || counts.Active != 0 {
		t.Fatalf("unexpected task counts %+v", counts)
	}
}

func TestSessionHistoryRehydratesDates(t *testing.T) {
	store := newTestStore(t)
	first := SessionRecord{Date: now.Add(-time.Hour), Type: RecordWork, Duration: 25}
	second := SessionRecord{Date: now, Type: RecordBreak, Duration: 5}

	if err := store.AddSession(first); err != nil {
		t.Fatalf("add session: %v", err)
	}
	if err := store.AddSession(second); err != nil {
		t.Fatalf("add session: %v", err)
	}

	reopened := New(store.Dir(), zerolog.Nop())
	sessions := reopened.Sessions()
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if !sessions[0].Date.Equal(second.Date) || sessions[0].Type != RecordBreak {
		t.Fatalf("expected newest session first, got %+v", sessions[0])
	}
	if !sessions[1].Date.Equal(first.Date) {
		t.Fatalf("expected date to survive a round trip, got %v", sessions[1].Date)
	}

	if err := reopened.ClearAll(); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	if reopened.Has(KeySessionHistory) {
		t.Fatal("expected history to be removed")
	}
}

func TestSettingsValidation(t *testing.T) {
	store := newTestStore(t)
	settings := DefaultAppSettings()
	settings.SessionsUntilLongBreak = 11
	if err := store.SaveSettings(settings); err == nil {
		t.Fatal("expected cadence 11 to be rejected")
	}

	settings = DefaultAppSettings()
	settings.WorkDuration = 45
	settings.DarkMode = true
	if err := store.SaveSettings(settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	loaded, ok := store.Settings()
	if !ok || loaded.WorkDuration != 45 || !loaded.DarkMode {
		t.Fatalf("unexpected loaded settings %+v", loaded)
	}

	cfg := loaded.TimerConfig(timer.DefaultConfig())
	if cfg.WorkMinutes != 45 || cfg.Cadence != 4 || cfg.TickInterval != time.Second {
		t.Fatalf("unexpected timer config %+v", cfg)
	}
}

func TestTrackerCreditsCurrentTask(t *testing.T) {
	store := newTestStore(t)
	task, err := store.AddTask(NewTask{Title: "Refactor", EstimatedPomodoros: 3}, now)
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	settings := DefaultAppSettings()
	settings.CurrentTaskID = task.ID
	if err := store.SaveSettings(settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	tracker := NewTracker(store)
	tracker.Record(timer.Completion{Mode: timer.ModeWork, ElapsedSeconds: 1500, Next: timer.ModeShortBreak, At: now})
	tracker.Record(timer.Completion{Mode: timer.ModeShortBreak, ElapsedSeconds: 290, Next: timer.ModeWork, At: now.Add(5 * time.Minute)})

	updated, err := store.FindTask(task.ID)
	if err != nil {
		t.Fatalf("find task: %v", err)
	}
	if updated.CompletedPomodoros != 1 {
		t.Fatalf("expected one credited pomodoro, got %d", updated.CompletedPomodoros)
	}

	sessions := store.Sessions()
	if len(sessions) != 2 {
		t.Fatalf("expected 2 records, got %d", len(sessions))
	}
	if sessions[1].Type != RecordWork || sessions[1].Duration != 25 || sessions[1].TaskID != task.ID {
		t.Fatalf("unexpected work record %+v", sessions[1])
	}
	if sessions[0].Type != RecordBreak || sessions[0].Duration != 5 || sessions[0].TaskID != "" {
		t.Fatalf("unexpected break record %+v", sessions[0])
	}
}

func TestSummarize(t *testing.T) {
	records := []SessionRecord{
		{Date: now, Type: RecordWork, Duration: 25},
		{Date: now.Add(-time.Hour), Type: RecordWork, Duration: 25},
		{Date: now.Add(-30 * time.Minute), Type: RecordBreak, Duration: 5},
		{Date: now.AddDate(0, 0, -1), Type: RecordWork, Duration: 50},
		{Date: now.AddDate(0, 0, -3), Type: RecordWork, Duration: 25},
		{Date: now.AddDate(0, -1, 0), Type: RecordWork, Duration: 25},
	}

	summary := Summarize(records, 8, now)
	if summary.TodaySessions != 2 || summary.TodayFocusMinutes != 50 {
		t.Fatalf("unexpected today totals %+v", summary)
	}
	// 2026-10-14 is a Wednesday: Monday the 12th, Tuesday and today count.
	if summary.WeekSessions != 3 || summary.WeekFocusMinutes != 100 {
		t.Fatalf("unexpected week totals %+v", summary)
	}
	if summary.MonthSessions != 4 || summary.TotalSessions != 5 {
		t.Fatalf("unexpected month/total %+v", summary)
	}
	if summary.CurrentStreak != 2 {
		t.Fatalf("expected a 2-day streak, got %d", summary.CurrentStreak)
	}
	if summary.DailyProgress != 25 {
		t.Fatalf("expected 25%% of daily goal, got %v", summary.DailyProgress)
	}
	if len(summary.Week) != 7 || summary.Week[2].Sessions != 2 {
		t.Fatalf("unexpected week buckets %+v", summary.Week)
	}
}
