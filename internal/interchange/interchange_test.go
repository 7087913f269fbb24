package interchange

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"honquedoro/internal/localstore"
)

var now = time.Date(2026, time.October, 14, 18, 0, 0, 0, time.UTC)

func seededStore(t *testing.T) *localstore.Store {
	t.Helper()
	store := localstore.New(t.TempDir(), zerolog.Nop())
	if _, err := store.AddTask(localstore.NewTask{Title: "Write report", EstimatedPomodoros: 4, Priority: localstore.PriorityHigh}, now); err != nil {
		t.Fatalf("add task: %v", err)
	}
	if _, err := store.AddTask(localstore.NewTask{Title: "Review PR"}, now.Add(time.Minute)); err != nil {
		t.Fatalf("add task: %v", err)
	}
	if err := store.AddSession(localstore.SessionRecord{Date: now.Add(-2 * time.Hour), Type: localstore.RecordWork, Duration: 25}); err != nil {
		t.Fatalf("add session: %v", err)
	}
	if err := store.AddSession(localstore.SessionRecord{Date: now.Add(-90 * time.Minute), Type: localstore.RecordBreak, Duration: 5}); err != nil {
		t.Fatalf("add session: %v", err)
	}
	settings := localstore.DefaultAppSettings()
	settings.DailyGoal = 6
	if err := store.SaveSettings(settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	return store
}

func TestExportImportRoundTrip(t *testing.T) {
	for _, name := range []string{"backup.json", "backup.yaml", "backup.yml"} {
		t.Run(name, func(t *testing.T) {
			source := seededStore(t)
			path := filepath.Join(t.TempDir(), name)

			exported, err := Export(source, path, now)
			if err != nil {
				t.Fatalf("export: %v", err)
			}
			if exported.Version != Version || exported.Settings == nil {
				t.Fatalf("unexpected export document %+v", exported)
			}

			target := localstore.New(t.TempDir(), zerolog.Nop())
			if _, err := Import(target, path); err != nil {
				t.Fatalf("import: %v", err)
			}

			wantTasks, gotTasks := source.Tasks(), target.Tasks()
			if len(gotTasks) != len(wantTasks) {
				t.Fatalf("expected %d tasks, got %d", len(wantTasks), len(gotTasks))
			}
			for i := range wantTasks {
				want, got := wantTasks[i], gotTasks[i]
				if got.ID != want.ID || got.Title != want.Title ||
					got.EstimatedPomodoros != want.EstimatedPomodoros || got.Priority != want.Priority {
					t.Fatalf("task %d mismatch: want %+v, got %+v", i, want, got)
				}
			}

			wantSessions, gotSessions := source.Sessions(), target.Sessions()
			if len(gotSessions) != len(wantSessions) {
				t.Fatalf("expected %d sessions, got %d", len(wantSessions), len(gotSessions))
			}
			for i := range wantSessions {
				want, got := wantSessions[i], gotSessions[i]
				if !got.Date.Equal(want.Date) || got.Type != want.Type || got.Duration != want.Duration {
					t.Fatalf("session %d mismatch: want %+v, got %+v", i, want, got)
				}
			}

			settings, ok := target.Settings()
			if !ok || settings.DailyGoal != 6 {
				t.Fatalf("expected imported settings, got %+v", settings)
			}
		})
	}
}

func TestImportValidatesBeforeWriting(t *testing.T) {
	target := seededStore(t)
	before := target.Tasks()

	doc := `{
  "version": "1.0",
  "exportedAt": "2026-10-14T18:00:00Z",
  "tasks": [
    {"id": "a", "title": "ok", "estimatedPomodoros": 2, "priority": "low"},
    {"id": "b", "title": "too big", "estimatedPomodoros": 21, "priority": "low"},
    {"id": "a", "title": "dup", "estimatedPomodoros": 1, "priority": "urgent"}
  ],
  "sessions": [
    {"date": "2026-10-14T09:00:00Z", "type": "Nap", "duration": 25}
  ]
}`
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}

	_, err := Import(target, path)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(validationErr.Problems) != 3 {
		t.Fatalf("expected 3 problems, got %v", validationErr.Problems)
	}
	if !strings.Contains(validationErr.Error(), "sessions[0]") {
		t.Fatalf("expected session problem to be reported, got %v", validationErr)
	}

	after := target.Tasks()
	if len(after) != len(before) || after[0].ID != before[0].ID {
		t.Fatal("expected store to be untouched after a failed import")
	}
}

func TestImportRejectsMalformedAndUnknownFormats(t *testing.T) {
	store := localstore.New(t.TempDir(), zerolog.Nop())
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("tasks: [unterminated"), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	var validationErr *ValidationError
	if _, err := Import(store, bad); !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for malformed yaml, got %v", err)
	}

	if _, err := Export(store, filepath.Join(dir, "backup.csv"), now); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}

	noVersion := filepath.Join(dir, "old.json")
	if err := os.WriteFile(noVersion, []byte(`{"version":"2.0","tasks":[],"sessions":[]}`), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	if _, err := Import(store, noVersion); !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for unsupported version, got %v", err)
	}
}
