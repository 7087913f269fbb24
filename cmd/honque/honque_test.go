package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"honquedoro/internal/clock"
	"honquedoro/internal/localstore"
	"honquedoro/internal/timer"
)

type idleScheduler struct{}

func (idleScheduler) Every(time.Duration, func()) func() { return func() {} }

func TestFormatClockAndProgress(t *testing.T) {
	cases := map[int]string{0: "00:00", 59: "00:59", 1500: "25:00", 3599: "59:59", -3: "00:00"}
	for seconds, want := range cases {
		if got := formatClock(seconds); got != want {
			t.Errorf("formatClock(%d) = %q, want %q", seconds, got, want)
		}
	}

	if got := progressBar(1500, 1500, 10); got != strings.Repeat("░", 10) {
		t.Fatalf("expected empty bar at full time, got %q", got)
	}
	if got := progressBar(750, 1500, 10); got != strings.Repeat("█", 5)+strings.Repeat("░", 5) {
		t.Fatalf("expected half bar, got %q", got)
	}
	if got := progressBar(0, 1500, 10); got != strings.Repeat("█", 10) {
		t.Fatalf("expected full bar at zero, got %q", got)
	}
}

func TestCompletionMessage(t *testing.T) {
	msg := completionMessage(timer.Completion{Mode: timer.ModeWork, Next: timer.ModeLongBreak})
	if msg != "Work session complete! Time for a long break." {
		t.Fatalf("unexpected message %q", msg)
	}
	msg = completionMessage(timer.Completion{Mode: timer.ModeShortBreak, Next: timer.ModeWork, Skipped: true})
	if msg != "Break is over! Back to work. (skipped)" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestApplySetting(t *testing.T) {
	settings := localstore.DefaultAppSettings()
	if err := applySetting(&settings, "work", "50"); err != nil {
		t.Fatalf("apply work: %v", err)
	}
	if err := applySetting(&settings, "auto-start-breaks", "true"); err != nil {
		t.Fatalf("apply auto-start-breaks: %v", err)
	}
	if settings.WorkDuration != 50 || !settings.AutoStartBreaks {
		t.Fatalf("unexpected settings %+v", settings)
	}

	if err := applySetting(&settings, "volume", "3"); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
	if err := applySetting(&settings, "cadence", "four"); err == nil {
		t.Fatal("expected a non-numeric value to be rejected")
	}
	if err := applySetting(&settings, "sound", "loud"); err == nil {
		t.Fatal("expected a non-boolean value to be rejected")
	}
}

func TestTimerCommandsDriveEngine(t *testing.T) {
	local := localstore.New(t.TempDir(), zerolog.Nop())
	task, err := local.AddTask(localstore.NewTask{Title: "Write docs"}, time.Now())
	if err != nil {
		t.Fatalf("add task: %v", err)
	}

	engine, err := timer.New(timer.DefaultConfig(), timer.Options{
		Recorder:  localstore.NewTracker(local),
		Scheduler: idleScheduler{},
		Clock:     clock.NewFixed(time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)),
		Logger:    zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer engine.Close()
	ctx := context.Background()

	if _, err := handleTimerCommand(ctx, engine, local, "task "+task.ID[:6]); err != nil {
		t.Fatalf("set task: %v", err)
	}
	if currentTaskTitle(local) != "Write docs" {
		t.Fatalf("expected current task to be set, got %q", currentTaskTitle(local))
	}

	if _, err := handleTimerCommand(ctx, engine, local, "start"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !engine.Snapshot().IsRunning() {
		t.Fatal("expected engine to be running")
	}

	if _, err := handleTimerCommand(ctx, engine, local, "k"); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if state := engine.Snapshot(); state.Mode != timer.ModeShortBreak || state.Status != timer.StatusIdle {
		t.Fatalf("expected idle short break after skip, got %+v", state)
	}
	credited, err := local.FindTask(task.ID)
	if err != nil || credited.CompletedPomodoros != 1 {
		t.Fatalf("expected skipped work interval to credit the task, got %+v, %v", credited, err)
	}

	if _, err := handleTimerCommand(ctx, engine, local, "mode longBreak"); err != nil {
		t.Fatalf("mode: %v", err)
	}
	if state := engine.Snapshot(); state.Mode != timer.ModeLongBreak || state.CurrentTime != 900 {
		t.Fatalf("expected long break at 900s, got %+v", state)
	}

	if _, err := handleTimerCommand(ctx, engine, local, "mode nap"); err == nil {
		t.Fatal("expected unknown mode to be rejected")
	}
	if _, err := handleTimerCommand(ctx, engine, local, "dance"); err == nil {
		t.Fatal("expected unknown command to be rejected")
	}

	quit, err := handleTimerCommand(ctx, engine, local, "q")
	if err != nil || !quit {
		t.Fatalf("expected quit, got %v, %v", quit, err)
	}
}

func TestRenderStatusLineShowsSyncIndicator(t *testing.T) {
	cfg := timer.DefaultConfig()
	line := renderStatusLine(timer.State{Mode: timer.ModeWork, Status: timer.StatusPaused, CurrentTime: 1410}, cfg, "Write docs")
	for _, want := range []string{"WORK", "23:30", "paused", "local-only", "Write docs"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in status line %q", want, line)
		}
	}

	id := int64(7)
	line = renderStatusLine(timer.State{Mode: timer.ModeShortBreak, ServerSync: true, BoundSessionID: &id, CurrentTime: 300}, cfg, "")
	if !strings.Contains(line, "synced") || strings.Contains(line, "local-only") {
		t.Fatalf("expected synced indicator in %q", line)
	}

	line = renderStatusLine(timer.State{Mode: timer.ModeWork, Status: timer.StatusRunning, ServerSync: true, CurrentTime: 1500}, cfg, "")
	if !strings.Contains(line, "local-only") {
		t.Fatalf("expected an unbound engine to show local-only in %q", line)
	}
}
