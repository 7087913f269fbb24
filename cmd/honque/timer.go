package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"honquedoro/internal/localstore"
	"honquedoro/internal/timer"
)

var (
	timerMode      string
	timerAutoStart bool
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Run the Pomodoro timer in the foreground",
	Long: `timer runs the Pomodoro timer until you quit. Type a command and press enter:

  s, start       start or resume
  p, pause       pause
  r, reset       reset to a full work interval
  k, skip        finish the current interval now
  m, mode MODE   switch to work, shortBreak or longBreak
  t, task REF    set the current task
  q, quit        pause and exit`,
	RunE: runTimer,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session store's active session",
	RunE:  runStatus,
}

func init() {
	timerCmd.Flags().StringVarP(&timerMode, "mode", "m", string(timer.ModeWork), "Initial mode")
	timerCmd.Flags().BoolVarP(&timerAutoStart, "start", "s", false, "Start immediately")
	rootCmd.AddCommand(timerCmd, statusCmd)
}

// console serializes writes from the render loop and engine callbacks.
type console struct {
	mu  sync.Mutex
	out io.Writer
}

func (c *console) line(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\r\033[K%s\n", s)
}

func (c *console) redraw(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\r\033[K%s", s)
}

// bellNotifier prints the completion and rings the terminal bell.
type bellNotifier struct {
	console *console
	sound   bool
}

func (n bellNotifier) Notify(c timer.Completion) {
	msg := modeStyle(c.Mode).Render(completionMessage(c))
	if n.sound {
		msg += "\a"
	}
	n.console.line(msg)
}

func loadTimerSettings(ctx context.Context, e *env) localstore.AppSettings {
	settings, _ := e.local.Settings()
	if e.remote == nil {
		return settings
	}
	remote, err := e.remote.Settings(ctx)
	if err != nil {
		e.logger.Debug().Err(err).Msg("Using local settings")
		return settings
	}
	merged := settings.FromServer(*remote)
	if err := merged.Validate(); err != nil {
		e.logger.Warn().Err(err).Msg("Ignoring invalid server settings")
		return settings
	}
	if merged != settings {
		_ = e.local.SaveSettings(merged)
	}
	return merged
}

func newEngine(e *env, settings localstore.AppSettings, con *console) (*timer.Engine, timer.Config, error) {
	cfg := settings.TimerConfig(timer.DefaultConfig())
	cfg.PollInterval = e.cfg.Client.PollInterval

	opts := timer.Options{
		Recorder:  localstore.NewTracker(e.local),
		Notifier:  bellNotifier{console: con, sound: settings.SoundEnabled},
		Scheduler: timer.TickerScheduler{},
		Clock:     e.clock,
		Logger:    e.logger,
	}
	if e.remote != nil {
		opts.Store = e.remote
	}
	engine, err := timer.New(cfg, opts)
	if err != nil {
		return nil, cfg, err
	}
	return engine, cfg, nil
}

func runTimer(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	con := &console{out: cmd.OutOrStdout()}
	settings := loadTimerSettings(ctx, e)
	engine, cfg, err := newEngine(e, settings, con)
	if err != nil {
		return fmt.Errorf("invalid timer settings: %w", err)
	}
	engine.Open()
	defer engine.Close()

	if timerMode != string(timer.ModeWork) {
		mode, err := timer.ParseMode(timerMode)
		if err != nil {
			return err
		}
		if err := engine.ChangeMode(ctx, mode); err != nil {
			return err
		}
	}
	if timerAutoStart {
		engine.Start(ctx)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	render := time.NewTicker(time.Second)
	defer render.Stop()

	draw := func() {
		con.redraw(renderStatusLine(engine.Snapshot(), cfg, currentTaskTitle(e.local)))
	}
	draw()

	for {
		select {
		case <-sigChan:
			engine.Pause(ctx)
			con.line("")
			return nil
		case <-render.C:
			draw()
		case line, ok := <-lines:
			if !ok {
				engine.Pause(ctx)
				con.line("")
				return nil
			}
			quit, err := handleTimerCommand(ctx, engine, e.local, line)
			if err != nil {
				con.line(errorStyle.Render(err.Error()))
			}
			if quit {
				con.line("")
				return nil
			}
			draw()
		}
	}
}

func handleTimerCommand(ctx context.Context, engine *timer.Engine, local *localstore.Store, line string) (bool, error) {
	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(verb) {
	case "":
	case "s", "start":
		engine.Start(ctx)
	case "p", "pause":
		engine.Pause(ctx)
	case "r", "reset":
		engine.Reset(ctx)
	case "k", "skip":
		engine.Skip(ctx)
	case "m", "mode":
		mode, err := timer.ParseMode(arg)
		if err != nil {
			return false, err
		}
		return false, engine.ChangeMode(ctx, mode)
	case "t", "task":
		_, err := setCurrentTask(local, arg)
		return false, err
	case "q", "quit", "exit":
		engine.Pause(ctx)
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q", verb)
	}
	return false, nil
}

func currentTaskTitle(local *localstore.Store) string {
	settings, _ := local.Settings()
	if settings.CurrentTaskID == "" {
		return ""
	}
	task, err := local.FindTask(settings.CurrentTaskID)
	if err != nil {
		return ""
	}
	return task.Title
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if e.remote == nil {
		fmt.Fprintln(out, warningStyle.Render("○ local-only")+mutedStyle.Render(" (offline)"))
		return nil
	}

	active, err := e.remote.ActiveSession(cmd.Context())
	if err != nil {
		fmt.Fprintln(out, warningStyle.Render("○ local-only")+mutedStyle.Render(" ("+err.Error()+")"))
		return nil
	}
	if active == nil {
		fmt.Fprintln(out, successStyle.Render("● synced")+"  no active session")
		return nil
	}
	state := "running"
	if active.Paused {
		state = "paused"
	}
	fmt.Fprintf(out, "%s  %s %s %s  %s\n",
		successStyle.Render("● synced"),
		modeStyle(active.Mode).Render(modeLabels[active.Mode]),
		titleStyle.Render(formatClock(active.RemainingSeconds)),
		state,
		mutedStyle.Render(fmt.Sprintf("session %d", active.ID)))
	return nil
}
