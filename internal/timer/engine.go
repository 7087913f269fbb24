package timer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"honquedoro/internal/clock"
)

type Options struct {
	// Store is optional. Without one the engine runs local-only.
	Store     Store
	Recorder  Recorder
	Notifier  Notifier
	Scheduler Scheduler
	Clock     clock.Clock
	Logger    zerolog.Logger
}

// Engine is the Pomodoro state machine. All methods are safe for concurrent
// use. The mutex is never held across a store call.
type Engine struct {
	cfg       Config
	store     Store
	recorder  Recorder
	notifier  Notifier
	scheduler Scheduler
	clock     clock.Clock
	logger    zerolog.Logger

	mu            sync.Mutex
	mode          Mode
	status        Status
	current       int
	boundID       int64
	bound         bool
	serverSync    bool
	completedWork int
	longBreaks    int
	estimatedEnd  *time.Time

	// remoteRunning is set while the bound session is counting down on the
	// store. starting marks a create in flight for startEpoch.
	remoteRunning bool
	starting      bool
	startEpoch    uint64

	// epoch invalidates in-flight store responses across reset, completion,
	// mode changes and stale detection.
	epoch    uint64
	tickGen  uint64
	stopTick func()
	stopPoll func()
	closed   bool
}

// finished carries the work a completion still has to do outside the lock.
type finished struct {
	completion Completion
	boundID    int64
	bound      bool
	autoStart  bool
}

func New(cfg Config, opts Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TickerScheduler{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}

	return &Engine{
		cfg:        cfg,
		store:      opts.Store,
		recorder:   opts.Recorder,
		notifier:   opts.Notifier,
		scheduler:  opts.Scheduler,
		clock:      opts.Clock,
		logger:     opts.Logger.With().Str("component", "timer").Logger(),
		mode:       ModeWork,
		current:    cfg.FullSeconds(ModeWork),
		serverSync: opts.Store != nil,
	}, nil
}

// Open starts the reconciliation poll.
func (e *Engine) Open() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.stopPoll != nil {
		return
	}
	e.stopPoll = e.scheduler.Every(e.cfg.PollInterval, func() {
		e.poll(context.Background())
	})
}

// Close stops the tick and poll loops. The engine ignores every later call.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTickLocked()
	if e.stopPoll != nil {
		e.stopPoll()
		e.stopPoll = nil
	}
	e.closed = true
	e.epoch++
}

func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := State{
		Mode:                  e.mode,
		Status:                e.status,
		CurrentTime:           e.current,
		ServerSync:            e.serverSync,
		CompletedWorkSessions: e.completedWork,
		LongBreaksTaken:       e.longBreaks,
	}
	if e.bound {
		id := e.boundID
		state.BoundSessionID = &id
	}
	if e.estimatedEnd != nil {
		end := *e.estimatedEnd
		state.EstimatedEndTime = &end
	}
	return state
}

func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// SetConfig applies new durations and cadence. An idle countdown moves to the
// new full duration and a paused one is clamped to it.
func (e *Engine) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status == StatusRunning {
		return ErrRunning
	}
	pollChanged := cfg.PollInterval != e.cfg.PollInterval
	e.cfg = cfg

	full := cfg.FullSeconds(e.mode)
	switch e.status {
	case StatusIdle:
		e.current = full
	case StatusPaused:
		e.current = clamp(e.current, 0, full)
	}

	if pollChanged && e.stopPoll != nil {
		e.stopPoll()
		e.stopPoll = e.scheduler.Every(cfg.PollInterval, func() {
			e.poll(context.Background())
		})
	}
	return nil
}

// Start runs the countdown. The tick loop starts before the store is asked to
// create or resume the session; store failures leave the engine running
// locally.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.closed || e.status == StatusRunning {
		e.mu.Unlock()
		return
	}
	e.status = StatusRunning
	e.startTickLocked()
	e.refreshEstimateLocked()

	epoch := e.epoch
	mode := e.mode
	minutes := e.cfg.Minutes(mode)
	boundID, bound := e.boundID, e.bound
	switch {
	case e.store == nil:
		e.mu.Unlock()
		return
	case !bound && e.starting && e.startEpoch == epoch:
		// The create already in flight binds and matches the status it finds.
		e.mu.Unlock()
		return
	case bound && e.remoteRunning:
		// The store never saw a pause, so there is nothing to resume.
		e.serverSync = true
		e.mu.Unlock()
		return
	case !bound:
		e.starting, e.startEpoch = true, epoch
	}
	e.mu.Unlock()

	if !bound {
		e.startRemote(ctx, epoch, mode, minutes)
		return
	}
	e.resumeRemote(ctx, epoch, boundID)
}

func (e *Engine) startRemote(ctx context.Context, epoch uint64, mode Mode, minutes int) {
	remote, err := e.store.StartSession(ctx, mode, minutes)

	e.mu.Lock()
	if e.startEpoch == epoch {
		e.starting = false
	}
	if e.epoch != epoch {
		e.mu.Unlock()
		if err == nil {
			e.logger.Debug().Int64("session_id", remote.ID).Msg("Cancelling session created during reset")
			e.cancelRemote(ctx, remote.ID)
		}
		return
	}
	if err != nil {
		e.unbindLocked()
		e.storeFailedLocked(err, "start")
		e.mu.Unlock()
		return
	}
	e.boundID, e.bound = remote.ID, true
	e.remoteRunning = true
	e.serverSync = true
	paused := e.status == StatusPaused
	e.mu.Unlock()

	e.logger.Debug().Int64("session_id", remote.ID).Str("mode", string(mode)).Msg("Bound to new session")
	if paused {
		e.logger.Debug().Int64("session_id", remote.ID).Msg("Pausing session created while paused")
		e.pauseRemote(ctx, epoch, remote.ID)
	}
}

func (e *Engine) resumeRemote(ctx context.Context, epoch uint64, boundID int64) {
	remote, err := e.store.ResumeSession(ctx, boundID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch || !e.bound || e.boundID != boundID {
		return
	}
	if err != nil {
		e.unbindLocked()
		e.storeFailedLocked(err, "resume")
		return
	}
	e.remoteRunning = true
	e.serverSync = true
	if e.status == StatusRunning {
		e.current = clamp(remote.RemainingSeconds, 0, e.cfg.FullSeconds(e.mode))
		e.refreshEstimateLocked()
	}
}

// Pause stops the countdown. It is a no-op unless running.
func (e *Engine) Pause(ctx context.Context) {
	e.mu.Lock()
	if e.closed || e.status != StatusRunning {
		e.mu.Unlock()
		return
	}
	e.stopTickLocked()
	e.status = StatusPaused
	e.estimatedEnd = nil

	epoch := e.epoch
	boundID, bound := e.boundID, e.bound
	e.mu.Unlock()

	if e.store == nil || !bound {
		return
	}
	e.pauseRemote(ctx, epoch, boundID)
}

// pauseRemote pauses the bound session and adopts the store's remaining time
// while the engine is still paused. A rejection unbinds; an unreachable store
// keeps the binding.
func (e *Engine) pauseRemote(ctx context.Context, epoch uint64, boundID int64) {
	remote, err := e.store.PauseSession(ctx, boundID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch || !e.bound || e.boundID != boundID {
		return
	}
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			e.unbindLocked()
		}
		e.storeFailedLocked(err, "pause")
		return
	}
	e.remoteRunning = false
	e.serverSync = true
	if e.status == StatusPaused {
		e.current = clamp(remote.RemainingSeconds, 0, e.cfg.FullSeconds(e.mode))
	}
}

// Reset returns to the current mode at full duration and cancels the bound
// session best-effort.
func (e *Engine) Reset(ctx context.Context) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.stopTickLocked()
	e.epoch++
	e.status = StatusIdle
	e.current = e.cfg.FullSeconds(e.mode)
	e.estimatedEnd = nil
	boundID, bound := e.boundID, e.bound
	e.unbindLocked()
	e.mu.Unlock()

	if bound {
		e.cancelRemote(ctx, boundID)
	}
}

// Skip ends the current interval immediately, exactly as if it expired.
func (e *Engine) Skip(ctx context.Context) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	f := e.finishLocked(true)
	e.mu.Unlock()

	e.afterFinish(ctx, f)
}

// ChangeMode switches to mode at its full duration. It fails with
// ErrRunning while the countdown runs.
func (e *Engine) ChangeMode(ctx context.Context, mode Mode) error {
	if !mode.Valid() {
		_, err := ParseMode(string(mode))
		return err
	}

	e.mu.Lock()
	if e.status == StatusRunning {
		e.mu.Unlock()
		return ErrRunning
	}
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.epoch++
	e.mode = mode
	e.status = StatusIdle
	e.current = e.cfg.FullSeconds(mode)
	e.estimatedEnd = nil
	boundID, bound := e.boundID, e.bound
	e.unbindLocked()
	e.mu.Unlock()

	if bound {
		e.cancelRemote(ctx, boundID)
	}
	return nil
}

func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	if gen != e.tickGen || e.status != StatusRunning {
		e.mu.Unlock()
		return
	}
	e.current--
	if e.current > 0 {
		e.refreshEstimateLocked()
		e.mu.Unlock()
		return
	}
	e.current = 0
	f := e.finishLocked(false)
	e.mu.Unlock()

	e.afterFinish(context.Background(), f)
}

// finishLocked applies the transition rule for the interval that just ended.
func (e *Engine) finishLocked(skipped bool) finished {
	e.stopTickLocked()
	e.epoch++

	ended := e.mode
	elapsed := e.cfg.FullSeconds(ended) - e.current
	switch ended {
	case ModeWork:
		e.completedWork++
	case ModeLongBreak:
		e.longBreaks++
	}
	next := e.cfg.NextMode(ended, e.completedWork)

	f := finished{
		completion: Completion{
			Mode:           ended,
			ElapsedSeconds: clamp(elapsed, 0, e.cfg.FullSeconds(ended)),
			Next:           next,
			Skipped:        skipped,
			At:             e.clock.Now(),
		},
		boundID: e.boundID,
		bound:   e.bound,
	}
	if next.IsBreak() {
		f.autoStart = e.cfg.AutoStartBreaks
	} else {
		f.autoStart = e.cfg.AutoStartWork
	}

	e.unbindLocked()
	e.mode = next
	e.status = StatusIdle
	e.current = e.cfg.FullSeconds(next)
	e.estimatedEnd = nil
	return f
}

func (e *Engine) afterFinish(ctx context.Context, f finished) {
	if f.bound && e.store != nil {
		err := e.store.CompleteSession(ctx, f.boundID)
		e.mu.Lock()
		if err != nil {
			e.storeFailedLocked(err, "complete")
		} else {
			e.serverSync = true
		}
		e.mu.Unlock()
	}

	e.logger.Info().
		Str("mode", string(f.completion.Mode)).
		Str("next", string(f.completion.Next)).
		Int("elapsed_seconds", f.completion.ElapsedSeconds).
		Bool("skipped", f.completion.Skipped).
		Msg("Interval finished")

	if e.recorder != nil {
		e.recorder.Record(f.completion)
	}
	if e.notifier != nil {
		e.notifier.Notify(f.completion)
	}
	if f.autoStart {
		e.Start(ctx)
	}
}

// poll reconciles a stopped, bound engine with the store's active session.
func (e *Engine) poll(ctx context.Context) {
	e.mu.Lock()
	if e.closed || e.status == StatusRunning || !e.bound || e.store == nil {
		e.mu.Unlock()
		return
	}
	epoch := e.epoch
	boundID := e.boundID
	e.mu.Unlock()

	remote, err := e.store.ActiveSession(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch || e.status == StatusRunning || !e.bound || e.boundID != boundID {
		return
	}
	if err != nil {
		e.serverSync = false
		e.logger.Debug().Err(err).Msg("Poll failed")
		return
	}
	e.serverSync = true

	if remote == nil || remote.ID != boundID {
		e.logger.Info().Int64("session_id", boundID).Msg("Bound session is stale, resetting")
		e.epoch++
		e.unbindLocked()
		e.mode = ModeWork
		e.status = StatusIdle
		e.current = e.cfg.FullSeconds(ModeWork)
		e.estimatedEnd = nil
		return
	}

	if remote.Mode.Valid() {
		e.mode = remote.Mode
	}
	full := e.cfg.FullSeconds(e.mode)
	e.current = clamp(remote.RemainingSeconds, 0, full)
	e.remoteRunning = !remote.Paused
	if remote.Paused || e.current < full {
		e.status = StatusPaused
	} else {
		e.status = StatusIdle
	}
}

func (e *Engine) cancelRemote(ctx context.Context, id int64) {
	if e.store == nil {
		return
	}
	err := e.store.CancelSession(ctx, id)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.storeFailedLocked(err, "cancel")
		return
	}
	e.serverSync = true
}

func (e *Engine) startTickLocked() {
	e.stopTickLocked()
	e.tickGen++
	gen := e.tickGen
	e.stopTick = e.scheduler.Every(e.cfg.TickInterval, func() {
		e.tick(gen)
	})
}

func (e *Engine) stopTickLocked() {
	if e.stopTick != nil {
		e.stopTick()
		e.stopTick = nil
	}
	e.tickGen++
}

func (e *Engine) unbindLocked() {
	e.boundID = 0
	e.bound = false
	e.remoteRunning = false
}

func (e *Engine) refreshEstimateLocked() {
	end := e.clock.Now().Add(time.Duration(e.current) * time.Second)
	e.estimatedEnd = &end
}

// storeFailedLocked marks the engine out of sync after any failed store call.
func (e *Engine) storeFailedLocked(err error, op string) {
	e.serverSync = false
	if errors.Is(err, ErrUnavailable) {
		e.logger.Warn().Err(err).Str("op", op).Msg("Store unreachable, continuing locally")
		return
	}
	e.logger.Warn().Err(err).Str("op", op).Msg("Store rejected transition, continuing locally")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
