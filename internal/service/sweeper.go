package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically completes Active sessions whose time has run out.
type Sweeper struct {
	sessions *SessionService
	interval time.Duration
	logger   zerolog.Logger
	stopChan chan struct{}
	doneChan chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

func NewSweeper(sessions *SessionService, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		sessions: sessions,
		interval: interval,
		logger:   logger.With().Str("component", "sweeper").Logger(),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start launches the sweep loop. Only the first call has an effect, and none
// after Stop.
func (sw *Sweeper) Start() {
	sw.startOnce.Do(func() {
		go sw.run()
		sw.logger.Info().Dur("interval", sw.interval).Msg("Session sweeper started")
	})
}

// Stop ends the loop and waits for an in-flight sweep to finish. It is safe to
// call more than once, and without Start.
func (sw *Sweeper) Stop() {
	sw.stopOnce.Do(func() {
		close(sw.stopChan)
		sw.startOnce.Do(func() { close(sw.doneChan) })
		<-sw.doneChan
		sw.logger.Info().Msg("Session sweeper stopped")
	})
}

func (sw *Sweeper) run() {
	defer close(sw.doneChan)
	for {
		select {
		case <-time.After(sw.interval):
			sw.Sweep(context.Background())
		case <-sw.stopChan:
			return
		}
	}
}

// Sweep runs one pass and returns the number of sessions completed.
func (sw *Sweeper) Sweep(ctx context.Context) int {
	completed, err := sw.sessions.CompleteExpired(ctx)
	if err != nil {
		sw.logger.Error().Err(err).Msg("Failed to complete expired sessions")
	}
	if completed > 0 {
		sw.logger.Info().Int("completed", completed).Msg("Completed expired sessions")
	}
	return completed
}
