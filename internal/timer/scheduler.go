package timer

import (
	"sync"
	"time"
)

// TickerScheduler runs jobs on a time.Ticker in their own goroutine.
type TickerScheduler struct{}

func (TickerScheduler) Every(d time.Duration, fn func()) func() {
	ticker := time.NewTicker(d)
	stopChan := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-stopChan:
				return
			}
		}
	}()

	return func() {
		once.Do(func() { close(stopChan) })
	}
}
