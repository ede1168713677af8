package timeutil

import (
	"sync"
	"time"
)

// Scheduler runs a callback on a fixed wall-clock cadence, independent of
// how often inputs arrive.
type Scheduler interface {
	// Every calls fn once per period until the returned stop function is
	// called. Calls never overlap. stop blocks until any in-flight call has
	// returned and is safe to call more than once.
	Every(period time.Duration, fn func()) (stop func())
}

// TickerScheduler implements Scheduler on top of a Clock's tickers.
type TickerScheduler struct {
	clock Clock
}

// NewScheduler returns a scheduler driven by clock.
func NewScheduler(clock Clock) *TickerScheduler {
	if clock == nil {
		clock = RealClock{}
	}
	return &TickerScheduler{clock: clock}
}

// Every implements Scheduler.
func (s *TickerScheduler) Every(period time.Duration, fn func()) func() {
	ticker := s.clock.NewTicker(period)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case <-ticker.C():
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
			wg.Wait()
		})
	}
}
