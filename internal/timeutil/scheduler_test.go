package timeutil

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTickerScheduler_Every(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	s := NewScheduler(clock)

	calls := make(chan struct{}, 10)
	stop := s.Every(100*time.Millisecond, func() { calls <- struct{}{} })
	defer stop()

	for i := 0; i < 3; i++ {
		clock.Advance(100 * time.Millisecond)
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatalf("callback %d not invoked", i)
		}
	}
}

func TestTickerScheduler_StopIsIdempotent(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	s := NewScheduler(clock)

	var n atomic.Int32
	stop := s.Every(time.Millisecond, func() { n.Add(1) })
	stop()
	stop()

	clock.Advance(time.Second)
	time.Sleep(10 * time.Millisecond)
	if n.Load() != 0 {
		t.Errorf("callback ran %d times after stop", n.Load())
	}
}

func TestNewScheduler_DefaultsToRealClock(t *testing.T) {
	s := NewScheduler(nil)
	if _, ok := s.clock.(RealClock); !ok {
		t.Errorf("expected RealClock, got %T", s.clock)
	}
}
