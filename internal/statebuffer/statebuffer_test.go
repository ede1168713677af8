package statebuffer

import (
	"testing"
	"time"

	"github.com/banshee-data/drive-visualizer/internal/msgs"
)

func TestBuffer_PrunesOutsideWindow(t *testing.T) {
	b := New(10 * time.Second)

	for _, ts := range []float64{0, 4, 8, 12, 16, 25} {
		b.Add(msgs.VehicleState{Time: ts, X: ts})
	}

	entries := b.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries within window, got %d: %+v", len(entries), entries)
	}
	latest := entries[len(entries)-1].Timestamp
	for _, e := range entries {
		if latest-e.Timestamp > 10 {
			t.Errorf("entry at %v is outside the window of %v", e.Timestamp, latest)
		}
	}
	if entries[0].Timestamp != 16 || entries[1].Timestamp != 25 {
		t.Errorf("unexpected order: %+v", entries)
	}
}

func TestBuffer_KeepsBoundary(t *testing.T) {
	b := New(10 * time.Second)
	b.Add(msgs.VehicleState{Time: 0})
	b.Add(msgs.VehicleState{Time: 10})

	if b.Len() != 2 {
		t.Errorf("entry exactly at the window edge should be kept, got len=%d", b.Len())
	}
}

func TestBuffer_SpacedBeyondWindow(t *testing.T) {
	b := New(10 * time.Second)
	for i := 0; i < 5; i++ {
		b.Add(msgs.VehicleState{Time: float64(i) * 11})
	}
	if b.Len() != 1 {
		t.Errorf("expected only the latest entry, got %d", b.Len())
	}
	e, ok := b.Latest()
	if !ok || e.Timestamp != 44 {
		t.Errorf("Latest() = %+v, %v", e, ok)
	}
}

func TestBuffer_ResetsOnTimeJump(t *testing.T) {
	b := New(10 * time.Second)
	b.Add(msgs.VehicleState{Time: 100})
	b.Add(msgs.VehicleState{Time: 101})
	b.Add(msgs.VehicleState{Time: 3})

	states := b.States()
	if len(states) != 1 || states[0].Time != 3 {
		t.Errorf("expected buffer to restart at t=3, got %+v", states)
	}
}

func TestBuffer_Empty(t *testing.T) {
	b := New(time.Second)
	if _, ok := b.Latest(); ok {
		t.Error("Latest() on empty buffer should report false")
	}
	if b.Window() != time.Second {
		t.Errorf("Window() = %v", b.Window())
	}
	if len(b.Entries()) != 0 {
		t.Error("expected no entries")
	}
}
