// Package statebuffer keeps a sliding time window of vehicle states used to
// draw the driven path.
package statebuffer

import (
	"time"

	"github.com/banshee-data/drive-visualizer/internal/msgs"
)

// Entry is one buffered state and the timestamp (seconds) it was filed under.
type Entry struct {
	State     msgs.VehicleState
	Timestamp float64
}

// Buffer holds states whose timestamps lie within Window of the newest one.
// It is not safe for concurrent use.
type Buffer struct {
	window  float64
	entries []Entry
}

// New returns an empty buffer with the given retention window.
func New(window time.Duration) *Buffer {
	return &Buffer{window: window.Seconds()}
}

// Window returns the retention window.
func (b *Buffer) Window() time.Duration {
	return time.Duration(b.window * float64(time.Second))
}

// Add appends s, keyed by s.Time, and evicts entries that fall outside the
// window. A timestamp older than the newest entry means the source restarted
// (for example a replay looped), so the buffer starts over.
func (b *Buffer) Add(s msgs.VehicleState) {
	if n := len(b.entries); n > 0 && s.Time < b.entries[n-1].Timestamp {
		b.entries = b.entries[:0]
	}
	b.entries = append(b.entries, Entry{State: s, Timestamp: s.Time})
	b.prune(s.Time)
}

func (b *Buffer) prune(latest float64) {
	cutoff := latest - b.window
	drop := 0
	for drop < len(b.entries) && b.entries[drop].Timestamp < cutoff {
		drop++
	}
	if drop == 0 {
		return
	}
	b.entries = append(b.entries[:0], b.entries[drop:]...)
}

// Len returns the number of buffered states.
func (b *Buffer) Len() int {
	return len(b.entries)
}

// Latest returns the newest entry.
func (b *Buffer) Latest() (Entry, bool) {
	if len(b.entries) == 0 {
		return Entry{}, false
	}
	return b.entries[len(b.entries)-1], true
}

// Entries returns a copy of the buffered entries, oldest first.
func (b *Buffer) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// States returns the buffered states, oldest first.
func (b *Buffer) States() []msgs.VehicleState {
	out := make([]msgs.VehicleState, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.State
	}
	return out
}
