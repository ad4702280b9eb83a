package replay

import (
	"iter"
	"time"
)

// Timeline yields each input with its time since the start of the game.
//
// Timestamps wrap every Epoch; a raw value smaller than the one before it
// starts a new epoch. The walk is recomputed from the start on every range.
func (l EventList) Timeline() iter.Seq2[Input, time.Duration] {
	return func(yield func(Input, time.Duration) bool) {
		var base time.Duration
		var prev Timestamp
		for _, ev := range l {
			if ev.Timestamp < prev {
				base += Epoch
			}
			prev = ev.Timestamp
			if !yield(ev.Input, base+ev.Timestamp.Duration()) {
				return
			}
		}
	}
}

// Elapsed returns the absolute time of the last event.
func (l EventList) Elapsed() time.Duration {
	var last time.Duration
	for _, at := range l.Timeline() {
		last = at
	}
	return last
}

// Moment is one entry of a materialized timeline.
type Moment struct {
	Input Input         `json:"input"`
	At    time.Duration `json:"at"`
}

// Moments collects the timeline into a slice.
func (l EventList) Moments() []Moment {
	out := make([]Moment, 0, len(l))
	for input, at := range l.Timeline() {
		out = append(out, Moment{Input: input, At: at})
	}
	return out
}
