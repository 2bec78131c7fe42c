package state

import (
	"sync"
)

// Tracker provides index-based state change notification using a condition
// variable: NotifyOfChange bumps a monotonically increasing index and wakes
// anyone blocked waiting on it. Adapted from mutagen's pkg/state.Tracker,
// which layers a channel-based poll-request bridge on top of this same
// condition variable so a remote long-poll verb can wait for a specific
// previous index without busy-waiting. This module has no such verb — state
// changes reach a caller over the facade's async event channel instead (see
// pkg/facade) — so only the notify/terminate half that pkg/state.TrackingLock
// actually drives is kept; the rest would be unexercised carryover.
type Tracker struct {
	// change is the condition variable used to signal state changes and
	// termination.
	change *sync.Cond
	// index is the current state index.
	//
	// NOTE: In theory, we should track and handle overflow on this index, but
	// given that an update period of 1 nanosecond would only cause an
	// overflow after about 584 years, the possibility isn't hugely
	// concerning. We do perform a minimal amount of overflow handling below,
	// just to maintain the meaning of 0 as a sentinel "no previous index"
	// value in the unlikely event of one.
	index uint64
	// terminated indicates whether or not tracking has been terminated.
	terminated bool
}

// NewTracker creates a new tracker instance with a state index of 1.
func NewTracker() *Tracker {
	return &Tracker{change: sync.NewCond(&sync.Mutex{}), index: 1}
}

// NotifyOfChange increments the state index and wakes any waiter.
func (t *Tracker) NotifyOfChange() {
	t.change.L.Lock()
	defer t.change.L.Unlock()

	t.index++
	if t.index == 0 {
		t.index = 1
	}

	t.change.Broadcast()
}

// Terminate marks the tracker as terminated and wakes any waiter. It is
// idempotent.
func (t *Tracker) Terminate() {
	t.change.L.Lock()
	defer t.change.L.Unlock()

	t.terminated = true

	t.change.Broadcast()
}

// Index returns the current state index and whether tracking has been
// terminated.
func (t *Tracker) Index() (uint64, bool) {
	t.change.L.Lock()
	defer t.change.L.Unlock()
	return t.index, t.terminated
}
