package state

import (
	"sync"
)

// TrackingLock pairs a plain mutex with a Tracker so that releasing the lock
// can optionally bump the tracker's change index. appstate guards each of its
// fields (active scan handle, active resolver handle) with one of these
// instead of one global mutex, per §4.9's fine-grained-lock requirement.
type TrackingLock struct {
	// lock is the underlying mutex.
	lock sync.Mutex
	// tracker is the underlying tracker.
	tracker *Tracker
}

// NewTrackingLock creates a new tracking lock with the specified tracker.
func NewTrackingLock(tracker *Tracker) *TrackingLock {
	return &TrackingLock{
		tracker: tracker,
	}
}

// Lock locks the tracking lock.
func (l *TrackingLock) Lock() {
	l.lock.Lock()
}

// Unlock unlocks the tracking lock and triggers a state update notification.
// Callers use this for field mutations (SetScan, SetResolver, ...).
func (l *TrackingLock) Unlock() {
	l.lock.Unlock()
	l.tracker.NotifyOfChange()
}

// UnlockWithoutNotify unlocks the tracking lock without triggering a state
// update notification. Callers use this for plain reads (Scan, Resolver,
// ...), which don't change the tracked state.
func (l *TrackingLock) UnlockWithoutNotify() {
	l.lock.Unlock()
}
