package state

import (
	"testing"
)

// TestTrackingLockNotifiesOnUnlock tests that Unlock advances the tracker's
// index but UnlockWithoutNotify doesn't.
func TestTrackingLockNotifiesOnUnlock(t *testing.T) {
	tracker := NewTracker()
	lock := NewTrackingLock(tracker)

	lock.Lock()
	lock.Unlock()

	if index, _ := tracker.Index(); index != 2 {
		t.Fatalf("expected Unlock to advance index to 2, got %d", index)
	}

	lock.Lock()
	lock.UnlockWithoutNotify()

	if index, _ := tracker.Index(); index != 2 {
		t.Fatalf("UnlockWithoutNotify unexpectedly advanced tracked state to %d", index)
	}
}
