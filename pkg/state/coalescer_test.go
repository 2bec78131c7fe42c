package state

import (
	"testing"
	"time"
)

// TestCoalescerCombinesBurst tests that a rapid burst of Strobe calls
// produces a single event, matching the scanner's progress-callback
// rate-limiting requirement.
func TestCoalescerCombinesBurst(t *testing.T) {
	coalescer := NewCoalescer(50 * time.Millisecond)
	defer coalescer.Terminate()

	for i := 0; i < 20; i++ {
		coalescer.Strobe()
	}

	select {
	case <-coalescer.Events():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for coalesced event")
	}

	select {
	case <-coalescer.Events():
		t.Fatal("received a second event for a single burst")
	case <-time.After(150 * time.Millisecond):
	}
}

// TestCoalescerTerminate tests that Terminate shuts down the run loop and
// is idempotent.
func TestCoalescerTerminate(t *testing.T) {
	coalescer := NewCoalescer(10 * time.Millisecond)
	coalescer.Terminate()
	coalescer.Terminate()
}
