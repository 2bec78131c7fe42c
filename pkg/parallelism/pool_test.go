package parallelism

import (
	"errors"
	"sync/atomic"
	"testing"
)

// TestPoolProcessesAllWork tests that every submitted unit of work is
// processed exactly once.
func TestPoolProcessesAllWork(t *testing.T) {
	const total = 500
	var processed atomic.Int64

	pool := NewPool[int](4, func(_ int, w int) error {
		processed.Add(1)
		return nil
	})
	for i := 0; i < total; i++ {
		pool.Submit(i)
	}
	pool.Close()
	if err := pool.Wait(); err != nil {
		t.Fatal("unexpected error:", err)
	}
	if got := processed.Load(); got != total {
		t.Error("processed count mismatch:", got, "!=", total)
	}
}

// TestPoolAggregatesErrors tests that errors from failing work units are
// collected and returned from Wait.
func TestPoolAggregatesErrors(t *testing.T) {
	failing := errors.New("boom")
	pool := NewPool[int](2, func(_ int, w int) error {
		if w%2 == 0 {
			return failing
		}
		return nil
	})
	for i := 0; i < 10; i++ {
		pool.Submit(i)
	}
	pool.Close()
	if err := pool.Wait(); err == nil || !errors.Is(err, failing) {
		t.Error("expected aggregated error to wrap the failing sentinel, got:", err)
	}
}

// TestPoolDefaultSize tests that a non-positive worker count doesn't panic
// and still processes work.
func TestPoolDefaultSize(t *testing.T) {
	pool := NewPool[int](0, func(_ int, w int) error { return nil })
	pool.Submit(1)
	pool.Close()
	if err := pool.Wait(); err != nil {
		t.Fatal(err)
	}
}

// TestPoolSubmitAfterClosePanics tests that submitting after Close panics.
func TestPoolSubmitAfterClosePanics(t *testing.T) {
	pool := NewPool[int](1, func(_ int, w int) error { return nil })
	pool.Close()
	defer func() {
		if recover() == nil {
			t.Error("expected panic when submitting to a closed pool")
		}
	}()
	pool.Submit(1)
}
