package random

import "testing"

// TestNew tests that New returns data of the requested length.
func TestNew(t *testing.T) {
	const length = 32
	data, err := New(length)
	if err != nil {
		t.Fatal("unable to create random data:", err)
	}
	if len(data) != length {
		t.Error("random data did not have expected length:", len(data), "!=", length)
	}
}

// TestNewDistinct tests that consecutive calls don't return identical data
// (a trivially cheap sanity check, not a statistical randomness test).
func TestNewDistinct(t *testing.T) {
	a, err := New(32)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(32)
	if err != nil {
		t.Fatal(err)
	}
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("two consecutive random reads produced identical output")
	}
}
