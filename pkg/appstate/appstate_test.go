package appstate

import (
	"testing"

	"github.com/dualpane/corefs/pkg/config"
	"github.com/dualpane/corefs/pkg/entrymodel"
)

func TestSetScanCancelsPrevious(t *testing.T) {
	s := New(config.Default())
	defer s.Close()

	var firstCancelled bool
	s.SetScan(&ScanHandle{ID: "scan_1", Cancel: func() { firstCancelled = true }})
	s.SetScan(&ScanHandle{ID: "scan_2", Cancel: func() {}})

	if !firstCancelled {
		t.Fatalf("starting a new scan did not cancel the previous one")
	}
	if s.Scan().ID != "scan_2" {
		t.Fatalf("Scan().ID = %q, want scan_2", s.Scan().ID)
	}
}

func TestSetResolverCancelsPrevious(t *testing.T) {
	s := New(config.Default())
	defer s.Close()

	var cancelled bool
	s.SetResolver(&ResolverHandle{ID: "rslv_1", LeftDir: "/a", RightDir: "/b", Cancel: func() { cancelled = true }})
	s.SetResolver(&ResolverHandle{ID: "rslv_2", LeftDir: "/c", RightDir: "/d", Cancel: func() {}})

	if !cancelled {
		t.Fatalf("starting a new resolver run did not cancel the previous one")
	}
	if s.Resolver().LeftDir != "/c" {
		t.Fatalf("Resolver().LeftDir = %q, want /c", s.Resolver().LeftDir)
	}
}

func TestDiffsRoundTrip(t *testing.T) {
	s := New(config.Default())
	defer s.Close()

	if s.Diffs() != nil {
		t.Fatalf("Diffs() before any compare should be nil")
	}
	result := &DiffsResult{
		Items:   []entrymodel.DiffItem{{RelPath: "f", Kind: entrymodel.DiffSame}},
		Summary: entrymodel.CompareSummary{Same: 1},
	}
	s.SetDiffs(result)
	if s.Diffs() != result {
		t.Fatalf("Diffs() did not return the stored result")
	}
}

func TestBlobCopiesOnSetAndGet(t *testing.T) {
	s := New(config.Default())
	defer s.Close()

	original := []byte("hello")
	s.SetBlob(original)
	original[0] = 'H' // mutate caller's slice after handing it off

	got := s.Blob()
	if string(got) != "hello" {
		t.Fatalf("Blob() = %q, want %q (should not alias caller's slice)", got, "hello")
	}

	got[0] = 'x' // mutate the returned slice
	if string(s.Blob()) != "hello" {
		t.Fatalf("Blob() mutated via previously returned slice")
	}
}

func TestPTYIsLazyAndShared(t *testing.T) {
	s := New(config.Default())
	defer s.Close()

	first := s.PTY()
	second := s.PTY()
	if first != second {
		t.Fatalf("PTY() returned different supervisors across calls")
	}
}
