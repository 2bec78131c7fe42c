package facade

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dualpane/corefs/pkg/appstate"
	"github.com/dualpane/corefs/pkg/config"
	"github.com/dualpane/corefs/pkg/entrymodel"
)

func mustWriteFile(t *testing.T, path string, contents []byte) {
	t.Helper()
	if err := os.WriteFile(path, contents, 0644); err != nil {
		t.Fatal(err)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.Mkdir(path, 0700); err != nil {
		t.Fatal(err)
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st := appstate.New(config.Default())
	t.Cleanup(st.Close)
	return NewServer(st, nil)
}

func drainEvents(s *Server, timeout time.Duration) []Event {
	var events []Event
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-s.Events():
			events = append(events, ev)
		case <-deadline:
			return events
		}
	}
}

func waitForEvent(t *testing.T, s *Server, name EventName, timeout time.Duration) Event {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		select {
		case ev := <-s.Events():
			if ev.Name == name {
				return ev
			}
		case <-time.After(10 * time.Millisecond):
		}
	}
	t.Fatalf("timed out waiting for event %q", name)
	return Event{}
}

func TestInitBrowseListsHomeDirectory(t *testing.T) {
	s := newTestServer(t)
	resp, err := s.InitBrowse()
	if err != nil {
		t.Fatal(err)
	}
	if resp.Home == "" {
		t.Error("expected a non-empty home directory")
	}
}

func TestListDirectoryRejectsRelativePath(t *testing.T) {
	s := newTestServer(t)
	_, err := s.ListDirectory(ListDirectoryRequest{Path: "relative/path"})
	if !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("err = %v, want ErrInvalidPath", err)
	}
}

func TestListDirectoryReturnsChildren(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "a.txt"), []byte("x"))
	mustMkdir(t, filepath.Join(dir, "sub"))

	s := newTestServer(t)
	resp, err := s.ListDirectory(ListDirectoryRequest{Path: dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(resp.Entries), resp.Entries)
	}
}

func TestListDirectoryOnFileReturnsNotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	mustWriteFile(t, file, []byte("x"))

	s := newTestServer(t)
	_, err := s.ListDirectory(ListDirectoryRequest{Path: file})
	if !errors.Is(err, ErrNotADirectory) {
		t.Fatalf("err = %v, want ErrNotADirectory", err)
	}
}

func TestListDirectoryMissingPathReturnsNotFound(t *testing.T) {
	s := newTestServer(t)
	_, err := s.ListDirectory(ListDirectoryRequest{Path: filepath.Join(t.TempDir(), "missing")})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// TestStartCompareProducesDiffsAndEvents tests the full happy path: start a
// compare between two roots, observe a compare-done event, then retrieve
// the diffs through GetDiffs.
func TestStartCompareProducesDiffsAndEvents(t *testing.T) {
	left, right := t.TempDir(), t.TempDir()
	mustWriteFile(t, filepath.Join(left, "same.txt"), []byte("hello"))
	mustWriteFile(t, filepath.Join(right, "same.txt"), []byte("hello"))
	mustWriteFile(t, filepath.Join(left, "only-left.txt"), []byte("x"))

	s := newTestServer(t)
	if err := s.StartCompare(StartCompareRequest{LeftRoot: left, RightRoot: right}); err != nil {
		t.Fatal(err)
	}

	ev := waitForEvent(t, s, EventCompareDone, 5*time.Second)
	payload, ok := ev.Payload.(CompareDonePayload)
	if !ok {
		t.Fatalf("payload type = %T, want CompareDonePayload", ev.Payload)
	}
	if payload.Summary.OnlyLeft != 1 {
		t.Errorf("summary.OnlyLeft = %d, want 1", payload.Summary.OnlyLeft)
	}
	if payload.Summary.Same != 1 {
		t.Errorf("summary.Same = %d, want 1", payload.Summary.Same)
	}

	diffs, err := s.GetDiffs()
	if err != nil {
		t.Fatal(err)
	}
	if len(diffs.Items) != 2 {
		t.Fatalf("expected 2 diff items, got %d", len(diffs.Items))
	}
}

func TestStartCompareRejectsMissingRoots(t *testing.T) {
	s := newTestServer(t)
	err := s.StartCompare(StartCompareRequest{LeftRoot: "", RightRoot: "/tmp"})
	if !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("err = %v, want ErrInvalidPath", err)
	}
}

// TestCancelCompareSuppressesFurtherEvents exercises the compare-done half
// of invariant 8: after cancel_compare, no compare-done event is emitted
// for the cancelled run.
func TestCancelCompareSuppressesFurtherEvents(t *testing.T) {
	left, right := t.TempDir(), t.TempDir()
	for i := 0; i < 200; i++ {
		name := filepath.Join(left, "f"+string(rune('a'+i%26))+string(rune('0'+i/26))+".txt")
		mustWriteFile(t, name, []byte("x"))
	}

	s := newTestServer(t)
	if err := s.StartCompare(StartCompareRequest{LeftRoot: left, RightRoot: right}); err != nil {
		t.Fatal(err)
	}
	if err := s.CancelCompare(); err != nil {
		t.Fatal(err)
	}

	events := drainEvents(s, 200*time.Millisecond)
	for _, ev := range events {
		if ev.Name == EventCompareDone {
			t.Error("received compare-done after cancellation")
		}
	}
}

func TestCompareDirectoryStartsBackgroundResolve(t *testing.T) {
	left, right := t.TempDir(), t.TempDir()
	mustMkdir(t, filepath.Join(left, "sub"))
	mustMkdir(t, filepath.Join(right, "sub"))
	mustWriteFile(t, filepath.Join(left, "sub", "f.txt"), []byte("x"))
	mustWriteFile(t, filepath.Join(right, "sub", "f.txt"), []byte("x"))

	s := newTestServer(t)
	resp, err := s.CompareDirectory(CompareDirectoryRequest{LeftPath: left, RightPath: right})
	if err != nil {
		t.Fatal(err)
	}

	var foundPending bool
	for _, entry := range resp.Entries {
		if entry.Name == "sub" {
			foundPending = true
			if entry.Status != entrymodel.StatusPending {
				t.Errorf("sub status = %q, want pending", entry.Status)
			}
		}
	}
	if !foundPending {
		t.Fatal("expected a pending entry for sub")
	}

	ev := waitForEvent(t, s, EventDirStatusResolved, 5*time.Second)
	payload := ev.Payload.(DirStatusResolvedPayload)
	if payload.Name != "sub" || payload.Status != string(entrymodel.StatusSame) {
		t.Errorf("unexpected resolved payload: %+v", payload)
	}
}

func TestCopyEntryThenDuplicateFails(t *testing.T) {
	root := t.TempDir()
	srcDir := filepath.Join(root, "src")
	destDir := filepath.Join(root, "dest")
	mustMkdir(t, srcDir)
	mustMkdir(t, destDir)
	mustWriteFile(t, filepath.Join(srcDir, "f.txt"), []byte("hi"))

	s := newTestServer(t)
	req := CopyEntryRequest{SourcePath: filepath.Join(srcDir, "f.txt"), DestDir: destDir, DestRoot: root}
	if err := s.CopyEntry(req); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(destDir, "f.txt")); err != nil {
		t.Fatal("expected copy to land at destination:", err)
	}

	if err := s.CopyEntry(req); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second copy err = %v, want ErrAlreadyExists", err)
	}
}

func TestCopyEntryEscapingRootIsRejected(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	mustWriteFile(t, filepath.Join(outside, "f.txt"), []byte("x"))

	s := newTestServer(t)
	err := s.CopyEntry(CopyEntryRequest{SourcePath: filepath.Join(outside, "f.txt"), DestDir: filepath.Join(root, "..", "escape"), DestRoot: root})
	if !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("err = %v, want ErrInvalidPath", err)
	}
}

func TestCreateDirectoryAndDeleteEntry(t *testing.T) {
	root := t.TempDir()
	s := newTestServer(t)

	resp, err := s.CreateDirectory(CreateDirectoryRequest{ParentPath: root, Name: "newdir"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(resp.Path); err != nil {
		t.Fatal("expected directory to exist:", err)
	}

	if err := s.DeleteEntry(DeleteEntryRequest{TargetPath: resp.Path}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(resp.Path); !os.IsNotExist(err) {
		t.Error("expected directory to be gone after delete")
	}
}

func TestDeleteEntryMissingTargetReturnsNotFound(t *testing.T) {
	s := newTestServer(t)
	err := s.DeleteEntry(DeleteEntryRequest{TargetPath: filepath.Join(t.TempDir(), "missing")})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadAndSaveAppStateRoundTrip(t *testing.T) {
	s := newTestServer(t)

	loaded, err := s.LoadAppState()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.State != nil {
		t.Fatal("expected nil state before any save")
	}

	if err := s.SaveAppState(SaveAppStateRequest{State: []byte("blob")}); err != nil {
		t.Fatal(err)
	}
	loaded, err = s.LoadAppState()
	if err != nil {
		t.Fatal(err)
	}
	if string(loaded.State) != "blob" {
		t.Fatalf("State = %q, want %q", loaded.State, "blob")
	}
}

func TestExportReportRequiresPriorCompare(t *testing.T) {
	s := newTestServer(t)
	err := s.ExportReport(ExportReportRequest{Path: filepath.Join(t.TempDir(), "report.json")})
	if !errors.Is(err, ErrInternalError) {
		t.Fatalf("err = %v, want ErrInternalError", err)
	}
}

func TestExportReportWritesAfterCompare(t *testing.T) {
	left, right := t.TempDir(), t.TempDir()
	mustWriteFile(t, filepath.Join(left, "a.txt"), []byte("x"))
	mustWriteFile(t, filepath.Join(right, "a.txt"), []byte("x"))

	s := newTestServer(t)
	if err := s.StartCompare(StartCompareRequest{LeftRoot: left, RightRoot: right}); err != nil {
		t.Fatal(err)
	}
	waitForEvent(t, s, EventCompareDone, 5*time.Second)

	reportPath := filepath.Join(t.TempDir(), "report.json")
	if err := s.ExportReport(ExportReportRequest{Path: reportPath, IncludeSummary: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(reportPath); err != nil {
		t.Error("expected JSON report to exist:", err)
	}
	summaryPath := reportPath[:len(reportPath)-len(filepath.Ext(reportPath))] + ".txt"
	if _, err := os.Stat(summaryPath); err != nil {
		t.Error("expected plain-text summary sibling to exist:", err)
	}
}

func TestParseSideRejectsUnknownValue(t *testing.T) {
	_, err := parseSide("up")
	if err == nil {
		t.Fatal("expected an error for an invalid side")
	}
}
