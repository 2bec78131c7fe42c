package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dualpane/corefs/pkg/entrymodel"
)

func sampleDocument() Document {
	leftMeta := entrymodel.EntryMeta{Kind: entrymodel.KindFile, SizeBytes: 10}
	rightMeta := entrymodel.EntryMeta{Kind: entrymodel.KindFile, SizeBytes: 20}
	return Document{
		GeneratedAt: "2026-07-31T00:00:00Z",
		LeftRoot:    "/a",
		RightRoot:   "/b",
		Mode:        entrymodel.ModeSmart,
		Summary: entrymodel.CompareSummary{
			TotalLeft: 1, TotalRight: 1, MetaDiff: 1,
		},
		Items: []entrymodel.DiffItem{
			{RelPath: "f.txt", Kind: entrymodel.DiffMetaDiff, Left: &leftMeta, Right: &rightMeta},
		},
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	doc := sampleDocument()

	if err := Write(path, doc); err != nil {
		t.Fatalf("Write: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(&doc, loaded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	if err := Write(path, sampleDocument()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file after Write, found %d", len(entries))
	}
}

func TestWriteSummaryText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	if err := WriteSummaryText(path, sampleDocument()); err != nil {
		t.Fatalf("WriteSummaryText: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatalf("summary text file is empty")
	}
}
