// Package dircompare implements the on-demand shallow directory comparison
// used when the UI drills into a subdirectory rather than triggering a full
// two-root compare. It never recurses: subdirectories present on both sides
// are reported as "pending" for the dir-resolver to settle in the
// background. Grounded on the same classification shape as
// pkg/comparator, narrowed to one directory level and enriched with the
// pending state comparator.Compare has no notion of.
package dircompare

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dualpane/corefs/pkg/entrymodel"
)

// Result is the outcome of an on-demand directory comparison.
type Result struct {
	Entries   []entrymodel.CompareEntry
	LeftPath  string
	RightPath string
	Summary   entrymodel.CompareSummary
}

// Compare performs a shallow, single-level comparison of leftDir and
// rightDir. Both must be absolute, existing directories.
func Compare(leftDir, rightDir string) (*Result, error) {
	leftChildren, err := listChildren(leftDir)
	if err != nil {
		return nil, fmt.Errorf("unable to read left directory: %w", err)
	}
	rightChildren, err := listChildren(rightDir)
	if err != nil {
		return nil, fmt.Errorf("unable to read right directory: %w", err)
	}

	names := make(map[string]struct{}, len(leftChildren)+len(rightChildren))
	for name := range leftChildren {
		names[name] = struct{}{}
	}
	for name := range rightChildren {
		names[name] = struct{}{}
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	result := &Result{LeftPath: leftDir, RightPath: rightDir}
	for _, name := range sorted {
		leftMeta, hasLeft := leftChildren[name]
		rightMeta, hasRight := rightChildren[name]
		entry := classify(name, leftMeta, hasLeft, rightMeta, hasRight)
		result.Entries = append(result.Entries, entry)
		tally(&result.Summary, entry.Status)
	}
	return result, nil
}

// classify determines the CompareEntry for one child name.
func classify(name string, left entrymodel.EntryMeta, hasLeft bool, right entrymodel.EntryMeta, hasRight bool) entrymodel.CompareEntry {
	switch {
	case hasLeft && !hasRight:
		return entrymodel.CompareEntry{
			Name: name, Kind: left.Kind, Status: entrymodel.StatusOnlyLeft,
			LeftSize: sizePtr(left), LeftModified: left.ModifiedEpochMs,
		}
	case !hasLeft && hasRight:
		return entrymodel.CompareEntry{
			Name: name, Kind: right.Kind, Status: entrymodel.StatusOnlyRight,
			RightSize: sizePtr(right), RightModified: right.ModifiedEpochMs,
		}
	case left.Kind != right.Kind:
		return entrymodel.CompareEntry{
			Name: name, Kind: left.Kind, Status: entrymodel.StatusTypeMismatch,
			LeftSize: sizePtr(left), RightSize: sizePtr(right),
			LeftModified: left.ModifiedEpochMs, RightModified: right.ModifiedEpochMs,
		}
	case left.Kind == entrymodel.KindDir:
		return entrymodel.CompareEntry{Name: name, Kind: entrymodel.KindDir, Status: entrymodel.StatusPending}
	case left.Kind == entrymodel.KindSymlink:
		status := entrymodel.StatusModified
		if left.SymlinkTarget != nil && right.SymlinkTarget != nil && *left.SymlinkTarget == *right.SymlinkTarget {
			status = entrymodel.StatusSame
		}
		return entrymodel.CompareEntry{Name: name, Kind: entrymodel.KindSymlink, Status: status}
	default: // both files
		status := entrymodel.StatusSame
		if left.SizeBytes != right.SizeBytes {
			status = entrymodel.StatusModified
		}
		return entrymodel.CompareEntry{
			Name: name, Kind: entrymodel.KindFile, Status: status,
			LeftSize: sizePtr(left), RightSize: sizePtr(right),
			LeftModified: left.ModifiedEpochMs, RightModified: right.ModifiedEpochMs,
		}
	}
}

func sizePtr(m entrymodel.EntryMeta) *uint64 {
	size := m.SizeBytes
	return &size
}

func tally(summary *entrymodel.CompareSummary, status entrymodel.CompareStatus) {
	switch status {
	case entrymodel.StatusOnlyLeft:
		summary.OnlyLeft++
	case entrymodel.StatusOnlyRight:
		summary.OnlyRight++
	case entrymodel.StatusTypeMismatch:
		summary.TypeMismatch++
	case entrymodel.StatusSame:
		summary.Same++
	case entrymodel.StatusModified:
		summary.MetaDiff++
	// StatusPending is intentionally not tallied: "summary counts files
	// with definite status; pending subdirectories are not yet counted."
	}
}

// listChildren reads one directory level into a name-to-metadata map,
// mirroring scanner's classification of a single entry without recursing.
func listChildren(dir string) (map[string]entrymodel.EntryMeta, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	result := make(map[string]entrymodel.EntryMeta, len(entries))
	for _, entry := range entries {
		absPath := filepath.Join(dir, entry.Name())
		info, err := os.Lstat(absPath)
		if err != nil {
			continue
		}
		meta, err := metaFor(absPath, info)
		if err != nil {
			continue
		}
		result[entry.Name()] = meta
	}
	return result, nil
}

func metaFor(absPath string, info os.FileInfo) (entrymodel.EntryMeta, error) {
	modTime := info.ModTime().UnixMilli()
	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		target, err := os.Readlink(absPath)
		if err != nil {
			return entrymodel.EntryMeta{}, err
		}
		return entrymodel.EntryMeta{Kind: entrymodel.KindSymlink, ModifiedEpochMs: &modTime, SymlinkTarget: &target}, nil
	case mode.IsDir():
		return entrymodel.EntryMeta{Kind: entrymodel.KindDir, ModifiedEpochMs: &modTime}, nil
	default:
		return entrymodel.EntryMeta{Kind: entrymodel.KindFile, SizeBytes: uint64(info.Size()), ModifiedEpochMs: &modTime}, nil
	}
}
