// Package comparator implements the full two-root comparison: given two
// scanner.Result maps and a CompareMode, it produces a deterministic,
// lexicographically ordered diff list plus summary tallies. Grounded on
// mutagen's pkg/synchronization/core diff.go, whose recursive differ struct
// this package's flat-map classify loop replaces (mutagen diffs structured
// Entry trees; this module's scanner already produces a flat map, so there's
// no tree to recurse over — the classification rules are adapted from
// diff.go's same idea of walking two sides in lockstep).
package comparator

import (
	"sort"

	"github.com/dualpane/corefs/pkg/entrymodel"
)

// Compare classifies the union of keys present in left and right according
// to mode and returns a lexicographically sorted diff list plus summary
// tallies. scanErrors maps a relative path (from either side) to a
// previously recorded scan error, which is surfaced here as a DiffError
// item rather than a structural classification.
func Compare(
	left, right map[string]entrymodel.EntryMeta,
	scanErrors map[string]string,
	mode entrymodel.CompareMode,
) ([]entrymodel.DiffItem, entrymodel.CompareSummary) {
	keys := make(map[string]struct{}, len(left)+len(right))
	for k := range left {
		keys[k] = struct{}{}
	}
	for k := range right {
		keys[k] = struct{}{}
	}
	for k := range scanErrors {
		keys[k] = struct{}{}
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	items := make([]entrymodel.DiffItem, 0, len(sorted))
	summary := entrymodel.CompareSummary{
		TotalLeft:  uint64(len(left)),
		TotalRight: uint64(len(right)),
	}

	for _, relPath := range sorted {
		item := classify(relPath, left, right, scanErrors, mode)
		items = append(items, item)
		tally(&summary, item.Kind)
	}

	return items, summary
}

// classify determines the DiffItem for a single relative path.
func classify(
	relPath string,
	left, right map[string]entrymodel.EntryMeta,
	scanErrors map[string]string,
	mode entrymodel.CompareMode,
) entrymodel.DiffItem {
	if message, ok := scanErrors[relPath]; ok {
		msg := message
		return entrymodel.DiffItem{RelPath: relPath, Kind: entrymodel.DiffError, ErrorMessage: &msg}
	}

	leftMeta, hasLeft := left[relPath]
	rightMeta, hasRight := right[relPath]

	switch {
	case hasLeft && !hasRight:
		return entrymodel.DiffItem{RelPath: relPath, Kind: entrymodel.DiffOnlyLeft, Left: &leftMeta}
	case !hasLeft && hasRight:
		return entrymodel.DiffItem{RelPath: relPath, Kind: entrymodel.DiffOnlyRight, Right: &rightMeta}
	case leftMeta.Kind != rightMeta.Kind:
		return entrymodel.DiffItem{RelPath: relPath, Kind: entrymodel.DiffTypeMismatch, Left: &leftMeta, Right: &rightMeta}
	case leftMeta.Kind == entrymodel.KindDir:
		// Directories never carry metaDiff: presence and matching kind is
		// sufficient.
		return entrymodel.DiffItem{RelPath: relPath, Kind: entrymodel.DiffSame, Left: &leftMeta, Right: &rightMeta}
	case mode == entrymodel.ModeSmart && metaDiffers(leftMeta, rightMeta):
		return entrymodel.DiffItem{RelPath: relPath, Kind: entrymodel.DiffMetaDiff, Left: &leftMeta, Right: &rightMeta}
	default:
		return entrymodel.DiffItem{RelPath: relPath, Kind: entrymodel.DiffSame, Left: &leftMeta, Right: &rightMeta}
	}
}

// metaDiffers compares size and modification time for regular files, and
// link target for symlinks. Both entries are assumed to share the same
// kind; callers check that before calling metaDiffers.
func metaDiffers(left, right entrymodel.EntryMeta) bool {
	if left.Kind == entrymodel.KindSymlink {
		leftTarget, rightTarget := "", ""
		if left.SymlinkTarget != nil {
			leftTarget = *left.SymlinkTarget
		}
		if right.SymlinkTarget != nil {
			rightTarget = *right.SymlinkTarget
		}
		return leftTarget != rightTarget
	}
	if left.SizeBytes != right.SizeBytes {
		return true
	}
	return modTimeDiffers(left.ModifiedEpochMs, right.ModifiedEpochMs)
}

func modTimeDiffers(left, right *int64) bool {
	if (left == nil) != (right == nil) {
		return true
	}
	if left == nil {
		return false
	}
	return *left != *right
}

func tally(summary *entrymodel.CompareSummary, kind entrymodel.DiffKind) {
	switch kind {
	case entrymodel.DiffOnlyLeft:
		summary.OnlyLeft++
	case entrymodel.DiffOnlyRight:
		summary.OnlyRight++
	case entrymodel.DiffTypeMismatch:
		summary.TypeMismatch++
	case entrymodel.DiffSame:
		summary.Same++
	case entrymodel.DiffMetaDiff:
		summary.MetaDiff++
	case entrymodel.DiffError:
		summary.Errors++
	}
}

// Swap reverses a diff list as though left and right had been compared in
// the opposite order: onlyLeft/onlyRight flip, all other classifications
// and their metadata sides swap accordingly. Used to satisfy invariant 3
// (swap symmetry) and exposed for testing/tooling; the comparator itself
// never needs to call it in normal operation.
func Swap(items []entrymodel.DiffItem) []entrymodel.DiffItem {
	swapped := make([]entrymodel.DiffItem, len(items))
	for i, item := range items {
		s := entrymodel.DiffItem{RelPath: item.RelPath, Left: item.Right, Right: item.Left, ErrorMessage: item.ErrorMessage}
		switch item.Kind {
		case entrymodel.DiffOnlyLeft:
			s.Kind = entrymodel.DiffOnlyRight
		case entrymodel.DiffOnlyRight:
			s.Kind = entrymodel.DiffOnlyLeft
		default:
			s.Kind = item.Kind
		}
		swapped[i] = s
	}
	return swapped
}
