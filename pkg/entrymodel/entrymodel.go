// Package entrymodel defines the shared vocabulary of file kinds, entry
// metadata, diff classifications, and summary tallies used by every other
// component in this module — scanner produces EntryMeta values, comparator
// and dircompare consume them to classify DiffItem/CompareEntry values, and
// export serializes the result. Keeping these types in one leaf package
// (rather than duplicating shape-compatible structs per producer) is the
// idiomatic-Go analogue of mutagen's pkg/synchronization/core entry
// vocabulary, adapted here as plain structs instead of protobuf messages
// since this module has no wire-protocol boundary of its own.
package entrymodel

import "fmt"

// EntryKind classifies what a filesystem entry is. Symlinks are never
// dereferenced; their target text is captured separately.
type EntryKind string

const (
	KindFile    EntryKind = "file"
	KindDir     EntryKind = "dir"
	KindSymlink EntryKind = "symlink"
)

// EntryMeta describes a single filesystem entry as observed by the scanner
// or the directory comparator.
type EntryMeta struct {
	Kind EntryKind `json:"kind"`
	// SizeBytes is the entry's size. Always 0 for directories.
	SizeBytes uint64 `json:"sizeBytes"`
	// ModifiedEpochMs is the modification time in milliseconds since the
	// Unix epoch, or nil when the filesystem doesn't expose one.
	ModifiedEpochMs *int64 `json:"modifiedEpochMs"`
	// SymlinkTarget holds the raw link text. Non-nil iff Kind == KindSymlink.
	SymlinkTarget *string `json:"symlinkTarget"`
}

// Validate checks the EntryMeta invariant that SymlinkTarget is set iff
// Kind is KindSymlink.
func (m EntryMeta) Validate() error {
	if (m.Kind == KindSymlink) != (m.SymlinkTarget != nil) {
		return fmt.Errorf("entrymodel: symlink target presence (%v) inconsistent with kind %q", m.SymlinkTarget != nil, m.Kind)
	}
	return nil
}

// BrowseEntry is one direct child of a directory as returned by a shallow
// listing. Sorting is a UI concern, not performed here.
type BrowseEntry struct {
	Name     string    `json:"name"`
	Kind     EntryKind `json:"kind"`
	Size     uint64    `json:"size"`
	Modified *int64    `json:"modified"`
}

// DiffKind classifies one relative path's status in a full two-root
// comparison.
type DiffKind string

const (
	DiffOnlyLeft     DiffKind = "onlyLeft"
	DiffOnlyRight    DiffKind = "onlyRight"
	DiffTypeMismatch DiffKind = "typeMismatch"
	DiffSame         DiffKind = "same"
	DiffMetaDiff     DiffKind = "metaDiff"
	DiffError        DiffKind = "error"
)

// DiffItem is one entry in a full comparison's result list.
type DiffItem struct {
	RelPath      string     `json:"relPath"`
	Kind         DiffKind   `json:"diffKind"`
	Left         *EntryMeta `json:"left"`
	Right        *EntryMeta `json:"right"`
	ErrorMessage *string    `json:"errorMessage"`
}

// Validate checks the DiffItem invariants defined in the data model: side
// presence must match the diff kind, and error kinds must carry a message.
func (d DiffItem) Validate() error {
	switch d.Kind {
	case DiffOnlyLeft:
		if d.Left == nil || d.Right != nil {
			return fmt.Errorf("entrymodel: onlyLeft requires left present and right absent (%s)", d.RelPath)
		}
	case DiffOnlyRight:
		if d.Left != nil || d.Right == nil {
			return fmt.Errorf("entrymodel: onlyRight requires right present and left absent (%s)", d.RelPath)
		}
	case DiffSame, DiffMetaDiff, DiffTypeMismatch:
		if d.Left == nil || d.Right == nil {
			return fmt.Errorf("entrymodel: %s requires both sides present (%s)", d.Kind, d.RelPath)
		}
		if d.Kind == DiffTypeMismatch && d.Left.Kind == d.Right.Kind {
			return fmt.Errorf("entrymodel: typeMismatch requires differing kinds (%s)", d.RelPath)
		}
		if d.Kind != DiffTypeMismatch && d.Left.Kind != d.Right.Kind {
			return fmt.Errorf("entrymodel: %s requires matching kinds (%s)", d.Kind, d.RelPath)
		}
	case DiffError:
		if d.ErrorMessage == nil {
			return fmt.Errorf("entrymodel: error diff requires a message (%s)", d.RelPath)
		}
	default:
		return fmt.Errorf("entrymodel: unknown diff kind %q", d.Kind)
	}
	return nil
}

// CompareMode selects how deeply a comparison inspects file content
// metadata.
type CompareMode string

const (
	// ModeStructure compares presence and kind only.
	ModeStructure CompareMode = "structure"
	// ModeSmart additionally compares size and modification time for
	// regular files.
	ModeSmart CompareMode = "smart"
)

// CompareSummary tallies a full comparison's results by category.
type CompareSummary struct {
	TotalLeft    uint64 `json:"totalLeft"`
	TotalRight   uint64 `json:"totalRight"`
	OnlyLeft     uint64 `json:"onlyLeft"`
	OnlyRight    uint64 `json:"onlyRight"`
	TypeMismatch uint64 `json:"typeMismatch"`
	Same         uint64 `json:"same"`
	MetaDiff     uint64 `json:"metaDiff"`
	Errors       uint64 `json:"errors"`
}

// CompareStatus classifies one entry in an on-demand (shallow) directory
// comparison.
type CompareStatus string

const (
	StatusSame         CompareStatus = "same"
	StatusModified     CompareStatus = "modified"
	StatusOnlyLeft     CompareStatus = "onlyLeft"
	StatusOnlyRight    CompareStatus = "onlyRight"
	StatusTypeMismatch CompareStatus = "typeMismatch"
	// StatusPending applies only to subdirectories awaiting deep
	// resolution by the dir-resolver.
	StatusPending CompareStatus = "pending"
)

// DirInfo is populated on a CompareEntry only after deep resolution of a
// pending subdirectory.
type DirInfo struct {
	TotalSize uint64 `json:"totalSize"`
}

// CompareEntry is one direct child in an on-demand directory comparison.
type CompareEntry struct {
	Name          string        `json:"name"`
	Kind          EntryKind     `json:"kind"`
	Status        CompareStatus `json:"status"`
	LeftSize      *uint64       `json:"leftSize"`
	RightSize     *uint64       `json:"rightSize"`
	LeftModified  *int64        `json:"leftModified"`
	RightModified *int64        `json:"rightModified"`
	DirInfo       *DirInfo      `json:"dirInfo"`
}

// ResolvedDirStatus is the event payload the dir-resolver emits once a
// pending subdirectory's deep-equal verdict is known. LeftPath/RightPath act
// as the staleness stamp: a caller compares them against the comparison
// currently shown to decide whether to accept the event.
type ResolvedDirStatus struct {
	Name      string        `json:"name"`
	Status    CompareStatus `json:"status"`
	LeftPath  string        `json:"leftPath"`
	RightPath string        `json:"rightPath"`
	TotalSize uint64        `json:"totalSize"`
}
