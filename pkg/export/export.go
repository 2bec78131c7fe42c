// Package export implements the comparison-report serialization named in
// §4.10: a JSON document capturing the last full comparison's summary and
// diff list, plus an optional human-readable plain-text sibling. Both are
// written atomically via pkg/encoding's temp-file-then-rename idiom, so a
// crash mid-write never leaves a truncated report at the target path.
package export

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/dualpane/corefs/pkg/encoding"
	"github.com/dualpane/corefs/pkg/entrymodel"
)

// Document is the JSON shape written by Write, matching §4.10 verbatim.
// GeneratedAt is supplied by the caller at call time (the facade verb
// handler stamps it once) rather than computed in this package, so the
// package itself never calls time.Now and stays deterministically testable.
type Document struct {
	GeneratedAt string                    `json:"generatedAtIso8601"`
	LeftRoot    string                    `json:"leftRoot"`
	RightRoot   string                    `json:"rightRoot"`
	Mode        entrymodel.CompareMode    `json:"mode"`
	Summary     entrymodel.CompareSummary `json:"summary"`
	Items       []entrymodel.DiffItem     `json:"items"`
}

// Write marshals doc as indented JSON and atomically saves it to path.
// Items are expected to already be in lexicographic rel_path order (the
// comparator's own output order); this package does not re-sort them.
func Write(path string, doc Document) error {
	return encoding.MarshalAndSaveJSON(path, doc)
}

// Load reads back a previously written Document, used by the round-trip
// test and by any host tooling that wants to re-inspect a saved report.
func Load(path string) (*Document, error) {
	doc := &Document{}
	if err := encoding.LoadAndUnmarshalJSON(path, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// WriteSummaryText renders a short human-readable counts-only sibling
// report alongside the JSON document. This is an additive feature beyond
// the distilled spec: a plain-text companion for contexts (e.g. copying
// counts to a clipboard) where the full JSON is more detail than needed.
func WriteSummaryText(path string, doc Document) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Comparison report generated %s\n", doc.GeneratedAt)
	fmt.Fprintf(&b, "Left:  %s\n", doc.LeftRoot)
	fmt.Fprintf(&b, "Right: %s\n", doc.RightRoot)
	fmt.Fprintf(&b, "Mode:  %s\n\n", doc.Mode)
	fmt.Fprintf(&b, "Only left:      %d\n", doc.Summary.OnlyLeft)
	fmt.Fprintf(&b, "Only right:     %d\n", doc.Summary.OnlyRight)
	fmt.Fprintf(&b, "Type mismatch:  %d\n", doc.Summary.TypeMismatch)
	fmt.Fprintf(&b, "Same:           %d\n", doc.Summary.Same)
	fmt.Fprintf(&b, "Meta diff:      %d\n", doc.Summary.MetaDiff)
	fmt.Fprintf(&b, "Errors:         %d\n\n", doc.Summary.Errors)

	var totalMetaDiffBytes uint64
	for _, item := range doc.Items {
		if item.Kind == entrymodel.DiffMetaDiff && item.Left != nil {
			totalMetaDiffBytes += item.Left.SizeBytes
		}
	}
	fmt.Fprintf(&b, "Left-side size of changed files: %s\n", humanize.Bytes(totalMetaDiffBytes))

	return encoding.MarshalAndSave(path, func() ([]byte, error) {
		return []byte(b.String()), nil
	})
}
