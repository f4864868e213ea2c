// Package rewrite collects byte-range replacements for one source file and
// applies them in a single pass.
package rewrite

import (
	"fmt"
	"sort"
)

// Edit replaces Source[Start:End] with Text.
type Edit struct {
	Start int
	End   int
	Text  string
}

// OverlapError reports a replacement whose range intersects an accepted one.
type OverlapError struct {
	Existing Edit
	Incoming Edit
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("edit [%d,%d) overlaps edit [%d,%d)",
		e.Incoming.Start, e.Incoming.End, e.Existing.Start, e.Existing.End)
}

// Accumulator holds the accepted, pairwise disjoint edits of one file.
type Accumulator struct {
	edits []Edit
}

// Replace records an edit. It fails without recording anything when the
// range is invalid or overlaps an earlier edit.
func (a *Accumulator) Replace(start, end int, text string) error {
	if start < 0 || end < start {
		return fmt.Errorf("invalid edit range [%d,%d)", start, end)
	}
	incoming := Edit{Start: start, End: end, Text: text}
	for _, e := range a.edits {
		if start < e.End && e.Start < end {
			return &OverlapError{Existing: e, Incoming: incoming}
		}
		// two insertions at the same point would have no defined order
		if start == end && e.Start == e.End && start == e.Start {
			return &OverlapError{Existing: e, Incoming: incoming}
		}
	}
	a.edits = append(a.edits, incoming)
	return nil
}

// Len returns the number of recorded edits.
func (a *Accumulator) Len() int {
	return len(a.edits)
}

// Edits returns the recorded edits in source order.
func (a *Accumulator) Edits() []Edit {
	out := append([]Edit(nil), a.edits...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}

// Apply returns src with every edit applied. Bytes outside edited ranges are
// copied unchanged. An accumulator with no edits returns a copy of src.
func (a *Accumulator) Apply(src []byte) ([]byte, error) {
	edits := a.Edits()
	out := make([]byte, 0, len(src))
	last := 0
	for _, e := range edits {
		if e.End > len(src) {
			return nil, fmt.Errorf("edit [%d,%d) exceeds source length %d", e.Start, e.End, len(src))
		}
		out = append(out, src[last:e.Start]...)
		out = append(out, e.Text...)
		last = e.End
	}
	out = append(out, src[last:]...)
	return out, nil
}
