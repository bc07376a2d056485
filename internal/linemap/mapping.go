// Package linemap aligns old- and new-revision line numbers using the
// unchanged context lines of a file's diff as anchors.
package linemap

import (
	"sort"

	"deltalint/internal/domain"
)

// anchor is one context line with both line numbers known.
type anchor struct {
	oldLine int
	newLine int
}

// Mapping answers "where did old line N land in the new revision" for a
// single file. It is derived from one FileDiff and discarded after that
// file's correlation completes.
type Mapping struct {
	// anchors sorted by descending oldLine for nearest-preceding lookup.
	anchors []anchor
}

// New builds a Mapping from the Context entries of a FileDiff.
func New(fd domain.FileDiff) *Mapping {
	m := &Mapping{}
	for _, line := range fd.Lines {
		if line.Kind == domain.LineContext {
			m.anchors = append(m.anchors, anchor{oldLine: line.OldLine, newLine: line.NewLine})
		}
	}
	sort.Slice(m.anchors, func(i, j int) bool {
		return m.anchors[i].oldLine > m.anchors[j].oldLine
	})
	return m
}

// OffsetFor returns the line-number shift to apply to oldLine when
// translating it into the new revision.
//
// The nearest context anchor at or before oldLine determines the offset;
// this assumes no further insertions or deletions separate the anchor
// from the queried line, which holds for the closest preceding unchanged
// line. With no qualifying anchor the offset is 0.
func (m *Mapping) OffsetFor(oldLine int) int {
	idx := sort.Search(len(m.anchors), func(i int) bool {
		return m.anchors[i].oldLine <= oldLine
	})
	if idx == len(m.anchors) {
		return 0
	}
	a := m.anchors[idx]
	return a.newLine - a.oldLine
}

// AnchorCount reports how many context anchors back the mapping.
func (m *Mapping) AnchorCount() int {
	return len(m.anchors)
}
