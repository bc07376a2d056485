package domain

import "sort"

// LineKind classifies a single physical line within a file's diff.
type LineKind int

const (
	// LineContext is an unchanged line present in both revisions.
	LineContext LineKind = iota
	// LineAdded exists only in the new revision.
	LineAdded
	// LineRemoved exists only in the old revision.
	LineRemoved
)

// DiffLine is one change record inside a FileDiff. OldLine is valid for
// Context and Removed lines; NewLine is valid for Context and Added lines.
// An invalid side is zero.
type DiffLine struct {
	Kind    LineKind
	OldLine int
	NewLine int
}

// FileDiff captures the change for a single file, lines in diff order.
type FileDiff struct {
	Path      string
	IsNewFile bool
	Lines     []DiffLine
}

// LinesAdded counts the Added records in the diff.
func (fd FileDiff) LinesAdded() int {
	return fd.countKind(LineAdded)
}

// LinesRemoved counts the Removed records in the diff.
func (fd FileDiff) LinesRemoved() int {
	return fd.countKind(LineRemoved)
}

func (fd FileDiff) countKind(kind LineKind) int {
	n := 0
	for _, line := range fd.Lines {
		if line.Kind == kind {
			n++
		}
	}
	return n
}

// Level is the normalized severity of a lint finding.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelNote
)

// String returns the lowercase label used in rendered output.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	default:
		return "note"
	}
}

// Finding is a single diagnostic reported by the external lint tool.
type Finding struct {
	Level   Level
	Line    int
	Column  int
	Message string
	Source  string
}

// EquivalentTo reports whether two findings describe the same diagnostic
// for correlation purposes. Line is deliberately excluded: it is the
// quantity being remapped between revisions.
func (f Finding) EquivalentTo(other Finding) bool {
	return f.Level == other.Level &&
		f.Column == other.Column &&
		f.Message == other.Message &&
		f.Source == other.Source
}

// LintReport maps a line number to the findings reported on it, in tool
// emission order.
type LintReport map[int][]Finding

// Add appends a finding to its line, preserving emission order.
func (r LintReport) Add(f Finding) {
	r[f.Line] = append(r[f.Line], f)
}

// Len returns the total number of findings across all lines.
func (r LintReport) Len() int {
	n := 0
	for _, findings := range r {
		n += len(findings)
	}
	return n
}

// Clone returns a deep copy so the correlator can subtract findings
// without mutating the input report.
func (r LintReport) Clone() LintReport {
	clone := make(LintReport, len(r))
	for line, findings := range r {
		copied := make([]Finding, len(findings))
		copy(copied, findings)
		clone[line] = copied
	}
	return clone
}

// Lines returns the populated line numbers in ascending order.
func (r LintReport) Lines() []int {
	lines := make([]int, 0, len(r))
	for line := range r {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

// FileNote records a per-file collaborator failure that was absorbed by
// the fail-open fallback rather than failing the run.
type FileNote struct {
	Path     string
	Revision string
	Reason   string
}

// CorrelationResult is the externally visible output of a run: net-new
// findings per file, plus notes about degraded files.
type CorrelationResult struct {
	Files map[string]LintReport
	Notes []FileNote
}

// NewCorrelationResult returns an empty result ready for accumulation.
func NewCorrelationResult() CorrelationResult {
	return CorrelationResult{Files: make(map[string]LintReport)}
}

// TotalFindings counts net-new findings across all files.
func (cr CorrelationResult) TotalFindings() int {
	n := 0
	for _, report := range cr.Files {
		n += report.Len()
	}
	return n
}

// Paths returns the file paths with net-new findings in ascending order.
func (cr CorrelationResult) Paths() []string {
	paths := make([]string, 0, len(cr.Files))
	for path := range cr.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
