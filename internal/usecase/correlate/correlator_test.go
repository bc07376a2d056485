package correlate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deltalint/internal/domain"
	"deltalint/internal/linemap"
	"deltalint/internal/usecase/correlate"
)

func warningAt(line, col int, message, source string) domain.Finding {
	return domain.Finding{
		Level:   domain.LevelWarning,
		Line:    line,
		Column:  col,
		Message: message,
		Source:  source,
	}
}

func identityMapping() *linemap.Mapping {
	return linemap.New(domain.FileDiff{})
}

func TestCorrelate_SelfCorrelationIsEmpty(t *testing.T) {
	report := domain.LintReport{}
	report.Add(warningAt(10, 2, "shadowed variable", "govet"))
	report.Add(warningAt(10, 9, "shadowed variable", "govet"))
	report.Add(warningAt(40, 1, "exported without comment", "revive"))

	result := correlate.Correlate(report, report, identityMapping())

	assert.Equal(t, 0, result.Len())
}

func TestCorrelate_EmptyOldReportPassesThrough(t *testing.T) {
	newReport := domain.LintReport{}
	newReport.Add(warningAt(3, 1, "first", "a"))
	newReport.Add(warningAt(8, 4, "second", "b"))

	result := correlate.Correlate(newReport, domain.LintReport{}, identityMapping())

	assert.Equal(t, newReport, result)
}

func TestCorrelate_DoesNotMutateInput(t *testing.T) {
	newReport := domain.LintReport{}
	newReport.Add(warningAt(5, 1, "finding", "rule"))
	oldReport := domain.LintReport{}
	oldReport.Add(warningAt(5, 1, "finding", "rule"))

	_ = correlate.Correlate(newReport, oldReport, identityMapping())

	assert.Equal(t, 1, newReport.Len(), "input report must stay intact")
}

func TestCorrelate_ShiftedFindingSuppressed(t *testing.T) {
	// Anchor old 50 -> new 55: the old warning at 50 matches the new one
	// at 55 and is suppressed.
	fd := domain.FileDiff{
		Lines: []domain.DiffLine{
			{Kind: domain.LineContext, OldLine: 50, NewLine: 55},
		},
	}
	mapping := linemap.New(fd)

	oldReport := domain.LintReport{}
	oldReport.Add(warningAt(50, 3, "X", "Rule.A"))

	newReport := domain.LintReport{}
	newReport.Add(warningAt(55, 3, "X", "Rule.A"))
	newReport.Add(warningAt(60, 1, "genuinely new", "Rule.B"))

	result := correlate.Correlate(newReport, oldReport, mapping)

	require.Equal(t, 1, result.Len())
	assert.Empty(t, result[55])
	assert.Equal(t, "genuinely new", result[60][0].Message)
}

func TestCorrelate_RemovesAtMostOneOccurrence(t *testing.T) {
	// Two identical diagnostics on the new line, one before: exactly one
	// survives.
	oldReport := domain.LintReport{}
	oldReport.Add(warningAt(7, 2, "dup", "rule"))

	newReport := domain.LintReport{}
	newReport.Add(warningAt(7, 2, "dup", "rule"))
	newReport.Add(warningAt(7, 2, "dup", "rule"))

	result := correlate.Correlate(newReport, oldReport, identityMapping())

	require.Len(t, result[7], 1)
	assert.Equal(t, "dup", result[7][0].Message)
}

func TestCorrelate_DistinctFindingsOnSameLineSurvive(t *testing.T) {
	oldReport := domain.LintReport{}
	oldReport.Add(warningAt(12, 1, "old issue", "a"))

	newReport := domain.LintReport{}
	newReport.Add(warningAt(12, 1, "old issue", "a"))
	newReport.Add(warningAt(12, 8, "new issue", "b"))

	result := correlate.Correlate(newReport, oldReport, identityMapping())

	require.Len(t, result[12], 1)
	assert.Equal(t, "new issue", result[12][0].Message)
}

func TestCorrelate_LineExcludedFromEquality(t *testing.T) {
	// Old finding maps to line 20 but equality ignores Line on the
	// finding itself, so the recorded Line fields may differ.
	fd := domain.FileDiff{
		Lines: []domain.DiffLine{
			{Kind: domain.LineContext, OldLine: 15, NewLine: 20},
		},
	}
	mapping := linemap.New(fd)

	oldReport := domain.LintReport{}
	oldReport.Add(warningAt(15, 4, "same diagnostic", "rule"))

	newReport := domain.LintReport{}
	newReport.Add(warningAt(20, 4, "same diagnostic", "rule"))

	result := correlate.Correlate(newReport, oldReport, mapping)

	assert.Equal(t, 0, result.Len())
}

func TestCorrelate_UnmappedOldFindingLeavesNewAlone(t *testing.T) {
	oldReport := domain.LintReport{}
	oldReport.Add(warningAt(100, 1, "somewhere else", "rule"))

	newReport := domain.LintReport{}
	newReport.Add(warningAt(5, 1, "new", "rule"))

	result := correlate.Correlate(newReport, oldReport, identityMapping())

	assert.Equal(t, 1, result.Len())
}
