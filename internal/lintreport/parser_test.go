package lintreport_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deltalint/internal/domain"
	"deltalint/internal/lintreport"
)

func TestParse_CompilerStyleWithPath(t *testing.T) {
	raw := "pkg/server.go:42:7: warning: unused variable foo [staticcheck.U1000]\n"

	report := lintreport.Parse(raw)
	require.Equal(t, 1, report.Len())

	findings := report[42]
	require.Len(t, findings, 1)
	assert.Equal(t, domain.Finding{
		Level:   domain.LevelWarning,
		Line:    42,
		Column:  7,
		Message: "unused variable foo",
		Source:  "staticcheck.U1000",
	}, findings[0])
}

func TestParse_BareLineCol(t *testing.T) {
	raw := "17:3: error: undefined symbol bar (typecheck)"

	report := lintreport.Parse(raw)
	findings := report[17]
	require.Len(t, findings, 1)
	assert.Equal(t, domain.LevelError, findings[0].Level)
	assert.Equal(t, 3, findings[0].Column)
	assert.Equal(t, "undefined symbol bar", findings[0].Message)
	assert.Equal(t, "typecheck", findings[0].Source)
}

func TestParse_SeverityNormalization(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		level domain.Level
	}{
		{"error", "1:1: error: boom", domain.LevelError},
		{"fatal folds to error", "1:1: fatal: boom", domain.LevelError},
		{"warning", "1:1: warning: hmm", domain.LevelWarning},
		{"warn folds to warning", "1:1: warn: hmm", domain.LevelWarning},
		{"note", "1:1: note: fyi", domain.LevelNote},
		{"info folds to note", "1:1: info: fyi", domain.LevelNote},
		{"hint folds to note", "1:1: hint: fyi", domain.LevelNote},
		{"unknown folds to note", "1:1: blocker: fyi", domain.LevelNote},
		{"uppercase accepted", "1:1: WARNING: hmm", domain.LevelWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := lintreport.Parse(tt.raw)
			require.Equal(t, 1, report.Len())
			assert.Equal(t, tt.level, report[1][0].Level)
		})
	}
}

func TestParse_MissingSeverityToken(t *testing.T) {
	// gcc-style diagnostics sometimes omit the severity; fail open to note.
	report := lintreport.Parse("main.c:9:14: control reaches end of non-void function")

	findings := report[9]
	require.Len(t, findings, 1)
	assert.Equal(t, domain.LevelNote, findings[0].Level)
	assert.Equal(t, "control reaches end of non-void function", findings[0].Message)
	assert.Equal(t, "", findings[0].Source)
}

func TestParse_SameLineOrderPreserved(t *testing.T) {
	raw := `f.go:5:1: warning: first [a]
f.go:5:9: warning: second [b]
f.go:5:20: note: third [c]
`

	report := lintreport.Parse(raw)
	findings := report[5]
	require.Len(t, findings, 3)
	assert.Equal(t, "first", findings[0].Message)
	assert.Equal(t, "second", findings[1].Message)
	assert.Equal(t, "third", findings[2].Message)
}

func TestParse_SkipsNonDiagnosticLines(t *testing.T) {
	raw := `level=info msg="linter started"
f.go:3:1: warning: real finding [rule]

exit status 1
`

	report := lintreport.Parse(raw)
	assert.Equal(t, 1, report.Len())
}

func TestParse_EmptyAndGarbageInput(t *testing.T) {
	assert.Equal(t, 0, lintreport.Parse("").Len())
	assert.Equal(t, 0, lintreport.Parse("\n\n\n").Len())
	assert.Equal(t, 0, lintreport.Parse("complete nonsense without positions").Len())
}

func TestParse_ZeroLineNumberRejected(t *testing.T) {
	assert.Equal(t, 0, lintreport.Parse("0:1: error: impossible position").Len())
}

func TestParse_WindowsLineEndings(t *testing.T) {
	raw := "f.go:2:4: warning: crlf survives [rule]\r\n"

	report := lintreport.Parse(raw)
	require.Equal(t, 1, report.Len())
	assert.Equal(t, "crlf survives", report[2][0].Message)
}
