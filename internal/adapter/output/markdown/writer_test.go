package markdown

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deltalint/internal/domain"
)

func TestRender_FindingsGroupedByFile(t *testing.T) {
	result := domain.NewCorrelationResult()
	result.Files["b.go"] = domain.LintReport{
		7: {{Level: domain.LevelWarning, Line: 7, Column: 2, Message: "unused variable", Source: "U100"}},
	}
	result.Files["a.go"] = domain.LintReport{
		3: {{Level: domain.LevelError, Line: 3, Message: "undefined name"}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter().Render(&buf, "main", "feature", result))
	out := buf.String()

	assert.Contains(t, out, "# New Lint Findings")
	assert.Contains(t, out, "- From: main")
	assert.Contains(t, out, "- To: feature")
	assert.Contains(t, out, "- Findings: 2")
	assert.Contains(t, out, "## a.go")
	assert.Contains(t, out, "## b.go")
	assert.Contains(t, out, "**Warning** line 7, col 2: unused variable `[U100]`")
	assert.Contains(t, out, "**Error** line 3: undefined name")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("## a.go")), bytes.Index(buf.Bytes(), []byte("## b.go")))
}

func TestRender_EmptyResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter().Render(&buf, "a", "b", domain.NewCorrelationResult()))

	assert.Contains(t, buf.String(), "No new findings introduced.")
}

func TestRender_NotesSection(t *testing.T) {
	result := domain.NewCorrelationResult()
	result.Notes = append(result.Notes, domain.FileNote{
		Path:     "f.go",
		Revision: "main",
		Reason:   "lint tool crashed",
	})

	var buf bytes.Buffer
	require.NoError(t, NewWriter().Render(&buf, "main", "feature", result))

	assert.Contains(t, buf.String(), "## Notes")
	assert.Contains(t, buf.String(), "- f.go at main: lint tool crashed")
}
