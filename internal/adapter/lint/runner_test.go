package lint

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gitadapter "deltalint/internal/adapter/git"
)

type stubSource struct {
	files map[string]string
	err   error
}

func (s *stubSource) FileAtRevision(ctx context.Context, path, revision string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	content, ok := s.files[revision+" "+path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, gitadapter.ErrFileAbsent)
	}
	return []byte(content), nil
}

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests drive a POSIX shell")
	}
}

func TestReport_RunsToolOnMaterializedFile(t *testing.T) {
	skipWithoutShell(t)

	source := &stubSource{files: map[string]string{
		"rev1 pkg/a.go": "line one\nline two\n",
	}}
	runner := NewRunner(source, "cat", nil)

	out, err := runner.Report(context.Background(), "pkg/a.go", "rev1")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", out)
}

func TestReport_PlaceholderSubstitution(t *testing.T) {
	skipWithoutShell(t)

	source := &stubSource{files: map[string]string{
		"rev1 a.go": "content\n",
	}}
	runner := NewRunner(source, "sh", []string{"-c", "wc -l < {file}"})

	out, err := runner.Report(context.Background(), "a.go", "rev1")
	require.NoError(t, err)
	assert.Contains(t, out, "1")
}

func TestReport_NonZeroExitWithOutputIsFindings(t *testing.T) {
	skipWithoutShell(t)

	source := &stubSource{files: map[string]string{
		"rev1 a.go": "content\n",
	}}
	runner := NewRunner(source, "sh", []string{"-c", "echo '1:1: warning: w'; exit 1", "--"})

	out, err := runner.Report(context.Background(), "a.go", "rev1")
	require.NoError(t, err, "exit status 1 with report text is a successful lint run")
	assert.Contains(t, out, "1:1: warning: w")
}

func TestReport_NonZeroExitWithoutOutputIsError(t *testing.T) {
	skipWithoutShell(t)

	source := &stubSource{files: map[string]string{
		"rev1 a.go": "content\n",
	}}
	runner := NewRunner(source, "sh", []string{"-c", "echo boom >&2; exit 2", "--"})

	_, err := runner.Report(context.Background(), "a.go", "rev1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestReport_AbsentFileYieldsEmptyReport(t *testing.T) {
	runner := NewRunner(&stubSource{files: map[string]string{}}, "cat", nil)

	out, err := runner.Report(context.Background(), "gone.go", "rev1")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReport_SourceFailurePropagates(t *testing.T) {
	runner := NewRunner(&stubSource{err: errors.New("repo corrupt")}, "cat", nil)

	_, err := runner.Report(context.Background(), "a.go", "rev1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repo corrupt")
}

func TestReport_MissingTool(t *testing.T) {
	source := &stubSource{files: map[string]string{
		"rev1 a.go": "content\n",
	}}
	runner := NewRunner(source, "definitely-not-a-real-linter", nil)

	_, err := runner.Report(context.Background(), "a.go", "rev1")
	assert.Error(t, err)
}
