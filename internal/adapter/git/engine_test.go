package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deltalint/internal/usecase/correlate"
)

// testRepo builds a throwaway repository with two commits touching
// main.go and docs/notes.md.
type testRepo struct {
	dir        string
	firstHash  string
	secondHash string
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()

	repo, err := goGit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	write := func(rel, content string) {
		full := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
		_, err := wt.Add(rel)
		require.NoError(t, err)
	}

	commit := func(msg string) string {
		hash, err := wt.Commit(msg, &goGit.CommitOptions{
			Author: &object.Signature{
				Name:  "tester",
				Email: "tester@example.com",
				When:  time.Now(),
			},
		})
		require.NoError(t, err)
		return hash.String()
	}

	write("main.go", "package main\n\nfunc main() {}\n")
	write("docs/notes.md", "# notes\n")
	first := commit("initial")

	write("main.go", "package main\n\nimport \"fmt\"\n\nfunc main() { fmt.Println() }\n")
	write("docs/notes.md", "# notes\n\nmore\n")
	second := commit("change")

	return &testRepo{dir: dir, firstHash: first, secondHash: second}
}

func TestDiff_BetweenCommits(t *testing.T) {
	tr := newTestRepo(t)
	engine := NewEngine(tr.dir)

	diffText, err := engine.Diff(context.Background(), "", tr.firstHash, tr.secondHash, correlate.DiffOptions{})
	require.NoError(t, err)

	assert.Contains(t, diffText, "main.go")
	assert.Contains(t, diffText, "docs/notes.md")
	assert.Contains(t, diffText, "+import \"fmt\"")
	assert.Contains(t, diffText, "@@")
}

func TestDiff_ScopeRestrictsFiles(t *testing.T) {
	tr := newTestRepo(t)
	engine := NewEngine(tr.dir)

	diffText, err := engine.Diff(context.Background(), "docs", tr.firstHash, tr.secondHash, correlate.DiffOptions{})
	require.NoError(t, err)

	assert.Contains(t, diffText, "docs/notes.md")
	assert.NotContains(t, diffText, "main.go")
}

func TestDiff_UnknownRevision(t *testing.T) {
	tr := newTestRepo(t)
	engine := NewEngine(tr.dir)

	_, err := engine.Diff(context.Background(), "", "no-such-rev", tr.secondHash, correlate.DiffOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-rev")
}

func TestFileAtRevision(t *testing.T) {
	tr := newTestRepo(t)
	engine := NewEngine(tr.dir)

	content, err := engine.FileAtRevision(context.Background(), "main.go", tr.firstHash)
	require.NoError(t, err)
	assert.Equal(t, "package main\n\nfunc main() {}\n", string(content))

	content, err = engine.FileAtRevision(context.Background(), "main.go", tr.secondHash)
	require.NoError(t, err)
	assert.Contains(t, string(content), "fmt.Println")
}

func TestFileAtRevision_AbsentFile(t *testing.T) {
	tr := newTestRepo(t)
	engine := NewEngine(tr.dir)

	_, err := engine.FileAtRevision(context.Background(), "missing.go", tr.firstHash)
	assert.ErrorIs(t, err, ErrFileAbsent)
}

func TestNewEngine_MissingRepo(t *testing.T) {
	engine := NewEngine(t.TempDir())

	_, err := engine.Diff(context.Background(), "", "a", "b", correlate.DiffOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open repo")
}
