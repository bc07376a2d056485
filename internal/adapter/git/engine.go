package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	formatdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"

	"deltalint/internal/usecase/correlate"
)

// ErrFileAbsent indicates a path does not exist in the tree at the
// requested revision.
var ErrFileAbsent = errors.New("file absent at revision")

// Engine implements the VCS port backed by go-git, shelling out to the
// git binary only for options go-git cannot express.
type Engine struct {
	repoDir string
}

// NewEngine constructs a Git engine for the provided repository directory.
func NewEngine(repoDir string) *Engine {
	return &Engine{repoDir: repoDir}
}

// Diff produces unified diff text between two revisions, optionally
// restricted to the scope path. Whitespace-insensitive diffs go through
// the git binary because go-git has no equivalent of -w.
func (e *Engine) Diff(ctx context.Context, scope, fromRev, toRev string, opts correlate.DiffOptions) (string, error) {
	if opts.IgnoreWhitespace {
		return e.diffViaGitBinary(ctx, scope, fromRev, toRev)
	}

	repo, err := e.open()
	if err != nil {
		return "", err
	}

	fromCommit, err := resolveCommit(repo, fromRev)
	if err != nil {
		return "", fmt.Errorf("resolve revision %s: %w", fromRev, err)
	}
	toCommit, err := resolveCommit(repo, toRev)
	if err != nil {
		return "", fmt.Errorf("resolve revision %s: %w", toRev, err)
	}

	patch, err := fromCommit.Patch(toCommit)
	if err != nil {
		return "", fmt.Errorf("compute patch %s..%s: %w", fromRev, toRev, err)
	}

	var buf bytes.Buffer
	for _, fp := range patch.FilePatches() {
		if !inScope(fp, scope) {
			continue
		}
		text, err := encodeFilePatch(fp)
		if err != nil {
			return "", fmt.Errorf("encode patch: %w", err)
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

// FileAtRevision returns the content of path as of revision, or
// ErrFileAbsent when the tree has no such path.
func (e *Engine) FileAtRevision(ctx context.Context, path, revision string) ([]byte, error) {
	repo, err := e.open()
	if err != nil {
		return nil, err
	}

	commit, err := resolveCommit(repo, revision)
	if err != nil {
		return nil, fmt.Errorf("resolve revision %s: %w", revision, err)
	}

	file, err := commit.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%s at %s: %w", path, revision, ErrFileAbsent)
		}
		return nil, fmt.Errorf("lookup %s at %s: %w", path, revision, err)
	}

	reader, err := file.Blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", path, err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", path, err)
	}
	return content, nil
}

func (e *Engine) open() (*goGit.Repository, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	return repo, nil
}

func (e *Engine) diffViaGitBinary(ctx context.Context, scope, fromRev, toRev string) (string, error) {
	args := []string{"diff", "-w", fromRev, toRev}
	if scope != "" {
		args = append(args, "--", scope)
	}
	return runGitCommand(ctx, e.repoDir, args...)
}

func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		name := plumbing.Revision(candidate)
		hash, err := repo.ResolveRevision(name)
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to resolve ref %s", ref)
}

// inScope reports whether a file patch touches the scope path. Scope
// matches the exact path or any path under it as a directory.
func inScope(fp formatdiff.FilePatch, scope string) bool {
	if scope == "" {
		return true
	}
	scope = strings.TrimSuffix(scope, "/")
	for _, f := range filePaths(fp) {
		if f == scope || strings.HasPrefix(f, scope+"/") {
			return true
		}
	}
	return false
}

func filePaths(fp formatdiff.FilePatch) []string {
	var paths []string
	from, to := fp.Files()
	if from != nil {
		paths = append(paths, from.Path())
	}
	if to != nil {
		paths = append(paths, to.Path())
	}
	return paths
}

func runGitCommand(ctx context.Context, repoDir string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", repoDir}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("git %v: %w", args, ctx.Err())
		}
		if stderr.Len() > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("git %v: %w", args, err)
	}
	return stdout.String(), nil
}

func encodeFilePatch(fp formatdiff.FilePatch) (string, error) {
	var buf bytes.Buffer
	encoder := formatdiff.NewUnifiedEncoder(&buf, formatdiff.DefaultContextLines)
	if err := encoder.Encode(singlePatch{fp: fp}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type singlePatch struct {
	fp formatdiff.FilePatch
}

func (s singlePatch) FilePatches() []formatdiff.FilePatch {
	return []formatdiff.FilePatch{s.fp}
}

func (s singlePatch) Message() string {
	return ""
}
