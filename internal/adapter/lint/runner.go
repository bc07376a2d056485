package lint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	gitadapter "deltalint/internal/adapter/git"
)

// FileSource provides file content as of a revision. The git engine
// implements it.
type FileSource interface {
	FileAtRevision(ctx context.Context, path, revision string) ([]byte, error)
}

// Runner implements the LintRunner port by materializing the file at
// the requested revision into a scratch directory and invoking an
// external lint tool on it.
type Runner struct {
	source FileSource
	tool   string
	args   []string
}

// NewRunner constructs a runner for the given tool. Occurrences of
// {file} in args are replaced with the materialized file path; when no
// placeholder is present the path is appended as the final argument.
func NewRunner(source FileSource, tool string, args []string) *Runner {
	return &Runner{source: source, tool: tool, args: args}
}

// Report runs the lint tool against path as of revision and returns the
// raw report text. A file absent at the revision yields an empty report,
// not an error.
func (r *Runner) Report(ctx context.Context, path, revision string) (string, error) {
	content, err := r.source.FileAtRevision(ctx, path, revision)
	if err != nil {
		if errors.Is(err, gitadapter.ErrFileAbsent) {
			return "", nil
		}
		return "", fmt.Errorf("materialize %s at %s: %w", path, revision, err)
	}

	scratch, err := os.MkdirTemp("", "deltalint-*")
	if err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	// Keep the relative path so tools that infer packages or configs
	// from directory layout behave sanely.
	target := filepath.Join(scratch, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create scratch layout: %w", err)
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return "", fmt.Errorf("write scratch file: %w", err)
	}

	return r.invoke(ctx, target)
}

func (r *Runner) invoke(ctx context.Context, target string) (string, error) {
	args := make([]string, 0, len(r.args)+1)
	substituted := false
	for _, a := range r.args {
		if strings.Contains(a, "{file}") {
			a = strings.ReplaceAll(a, "{file}", target)
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append(args, target)
	}

	cmd := exec.CommandContext(ctx, r.tool, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%s: %w", r.tool, ctx.Err())
		}
		// Lint tools conventionally exit non-zero when they found
		// something. Output on stdout means the run itself worked.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stdout.Len() > 0 {
			return stdout.String(), nil
		}
		if stderr.Len() > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("%s: %w", r.tool, err)
	}
	return stdout.String(), nil
}
