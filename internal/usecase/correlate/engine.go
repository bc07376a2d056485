package correlate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"deltalint/internal/diff"
	"deltalint/internal/domain"
	"deltalint/internal/linemap"
	"deltalint/internal/lintreport"
)

// DefaultMaxDiffBytes guards against pathological diffs (generated or
// binary-like files accidentally committed). Overridable per request.
const DefaultMaxDiffBytes = 4 << 20

// DefaultConcurrency bounds parallel per-file lint invocations.
const DefaultConcurrency = 4

// ErrEmptyDiff indicates the revision range produced no diff text at
// all, which points at a misconfigured range rather than "no changes".
var ErrEmptyDiff = errors.New("diff is empty; check the revision range")

// DiffTooLargeError indicates the diff exceeded the size guard and no
// override was set.
type DiffTooLargeError struct {
	Size  int
	Limit int
}

func (e *DiffTooLargeError) Error() string {
	return fmt.Sprintf("diff is %d bytes, above the %d byte guard (use the oversize override to force)", e.Size, e.Limit)
}

// DiffOptions tune how the VCS produces the diff.
type DiffOptions struct {
	IgnoreWhitespace bool
}

// VCS abstracts the version-control backend that produces unified diff
// text between two revisions.
type VCS interface {
	Diff(ctx context.Context, scope, fromRev, toRev string, opts DiffOptions) (string, error)
}

// LintRunner abstracts the external lint tool. Report returns the raw
// textual report for one file's content as of one revision; empty text
// means "no findings" or "file absent at this revision".
type LintRunner interface {
	Report(ctx context.Context, path, revision string) (string, error)
}

// Store defines the optional persistence port for run history. It lives
// above the core pipeline: failures are absorbed, never fatal.
type Store interface {
	SaveRun(ctx context.Context, run RunRecord) error
	SaveFindings(ctx context.Context, runID string, result domain.CorrelationResult) error
	Close() error
}

// RunRecord captures one engine run for the history store.
type RunRecord struct {
	RunID        string
	Timestamp    time.Time
	Repository   string
	OldRevision  string
	NewRevision  string
	Scope        string
	FilesChecked int
	FindingCount int
}

// Logger is the optional structured logging port. The engine itself
// never writes to any log sink directly.
type Logger interface {
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// EngineDeps captures the collaborators wired into the engine.
type EngineDeps struct {
	VCS    VCS
	Linter LintRunner
	Store  Store  // Optional: run history persistence
	Logger Logger // Optional: structured logging

	Repository string // Repository name recorded in run history

	MaxDiffBytes int // 0 means DefaultMaxDiffBytes
	Concurrency  int // 0 means DefaultConcurrency

	// AllowedExtensions whitelists file extensions (with leading dot,
	// lowercase). Empty means every extension is eligible.
	AllowedExtensions []string
}

// Request describes one correlation run.
type Request struct {
	OldRevision string
	NewRevision string
	Scope       string // Path restriction passed to the VCS; empty for whole tree

	// ExcludedExtensions skips files by extension in addition to the
	// configured allowlist.
	ExcludedExtensions []string

	// AllowOversize bypasses the diff size guard.
	AllowOversize bool

	IgnoreWhitespace bool
}

// Engine drives the correlation pipeline per file: parse the diff, fetch
// lint reports for both revisions, and reduce them to net-new findings.
type Engine struct {
	deps EngineDeps
}

// NewEngine wires the engine dependencies.
func NewEngine(deps EngineDeps) *Engine {
	if deps.MaxDiffBytes == 0 {
		deps.MaxDiffBytes = DefaultMaxDiffBytes
	}
	if deps.Concurrency <= 0 {
		deps.Concurrency = DefaultConcurrency
	}
	return &Engine{deps: deps}
}

// Run executes one correlation run. Structural failures (empty diff,
// oversized diff, malformed diff) abort the run; per-file collaborator
// failures degrade to the fail-open fallback and surface as notes on the
// result.
func (e *Engine) Run(ctx context.Context, req Request) (domain.CorrelationResult, error) {
	if err := e.validate(req); err != nil {
		return domain.CorrelationResult{}, err
	}

	diffText, err := e.deps.VCS.Diff(ctx, req.Scope, req.OldRevision, req.NewRevision, DiffOptions{
		IgnoreWhitespace: req.IgnoreWhitespace,
	})
	if err != nil {
		return domain.CorrelationResult{}, fmt.Errorf("produce diff %s..%s: %w", req.OldRevision, req.NewRevision, err)
	}

	if strings.TrimSpace(diffText) == "" {
		return domain.CorrelationResult{}, ErrEmptyDiff
	}
	if len(diffText) > e.deps.MaxDiffBytes && !req.AllowOversize {
		return domain.CorrelationResult{}, &DiffTooLargeError{Size: len(diffText), Limit: e.deps.MaxDiffBytes}
	}

	files, err := diff.Parse(diffText)
	if err != nil {
		return domain.CorrelationResult{}, err
	}

	eligible := make([]domain.FileDiff, 0, len(files))
	for _, fd := range files {
		if e.eligible(fd, req.ExcludedExtensions) {
			eligible = append(eligible, fd)
		}
	}

	result := domain.NewCorrelationResult()
	var mu sync.Mutex

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(e.deps.Concurrency)
	for _, fd := range eligible {
		fd := fd
		grp.Go(func() error {
			report, notes := e.processFile(grpCtx, fd, req)
			mu.Lock()
			defer mu.Unlock()
			if report.Len() > 0 {
				result.Files[fd.Path] = report
			}
			result.Notes = append(result.Notes, notes...)
			return nil
		})
	}
	// Workers absorb their own failures; only context cancellation can
	// surface here.
	if err := grp.Wait(); err != nil {
		return domain.CorrelationResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.CorrelationResult{}, err
	}

	e.logInfo(ctx, "correlation run complete", map[string]interface{}{
		"filesChecked": len(eligible),
		"filesFlagged": len(result.Files),
		"findings":     result.TotalFindings(),
		"notes":        len(result.Notes),
	})

	e.saveRun(ctx, req, len(eligible), result)

	return result, nil
}

func (e *Engine) validate(req Request) error {
	if strings.TrimSpace(req.OldRevision) == "" {
		return errors.New("old revision is required")
	}
	if strings.TrimSpace(req.NewRevision) == "" {
		return errors.New("new revision is required")
	}
	return nil
}

// eligible applies the cheap skips that avoid lint invocations entirely:
// nothing added, extension not allowed, or extension excluded.
func (e *Engine) eligible(fd domain.FileDiff, excluded []string) bool {
	if fd.LinesAdded() == 0 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(fd.Path))
	for _, x := range excluded {
		if ext == normalizeExt(x) {
			return false
		}
	}
	if len(e.deps.AllowedExtensions) == 0 {
		return true
	}
	for _, a := range e.deps.AllowedExtensions {
		if ext == normalizeExt(a) {
			return true
		}
	}
	return false
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// processFile runs the per-file pipeline and returns the net-new report
// plus any notes about degraded collaborator calls. It never fails the
// run.
func (e *Engine) processFile(ctx context.Context, fd domain.FileDiff, req Request) (domain.LintReport, []domain.FileNote) {
	var notes []domain.FileNote

	newRaw, err := e.deps.Linter.Report(ctx, fd.Path, req.NewRevision)
	if err != nil {
		e.logWarning(ctx, "lint report unavailable, file skipped", map[string]interface{}{
			"path":     fd.Path,
			"revision": req.NewRevision,
			"error":    err.Error(),
		})
		return domain.LintReport{}, []domain.FileNote{{
			Path:     fd.Path,
			Revision: req.NewRevision,
			Reason:   err.Error(),
		}}
	}
	newReport := lintreport.Parse(newRaw)
	if newReport.Len() == 0 {
		return domain.LintReport{}, nil
	}

	// A brand-new file has no prior revision to compare against: the
	// new-revision report is the net-new result.
	if fd.IsNewFile {
		return newReport, nil
	}

	oldReport := domain.LintReport{}
	oldRaw, err := e.deps.Linter.Report(ctx, fd.Path, req.OldRevision)
	if err != nil {
		// Fail open: without the old report every new finding counts.
		e.logWarning(ctx, "old-revision report unavailable, treating findings as net-new", map[string]interface{}{
			"path":     fd.Path,
			"revision": req.OldRevision,
			"error":    err.Error(),
		})
		notes = append(notes, domain.FileNote{
			Path:     fd.Path,
			Revision: req.OldRevision,
			Reason:   err.Error(),
		})
	} else {
		oldReport = lintreport.Parse(oldRaw)
	}

	mapping := linemap.New(fd)
	return Correlate(newReport, oldReport, mapping), notes
}

// saveRun persists the run to the history store when one is wired.
// Store failures never affect the result.
func (e *Engine) saveRun(ctx context.Context, req Request, filesChecked int, result domain.CorrelationResult) {
	if e.deps.Store == nil {
		return
	}

	now := time.Now()
	run := RunRecord{
		RunID:        generateRunID(now, req.OldRevision, req.NewRevision),
		Timestamp:    now,
		Repository:   e.deps.Repository,
		OldRevision:  req.OldRevision,
		NewRevision:  req.NewRevision,
		Scope:        req.Scope,
		FilesChecked: filesChecked,
		FindingCount: result.TotalFindings(),
	}
	if err := e.deps.Store.SaveRun(ctx, run); err != nil {
		e.logWarning(ctx, "failed to save run record", map[string]interface{}{
			"runID": run.RunID,
			"error": err.Error(),
		})
		return
	}
	if err := e.deps.Store.SaveFindings(ctx, run.RunID, result); err != nil {
		e.logWarning(ctx, "failed to save findings", map[string]interface{}{
			"runID": run.RunID,
			"error": err.Error(),
		})
	}
}

func (e *Engine) logInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if e.deps.Logger != nil {
		e.deps.Logger.LogInfo(ctx, message, fields)
	}
}

func (e *Engine) logWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if e.deps.Logger != nil {
		e.deps.Logger.LogWarning(ctx, message, fields)
	}
}
