package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"deltalint/internal/domain"
	"deltalint/internal/usecase/correlate"
)

// Store implements the run-history Store port using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- Stores metadata about each correlation run
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		repository TEXT NOT NULL,
		old_revision TEXT NOT NULL,
		new_revision TEXT NOT NULL,
		scope TEXT NOT NULL,
		files_checked INTEGER NOT NULL,
		finding_count INTEGER NOT NULL
	);

	-- Net-new findings recorded per run
	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		file TEXT NOT NULL,
		line INTEGER NOT NULL,
		col INTEGER NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		source TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	-- Per-file notes about absorbed collaborator failures
	CREATE TABLE IF NOT EXISTS notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		file TEXT NOT NULL,
		revision TEXT NOT NULL,
		reason TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
	CREATE INDEX IF NOT EXISTS idx_notes_run ON notes(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_range ON runs(repository, old_revision, new_revision, scope);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores a new correlation run.
func (s *Store) SaveRun(ctx context.Context, run correlate.RunRecord) error {
	query := `
		INSERT INTO runs (run_id, timestamp, repository, old_revision, new_revision, scope, files_checked, finding_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.RunID,
		run.Timestamp.Unix(),
		run.Repository,
		run.OldRevision,
		run.NewRevision,
		run.Scope,
		run.FilesChecked,
		run.FindingCount,
	)

	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// SaveFindings stores the net-new findings and notes of a run in one
// transaction.
func (s *Store) SaveFindings(ctx context.Context, runID string, result domain.CorrelationResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	findingQuery := `
		INSERT INTO findings (run_id, file, line, col, level, message, source)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, path := range result.Paths() {
		report := result.Files[path]
		for _, line := range report.Lines() {
			for _, f := range report[line] {
				if _, err := tx.ExecContext(ctx, findingQuery,
					runID, path, line, f.Column, f.Level.String(), f.Message, f.Source,
				); err != nil {
					return fmt.Errorf("failed to save finding: %w", err)
				}
			}
		}
	}

	noteQuery := `INSERT INTO notes (run_id, file, revision, reason) VALUES (?, ?, ?, ?)`
	for _, note := range result.Notes {
		if _, err := tx.ExecContext(ctx, noteQuery, runID, note.Path, note.Revision, note.Reason); err != nil {
			return fmt.Errorf("failed to save note: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit findings: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (correlate.RunRecord, error) {
	query := `
		SELECT run_id, timestamp, repository, old_revision, new_revision, scope, files_checked, finding_count
		FROM runs
		WHERE run_id = ?
	`

	var run correlate.RunRecord
	var timestamp int64

	err := s.db.QueryRowContext(ctx, query, runID).Scan(
		&run.RunID,
		&timestamp,
		&run.Repository,
		&run.OldRevision,
		&run.NewRevision,
		&run.Scope,
		&run.FilesChecked,
		&run.FindingCount,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return correlate.RunRecord{}, fmt.Errorf("run not found: %s", runID)
		}
		return correlate.RunRecord{}, fmt.Errorf("failed to get run: %w", err)
	}

	run.Timestamp = time.Unix(timestamp, 0)
	return run, nil
}

// ListRuns retrieves the most recent runs, limited by the given count.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]correlate.RunRecord, error) {
	query := `
		SELECT run_id, timestamp, repository, old_revision, new_revision, scope, files_checked, finding_count
		FROM runs
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []correlate.RunRecord
	for rows.Next() {
		var run correlate.RunRecord
		var timestamp int64

		if err := rows.Scan(
			&run.RunID,
			&timestamp,
			&run.Repository,
			&run.OldRevision,
			&run.NewRevision,
			&run.Scope,
			&run.FilesChecked,
			&run.FindingCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Timestamp = time.Unix(timestamp, 0)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// FindingsByRun retrieves the findings saved for one run in file and
// line order.
func (s *Store) FindingsByRun(ctx context.Context, runID string) (domain.CorrelationResult, error) {
	query := `
		SELECT file, line, col, level, message, source
		FROM findings
		WHERE run_id = ?
		ORDER BY file, line, id
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return domain.CorrelationResult{}, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	result := domain.NewCorrelationResult()
	for rows.Next() {
		var file, level, message string
		var source sql.NullString
		var line, column int

		if err := rows.Scan(&file, &line, &column, &level, &message, &source); err != nil {
			return domain.CorrelationResult{}, fmt.Errorf("failed to scan finding: %w", err)
		}

		report, ok := result.Files[file]
		if !ok {
			report = domain.LintReport{}
			result.Files[file] = report
		}
		report.Add(domain.Finding{
			Level:   parseLevel(level),
			Line:    line,
			Column:  column,
			Message: message,
			Source:  source.String,
		})
	}

	if err := rows.Err(); err != nil {
		return domain.CorrelationResult{}, fmt.Errorf("failed to iterate findings: %w", err)
	}
	return result, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func parseLevel(s string) domain.Level {
	switch s {
	case "error":
		return domain.LevelError
	case "warning":
		return domain.LevelWarning
	default:
		return domain.LevelNote
	}
}
