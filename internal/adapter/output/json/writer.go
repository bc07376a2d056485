package json

import (
	"encoding/json"
	"fmt"
	"io"

	"deltalint/internal/domain"
)

// Report is the stable JSON shape for one correlation run.
type Report struct {
	OldRevision string       `json:"oldRevision"`
	NewRevision string       `json:"newRevision"`
	Findings    int          `json:"findings"`
	Files       []FileReport `json:"files"`
	Notes       []Note       `json:"notes,omitempty"`
}

// FileReport lists one file's net-new findings in line order.
type FileReport struct {
	Path     string    `json:"path"`
	Findings []Finding `json:"findings"`
}

// Finding is the serialized form of a domain finding.
type Finding struct {
	Level   string `json:"level"`
	Line    int    `json:"line"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
	Source  string `json:"source,omitempty"`
}

// Note records an absorbed per-file failure.
type Note struct {
	Path     string `json:"path"`
	Revision string `json:"revision"`
	Reason   string `json:"reason"`
}

// Writer renders correlation results as indented JSON.
type Writer struct{}

// NewWriter creates a new JSON writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Render encodes the result to out with deterministic file and line
// ordering.
func (w *Writer) Render(out io.Writer, oldRev, newRev string, result domain.CorrelationResult) error {
	report := Report{
		OldRevision: oldRev,
		NewRevision: newRev,
		Findings:    result.TotalFindings(),
		Files:       make([]FileReport, 0, len(result.Files)),
	}

	for _, path := range result.Paths() {
		lineReport := result.Files[path]
		fr := FileReport{Path: path}
		for _, line := range lineReport.Lines() {
			for _, f := range lineReport[line] {
				fr.Findings = append(fr.Findings, Finding{
					Level:   f.Level.String(),
					Line:    line,
					Column:  f.Column,
					Message: f.Message,
					Source:  f.Source,
				})
			}
		}
		report.Files = append(report.Files, fr)
	}

	for _, note := range result.Notes {
		report.Notes = append(report.Notes, Note{
			Path:     note.Path,
			Revision: note.Revision,
			Reason:   note.Reason,
		})
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("encode result to json: %w", err)
	}
	return nil
}
