package text

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"deltalint/internal/domain"
)

// IsTTY checks if the given file descriptor is a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// IsOutputTerminal checks if stdout is a TTY, indicating that output is
// being displayed directly to a user's terminal rather than being piped
// or redirected.
func IsOutputTerminal() bool {
	return IsTTY(os.Stdout.Fd())
}

// Writer renders correlation results as compiler-style terminal lines.
type Writer struct {
	color bool
}

// NewWriter constructs a text writer. Color applies ANSI styling to
// severity labels.
func NewWriter(color bool) *Writer {
	return &Writer{color: color}
}

// Render writes one "path:line:col: level: message [source]" line per
// finding, then a one-line summary.
func (w *Writer) Render(out io.Writer, oldRev, newRev string, result domain.CorrelationResult) error {
	for _, path := range result.Paths() {
		report := result.Files[path]
		for _, line := range report.Lines() {
			for _, f := range report[line] {
				if err := w.renderFinding(out, path, line, f); err != nil {
					return err
				}
			}
		}
	}

	for _, note := range result.Notes {
		if _, err := fmt.Fprintf(out, "note: %s at %s skipped: %s\n", note.Path, note.Revision, note.Reason); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(out, "%d new finding(s) between %s and %s\n",
		result.TotalFindings(), oldRev, newRev)
	return err
}

func (w *Writer) renderFinding(out io.Writer, path string, line int, f domain.Finding) error {
	location := fmt.Sprintf("%s:%d", path, line)
	if f.Column > 0 {
		location = fmt.Sprintf("%s:%d", location, f.Column)
	}

	suffix := ""
	if f.Source != "" {
		suffix = fmt.Sprintf(" [%s]", f.Source)
	}

	_, err := fmt.Fprintf(out, "%s: %s: %s%s\n", location, w.label(f.Level), f.Message, suffix)
	return err
}

func (w *Writer) label(level domain.Level) string {
	if !w.color {
		return level.String()
	}
	switch level {
	case domain.LevelError:
		return "\x1b[31m" + level.String() + "\x1b[0m"
	case domain.LevelWarning:
		return "\x1b[33m" + level.String() + "\x1b[0m"
	default:
		return "\x1b[36m" + level.String() + "\x1b[0m"
	}
}
