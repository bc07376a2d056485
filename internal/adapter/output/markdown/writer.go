package markdown

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"deltalint/internal/domain"
)

// Writer renders correlation results as Markdown.
type Writer struct{}

// NewWriter constructs a Markdown writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Render writes a Markdown report for the result. Files and lines come
// out in stable sorted order.
func (w *Writer) Render(out io.Writer, oldRev, newRev string, result domain.CorrelationResult) error {
	content := buildContent(oldRev, newRev, result)
	_, err := io.WriteString(out, content)
	return err
}

func buildContent(oldRev, newRev string, result domain.CorrelationResult) string {
	var builder strings.Builder
	caser := cases.Title(language.English)

	builder.WriteString("# New Lint Findings\n\n")
	builder.WriteString(fmt.Sprintf("- From: %s\n", oldRev))
	builder.WriteString(fmt.Sprintf("- To: %s\n", newRev))
	builder.WriteString(fmt.Sprintf("- Findings: %d\n\n", result.TotalFindings()))

	if result.TotalFindings() == 0 {
		builder.WriteString("No new findings introduced.\n")
	}

	for _, path := range result.Paths() {
		report := result.Files[path]
		builder.WriteString(fmt.Sprintf("## %s\n\n", path))
		for _, line := range report.Lines() {
			for _, f := range report[line] {
				builder.WriteString(fmt.Sprintf("- **%s** line %d", caser.String(f.Level.String()), line))
				if f.Column > 0 {
					builder.WriteString(fmt.Sprintf(", col %d", f.Column))
				}
				builder.WriteString(fmt.Sprintf(": %s", f.Message))
				if f.Source != "" {
					builder.WriteString(fmt.Sprintf(" `[%s]`", f.Source))
				}
				builder.WriteString("\n")
			}
		}
		builder.WriteString("\n")
	}

	if len(result.Notes) > 0 {
		builder.WriteString("## Notes\n\n")
		for _, note := range result.Notes {
			builder.WriteString(fmt.Sprintf("- %s at %s: %s\n", note.Path, note.Revision, note.Reason))
		}
	}

	return builder.String()
}
