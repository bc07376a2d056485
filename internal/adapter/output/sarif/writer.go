package sarif

import (
	"encoding/json"
	"fmt"
	"io"

	"deltalint/internal/domain"
)

const schemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"

// Writer renders correlation results as SARIF 2.1.0 for consumption by
// code scanning UIs.
type Writer struct {
	toolName    string
	toolVersion string
}

// NewWriter creates a new SARIF writer stamped with the producing tool's
// name and version.
func NewWriter(toolName, toolVersion string) *Writer {
	return &Writer{toolName: toolName, toolVersion: toolVersion}
}

// Render encodes the result as an indented SARIF document.
func (w *Writer) Render(out io.Writer, oldRev, newRev string, result domain.CorrelationResult) error {
	doc := w.convert(oldRev, newRev, result)

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encode result to sarif: %w", err)
	}
	return nil
}

func (w *Writer) convert(oldRev, newRev string, result domain.CorrelationResult) map[string]interface{} {
	results := make([]map[string]interface{}, 0, result.TotalFindings())

	for _, path := range result.Paths() {
		report := result.Files[path]
		for _, line := range report.Lines() {
			for _, f := range report[line] {
				results = append(results, convertFinding(path, line, f))
			}
		}
	}

	return map[string]interface{}{
		"version": "2.1.0",
		"$schema": schemaURI,
		"runs": []map[string]interface{}{
			{
				"tool": map[string]interface{}{
					"driver": map[string]interface{}{
						"name":    w.toolName,
						"version": w.toolVersion,
					},
				},
				"results": results,
				"properties": map[string]interface{}{
					"oldRevision": oldRev,
					"newRevision": newRev,
					"notes":       len(result.Notes),
				},
			},
		},
	}
}

func convertFinding(path string, line int, f domain.Finding) map[string]interface{} {
	// SARIF requires non-empty message text.
	message := f.Message
	if message == "" {
		message = "no message provided"
	}

	ruleID := f.Source
	if ruleID == "" {
		ruleID = "lint"
	}

	region := map[string]interface{}{
		"startLine": line,
	}
	if f.Column > 0 {
		region["startColumn"] = f.Column
	}

	return map[string]interface{}{
		"ruleId": ruleID,
		"level":  convertLevel(f.Level),
		"message": map[string]interface{}{
			"text": message,
		},
		"locations": []map[string]interface{}{
			{
				"physicalLocation": map[string]interface{}{
					"artifactLocation": map[string]interface{}{
						"uri": path,
					},
					"region": region,
				},
			},
		},
	}
}

// convertLevel maps domain levels to the SARIF level vocabulary.
func convertLevel(level domain.Level) string {
	switch level {
	case domain.LevelError:
		return "error"
	case domain.LevelWarning:
		return "warning"
	default:
		return "note"
	}
}
