// Package lintreport parses the raw textual report of an external lint
// tool into a line-indexed LintReport.
//
// The grammar accepted is the common compiler-style diagnostic line,
// with or without a leading path:
//
//	[path:]line:col: severity: message [rule.id]
//	[path:]line:col: severity: message (rule-id)
//	[path:]line:col: message
//
// Parsing is fail-open: lines that do not look like diagnostics are
// skipped and unrecognized severities become notes, so a tool that
// reports nothing (or something unexpected) never turns into an error.
package lintreport

import (
	"regexp"
	"strconv"
	"strings"

	"deltalint/internal/domain"
)

var (
	// Diagnostic with no leading path: "12:5: warning: message".
	barePattern = regexp.MustCompile(`^(\d+):(\d+):\s*(.*)$`)
	// Diagnostic with a leading path: "dir/file.go:12:5: warning: message".
	pathPattern = regexp.MustCompile(`^(.+?):(\d+):(\d+):\s*(.*)$`)
	// Leading severity token of the remainder, e.g. "warning:".
	severityPattern = regexp.MustCompile(`^([A-Za-z]+):\s*(.*)$`)
	// Trailing rule identifier: "[staticcheck.SA4006]" or "(gocyclo)".
	bracketSourcePattern = regexp.MustCompile(`^(.*\S)\s+\[([^\[\]\s]+)\]$`)
	parenSourcePattern   = regexp.MustCompile(`^(.*\S)\s+\(([^()\s]+)\)$`)
)

// Parse converts one tool report for one file at one revision into a
// LintReport. Emission order of findings on the same line is preserved.
func Parse(raw string) domain.LintReport {
	report := domain.LintReport{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if finding, ok := parseLine(line); ok {
			report.Add(finding)
		}
	}
	return report
}

func parseLine(line string) (domain.Finding, bool) {
	var lineNo, column int
	var rest string

	if match := barePattern.FindStringSubmatch(line); match != nil {
		lineNo, _ = strconv.Atoi(match[1])
		column, _ = strconv.Atoi(match[2])
		rest = match[3]
	} else if match := pathPattern.FindStringSubmatch(line); match != nil {
		lineNo, _ = strconv.Atoi(match[2])
		column, _ = strconv.Atoi(match[3])
		rest = match[4]
	} else {
		return domain.Finding{}, false
	}

	if lineNo <= 0 || rest == "" {
		return domain.Finding{}, false
	}

	level := domain.LevelNote
	if match := severityPattern.FindStringSubmatch(rest); match != nil {
		level = normalizeLevel(match[1])
		rest = match[2]
	}

	message, source := splitSource(rest)
	if message == "" {
		return domain.Finding{}, false
	}

	return domain.Finding{
		Level:   level,
		Line:    lineNo,
		Column:  column,
		Message: message,
		Source:  source,
	}, true
}

// normalizeLevel folds tool-specific severity labels into the three-level
// taxonomy. Anything unrecognized becomes a note rather than being
// dropped.
func normalizeLevel(token string) domain.Level {
	switch strings.ToLower(token) {
	case "error", "fatal":
		return domain.LevelError
	case "warning", "warn":
		return domain.LevelWarning
	default:
		return domain.LevelNote
	}
}

// splitSource peels a trailing "[rule]" or "(rule)" identifier off the
// message, if present.
func splitSource(text string) (message, source string) {
	text = strings.TrimSpace(text)
	if match := bracketSourcePattern.FindStringSubmatch(text); match != nil {
		return match[1], match[2]
	}
	if match := parenSourcePattern.FindStringSubmatch(text); match != nil {
		return match[1], match[2]
	}
	return text, ""
}
