package diff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"deltalint/internal/domain"
)

// MalformedDiffError reports unified-diff text the parser could not make
// sense of. LineNo is 1-indexed into the diff text itself.
type MalformedDiffError struct {
	LineNo int
	Reason string
}

func (e *MalformedDiffError) Error() string {
	return fmt.Sprintf("malformed diff at line %d: %s", e.LineNo, e.Reason)
}

var hunkHeaderPattern = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// hunkState tracks progress through one @@ hunk body so the declared
// lengths can be checked when the hunk closes.
type hunkState struct {
	headerLineNo int
	oldDeclared  int
	newDeclared  int
	oldSeen      int
	newSeen      int
	oldNext      int
	newNext      int
}

// Parse converts unified-diff text into an ordered list of FileDiffs.
// Input is expected to be normalized to \n line endings, as produced by
// the git backends this tool drives.
func Parse(diffText string) ([]domain.FileDiff, error) {
	lines := strings.Split(diffText, "\n")

	var files []domain.FileDiff
	var current *domain.FileDiff
	var hunk *hunkState

	closeHunk := func() error {
		if hunk == nil {
			return nil
		}
		if hunk.oldSeen != hunk.oldDeclared || hunk.newSeen != hunk.newDeclared {
			return &MalformedDiffError{
				LineNo: hunk.headerLineNo,
				Reason: fmt.Sprintf("hunk declared -%d/+%d lines but contained -%d/+%d",
					hunk.oldDeclared, hunk.newDeclared, hunk.oldSeen, hunk.newSeen),
			}
		}
		hunk = nil
		return nil
	}

	closeFile := func() error {
		if err := closeHunk(); err != nil {
			return err
		}
		if current != nil {
			files = append(files, *current)
			current = nil
		}
		return nil
	}

	for i, line := range lines {
		lineNo := i + 1

		// Trailing empty element from the final newline.
		if line == "" && i == len(lines)-1 {
			continue
		}

		switch {
		case strings.HasPrefix(line, "diff --git "):
			if err := closeFile(); err != nil {
				return nil, err
			}
			current = &domain.FileDiff{Path: pathFromGitHeader(line)}
			continue

		case strings.HasPrefix(line, "new file mode"):
			if current != nil {
				current.IsNewFile = true
			}
			continue

		case strings.HasPrefix(line, "--- "):
			if hunk == nil {
				if current == nil {
					current = &domain.FileDiff{}
				}
				if strings.TrimSpace(line[4:]) == "/dev/null" {
					current.IsNewFile = true
				}
				continue
			}

		case strings.HasPrefix(line, "+++ "):
			if hunk == nil {
				if current == nil {
					current = &domain.FileDiff{}
				}
				if path := pathFromFileHeader(line[4:]); path != "" {
					current.Path = path
				}
				continue
			}

		case strings.HasPrefix(line, "index ") ||
			strings.HasPrefix(line, "old mode") ||
			strings.HasPrefix(line, "new mode") ||
			strings.HasPrefix(line, "deleted file mode") ||
			strings.HasPrefix(line, "similarity index") ||
			strings.HasPrefix(line, "rename from") ||
			strings.HasPrefix(line, "rename to"):
			continue

		case strings.HasPrefix(line, "@@"):
			if err := closeHunk(); err != nil {
				return nil, err
			}
			if current == nil {
				current = &domain.FileDiff{}
			}
			h, err := parseHunkHeader(line, lineNo)
			if err != nil {
				return nil, err
			}
			hunk = h
			continue
		}

		if hunk == nil {
			// Prose between files (e.g. commit messages in mail-format
			// diffs) is ignored.
			continue
		}

		if strings.HasPrefix(line, `\`) {
			// "\ No newline at end of file" markers carry no content.
			continue
		}

		record, err := parseBodyLine(line, lineNo, hunk)
		if err != nil {
			return nil, err
		}
		current.Lines = append(current.Lines, record)
	}

	if err := closeFile(); err != nil {
		return nil, err
	}
	return files, nil
}

func parseBodyLine(line string, lineNo int, hunk *hunkState) (domain.DiffLine, error) {
	marker := byte(' ')
	if len(line) > 0 {
		marker = line[0]
	}

	switch marker {
	case '+':
		record := domain.DiffLine{Kind: domain.LineAdded, NewLine: hunk.newNext}
		hunk.newNext++
		hunk.newSeen++
		return record, nil
	case '-':
		record := domain.DiffLine{Kind: domain.LineRemoved, OldLine: hunk.oldNext}
		hunk.oldNext++
		hunk.oldSeen++
		return record, nil
	case ' ':
		record := domain.DiffLine{
			Kind:    domain.LineContext,
			OldLine: hunk.oldNext,
			NewLine: hunk.newNext,
		}
		hunk.oldNext++
		hunk.newNext++
		hunk.oldSeen++
		hunk.newSeen++
		return record, nil
	default:
		return domain.DiffLine{}, &MalformedDiffError{
			LineNo: lineNo,
			Reason: fmt.Sprintf("unexpected hunk body prefix %q", string(marker)),
		}
	}
}

func parseHunkHeader(line string, lineNo int) (*hunkState, error) {
	match := hunkHeaderPattern.FindStringSubmatch(line)
	if match == nil {
		return nil, &MalformedDiffError{LineNo: lineNo, Reason: fmt.Sprintf("unparsable hunk header %q", line)}
	}

	oldStart, _ := strconv.Atoi(match[1])
	oldLen := rangeLength(match[2])
	newStart, _ := strconv.Atoi(match[3])
	newLen := rangeLength(match[4])

	return &hunkState{
		headerLineNo: lineNo,
		oldDeclared:  oldLen,
		newDeclared:  newLen,
		oldNext:      oldStart,
		newNext:      newStart,
	}, nil
}

// rangeLength interprets the optional ",len" part of a hunk range; a bare
// start means length 1.
func rangeLength(s string) int {
	if s == "" {
		return 1
	}
	n, _ := strconv.Atoi(s)
	return n
}

// pathFromGitHeader extracts the new-side path from a "diff --git a/x b/y"
// line. Paths with spaces are handled by splitting on " b/".
func pathFromGitHeader(line string) string {
	rest := strings.TrimPrefix(line, "diff --git ")
	if idx := strings.Index(rest, " b/"); idx >= 0 {
		return rest[idx+3:]
	}
	fields := strings.Fields(rest)
	if len(fields) == 2 {
		return strings.TrimPrefix(fields[1], "b/")
	}
	return ""
}

// pathFromFileHeader extracts the path from the value of a "+++ " header,
// stripping the b/ prefix and any trailing tab-separated timestamp.
func pathFromFileHeader(value string) string {
	if idx := strings.IndexByte(value, '\t'); idx >= 0 {
		value = value[:idx]
	}
	value = strings.TrimSpace(value)
	if value == "/dev/null" {
		return ""
	}
	return strings.TrimPrefix(value, "b/")
}
