package correlate

import (
	"deltalint/internal/domain"
	"deltalint/internal/linemap"
)

// Correlate reduces newReport to the findings that cannot be matched to a
// pre-existing counterpart in oldReport once old line numbers are shifted
// through the mapping.
//
// Matching is exact multiset subtraction: each old finding removes at
// most one equivalent occurrence at its mapped line, so duplicate
// diagnostics on one line are only suppressed as many times as they
// existed before the change.
func Correlate(newReport, oldReport domain.LintReport, mapping *linemap.Mapping) domain.LintReport {
	result := newReport.Clone()

	for oldLine, oldFindings := range oldReport {
		mappedLine := oldLine + mapping.OffsetFor(oldLine)
		candidates, ok := result[mappedLine]
		if !ok {
			continue
		}
		for _, old := range oldFindings {
			if idx := indexOfEquivalent(candidates, old); idx >= 0 {
				candidates = append(candidates[:idx], candidates[idx+1:]...)
			}
		}
		if len(candidates) == 0 {
			delete(result, mappedLine)
		} else {
			result[mappedLine] = candidates
		}
	}

	// Lines emptied by subtraction elsewhere.
	for line, findings := range result {
		if len(findings) == 0 {
			delete(result, line)
		}
	}
	return result
}

func indexOfEquivalent(findings []domain.Finding, target domain.Finding) int {
	for i, f := range findings {
		if f.EquivalentTo(target) {
			return i
		}
	}
	return -1
}
