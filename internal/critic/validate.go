package critic

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docreview/internal/criteria"
)

const (
	minQuoteLen       = 3
	maxQuoteLen       = 500
	maxExplanationLen = 300
	maxFindings       = 5
)

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|override|` +
		`new\s+instructions|negeer\s+(alle|vorige)\s+instructies)`,
)

// ValidFinding checks one finding and clips an overlong explanation.
// Findings that echo prompt-injection phrasing are rejected.
func ValidFinding(f *criteria.Finding) bool {
	if f == nil {
		return false
	}
	f.Quote = strings.TrimSpace(f.Quote)
	n := utf8.RuneCountInString(f.Quote)
	if n < minQuoteLen || n > maxQuoteLen {
		return false
	}
	f.Explanation = strings.TrimSpace(f.Explanation)
	if injectionPattern.MatchString(f.Explanation) {
		return false
	}
	if utf8.RuneCountInString(f.Explanation) > maxExplanationLen {
		f.Explanation = string([]rune(f.Explanation)[:maxExplanationLen]) + "..."
	}
	return true
}

// ValidFindings filters findings, drops duplicate quotes and keeps at most
// five.
func ValidFindings(fs []criteria.Finding) []criteria.Finding {
	out := make([]criteria.Finding, 0, len(fs))
	seen := make(map[string]bool, len(fs))
	for i := range fs {
		f := fs[i]
		if !ValidFinding(&f) || seen[f.Quote] {
			continue
		}
		seen[f.Quote] = true
		out = append(out, f)
		if len(out) == maxFindings {
			break
		}
	}
	return out
}
