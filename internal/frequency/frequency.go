// Package frequency caps how often one criterion may report within a
// document, section or paragraph scope during a single run.
package frequency

import (
	"github.com/dgallion1/docreview/internal/rubric"
)

// ScopeKey derives the counting key for a criterion's frequency unit.
// Paragraph scope is tracked per enclosing section.
func ScopeKey(unit rubric.FrequencyUnit, sectionIdentifier string) string {
	switch unit {
	case rubric.UnitDocument:
		return "document"
	case rubric.UnitSection:
		return sectionIdentifier
	case rubric.UnitParagraph:
		return "paragraph_in_" + sectionIdentifier
	default:
		return "document"
	}
}

type key struct {
	criterionID int64
	scope       string
}

// Limiter counts occurrences per (criterion, scope). It belongs to one run
// and is not safe for concurrent use.
type Limiter struct {
	counts     map[key]int
	suppressed int
}

// NewLimiter returns an empty limiter.
func NewLimiter() *Limiter {
	return &Limiter{counts: make(map[key]int)}
}

// Admit records one occurrence and reports whether it should be emitted.
// ok results are always emitted. Other results are emitted while the count
// is below max, or always when max is 0. Every call increments the count.
func (l *Limiter) Admit(criterionID int64, scopeKey string, max int, status rubric.Status) bool {
	k := key{criterionID, scopeKey}
	n := l.counts[k]
	l.counts[k] = n + 1

	if status == rubric.StatusOK || max <= 0 || n < max {
		return true
	}
	l.suppressed++
	return false
}

// Suppressed returns how many results were withheld.
func (l *Limiter) Suppressed() int { return l.suppressed }
