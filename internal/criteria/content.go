package criteria

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/docreview/internal/rubric"
	"github.com/dgallion1/docreview/internal/sections"
)

const defaultReferenceSection = "probleemstelling"

var (
	defaultMarkers          = []string{"hoofdvraag"}
	defaultReferenceMarkers = []string{"probleem"}
)

func containsAny(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if m != "" && strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// checkConsistency requires marker terms in both the evaluated section and
// its reference section, e.g. a main research question that follows from
// the problem statement.
func checkConsistency(_ context.Context, _ *Evaluator, c rubric.Criterion, sec *sections.RecognizedSection, in *Input) (*FeedbackItem, error) {
	if !sec.Found {
		return nil, nil
	}
	refID := c.Params.Reference
	if refID == "" {
		refID = defaultReferenceSection
	}
	markers := c.Params.Markers
	if len(markers) == 0 {
		markers = defaultMarkers
	}
	refMarkers := c.Params.ReferenceMarkers
	if len(refMarkers) == 0 {
		refMarkers = defaultReferenceMarkers
	}

	var ref *sections.RecognizedSection
	if in.Sections != nil {
		ref, _ = in.Sections.Lookup(refID)
	}
	if ref == nil || !ref.Found {
		return newItem(c, sec, rubric.StatusInfo,
			fmt.Sprintf("Consistency with %q could not be checked: section missing", refID), "", 0.5), nil
	}

	if containsAny(sec.Content, markers) && containsAny(ref.Content, refMarkers) {
		return okItem(c, sec, fmt.Sprintf("%s connects to %s", sec.Name, ref.Name)), nil
	}
	return failItem(c, sec, rubric.SeverityViolation,
		fmt.Sprintf("%s does not clearly follow from %s", sec.Name, ref.Name),
		fmt.Sprintf("Make sure %s builds on %s and uses its terms (%s).",
			sec.Name, ref.Name, strings.Join(markers, ", ")),
		0.6), nil
}

const defaultWordsPerReference = 200

var (
	apaCitationRe = regexp.MustCompile(`\(\p{L}[\p{L} .&-]*,?\s*\d{4}[a-z]?\)`)
	footnoteRe    = regexp.MustCompile(`\[\d+\]`)
	sourcePhrases = []string{"volgens", "aldus", "zoals", "onderzoek van", "studie van"}
)

// SourceCount tallies references in text: APA-style citations, numeric
// footnotes and attribution phrases (each phrase counted once).
func SourceCount(text string) int {
	n := len(apaCitationRe.FindAllStringIndex(text, -1)) + len(footnoteRe.FindAllStringIndex(text, -1))
	lower := strings.ToLower(text)
	for _, p := range sourcePhrases {
		if strings.Contains(lower, p) {
			n++
		}
	}
	return n
}

// checkSourceUsage expects one reference per WordsPerReference words.
func checkSourceUsage(_ context.Context, _ *Evaluator, c rubric.Criterion, sec *sections.RecognizedSection, _ *Input) (*FeedbackItem, error) {
	if !sec.Found || sec.WordCount == 0 {
		return nil, nil
	}
	per := c.Params.WordsPerReference
	if per <= 0 {
		per = defaultWordsPerReference
	}
	expected := max(1, sec.WordCount/per)
	got := SourceCount(sec.Content)
	if got >= expected {
		return okItem(c, sec, fmt.Sprintf("%s cites %d sources", sec.Name, got)), nil
	}
	it := failItem(c, sec, rubric.SeverityViolation,
		fmt.Sprintf("Too few source references in %s (%d found, %d expected)", sec.Name, got, expected),
		"Support claims with references, e.g. (Author, 2020).", 0.7)
	it.Details = map[string]any{"found": got, "expected": expected}
	return it, nil
}
