package criteria

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/docreview/internal/rubric"
	"github.com/dgallion1/docreview/internal/sections"
	"github.com/dgallion1/docreview/internal/textmatch"
)

// hintSimilarity is the minimum similarity for suggesting a found heading
// as the intended home of a missing section.
const hintSimilarity = 0.3

// boundsCheck compares a measured count with the criterion's bounds.
// It returns nil when the criterion sets no bounds.
func boundsCheck(c rubric.Criterion, sec *sections.RecognizedSection, n int, unit string, confidence float64) *FeedbackItem {
	if c.ExpectedMin == nil && c.ExpectedMax == nil {
		return nil
	}
	if c.ExpectedMin != nil && float64(n) < *c.ExpectedMin {
		return failItem(c, sec, rubric.SeverityViolation,
			fmt.Sprintf("%s has %d %s; at least %.0f expected", sec.Name, n, unit, *c.ExpectedMin),
			fmt.Sprintf("Expand %s. Current: %d %s, required: %.0f.", sec.Name, n, unit, *c.ExpectedMin),
			confidence)
	}
	if c.ExpectedMax != nil && float64(n) > *c.ExpectedMax {
		return failItem(c, sec, rubric.SeverityViolation,
			fmt.Sprintf("%s has %d %s; at most %.0f allowed", sec.Name, n, unit, *c.ExpectedMax),
			fmt.Sprintf("Shorten %s. Current: %d %s, maximum: %.0f.", sec.Name, n, unit, *c.ExpectedMax),
			confidence)
	}
	return okItem(c, sec, fmt.Sprintf("%s has %d %s", sec.Name, n, unit))
}

func checkWordCount(_ context.Context, _ *Evaluator, c rubric.Criterion, sec *sections.RecognizedSection, _ *Input) (*FeedbackItem, error) {
	if !sec.Found {
		return nil, nil
	}
	return boundsCheck(c, sec, sec.WordCount, "words", 0.8), nil
}

func checkParagraphCount(_ context.Context, _ *Evaluator, c rubric.Criterion, sec *sections.RecognizedSection, _ *Input) (*FeedbackItem, error) {
	if !sec.Found {
		return nil, nil
	}
	return boundsCheck(c, sec, len(splitParagraphs(sec)), "paragraphs", 0.9), nil
}

func checkHeadingCount(_ context.Context, _ *Evaluator, c rubric.Criterion, sec *sections.RecognizedSection, in *Input) (*FeedbackItem, error) {
	if !sec.Found {
		return nil, nil
	}
	n := len(sec.Headings)
	if sec.IsDocument() && in.Doc != nil {
		n = len(in.Doc.Headings)
	}
	if it := boundsCheck(c, sec, n, "headings", 0.9); it != nil {
		return it, nil
	}
	if n == 0 {
		return failItem(c, sec, rubric.SeverityWarning,
			fmt.Sprintf("%s has no sub-headings", sec.Name),
			"Structure the text with sub-headings.", 0.6), nil
	}
	return okItem(c, sec, fmt.Sprintf("%s has %d headings", sec.Name, n)), nil
}

func checkRequiredSection(_ context.Context, _ *Evaluator, c rubric.Criterion, sec *sections.RecognizedSection, in *Input) (*FeedbackItem, error) {
	if sec.IsDocument() || !sec.IsRequired {
		return nil, nil
	}
	if sec.Found {
		return okItem(c, sec, fmt.Sprintf("Required section %q is present", sec.Name)), nil
	}
	it := failItem(c, sec, rubric.SeverityViolation,
		fmt.Sprintf("Required section %q was not found", sec.Name),
		missingSectionHint(sec, in), 1.0)
	it.Location = DocumentLocation
	return it, nil
}

// missingSectionHint suggests accepted headings and, when one exists, the
// found heading that most resembles the missing section.
func missingSectionHint(sec *sections.RecognizedSection, in *Input) string {
	hint := fmt.Sprintf("Add a section with the heading %q.", sec.Name)
	var aliases []string
	for i := range in.Templates {
		if in.Templates[i].Identifier == sec.Identifier {
			aliases = in.Templates[i].AlternativeNames
			break
		}
	}
	if len(aliases) > 0 {
		hint += fmt.Sprintf(" Accepted alternatives: %s.", quoteList(aliases))
	}
	if in.Doc == nil {
		return hint
	}

	claimed := make(map[int]bool)
	if in.Sections != nil {
		for _, s := range in.Sections.Sections {
			if s.Found {
				claimed[s.StartChar] = true
			}
		}
	}
	best, bestScore := "", hintSimilarity
	for _, h := range in.Doc.Headings {
		if claimed[h.StartChar] {
			continue
		}
		cleaned := textmatch.CleanHeading(h.Text)
		score := textmatch.Similarity(cleaned, sec.Name)
		for _, a := range aliases {
			score = max(score, textmatch.Similarity(cleaned, a))
		}
		if score > bestScore {
			best, bestScore = h.Text, score
		}
	}
	if best != "" {
		hint += fmt.Sprintf(" The heading %q may be intended as this section.", best)
	}
	return hint
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = strconv.Quote(s)
	}
	return strings.Join(quoted, ", ")
}

const (
	defaultFirstSection  = "inleiding"
	defaultSecondSection = "methode"
)

// checkSectionOrder verifies that Params.First starts before Params.Second.
func checkSectionOrder(_ context.Context, _ *Evaluator, c rubric.Criterion, sec *sections.RecognizedSection, in *Input) (*FeedbackItem, error) {
	if in.Sections == nil {
		return nil, fmt.Errorf("section order: no recognized sections")
	}
	firstID := c.Params.First
	if firstID == "" {
		firstID = defaultFirstSection
	}
	secondID := c.Params.Second
	if secondID == "" {
		secondID = defaultSecondSection
	}

	first, ok1 := in.Sections.Lookup(firstID)
	second, ok2 := in.Sections.Lookup(secondID)
	if !ok1 || !ok2 || !first.Found || !second.Found {
		it := newItem(c, sec, rubric.StatusInfo,
			fmt.Sprintf("Order of %q and %q could not be checked: section missing", firstID, secondID),
			"", 0.5)
		return it, nil
	}
	// The section list is sorted by order_index, so list position would
	// only mirror rubric order; document offsets show the actual order.
	if first.StartChar > second.StartChar {
		it := failItem(c, sec, rubric.SeverityViolation,
			fmt.Sprintf("%s appears after %s", first.Name, second.Name),
			fmt.Sprintf("Place %s before %s.", first.Name, second.Name), 0.9)
		sp := second.Span()
		it.Span = &sp
		return it, nil
	}
	return okItem(c, sec, fmt.Sprintf("%s precedes %s", first.Name, second.Name)), nil
}
