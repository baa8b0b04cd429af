package criteria

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docreview/internal/doctree"
	"github.com/dgallion1/docreview/internal/rubric"
	"github.com/dgallion1/docreview/internal/sections"
	"github.com/dgallion1/docreview/internal/textmatch"
)

// DefaultPersonalTerms are the first-person pronouns flagged in formal writing.
var DefaultPersonalTerms = []string{"ik", "mij", "me", "mijn", "wij", "we", "ons", "onze"}

// termHits scans content for whole-word terms. It returns the distinct
// terms found, in list order, and the content offset of the earliest hit.
func termHits(content string, terms []string) ([]string, int) {
	var found []string
	first := -1
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		idx := textmatch.IndexWord(content, t)
		if idx < 0 {
			continue
		}
		found = append(found, t)
		if first < 0 || idx < first {
			first = idx
		}
	}
	return found, first
}

func checkPersonalLanguage(_ context.Context, _ *Evaluator, c rubric.Criterion, sec *sections.RecognizedSection, _ *Input) (*FeedbackItem, error) {
	if !sec.Found || sec.Content == "" {
		return nil, nil
	}
	terms := c.Params.Terms
	if len(terms) == 0 {
		terms = DefaultPersonalTerms
	}
	found, first := termHits(sec.Content, terms)
	if len(found) == 0 {
		return okItem(c, sec, fmt.Sprintf("No personal language in %s", sec.Name)), nil
	}
	it := failItem(c, sec, rubric.SeverityWarning,
		fmt.Sprintf("Personal language in %s: %s", sec.Name, strings.Join(found, ", ")),
		"Write in an impersonal, businesslike style without first-person pronouns.", 0.7)
	if sp := spanAt(sec, first); sp != nil {
		it.Span = sp
	}
	it.Details = map[string]any{"terms": found}
	return it, nil
}

func checkForbiddenPhrases(_ context.Context, _ *Evaluator, c rubric.Criterion, sec *sections.RecognizedSection, _ *Input) (*FeedbackItem, error) {
	if !sec.Found || len(c.Params.Terms) == 0 {
		return nil, nil
	}
	found, first := termHits(sec.Content, c.Params.Terms)
	if len(found) == 0 {
		return okItem(c, sec, fmt.Sprintf("No forbidden phrases in %s", sec.Name)), nil
	}
	it := failItem(c, sec, rubric.SeverityWarning,
		fmt.Sprintf("Avoid %s in %s", quoteList(found), sec.Name),
		"Rephrase the passage without these words.", 0.8)
	if sp := spanAt(sec, first); sp != nil {
		it.Span = sp
	}
	it.Details = map[string]any{"terms": found}
	return it, nil
}

var legalCitationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bop grond van art\.?`),
	regexp.MustCompile(`(?i)\bartikel \d+`),
	regexp.MustCompile(`(?i)\bart\. \d+`),
	regexp.MustCompile(`(?i)\blid \d+:`),
	regexp.MustCompile(`(?i)\bin artikel \d+`),
	regexp.MustCompile(`(?i)\bconform artikel \d+`),
}

func citesLaw(text string) bool {
	for _, re := range legalCitationPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// checkLegalCitation flags paragraphs that quote statute text and points
// at the first one.
func checkLegalCitation(_ context.Context, _ *Evaluator, c rubric.Criterion, sec *sections.RecognizedSection, in *Input) (*FeedbackItem, error) {
	if !sec.Found {
		return nil, nil
	}
	var first *doctree.Span
	hits := 0
	for _, p := range bodyParagraphs(sec, in) {
		if !citesLaw(p.Text) {
			continue
		}
		hits++
		if first == nil {
			first = p.span()
		}
	}
	if hits == 0 {
		return okItem(c, sec, fmt.Sprintf("No literal statute quotes in %s", sec.Name)), nil
	}
	it := failItem(c, sec, rubric.SeverityWarning,
		"Do not quote statute text literally",
		"Paraphrase the provision and refer to the article instead of copying it.", 0.7)
	it.Span = first
	it.Details = map[string]any{"paragraphs": hits}
	return it, nil
}

const (
	shortParagraphMin = 150
	shortParagraphMax = 350
	longParagraphMin  = 1200
)

// checkParagraphLength flags rather short and rather long body paragraphs.
// ExpectedMin and ExpectedMax override the short and long thresholds.
func checkParagraphLength(_ context.Context, _ *Evaluator, c rubric.Criterion, sec *sections.RecognizedSection, in *Input) (*FeedbackItem, error) {
	if !sec.Found {
		return nil, nil
	}
	shortMax, longMin := shortParagraphMax, longParagraphMin
	if c.ExpectedMin != nil {
		shortMax = int(*c.ExpectedMin)
	}
	if c.ExpectedMax != nil {
		longMin = int(*c.ExpectedMax)
	}

	var first *paragraph
	var firstLen, short, long int
	for _, p := range bodyParagraphs(sec, in) {
		n := utf8.RuneCountInString(p.Text)
		switch {
		case n >= shortParagraphMin && n <= shortMax:
			short++
		case n > longMin:
			long++
		default:
			continue
		}
		if first == nil {
			first = &p
			firstLen = n
		}
	}
	if first == nil {
		return okItem(c, sec, fmt.Sprintf("Paragraph lengths in %s are fine", sec.Name)), nil
	}

	msg := fmt.Sprintf("Rather long paragraph (%d characters)", firstLen)
	suggestion := "Split the paragraph into smaller units around one idea each."
	if firstLen <= shortMax {
		msg = fmt.Sprintf("Rather short paragraph (%d characters)", firstLen)
		suggestion = "Expand the paragraph or merge it with a neighbouring one."
	}
	it := failItem(c, sec, rubric.SeverityWarning, msg, suggestion, 0.6)
	it.Span = first.span()
	it.Details = map[string]any{"short": short, "long": long}
	return it, nil
}
