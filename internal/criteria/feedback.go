// Package criteria evaluates a single criterion against a single
// recognized section and turns the outcome into a feedback item.
package criteria

import (
	"errors"
	"regexp"
	"strings"

	"github.com/dgallion1/docreview/internal/doctree"
	"github.com/dgallion1/docreview/internal/rubric"
	"github.com/dgallion1/docreview/internal/sections"
)

// ErrUnknownRuleKind is returned for criteria whose kind has no check.
var ErrUnknownRuleKind = errors.New("unknown rule kind")

// DocumentLocation is the location label of whole-document findings.
const DocumentLocation = "Document"

// FeedbackItem is one evaluated (criterion, section) outcome.
type FeedbackItem struct {
	CriterionID       int64          `json:"criterion_id"`
	CriterionName     string         `json:"criterion_name"`
	SectionIdentifier *string        `json:"section_identifier"`
	Status            rubric.Status  `json:"status"`
	Message           string         `json:"message"`
	Suggestion        string         `json:"suggestion"`
	Confidence        float64        `json:"confidence"`
	Location          string         `json:"location"`
	Span              *doctree.Span  `json:"span,omitempty"`
	Details           map[string]any `json:"details,omitempty"`
}

// Section returns the section identifier, or "" for document-level items.
func (f *FeedbackItem) Section() string {
	if f.SectionIdentifier == nil {
		return ""
	}
	return *f.SectionIdentifier
}

// Input is the document-level state checks may consult.
type Input struct {
	Doc       *doctree.ParsedDocument
	Sections  *sections.Set
	Templates []rubric.SectionTemplate
}

func location(sec *sections.RecognizedSection) string {
	if sec == nil || sec.IsDocument() {
		return DocumentLocation
	}
	return "Section: " + sec.Name
}

// newItem builds an item anchored at sec. Found, non-document sections
// contribute their span.
func newItem(c rubric.Criterion, sec *sections.RecognizedSection, status rubric.Status, msg, suggestion string, confidence float64) *FeedbackItem {
	it := &FeedbackItem{
		CriterionID:   c.ID,
		CriterionName: c.Name,
		Status:        status,
		Message:       msg,
		Suggestion:    suggestion,
		Confidence:    confidence,
		Location:      location(sec),
	}
	if sec != nil && !sec.IsDocument() {
		id := sec.Identifier
		it.SectionIdentifier = &id
		if sec.Found {
			sp := sec.Span()
			it.Span = &sp
		}
	}
	return it
}

// okItem records a passing check.
func okItem(c rubric.Criterion, sec *sections.RecognizedSection, msg string) *FeedbackItem {
	return newItem(c, sec, rubric.StatusOK, msg, "", 1.0)
}

// failItem records a failing check with the criterion's severity (or def),
// its configured message and its fixed feedback text when present.
func failItem(c rubric.Criterion, sec *sections.RecognizedSection, def rubric.Severity, msg, suggestion string, confidence float64) *FeedbackItem {
	return newItem(c, sec, c.SeverityOr(def).Status(), c.MessageOr(msg), c.SuggestionOr(suggestion), confidence)
}

// Diagnostic builds the info item reported when a criterion cannot be evaluated.
func Diagnostic(c rubric.Criterion, sec *sections.RecognizedSection, msg string) *FeedbackItem {
	return newItem(c, sec, rubric.StatusInfo, msg, "", 0)
}

var paragraphBreakRe = regexp.MustCompile(`\n\s*\n+`)

// paragraph is a slice of section content with its absolute offset.
type paragraph struct {
	Text  string
	Start int
}

func (p paragraph) span() *doctree.Span {
	return &doctree.Span{Start: p.Start, End: p.Start + len(p.Text)}
}

// splitParagraphs cuts section content on blank lines, keeping offsets
// into the document's FullText.
func splitParagraphs(sec *sections.RecognizedSection) []paragraph {
	content := sec.Content
	var out []paragraph
	add := func(from, to int) {
		raw := content[from:to]
		trimmed := strings.TrimLeft(raw, " \t\r\n")
		start := from + len(raw) - len(trimmed)
		trimmed = strings.TrimRight(trimmed, " \t\r\n")
		if trimmed != "" {
			out = append(out, paragraph{Text: trimmed, Start: sec.ContentStart + start})
		}
	}
	prev := 0
	for _, loc := range paragraphBreakRe.FindAllStringIndex(content, -1) {
		add(prev, loc[0])
		prev = loc[1]
	}
	add(prev, len(content))
	return out
}

// bodyParagraphs drops paragraphs that are headings.
func bodyParagraphs(sec *sections.RecognizedSection, in *Input) []paragraph {
	headings := sec.Headings
	if sec.IsDocument() && in != nil && in.Doc != nil {
		headings = in.Doc.Headings
	}
	isHeading := make(map[int]bool, len(headings))
	for _, h := range headings {
		isHeading[h.StartChar] = true
	}
	var out []paragraph
	for _, p := range splitParagraphs(sec) {
		if !isHeading[p.Start] {
			out = append(out, p)
		}
	}
	return out
}

// spanAt returns the span of the paragraph holding the content offset off.
func spanAt(sec *sections.RecognizedSection, off int) *doctree.Span {
	abs := sec.ContentStart + off
	for _, p := range splitParagraphs(sec) {
		if abs >= p.Start && abs < p.Start+len(p.Text) {
			return p.span()
		}
	}
	return nil
}
