// Package sections locates rubric section templates inside a parsed
// document and computes their boundaries and content.
package sections

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/docreview/internal/doctree"
	"github.com/dgallion1/docreview/internal/rubric"
	"github.com/dgallion1/docreview/internal/textmatch"
)

// DocumentIdentifier names the virtual whole-document section.
const DocumentIdentifier = "document"

// Confidence assigned to every heading-based match.
const matchConfidence = 0.95

// Precondition errors. The boundary scan relies on ordered, disjoint headings.
var (
	ErrUnsortedHeadings    = errors.New("headings are not sorted by start offset")
	ErrInvalidHeading      = errors.New("heading span is invalid")
	ErrOverlappingHeadings = errors.New("heading spans overlap")
)

var (
	wordRe             = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	defaultNonSections = regexp.MustCompile(`(?i)^(tabel|table|vraagschema|figuur|figure)\s+\d+(\.\d+)*`)
)

// DuplicatePolicy decides what happens when two headings match one template.
type DuplicatePolicy string

const (
	LastMatchWins  DuplicatePolicy = "last"
	FirstMatchWins DuplicatePolicy = "first"
)

// Options tunes recognition. The zero value is usable.
type Options struct {
	Duplicates DuplicatePolicy
	// FuzzyThreshold is the minimum similarity for fuzzy matches.
	// Zero selects the default; a negative value disables fuzzy matching.
	FuzzyThreshold float64
	// NonSection overrides the prefix pattern for headings that are never sections.
	NonSection *regexp.Regexp
	Logger     *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Duplicates == "" {
		o.Duplicates = LastMatchWins
	}
	if o.FuzzyThreshold == 0 {
		o.FuzzyThreshold = textmatch.DefaultFuzzyThreshold
	}
	if o.NonSection == nil {
		o.NonSection = defaultNonSections
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// RecognizedSection is the result for one template. Offsets are byte
// offsets into the document's FullText and are zero when Found is false.
type RecognizedSection struct {
	Identifier   string            `json:"identifier"`
	Name         string            `json:"name"`
	DBID         int64             `json:"db_id"`
	Found        bool              `json:"found"`
	Content      string            `json:"content"`
	WordCount    int               `json:"word_count"`
	Confidence   float64           `json:"confidence"`
	Headings     []doctree.Heading `json:"headings"`
	Level        int               `json:"level"`
	OrderIndex   int               `json:"order_index"`
	ParentID     *int64            `json:"parent_id,omitempty"`
	IsRequired   bool              `json:"is_required"`
	FoundLevel   int               `json:"found_level,omitempty"`
	HeadingText  string            `json:"heading_text,omitempty"`
	MatchMethod  textmatch.Method  `json:"match_method,omitempty"`
	StartChar    int               `json:"start_char"`
	EndChar      int               `json:"end_char"`
	ContentStart int               `json:"content_start"`
}

// Span returns the section's byte range in FullText.
func (s *RecognizedSection) Span() doctree.Span {
	return doctree.Span{Start: s.StartChar, End: s.EndChar}
}

// IsDocument reports whether s is the virtual whole-document section.
func (s *RecognizedSection) IsDocument() bool { return s.Identifier == DocumentIdentifier }

type boundary struct {
	start, end int
	level      int
	heading    int // index into headings
	method     textmatch.Method
}

// Recognize matches headings against templates and returns one section per
// template, sorted by (order_index, level). Unmatched headings are skipped;
// templates without a match are returned with Found=false.
func Recognize(doc *doctree.ParsedDocument, templates []rubric.SectionTemplate, opts Options) ([]RecognizedSection, error) {
	if err := ValidateHeadings(doc); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	targets := make([]textmatch.Target, len(templates))
	for i := range templates {
		t := &templates[i]
		targets[i] = textmatch.Target{
			Identifier: t.Identifier,
			Name:       t.Name,
			Aliases:    t.AlternativeNames,
			Pattern:    t.Regexp(),
		}
	}

	found := make(map[int]boundary)
	headings := doc.Headings
	for i, h := range headings {
		raw := strings.TrimSpace(h.Text)
		if raw == "" {
			continue
		}
		if opts.NonSection.MatchString(raw) {
			opts.Logger.Debug("skip non-section heading", "heading", raw)
			continue
		}
		cleaned := textmatch.CleanHeading(raw)
		if cleaned == "" {
			continue
		}
		m, ok := textmatch.FindMatch(cleaned, targets, opts.FuzzyThreshold)
		if !ok {
			opts.Logger.Debug("heading matched no section", "heading", raw, "level", h.Level)
			continue
		}
		if prev, dup := found[m.Index]; dup {
			if opts.Duplicates == FirstMatchWins {
				opts.Logger.Debug("duplicate section heading ignored",
					"section", templates[m.Index].Identifier, "heading", raw)
				continue
			}
			opts.Logger.Debug("duplicate section heading replaces earlier match",
				"section", templates[m.Index].Identifier, "heading", raw,
				"previous", headings[prev.heading].Text)
		}
		found[m.Index] = boundary{
			start:   h.StartChar,
			end:     sectionEnd(headings, i, len(doc.FullText)),
			level:   h.Level,
			heading: i,
			method:  m.Method,
		}
	}

	out := make([]RecognizedSection, len(templates))
	for i := range templates {
		t := &templates[i]
		rs := RecognizedSection{
			Identifier: t.Identifier,
			Name:       t.Name,
			DBID:       t.ID,
			Level:      t.Level,
			OrderIndex: t.OrderIndex,
			ParentID:   t.ParentID,
			IsRequired: t.IsRequired,
			Headings:   []doctree.Heading{},
		}
		if b, ok := found[i]; ok {
			fill(&rs, doc, b)
		}
		out[i] = rs
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].OrderIndex != out[b].OrderIndex {
			return out[a].OrderIndex < out[b].OrderIndex
		}
		return out[a].Level < out[b].Level
	})
	return out, nil
}

// sectionEnd is the start of the first later heading at the same or a
// higher level, or the end of the text.
func sectionEnd(headings []doctree.Heading, i, textLen int) int {
	for _, next := range headings[i+1:] {
		if next.Level <= headings[i].Level {
			return next.StartChar
		}
	}
	return textLen
}

func fill(rs *RecognizedSection, doc *doctree.ParsedDocument, b boundary) {
	h := doc.Headings[b.heading]
	body := doc.FullText[b.start:b.end]
	contentStart := b.start
	if rest, ok := strings.CutPrefix(body, h.Text); ok {
		trimmed := strings.TrimLeft(rest, " \t\r\n")
		contentStart = b.end - len(trimmed)
		body = trimmed
	}

	rs.Found = true
	rs.Content = strings.TrimRight(body, " \t\r\n")
	rs.WordCount = CountWords(rs.Content)
	rs.Confidence = matchConfidence
	rs.FoundLevel = b.level
	rs.HeadingText = h.Text
	rs.MatchMethod = b.method
	rs.StartChar = b.start
	rs.EndChar = b.end
	rs.ContentStart = contentStart

	for _, sub := range doc.Headings {
		if sub.StartChar > b.start && sub.StartChar < b.end && sub.Level > b.level {
			rs.Headings = append(rs.Headings, sub)
		}
	}
}

// CountWords counts runs of letters, digits and underscores.
func CountWords(s string) int {
	return len(wordRe.FindAllStringIndex(s, -1))
}

// ValidateHeadings checks that headings are ordered, disjoint and inside FullText.
func ValidateHeadings(doc *doctree.ParsedDocument) error {
	n := len(doc.FullText)
	for i, h := range doc.Headings {
		if h.StartChar < 0 || h.StartChar >= h.EndChar || h.EndChar > n {
			return fmt.Errorf("%w: heading %d %q [%d,%d) in text of length %d",
				ErrInvalidHeading, i, h.Text, h.StartChar, h.EndChar, n)
		}
		if i == 0 {
			continue
		}
		prev := doc.Headings[i-1]
		if h.StartChar < prev.StartChar {
			return fmt.Errorf("%w: heading %d starts at %d before heading %d at %d",
				ErrUnsortedHeadings, i, h.StartChar, i-1, prev.StartChar)
		}
		if h.StartChar < prev.EndChar {
			return fmt.Errorf("%w: heading %d [%d,%d) and heading %d [%d,%d)",
				ErrOverlappingHeadings, i-1, prev.StartChar, prev.EndChar, i, h.StartChar, h.EndChar)
		}
	}
	return nil
}

// DocumentSection builds the virtual section covering the whole text.
func DocumentSection(doc *doctree.ParsedDocument) RecognizedSection {
	return RecognizedSection{
		Identifier: DocumentIdentifier,
		Name:       "Document",
		Found:      true,
		Content:    doc.FullText,
		WordCount:  CountWords(doc.FullText),
		Confidence: 1.0,
		Headings:   []doctree.Heading{},
		EndChar:    len(doc.FullText),
	}
}

// Set bundles recognized sections with the virtual document section.
type Set struct {
	Sections []RecognizedSection
	Document RecognizedSection
}

// NewSet pairs recognition output with its document section.
func NewSet(doc *doctree.ParsedDocument, recognized []RecognizedSection) *Set {
	return &Set{Sections: recognized, Document: DocumentSection(doc)}
}

// Lookup finds a section (found or not) by identifier.
func (s *Set) Lookup(identifier string) (*RecognizedSection, bool) {
	if identifier == DocumentIdentifier {
		return &s.Document, true
	}
	for i := range s.Sections {
		if s.Sections[i].Identifier == identifier {
			return &s.Sections[i], true
		}
	}
	return nil, false
}
