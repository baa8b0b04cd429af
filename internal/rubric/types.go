// Package rubric defines the configuration a document is reviewed
// against: expected section templates, criteria and the mappings between
// them, grouped per document type.
package rubric

import (
	"fmt"
	"regexp"
)

// RuleType groups criteria by what they inspect.
type RuleType string

const (
	RuleTextual    RuleType = "textual"
	RuleStructural RuleType = "structural"
	RuleContent    RuleType = "content"
)

// Scope controls which sections a criterion applies to.
type Scope string

const (
	ScopeDocumentOnly     Scope = "document_only"
	ScopeAll              Scope = "all"
	ScopeSpecificSections Scope = "specific_sections"
	ScopeExcludeSections  Scope = "exclude_sections"
)

// Severity is the status a failing criterion reports.
type Severity string

const (
	SeverityInfo      Severity = "info"
	SeverityWarning   Severity = "warning"
	SeverityViolation Severity = "violation"
)

// Status is the outcome of one evaluated criterion.
type Status string

const (
	StatusOK        Status = "ok"
	StatusInfo      Status = "info"
	StatusWarning   Status = "warning"
	StatusViolation Status = "violation"
)

// Status converts a severity into the status a failing check reports.
func (s Severity) Status() Status {
	switch s {
	case SeverityInfo:
		return StatusInfo
	case SeverityViolation:
		return StatusViolation
	default:
		return StatusWarning
	}
}

// FrequencyUnit is the granularity at which repeated feedback is capped.
type FrequencyUnit string

const (
	UnitDocument  FrequencyUnit = "document"
	UnitSection   FrequencyUnit = "section"
	UnitParagraph FrequencyUnit = "paragraph"
)

// RuleKind selects the check a criterion runs.
type RuleKind string

const (
	KindWordCount        RuleKind = "word_count"
	KindParagraphCount   RuleKind = "paragraph_count"
	KindHeadingCount     RuleKind = "heading_count"
	KindRequiredSection  RuleKind = "required_section"
	KindSectionOrder     RuleKind = "section_order"
	KindPersonalLanguage RuleKind = "personal_language"
	KindForbiddenPhrases RuleKind = "forbidden_phrases"
	KindLegalCitation    RuleKind = "legal_citation"
	KindParagraphLength  RuleKind = "paragraph_length"
	KindSMART            RuleKind = "smart"
	KindConsistency      RuleKind = "consistency"
	KindSourceUsage      RuleKind = "source_usage"
	KindCritique         RuleKind = "critique"
)

var ruleTypeOf = map[RuleKind]RuleType{
	KindWordCount:        RuleStructural,
	KindParagraphCount:   RuleStructural,
	KindHeadingCount:     RuleStructural,
	KindRequiredSection:  RuleStructural,
	KindSectionOrder:     RuleStructural,
	KindPersonalLanguage: RuleTextual,
	KindForbiddenPhrases: RuleTextual,
	KindLegalCitation:    RuleTextual,
	KindParagraphLength:  RuleTextual,
	KindSMART:            RuleContent,
	KindConsistency:      RuleContent,
	KindSourceUsage:      RuleContent,
	KindCritique:         RuleContent,
}

// Valid reports whether k is a known rule kind.
func (k RuleKind) Valid() bool {
	_, ok := ruleTypeOf[k]
	return ok
}

// RuleType returns the rule type a kind belongs to.
func (k RuleKind) RuleType() RuleType { return ruleTypeOf[k] }

// SectionTemplate is an expected section of a document type.
type SectionTemplate struct {
	ID               int64    `yaml:"id" json:"id"`
	Identifier       string   `yaml:"identifier" json:"identifier"`
	Name             string   `yaml:"name" json:"name"`
	AlternativeNames []string `yaml:"alternative_names,omitempty" json:"alternative_names,omitempty"`
	Pattern          string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	ParentID         *int64   `yaml:"parent_id,omitempty" json:"parent_id,omitempty"`
	OrderIndex       int      `yaml:"order_index" json:"order_index"`
	Level            int      `yaml:"level" json:"level"`
	IsRequired       bool     `yaml:"is_required" json:"is_required"`

	re *regexp.Regexp
}

// Regexp returns the compiled case-insensitive pattern, or nil.
func (t *SectionTemplate) Regexp() *regexp.Regexp { return t.re }

func (t *SectionTemplate) compile() error {
	t.re = nil
	if t.Pattern == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + t.Pattern)
	if err != nil {
		return fmt.Errorf("section %q: pattern: %w", t.Identifier, err)
	}
	t.re = re
	return nil
}

// Params carries kind-specific settings.
type Params struct {
	// section_order: First must precede Second.
	First  string `yaml:"first,omitempty" json:"first,omitempty"`
	Second string `yaml:"second,omitempty" json:"second,omitempty"`

	// consistency: Markers must occur in the evaluated section and
	// ReferenceMarkers in the Reference section.
	Reference        string   `yaml:"reference,omitempty" json:"reference,omitempty"`
	Markers          []string `yaml:"markers,omitempty" json:"markers,omitempty"`
	ReferenceMarkers []string `yaml:"reference_markers,omitempty" json:"reference_markers,omitempty"`

	// personal_language and forbidden_phrases word lists.
	Terms []string `yaml:"terms,omitempty" json:"terms,omitempty"`

	// source_usage: one reference expected per WordsPerReference words.
	WordsPerReference int `yaml:"words_per_reference,omitempty" json:"words_per_reference,omitempty"`
}

// Criterion is one rule of a rubric.
type Criterion struct {
	ID                int64         `yaml:"id" json:"id"`
	Name              string        `yaml:"name" json:"name"`
	Description       string        `yaml:"description,omitempty" json:"description,omitempty"`
	RuleType          RuleType      `yaml:"rule_type" json:"rule_type"`
	Kind              RuleKind      `yaml:"kind" json:"kind"`
	Scope             Scope         `yaml:"application_scope" json:"application_scope"`
	Severity          Severity      `yaml:"severity,omitempty" json:"severity,omitempty"`
	FrequencyUnit     FrequencyUnit `yaml:"frequency_unit" json:"frequency_unit"`
	MaxMentionsPer    int           `yaml:"max_mentions_per" json:"max_mentions_per"`
	ExpectedMin       *float64      `yaml:"expected_value_min,omitempty" json:"expected_value_min,omitempty"`
	ExpectedMax       *float64      `yaml:"expected_value_max,omitempty" json:"expected_value_max,omitempty"`
	ErrorMessage      string        `yaml:"error_message,omitempty" json:"error_message,omitempty"`
	FixedFeedbackText string        `yaml:"fixed_feedback_text,omitempty" json:"fixed_feedback_text,omitempty"`
	Enabled           bool          `yaml:"is_enabled" json:"is_enabled"`
	Params            Params        `yaml:"params,omitempty" json:"params,omitempty"`
}

// SeverityOr returns the configured severity, or def when unset.
func (c Criterion) SeverityOr(def Severity) Severity {
	if c.Severity == "" {
		return def
	}
	return c.Severity
}

// MessageOr returns the configured error message, or def when unset.
func (c Criterion) MessageOr(def string) string {
	if c.ErrorMessage == "" {
		return def
	}
	return c.ErrorMessage
}

// SuggestionOr returns the fixed feedback text, or def when unset.
func (c Criterion) SuggestionOr(def string) string {
	if c.FixedFeedbackText == "" {
		return def
	}
	return c.FixedFeedbackText
}

// CriterionSectionMapping links a criterion to a section identifier.
type CriterionSectionMapping struct {
	CriterionID       int64   `yaml:"criterion_id" json:"criterion_id"`
	SectionIdentifier string  `yaml:"section" json:"section_identifier"`
	IsExcluded        bool    `yaml:"is_excluded,omitempty" json:"is_excluded"`
	Weight            float64 `yaml:"weight,omitempty" json:"weight"`
}
