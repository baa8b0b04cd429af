package rubric

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownDocumentType is returned when no rubric exists for a document type.
var ErrUnknownDocumentType = errors.New("unknown document type")

// Rubric is the full configuration for one document type. Once validated
// it is treated as an immutable snapshot; use Clone before mutating.
type Rubric struct {
	DocumentType string                    `yaml:"document_type" json:"document_type"`
	Name         string                    `yaml:"name" json:"name"`
	Description  string                    `yaml:"description,omitempty" json:"description,omitempty"`
	Templates    []SectionTemplate         `yaml:"sections" json:"sections"`
	Criteria     []Criterion               `yaml:"criteria" json:"criteria"`
	Mappings     []CriterionSectionMapping `yaml:"mappings,omitempty" json:"mappings,omitempty"`
}

// legacyRuleTypes accepts the Dutch rule type names used by older exports.
var legacyRuleTypes = map[string]RuleType{
	"tekstueel":   RuleTextual,
	"structureel": RuleStructural,
	"inhoudelijk": RuleContent,
	"referenties": RuleContent,
}

// UnmarshalYAML accepts English and legacy Dutch rule type names.
func (r *RuleType) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if rt, ok := legacyRuleTypes[s]; ok {
		*r = rt
		return nil
	}
	*r = RuleType(s)
	return nil
}

// UnmarshalYAML fills defaults for fields a rubric author usually omits.
func (c *Criterion) UnmarshalYAML(value *yaml.Node) error {
	type plain Criterion
	p := plain{
		Enabled:       true,
		Scope:         ScopeAll,
		FrequencyUnit: UnitSection,
	}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*c = Criterion(p)
	return nil
}

// Validate checks the rubric and prepares it for evaluation: template
// patterns are compiled and criteria without an explicit kind get one
// inferred from their legacy name.
func (r *Rubric) Validate() error {
	if r.DocumentType == "" {
		return errors.New("rubric: document_type is required")
	}

	seen := make(map[string]bool, len(r.Templates))
	ids := make(map[int64]bool, len(r.Templates))
	for i := range r.Templates {
		t := &r.Templates[i]
		if t.Identifier == "" {
			return fmt.Errorf("rubric %s: section %d has no identifier", r.DocumentType, i)
		}
		if t.Identifier == "document" {
			return fmt.Errorf("rubric %s: section identifier %q is reserved", r.DocumentType, t.Identifier)
		}
		if seen[t.Identifier] {
			return fmt.Errorf("rubric %s: duplicate section identifier %q", r.DocumentType, t.Identifier)
		}
		seen[t.Identifier] = true
		if t.ID == 0 {
			t.ID = int64(i + 1)
		}
		if ids[t.ID] {
			return fmt.Errorf("rubric %s: duplicate section id %d", r.DocumentType, t.ID)
		}
		ids[t.ID] = true
		if t.Name == "" {
			t.Name = t.Identifier
		}
		if t.Level < 1 {
			t.Level = 1
		}
		if err := t.compile(); err != nil {
			return fmt.Errorf("rubric %s: %w", r.DocumentType, err)
		}
	}

	crit := make(map[int64]bool, len(r.Criteria))
	for i := range r.Criteria {
		c := &r.Criteria[i]
		if c.ID == 0 {
			c.ID = int64(i + 1)
		}
		if crit[c.ID] {
			return fmt.Errorf("rubric %s: duplicate criterion id %d", r.DocumentType, c.ID)
		}
		crit[c.ID] = true
		if c.Kind == "" {
			c.Kind = InferKind(*c)
		}
		if !c.Kind.Valid() {
			return fmt.Errorf("rubric %s: criterion %d: unknown kind %q", r.DocumentType, c.ID, c.Kind)
		}
		if c.RuleType == "" {
			c.RuleType = c.Kind.RuleType()
		}
		if err := validateCriterion(c); err != nil {
			return fmt.Errorf("rubric %s: criterion %d: %w", r.DocumentType, c.ID, err)
		}
	}

	for _, m := range r.Mappings {
		if !crit[m.CriterionID] {
			return fmt.Errorf("rubric %s: mapping references unknown criterion %d", r.DocumentType, m.CriterionID)
		}
		if m.SectionIdentifier == "" {
			return fmt.Errorf("rubric %s: mapping for criterion %d has no section", r.DocumentType, m.CriterionID)
		}
	}
	return nil
}

func validateCriterion(c *Criterion) error {
	switch c.RuleType {
	case RuleTextual, RuleStructural, RuleContent:
	default:
		return fmt.Errorf("unknown rule_type %q", c.RuleType)
	}
	switch c.Scope {
	case ScopeDocumentOnly, ScopeAll, ScopeSpecificSections, ScopeExcludeSections:
	default:
		return fmt.Errorf("unknown application_scope %q", c.Scope)
	}
	switch c.Severity {
	case "", SeverityInfo, SeverityWarning, SeverityViolation:
	default:
		return fmt.Errorf("unknown severity %q", c.Severity)
	}
	switch c.FrequencyUnit {
	case UnitDocument, UnitSection, UnitParagraph:
	default:
		return fmt.Errorf("unknown frequency_unit %q", c.FrequencyUnit)
	}
	if c.MaxMentionsPer < 0 {
		return fmt.Errorf("max_mentions_per must be >= 0, got %d", c.MaxMentionsPer)
	}
	if c.ExpectedMin != nil && c.ExpectedMax != nil && *c.ExpectedMin > *c.ExpectedMax {
		return fmt.Errorf("expected_value_min %.0f exceeds expected_value_max %.0f", *c.ExpectedMin, *c.ExpectedMax)
	}
	return nil
}

// MappingsFor returns the mappings of one criterion in rubric order.
func (r *Rubric) MappingsFor(criterionID int64) []CriterionSectionMapping {
	var out []CriterionSectionMapping
	for _, m := range r.Mappings {
		if m.CriterionID == criterionID {
			out = append(out, m)
		}
	}
	return out
}

// Clone returns a deep copy so callers can hand the engine a snapshot
// that later edits cannot reach.
func (r *Rubric) Clone() *Rubric {
	out := *r
	out.Templates = make([]SectionTemplate, len(r.Templates))
	for i, t := range r.Templates {
		t.AlternativeNames = append([]string(nil), t.AlternativeNames...)
		if t.ParentID != nil {
			p := *t.ParentID
			t.ParentID = &p
		}
		out.Templates[i] = t
	}
	out.Criteria = make([]Criterion, len(r.Criteria))
	for i, c := range r.Criteria {
		if c.ExpectedMin != nil {
			v := *c.ExpectedMin
			c.ExpectedMin = &v
		}
		if c.ExpectedMax != nil {
			v := *c.ExpectedMax
			c.ExpectedMax = &v
		}
		c.Params.Markers = append([]string(nil), c.Params.Markers...)
		c.Params.ReferenceMarkers = append([]string(nil), c.Params.ReferenceMarkers...)
		c.Params.Terms = append([]string(nil), c.Params.Terms...)
		out.Criteria[i] = c
	}
	out.Mappings = append([]CriterionSectionMapping(nil), r.Mappings...)
	return &out
}
