// Package scope resolves which recognized sections a criterion applies to.
package scope

import (
	"github.com/dgallion1/docreview/internal/rubric"
	"github.com/dgallion1/docreview/internal/sections"
)

// DefaultSections returns the fallback identifiers per rule type, used by
// specific_sections criteria that have no mappings.
func DefaultSections() map[rubric.RuleType][]string {
	return map[rubric.RuleType][]string{
		rubric.RuleTextual: {
			"inleiding", "probleemstelling", "doelstelling", "methode",
			"conclusie", "aanbevelingen", "samenvatting",
		},
		rubric.RuleStructural: {
			"inleiding", "probleemstelling", "doelstelling", "onderzoeksvragen",
			"methode", "planning", "conclusie", "aanbevelingen", "bijlagen", "literatuur",
		},
		rubric.RuleContent: {
			"probleemstelling", "doelstelling", "onderzoeksvragen", "methode",
			"resultaten", "discussie", "conclusie",
		},
	}
}

// Resolver computes applicable sections. It holds no per-run state.
type Resolver struct {
	defaults map[rubric.RuleType][]string
}

// NewResolver uses the given defaults, or DefaultSections when nil.
func NewResolver(defaults map[rubric.RuleType][]string) *Resolver {
	if defaults == nil {
		defaults = DefaultSections()
	}
	return &Resolver{defaults: defaults}
}

// Resolve returns the sections c applies to, in recognized-section order.
// Only found sections qualify, except for required_section criteria, which
// must also see the templates that were never matched. The virtual
// document section is returned only for document_only scope. Excluded
// mappings are always removed from the result.
func (r *Resolver) Resolve(c rubric.Criterion, mappings []rubric.CriterionSectionMapping, set *sections.Set) []*sections.RecognizedSection {
	if c.Scope == rubric.ScopeDocumentOnly {
		return []*sections.RecognizedSection{&set.Document}
	}

	included := make(map[string]bool)
	excluded := make(map[string]bool)
	for _, m := range mappings {
		if m.IsExcluded {
			excluded[m.SectionIdentifier] = true
		} else {
			included[m.SectionIdentifier] = true
		}
	}

	var allow func(id string) bool
	switch c.Scope {
	case rubric.ScopeAll:
		allow = func(string) bool { return true }
	case rubric.ScopeExcludeSections:
		allow = func(id string) bool { return !excluded[id] }
	case rubric.ScopeSpecificSections:
		if len(mappings) == 0 {
			for _, id := range r.defaults[c.RuleType] {
				included[id] = true
			}
		}
		allow = func(id string) bool { return included[id] }
	default:
		return nil
	}

	var out []*sections.RecognizedSection
	for i := range set.Sections {
		s := &set.Sections[i]
		if s.IsDocument() || !allow(s.Identifier) || excluded[s.Identifier] {
			continue
		}
		if !s.Found && c.Kind != rubric.KindRequiredSection {
			continue
		}
		out = append(out, s)
	}
	return out
}
