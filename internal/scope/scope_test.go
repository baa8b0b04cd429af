package scope

import (
	"testing"

	"github.com/dgallion1/docreview/internal/rubric"
	"github.com/dgallion1/docreview/internal/sections"
	"github.com/stretchr/testify/assert"
)

func testSet() *sections.Set {
	return &sections.Set{
		Sections: []sections.RecognizedSection{
			{Identifier: "inleiding", Found: true},
			{Identifier: "probleemstelling", Found: true},
			{Identifier: "methode", Found: true},
			{Identifier: "conclusie", Found: false, IsRequired: true},
			{Identifier: "literatuur", Found: true},
		},
		Document: sections.RecognizedSection{Identifier: sections.DocumentIdentifier, Found: true},
	}
}

func ids(secs []*sections.RecognizedSection) []string {
	out := []string{}
	for _, s := range secs {
		out = append(out, s.Identifier)
	}
	return out
}

func TestResolve(t *testing.T) {
	r := NewResolver(nil)

	tests := []struct {
		name     string
		crit     rubric.Criterion
		mappings []rubric.CriterionSectionMapping
		want     []string
	}{
		{
			name: "document only",
			crit: rubric.Criterion{Scope: rubric.ScopeDocumentOnly},
			want: []string{"document"},
		},
		{
			name: "all found sections",
			crit: rubric.Criterion{Scope: rubric.ScopeAll, Kind: rubric.KindWordCount},
			want: []string{"inleiding", "probleemstelling", "methode", "literatuur"},
		},
		{
			name: "required section sees missing templates",
			crit: rubric.Criterion{Scope: rubric.ScopeAll, Kind: rubric.KindRequiredSection},
			want: []string{"inleiding", "probleemstelling", "methode", "conclusie", "literatuur"},
		},
		{
			name: "specific sections in section order",
			crit: rubric.Criterion{Scope: rubric.ScopeSpecificSections},
			mappings: []rubric.CriterionSectionMapping{
				{SectionIdentifier: "methode"},
				{SectionIdentifier: "inleiding"},
				{SectionIdentifier: "onbekend"},
			},
			want: []string{"inleiding", "methode"},
		},
		{
			name: "specific sections fall back to rule type defaults",
			crit: rubric.Criterion{Scope: rubric.ScopeSpecificSections, RuleType: rubric.RuleContent},
			want: []string{"probleemstelling", "methode"},
		},
		{
			name: "exclude sections",
			crit: rubric.Criterion{Scope: rubric.ScopeExcludeSections},
			mappings: []rubric.CriterionSectionMapping{
				{SectionIdentifier: "literatuur", IsExcluded: true},
			},
			want: []string{"inleiding", "probleemstelling", "methode"},
		},
		{
			name: "excluded mapping wins over inclusion",
			crit: rubric.Criterion{Scope: rubric.ScopeSpecificSections},
			mappings: []rubric.CriterionSectionMapping{
				{SectionIdentifier: "methode"},
				{SectionIdentifier: "methode", IsExcluded: true},
			},
			want: []string{},
		},
		{
			name: "excluded mapping filters scope all",
			crit: rubric.Criterion{Scope: rubric.ScopeAll},
			mappings: []rubric.CriterionSectionMapping{
				{SectionIdentifier: "inleiding", IsExcluded: true},
			},
			want: []string{"probleemstelling", "methode", "literatuur"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.crit, tt.mappings, testSet())
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestResolve_NoDefaultsYieldsEmpty(t *testing.T) {
	r := NewResolver(map[rubric.RuleType][]string{})
	got := r.Resolve(rubric.Criterion{Scope: rubric.ScopeSpecificSections, RuleType: rubric.RuleTextual}, nil, testSet())
	assert.Empty(t, got)
}

func TestResolve_ReturnsPointersIntoSet(t *testing.T) {
	set := testSet()
	got := NewResolver(nil).Resolve(rubric.Criterion{Scope: rubric.ScopeAll}, nil, set)
	assert.Same(t, &set.Sections[0], got[0])
}
