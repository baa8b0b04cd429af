package textmatch

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanHeading(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1 Inleiding", "Inleiding"},
		{"1.2.3 Context", "Context"},
		{"2. Methode", "Methode"},
		{"3: Resultaten", "Resultaten"},
		{"Hoofdstuk 3: Resultaten", "Resultaten"},
		{"hoofdstuk 5. Conclusie", "Conclusie"},
		{"Hoofdstuk 4", "Hoofdstuk 4"},
		{"Bijlage 1", "Bijlage 1"},
		{"1 Hoofdstuk 2 Methode", "Methode"},
		{"  3   ", ""},
		{"Samenvatting", "Samenvatting"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanHeading(tt.in))
		})
	}
}

func TestCleanHeading_Idempotent(t *testing.T) {
	inputs := []string{
		"1 2 Inleiding",
		"1.1. 2.2 Context",
		"Hoofdstuk 1: Bijlage 2: Interviews",
		"Hoofdstuk 4",
		"12",
		"",
		"4 Hoofdstuk 7",
		"Tabel 3.1 Respons",
	}
	for _, in := range inputs {
		once := CleanHeading(in)
		assert.Equal(t, once, CleanHeading(once), "input %q", in)
	}
}

func TestExactMatch(t *testing.T) {
	assert.True(t, ExactMatch("Inleiding", "inleiding", "Inleiding"))
	assert.True(t, ExactMatch("PLAN VAN AANPAK", "pva", "Plan van aanpak"))
	assert.True(t, ExactMatch("probleemstelling", "probleemstelling", "Probleem"))
	assert.False(t, ExactMatch("Inleiding en context", "inleiding", "Inleiding"))
	assert.False(t, ExactMatch("", "", ""))
}

func TestAliasMatch(t *testing.T) {
	tests := []struct {
		name    string
		cleaned string
		aliases []string
		want    bool
	}{
		{"substring word", "Introductie en aanleiding", []string{"introductie"}, true},
		{"inside a word", "Reintroductie", []string{"introductie"}, false},
		{"multi word alias", "De onderzoeks vraag en deelvragen", []string{"onderzoeks vraag"}, true},
		{"diacritics ignored", "Resultaten enquête", []string{"enquete"}, true},
		{"hyphen is a boundary", "probleem-stelling", []string{"stelling"}, true},
		{"empty alias", "Inleiding", []string{""}, false},
		{"no aliases", "Inleiding", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AliasMatch(tt.cleaned, tt.aliases))
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Methode", "Methode"))
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("", "Methode"))
	assert.Equal(t, 0.0, Similarity("Methode", "   "))

	s := Similarity("Plan van aanpak.", "Plan van aanpak")
	assert.Greater(t, s, 0.9)
	assert.Less(t, s, 1.0)

	low := Similarity("Conclusie", "Literatuurlijst")
	assert.Less(t, low, DefaultFuzzyThreshold)

	assert.InDelta(t, Similarity("a b", "b c"), Similarity("b c", "a b"), 1e-9)
}

func TestJaccard(t *testing.T) {
	a := map[string]bool{"x": true, "y": true}
	b := map[string]bool{"y": true, "z": true}
	assert.InDelta(t, 1.0/3.0, Jaccard(a, b), 1e-9)
	assert.Equal(t, 1.0, Jaccard(nil, nil))
}

func TestFindMatch_Priority(t *testing.T) {
	targets := []Target{
		{Identifier: "methode", Name: "Methode", Aliases: []string{"onderzoek"}},
		{Identifier: "onderzoek", Name: "Onderzoek"},
		{Identifier: "resultaten", Name: "Resultaten", Pattern: regexp.MustCompile(`(?i)^bevinding`)},
		{Identifier: "pva", Name: "Plan van aanpak"},
	}

	tests := []struct {
		name    string
		cleaned string
		index   int
		method  Method
	}{
		{"exact beats earlier alias", "Onderzoek", 1, MethodExact},
		{"alias", "Opzet van het onderzoek", 0, MethodAlias},
		{"pattern", "Bevindingen uit interviews", 2, MethodPattern},
		{"fuzzy", "Plan van aanpak.", 3, MethodFuzzy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := FindMatch(tt.cleaned, targets, DefaultFuzzyThreshold)
			require.True(t, ok)
			assert.Equal(t, tt.index, m.Index)
			assert.Equal(t, tt.method, m.Method)
		})
	}

	_, ok := FindMatch("Dankwoord", targets, DefaultFuzzyThreshold)
	assert.False(t, ok)

	_, ok = FindMatch("Plan van aanpak.", targets, 0)
	assert.False(t, ok, "fuzzy disabled")
}

func TestFindMatch_FuzzyTieGoesToFirst(t *testing.T) {
	targets := []Target{
		{Identifier: "a", Name: "Plan van aanpak"},
		{Identifier: "b", Name: "Plan van aanpak"},
	}
	m, ok := FindMatch("Plan van aanpak!", targets, DefaultFuzzyThreshold)
	require.True(t, ok)
	assert.Equal(t, 0, m.Index)
}

func TestIndexWord(t *testing.T) {
	assert.Equal(t, 0, IndexWord("Ik denk dat", "ik"))
	assert.Equal(t, 11, IndexWord("Daarom wil ik dit", "ik"))
	assert.Equal(t, -1, IndexWord("Dikke ikoon", "ik"))
	assert.Equal(t, 7, IndexWord("Zoals (ik) zei", "ik"))
	assert.Equal(t, -1, IndexWord("tekst", ""))
	assert.Equal(t, 4, IndexWord("Het artikel 5", "artikel 5"))
}
