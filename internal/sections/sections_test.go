package sections

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgallion1/docreview/internal/doctree"
	"github.com/dgallion1/docreview/internal/rubric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type block struct {
	heading string
	level   int
	body    []string
}

func buildDoc(blocks ...block) *doctree.ParsedDocument {
	b := doctree.NewBuilder("test")
	for _, bl := range blocks {
		if bl.heading != "" {
			b.AddHeading(bl.heading, bl.level)
		}
		for _, p := range bl.body {
			b.AddParagraph(p)
		}
	}
	return b.Document()
}

func templates(t *testing.T, ts ...rubric.SectionTemplate) []rubric.SectionTemplate {
	t.Helper()
	r := &rubric.Rubric{DocumentType: "test", Templates: ts}
	require.NoError(t, r.Validate())
	return r.Templates
}

func find(t *testing.T, secs []RecognizedSection, id string) RecognizedSection {
	t.Helper()
	for _, s := range secs {
		if s.Identifier == id {
			return s
		}
	}
	t.Fatalf("section %q not in result", id)
	return RecognizedSection{}
}

func TestRecognize_NestedSubHeading(t *testing.T) {
	doc := buildDoc(
		block{"1 Inleiding", 1, []string{"Dit is de inleiding van het rapport."}},
		block{"1.1 Context", 2, []string{"Context tekst."}},
		block{"2 Methode", 1, []string{"We interviewen tien mensen."}},
	)
	tmpls := templates(t,
		rubric.SectionTemplate{Identifier: "inleiding", Name: "Inleiding", AlternativeNames: []string{"introductie"}, OrderIndex: 10},
		rubric.SectionTemplate{Identifier: "methode", Name: "Methode", OrderIndex: 20},
	)

	secs, err := Recognize(doc, tmpls, Options{})
	require.NoError(t, err)
	require.Len(t, secs, 2)

	intro := find(t, secs, "inleiding")
	assert.True(t, intro.Found)
	assert.Equal(t, doc.Headings[0].StartChar, intro.StartChar)
	assert.Equal(t, doc.Headings[2].StartChar, intro.EndChar)
	require.Len(t, intro.Headings, 1)
	assert.Equal(t, "1.1 Context", intro.Headings[0].Text)
	assert.True(t, strings.HasPrefix(intro.Content, "Dit is de inleiding"))
	assert.Contains(t, intro.Content, "Context tekst.")
	assert.NotContains(t, intro.Content, "Methode")
	assert.Equal(t, 0.95, intro.Confidence)
	assert.Equal(t, 1, intro.FoundLevel)
	assert.Equal(t, intro.Content, strings.TrimSpace(doc.FullText[intro.ContentStart:intro.EndChar]))

	method := find(t, secs, "methode")
	assert.Equal(t, len(doc.FullText), method.EndChar)
	assert.Equal(t, "We interviewen tien mensen.", method.Content)
	assert.Equal(t, 4, method.WordCount)
}

func TestRecognize_AliasAndMissing(t *testing.T) {
	doc := buildDoc(
		block{"Hoofdstuk 1: Introductie en aanleiding", 1, []string{"Tekst."}},
	)
	tmpls := templates(t,
		rubric.SectionTemplate{Identifier: "inleiding", Name: "Inleiding", AlternativeNames: []string{"introductie"}, OrderIndex: 10},
		rubric.SectionTemplate{Identifier: "conclusie", Name: "Conclusie", OrderIndex: 90, IsRequired: true},
	)
	secs, err := Recognize(doc, tmpls, Options{})
	require.NoError(t, err)

	assert.True(t, find(t, secs, "inleiding").Found)

	missing := find(t, secs, "conclusie")
	assert.False(t, missing.Found)
	assert.Empty(t, missing.Content)
	assert.Zero(t, missing.WordCount)
	assert.Zero(t, missing.Confidence)
	assert.True(t, missing.IsRequired)
	assert.NotNil(t, missing.Headings)
}

func TestRecognize_SkipsNonSectionHeadings(t *testing.T) {
	doc := buildDoc(
		block{"Tabel 2.1 Methode van dataverzameling", 3, []string{"cel"}},
		block{"Vraagschema 1", 3, nil},
		block{"12", 1, nil},
	)
	tmpls := templates(t, rubric.SectionTemplate{Identifier: "methode", Name: "Methode"})

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	secs, err := Recognize(doc, tmpls, Options{Logger: logger})
	require.NoError(t, err)
	assert.False(t, secs[0].Found)
	assert.Contains(t, logs.String(), "skip non-section heading")
}

func TestRecognize_DuplicatePolicy(t *testing.T) {
	doc := buildDoc(
		block{"Inleiding", 1, []string{"Eerste versie."}},
		block{"Methode", 1, []string{"Tussenstuk."}},
		block{"Inleiding", 1, []string{"Tweede versie."}},
	)
	tmpls := templates(t, rubric.SectionTemplate{Identifier: "inleiding", Name: "Inleiding"})

	last, err := Recognize(doc, tmpls, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Tweede versie.", last[0].Content)

	first, err := Recognize(doc, tmpls, Options{Duplicates: FirstMatchWins})
	require.NoError(t, err)
	assert.Equal(t, "Eerste versie.", first[0].Content)
}

func TestRecognize_PatternAndFuzzy(t *testing.T) {
	doc := buildDoc(
		block{"3 Onderzoeksvraag", 1, []string{"Wat is de oorzaak?"}},
		block{"4 Plan van aanpak.", 1, []string{"Stappen."}},
	)
	tmpls := templates(t,
		rubric.SectionTemplate{Identifier: "vragen", Name: "Vraagstelling", Pattern: `^onderzoeks?vra(ag|gen)`, OrderIndex: 1},
		rubric.SectionTemplate{Identifier: "pva", Name: "Plan van aanpak", OrderIndex: 2},
	)

	secs, err := Recognize(doc, tmpls, Options{})
	require.NoError(t, err)
	assert.Equal(t, "pattern", string(find(t, secs, "vragen").MatchMethod))
	assert.Equal(t, "fuzzy", string(find(t, secs, "pva").MatchMethod))

	secs, err = Recognize(doc, tmpls, Options{FuzzyThreshold: -1})
	require.NoError(t, err)
	assert.False(t, find(t, secs, "pva").Found)
}

func TestRecognize_SortedByOrderIndexThenLevel(t *testing.T) {
	doc := buildDoc()
	tmpls := templates(t,
		rubric.SectionTemplate{Identifier: "c", OrderIndex: 30, Level: 1},
		rubric.SectionTemplate{Identifier: "b2", OrderIndex: 20, Level: 2},
		rubric.SectionTemplate{Identifier: "a", OrderIndex: 10, Level: 1},
		rubric.SectionTemplate{Identifier: "b1", OrderIndex: 20, Level: 1},
	)
	secs, err := Recognize(doc, tmpls, Options{})
	require.NoError(t, err)

	var ids []string
	for _, s := range secs {
		ids = append(ids, s.Identifier)
	}
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, ids)
}

func TestRecognize_BoundaryProperties(t *testing.T) {
	doc := buildDoc(
		block{"1 Inleiding", 1, []string{"a b c"}},
		block{"1.1 Aanleiding", 2, []string{"d e"}},
		block{"1.2 Probleemstelling", 2, []string{"f"}},
		block{"2 Methode", 1, []string{"g h"}},
		block{"2.1 Interviews", 2, []string{"i"}},
		block{"3 Conclusie", 1, []string{"j k l"}},
	)
	tmpls := templates(t,
		rubric.SectionTemplate{Identifier: "inleiding", Name: "Inleiding", Level: 1, OrderIndex: 1},
		rubric.SectionTemplate{Identifier: "aanleiding", Name: "Aanleiding", Level: 2, OrderIndex: 2},
		rubric.SectionTemplate{Identifier: "probleemstelling", Name: "Probleemstelling", Level: 2, OrderIndex: 3},
		rubric.SectionTemplate{Identifier: "methode", Name: "Methode", Level: 1, OrderIndex: 4},
		rubric.SectionTemplate{Identifier: "conclusie", Name: "Conclusie", Level: 1, OrderIndex: 5},
	)
	secs, err := Recognize(doc, tmpls, Options{})
	require.NoError(t, err)

	starts := map[int]bool{len(doc.FullText): true}
	for _, h := range doc.Headings {
		starts[h.StartChar] = true
	}

	for i, a := range secs {
		require.True(t, a.Found, a.Identifier)
		assert.True(t, starts[a.EndChar], "%s ends at a heading start or end of text", a.Identifier)
		for _, b := range secs[i+1:] {
			disjoint := a.EndChar <= b.StartChar || b.EndChar <= a.StartChar
			nested := (a.StartChar <= b.StartChar && b.EndChar <= a.EndChar) ||
				(b.StartChar <= a.StartChar && a.EndChar <= b.EndChar)
			assert.True(t, disjoint || nested, "%s and %s partially overlap", a.Identifier, b.Identifier)
			if a.FoundLevel == b.FoundLevel {
				assert.True(t, disjoint, "%s and %s at the same level overlap", a.Identifier, b.Identifier)
			}
		}
	}

	aanleiding := find(t, secs, "aanleiding")
	assert.Equal(t, doc.Headings[2].StartChar, aanleiding.EndChar)
}

func TestRecognize_PreconditionErrors(t *testing.T) {
	text := "Inleiding\n\nMethode"
	tests := []struct {
		name     string
		headings []doctree.Heading
		want     error
	}{
		{"unsorted", []doctree.Heading{{Text: "Methode", Level: 1, StartChar: 11, EndChar: 18}, {Text: "Inleiding", Level: 1, StartChar: 0, EndChar: 9}}, ErrUnsortedHeadings},
		{"empty span", []doctree.Heading{{Text: "Inleiding", Level: 1, StartChar: 3, EndChar: 3}}, ErrInvalidHeading},
		{"past end", []doctree.Heading{{Text: "Methode", Level: 1, StartChar: 11, EndChar: 40}}, ErrInvalidHeading},
		{"overlap", []doctree.Heading{{Text: "Inleiding", Level: 1, StartChar: 0, EndChar: 12}, {Text: "Methode", Level: 1, StartChar: 11, EndChar: 18}}, ErrOverlappingHeadings},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &doctree.ParsedDocument{FullText: text, Headings: tt.headings}
			_, err := Recognize(doc, nil, Options{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords(""))
	assert.Equal(t, 3, CountWords("één, twee; drie!"))
	assert.Equal(t, 4, CountWords("budget van €50.000"))
	assert.Equal(t, 2, CountWords("snake_case woord"))
}

func TestSet_Lookup(t *testing.T) {
	doc := buildDoc(block{"Inleiding", 1, []string{"tekst"}})
	tmpls := templates(t, rubric.SectionTemplate{Identifier: "inleiding", Name: "Inleiding"})
	secs, err := Recognize(doc, tmpls, Options{})
	require.NoError(t, err)

	set := NewSet(doc, secs)
	d, ok := set.Lookup(DocumentIdentifier)
	require.True(t, ok)
	assert.True(t, d.IsDocument())
	assert.Equal(t, doc.FullText, d.Content)

	_, ok = set.Lookup("inleiding")
	assert.True(t, ok)
	_, ok = set.Lookup("methode")
	assert.False(t, ok)
}
