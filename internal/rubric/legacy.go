package rubric

import (
	"strings"

	"github.com/dgallion1/docreview/internal/textmatch"
)

// legacyKinds maps display-name fragments used by older rubrics to a
// rule kind. Checked in order; the first hit wins. Words only match as
// whole words.
var legacyKinds = []struct {
	fragments []string
	words     []string
	kind      RuleKind
}{
	{[]string{"smart"}, nil, KindSMART},
	{[]string{"sectievolgorde", "volgorde", "section order"}, nil, KindSectionOrder},
	{[]string{"aanwezigheid", "verplichte sectie"}, nil, KindRequiredSection},
	{[]string{"persoonlijk"}, nil, KindPersonalLanguage},
	{[]string{"wettekst", "citeren", "juridisch"}, nil, KindLegalCitation},
	{[]string{"aansluiting", "consistent", "coheren"}, nil, KindConsistency},
	{[]string{"bron", "referentie", "literatuur"}, nil, KindSourceUsage},
	{[]string{"alinealengte", "lange alinea", "korte alinea"}, nil, KindParagraphLength},
	{[]string{"woorden", "lengte"}, []string{"word", "words"}, KindWordCount},
	{[]string{"paragraaf", "paragrafen", "alinea"}, nil, KindParagraphCount},
	{[]string{"kopje", "structuur", "headings"}, nil, KindHeadingCount},
	{[]string{"verboden", "vermijd"}, nil, KindForbiddenPhrases},
	{[]string{"ai analyse", "kritiek", "critique"}, nil, KindCritique},
}

// defaultKinds is used when a legacy name carries no recognizable hint.
var defaultKinds = map[RuleType]RuleKind{
	RuleStructural: KindWordCount,
	RuleTextual:    KindPersonalLanguage,
	RuleContent:    KindSMART,
}

// InferKind derives a rule kind from a legacy criterion's name and
// description. It runs once while importing; evaluation only ever looks
// at Criterion.Kind.
func InferKind(c Criterion) RuleKind {
	name := strings.ToLower(c.Name)
	for _, lk := range legacyKinds {
		for _, f := range lk.fragments {
			if strings.Contains(name, f) {
				return lk.kind
			}
		}
		for _, w := range lk.words {
			if textmatch.IndexWord(name, w) >= 0 {
				return lk.kind
			}
		}
	}
	if c.RuleType == RuleTextual && strings.Contains(strings.ToLower(c.Description), "persoonlijk") {
		return KindPersonalLanguage
	}
	if k, ok := defaultKinds[c.RuleType]; ok {
		return k
	}
	return KindWordCount
}
