package criteria

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/docreview/internal/rubric"
	"github.com/dgallion1/docreview/internal/sections"
)

// SMART classification thresholds.
const (
	aspectMissing   = 0.3
	aspectWeak      = 0.6
	smartViolation  = 40.0
	smartWarning    = 70.0
	maxSMARTAdvice  = 3
	keywordSaturate = 3.0
	patternSaturate = 2.0
	keywordWeight   = 0.6
	patternWeight   = 0.4
)

type smartAspect struct {
	name     string
	weight   float64
	keywords []string
	patterns []*regexp.Regexp
	missing  string // advice when the aspect is absent
	weak     string // advice when it is present but thin
}

func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile("(?i)" + e)
	}
	return out
}

var smartAspects = []smartAspect{
	{
		name:   "specifiek",
		weight: 1.0,
		keywords: []string{
			"specifiek", "concreet", "duidelijk", "precies", "exact",
			"bepaald", "vastgesteld", "gedefinieerd", "omschreven",
			"wie", "wat", "waar", "wanneer", "waarom", "hoe", "doel", "groei",
		},
		patterns: patterns(
			`\b(wie|wat|waar|wanneer|waarom|hoe)\b`,
			`\b(specifiek|concreet|duidelijk)\b`,
			`\b(precies|exact|bepaald)\b`,
			`\b(doel|doelstelling|resultaat|beoogd)\b`,
			`\b(groei|stijging|daling|toename|afname|verbetering|verhoging|verlaging|reductie)\b`,
		),
		missing: "Make clear who, what, where and when",
		weak:    "Use concrete and precise wording",
	},
	{
		name:   "meetbaar",
		weight: 1.2,
		keywords: []string{
			"meetbaar", "kwantificeerbaar", "cijfers", "percentage", "aantal",
			"procent", "euro", "meter", "kilogram", "uur", "dag", "week",
			"maand", "jaar", "stuks", "keer", "maal", "%", "€",
		},
		patterns: patterns(
			`\d+\s*(procent|%|euro|€|meter|m|kilogram|kg|uur|dag|dagen|week|weken|maand|maanden|jaar|jaren)`,
			`\d+\s*(stuks|keer|maal|x)`,
			`\b\d+[.,]?\d*\b`,
			`\b(hoeveel|aantal|cijfer|getal|waarde|score)\b`,
		),
		missing: "Add figures, percentages or quantities",
		weak:    "Define how success will be measured",
	},
	{
		name:   "acceptabel",
		weight: 0.8,
		keywords: []string{
			"acceptabel", "haalbaar", "realistisch", "mogelijk", "bereikbaar",
			"uitvoerbaar", "redelijk", "passend", "geschikt", "relevant",
			"belangrijk", "waardevol", "zinvol", "nuttig", "doel",
		},
		patterns: patterns(
			`\b(acceptabel|haalbaar|realistisch)\b`,
			`\b(mogelijk|bereikbaar|uitvoerbaar)\b`,
			`\b(relevant|belangrijk|zinvol)\b`,
			`\b(het|ons|gezamenlijk|gedeeld)\s+doel\b`,
		),
		missing: "Explain why the goal is relevant and important",
		weak:    "Show that the goal is acceptable to the stakeholders",
	},
	{
		name:   "realistisch",
		weight: 1.0,
		keywords: []string{
			"realistisch", "haalbaar", "mogelijk", "bereikbaar", "uitvoerbaar",
			"redelijk", "praktisch", "werkbaar", "doenlijk", "feasible",
			"capaciteit", "middelen", "resources", "budget", "tijd", "€",
		},
		patterns: patterns(
			`\b(realistisch|haalbaar|mogelijk)\b`,
			`\b(praktisch|werkbaar|doenlijk)\b`,
			`\b(capaciteit|middelen|resources|budget)\b`,
			`(€|euro)\s*\d`,
		),
		missing: "Describe the available resources and capacity",
		weak:    "Show that the goal is achievable",
	},
	{
		name:   "tijdgebonden",
		weight: 1.1,
		keywords: []string{
			"deadline", "datum", "week", "maand", "jaar", "tijd", "periode",
			"termijn", "planning", "schema", "tijdschema", "tijdslijn", "binnen",
			"januari", "februari", "maart", "april", "mei", "juni",
			"juli", "augustus", "september", "oktober", "november", "december",
			"maandag", "dinsdag", "woensdag", "donderdag", "vrijdag", "zaterdag", "zondag",
		},
		patterns: patterns(
			`\b\d{1,2}[-/]\d{1,2}[-/]\d{2,4}\b`,
			`\b(januari|februari|maart|april|mei|juni|juli|augustus|september|oktober|november|december)\b`,
			`\b(week|weken|maand|maanden|jaar|jaren)\s*\d+\b`,
			`\b\d+\s*(week|weken|maand|maanden|jaar|jaren)\b`,
			`\b(deadline|datum|termijn|planning)\b`,
			`\bbinnen\s+(een\s+)?\d+`,
		),
		missing: "Add a concrete deadline",
		weak:    "Specify the time period",
	},
}

// AspectScore is the score of one SMART aspect.
type AspectScore struct {
	Aspect   string  `json:"aspect"`
	Keywords int     `json:"keywords"`
	Patterns int     `json:"patterns"`
	Score    float64 `json:"score"`
}

// SMARTResult is the outcome of scoring a goal statement.
type SMARTResult struct {
	Percentage float64       `json:"percentage"`
	Aspects    []AspectScore `json:"aspects"`
	Missing    []string      `json:"missing,omitempty"`
	Weak       []string      `json:"weak,omitempty"`
}

// ScoreSMART scores text on the five SMART aspects. Keywords are matched as
// substrings of the lower-cased text; every regex match counts.
func ScoreSMART(text string) SMARTResult {
	lower := strings.ToLower(text)
	var res SMARTResult
	var total, maxTotal float64
	for _, a := range smartAspects {
		kw := 0
		for _, k := range a.keywords {
			if strings.Contains(lower, k) {
				kw++
			}
		}
		pm := 0
		for _, re := range a.patterns {
			pm += len(re.FindAllStringIndex(text, -1))
		}
		score := keywordWeight*min(float64(kw)/keywordSaturate, 1) +
			patternWeight*min(float64(pm)/patternSaturate, 1)

		res.Aspects = append(res.Aspects, AspectScore{Aspect: a.name, Keywords: kw, Patterns: pm, Score: score})
		switch {
		case score < aspectMissing:
			res.Missing = append(res.Missing, a.name)
		case score < aspectWeak:
			res.Weak = append(res.Weak, a.name)
		}
		total += score * a.weight
		maxTotal += a.weight
	}
	res.Percentage = total / maxTotal * 100
	return res
}

// Advice lists at most three improvement hints, missing aspects first.
func (r SMARTResult) Advice() string {
	byName := make(map[string]smartAspect, len(smartAspects))
	for _, a := range smartAspects {
		byName[a.name] = a
	}
	var out []string
	for _, name := range r.Missing {
		out = append(out, fmt.Sprintf("%s: %s", titleCase(name), byName[name].missing))
	}
	for _, name := range r.Weak {
		out = append(out, fmt.Sprintf("%s (improve): %s", titleCase(name), byName[name].weak))
	}
	if len(out) == 0 {
		return "Check that every SMART aspect is clearly present."
	}
	if len(out) > maxSMARTAdvice {
		out = out[:maxSMARTAdvice]
	}
	return strings.Join(out, " | ")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func checkSMART(_ context.Context, _ *Evaluator, c rubric.Criterion, sec *sections.RecognizedSection, _ *Input) (*FeedbackItem, error) {
	if !sec.Found {
		return nil, nil
	}
	if strings.TrimSpace(sec.Content) == "" {
		return failItem(c, sec, rubric.SeverityViolation,
			fmt.Sprintf("%s is empty", sec.Name), "Add content to this section.", 1.0), nil
	}

	res := ScoreSMART(sec.Content)
	var it *FeedbackItem
	switch {
	case res.Percentage < smartViolation:
		it = failItem(c, sec, rubric.SeverityViolation,
			fmt.Sprintf("%s is not formulated SMART (score: %.0f%%)", sec.Name, res.Percentage),
			res.Advice(), 0.9)
	case res.Percentage < smartWarning:
		it = failItem(c, sec, rubric.SeverityWarning,
			fmt.Sprintf("%s could be formulated more SMART (score: %.0f%%)", sec.Name, res.Percentage),
			res.Advice(), 0.7)
		// A partial score never reports above warning.
		if it.Status == rubric.StatusViolation {
			it.Status = rubric.StatusWarning
		}
	default:
		it = okItem(c, sec, fmt.Sprintf("%s is formulated SMART (score: %.0f%%)", sec.Name, res.Percentage))
	}
	it.Details = map[string]any{"smart": res}
	return it, nil
}
