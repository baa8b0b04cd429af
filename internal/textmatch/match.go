package textmatch

import "regexp"

// Method records which rule paired a heading with a template.
type Method string

const (
	MethodExact   Method = "exact"
	MethodAlias   Method = "alias"
	MethodPattern Method = "pattern"
	MethodFuzzy   Method = "fuzzy"
)

// Target is the matchable view of a section template.
type Target struct {
	Identifier string
	Name       string
	Aliases    []string
	Pattern    *regexp.Regexp
}

// Match is the outcome of FindMatch. Index points into the targets slice.
type Match struct {
	Index  int
	Method Method
	Score  float64
}

// FindMatch pairs a cleaned heading with a target. Rules are tried in
// priority order across all targets: exact, alias, pattern, then fuzzy
// similarity against the name and aliases. For the fuzzy pass the first
// target reaching the best score wins. A threshold <= 0 disables fuzzy
// matching.
func FindMatch(cleaned string, targets []Target, fuzzyThreshold float64) (Match, bool) {
	if Normalize(cleaned) == "" {
		return Match{}, false
	}
	for i, t := range targets {
		if ExactMatch(cleaned, t.Identifier, t.Name) {
			return Match{Index: i, Method: MethodExact, Score: 1}, true
		}
	}
	for i, t := range targets {
		if AliasMatch(cleaned, t.Aliases) {
			return Match{Index: i, Method: MethodAlias, Score: 1}, true
		}
	}
	for i, t := range targets {
		if t.Pattern != nil && t.Pattern.MatchString(cleaned) {
			return Match{Index: i, Method: MethodPattern, Score: 1}, true
		}
	}
	if fuzzyThreshold <= 0 {
		return Match{}, false
	}

	best := Match{Index: -1}
	for i, t := range targets {
		score := Similarity(cleaned, t.Name)
		for _, a := range t.Aliases {
			if s := Similarity(cleaned, a); s > score {
				score = s
			}
		}
		if score > best.Score {
			best = Match{Index: i, Method: MethodFuzzy, Score: score}
		}
	}
	if best.Index < 0 || best.Score < fuzzyThreshold {
		return Match{}, false
	}
	return best, true
}
