// Package textmatch holds the string primitives used to pair document
// headings with section templates: heading cleanup, exact and alias
// comparison, template regexes and a fuzzy similarity score.
package textmatch

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultFuzzyThreshold is the minimum Similarity for a fuzzy match.
const DefaultFuzzyThreshold = 0.6

var (
	numericPrefixRe = regexp.MustCompile(`^\s*\d+(\.\d+)*[\s.:]?`)
	chapterPrefixRe = regexp.MustCompile(`(?i)^(?:hoofdstuk|bijlage|chapter|appendix)\s+\d+\s*[:.]?\s*`)

	folder = cases.Fold()
)

// CleanHeading removes leading numbering ("1.2 ", "3: ") and a chapter or
// appendix prefix. A bare "Hoofdstuk 4" is kept verbatim so it can still
// match a generic chapter template. The result is a fixed point:
// CleanHeading(CleanHeading(x)) == CleanHeading(x).
func CleanHeading(text string) string {
	s := strings.TrimSpace(text)
	for {
		next := strings.TrimSpace(numericPrefixRe.ReplaceAllString(s, ""))
		if loc := chapterPrefixRe.FindStringIndex(next); loc != nil {
			if rest := strings.TrimSpace(next[loc[1]:]); rest != "" {
				next = rest
			}
		}
		if next == s {
			return s
		}
		s = next
	}
}

// Normalize folds case, strips diacritics and collapses whitespace.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(folder.String(out)), " ")
}

// ExactMatch reports whether cleaned equals the identifier or the name,
// ignoring case.
func ExactMatch(cleaned, identifier, name string) bool {
	c := Normalize(cleaned)
	if c == "" {
		return false
	}
	return c == Normalize(identifier) || c == Normalize(name)
}

// AliasMatch reports whether any alias occurs in cleaned as a whole word
// sequence. The alias does not have to span the whole heading.
func AliasMatch(cleaned string, aliases []string) bool {
	c := Normalize(cleaned)
	for _, a := range aliases {
		if containsWord(c, Normalize(a)) {
			return true
		}
	}
	return false
}

// containsWord finds needle in haystack bounded by non-word runes or the
// string edges on both sides.
func containsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	for off := 0; off <= len(haystack)-len(needle); {
		i := strings.Index(haystack[off:], needle)
		if i < 0 {
			return false
		}
		start := off + i
		end := start + len(needle)
		before, _ := utf8.DecodeLastRuneInString(haystack[:start])
		after, _ := utf8.DecodeRuneInString(haystack[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(haystack) || !isWordRune(after)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(haystack[start:])
		off = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Similarity blends a normalized edit-distance ratio (40%) with the token
// Jaccard index (60%). Identical strings score 1, and a blank string
// against a non-blank one scores 0.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0.0
	}

	maxLen := max(utf8.RuneCountInString(na), utf8.RuneCountInString(nb))
	editRatio := 1 - float64(levenshtein.ComputeDistance(na, nb))/float64(maxLen)

	ta, tb := tokenSet(na), tokenSet(nb)
	var jac float64
	if len(ta) > 0 && len(tb) > 0 {
		jac = Jaccard(ta, tb)
	}
	return 0.4*editRatio + 0.6*jac
}

// Jaccard returns |a∩b| / |a∪b|. Two empty sets are identical.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return !isWordRune(r) }) {
		set[f] = true
	}
	return set
}

// IndexWord returns the byte offset of the first case-insensitive,
// whole-word occurrence of word in text, or -1.
func IndexWord(text, word string) int {
	if strings.TrimSpace(word) == "" {
		return -1
	}
	re, err := regexp.Compile(`(?i)(?:^|[^\p{L}\p{N}_])(` + regexp.QuoteMeta(word) + `)(?:$|[^\p{L}\p{N}_])`)
	if err != nil {
		return -1
	}
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return -1
	}
	return loc[2]
}
