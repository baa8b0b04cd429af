package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docreview/internal/doctree"
)

// DefaultMaxTokens is the per-request budget for section text sent to the critic.
const DefaultMaxTokens = 4000

// Config controls chunking behavior.
type Config struct {
	MaxChars int // Upper bound on chunk length in characters.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{MaxChars: CharsForTokens(DefaultMaxTokens)}
}

// Split breaks section text into chunks of at most cfg.MaxChars characters,
// preferring paragraph and then sentence boundaries. Words longer than the
// limit are cut hard. Every chunk carries the same breadcrumb.
func Split(text string, breadcrumb []string, cfg Config) []doctree.Chunk {
	if cfg.MaxChars <= 0 {
		cfg = DefaultConfig()
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	parts := splitText(text, cfg.MaxChars)
	chunks := make([]doctree.Chunk, 0, len(parts))
	for i, p := range parts {
		chunks = append(chunks, doctree.Chunk{
			Text:       p,
			Index:      i,
			Breadcrumb: copyBreadcrumb(breadcrumb),
		})
	}
	return chunks
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

// splitText packs paragraphs into chunks of at most maxChars.
func splitText(text string, maxChars int) []string {
	var result []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			result = append(result, current.String())
			current.Reset()
		}
	}

	for _, para := range splitByParagraphs(text) {
		if runeLen(para) > maxChars {
			flush()
			result = append(result, splitBySentences(para, maxChars)...)
			continue
		}
		if current.Len() > 0 && runeLen(current.String())+2+runeLen(para) > maxChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()
	return result
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitBySentences breaks a large paragraph into sentence-based chunks.
func splitBySentences(text string, maxChars int) []string {
	var result []string
	var current strings.Builder

	for _, sent := range splitSentences(text) {
		if runeLen(sent) > maxChars {
			if current.Len() > 0 {
				result = append(result, current.String())
				current.Reset()
			}
			result = append(result, hardSplit(sent, maxChars)...)
			continue
		}
		if current.Len() > 0 && runeLen(current.String())+1+runeLen(sent) > maxChars {
			result = append(result, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// hardSplit cuts s into pieces of maxChars runes.
func hardSplit(s string, maxChars int) []string {
	var out []string
	runes := []rune(s)
	for len(runes) > maxChars {
		out = append(out, string(runes[:maxChars]))
		runes = runes[maxChars:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
