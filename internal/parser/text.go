package parser

import (
	"bufio"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/docreview/internal/doctree"
)

var (
	numberedHeadingRe = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?\s+\p{Lu}`)
	keywordHeadingRe  = regexp.MustCompile(`(?i)^(hoofdstuk|bijlage|bibliografie)\b`)
)

// TextParser handles plain text files. Headings are detected heuristically:
// numbered lines starting with a capital, short all-caps lines, and
// chapter/appendix keywords.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.ParsedDocument, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	b := doctree.NewBuilder(titleFromFilename(filename))
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			b.AddParagraph(current.String())
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		if level := textHeadingLevel(line); level > 0 {
			flush()
			b.AddHeading(line, level)
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return b.Document(), nil
}

// textHeadingLevel returns the inferred heading level, or 0 for body text.
func textHeadingLevel(line string) int {
	if m := numberedHeadingRe.FindStringSubmatch(line); m != nil {
		return strings.Count(m[1], ".") + 1
	}
	if len(line) < 80 && len(strings.Fields(line)) > 1 && isAllCaps(line) {
		return 1
	}
	if keywordHeadingRe.MatchString(line) {
		return 1
	}
	return 0
}

func isAllCaps(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
