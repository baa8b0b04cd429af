package doctree

import "strings"

// paragraphSep separates paragraphs inside FullText.
const paragraphSep = "\n\n"

// Heading is a detected heading. StartChar and EndChar are byte offsets
// into ParsedDocument.FullText; EndChar is exclusive.
type Heading struct {
	Text      string `json:"text"`
	Level     int    `json:"level"`
	StartChar int    `json:"start_char"`
	EndChar   int    `json:"end_char"`
}

// ParsedDocument is the flattened output of ingestion.
type ParsedDocument struct {
	Title      string    `json:"title"`
	FullText   string    `json:"full_text"`
	Paragraphs []string  `json:"paragraphs"`
	Headings   []Heading `json:"headings"`
}

// Span is a half-open byte range into FullText.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ParagraphSpans returns the byte span of every paragraph in FullText, in order.
// Only valid for documents produced by a Builder.
func (d *ParsedDocument) ParagraphSpans() []Span {
	spans := make([]Span, 0, len(d.Paragraphs))
	off := 0
	for _, p := range d.Paragraphs {
		idx := strings.Index(d.FullText[off:], p)
		if idx < 0 {
			break
		}
		start := off + idx
		spans = append(spans, Span{Start: start, End: start + len(p)})
		off = start + len(p)
	}
	return spans
}

// Builder accumulates paragraphs and headings while keeping offsets consistent.
type Builder struct {
	title      string
	buf        strings.Builder
	paragraphs []string
	headings   []Heading
}

// NewBuilder starts an empty document.
func NewBuilder(title string) *Builder {
	return &Builder{title: title}
}

// AddParagraph appends body text. Blank input is ignored.
func (b *Builder) AddParagraph(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	b.write(text)
}

// AddHeading appends a heading paragraph at the given level (1-based).
func (b *Builder) AddHeading(text string, level int) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if level < 1 {
		level = 1
	}
	start := b.write(text)
	b.headings = append(b.headings, Heading{
		Text:      text,
		Level:     level,
		StartChar: start,
		EndChar:   start + len(text),
	})
}

func (b *Builder) write(text string) int {
	if b.buf.Len() > 0 {
		b.buf.WriteString(paragraphSep)
	}
	start := b.buf.Len()
	b.buf.WriteString(text)
	b.paragraphs = append(b.paragraphs, text)
	return start
}

// Document returns the assembled document.
func (b *Builder) Document() *ParsedDocument {
	return &ParsedDocument{
		Title:      b.title,
		FullText:   b.buf.String(),
		Paragraphs: append([]string(nil), b.paragraphs...),
		Headings:   append([]Heading(nil), b.headings...),
	}
}

// Chunk is a sized slice of section text submitted to the critic.
type Chunk struct {
	Text       string   `json:"text"`
	Index      int      `json:"index"`
	Breadcrumb []string `json:"breadcrumb,omitempty"` // e.g. ["inleiding"]
}
