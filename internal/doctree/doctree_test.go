package doctree

import "testing"

func TestBuilder_OffsetsMatchFullText(t *testing.T) {
	b := NewBuilder("report")
	b.AddHeading("1 Inleiding", 1)
	b.AddParagraph("Dit is de inleiding.")
	b.AddParagraph("   ")
	b.AddHeading("1.1 Context", 2)
	b.AddParagraph("Context tekst.")
	doc := b.Document()

	if len(doc.Headings) != 2 {
		t.Fatalf("expected 2 headings, got %d", len(doc.Headings))
	}
	for _, h := range doc.Headings {
		if got := doc.FullText[h.StartChar:h.EndChar]; got != h.Text {
			t.Errorf("heading %q: span yields %q", h.Text, got)
		}
	}
	if doc.Headings[1].Level != 2 {
		t.Errorf("expected level 2, got %d", doc.Headings[1].Level)
	}
	if len(doc.Paragraphs) != 4 {
		t.Errorf("expected 4 paragraphs (blank skipped), got %d", len(doc.Paragraphs))
	}
}

func TestParagraphSpans(t *testing.T) {
	b := NewBuilder("x")
	b.AddParagraph("alpha")
	b.AddParagraph("beta")
	b.AddParagraph("alpha")
	doc := b.Document()

	spans := doc.ParagraphSpans()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}
	for i, sp := range spans {
		if got := doc.FullText[sp.Start:sp.End]; got != doc.Paragraphs[i] {
			t.Errorf("span %d: got %q, want %q", i, got, doc.Paragraphs[i])
		}
	}
	if spans[2].Start <= spans[0].Start {
		t.Errorf("repeated paragraph resolved to earlier offset: %+v", spans)
	}
}

func TestAddHeading_ClampsLevel(t *testing.T) {
	b := NewBuilder("x")
	b.AddHeading("Samenvatting", 0)
	if got := b.Document().Headings[0].Level; got != 1 {
		t.Errorf("expected level clamped to 1, got %d", got)
	}
}
