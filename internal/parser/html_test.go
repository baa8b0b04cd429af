package parser

import (
	"strings"
	"testing"
)

func TestHTMLParser_HeadingsAndParagraphs(t *testing.T) {
	src := `<html><head><title>Plan van aanpak</title><style>p{}</style></head>
<body>
<nav><p>menu</p></nav>
<h1>1 Inleiding</h1>
<p>Dit   onderzoek
gaat over intake.</p>
<h2>1.1 Aanleiding</h2>
<ul><li>eerste punt</li><li>tweede punt</li></ul>
<script>var x = 1;</script>
</body></html>`

	doc, err := (&HTMLParser{}).Parse(strings.NewReader(src), "pva.html")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Title != "Plan van aanpak" {
		t.Errorf("expected title from <title>, got %q", doc.Title)
	}
	if len(doc.Headings) != 2 {
		t.Fatalf("expected 2 headings, got %d", len(doc.Headings))
	}
	if doc.Headings[1].Level != 2 || doc.Headings[1].Text != "1.1 Aanleiding" {
		t.Errorf("unexpected second heading: %+v", doc.Headings[1])
	}
	want := []string{"1 Inleiding", "Dit onderzoek gaat over intake.", "1.1 Aanleiding", "eerste punt", "tweede punt"}
	if strings.Join(doc.Paragraphs, "|") != strings.Join(want, "|") {
		t.Errorf("paragraphs = %q, want %q", doc.Paragraphs, want)
	}
	for _, h := range doc.Headings {
		if doc.FullText[h.StartChar:h.EndChar] != h.Text {
			t.Errorf("heading %q span does not match FullText", h.Text)
		}
	}
}

func TestHTMLParser_TitleFallsBackToFilename(t *testing.T) {
	doc, err := (&HTMLParser{}).Parse(strings.NewReader("<p>tekst</p>"), "dir/verslag.htm")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Title != "verslag" {
		t.Errorf("expected filename title, got %q", doc.Title)
	}
}
