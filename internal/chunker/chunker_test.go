package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_SmallTextFitsOneChunk(t *testing.T) {
	text := strings.Repeat("woord ", 200)
	chunks := Split(text, []string{"inleiding"}, DefaultConfig())

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Index != 0 {
		t.Errorf("expected index 0, got %d", chunks[0].Index)
	}
	if len(chunks[0].Breadcrumb) != 1 || chunks[0].Breadcrumb[0] != "inleiding" {
		t.Errorf("unexpected breadcrumb %v", chunks[0].Breadcrumb)
	}
}

func TestSplit_LargeTextRespectsLimit(t *testing.T) {
	para := strings.Repeat("De snelle bruine vos springt over de luie hond. ", 20)
	text := strings.Repeat(para+"\n\n", 30)

	cfg := Config{MaxChars: 2000}
	chunks := Split(text, nil, cfg)

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, c.Index)
		}
		if n := utf8.RuneCountInString(c.Text); n > cfg.MaxChars {
			t.Errorf("chunk %d: %d chars exceeds %d", i, n, cfg.MaxChars)
		}
	}
}

func TestSplit_OversizedParagraphSplitsBySentence(t *testing.T) {
	text := strings.Repeat("Een zin met wat woorden erin. ", 100)
	chunks := Split(text, nil, Config{MaxChars: 300})

	if len(chunks) < 5 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if !strings.HasSuffix(c.Text, ".") {
			t.Errorf("chunk %d does not end on a sentence boundary: %q", i, c.Text)
		}
	}
}

func TestSplit_HardSplitsUnbrokenText(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := Split(text, nil, Config{MaxChars: 100})

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if utf8.RuneCountInString(chunks[2].Text) != 50 {
		t.Errorf("expected 50 trailing chars, got %d", utf8.RuneCountInString(chunks[2].Text))
	}
}

func TestSplit_EmptyText(t *testing.T) {
	if chunks := Split("   \n\n ", nil, DefaultConfig()); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("empty: got %d", got)
	}
	if got := EstimateTokens("ab"); got != 1 {
		t.Errorf("short text should count as 1 token, got %d", got)
	}
	if got := EstimateTokens(strings.Repeat("a", 350)); got != 100 {
		t.Errorf("expected 100 tokens, got %d", got)
	}
	if got := CharsForTokens(DefaultMaxTokens); got != 14000 {
		t.Errorf("expected 14000 chars, got %d", got)
	}
}
