package criteria

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/docreview/internal/chunker"
	"github.com/dgallion1/docreview/internal/doctree"
	"github.com/dgallion1/docreview/internal/rubric"
	"github.com/dgallion1/docreview/internal/sections"
)

// SkippedMessage is reported when no critic is available.
const SkippedMessage = "[AI analysis skipped: model not available]"

// Critic reviews a chunk of section text. Implementations may call remote
// models; the evaluator calls Critique at most once per chunk.
type Critic interface {
	Critique(ctx context.Context, text string) (CritiqueResult, error)
}

// Finding is one passage the critic objects to.
type Finding struct {
	Quote       string `json:"quote"`
	Explanation string `json:"explanation"`
}

// CritiqueResult is the critic's verdict on one chunk.
type CritiqueResult struct {
	OK       bool      `json:"ok"`
	Findings []Finding `json:"findings,omitempty"`
}

// ParseCritique reads a critic response made of lines
// `"quoted passage" : explanation`, or the single word OK.
func ParseCritique(raw string) CritiqueResult {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(strings.Trim(raw, ". "), "ok") {
		return CritiqueResult{OK: true}
	}
	var res CritiqueResult
	for line := range strings.SplitSeq(raw, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		open, closing := `"`, `"`
		switch {
		case strings.HasPrefix(line, "“"):
			open, closing = "“", "”"
		case !strings.HasPrefix(line, `"`):
			continue
		}
		body := line[len(open):]
		end := strings.Index(body, closing)
		if end < 0 {
			continue
		}
		quote := strings.TrimSpace(body[:end])
		rest := strings.TrimSpace(body[end+len(closing):])
		rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
		if quote == "" {
			continue
		}
		res.Findings = append(res.Findings, Finding{Quote: quote, Explanation: rest})
	}
	res.OK = len(res.Findings) == 0
	return res
}

// locatedFinding is a finding whose quote was found in the section.
type locatedFinding struct {
	Finding
	Span doctree.Span
}

// checkCritique submits the section text chunk by chunk to the critic and
// reports the passages it quotes.
func checkCritique(ctx context.Context, e *Evaluator, c rubric.Criterion, sec *sections.RecognizedSection, _ *Input) (*FeedbackItem, error) {
	if !sec.Found || strings.TrimSpace(sec.Content) == "" {
		return nil, nil
	}
	if e.critic == nil {
		return newItem(c, sec, rubric.StatusInfo, SkippedMessage, "", 0), nil
	}

	var located []locatedFinding
	var unlocated []Finding
	for _, ch := range chunker.Split(sec.Content, []string{sec.Identifier}, e.chunks) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := e.critic.Critique(ctx, ch.Text)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			e.logger.Warn("critic failed", "criterion", c.ID, "section", sec.Identifier, "chunk", ch.Index, "error", err)
			return newItem(c, sec, rubric.StatusInfo, SkippedMessage, "", 0), nil
		}
		for _, f := range res.Findings {
			idx := strings.Index(sec.Content, f.Quote)
			if idx < 0 {
				unlocated = append(unlocated, f)
				continue
			}
			start := sec.ContentStart + idx
			located = append(located, locatedFinding{Finding: f, Span: doctree.Span{Start: start, End: start + len(f.Quote)}})
		}
	}

	switch {
	case len(located) == 0 && len(unlocated) == 0:
		return okItem(c, sec, fmt.Sprintf("No remarks on %s", sec.Name)), nil
	case len(located) == 0:
		it := newItem(c, sec, rubric.StatusInfo,
			fmt.Sprintf("%d remark(s) on %s quote text that could not be located", len(unlocated), sec.Name),
			formatFindings(unlocated), 0.3)
		it.Details = map[string]any{"unlocated": unlocated}
		return it, nil
	}

	findings := make([]Finding, len(located))
	for i, l := range located {
		findings[i] = l.Finding
	}
	it := failItem(c, sec, rubric.SeverityWarning,
		fmt.Sprintf("%d passage(s) in %s need attention", len(located), sec.Name),
		formatFindings(findings), 0.6)
	sp := located[0].Span
	it.Span = &sp
	it.Details = map[string]any{"findings": findings}
	if len(unlocated) > 0 {
		it.Details["unlocated"] = unlocated
	}
	return it, nil
}

func formatFindings(fs []Finding) string {
	lines := make([]string, len(fs))
	for i, f := range fs {
		lines[i] = fmt.Sprintf("%q: %s", f.Quote, f.Explanation)
	}
	return strings.Join(lines, "\n")
}
