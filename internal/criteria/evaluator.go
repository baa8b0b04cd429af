package criteria

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docreview/internal/chunker"
	"github.com/dgallion1/docreview/internal/rubric"
	"github.com/dgallion1/docreview/internal/sections"
)

// Options configures an Evaluator.
type Options struct {
	Critic     Critic // optional
	ChunkChars int    // 0 uses chunker.DefaultConfig
	Logger     *slog.Logger
}

// Evaluator runs criteria against sections. It holds no per-run state.
type Evaluator struct {
	critic Critic
	chunks chunker.Config
	logger *slog.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(opts Options) *Evaluator {
	cfg := chunker.DefaultConfig()
	if opts.ChunkChars > 0 {
		cfg.MaxChars = opts.ChunkChars
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Evaluator{critic: opts.Critic, chunks: cfg, logger: logger}
}

type checkFunc func(ctx context.Context, e *Evaluator, c rubric.Criterion, sec *sections.RecognizedSection, in *Input) (*FeedbackItem, error)

var checks = map[rubric.RuleKind]checkFunc{
	rubric.KindWordCount:        checkWordCount,
	rubric.KindParagraphCount:   checkParagraphCount,
	rubric.KindHeadingCount:     checkHeadingCount,
	rubric.KindRequiredSection:  checkRequiredSection,
	rubric.KindSectionOrder:     checkSectionOrder,
	rubric.KindPersonalLanguage: checkPersonalLanguage,
	rubric.KindForbiddenPhrases: checkForbiddenPhrases,
	rubric.KindLegalCitation:    checkLegalCitation,
	rubric.KindParagraphLength:  checkParagraphLength,
	rubric.KindSMART:            checkSMART,
	rubric.KindConsistency:      checkConsistency,
	rubric.KindSourceUsage:      checkSourceUsage,
	rubric.KindCritique:         checkCritique,
}

// Evaluate applies c to sec and returns zero or one feedback item.
// A nil item with a nil error means the criterion has nothing to report.
func (e *Evaluator) Evaluate(ctx context.Context, c rubric.Criterion, sec *sections.RecognizedSection, in *Input) (*FeedbackItem, error) {
	if sec == nil {
		return nil, fmt.Errorf("criterion %d: nil section", c.ID)
	}
	check, ok := checks[c.Kind]
	if !ok {
		return nil, fmt.Errorf("criterion %d (%s): %w %q", c.ID, c.Name, ErrUnknownRuleKind, c.Kind)
	}
	if in == nil {
		in = &Input{}
	}
	return check(ctx, e, c, sec, in)
}
