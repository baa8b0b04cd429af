// Package engine drives one analysis: section recognition followed by
// criterion evaluation with per-run frequency limiting.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgallion1/docreview/internal/criteria"
	"github.com/dgallion1/docreview/internal/doctree"
	"github.com/dgallion1/docreview/internal/frequency"
	"github.com/dgallion1/docreview/internal/rubric"
	"github.com/dgallion1/docreview/internal/scope"
	"github.com/dgallion1/docreview/internal/sections"
)

// State is the driver's position in a run.
type State int32

const (
	StateIdle State = iota
	StateRecognizing
	StateEvaluating
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecognizing:
		return "recognizing"
	case StateEvaluating:
		return "evaluating"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Config holds everything a driver needs. There are no package-level settings.
type Config struct {
	Recognition     sections.Options
	DefaultSections map[rubric.RuleType][]string // nil uses scope.DefaultSections
	Critic          criteria.Critic              // optional
	ChunkChars      int
	Logger          *slog.Logger
	// OnState, if set, is called on every state transition.
	OnState func(State)
}

// Stats summarizes a run.
type Stats struct {
	SectionsFound     int   `json:"sections_found"`
	SectionsMissing   int   `json:"sections_missing"`
	CriteriaEvaluated int   `json:"criteria_evaluated"`
	Feedback          int   `json:"feedback"`
	Suppressed        int   `json:"suppressed"`
	Diagnostics       int   `json:"diagnostics"`
	DurationMs        int64 `json:"duration_ms"`
}

// Report is the output of one run.
type Report struct {
	DocumentType string                       `json:"document_type"`
	Sections     []sections.RecognizedSection `json:"sections"`
	Feedback     []criteria.FeedbackItem      `json:"feedback"`
	Stats        Stats                        `json:"stats"`
}

// Driver runs analyses. A driver may be reused sequentially; concurrent
// analyses should each use their own driver.
type Driver struct {
	cfg       Config
	resolver  *scope.Resolver
	evaluator *criteria.Evaluator
	logger    *slog.Logger
	state     atomic.Int32
}

// New creates a driver from cfg.
func New(cfg Config) *Driver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Recognition.Logger == nil {
		cfg.Recognition.Logger = logger
	}
	return &Driver{
		cfg:      cfg,
		resolver: scope.NewResolver(cfg.DefaultSections),
		evaluator: criteria.NewEvaluator(criteria.Options{
			Critic:     cfg.Critic,
			ChunkChars: cfg.ChunkChars,
			Logger:     logger,
		}),
		logger: logger,
	}
}

// State returns the current state.
func (d *Driver) State() State { return State(d.state.Load()) }

func (d *Driver) setState(s State) {
	d.state.Store(int32(s))
	if d.cfg.OnState != nil {
		d.cfg.OnState(s)
	}
}

// Run recognizes the sections of doc and evaluates every enabled criterion
// of r against them. The rubric is snapshotted first, so later edits by the
// caller do not affect the run. Only heading precondition errors, invalid
// rubrics and context cancellation fail the run; evaluation errors become
// info diagnostics.
func (d *Driver) Run(ctx context.Context, doc *doctree.ParsedDocument, r *rubric.Rubric) (*Report, error) {
	if doc == nil {
		return nil, errors.New("engine: nil document")
	}
	if r == nil {
		return nil, errors.New("engine: nil rubric")
	}
	start := time.Now()
	defer d.setState(StateDone)

	snapshot := r.Clone()
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	d.setState(StateRecognizing)
	recognized, err := sections.Recognize(doc, snapshot.Templates, d.cfg.Recognition)
	if err != nil {
		return nil, fmt.Errorf("engine: recognize: %w", err)
	}
	set := sections.NewSet(doc, recognized)
	in := &criteria.Input{Doc: doc, Sections: set, Templates: snapshot.Templates}

	report := &Report{
		DocumentType: snapshot.DocumentType,
		Sections:     recognized,
		Feedback:     []criteria.FeedbackItem{},
	}
	for _, s := range recognized {
		if s.Found {
			report.Stats.SectionsFound++
		} else {
			report.Stats.SectionsMissing++
		}
	}

	d.setState(StateEvaluating)
	limiter := frequency.NewLimiter()
	for _, c := range snapshot.Criteria {
		if !c.Enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		report.Stats.CriteriaEvaluated++

		for _, sec := range d.resolver.Resolve(c, snapshot.MappingsFor(c.ID), set) {
			item, err := d.evaluate(ctx, c, sec, in)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, fmt.Errorf("engine: %w", ctxErr)
				}
				d.logger.Warn("criterion failed",
					"criterion", c.ID, "name", c.Name, "section", sec.Identifier, "error", err)
				report.Feedback = append(report.Feedback,
					*criteria.Diagnostic(c, sec, fmt.Sprintf("Criterion could not be evaluated: %v", err)))
				report.Stats.Diagnostics++
				continue
			}
			if item == nil {
				continue
			}
			key := frequency.ScopeKey(c.FrequencyUnit, sec.Identifier)
			if !limiter.Admit(c.ID, key, c.MaxMentionsPer, item.Status) {
				continue
			}
			report.Feedback = append(report.Feedback, *item)
		}
	}

	report.Stats.Feedback = len(report.Feedback)
	report.Stats.Suppressed = limiter.Suppressed()
	report.Stats.DurationMs = time.Since(start).Milliseconds()
	d.logger.Info("analysis complete",
		"document_type", snapshot.DocumentType,
		"sections_found", report.Stats.SectionsFound,
		"feedback", report.Stats.Feedback,
		"suppressed", report.Stats.Suppressed,
		"diagnostics", report.Stats.Diagnostics,
	)
	return report, nil
}

// evaluate isolates one (criterion, section) evaluation, turning panics
// into errors.
func (d *Driver) evaluate(ctx context.Context, c rubric.Criterion, sec *sections.RecognizedSection, in *criteria.Input) (item *criteria.FeedbackItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			item, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return d.evaluator.Evaluate(ctx, c, sec, in)
}
