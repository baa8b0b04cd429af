package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docreview/internal/engine"
	"github.com/dgallion1/docreview/internal/metrics"
	"github.com/dgallion1/docreview/internal/parser"
	"github.com/dgallion1/docreview/internal/rubric"
)

// ReportStore persists finished reports.
type ReportStore interface {
	SaveAnalysis(ctx context.Context, jobID, filename string, report *engine.Report) error
}

// ReportArchive copies finished reports to an external archive.
type ReportArchive interface {
	ArchiveReport(ctx context.Context, jobID, filename string, report *engine.Report) error
}

// Worker processes a single analysis job.
type Worker struct {
	rubrics    rubric.Source
	engineCfg  engine.Config
	store      ReportStore
	archive    ReportArchive
	metrics    *metrics.Metrics
	log        *slog.Logger
	parserOpts parser.Options
	timeout    time.Duration
}

// Analyze parses data and runs a fresh engine over it. onState, if set,
// receives every engine state transition.
func (w *Worker) Analyze(ctx context.Context, filename, documentType string, data []byte, onState func(engine.State)) (*engine.Report, error) {
	p, err := parser.ForFile(filename, w.parserOpts)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	r, err := w.rubrics.Rubric(ctx, documentType)
	if err != nil {
		return nil, err
	}

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	cfg := w.engineCfg
	cfg.OnState = onState
	cfg.Logger = w.log.With("document_type", documentType, "filename", filename)

	start := time.Now()
	report, err := engine.New(cfg).Run(ctx, doc, r)
	if err != nil {
		w.metrics.ObserveFailure(documentType)
		return nil, err
	}
	w.metrics.ObserveReport(report, time.Since(start))
	return report, nil
}

// Process runs the full analysis pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "document_type", job.DocumentType)

	job.SetStatus(StatusParsing, "parsing")
	data := job.FileData()
	job.setContentHash(ContentHashHex(data))

	report, err := w.Analyze(ctx, job.Filename, job.DocumentType, data, func(s engine.State) {
		switch s {
		case engine.StateRecognizing:
			job.SetStatus(StatusRecognizing, "recognizing")
		case engine.StateEvaluating:
			job.SetStatus(StatusEvaluating, "evaluating")
		}
	})
	job.releaseFileData()
	if err != nil {
		phase := job.Snapshot().Phase
		log.Error("analysis failed", "phase", phase, "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, phase)
		return
	}
	job.SetReport(report)

	job.SetStatus(StatusStoring, "storing")
	if w.store != nil {
		if err := w.store.SaveAnalysis(ctx, job.ID, job.Filename, report); err != nil {
			log.Error("save analysis failed", "error", err)
			job.AddError(fmt.Sprintf("store: %s", err))
		}
	}
	if w.archive != nil {
		if err := w.archive.ArchiveReport(ctx, job.ID, job.Filename, report); err != nil {
			log.Warn("archive report failed", "error", err)
			job.AddError(fmt.Sprintf("archive: %s", err))
		}
	}

	log.Info("analysis complete",
		"sections_found", report.Stats.SectionsFound,
		"feedback", len(report.Feedback),
		"duration_ms", report.Stats.DurationMs,
	)
	job.SetStatus(StatusCompleted, "done")
}
