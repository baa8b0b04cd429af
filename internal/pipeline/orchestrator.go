package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docreview/internal/config"
	"github.com/dgallion1/docreview/internal/criteria"
	"github.com/dgallion1/docreview/internal/engine"
	"github.com/dgallion1/docreview/internal/metrics"
	"github.com/dgallion1/docreview/internal/parser"
	"github.com/dgallion1/docreview/internal/rubric"
	"github.com/dgallion1/docreview/internal/sections"
)

// ErrQueueFull is returned by Submit when no worker slot is free.
var ErrQueueFull = errors.New("job queue is full")

// Deps are the collaborators of the pipeline. Store, Archive, Critic and
// Metrics are optional.
type Deps struct {
	Rubrics rubric.Source
	Critic  criteria.Critic
	Store   ReportStore
	Archive ReportArchive
	Metrics *metrics.Metrics
	Log     *slog.Logger
}

// Orchestrator manages the document analysis pipeline.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	worker  *Worker
	rubrics rubric.Source
	metrics *metrics.Metrics
	log     *slog.Logger
	cfg     config.Config

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, deps Deps) *Orchestrator {
	log := deps.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	w := &Worker{
		rubrics: deps.Rubrics,
		engineCfg: engine.Config{
			Recognition: sections.Options{Duplicates: sections.DuplicatePolicy(cfg.DuplicateHeadings)},
			Critic:      NewRetryingCritic(deps.Critic, deps.Metrics, log),
			ChunkChars:  cfg.CriticChunkChars,
		},
		store:      deps.Store,
		archive:    deps.Archive,
		metrics:    deps.Metrics,
		log:        log,
		parserOpts: parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
		timeout:    cfg.AnalysisTimeout,
	}
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		worker:  w,
		rubrics: deps.Rubrics,
		metrics: deps.Metrics,
		log:     log,
		cfg:     cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.metrics.SetQueueDepth(len(o.queue))
					o.worker.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop shuts down the pipeline and waits for workers. Queued jobs that
// were not picked up stay queued. Stop may be called more than once.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		if o.cancel != nil {
			o.cancel()
		}
		close(o.queue)
		o.wg.Wait()
	})
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		o.metrics.SetQueueDepth(len(o.queue))
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// AnalyzeSync runs an analysis inline on the caller's goroutine. Nothing
// is stored or archived.
func (o *Orchestrator) AnalyzeSync(ctx context.Context, filename, documentType string, data []byte) (*engine.Report, error) {
	return o.worker.Analyze(ctx, filename, documentType, data, nil)
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// Jobs returns the job registry.
func (o *Orchestrator) Jobs() *JobStore {
	return o.jobs
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Rubrics returns the rubric source used by the workers.
func (o *Orchestrator) Rubrics() rubric.Source {
	return o.rubrics
}
