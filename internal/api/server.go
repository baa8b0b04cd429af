package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docreview/internal/config"
	"github.com/dgallion1/docreview/internal/critic"
	"github.com/dgallion1/docreview/internal/metrics"
	"github.com/dgallion1/docreview/internal/pathstore"
	"github.com/dgallion1/docreview/internal/pipeline"
	"github.com/dgallion1/docreview/internal/storage"
)

// ReportArchive reads reports back from the long-term archive.
type ReportArchive interface {
	LoadReport(ctx context.Context, documentType, jobID string) (*pathstore.ArchivedReport, error)
	ListReports(ctx context.Context, documentType string, limit int) ([]string, error)
}

// Server is the HTTP API server for docreview.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	critic       *critic.ClaudeClient // nil when no model is configured
	db           *storage.DB          // nil without DATABASE_PATH
	archive      ReportArchive        // nil without PATHSTORE_URL
	metrics      *metrics.Metrics
	log          *slog.Logger
	cfg          config.Config
}

// Options carries the optional collaborators of a Server.
type Options struct {
	Critic  *critic.ClaudeClient
	DB      *storage.DB
	Archive ReportArchive
	Metrics *metrics.Metrics
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config, opts Options) *Server {
	s := &Server{
		orchestrator: orch,
		critic:       opts.Critic,
		db:           opts.DB,
		archive:      opts.Archive,
		metrics:      opts.Metrics,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/analyze", s.handleAnalyze)
		r.Post("/api/analyze/sync", s.handleAnalyzeSync)
		r.Get("/api/analyze/{jobID}/status", s.handleAnalyzeStatus)
		r.Get("/api/analyze/{jobID}/report", s.handleAnalyzeReport)

		r.Get("/api/analyses", s.handleListAnalyses)

		r.Get("/api/rubrics", s.handleListRubrics)
		r.Get("/api/rubrics/{documentType}", s.handleGetRubric)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
		"critic":      s.critic != nil,
	}
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
