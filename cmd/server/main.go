package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docreview/internal/api"
	"github.com/dgallion1/docreview/internal/config"
	"github.com/dgallion1/docreview/internal/critic"
	"github.com/dgallion1/docreview/internal/metrics"
	"github.com/dgallion1/docreview/internal/pathstore"
	"github.com/dgallion1/docreview/internal/pipeline"
	"github.com/dgallion1/docreview/internal/rubric"
	"github.com/dgallion1/docreview/internal/storage"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	deps := pipeline.Deps{Metrics: m, Log: log}
	var apiOpts api.Options
	apiOpts.Metrics = m

	// Results database. When configured it is also the rubric source.
	var db *storage.DB
	if cfg.DatabasePath != "" {
		var err error
		db, err = storage.OpenSQLite(cfg.DatabasePath)
		if err != nil {
			log.Error("open database", "path", cfg.DatabasePath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.CreateSchema(ctx); err != nil {
			log.Error("create schema", "error", err)
			os.Exit(1)
		}
		deps.Store = db
		apiOpts.DB = db
	}

	rubrics, err := rubricSource(ctx, cfg, db, log)
	if err != nil {
		log.Error("load rubrics", "error", err)
		os.Exit(1)
	}
	deps.Rubrics = rubrics

	var claude *critic.ClaudeClient
	if cfg.CriticEnabled() {
		claude = critic.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		deps.Critic = claude
		apiOpts.Critic = claude
	} else {
		log.Info("critic disabled, ANTHROPIC_API_KEY not set")
	}

	var ps *pathstore.Client
	if cfg.PathstoreURL != "" {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		deps.Archive = ps
		apiOpts.Archive = ps
	}

	orch := pipeline.NewOrchestrator(cfg, deps)
	orch.Start(ctx)

	srv := api.NewServer(orch, log, cfg, apiOpts)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.AnalysisTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		if claude != nil {
			claude.Close()
		}
		if ps != nil {
			ps.Close()
		}
	}()

	log.Info("starting docreview", "port", cfg.Port, "critic", cfg.CriticEnabled(), "database", cfg.DatabasePath != "")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// rubricSource prefers the database catalog. YAML files in RUBRIC_DIR are
// imported into it on startup, or served from memory without a database.
func rubricSource(ctx context.Context, cfg config.Config, db *storage.DB, log *slog.Logger) (rubric.Source, error) {
	var catalog *rubric.Catalog
	if cfg.RubricDir != "" {
		if _, err := os.Stat(cfg.RubricDir); err == nil {
			catalog, err = rubric.LoadDir(cfg.RubricDir)
			if err != nil {
				return nil, err
			}
		} else if db == nil {
			return nil, err
		}
	}

	if db == nil {
		return catalog, nil
	}
	if catalog != nil {
		types, _ := catalog.DocumentTypes(ctx)
		for _, dt := range types {
			r, err := catalog.Rubric(ctx, dt)
			if err != nil {
				return nil, err
			}
			if err := db.ImportRubric(ctx, r); err != nil {
				return nil, err
			}
			log.Info("imported rubric", "document_type", dt)
		}
	}
	return db, nil
}
