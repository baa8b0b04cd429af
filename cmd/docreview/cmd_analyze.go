package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docreview/internal/config"
	"github.com/dgallion1/docreview/internal/critic"
	"github.com/dgallion1/docreview/internal/criteria"
	"github.com/dgallion1/docreview/internal/engine"
	"github.com/dgallion1/docreview/internal/parser"
	"github.com/dgallion1/docreview/internal/pipeline"
	"github.com/dgallion1/docreview/internal/rubric"
	"github.com/dgallion1/docreview/internal/sections"
	"github.com/dgallion1/docreview/internal/storage"
)

type analyzeOptions struct {
	rubricPath   string
	dbPath       string
	documentType string
	format       string
	duplicates   string
	showOK       bool
	useCritic    bool
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze [flags] <document>",
		Short: "Analyze a document and print the feedback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.rubricPath, "rubric", "", "rubric YAML file")
	f.StringVar(&opts.dbPath, "db", "", "SQLite rubric catalog (with --type)")
	f.StringVar(&opts.documentType, "type", "", "document type to load from --db")
	f.StringVar(&opts.format, "format", "text", "output format (text, json)")
	f.StringVar(&opts.duplicates, "duplicates", "last", "duplicate heading policy (last, first)")
	f.BoolVar(&opts.showOK, "all", false, "include ok results in text output")
	f.BoolVar(&opts.useCritic, "critic", false, "ask the language model for a critique (needs ANTHROPIC_API_KEY)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, path string, opts analyzeOptions) error {
	if opts.duplicates != string(sections.LastMatchWins) && opts.duplicates != string(sections.FirstMatchWins) {
		return fmt.Errorf("--duplicates must be last or first, got %q", opts.duplicates)
	}
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("--format must be text or json, got %q", opts.format)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := loggerFor(cmd)

	r, err := loadRubric(ctx, opts)
	if err != nil {
		return err
	}

	p, err := parser.ForFile(path, parser.Options{PDFFallbackPdftotext: true})
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	doc, err := p.Parse(f, path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	cfg := engine.Config{
		Recognition: sections.Options{Duplicates: sections.DuplicatePolicy(opts.duplicates)},
		Logger:      log,
	}
	if opts.useCritic {
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return fmt.Errorf("--critic needs ANTHROPIC_API_KEY")
		}
		model := os.Getenv("ANTHROPIC_MODEL")
		if model == "" {
			model = config.Load().AnthropicModel
		}
		client := critic.NewClaudeClient(key, model)
		defer client.Close()
		cfg.Critic = pipeline.NewRetryingCritic(client, nil, log)
	}

	report, err := engine.New(cfg).Run(ctx, doc, r)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	writeTextReport(out, report, opts.showOK)
	return nil
}

func loadRubric(ctx context.Context, opts analyzeOptions) (*rubric.Rubric, error) {
	switch {
	case opts.rubricPath != "":
		return rubric.LoadFile(opts.rubricPath)
	case opts.dbPath != "" && opts.documentType != "":
		db, err := storage.OpenSQLite(opts.dbPath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return db.Rubric(ctx, opts.documentType)
	default:
		return nil, fmt.Errorf("either --rubric or --db with --type is required")
	}
}

// writeTextReport prints a human readable report. OK results are hidden
// unless showOK is set.
func writeTextReport(w io.Writer, r *engine.Report, showOK bool) {
	fmt.Fprintf(w, "Document type: %s\n", r.DocumentType)
	fmt.Fprintf(w, "Sections: %d found, %d missing\n", r.Stats.SectionsFound, r.Stats.SectionsMissing)
	for _, s := range r.Sections {
		mark := "-"
		if s.Found {
			mark = "+"
		}
		fmt.Fprintf(w, "  %s %s\n", mark, s.Name)
	}
	fmt.Fprintln(w)

	shown := 0
	for _, it := range r.Feedback {
		if it.Status == rubric.StatusOK && !showOK {
			continue
		}
		shown++
		writeItem(w, it)
	}
	if shown == 0 {
		fmt.Fprintln(w, "No findings.")
	}
	if r.Stats.Suppressed > 0 {
		fmt.Fprintf(w, "(%d repeated findings suppressed)\n", r.Stats.Suppressed)
	}
}

func writeItem(w io.Writer, it criteria.FeedbackItem) {
	fmt.Fprintf(w, "[%s] %s (%s)\n", strings.ToUpper(string(it.Status)), it.CriterionName, it.Location)
	if it.Message != "" {
		fmt.Fprintf(w, "  %s\n", it.Message)
	}
	if it.Suggestion != "" {
		fmt.Fprintf(w, "  Suggestion: %s\n", it.Suggestion)
	}
}
