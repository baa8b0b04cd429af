package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docreview/internal/config"
	"github.com/dgallion1/docreview/internal/rubric"
	"github.com/dgallion1/docreview/internal/storage"
)

func newRubricCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rubric",
		Short: "Validate and import rubric files",
	}
	cmd.AddCommand(newRubricValidateCmd(), newRubricImportCmd())
	return cmd
}

func newRubricValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.yaml>...",
		Short: "Load and validate rubric files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				r, err := rubric.LoadFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %v\n", err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s: %s (%d sections, %d criteria)\n",
					path, r.DocumentType, len(r.Templates), len(r.Criteria))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d rubrics invalid", failed, len(args))
			}
			return nil
		},
	}
}

func newRubricImportCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "import --db <path> <file.yaml>...",
		Short: "Store rubric files in the SQLite catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = os.Getenv("DATABASE_PATH")
			}
			if dbPath == "" {
				return fmt.Errorf("--db or DATABASE_PATH is required")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return importRubrics(ctx, cmd, dbPath, args)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	return cmd
}

func importRubrics(ctx context.Context, cmd *cobra.Command, dbPath string, paths []string) error {
	log := loggerFor(cmd)
	db, err := storage.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.CreateSchema(ctx); err != nil {
		return err
	}

	for _, path := range paths {
		r, err := rubric.LoadFile(path)
		if err != nil {
			return err
		}
		if err := db.ImportRubric(ctx, r); err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		log.Info("imported rubric", "path", path, "document_type", r.DocumentType)
		fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", r.DocumentType)
	}
	return nil
}

func loggerFor(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	return config.NewLogger(cmd.ErrOrStderr(), format, level)
}
