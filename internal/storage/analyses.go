package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/docreview/internal/engine"
	"github.com/dgallion1/docreview/internal/rubric"
)

// ErrNotFound is returned when a stored analysis does not exist.
var ErrNotFound = errors.New("storage: not found")

// AnalysisRow is a lightweight listing row for stored analyses.
type AnalysisRow struct {
	JobID         string    `json:"job_id"`
	DocumentType  string    `json:"document_type"`
	Filename      string    `json:"filename,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	SectionsFound int       `json:"sections_found"`
	Feedback      int       `json:"feedback"`
	Violations    int       `json:"violations"`
	Warnings      int       `json:"warnings"`
}

// SaveAnalysis upserts the report of one job.
func (db *DB) SaveAnalysis(ctx context.Context, jobID, filename string, report *engine.Report) error {
	if report == nil {
		return errors.New("storage: nil report")
	}
	b, err := json.Marshal(report)
	if err != nil {
		return err
	}
	var violations, warnings int
	for _, it := range report.Feedback {
		switch it.Status {
		case rubric.StatusViolation:
			violations++
		case rubric.StatusWarning:
			warnings++
		}
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO analyses (job_id, document_type, filename, created_at, sections_found, feedback, violations, warnings, report_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(job_id) DO UPDATE SET document_type=excluded.document_type, filename=excluded.filename,
		   created_at=excluded.created_at, sections_found=excluded.sections_found, feedback=excluded.feedback,
		   violations=excluded.violations, warnings=excluded.warnings, report_json=excluded.report_json`,
		jobID, report.DocumentType, filename, time.Now().UTC().Format(time.RFC3339Nano),
		report.Stats.SectionsFound, len(report.Feedback), violations, warnings, string(b),
	)
	return err
}

// LoadAnalysis returns the stored report of one job.
func (db *DB) LoadAnalysis(ctx context.Context, jobID string) (*engine.Report, error) {
	var s string
	err := db.conn.QueryRowContext(ctx, `SELECT report_json FROM analyses WHERE job_id = ?`, jobID).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: analysis %s", ErrNotFound, jobID)
	}
	if err != nil {
		return nil, err
	}
	var report engine.Report
	if err := json.Unmarshal([]byte(s), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ListAnalyses returns stored analyses, newest first. An empty
// documentType lists all types.
func (db *DB) ListAnalyses(ctx context.Context, documentType string, limit, offset int) ([]AnalysisRow, error) {
	const q = `
		SELECT job_id, document_type, filename, created_at, sections_found, feedback, violations, warnings
		  FROM analyses
		 WHERE (? = '' OR document_type = ?)
		 ORDER BY created_at DESC, job_id DESC
		 LIMIT ? OFFSET ?`
	rows, err := db.conn.QueryContext(ctx, q, documentType, documentType, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AnalysisRow{}
	for rows.Next() {
		var ar AnalysisRow
		var filename sql.NullString
		var created string
		if err := rows.Scan(&ar.JobID, &ar.DocumentType, &filename, &created,
			&ar.SectionsFound, &ar.Feedback, &ar.Violations, &ar.Warnings); err != nil {
			return nil, err
		}
		ar.Filename = filename.String
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			ar.CreatedAt = t
		}
		out = append(out, ar)
	}
	return out, rows.Err()
}
