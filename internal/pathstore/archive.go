package pathstore

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dgallion1/docreview/internal/engine"
)

// ReviewsPrefix is the root of all archived reports.
const ReviewsPrefix = "reviews"

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	slugRepeat  = regexp.MustCompile(`-+`)
)

// Slugify turns s into a lowercase key segment of at most 50 characters.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugRepeat.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = strings.TrimRight(s[:50], "-")
	}
	return s
}

// ReportKey returns the archive key of one job's report.
func ReportKey(documentType, jobID string) string {
	dt := Slugify(documentType)
	if dt == "" {
		dt = "unknown"
	}
	return fmt.Sprintf("%s/%s/%s", ReviewsPrefix, dt, Slugify(jobID))
}

// ArchivedReport is the value stored under ReportKey.
type ArchivedReport struct {
	JobID      string         `json:"job_id"`
	Filename   string         `json:"filename,omitempty"`
	ArchivedAt time.Time      `json:"archived_at"`
	Report     *engine.Report `json:"report"`
}

// ArchiveReport stores report under its document type.
func (c *Client) ArchiveReport(ctx context.Context, jobID, filename string, report *engine.Report) error {
	if report == nil {
		return fmt.Errorf("archive %s: nil report", jobID)
	}
	return c.PutNode(ctx, ReportKey(report.DocumentType, jobID), NodeRequest{
		Value: ArchivedReport{
			JobID:      jobID,
			Filename:   filename,
			ArchivedAt: time.Now().UTC(),
			Report:     report,
		},
		MemoryType: "episodic",
		Salience:   0.3,
		Source:     "docreview:" + jobID,
	})
}

// LoadReport fetches an archived report. It returns nil, nil when the
// report was never archived.
func (c *Client) LoadReport(ctx context.Context, documentType, jobID string) (*ArchivedReport, error) {
	node, err := c.GetNode(ctx, ReportKey(documentType, jobID))
	if err != nil || node == nil {
		return nil, err
	}
	var ar ArchivedReport
	if err := json.Unmarshal(node.Value, &ar); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", jobID, err)
	}
	return &ar, nil
}

// ListReports returns the job IDs archived for documentType.
func (c *Client) ListReports(ctx context.Context, documentType string, limit int) ([]string, error) {
	prefix := fmt.Sprintf("%s/%s", ReviewsPrefix, Slugify(documentType))
	nodes, err := c.ListChildren(ctx, prefix, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		key := strings.ReplaceAll(n.Key, ".", "/")
		ids = append(ids, key[strings.LastIndex(key, "/")+1:])
	}
	return ids, nil
}
