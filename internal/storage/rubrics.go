package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/docreview/internal/rubric"
)

// ImportRubric validates r and replaces any stored rubric of the same
// document type. Criteria without an explicit kind are stored with the
// kind inferred from their legacy name.
func (db *DB) ImportRubric(ctx context.Context, r *rubric.Rubric) error {
	r = r.Clone()
	if err := r.Validate(); err != nil {
		return err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_types WHERE identifier = ?`, r.DocumentType); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO document_types (identifier, name, description, updated_at) VALUES (?, ?, ?, ?)`,
		r.DocumentType, r.Name, r.Description, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return err
	}

	for _, t := range r.Templates {
		aliases, err := json.Marshal(nonNil(t.AlternativeNames))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO section_templates
			 (document_type, id, identifier, name, alternative_names, pattern, parent_id, order_index, level, is_required)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.DocumentType, t.ID, t.Identifier, t.Name, string(aliases), t.Pattern,
			nullInt(t.ParentID), t.OrderIndex, t.Level, t.IsRequired,
		); err != nil {
			return fmt.Errorf("section %q: %w", t.Identifier, err)
		}
	}

	for i, c := range r.Criteria {
		params, err := json.Marshal(c.Params)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO criteria
			 (document_type, id, name, description, rule_type, kind, application_scope, severity, frequency_unit,
			  max_mentions_per, expected_value_min, expected_value_max, error_message, fixed_feedback_text,
			  is_enabled, params_json, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.DocumentType, c.ID, c.Name, c.Description, c.RuleType, c.Kind, c.Scope, c.Severity, c.FrequencyUnit,
			c.MaxMentionsPer, nullFloat(c.ExpectedMin), nullFloat(c.ExpectedMax), c.ErrorMessage, c.FixedFeedbackText,
			c.Enabled, string(params), i,
		); err != nil {
			return fmt.Errorf("criterion %d: %w", c.ID, err)
		}
	}

	for i, m := range r.Mappings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO criteria_section_mappings
			 (document_type, criterion_id, section_identifier, is_excluded, weight, position)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			r.DocumentType, m.CriterionID, m.SectionIdentifier, m.IsExcluded, m.Weight, i,
		); err != nil {
			return fmt.Errorf("mapping %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// DocumentTypes lists stored document types in name order.
func (db *DB) DocumentTypes(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT identifier FROM document_types ORDER BY identifier`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Rubric loads the rubric of one document type. The result is a fresh,
// validated value the caller owns.
func (db *DB) Rubric(ctx context.Context, documentType string) (*rubric.Rubric, error) {
	r := &rubric.Rubric{DocumentType: documentType}
	var desc sql.NullString
	err := db.conn.QueryRowContext(ctx,
		`SELECT name, description FROM document_types WHERE identifier = ?`, documentType,
	).Scan(&r.Name, &desc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", rubric.ErrUnknownDocumentType, documentType)
	}
	if err != nil {
		return nil, err
	}
	r.Description = desc.String

	if r.Templates, err = db.loadTemplates(ctx, documentType); err != nil {
		return nil, err
	}
	if r.Criteria, err = db.loadCriteria(ctx, documentType); err != nil {
		return nil, err
	}
	if r.Mappings, err = db.loadMappings(ctx, documentType); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("stored rubric %s: %w", documentType, err)
	}
	return r, nil
}

func (db *DB) loadTemplates(ctx context.Context, documentType string) ([]rubric.SectionTemplate, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, identifier, name, alternative_names, pattern, parent_id, order_index, level, is_required
		  FROM section_templates
		 WHERE document_type = ?
		 ORDER BY id`, documentType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rubric.SectionTemplate
	for rows.Next() {
		var t rubric.SectionTemplate
		var aliases string
		var pattern sql.NullString
		var parent sql.NullInt64
		if err := rows.Scan(&t.ID, &t.Identifier, &t.Name, &aliases, &pattern, &parent,
			&t.OrderIndex, &t.Level, &t.IsRequired); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(aliases), &t.AlternativeNames); err != nil {
			return nil, fmt.Errorf("section %q aliases: %w", t.Identifier, err)
		}
		t.Pattern = pattern.String
		if parent.Valid {
			p := parent.Int64
			t.ParentID = &p
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (db *DB) loadCriteria(ctx context.Context, documentType string) ([]rubric.Criterion, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, description, rule_type, kind, application_scope, severity, frequency_unit,
		       max_mentions_per, expected_value_min, expected_value_max, error_message, fixed_feedback_text,
		       is_enabled, params_json
		  FROM criteria
		 WHERE document_type = ?
		 ORDER BY position`, documentType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rubric.Criterion
	for rows.Next() {
		var c rubric.Criterion
		var desc, severity, errMsg, fixed sql.NullString
		var minV, maxV sql.NullFloat64
		var params string
		if err := rows.Scan(&c.ID, &c.Name, &desc, &c.RuleType, &c.Kind, &c.Scope, &severity, &c.FrequencyUnit,
			&c.MaxMentionsPer, &minV, &maxV, &errMsg, &fixed, &c.Enabled, &params); err != nil {
			return nil, err
		}
		c.Description = desc.String
		c.Severity = rubric.Severity(severity.String)
		c.ErrorMessage = errMsg.String
		c.FixedFeedbackText = fixed.String
		if minV.Valid {
			v := minV.Float64
			c.ExpectedMin = &v
		}
		if maxV.Valid {
			v := maxV.Float64
			c.ExpectedMax = &v
		}
		if err := json.Unmarshal([]byte(params), &c.Params); err != nil {
			return nil, fmt.Errorf("criterion %d params: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (db *DB) loadMappings(ctx context.Context, documentType string) ([]rubric.CriterionSectionMapping, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT criterion_id, section_identifier, is_excluded, weight
		  FROM criteria_section_mappings
		 WHERE document_type = ?
		 ORDER BY position`, documentType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rubric.CriterionSectionMapping
	for rows.Next() {
		var m rubric.CriterionSectionMapping
		if err := rows.Scan(&m.CriterionID, &m.SectionIdentifier, &m.IsExcluded, &m.Weight); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
