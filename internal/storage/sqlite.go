// Package storage persists rubrics and analysis results in SQLite.
package storage

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite" // CGO-free SQLite driver
)

// DB is the concrete storage backed by SQLite.
type DB struct {
	conn *sql.DB
}

// OpenSQLite opens (and creates if missing) a SQLite DB at path.
// ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)"
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(ON)"
	}
	c, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Every connection would otherwise see its own empty database.
		c.SetMaxOpenConns(1)
	}
	return &DB{conn: c}, nil
}

// Close closes the database.
func (db *DB) Close() error { return db.conn.Close() }

// Ping checks connectivity.
func (db *DB) Ping(ctx context.Context) error { return db.conn.PingContext(ctx) }

// CreateSchema ensures tables exist.
func (db *DB) CreateSchema(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS document_types (
  identifier  TEXT PRIMARY KEY,
  name        TEXT NOT NULL,
  description TEXT,
  updated_at  TEXT NOT NULL      -- RFC3339Nano
);

CREATE TABLE IF NOT EXISTS section_templates (
  document_type     TEXT NOT NULL,
  id                INTEGER NOT NULL,
  identifier        TEXT NOT NULL,
  name              TEXT NOT NULL,
  alternative_names TEXT NOT NULL, -- JSON array
  pattern           TEXT,
  parent_id         INTEGER,       -- NULL = top level
  order_index       INTEGER NOT NULL,
  level             INTEGER NOT NULL,
  is_required       INTEGER NOT NULL,
  PRIMARY KEY (document_type, id),
  UNIQUE (document_type, identifier),
  FOREIGN KEY(document_type) REFERENCES document_types(identifier) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS criteria (
  document_type       TEXT NOT NULL,
  id                  INTEGER NOT NULL,
  name                TEXT NOT NULL,
  description         TEXT,
  rule_type           TEXT NOT NULL,
  kind                TEXT NOT NULL,
  application_scope   TEXT NOT NULL,
  severity            TEXT,
  frequency_unit      TEXT NOT NULL,
  max_mentions_per    INTEGER NOT NULL,
  expected_value_min  REAL,
  expected_value_max  REAL,
  error_message       TEXT,
  fixed_feedback_text TEXT,
  is_enabled          INTEGER NOT NULL,
  params_json         TEXT NOT NULL,
  position            INTEGER NOT NULL,
  PRIMARY KEY (document_type, id),
  FOREIGN KEY(document_type) REFERENCES document_types(identifier) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS criteria_section_mappings (
  document_type      TEXT NOT NULL,
  criterion_id       INTEGER NOT NULL,
  section_identifier TEXT NOT NULL,
  is_excluded        INTEGER NOT NULL,
  weight             REAL NOT NULL,
  position           INTEGER NOT NULL,
  FOREIGN KEY(document_type, criterion_id) REFERENCES criteria(document_type, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_mappings_criterion ON criteria_section_mappings(document_type, criterion_id);

CREATE TABLE IF NOT EXISTS analyses (
  job_id         TEXT PRIMARY KEY,
  document_type  TEXT NOT NULL,
  filename       TEXT,
  created_at     TEXT NOT NULL,  -- RFC3339Nano
  sections_found INTEGER NOT NULL,
  feedback       INTEGER NOT NULL,
  violations     INTEGER NOT NULL,
  warnings       INTEGER NOT NULL,
  report_json    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_type ON analyses(document_type, created_at);
`)
	return err
}
