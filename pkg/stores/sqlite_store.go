// Package stores persists synthesis run summaries and audit events.
package stores

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunSummary is one persisted synthesis run.
type RunSummary struct {
	// RunID is the run identifier.
	RunID string `json:"run_id"`

	// Service is the service name.
	Service string `json:"service"`

	// Framework is the compliance framework of the run.
	Framework string `json:"framework"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the run completed.
	CompletedAt time.Time `json:"completed_at"`

	// Failed reports whether any component or binding failed.
	Failed bool `json:"failed"`

	// ComponentCount is the number of components in the run.
	ComponentCount int `json:"component_count"`

	// BindingCount is the number of bindings in the run.
	BindingCount int `json:"binding_count"`

	// ViolationCount is the number of policy violations recorded.
	ViolationCount int `json:"violation_count"`
}

// AuditEvent is one persisted structured event.
type AuditEvent struct {
	// ID is the event's row identifier.
	ID int64 `json:"id"`

	// RunID is the run the event belongs to.
	RunID string `json:"run_id"`

	// EventType is the event kind (config_resolved, binding_applied,
	// binding_rejected).
	EventType string `json:"event_type"`

	// Component is the component or binding source the event concerns.
	Component string `json:"component"`

	// Message is the human-readable event message.
	Message string `json:"message"`

	// Details is event-specific structured context.
	Details map[string]interface{} `json:"details,omitempty"`

	// CreatedAt is when the event was recorded.
	CreatedAt time.Time `json:"created_at"`
}

// Config holds SQLite audit store configuration.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// AuditStore persists runs and events in SQLite. It implements
// engine.AuditSink.
type AuditStore struct {
	db   *sql.DB
	path string
	cfg  Config
}

// NewAuditStore creates an audit store. Call Init before use.
func NewAuditStore(cfg Config) (*AuditStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &AuditStore{path: cfg.Path, cfg: cfg}, nil
}

// Init opens the database and enables WAL mode.
func (s *AuditStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(s.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *AuditStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs the embedded schema migrations.
func (s *AuditStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// RecordRun implements engine.AuditSink.
func (s *AuditStore) RecordRun(ctx context.Context, report *engine.SynthesisReport) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO synthesis_runs (
			run_id, service, framework, started_at, completed_at,
			failed, component_count, binding_count, violation_count, report
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.Service,
		string(report.Framework),
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.CompletedAt.UTC().Format(time.RFC3339Nano),
		report.Failed(),
		len(report.Components),
		len(report.Bindings),
		len(report.PolicyViolations),
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert synthesis run: %w", err)
	}
	return nil
}

// RecordEvent implements engine.AuditSink.
func (s *AuditStore) RecordEvent(ctx context.Context, runID, eventType, component, message string, details map[string]interface{}) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	var detailsJSON []byte
	if details != nil {
		var err error
		detailsJSON, err = json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to marshal event details: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (run_id, event_type, component, message, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, eventType, component, message, nullableString(detailsJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// ListRuns returns the most recent run summaries, newest first.
func (s *AuditStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, service, framework, started_at, completed_at,
		       failed, component_count, binding_count, violation_count
		FROM synthesis_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var startedAt, completedAt string
		if err := rows.Scan(&r.RunID, &r.Service, &r.Framework, &startedAt, &completedAt,
			&r.Failed, &r.ComponentCount, &r.BindingCount, &r.ViolationCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		r.CompletedAt, _ = time.Parse(time.RFC3339Nano, completedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRunReport returns the full persisted report for one run.
func (s *AuditStore) GetRunReport(ctx context.Context, runID string) (*engine.SynthesisReport, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var reportJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM synthesis_runs WHERE run_id = ?`, runID).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	var report engine.SynthesisReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// ListEvents returns one run's events in insertion order.
func (s *AuditStore) ListEvents(ctx context.Context, runID string) ([]AuditEvent, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, event_type, component, message, details, created_at
		FROM audit_events
		WHERE run_id = ?
		ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var e AuditEvent
		var details sql.NullString
		var createdAt string
		if err := rows.Scan(&e.ID, &e.RunID, &e.EventType, &e.Component, &e.Message, &details, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event details: %w", err)
			}
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullableString(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}
