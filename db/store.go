package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/buildamp/errors"
	"github.com/teranos/buildamp/logger"
	"github.com/teranos/buildamp/version"
)

// Run statuses
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// PhaseRecord is one phase outcome within a run.
type PhaseRecord struct {
	Phase       string        `json:"phase" yaml:"phase"`
	Success     bool          `json:"success" yaml:"success"`
	Models      int           `json:"models" yaml:"models"`
	Artifacts   int           `json:"artifacts" yaml:"artifacts"`
	Skipped     int           `json:"skipped" yaml:"skipped"`
	Diagnostics int           `json:"diagnostics" yaml:"diagnostics"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunRecord is one pipeline invocation.
type RunRecord struct {
	ID         string        `json:"id" yaml:"id"`
	StartedAt  time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Phases     []string      `json:"phases" yaml:"phases"`
	Version    string        `json:"version" yaml:"version"`
	Status     string        `json:"status" yaml:"status"`
	Results    []PhaseRecord `json:"results" yaml:"results"`
}

// Store records runs and model contracts.
type Store struct {
	db  *sql.DB
	log *zap.SugaredLogger
	now func() time.Time
}

// NewStore wraps an open, migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:  db,
		log: logger.ComponentLogger("state"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// OpenStore opens and migrates the state database at path.
func OpenStore(path string) (*Store, error) {
	db, err := OpenWithMigrations(path, logger.ComponentLogger("state"))
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun records the start of a run and returns its ID.
func (s *Store) BeginRun(ctx context.Context, phases []string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, started_at, phases, version, status) VALUES (?, ?, ?, ?, ?)",
		id, s.now(), strings.Join(phases, ","), version.Version, StatusRunning)
	if err != nil {
		return "", wrap(err, "failed to record run start")
	}
	s.log.Debugw("Run started", logger.FieldRunID, id)
	return id, nil
}

// RecordPhase stores one phase outcome.
func (s *Store) RecordPhase(ctx context.Context, runID string, rec PhaseRecord) error {
	var errText sql.NullString
	if rec.Error != "" {
		errText = sql.NullString{String: rec.Error, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO phase_results (run_id, phase, success, models, artifacts, skipped, diagnostics, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rec.Phase, rec.Success, rec.Models, rec.Artifacts, rec.Skipped, rec.Diagnostics,
		rec.Duration.Milliseconds(), errText)
	return wrap(err, "failed to record phase "+rec.Phase)
}

// FinishRun marks a run finished.
func (s *Store) FinishRun(ctx context.Context, runID string, success bool) error {
	status := StatusSucceeded
	if !success {
		status = StatusFailed
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE runs SET finished_at = ?, status = ? WHERE id = ?",
		s.now(), status, runID)
	return wrap(err, "failed to record run end")
}

// LastRun returns the most recent run with its phase results, or nil when
// nothing was recorded yet.
func (s *Store) LastRun(ctx context.Context) (*RunRecord, error) {
	var (
		run      RunRecord
		finished sql.NullTime
		phases   string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, started_at, finished_at, phases, version, status FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1",
	).Scan(&run.ID, &run.StartedAt, &finished, &phases, &run.Version, &run.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(err, "failed to read last run")
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	if phases != "" {
		run.Phases = strings.Split(phases, ",")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT phase, success, models, artifacts, skipped, diagnostics, duration_ms, error
		FROM phase_results WHERE run_id = ? ORDER BY id`, run.ID)
	if err != nil {
		return nil, wrap(err, "failed to read phase results")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec     PhaseRecord
			ms      int64
			errText sql.NullString
		)
		if err := rows.Scan(&rec.Phase, &rec.Success, &rec.Models, &rec.Artifacts, &rec.Skipped,
			&rec.Diagnostics, &ms, &errText); err != nil {
			return nil, wrap(err, "failed to scan phase result")
		}
		rec.Duration = time.Duration(ms) * time.Millisecond
		rec.Error = errText.String
		run.Results = append(run.Results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err, "failed to read phase results")
	}
	return &run, nil
}

// SaveContracts replaces the recorded contracts with c.
func (s *Store) SaveContracts(ctx context.Context, runID string, c Contracts) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap(err, "failed to begin contracts tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM contracts"); err != nil {
		return wrap(err, "failed to clear contracts")
	}
	for _, path := range sortedKeys(c.Files) {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO contracts (path, sha256, run_id) VALUES (?, ?, ?)",
			path, c.Files[path], runID); err != nil {
			return wrap(err, "failed to record contract for "+path)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO contract_signature (id, master, run_id, recorded_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET master = excluded.master, run_id = excluded.run_id, recorded_at = excluded.recorded_at`,
		c.Master, runID, s.now()); err != nil {
		return wrap(err, "failed to record contract signature")
	}
	return wrap(tx.Commit(), "failed to commit contracts")
}

// LoadContracts returns the recorded contracts; Files is empty before the
// first successful full run.
func (s *Store) LoadContracts(ctx context.Context) (Contracts, error) {
	c := Contracts{Files: make(map[string]string)}

	err := s.db.QueryRowContext(ctx, "SELECT master FROM contract_signature WHERE id = 1").Scan(&c.Master)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Contracts{}, wrap(err, "failed to read contract signature")
	}

	rows, err := s.db.QueryContext(ctx, "SELECT path, sha256 FROM contracts")
	if err != nil {
		return Contracts{}, wrap(err, "failed to read contracts")
	}
	defer rows.Close()
	for rows.Next() {
		var path, sum string
		if err := rows.Scan(&path, &sum); err != nil {
			return Contracts{}, wrap(err, "failed to scan contract")
		}
		c.Files[path] = sum
	}
	return c, wrap(rows.Err(), "failed to read contracts")
}
