// Package storage provides a SQLite-backed journal of trade decisions and executions.
// It is an audit trail only; price history is never persisted.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rewired-gh/suimomentum/internal/models"
	_ "modernc.org/sqlite"
)

// ErrDecisionNotFound is returned by GetDecision for an unknown id.
var ErrDecisionNotFound = errors.New("decision not found")

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db         *sql.DB
	maxRecords int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/suimomentum/journal.db.
func New(maxRecords int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "suimomentum", "journal.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers

	s := &Storage{db: db, maxRecords: maxRecords}
	if err := s.init(); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

func (s *Storage) init() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := s.db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := s.createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS decisions (
			id              TEXT PRIMARY KEY,
			token_in        TEXT NOT NULL,
			token_out       TEXT NOT NULL,
			momentum        REAL NOT NULL,
			input_amount    REAL NOT NULL,
			output_amount   REAL NOT NULL,
			total_fees      REAL NOT NULL,
			expected_profit REAL NOT NULL,
			decided_at      INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS executions (
			id          TEXT PRIMARY KEY,
			decision_id TEXT NOT NULL REFERENCES decisions(id) ON DELETE CASCADE,
			token_in    TEXT NOT NULL,
			token_out   TEXT NOT NULL,
			status      TEXT NOT NULL,
			digest      TEXT,
			dry_run     INTEGER NOT NULL DEFAULT 0,
			error       TEXT,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_decided_at ON decisions(decided_at)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_started_at ON executions(started_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordDecision journals a decision before it is handed to the execution gate.
func (s *Storage) RecordDecision(d *models.Decision) error {
	if d.ID == "" {
		return fmt.Errorf("invalid decision: empty ID")
	}
	_, err := s.db.Exec(`
		INSERT INTO decisions
			(id, token_in, token_out, momentum, input_amount, output_amount,
			 total_fees, expected_profit, decided_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		d.ID, d.Pair.TokenIn, d.Pair.TokenOut, d.Momentum,
		d.Route.InputAmount, d.Route.OutputAmount, d.Route.TotalFees,
		d.ExpectedProfit, d.DecidedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert decision: %w", err)
	}
	return nil
}

// GetDecision loads a journaled decision. The route steps are not stored.
func (s *Storage) GetDecision(id string) (*models.Decision, error) {
	row := s.db.QueryRow(`
		SELECT id, token_in, token_out, momentum, input_amount, output_amount,
		       total_fees, expected_profit, decided_at
		FROM decisions WHERE id = ?`, id)

	var d models.Decision
	var decidedAtNano int64
	err := row.Scan(
		&d.ID, &d.Pair.TokenIn, &d.Pair.TokenOut, &d.Momentum,
		&d.Route.InputAmount, &d.Route.OutputAmount, &d.Route.TotalFees,
		&d.ExpectedProfit, &decidedAtNano,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDecisionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get decision: %w", err)
	}
	d.DecidedAt = time.Unix(0, decidedAtNano)
	return &d, nil
}

// RecordExecution journals the outcome of an accepted swap attempt.
func (s *Storage) RecordExecution(r models.ExecutionRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO executions
			(id, decision_id, token_in, token_out, status, digest, dry_run,
			 error, started_at, finished_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		r.ID, r.DecisionID, r.Pair.TokenIn, r.Pair.TokenOut, string(r.Status),
		r.Digest, boolToInt(r.DryRun), r.Error,
		r.StartedAt.UnixNano(), r.FinishedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution: %w", err)
	}
	return nil
}

// RecentExecutions returns up to k executions, newest first.
func (s *Storage) RecentExecutions(k int) ([]models.ExecutionRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, decision_id, token_in, token_out, status, digest, dry_run,
		       error, started_at, finished_at
		FROM executions ORDER BY started_at DESC LIMIT ?`, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	records := []models.ExecutionRecord{}
	for rows.Next() {
		var r models.ExecutionRecord
		var status string
		var dryRun int
		var startedNano, finishedNano int64

		err := rows.Scan(
			&r.ID, &r.DecisionID, &r.Pair.TokenIn, &r.Pair.TokenOut, &status,
			&r.Digest, &dryRun, &r.Error, &startedNano, &finishedNano,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		r.Status = models.ExecutionStatus(status)
		r.DryRun = dryRun != 0
		r.StartedAt = time.Unix(0, startedNano)
		r.FinishedAt = time.Unix(0, finishedNano)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Stats summarizes the journal.
type Stats struct {
	Decisions int `json:"decisions"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

func (s *Storage) ExecutionStats() (Stats, error) {
	var st Stats
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM decisions`).Scan(&st.Decisions); err != nil {
		return st, fmt.Errorf("failed to count decisions: %w", err)
	}
	err := s.db.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM executions`, string(models.ExecutionSucceeded), string(models.ExecutionFailed),
	).Scan(&st.Succeeded, &st.Failed)
	if err != nil {
		return st, fmt.Errorf("failed to count executions: %w", err)
	}
	return st, nil
}

// Rotate keeps at most maxRecords newest decisions by decided_at.
// Cascading deletes remove associated executions.
func (s *Storage) Rotate() error {
	_, err := s.db.Exec(`
		DELETE FROM decisions WHERE id NOT IN (
			SELECT id FROM decisions ORDER BY decided_at DESC LIMIT ?
		)`, s.maxRecords)
	if err != nil {
		return fmt.Errorf("failed to rotate decisions: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
