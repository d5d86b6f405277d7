// Package history persists sweep outcomes in a local SQLite database.
//
// The store is the tool's only state: one row per sweep and one row per
// trainer invocation, written as runs finish. The database lives at
// ~/.train-sweep/history.db by default and is safe to delete at any
// time; nothing else reads it.
//
// Schema creation is idempotent, and columns added after the first
// release are applied as ALTER statements that tolerate "duplicate
// column name" errors, so any database version opens cleanly.
package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/shinji-kodama/train-sweep/internal/model"
)

// ErrNotFound is returned by GetSweep when no sweep with the given ID
// has been recorded.
var ErrNotFound = errors.New("sweep not found")

// DefaultPath returns the default history database location,
// ~/.train-sweep/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".train-sweep", "history.db"), nil
}

// Store wraps the SQLite database recording sweeps and their runs.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the history database at path and
// ensures the schema is current. The parent directory is created when
// missing.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database %s: %w", path, err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// initSchema creates the tables when absent and applies column
// migrations. CREATE TABLE IF NOT EXISTS captures the current schema;
// the ALTER list carries columns added after the tables first shipped,
// so databases created by older builds gain them on open.
func initSchema(db *sql.DB) error {
	const createSweeps = `
CREATE TABLE IF NOT EXISTS sweeps (
  id            TEXT PRIMARY KEY,
  script        TEXT,
  runner        TEXT,
  model         TEXT,
  preset        TEXT,
  runs_planned  INTEGER,
  params_json   TEXT,
  artifact_root TEXT,
  created_at    TEXT
);`
	const createRuns = `
CREATE TABLE IF NOT EXISTS runs (
  sweep_id     TEXT,
  seq          INTEGER,
  run_index    INTEGER,
  grid_point   TEXT,
  status       TEXT,
  exit_code    INTEGER,
  started_at   TEXT,
  finished_at  TEXT,
  duration_ms  INTEGER,
  artifact_dir TEXT,
  PRIMARY KEY (sweep_id, seq)
);`
	if _, err := db.Exec(createSweeps); err != nil {
		return err
	}
	if _, err := db.Exec(createRuns); err != nil {
		return err
	}

	migrations := []string{
		`ALTER TABLE sweeps ADD COLUMN artifact_root TEXT`,
		`ALTER TABLE runs ADD COLUMN grid_point TEXT`,
		`ALTER TABLE runs ADD COLUMN artifact_dir TEXT`,
	}
	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Databases created from the CREATE statements above
			// already carry these columns.
			if strings.Contains(strings.ToLower(err.Error()), "duplicate column name") {
				continue
			}
			return err
		}
	}
	return nil
}

// RecordSweep inserts the sweep row at batch start. The planned count is
// the total number of trainer invocations (grid points times runs per
// point); comparing it against recorded runs later reveals interrupted
// sweeps. The hyperparameter set is stored as a JSON snapshot so a
// sweep's exact configuration survives preset or default changes.
func (s *Store) RecordSweep(sweep *model.Sweep, planned int) error {
	params, err := json.Marshal(sweep.Params)
	if err != nil {
		return fmt.Errorf("failed to encode hyperparameters: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO sweeps (id, script, runner, model, preset, runs_planned, params_json, artifact_root, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sweep.ID,
		sweep.Script,
		string(sweep.Runner),
		sweep.Params.ModelName(),
		sweep.Preset,
		planned,
		string(params),
		sweep.ArtifactRoot,
		sweep.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record sweep %s: %w", sweep.ID, err)
	}
	return nil
}

// RecordRun inserts one finished run. Runs are written as they
// complete, so an interrupted sweep keeps the rows for every run that
// actually happened.
func (s *Store) RecordRun(sweepID string, run model.RunResult) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (sweep_id, seq, run_index, grid_point, status, exit_code, started_at, finished_at, duration_ms, artifact_dir)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sweepID,
		run.Seq,
		run.RunIndex,
		run.PointLabel,
		string(run.Status),
		run.ExitCode,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.Duration.Milliseconds(),
		run.ArtifactDir,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %d of sweep %s: %w", run.Seq, sweepID, err)
	}
	return nil
}

// SweepSummary is one row of the list view: sweep metadata plus run
// counts aggregated from the runs table.
type SweepSummary struct {
	ID           string    `json:"id"`
	Script       string    `json:"script"`
	Runner       string    `json:"runner"`
	Model        string    `json:"model"`
	Preset       string    `json:"preset,omitempty"`
	RunsPlanned  int       `json:"runsPlanned"`
	RunsRecorded int       `json:"runsRecorded"`
	Succeeded    int       `json:"succeeded"`
	Failed       int       `json:"failed"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Status derives the sweep-level outcome from its run counts:
//
//	failed    — at least one run failed
//	partial   — fewer runs recorded than planned (interrupted sweep)
//	succeeded — every planned run recorded and none failed
func (sum SweepSummary) Status() string {
	switch {
	case sum.Failed > 0:
		return "failed"
	case sum.RunsRecorded < sum.RunsPlanned:
		return "partial"
	default:
		return "succeeded"
	}
}

// SweepStatuses lists the values Status can return, for flag validation.
var SweepStatuses = []string{"succeeded", "failed", "partial"}

// ListSweeps returns the most recent sweeps, newest first, with their
// run counts. A limit below 1 is treated as 1.
func (s *Store) ListSweeps(limit int) ([]SweepSummary, error) {
	if limit < 1 {
		limit = 1
	}

	rows, err := s.db.Query(
		`SELECT s.id, s.script, s.runner, s.model, s.preset, s.runs_planned, s.created_at,
		        COUNT(r.seq),
		        COALESCE(SUM(r.status = 'succeeded'), 0),
		        COALESCE(SUM(r.status = 'failed'), 0)
		 FROM sweeps s
		 LEFT JOIN runs r ON r.sweep_id = s.id
		 GROUP BY s.id
		 ORDER BY s.created_at DESC, s.id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sweeps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []SweepSummary
	for rows.Next() {
		var sum SweepSummary
		var created string
		if err := rows.Scan(
			&sum.ID,
			&sum.Script,
			&sum.Runner,
			&sum.Model,
			&sum.Preset,
			&sum.RunsPlanned,
			&created,
			&sum.RunsRecorded,
			&sum.Succeeded,
			&sum.Failed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sweep row: %w", err)
		}
		sum.CreatedAt = parseStoredTime(created)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// RunRow is one recorded trainer invocation as read back from the store.
type RunRow struct {
	Seq         int           `json:"seq"`
	RunIndex    int           `json:"runIndex"`
	PointLabel  string        `json:"pointLabel,omitempty"`
	Status      string        `json:"status"`
	ExitCode    int           `json:"exitCode"`
	StartedAt   time.Time     `json:"startedAt"`
	FinishedAt  time.Time     `json:"finishedAt"`
	Duration    time.Duration `json:"duration"`
	ArtifactDir string        `json:"artifactDir,omitempty"`
}

// SweepRecord is the full detail view of one sweep: its summary, the
// stored hyperparameter snapshot, and every recorded run in order.
type SweepRecord struct {
	SweepSummary
	ArtifactRoot string        `json:"artifactRoot"`
	Params       model.HParams `json:"params"`
	Runs         []RunRow      `json:"runs"`
}

// GetSweep loads one sweep and its runs by ID. Returns ErrNotFound when
// the ID was never recorded.
func (s *Store) GetSweep(id string) (*SweepRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, script, runner, model, preset, runs_planned, params_json, artifact_root, created_at
		 FROM sweeps WHERE id = ?`, id)

	var rec SweepRecord
	var params sql.NullString
	var artifactRoot sql.NullString
	var created string
	err := row.Scan(
		&rec.ID,
		&rec.Script,
		&rec.Runner,
		&rec.Model,
		&rec.Preset,
		&rec.RunsPlanned,
		&params,
		&artifactRoot,
		&created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sweep %s: %w", id, err)
	}

	rec.CreatedAt = parseStoredTime(created)
	rec.ArtifactRoot = artifactRoot.String
	if params.Valid && params.String != "" {
		// A snapshot that no longer decodes leaves the zero params
		// rather than hiding the rest of the record.
		_ = json.Unmarshal([]byte(params.String), &rec.Params)
	}

	rows, err := s.db.Query(
		`SELECT seq, run_index, grid_point, status, exit_code, started_at, finished_at, duration_ms, artifact_dir
		 FROM runs WHERE sweep_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load runs of sweep %s: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var run RunRow
		var point, started, finished, artifactDir sql.NullString
		var durationMS int64
		if err := rows.Scan(
			&run.Seq,
			&run.RunIndex,
			&point,
			&run.Status,
			&run.ExitCode,
			&started,
			&finished,
			&durationMS,
			&artifactDir,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		run.PointLabel = point.String
		run.StartedAt = parseStoredTime(started.String)
		run.FinishedAt = parseStoredTime(finished.String)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.ArtifactDir = artifactDir.String
		rec.Runs = append(rec.Runs, run)

		rec.RunsRecorded++
		switch model.RunStatus(run.Status) {
		case model.StatusSucceeded:
			rec.Succeeded++
		case model.StatusFailed:
			rec.Failed++
		}
	}
	return &rec, rows.Err()
}

// parseStoredTime decodes an RFC3339 column value. Unparseable or empty
// values come back as the zero time instead of an error; timestamps are
// display data, not something worth failing a query over.
func parseStoredTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
