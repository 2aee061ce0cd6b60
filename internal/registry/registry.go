package registry

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/VoxDroid/mstpkit/internal/db"
	"github.com/VoxDroid/mstpkit/internal/pipeline"
)

// Run statuses.
const (
	RunOK     = "ok"
	RunFailed = "failed"
)

const timeLayout = "2006-01-02 15:04:05.000"

// Repository provides access to recorded pipeline runs.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository using db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Open opens the history database in the data directory. The caller owns
// the connection and must Close the Repository.
func Open() (*Repository, error) {
	dbConn, err := db.InitDB()
	if err != nil {
		return nil, err
	}
	return NewRepository(dbConn), nil
}

// Close releases the database connection. Closing twice is a no-op.
func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// RecordRun stores a finished pipeline run and its steps in one
// transaction. It satisfies pipeline.Recorder.
func (r *Repository) RecordRun(res *pipeline.Result) error {
	if res == nil {
		return fmt.Errorf("record run: nil result")
	}
	if strings.TrimSpace(res.Pipeline) == "" {
		return fmt.Errorf("record run: pipeline name cannot be empty")
	}
	trx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = trx.Rollback() }()

	status := RunOK
	var failed sql.NullInt64
	for i, st := range res.Steps {
		if st.Status == pipeline.StatusFailed {
			status = RunFailed
			failed = sql.NullInt64{Int64: int64(i + 1), Valid: true}
			break
		}
	}
	host, _ := os.Hostname()

	if _, err := trx.Exec(`INSERT INTO pipeline_runs (id, pipeline, started_at, finished_at, status, failed_step, dry_run, host)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.Pipeline, formatTime(res.StartedAt), formatTime(res.FinishedAt), status, failed, res.DryRun, host); err != nil {
		return fmt.Errorf("insert pipeline_run: %w", err)
	}

	for i, st := range res.Steps {
		var errText sql.NullString
		if st.Err != nil {
			errText = sql.NullString{String: st.Err.Error(), Valid: true}
		}
		if _, err := trx.Exec(`INSERT INTO run_steps (run_id, position, name, command, status, exit_code, duration_ms, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RunID, i+1, st.Name, st.Command, string(st.Status), st.ExitCode, st.Duration.Milliseconds(), errText); err != nil {
			return fmt.Errorf("insert run_step: %w", err)
		}
	}
	return trx.Commit()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

const runColumns = "id, pipeline, started_at, finished_at, status, failed_step, dry_run, host"

func scanRun(sc interface{ Scan(...interface{}) error }) (Run, error) {
	var run Run
	err := sc.Scan(&run.ID, &run.Pipeline, &run.StartedAt, &run.FinishedAt, &run.Status, &run.FailedStep, &run.DryRun, &run.Host)
	return run, err
}

// GetRun retrieves a run and its steps by id. It returns nil, nil when no
// such run exists.
func (r *Repository) GetRun(id string) (*Run, error) {
	run, err := scanRun(r.db.QueryRow("SELECT "+runColumns+" FROM pipeline_runs WHERE id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := r.attachSteps(&run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *Repository) attachSteps(run *Run) error {
	rows, err := r.db.Query(`SELECT id, run_id, position, name, command, status, exit_code, duration_ms, error
		FROM run_steps WHERE run_id = ? ORDER BY position ASC`, run.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var s RunStep
		if err := rows.Scan(&s.ID, &s.RunID, &s.Position, &s.Name, &s.Command, &s.Status, &s.ExitCode, &s.DurationMS, &s.Error); err != nil {
			return err
		}
		run.Steps = append(run.Steps, s)
	}
	return rows.Err()
}

// ListRuns returns runs newest first, without their steps. An empty
// pipeline name lists every pipeline; limit <= 0 means no limit.
func (r *Repository) ListRuns(pipelineName string, limit int) ([]Run, error) {
	q := "SELECT " + runColumns + " FROM pipeline_runs"
	args := []interface{}{}
	if pipelineName != "" {
		q += " WHERE pipeline = ?"
		args = append(args, pipelineName)
	}
	q += " ORDER BY started_at DESC, rowid DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// LastRun returns the most recent run of a pipeline including its steps,
// or nil if it never ran.
func (r *Repository) LastRun(pipelineName string) (*Run, error) {
	runs, err := r.ListRuns(pipelineName, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return r.GetRun(runs[0].ID)
}

// DeleteRunsBefore prunes history older than cutoff and returns the number
// of runs removed.
func (r *Repository) DeleteRunsBefore(cutoff time.Time) (int64, error) {
	trx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = trx.Rollback() }()
	ts := cutoff.UTC().Format(timeLayout)
	if _, err := trx.Exec("DELETE FROM run_steps WHERE run_id IN (SELECT id FROM pipeline_runs WHERE started_at < ?)", ts); err != nil {
		return 0, err
	}
	res, err := trx.Exec("DELETE FROM pipeline_runs WHERE started_at < ?", ts)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, trx.Commit()
}
