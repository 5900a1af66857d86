package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/mazesolver/internal/explore"
	"github.com/banshee-data/mazesolver/internal/maze"
)

// ErrRunNotFound is returned when a run ID is not in the journal.
var ErrRunNotFound = errors.New("run not found")

// Run outcomes.
const (
	OutcomeRunning   = "running"
	OutcomeComplete  = "complete"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Run is one mission from power-on to completion or failure.
type Run struct {
	ID         string     `json:"run_id"`
	Started    time.Time  `json:"started"`
	Ended      *time.Time `json:"ended,omitempty"`
	Transport  string     `json:"transport"`
	ConfigJSON string     `json:"config_json"`
	Outcome    string     `json:"outcome"`
	Error      string     `json:"error,omitempty"`
}

// StepRecord is one sensor byte, the response sent back and the pose the
// engine reached after applying it. A step the engine rejected carries the
// error text and no response.
type StepRecord struct {
	RunID     string           `json:"run_id"`
	Step      int              `json:"step"`
	At        time.Time        `json:"at"`
	Latency   time.Duration    `json:"latency_ns"`
	In        byte             `json:"in"`
	Out       byte             `json:"out"`
	Continues bool             `json:"continues"`
	Sighting  explore.Sighting `json:"sighting"`
	Pose      maze.Pose        `json:"pose"`
	State     string           `json:"state"`
	Error     string           `json:"error,omitempty"`
}

// StartRun inserts a new run and returns it. config is stored as JSON for
// later replay.
func (db *DB) StartRun(transport string, config any) (*Run, error) {
	cfg, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run config: %w", err)
	}
	run := &Run{
		ID:         uuid.NewString(),
		Started:    db.clock.Now().UTC(),
		Transport:  transport,
		ConfigJSON: string(cfg),
		Outcome:    OutcomeRunning,
	}
	_, err = db.Exec(`INSERT INTO runs (run_id, started_unix_nanos, transport, config_json, outcome)
	                  VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Started.UnixNano(), run.Transport, run.ConfigJSON, run.Outcome)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return run, nil
}

// RecordStep appends one exchange to a run.
func (db *DB) RecordStep(s StepRecord) error {
	seen, err := json.Marshal(s.Sighting)
	if err != nil {
		return fmt.Errorf("failed to encode sighting: %w", err)
	}
	_, err = db.Exec(`INSERT INTO steps (run_id, step, at_unix_nanos, latency_nanos, in_byte, out_byte,
	                      continues, sighting_json, pose_row, pose_col, pose_dir, state, error)
	                  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.RunID, s.Step, s.At.UnixNano(), int64(s.Latency), int(s.In), int(s.Out),
		boolToInt(s.Continues), string(seen), s.Pose.Pos.Row, s.Pose.Pos.Col, s.Pose.Dir.String(), s.State, s.Error)
	if err != nil {
		return fmt.Errorf("failed to insert step %d: %w", s.Step, err)
	}
	return nil
}

// FinishRun stamps the end time and outcome of a run. A non-nil cause is
// stored as the run's error text.
func (db *DB) FinishRun(runID, outcome string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res, err := db.Exec(`UPDATE runs SET ended_unix_nanos = ?, outcome = ?, error = ? WHERE run_id = ?`,
		db.clock.Now().UTC().UnixNano(), outcome, msg, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

const runColumns = `run_id, started_unix_nanos, ended_unix_nanos, transport, config_json, outcome, error`

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var r Run
	var started int64
	var ended sql.NullInt64
	if err := row.Scan(&r.ID, &started, &ended, &r.Transport, &r.ConfigJSON, &r.Outcome, &r.Error); err != nil {
		return nil, err
	}
	r.Started = time.Unix(0, started).UTC()
	if ended.Valid {
		t := time.Unix(0, ended.Int64).UTC()
		r.Ended = &t
	}
	return &r, nil
}

// Run returns a single run by ID.
func (db *DB) Run(runID string) (*Run, error) {
	r, err := scanRun(db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return r, nil
}

// Runs returns all runs, newest first.
func (db *DB) Runs() ([]Run, error) {
	rows, err := db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY started_unix_nanos DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recently started run.
func (db *DB) LatestRun() (*Run, error) {
	r, err := scanRun(db.QueryRow(`SELECT ` + runColumns + ` FROM runs ORDER BY started_unix_nanos DESC, run_id LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return r, nil
}

// Steps returns every recorded step of a run in order.
func (db *DB) Steps(runID string) ([]StepRecord, error) {
	rows, err := db.Query(`SELECT step, at_unix_nanos, latency_nanos, in_byte, out_byte, continues,
	                           sighting_json, pose_row, pose_col, pose_dir, state, error
	                       FROM steps WHERE run_id = ? ORDER BY step ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		s := StepRecord{RunID: runID}
		var at, latency int64
		var in, out, cont int
		var seen string
		var row, col sql.NullInt64
		var dir, state sql.NullString
		if err := rows.Scan(&s.Step, &at, &latency, &in, &out, &cont, &seen, &row, &col, &dir, &state, &s.Error); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		s.At = time.Unix(0, at).UTC()
		s.Latency = time.Duration(latency)
		s.In, s.Out = byte(in), byte(out)
		s.Continues = cont == 1
		if err := json.Unmarshal([]byte(seen), &s.Sighting); err != nil {
			return nil, fmt.Errorf("step %d: failed to decode sighting: %w", s.Step, err)
		}
		// Rows written before the pose columns existed leave them NULL.
		s.Pose.Pos = maze.Coord{Row: int(row.Int64), Col: int(col.Int64)}
		if d, ok := maze.ParseDirection(dir.String); ok {
			s.Pose.Dir = d
		}
		s.State = state.String
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
