// Package mission wires an exploration engine to a robot link and the
// journal, and keeps a snapshot of the engine for the debug pages.
package mission

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/banshee-data/mazesolver/internal/db"
	"github.com/banshee-data/mazesolver/internal/explore"
	"github.com/banshee-data/mazesolver/internal/monitoring"
	"github.com/banshee-data/mazesolver/internal/render"
	"github.com/banshee-data/mazesolver/internal/serialmux"
	"github.com/banshee-data/mazesolver/internal/timeutil"
)

// Journal records a mission. *db.DB implements it.
type Journal interface {
	StartRun(transport string, config any) (*db.Run, error)
	RecordStep(db.StepRecord) error
	FinishRun(runID, outcome string, cause error) error
}

// Options configures a Runner.
type Options struct {
	Engine explore.Config
	// Transport names the link in the journal.
	Transport string
	// Config is stored with the run. Defaults to Engine.
	Config any
	// Journal may be nil.
	Journal Journal
}

// Runner drives one mission. Handle is called from the link's Serve loop;
// Snapshot may be called from any goroutine.
type Runner struct {
	engine  *explore.Engine
	link    serialmux.LinkInterface
	journal Journal
	clock   timeutil.Clock
	runID   string

	mu   sync.RWMutex
	snap explore.Snapshot
}

// New creates the engine and, when a journal is configured, opens a run.
func New(link serialmux.LinkInterface, opts Options) (*Runner, error) {
	e, err := explore.NewEngine(opts.Engine)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		engine:  e,
		link:    link,
		journal: opts.Journal,
		clock:   timeutil.RealClock{},
		snap:    e.Snapshot(),
	}
	if r.journal != nil {
		cfg := opts.Config
		if cfg == nil {
			cfg = opts.Engine
		}
		run, err := r.journal.StartRun(opts.Transport, cfg)
		if err != nil {
			return nil, fmt.Errorf("start journal run: %w", err)
		}
		r.runID = run.ID
		monitoring.Logf("journal run %s started", run.ID)
	}
	return r, nil
}

// SetClock replaces the clock used to timestamp journal entries.
func (r *Runner) SetClock(c timeutil.Clock) { r.clock = c }

// RunID returns the journal run ID, or "" without a journal.
func (r *Runner) RunID() string { return r.runID }

// Handle runs one engine step and records it. It satisfies
// serialmux.Handler.
func (r *Runner) Handle(in byte, seen explore.Sighting) (bool, byte, error) {
	start := r.clock.Now()
	cont, out, err := r.engine.Step(in, seen)
	latency := r.clock.Since(start)
	snap := r.engine.Snapshot()

	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()

	if r.journal != nil {
		rec := db.StepRecord{
			RunID:     r.runID,
			Step:      snap.Steps,
			At:        start,
			Latency:   latency,
			In:        in,
			Out:       out,
			Continues: cont,
			Sighting:  seen,
			Pose:      snap.Pose,
			State:     snap.State.String(),
		}
		if err != nil {
			rec.Error = err.Error()
			// A finished engine does not count the byte it refused.
			if errors.Is(err, explore.ErrMissionOver) {
				rec.Step++
			}
		}
		// Journal failures are logged; the robot keeps moving.
		if jerr := r.journal.RecordStep(rec); jerr != nil {
			monitoring.Logf("journal: %v", jerr)
		}
	}
	if err != nil {
		return cont, out, err
	}
	if monitoring.Verbose() {
		monitoring.Logf("map after step %d:\n%s", snap.Steps,
			render.Text(snap.Grid, render.Options{Robot: &snap.Pose, Victims: true}))
	}
	return cont, out, nil
}

// Run serves the link until the mission ends and closes the journal run
// with the outcome.
func (r *Runner) Run(ctx context.Context) error {
	err := r.link.Serve(ctx, r.Handle)
	outcome := db.OutcomeComplete
	switch {
	case errors.Is(err, context.Canceled):
		outcome = db.OutcomeCancelled
	case err != nil:
		outcome = db.OutcomeFailed
	case !r.engine.Done():
		// The link was closed underneath the mission.
		outcome = db.OutcomeCancelled
	}
	if r.journal != nil {
		if ferr := r.journal.FinishRun(r.runID, outcome, err); ferr != nil {
			monitoring.Logf("journal: %v", ferr)
		}
	}
	monitoring.Logf("mission %s after %d steps", outcome, r.engine.Steps())
	return err
}

// Snapshot returns the engine state as of the last completed step.
func (r *Runner) Snapshot() explore.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}
