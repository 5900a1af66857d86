// journal-replay feeds the sensor bytes of a recorded mission through a
// fresh engine and reports every step where the response or the pose
// differs from what was recorded.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/mazesolver/internal/config"
	"github.com/banshee-data/mazesolver/internal/db"
	"github.com/banshee-data/mazesolver/internal/explore"
	"github.com/banshee-data/mazesolver/internal/maze"
	"github.com/banshee-data/mazesolver/internal/render"
)

type divergence struct {
	Step int
	Diff string
}

// replay runs steps through a new engine built from cfg and stops at the
// first engine error. A recorded step that failed must fail with the same
// error on replay.
func replay(steps []db.StepRecord, cfg explore.Config) (*explore.Engine, []divergence, error) {
	e, err := explore.NewEngine(cfg)
	if err != nil {
		return nil, nil, err
	}
	var diffs []divergence
	for _, s := range steps {
		cont, out, err := e.Step(s.In, s.Sighting)
		switch {
		case err != nil:
			if diff := cmp.Diff(s.Error, err.Error()); diff != "" {
				diffs = append(diffs, divergence{Step: s.Step, Diff: diff})
			}
			return e, diffs, fmt.Errorf("step %d: %w", s.Step, err)
		case s.Error != "":
			diffs = append(diffs, divergence{Step: s.Step, Diff: fmt.Sprintf("recorded error %q, replay went on\n", s.Error)})
			continue
		}
		type outcome struct {
			Out      byte
			Continue bool
			Pose     maze.Pose
			State    string
		}
		want := outcome{s.Out, s.Continues, s.Pose, s.State}
		got := outcome{out, cont, e.Pose(), e.State().String()}
		if diff := cmp.Diff(want, got); diff != "" {
			diffs = append(diffs, divergence{Step: s.Step, Diff: diff})
		}
	}
	return e, diffs, nil
}

// engineConfig decodes the config a run was recorded with.
func engineConfig(run *db.Run) (explore.Config, error) {
	var mc config.MissionConfig
	if err := json.Unmarshal([]byte(run.ConfigJSON), &mc); err != nil {
		return explore.Config{}, fmt.Errorf("run %s: decode config: %w", run.ID, err)
	}
	if err := mc.Validate(); err != nil {
		return explore.Config{}, fmt.Errorf("run %s: %w", run.ID, err)
	}
	return mc.EngineConfig(), nil
}

func report(w io.Writer, run *db.Run, steps int, diffs []divergence) {
	fmt.Fprintf(w, "run %s (%s, %s): %d steps replayed\n", run.ID, run.Transport, run.Outcome, steps)
	for _, d := range diffs {
		fmt.Fprintf(w, "step %d diverged (-recorded +replayed):\n%s", d.Step, d.Diff)
	}
	if len(diffs) == 0 {
		fmt.Fprintln(w, "no divergence")
	}
}

func main() {
	var dbPath, runID string
	var showMap, listRuns bool
	flag.StringVar(&dbPath, "db", config.DefaultJournalPath, "path to the journal database")
	flag.StringVar(&runID, "run", "", "run to replay (default: latest)")
	flag.BoolVar(&showMap, "map", false, "print the replayed map")
	flag.BoolVar(&listRuns, "list", false, "list recorded runs and exit")
	flag.Parse()

	journal, err := db.NewDB(dbPath)
	if err != nil {
		log.Fatalf("open journal: %v", err)
	}
	defer journal.Close()

	if listRuns {
		runs, err := journal.Runs()
		if err != nil {
			log.Fatalf("list runs: %v", err)
		}
		for _, r := range runs {
			fmt.Printf("%s  %s  %-9s %-8s %s\n", r.ID, r.Started.Format("2006-01-02 15:04:05"), r.Transport, r.Outcome, r.Error)
		}
		return
	}

	var run *db.Run
	if runID == "" {
		run, err = journal.LatestRun()
	} else {
		run, err = journal.Run(runID)
	}
	if err != nil {
		log.Fatalf("find run: %v", err)
	}
	cfg, err := engineConfig(run)
	if err != nil {
		log.Fatal(err)
	}
	steps, err := journal.Steps(run.ID)
	if err != nil {
		log.Fatalf("load steps: %v", err)
	}

	e, diffs, replayErr := replay(steps, cfg)
	report(os.Stdout, run, len(steps), diffs)
	if showMap && e != nil {
		snap := e.Snapshot()
		fmt.Println(render.Text(snap.Grid, render.Options{Robot: &snap.Pose, Victims: true}))
	}
	if replayErr != nil && !errors.Is(replayErr, explore.ErrMissionOver) {
		fmt.Printf("replay stopped: %v\n", replayErr)
	}
	if len(diffs) > 0 {
		os.Exit(1)
	}
}
