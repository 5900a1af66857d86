package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mazesolver/internal/config"
	"github.com/banshee-data/mazesolver/internal/db"
	"github.com/banshee-data/mazesolver/internal/explore"
	"github.com/banshee-data/mazesolver/internal/maze"
	"github.com/banshee-data/mazesolver/internal/mission"
	"github.com/banshee-data/mazesolver/internal/serialmux"
)

// recordMission runs input through a journalled mission over the text
// transport and returns the journal and run ID. The mission must succeed.
func recordMission(t *testing.T, input string) (*db.DB, string) {
	t.Helper()
	journal, runID, err := recordMissionWith(t, config.DefaultMissionConfig(), input)
	require.NoError(t, err)
	return journal, runID
}

func recordMissionWith(t *testing.T, cfg *config.MissionConfig, input string) (*db.DB, string, error) {
	t.Helper()
	journal, err := db.NewDB(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	link := serialmux.NewTextLink(strings.NewReader(input), &bytes.Buffer{})
	r, err := mission.New(link, mission.Options{
		Engine:    cfg.EngineConfig(),
		Transport: config.TransportConsole,
		Config:    cfg,
		Journal:   journal,
	})
	require.NoError(t, err)
	return journal, r.RunID(), r.Run(context.Background())
}

func TestReplay_MatchesRecording(t *testing.T) {
	// Walls on three sides of the start tile end the mission at once.
	journal, runID := recordMission(t, "00000111\n")

	run, err := journal.Run(runID)
	require.NoError(t, err)
	cfg, err := engineConfig(run)
	require.NoError(t, err)
	assert.Equal(t, explore.DefaultConfig(), cfg)

	steps, err := journal.Steps(runID)
	require.NoError(t, err)
	e, diffs, err := replay(steps, cfg)
	require.NoError(t, err)
	assert.Empty(t, diffs)
	assert.True(t, e.Done())

	var out bytes.Buffer
	report(&out, run, len(steps), diffs)
	assert.Contains(t, out.String(), "no divergence")
}

func TestReplay_FailedRunFailsTheSameWay(t *testing.T) {
	cfg := config.DefaultMissionConfig()
	three := 3
	cfg.MaxTilesPerAxis = &three
	journal, runID, runErr := recordMissionWith(t, cfg, "00000000\n")
	require.ErrorIs(t, runErr, maze.ErrMapCapacityExceeded)

	run, err := journal.Run(runID)
	require.NoError(t, err)
	engineCfg, err := engineConfig(run)
	require.NoError(t, err)
	steps, err := journal.Steps(runID)
	require.NoError(t, err)
	require.Len(t, steps, 1)

	_, diffs, err := replay(steps, engineCfg)
	assert.ErrorIs(t, err, maze.ErrMapCapacityExceeded)
	assert.Empty(t, diffs)
}

func TestReplay_RecordedErrorNotReproduced(t *testing.T) {
	steps := []db.StepRecord{
		{Step: 1, In: 0b111, Error: "map capacity exceeded"},
	}
	_, diffs, err := replay(steps, explore.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Contains(t, diffs[0].Diff, "map capacity exceeded")
}

func TestReplay_ReportsDivergence(t *testing.T) {
	steps := []db.StepRecord{
		{Step: 1, In: 0b110, Out: 0, Continues: true, State: "exploring"},
	}
	_, diffs, err := replay(steps, explore.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, 1, diffs[0].Step)
	assert.Contains(t, diffs[0].Diff, "Out")
}

func TestReplay_StopsAfterMissionEnd(t *testing.T) {
	steps := []db.StepRecord{
		{Step: 1, In: 0b111},
		{Step: 2, In: 0b111},
	}
	_, _, err := replay(steps, explore.DefaultConfig())
	assert.ErrorIs(t, err, explore.ErrMissionOver)
}

func TestEngineConfig_BadJSON(t *testing.T) {
	_, err := engineConfig(&db.Run{ID: "x", ConfigJSON: "{"})
	assert.Error(t, err)

	_, err = engineConfig(&db.Run{ID: "x", ConfigJSON: `{"max_tiles_per_axis": 1}`})
	assert.Error(t, err)
}
