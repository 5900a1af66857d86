package mission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mazesolver/internal/db"
	"github.com/banshee-data/mazesolver/internal/explore"
	"github.com/banshee-data/mazesolver/internal/maze"
	"github.com/banshee-data/mazesolver/internal/serialmux"
	"github.com/banshee-data/mazesolver/internal/timeutil"
)

func newJournal(t *testing.T) *db.DB {
	t.Helper()
	j, err := db.NewDB(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRunner_SingleTileMission(t *testing.T) {
	journal := newJournal(t)
	var out bytes.Buffer
	link := serialmux.NewTextLink(strings.NewReader("00000111\n"), &out)

	r, err := New(link, Options{Engine: explore.DefaultConfig(), Transport: "console", Journal: journal})
	require.NoError(t, err)
	require.NotEmpty(t, r.RunID())

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, "00000000\n", out.String())

	snap := r.Snapshot()
	assert.True(t, snap.Done)
	assert.Equal(t, 1, snap.Steps)

	run, err := journal.Run(r.RunID())
	require.NoError(t, err)
	assert.Equal(t, db.OutcomeComplete, run.Outcome)
	assert.NotNil(t, run.Ended)

	steps, err := journal.Steps(r.RunID())
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, byte(0b111), steps[0].In)
	assert.False(t, steps[0].Continues)
}

func TestRunner_JournalsPoseAndSighting(t *testing.T) {
	journal := newJournal(t)
	port := serialmux.NewTestableSerialPort()
	port.AddReadData([]byte{0b110})
	link := serialmux.NewLink(port, nil)
	defer link.Close()

	r, err := New(link, Options{Engine: explore.DefaultConfig(), Transport: "serial", Journal: journal})
	require.NoError(t, err)
	clock := timeutil.NewMockClock(time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC))
	r.SetClock(clock)

	seen := explore.Sighting{Left: explore.Side{Character: maze.VictimU}}
	cont, out, err := r.Handle(0b110, seen)
	require.NoError(t, err)
	assert.True(t, cont)
	assert.Equal(t, byte(128), out)

	steps, err := journal.Steps(r.RunID())
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, maze.Pose{Pos: maze.Coord{Row: 0, Col: -2}, Dir: maze.West}, steps[0].Pose)
	assert.Equal(t, "exploring", steps[0].State)
	assert.Equal(t, seen, steps[0].Sighting)
	assert.True(t, steps[0].At.Equal(clock.Now()))
}

func TestRunner_EngineErrorFailsRun(t *testing.T) {
	journal := newJournal(t)
	port := serialmux.NewTestableSerialPort()
	// Leaving the start tile needs a fourth column.
	port.AddReadData([]byte{0})
	link := serialmux.NewLink(port, nil)
	defer link.Close()

	cfg := explore.DefaultConfig()
	cfg.MaxTilesPerAxis = 3
	r, err := New(link, Options{Engine: cfg, Transport: "serial", Journal: journal})
	require.NoError(t, err)

	err = r.Run(context.Background())
	require.ErrorIs(t, err, maze.ErrMapCapacityExceeded)

	run, err := journal.Run(r.RunID())
	require.NoError(t, err)
	assert.Equal(t, db.OutcomeFailed, run.Outcome)
	assert.Contains(t, run.Error, "capacity")

	steps, err := journal.Steps(r.RunID())
	require.NoError(t, err)
	require.Len(t, steps, 1, "the rejected byte is journalled")
	assert.Equal(t, 1, steps[0].Step)
	assert.Equal(t, byte(0), steps[0].In)
	assert.False(t, steps[0].Continues)
	assert.Contains(t, steps[0].Error, "capacity")
}

func TestRunner_JournalsStepAfterMissionEnd(t *testing.T) {
	journal := newJournal(t)
	r, err := New(serialmux.NewLink(serialmux.NewTestableSerialPort(), nil), Options{Engine: explore.DefaultConfig(), Journal: journal})
	require.NoError(t, err)

	_, _, err = r.Handle(0b111, explore.Sighting{})
	require.NoError(t, err)
	_, _, err = r.Handle(0b111, explore.Sighting{})
	require.ErrorIs(t, err, explore.ErrMissionOver)

	steps, err := journal.Steps(r.RunID())
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Empty(t, steps[0].Error)
	assert.Equal(t, 2, steps[1].Step)
	assert.NotEmpty(t, steps[1].Error)
}

func TestRunner_CancelledRun(t *testing.T) {
	journal := newJournal(t)
	link := serialmux.NewLink(serialmux.NewTestableSerialPort(), nil)
	defer link.Close()

	r, err := New(link, Options{Engine: explore.DefaultConfig(), Transport: "serial", Journal: journal})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, r.Run(ctx), context.Canceled)

	run, err := journal.Run(r.RunID())
	require.NoError(t, err)
	assert.Equal(t, db.OutcomeCancelled, run.Outcome)
}

type failingJournal struct{ recorded int }

func (f *failingJournal) StartRun(string, any) (*db.Run, error) { return &db.Run{ID: "r1"}, nil }
func (f *failingJournal) RecordStep(db.StepRecord) error {
	f.recorded++
	return errors.New("disk full")
}
func (f *failingJournal) FinishRun(string, string, error) error { return nil }

func TestRunner_JournalFailureKeepsMoving(t *testing.T) {
	j := &failingJournal{}
	r, err := New(serialmux.NewLink(serialmux.NewTestableSerialPort(), nil), Options{Engine: explore.DefaultConfig(), Journal: j})
	require.NoError(t, err)

	cont, _, err := r.Handle(0b110, explore.Sighting{})
	require.NoError(t, err)
	assert.True(t, cont)
	assert.Equal(t, 1, j.recorded)
}

func TestRunner_WithoutJournal(t *testing.T) {
	r, err := New(serialmux.NewLink(serialmux.NewTestableSerialPort(), nil), Options{Engine: explore.DefaultConfig()})
	require.NoError(t, err)
	assert.Empty(t, r.RunID())
	_, _, err = r.Handle(0b111, explore.Sighting{})
	require.NoError(t, err)
	assert.True(t, r.Snapshot().Done)
}

// localHostRequest creates an httptest request that appears to come from localhost.
// This bypasses tsweb.AllowDebugAccess which checks for loopback IPs.
func localHostRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

func TestAttachAdminRoutes(t *testing.T) {
	r, err := New(serialmux.NewLink(serialmux.NewTestableSerialPort(), nil), Options{Engine: explore.DefaultConfig()})
	require.NoError(t, err)
	_, _, err = r.Handle(0b110, explore.Sighting{})
	require.NoError(t, err)

	mux := http.NewServeMux()
	r.AttachAdminRoutes(mux)

	t.Run("maze", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, localHostRequest(http.MethodGet, "/debug/maze"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "<", "robot faces west after turning left")
	})

	t.Run("mission", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, localHostRequest(http.MethodGet, "/debug/mission"))
		require.Equal(t, http.StatusOK, w.Code)
		var got status
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, 1, got.Steps)
		assert.Equal(t, "exploring", got.State)
		assert.Equal(t, maze.Coord{Row: 0, Col: -2}, got.Pose.Pos)
	})

	t.Run("visits", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, localHostRequest(http.MethodGet, "/debug/visits.png"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
	})
}
