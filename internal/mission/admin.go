package mission

import (
	"bytes"
	"io"
	"net/http"

	"tailscale.com/tsweb"

	"github.com/banshee-data/mazesolver/internal/httputil"
	"github.com/banshee-data/mazesolver/internal/maze"
	"github.com/banshee-data/mazesolver/internal/render"
)

// status is the JSON view of a snapshot.
type status struct {
	Pose     maze.Pose    `json:"pose"`
	Start    maze.Coord   `json:"start"`
	State    string       `json:"state"`
	Steps    int          `json:"steps"`
	Done     bool         `json:"done"`
	Frontier []maze.Coord `json:"frontier"`
	Path     []maze.Coord `json:"path"`
	Min      maze.Coord   `json:"min"`
	Max      maze.Coord   `json:"max"`
}

// AttachAdminRoutes mounts the live map views on the debug section of mux.
func (r *Runner) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("maze", "Current map (text)", func(w http.ResponseWriter, req *http.Request) {
		snap := r.Snapshot()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, render.Text(snap.Grid, render.Options{
			Robot:   &snap.Pose,
			Victims: req.URL.Query().Get("victims") != "0",
		}))
	})

	debug.HandleFunc("mission", "Engine state (JSON)", func(w http.ResponseWriter, req *http.Request) {
		snap := r.Snapshot()
		min, max := snap.Grid.TileBounds()
		httputil.WriteJSONOK(w, status{
			Pose:     snap.Pose,
			Start:    snap.Start,
			State:    snap.State.String(),
			Steps:    snap.Steps,
			Done:     snap.Done,
			Frontier: snap.Frontier,
			Path:     snap.Path,
			Min:      min,
			Max:      max,
		})
	})

	debug.HandleFunc("visits.png", "Tile visit heatmap", func(w http.ResponseWriter, req *http.Request) {
		var buf bytes.Buffer
		if err := render.VisitHeatmap(r.Snapshot().Grid, &buf, 0); err != nil {
			httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	})
}
