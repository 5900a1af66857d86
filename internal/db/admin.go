package db

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/mazesolver/internal/httputil"
)

// AttachAdminRoutes mounts tailsql and the journal views on the debug
// section of mux.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://"+filepath.Base(db.path), db.DB, &tailsql.DBOptions{
		Label: "Mission journal",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("runs", "Recorded missions (JSON)", http.HandlerFunc(db.handleRuns))
	debug.Handle("steps", "Steps of one mission (JSON, ?run=<id>, default latest)", http.HandlerFunc(db.handleSteps))

	debug.Handle("backup", "Create and download a backup of the journal now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := filepath.Join(os.TempDir(), fmt.Sprintf("journal-backup-%d.db", db.clock.Now().Unix()))
		if _, err := db.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filepath.Base(backupPath)))
		w.Header().Set("Content-Type", "application/octet-stream")
		http.ServeFile(w, r, backupPath)
	}))
}

func (db *DB) handleRuns(w http.ResponseWriter, r *http.Request) {
	if httputil.MethodNotAllowed(w, r, http.MethodGet) {
		return
	}
	runs, err := db.Runs()
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSONOK(w, runs)
}

func (db *DB) handleSteps(w http.ResponseWriter, r *http.Request) {
	if httputil.MethodNotAllowed(w, r, http.MethodGet) {
		return
	}
	runID := r.URL.Query().Get("run")
	if runID == "" {
		latest, err := db.LatestRun()
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrRunNotFound) {
				status = http.StatusNotFound
			}
			httputil.WriteJSONError(w, status, err.Error())
			return
		}
		runID = latest.ID
	}
	steps, err := db.Steps(runID)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSONOK(w, steps)
}
