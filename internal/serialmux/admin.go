package serialmux

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tailscale.com/tsweb"

	"github.com/banshee-data/mazesolver/internal/explore"
)

// AttachAdminRoutes attaches admin debugging endpoints to the given HTTP mux
// served at /debug/. These routes are accessible only over localhost/via
// Tailscale and are not publicly accessible.
func AttachAdminRoutes(mux *http.ServeMux, l LinkInterface) {
	debug := tsweb.Debugger(mux)

	// Queues a visual identification for the next request. Accepts form
	// fields right/left ("S,green") or a JSON explore.Sighting body.
	debug.HandleSilentFunc("sighting", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s, err := parseSighting(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if s.IsZero() {
			http.Error(w, "Missing sighting", http.StatusBadRequest)
			return
		}
		l.QueueSighting(s)
		io.WriteString(w, fmt.Sprintf("Queued sighting right=%s left=%s", s.Right.Victim(), s.Left.Victim()))
	})

	// API endpoint to issue Server-Side Events (SSE) for every exchange.
	debug.HandleSilentFunc("tail", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx

		id, c := l.Subscribe()
		defer l.Unsubscribe(id)

		// Send initial ping to establish connection
		w.Write([]byte(": ping\n\n"))
		flusher.Flush()

		for {
			select {
			case payload, ok := <-c:
				if !ok {
					return
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
					return
				}
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	})

	debug.HandleFunc("serial-ports", "serial ports on this machine", func(w http.ResponseWriter, r *http.Request) {
		ports, err := ListPorts()
		if err != nil {
			http.Error(w, "Failed to list ports", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, p := range ports {
			fmt.Fprintln(w, p)
		}
	})
}

func parseSighting(r *http.Request) (explore.Sighting, error) {
	var s explore.Sighting
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			return s, fmt.Errorf("invalid JSON: %w", err)
		}
	} else {
		var err error
		if s.Right, err = explore.ParseSide(r.FormValue("right")); err != nil {
			return s, fmt.Errorf("right: %w", err)
		}
		if s.Left, err = explore.ParseSide(r.FormValue("left")); err != nil {
			return s, fmt.Errorf("left: %w", err)
		}
	}
	return s, s.Validate()
}
