package explore

import (
	"slices"

	"github.com/banshee-data/mazesolver/internal/maze"
)

// Snapshot is a point-in-time copy of the engine state. It shares nothing
// with the engine and may be handed to other goroutines.
type Snapshot struct {
	Grid     *maze.Grid
	Pose     maze.Pose
	Start    maze.Coord
	Frontier []maze.Coord
	Path     []maze.Coord
	State    State
	Steps    int
	Done     bool
}

// Snapshot copies the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Grid:     e.grid.Clone(),
		Pose:     e.pose,
		Start:    e.start,
		Frontier: e.frontier.Items(),
		Path:     slices.Clone(e.path),
		State:    e.state,
		Steps:    e.steps,
		Done:     e.done,
	}
}

// Pose returns the robot's current tile and heading.
func (e *Engine) Pose() maze.Pose { return e.pose }

// State returns whether the engine is exploring or following a route.
func (e *Engine) State() State { return e.state }

// Done reports whether the mission has ended.
func (e *Engine) Done() bool { return e.done }

// Steps returns the number of readings consumed.
func (e *Engine) Steps() int { return e.steps }
