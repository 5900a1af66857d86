// Package explore turns one sensor byte per physical step into the next
// move of the rescue robot.
//
// The Engine greedily explores unvisited neighbours (right before front
// before left), falls back to a planned route towards the most recently
// discovered frontier tile at dead ends, and finally routes home once the
// frontier is exhausted.
package explore

import (
	"errors"
	"fmt"

	"github.com/banshee-data/mazesolver/internal/maze"
	"github.com/banshee-data/mazesolver/internal/monitoring"
	"github.com/banshee-data/mazesolver/internal/planner"
)

// ErrMissionOver is returned by Step after the mission completed or a fatal
// error stopped the engine.
var ErrMissionOver = errors.New("mission over")

// State is the top-level mode of the engine.
type State int

const (
	Exploring State = iota
	Routing
)

func (s State) String() string {
	if s == Routing {
		return "routing"
	}
	return "exploring"
}

// Config tunes an Engine.
type Config struct {
	Costs           planner.Costs
	MaxTilesPerAxis int
}

// DefaultConfig returns the planner's default costs and the default map
// capacity.
func DefaultConfig() Config {
	return Config{
		Costs:           planner.DefaultCosts(),
		MaxTilesPerAxis: maze.DefaultMaxTilesPerAxis,
	}
}

// Engine owns all mutable mission state. It is not safe for concurrent use;
// callers drive it from a single goroutine, one Step per sensor reading.
type Engine struct {
	cfg      Config
	grid     *maze.Grid
	pose     maze.Pose
	start    maze.Coord
	frontier maze.Frontier
	path     []maze.Coord
	state    State
	first    bool
	done     bool
	steps    int
}

// NewEngine returns an engine standing on the start tile facing North with
// one tile of map margin on every side.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Costs == (planner.Costs{}) {
		cfg.Costs = planner.DefaultCosts()
	}
	g := maze.NewGrid(cfg.MaxTilesPerAxis)
	for _, d := range [...]maze.Direction{maze.West, maze.East, maze.North, maze.South} {
		if err := g.Grow(d); err != nil {
			return nil, fmt.Errorf("initial map: %w", err)
		}
	}
	return &Engine{
		cfg:   cfg,
		grid:  g,
		pose:  maze.Pose{Dir: maze.North},
		first: true,
	}, nil
}

// Step consumes one sensor byte plus any visual identifications for this
// step and returns whether the mission continues and the byte to send back.
// After the mission completes, or after an error, every call returns
// ErrMissionOver.
func (e *Engine) Step(in byte, seen Sighting) (bool, byte, error) {
	if e.done {
		return false, 0, ErrMissionOver
	}
	e.steps++
	r := DecodeReading(in)
	resp, moved, err := e.step(r)
	if err != nil {
		e.done = true
		return false, 0, fmt.Errorf("step %d at %v: %w", e.steps, e.pose.Pos, err)
	}

	resp.Right = e.markVictim(maze.Right, r.HeatRight, seen.Right)
	resp.Left = e.markVictim(maze.Left, r.HeatLeft, seen.Left)
	// Victims belong to the tile the reading was taken on, so the move is
	// applied only after they are recorded.
	if moved {
		if err := e.apply(resp.Move, r.Black); err != nil {
			e.done = true
			return false, 0, fmt.Errorf("step %d after %s: %w", e.steps, resp.Move, err)
		}
	}

	monitoring.Tracef("step %d: in=%08b out=%08b %s pose=%v/%s state=%s frontier=%v",
		e.steps, in, resp.Byte(), resp, e.pose.Pos, e.pose.Dir, e.state, e.frontier.Items())
	return !e.done, resp.Byte(), nil
}

// step records the reading for the current tile and decides the move.
// moved is false only when a route ends on the tile the robot is already on.
func (e *Engine) step(r Reading) (resp Response, moved bool, err error) {
	pos := e.pose.Pos
	e.grid.Visit(pos)

	// The robot was placed on the start tile from behind. A black start is
	// left through that edge, so it stays open.
	if e.first {
		e.first = false
		if !r.Black {
			if err := e.mergeWall(maze.Back, maze.WallPresent); err != nil {
				return resp, false, err
			}
		}
	}

	switch {
	case r.BumpSlope:
		monitoring.Logf("bump/slope at %v", pos)
		if err := e.grid.SetTile(pos, maze.TileBumpSlope); err != nil {
			return resp, false, err
		}
		// A bump or slope tile is a straight corridor.
		if err := e.mergeWall(maze.Right, maze.WallPresent); err != nil {
			return resp, false, err
		}
		if err := e.mergeWall(maze.Left, maze.WallPresent); err != nil {
			return resp, false, err
		}
		e.frontier.Remove(pos)
		e.passBump()
		return Response{Move: maze.Forward}, true, nil

	case r.Black:
		monitoring.Logf("black tile at %v, backing out", pos)
		if err := e.grid.SetTile(pos, maze.TileBlack); err != nil {
			return resp, false, err
		}
		e.frontier.Remove(pos)
		e.path = nil
		e.state = Exploring
		return Response{Move: maze.Reverse}, true, nil
	}

	tile := maze.TileClear
	if r.Silver {
		tile = maze.TileSilver
	}
	if err := e.grid.SetTile(pos, tile); err != nil {
		return resp, false, err
	}
	monitoring.Tracef("walls right=%v front=%v left=%v", r.WallRight, r.WallFront, r.WallLeft)
	for _, w := range [...]struct {
		rel     maze.Relative
		present bool
	}{{maze.Right, r.WallRight}, {maze.Front, r.WallFront}, {maze.Left, r.WallLeft}} {
		wall := maze.WallAbsent
		if w.present {
			wall = maze.WallPresent
		}
		if err := e.mergeWall(w.rel, wall); err != nil {
			return resp, false, err
		}
	}
	e.frontier.Remove(pos)

	if e.state == Exploring {
		if err := e.explore(&resp); err != nil {
			return resp, false, err
		}
		if e.state == Exploring {
			return resp, true, nil
		}
	}
	return e.follow()
}

// explorePriority is the order in which neighbours are queued and chosen.
var explorePriority = [...]struct {
	rel  maze.Relative
	move maze.Move
}{
	{maze.Right, maze.TurnRight},
	{maze.Front, maze.Forward},
	{maze.Left, maze.TurnLeft},
}

// explore queues newly seen neighbours and picks the next unvisited one. At
// a dead end it plans a route and switches to Routing.
func (e *Engine) explore(resp *Response) error {
	pos := e.pose.Pos
	for _, p := range explorePriority {
		if dir, next := e.pose.Look(p.rel); e.open(dir) && e.grid.Tile(next) == maze.TileUnknown {
			if err := e.grid.SetTile(next, maze.TileUnexplored); err != nil {
				return err
			}
			e.frontier.Push(next)
		}
	}
	for _, p := range explorePriority {
		if dir, next := e.pose.Look(p.rel); e.open(dir) && e.grid.Tile(next) == maze.TileUnexplored {
			resp.Move = p.move
			return nil
		}
	}

	target, ok := e.frontier.Peek()
	if !ok {
		target = e.start
	}
	path, err := planner.FindPath(e.grid, pos, target, e.cfg.Costs)
	if err != nil {
		return err
	}
	monitoring.Logf("dead end at %v: routing to %v over %d tiles (cost %d)", pos, target, len(path.Waypoints), path.Cost)
	e.path = path.Waypoints
	e.state = Routing
	return nil
}

// follow consumes the next waypoint of the current route.
func (e *Engine) follow() (Response, bool, error) {
	next, ok := e.popWaypoint()
	if !ok {
		return Response{}, false, nil
	}
	move, ok := e.pose.MoveTo(next)
	if !ok {
		return Response{}, false, fmt.Errorf("waypoint %v is not adjacent to %v", next, e.pose.Pos)
	}
	return Response{Move: move}, true, nil
}

// popWaypoint removes the head of the route. Emptying the route returns the
// engine to Exploring, and completes the mission when nothing is left to
// explore.
func (e *Engine) popWaypoint() (maze.Coord, bool) {
	var next maze.Coord
	ok := len(e.path) > 0
	if ok {
		next = e.path[0]
		e.path = e.path[1:]
	}
	if len(e.path) == 0 {
		e.path = nil
		e.state = Exploring
		if e.frontier.IsEmpty() {
			monitoring.Logf("frontier exhausted, mission complete after %d steps", e.steps)
			e.done = true
		}
	}
	return next, ok
}

// passBump keeps a route in step with the forced forward move across a
// bump or slope.
func (e *Engine) passBump() {
	if e.state != Routing {
		return
	}
	_, ahead := e.pose.Look(maze.Front)
	if len(e.path) > 0 && e.path[0] == ahead {
		e.popWaypoint()
		return
	}
	monitoring.Logf("bump at %v is off route, dropping route", e.pose.Pos)
	e.path = nil
	e.state = Exploring
}

// apply executes the move, grows the map ahead of the robot and, after a
// black tile retreat, turns back to face the hazard and seals it off.
func (e *Engine) apply(m maze.Move, retreat bool) error {
	e.pose = e.pose.Apply(m)
	d, grown, err := e.grid.EnsureMargin(e.pose.Pos)
	if err != nil {
		return err
	}
	if grown {
		monitoring.Tracef("map grown %s to %dx%d tiles", d, e.grid.Rows(), e.grid.Cols())
	}
	if retreat {
		e.pose.Dir = e.pose.Dir.Opposite()
		if err := e.mergeWall(maze.Front, maze.WallVirtual); err != nil {
			return err
		}
	}
	e.frontier.Remove(e.pose.Pos)
	return nil
}

// markVictim records a victim on the wall at rel and returns what to echo.
// Heat wins over vision; an edge keeps its first victim.
func (e *Engine) markVictim(rel maze.Relative, heat bool, side Side) maze.Victim {
	v := side.Victim()
	if heat {
		v = maze.VictimHeated
	}
	if v == maze.VictimNone {
		return maze.VictimNone
	}
	dir := e.pose.Dir.Turn(rel)
	if e.grid.Edge(e.pose.Pos, dir).Victim() != maze.VictimNone {
		return maze.VictimNone
	}
	if err := e.grid.MergeEdge(e.pose.Pos, dir, maze.MakeEdge(maze.WallUnknown, v)); err != nil {
		return maze.VictimNone
	}
	monitoring.Logf("victim %s on %s wall of %v", v, rel, e.pose.Pos)
	return v
}

func (e *Engine) mergeWall(rel maze.Relative, w maze.Wall) error {
	return e.grid.MergeEdge(e.pose.Pos, e.pose.Dir.Turn(rel), maze.MakeEdge(w, maze.VictimNone))
}

func (e *Engine) open(dir maze.Direction) bool {
	return !e.grid.Edge(e.pose.Pos, dir).Blocked()
}
