// Package planner finds cost-optimal routes across the explored part of a
// maze.
//
// The search runs from the target outwards until it settles the robot's
// tile, so the parent links of the settled node already list the waypoints
// in driving order. Every step is costed by how the robot would have to
// drive it: straight on, after a quarter turn, or across a bump/slope tile.
package planner

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/banshee-data/mazesolver/internal/maze"
)

// ErrPathNotFound is returned when the target cannot be reached through
// visited tiles. Black tiles never carry a route.
var ErrPathNotFound = errors.New("no path found")

// Map is the read side of the maze the planner needs.
type Map interface {
	Tile(c maze.Coord) maze.Tile
	Edge(c maze.Coord, d maze.Direction) maze.Edge
}

// Costs weights the kinds of step a route is made of.
type Costs struct {
	Move int `json:"move" yaml:"move"`
	Turn int `json:"turn" yaml:"turn"`
	// Bump replaces Move and Turn for a step that leaves a bump/slope
	// tile. The route's target is never charged.
	Bump int `json:"bump" yaml:"bump"`
}

// DefaultCosts returns the weights tuned for the competition robot.
func DefaultCosts() Costs {
	return Costs{Move: 1, Turn: 1, Bump: 10000}
}

func (c Costs) step(dst maze.Tile, turned bool) int {
	switch {
	case dst == maze.TileBumpSlope:
		return c.Bump
	case turned:
		return c.Move + c.Turn
	default:
		return c.Move
	}
}

// Path is an ordered route. Waypoints exclude the starting tile and end on
// the target.
type Path struct {
	Waypoints []maze.Coord
	Cost      int
	// Expanded counts the nodes settled while searching.
	Expanded int
}

// FindPath returns the cheapest route from one tile to another. A route
// that starts on its target is empty.
func FindPath(m Map, from, to maze.Coord, costs Costs) (Path, error) {
	s := searcher{m: m, costs: costs}
	return s.run(from, to)
}

type searcher struct {
	m     Map
	costs Costs
	best  map[maze.Coord]int
	open  queue
	seq   int

	onRelax func(c maze.Coord, cost int)
}

func (s *searcher) run(from, to maze.Coord) (Path, error) {
	if from == to {
		return Path{}, nil
	}
	s.best = map[maze.Coord]int{to: 0}
	s.open = s.open[:0]
	heap.Init(&s.open)

	root := &node{pos: to}
	for _, d := range maze.Directions {
		s.relax(root, d, false)
	}

	expanded := 0
	for s.open.Len() > 0 {
		n := heap.Pop(&s.open).(*node)
		if n.cost > s.best[n.pos] {
			continue
		}
		expanded++
		if n.pos == from {
			return Path{Waypoints: n.route(), Cost: n.cost, Expanded: expanded}, nil
		}
		// Reversing mid-route never helps, so Back is not expanded.
		s.relax(n, n.heading, false)
		s.relax(n, n.heading.Turn(maze.Right), true)
		s.relax(n, n.heading.Turn(maze.Left), true)
	}
	return Path{Expanded: expanded}, fmt.Errorf("route %v to %v: %w", from, to, ErrPathNotFound)
}

func (s *searcher) relax(n *node, d maze.Direction, turned bool) {
	if s.m.Edge(n.pos, d).Blocked() {
		return
	}
	next := n.pos.Add(d, 2)
	tile := s.m.Tile(next)
	if !tile.Known() || tile == maze.TileBlack {
		return
	}
	cost := n.cost + s.costs.step(tile, turned)
	if prev, ok := s.best[next]; ok && cost >= prev {
		return
	}
	s.best[next] = cost
	if s.onRelax != nil {
		s.onRelax(next, cost)
	}
	heap.Push(&s.open, &node{pos: next, heading: d, cost: cost, seq: s.seq, parent: n})
	s.seq++
}

// route lists the parent chain of n, nearest first.
func (n *node) route() []maze.Coord {
	var wps []maze.Coord
	for p := n.parent; p != nil; p = p.parent {
		wps = append(wps, p.pos)
	}
	return wps
}

// PathCost prices a waypoint sequence starting at from with the same rules
// FindPath uses.
func PathCost(m Map, from maze.Coord, waypoints []maze.Coord, costs Costs) (int, error) {
	dirs := make([]maze.Direction, len(waypoints))
	prev := from
	for i, wp := range waypoints {
		d, ok := stepDirection(prev, wp)
		if !ok {
			return 0, fmt.Errorf("waypoint %d %v is not adjacent to %v", i, wp, prev)
		}
		if i > 0 && d == dirs[i-1].Opposite() {
			return 0, fmt.Errorf("waypoint %d %v reverses direction", i, wp)
		}
		dirs[i] = d
		prev = wp
	}

	total := 0
	prev = from
	for i := range waypoints {
		// A step is priced by the tile it leaves, prev, and turns when
		// the following step heads elsewhere.
		turned := i+1 < len(dirs) && dirs[i] != dirs[i+1]
		total += costs.step(m.Tile(prev), turned)
		prev = waypoints[i]
	}
	return total, nil
}

func stepDirection(a, b maze.Coord) (maze.Direction, bool) {
	for _, d := range maze.Directions {
		if a.Add(d, 2) == b {
			return d, true
		}
	}
	return 0, false
}
