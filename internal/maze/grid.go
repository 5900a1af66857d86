// Package maze holds the incrementally discovered map of a rescue maze: the
// packed tile and edge cells, the growable grid that stores them, the robot
// pose and the frontier of tiles still to visit.
package maze

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// DefaultMaxTilesPerAxis bounds grid growth when no explicit capacity is set.
const DefaultMaxTilesPerAxis = 64

var (
	// ErrMapCapacityExceeded is returned when growing would exceed the
	// configured number of tiles per axis.
	ErrMapCapacityExceeded = errors.New("map capacity exceeded")
	// ErrOutOfBounds is returned when writing a cell outside the grid.
	ErrOutOfBounds = errors.New("coordinate outside grid")
)

// Grid is a growable maze map addressed by logical coordinates.
//
// The backing store is a (2*rows+1) x (2*cols+1) byte matrix. Logical (0,0)
// maps to the raw index held in origin; growing to the north or west shifts
// origin instead of rewriting every coordinate callers have stored, so
// poses, the start tile and frontier entries stay valid across growth.
type Grid struct {
	cells    []uint8
	rows     int
	cols     int
	origin   Coord
	maxTiles int

	// visits counts how often each tile was occupied, indexed by tile
	// (raw/2). Not consumed by the exploration policy yet; kept for
	// cost shaping.
	visits *mat.Dense
}

// NewGrid returns a 1x1 tile grid whose only tile is logical (0,0).
// maxTiles <= 0 selects DefaultMaxTilesPerAxis.
func NewGrid(maxTiles int) *Grid {
	if maxTiles <= 0 {
		maxTiles = DefaultMaxTilesPerAxis
	}
	return &Grid{
		cells:    make([]uint8, 9),
		rows:     1,
		cols:     1,
		origin:   Coord{Row: 1, Col: 1},
		maxTiles: maxTiles,
		visits:   mat.NewDense(1, 1, nil),
	}
}

// Rows returns the number of tile rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of tile columns.
func (g *Grid) Cols() int { return g.cols }

// Dims returns the raw store dimensions, always (2*rows+1, 2*cols+1).
func (g *Grid) Dims() (height, width int) { return 2*g.rows + 1, 2*g.cols + 1 }

// MaxTilesPerAxis returns the growth bound.
func (g *Grid) MaxTilesPerAxis() int { return g.maxTiles }

// Raw converts a logical coordinate to a raw store index.
func (g *Grid) Raw(c Coord) (row, col int) {
	return c.Row + g.origin.Row, c.Col + g.origin.Col
}

// Logical converts a raw store index to a logical coordinate.
func (g *Grid) Logical(row, col int) Coord {
	return Coord{Row: row - g.origin.Row, Col: col - g.origin.Col}
}

// TileBounds returns the logical coordinates of the north-west and
// south-east tiles.
func (g *Grid) TileBounds() (min, max Coord) {
	min = g.Logical(1, 1)
	h, w := g.Dims()
	max = g.Logical(h-2, w-2)
	return min, max
}

func (g *Grid) index(c Coord) (int, bool) {
	r, col := g.Raw(c)
	h, w := g.Dims()
	if r < 0 || r >= h || col < 0 || col >= w {
		return 0, false
	}
	return r*w + col, true
}

// Tile returns the state of the tile at c. Anything outside the grid, or
// not on a tile coordinate, reads as TileUnknown.
func (g *Grid) Tile(c Coord) Tile {
	if !c.IsTile() {
		return TileUnknown
	}
	i, ok := g.index(c)
	if !ok {
		return TileUnknown
	}
	return Tile(g.cells[i])
}

// SetTile overwrites the tile at c.
func (g *Grid) SetTile(c Coord, t Tile) error {
	if !c.IsTile() {
		return fmt.Errorf("set tile %v: not a tile coordinate", c)
	}
	i, ok := g.index(c)
	if !ok {
		return fmt.Errorf("set tile %v: %w", c, ErrOutOfBounds)
	}
	g.cells[i] = uint8(t)
	return nil
}

// Edge returns the edge between the tile at c and its neighbour in d.
func (g *Grid) Edge(c Coord, d Direction) Edge {
	return g.EdgeAt(c.Add(d, 1))
}

// EdgeAt returns the edge cell at the odd coordinate e.
func (g *Grid) EdgeAt(e Coord) Edge {
	if !e.IsEdge() {
		return MakeEdge(WallUnknown, VictimNone)
	}
	i, ok := g.index(e)
	if !ok {
		return MakeEdge(WallUnknown, VictimNone)
	}
	return Edge(g.cells[i])
}

// MergeEdge ORs the wall bits of e into the edge between c and its
// neighbour in d. The victim part is written only while the stored victim
// is still VictimNone, so the first detection on an edge wins.
func (g *Grid) MergeEdge(c Coord, d Direction, e Edge) error {
	pos := c.Add(d, 1)
	i, ok := g.index(pos)
	if !ok {
		return fmt.Errorf("merge edge %v: %w", pos, ErrOutOfBounds)
	}
	cur := Edge(g.cells[i])
	v := cur.Victim()
	if v == VictimNone {
		v = e.Victim()
	}
	g.cells[i] = uint8(MakeEdge(cur.Wall()|e.Wall(), v))
	return nil
}

// Grow inserts one tile row or column on side d.
func (g *Grid) Grow(d Direction) error {
	rows, cols := g.rows, g.cols
	var shift Coord
	switch d.norm() {
	case North:
		rows++
		shift.Row = 2
	case South:
		rows++
	case West:
		cols++
		shift.Col = 2
	case East:
		cols++
	}
	if rows > g.maxTiles || cols > g.maxTiles {
		return fmt.Errorf("grow %s to %dx%d tiles (max %d): %w", d, rows, cols, g.maxTiles, ErrMapCapacityExceeded)
	}

	oldH, oldW := g.Dims()
	newW := 2*cols + 1
	cells := make([]uint8, (2*rows+1)*newW)
	for r := 0; r < oldH; r++ {
		dst := (r+shift.Row)*newW + shift.Col
		copy(cells[dst:dst+oldW], g.cells[r*oldW:(r+1)*oldW])
	}

	visits := mat.NewDense(rows, cols, nil)
	tr, tc := shift.Row/2, shift.Col/2
	visits.Slice(tr, tr+g.rows, tc, tc+g.cols).(*mat.Dense).Copy(g.visits)

	g.cells = cells
	g.visits = visits
	g.rows, g.cols = rows, cols
	g.origin.Row += shift.Row
	g.origin.Col += shift.Col
	return nil
}

// EnsureMargin grows the grid when the tile at c lies on its border so that
// every neighbour of c is addressable. Only one side is grown per call; a
// single move cannot bring the robot to two borders at once.
func (g *Grid) EnsureMargin(c Coord) (Direction, bool, error) {
	r, col := g.Raw(c)
	h, w := g.Dims()
	var d Direction
	switch {
	case col <= 1:
		d = West
	case col >= w-2:
		d = East
	case r <= 1:
		d = North
	case r >= h-2:
		d = South
	default:
		return 0, false, nil
	}
	if err := g.Grow(d); err != nil {
		return d, false, err
	}
	return d, true, nil
}

// Visit increments the visit counter of the tile at c.
func (g *Grid) Visit(c Coord) {
	tr, tc, ok := g.tileIndex(c)
	if !ok {
		return
	}
	g.visits.Set(tr, tc, g.visits.At(tr, tc)+1)
}

// Visits returns the number of times the tile at c was occupied.
func (g *Grid) Visits(c Coord) int {
	tr, tc, ok := g.tileIndex(c)
	if !ok {
		return 0
	}
	return int(g.visits.At(tr, tc))
}

// VisitMatrix returns a copy of the visit counters, one element per tile,
// north-west tile first.
func (g *Grid) VisitMatrix() *mat.Dense {
	return mat.DenseCopyOf(g.visits)
}

func (g *Grid) tileIndex(c Coord) (int, int, bool) {
	if !c.IsTile() {
		return 0, 0, false
	}
	r, col := g.Raw(c)
	tr, tc := (r-1)/2, (col-1)/2
	if r < 1 || col < 1 || tr >= g.rows || tc >= g.cols {
		return 0, 0, false
	}
	return tr, tc, true
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := *g
	c.cells = slices.Clone(g.cells)
	c.visits = mat.DenseCopyOf(g.visits)
	return &c
}
