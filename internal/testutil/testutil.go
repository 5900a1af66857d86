// Package testutil provides shared test utilities and fixtures.
//
// ParseGrid builds maze maps from ASCII drawings so planner, engine and
// renderer tests can share readable fixtures. The HTTP helpers serve the
// debug route tests.
package testutil

import (
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/mazesolver/internal/maze"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// ParseGrid builds a grid from a raw drawing whose top-left tile becomes
// logical (0,0). Tiles sit at odd/odd characters:
//
//	'.' clear, 's' silver, 'b' bump/slope, 'k' black, '?' unexplored,
//	' ' unknown.
//
// Edge characters sit between tiles: '|' or '-' present, 'v' virtual,
// ' ' absent, '~' unknown. Corner characters are ignored.
func ParseGrid(t testing.TB, rows ...string) *maze.Grid {
	t.Helper()
	h := len(rows)
	if h < 3 || h%2 == 0 {
		t.Fatalf("ParseGrid: need an odd number >= 3 of rows, got %d", h)
	}
	w := len(rows[0])
	for i, r := range rows {
		if len(r) != w {
			t.Fatalf("ParseGrid: row %d has width %d, want %d", i, len(r), w)
		}
	}
	if w < 3 || w%2 == 0 {
		t.Fatalf("ParseGrid: need an odd width >= 3, got %d", w)
	}

	g := maze.NewGrid(max(h, w))
	for g.Cols() < w/2 {
		if err := g.Grow(maze.East); err != nil {
			t.Fatalf("ParseGrid: %v", err)
		}
	}
	for g.Rows() < h/2 {
		if err := g.Grow(maze.South); err != nil {
			t.Fatalf("ParseGrid: %v", err)
		}
	}

	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			ch := rows[r][c]
			switch {
			case r%2 == 1 && c%2 == 1:
				tile, ok := tiles[ch]
				if !ok {
					t.Fatalf("ParseGrid: unknown tile %q at (%d,%d)", ch, r, c)
				}
				if err := g.SetTile(g.Logical(r, c), tile); err != nil {
					t.Fatalf("ParseGrid: %v", err)
				}
			case r%2 != c%2:
				wall, ok := walls[ch]
				if !ok {
					t.Fatalf("ParseGrid: unknown wall %q at (%d,%d)", ch, r, c)
				}
				tile, dir := edgeOwner(r, c, h, w)
				if err := g.MergeEdge(g.Logical(tile.Row, tile.Col), dir, maze.MakeEdge(wall, maze.VictimNone)); err != nil {
					t.Fatalf("ParseGrid: %v", err)
				}
			}
		}
	}
	return g
}

var tiles = map[byte]maze.Tile{
	'.': maze.TileClear,
	's': maze.TileSilver,
	'b': maze.TileBumpSlope,
	'k': maze.TileBlack,
	'?': maze.TileUnexplored,
	' ': maze.TileUnknown,
}

var walls = map[byte]maze.Wall{
	'|': maze.WallPresent,
	'-': maze.WallPresent,
	'v': maze.WallVirtual,
	' ': maze.WallAbsent,
	'~': maze.WallUnknown,
}

// edgeOwner picks a tile adjacent to the raw edge cell (r,c), returned as a
// raw index, and the direction from that tile to the edge.
func edgeOwner(r, c, h, w int) (maze.Coord, maze.Direction) {
	if r%2 == 0 {
		if r+1 < h {
			return maze.Coord{Row: r + 1, Col: c}, maze.North
		}
		return maze.Coord{Row: r - 1, Col: c}, maze.South
	}
	if c+1 < w {
		return maze.Coord{Row: r, Col: c + 1}, maze.West
	}
	return maze.Coord{Row: r, Col: c - 1}, maze.East
}
