package maze

import (
	"errors"
	"testing"
)

func TestNewGrid(t *testing.T) {
	g := NewGrid(0)
	if g.Rows() != 1 || g.Cols() != 1 {
		t.Fatalf("NewGrid size = %dx%d, want 1x1", g.Rows(), g.Cols())
	}
	if h, w := g.Dims(); h != 3 || w != 3 {
		t.Fatalf("Dims = %dx%d, want 3x3", h, w)
	}
	if r, c := g.Raw(Coord{}); r != 1 || c != 1 {
		t.Fatalf("start tile raw = (%d,%d), want (1,1)", r, c)
	}
	if g.MaxTilesPerAxis() != DefaultMaxTilesPerAxis {
		t.Errorf("MaxTilesPerAxis = %d, want %d", g.MaxTilesPerAxis(), DefaultMaxTilesPerAxis)
	}
}

func TestGrid_TileAndEdgeReadWrite(t *testing.T) {
	g := NewGrid(8)
	for _, d := range Directions {
		if err := g.Grow(d); err != nil {
			t.Fatalf("Grow(%s): %v", d, err)
		}
	}

	origin := Coord{}
	if err := g.SetTile(origin, TileClear); err != nil {
		t.Fatalf("SetTile: %v", err)
	}
	if got := g.Tile(origin); got != TileClear {
		t.Errorf("Tile = %s, want clear", got)
	}
	if err := g.SetTile(Coord{Row: 1, Col: 0}, TileClear); err == nil {
		t.Error("SetTile on an edge coordinate should fail")
	}
	if err := g.SetTile(Coord{Row: 40, Col: 0}, TileClear); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SetTile outside grid err = %v, want ErrOutOfBounds", err)
	}
	if got := g.Tile(Coord{Row: 40, Col: 40}); got != TileUnknown {
		t.Errorf("Tile outside grid = %s, want unknown", got)
	}

	// The edge is shared between the two tiles it joins.
	if err := g.MergeEdge(origin, East, MakeEdge(WallPresent, VictimNone)); err != nil {
		t.Fatalf("MergeEdge: %v", err)
	}
	if got := g.Edge(Coord{Row: 0, Col: 2}, West).Wall(); got != WallPresent {
		t.Errorf("shared edge wall = %s, want present", got)
	}
	if !g.EdgeAt(Coord{Row: 0, Col: 1}).Blocked() {
		t.Error("present wall should block")
	}
}

func TestGrid_MergeEdgeOrsWallsAndKeepsFirstVictim(t *testing.T) {
	g := NewGrid(0)
	c := Coord{}

	mustMerge := func(e Edge) {
		t.Helper()
		if err := g.MergeEdge(c, North, e); err != nil {
			t.Fatalf("MergeEdge: %v", err)
		}
	}

	mustMerge(MakeEdge(WallAbsent, VictimNone))
	if g.Edge(c, North).Blocked() {
		t.Fatal("absent wall should not block")
	}
	mustMerge(MakeEdge(WallUnknown, VictimRed))
	mustMerge(MakeEdge(WallUnknown, VictimHeated))
	if got := g.Edge(c, North).Victim(); got != VictimRed {
		t.Errorf("victim = %s, want first detection red", got)
	}

	// Absent then present merges into virtual, which still blocks.
	mustMerge(MakeEdge(WallPresent, VictimNone))
	e := g.Edge(c, North)
	if e.Wall() != WallVirtual || !e.Blocked() {
		t.Errorf("merged wall = %s blocked=%v, want virtual/blocked", e.Wall(), e.Blocked())
	}
	if e.Victim() != VictimRed {
		t.Errorf("victim changed to %s", e.Victim())
	}
}

func TestGrid_GrowKeepsLogicalCoordinates(t *testing.T) {
	g := NewGrid(0)
	c := Coord{}
	if err := g.SetTile(c, TileSilver); err != nil {
		t.Fatal(err)
	}
	if err := g.MergeEdge(c, South, MakeEdge(WallPresent, VictimS)); err != nil {
		t.Fatal(err)
	}
	g.Visit(c)
	g.Visit(c)

	for _, d := range []Direction{North, West, South, East, North, West} {
		if err := g.Grow(d); err != nil {
			t.Fatalf("Grow(%s): %v", d, err)
		}
		h, w := g.Dims()
		if h != 2*g.Rows()+1 || w != 2*g.Cols()+1 {
			t.Fatalf("after Grow(%s) dims %dx%d for %dx%d tiles", d, h, w, g.Rows(), g.Cols())
		}
		if g.Tile(c) != TileSilver {
			t.Fatalf("after Grow(%s) start tile = %s", d, g.Tile(c))
		}
		if e := g.Edge(c, South); e.Wall() != WallPresent || e.Victim() != VictimS {
			t.Fatalf("after Grow(%s) south edge = %s/%s", d, e.Wall(), e.Victim())
		}
		if g.Visits(c) != 2 {
			t.Fatalf("after Grow(%s) visits = %d, want 2", d, g.Visits(c))
		}
	}

	if g.Rows() != 4 || g.Cols() != 4 {
		t.Fatalf("size = %dx%d, want 4x4", g.Rows(), g.Cols())
	}
	if r, col := g.Raw(c); r != 5 || col != 5 {
		t.Errorf("start tile raw = (%d,%d), want (5,5)", r, col)
	}
	min, max := g.TileBounds()
	if min != (Coord{Row: -4, Col: -4}) || max != (Coord{Row: 2, Col: 2}) {
		t.Errorf("TileBounds = %v..%v", min, max)
	}
	if vm := g.VisitMatrix(); vm.At(2, 2) != 2 {
		t.Errorf("VisitMatrix(2,2) = %v, want 2", vm.At(2, 2))
	}
}

func TestGrid_GrowCapacity(t *testing.T) {
	g := NewGrid(2)
	if err := g.Grow(East); err != nil {
		t.Fatalf("first grow: %v", err)
	}
	err := g.Grow(West)
	if !errors.Is(err, ErrMapCapacityExceeded) {
		t.Fatalf("err = %v, want ErrMapCapacityExceeded", err)
	}
	if g.Cols() != 2 {
		t.Errorf("failed grow changed size to %d cols", g.Cols())
	}
	if err := g.Grow(South); err != nil {
		t.Errorf("rows still have room: %v", err)
	}
}

func TestGrid_EnsureMargin(t *testing.T) {
	g := NewGrid(0)
	for _, d := range Directions {
		if err := g.Grow(d); err != nil {
			t.Fatal(err)
		}
	}

	if _, grown, err := g.EnsureMargin(Coord{}); err != nil || grown {
		t.Fatalf("centre tile should not grow (grown=%v err=%v)", grown, err)
	}

	cases := []struct {
		pos  Coord
		want Direction
	}{
		{Coord{Row: 0, Col: -2}, West},
		{Coord{Row: 0, Col: 2}, East},
		{Coord{Row: -2, Col: 0}, North},
		{Coord{Row: 2, Col: 0}, South},
	}
	for _, tc := range cases {
		d, grown, err := g.EnsureMargin(tc.pos)
		if err != nil || !grown || d != tc.want {
			t.Fatalf("EnsureMargin(%v) = %s,%v,%v want %s", tc.pos, d, grown, err, tc.want)
		}
		r, c := g.Raw(tc.pos)
		h, w := g.Dims()
		if r < 3 || c < 3 || r > h-4 || c > w-4 {
			t.Errorf("after growing %s tile %v raw (%d,%d) still on border of %dx%d", d, tc.pos, r, c, h, w)
		}
	}
}

func TestGrid_Clone(t *testing.T) {
	g := NewGrid(0)
	if err := g.SetTile(Coord{}, TileClear); err != nil {
		t.Fatal(err)
	}
	c := g.Clone()
	if err := g.SetTile(Coord{}, TileBlack); err != nil {
		t.Fatal(err)
	}
	g.Visit(Coord{})
	if c.Tile(Coord{}) != TileClear {
		t.Error("clone shares tile storage")
	}
	if c.Visits(Coord{}) != 0 {
		t.Error("clone shares visit counters")
	}
}
