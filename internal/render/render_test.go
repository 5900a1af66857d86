package render

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mazesolver/internal/maze"
	"github.com/banshee-data/mazesolver/internal/testutil"
)

var fixture = []string{
	"+-+-+-+",
	"|. b ?|",
	"+ +v+~+",
	"|s|k  |",
	"+-+-+-+",
}

func TestText_MatchesFixtureNotation(t *testing.T) {
	g := testutil.ParseGrid(t, fixture...)

	got := Text(g, Options{})
	assert.Equal(t, strings.Join(fixture, "\n")+"\n", got)

	again := testutil.ParseGrid(t, strings.Split(strings.TrimSuffix(got, "\n"), "\n")...)
	assert.Equal(t, got, Text(again, Options{}))
}

func TestText_RobotAndVictims(t *testing.T) {
	g := testutil.ParseGrid(t, fixture...)
	require.NoError(t, g.MergeEdge(maze.Coord{Row: 0, Col: 0}, maze.North, maze.MakeEdge(maze.WallUnknown, maze.VictimH)))

	got := Text(g, Options{Robot: &maze.Pose{Pos: maze.Coord{Row: 0, Col: 2}, Dir: maze.West}, Victims: true})
	lines := strings.Split(got, "\n")
	assert.Equal(t, "+H+-+-+", lines[0])
	assert.Equal(t, "|. < ?|", lines[1])
}

func TestVisitHeatmap(t *testing.T) {
	g := testutil.ParseGrid(t, fixture...)
	g.Visit(maze.Coord{Row: 0, Col: 0})
	g.Visit(maze.Coord{Row: 0, Col: 0})
	g.Visit(maze.Coord{Row: 2, Col: 2})

	var buf bytes.Buffer
	require.NoError(t, VisitHeatmap(g, &buf, 2*HeatmapSize/6))

	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Positive(t, cfg.Width)
	assert.Equal(t, cfg.Width, cfg.Height)
}

func TestVisitHeatmap_NoVisits(t *testing.T) {
	g := testutil.ParseGrid(t, fixture...)

	var buf bytes.Buffer
	require.NoError(t, VisitHeatmap(g, &buf, 0))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}
