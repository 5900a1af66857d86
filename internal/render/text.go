// Package render draws the maze map for operators: a character map for
// consoles and logs, and a PNG heatmap of tile visit counts.
package render

import (
	"strings"

	"github.com/banshee-data/mazesolver/internal/maze"
)

// Options controls what Text draws on top of the map.
type Options struct {
	// Robot, when set, replaces the robot's tile with a heading arrow.
	Robot *maze.Pose
	// Victims draws victim markers in place of the wall glyph.
	Victims bool
}

var tileGlyphs = map[maze.Tile]byte{
	maze.TileUnknown:    ' ',
	maze.TileUnexplored: '?',
	maze.TileClear:      '.',
	maze.TileSilver:     's',
	maze.TileBlack:      'k',
	maze.TileBumpSlope:  'b',
}

var arrows = map[maze.Direction]byte{
	maze.North: '^',
	maze.West:  '<',
	maze.South: 'v',
	maze.East:  '>',
}

var victimGlyphs = [...]byte{' ', 'H', 'S', 'U', 'r', 'y', 'g', '*'}

// Text renders the whole grid, one character per raw cell. Without options
// the output is in the notation the test fixtures are drawn in: '.' clear,
// 's' silver, 'b' bump, 'k' black, '?' unexplored, '|' and '-' walls, 'v'
// virtual walls, '~' unknown edges.
func Text(g *maze.Grid, opts Options) string {
	h, w := g.Dims()
	var sb strings.Builder
	sb.Grow(h * (w + 1))
	for r := 0; r < h; r++ {
		for col := 0; col < w; col++ {
			sb.WriteByte(glyph(g, g.Logical(r, col), opts))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func glyph(g *maze.Grid, c maze.Coord, opts Options) byte {
	switch {
	case c.IsTile():
		if opts.Robot != nil && opts.Robot.Pos == c {
			return arrows[opts.Robot.Dir]
		}
		if b, ok := tileGlyphs[g.Tile(c)]; ok {
			return b
		}
		return '#'
	case c.IsEdge():
		e := g.EdgeAt(c)
		if opts.Victims && e.Victim() != maze.VictimNone {
			return victimGlyphs[e.Victim()]
		}
		return wallGlyph(e.Wall(), c.Row%2 == 0)
	default:
		return '+'
	}
}

// wallGlyph draws a wall. Vertical walls separate tiles in the same row.
func wallGlyph(w maze.Wall, vertical bool) byte {
	switch w {
	case maze.WallPresent:
		if vertical {
			return '|'
		}
		return '-'
	case maze.WallVirtual:
		return 'v'
	case maze.WallAbsent:
		return ' '
	default:
		return '~'
	}
}
