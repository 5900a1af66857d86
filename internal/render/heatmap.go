package render

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/mazesolver/internal/maze"
)

// visitGrid adapts a visit matrix to plotter.GridXYZ. Columns run west to
// east, and rows are flipped so north is drawn at the top.
type visitGrid struct {
	m    *mat.Dense
	min  maze.Coord
	rows int
}

func (v visitGrid) Dims() (c, r int) {
	r, c = v.m.Dims()
	return c, r
}

func (v visitGrid) Z(c, r int) float64 { return v.m.At(v.rows-1-r, c) }
func (v visitGrid) X(c int) float64    { return float64(v.min.Col/2 + c) }
func (v visitGrid) Y(r int) float64    { return float64(-(v.min.Row/2 + v.rows - 1 - r)) }

// HeatmapSize is the default edge length of a rendered heatmap.
const HeatmapSize = 6 * vg.Inch

// VisitHeatmap plots how often each tile was occupied and writes it to w as
// a PNG image.
func VisitHeatmap(g *maze.Grid, w io.Writer, size vg.Length) error {
	if size <= 0 {
		size = HeatmapSize
	}
	visits := g.VisitMatrix()
	min, _ := g.TileBounds()
	rows, _ := visits.Dims()
	grid := visitGrid{m: visits, min: min, rows: rows}

	hm := plotter.NewHeatMap(grid, palette.Heat(16, 1))
	if hm.Max <= hm.Min {
		hm.Max = hm.Min + 1
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Tile visits (%dx%d tiles)", g.Rows(), g.Cols())
	p.X.Label.Text = "East (tiles)"
	p.Y.Label.Text = "North (tiles)"
	p.Add(hm)

	wt, err := p.WriterTo(size, size, "png")
	if err != nil {
		return fmt.Errorf("render heatmap: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write heatmap: %w", err)
	}
	return nil
}
