package report

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"salespipe/internal/insight"
	"salespipe/internal/table"
)

// Dashboard panel layout. At most maxPanels charts: up to three numeric
// histograms, up to three categorical bar charts, then (space permitting) a
// daily time series and a correlation heatmap.
const (
	gridRows  = 2
	gridCols  = 3
	maxPanels = gridRows * gridCols

	histBins      = 20
	maxHistograms = 3
	maxBarCharts  = 3
	maxBarCats    = 10
)

// WriteDashboard renders the PNG dashboard for the merged table and its
// insights. Columns with nothing to show are skipped; if no panel applies
// the file is not written and ok is false.
func WriteDashboard(path string, t *table.Table, s insight.Set) (ok bool, err error) {
	var panels []*plot.Plot

	for _, c := range t.Columns() {
		if len(panels) >= maxHistograms || c.Kind != table.Numeric {
			continue
		}
		p, err := histogramPanel(c)
		if err != nil || p == nil {
			continue
		}
		panels = append(panels, p)
	}

	bars := 0
	for _, cs := range s.Categorical {
		if bars >= maxBarCharts || len(panels) >= maxPanels {
			break
		}
		if cs.Distinct > maxBarCats {
			continue
		}
		p, err := barPanel(cs)
		if err != nil {
			continue
		}
		panels = append(panels, p)
		bars++
	}

	if ta := s.TimeAnalysis; ta != nil && len(panels) < maxPanels {
		if p, err := timeSeriesPanel(ta); err == nil && p != nil {
			panels = append(panels, p)
		}
	}

	if len(panels) < maxPanels {
		if p := heatmapPanel(t); p != nil {
			panels = append(panels, p)
		}
	}

	if len(panels) == 0 {
		return false, nil
	}
	if err := writeTiled(path, panels); err != nil {
		return false, err
	}
	return true, nil
}

func histogramPanel(c *table.Column) (*plot.Plot, error) {
	vals := plotter.Values(c.Floats())
	if len(vals) == 0 {
		return nil, nil
	}
	h, err := plotter.NewHist(vals, histBins)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = "Distribution of " + c.Name
	p.X.Label.Text = c.Name
	p.Y.Label.Text = "Frequency"
	p.Add(h)
	return p, nil
}

func barPanel(cs insight.CategoricalStats) (*plot.Plot, error) {
	top := cs.Distribution
	if len(top) > maxBarCats {
		top = top[:maxBarCats]
	}

	vals := make(plotter.Values, len(top))
	labels := make([]string, len(top))
	for i, vc := range top {
		vals[i] = float64(vc.Count)
		labels[i] = vc.Value
	}

	bars, err := plotter.NewBarChart(vals, vg.Points(20))
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = "Top Values in " + cs.Column
	p.Y.Label.Text = "Count"
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	return p, nil
}

func timeSeriesPanel(ta *insight.TimeAnalysis) (*plot.Plot, error) {
	if len(ta.Daily) == 0 {
		return nil, nil
	}

	xys := make(plotter.XYs, len(ta.Daily))
	for i, d := range ta.Daily {
		xys[i].X = float64(d.Day.Unix())
		xys[i].Y = d.Total
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	line.Width = vg.Points(2)

	p := plot.New()
	p.Title.Text = ta.ValueColumn + " Over Time"
	p.X.Label.Text = "Date"
	p.Y.Label.Text = ta.ValueColumn
	p.X.Tick.Marker = plot.TimeTicks{Format: dayFormat}
	p.Add(line)
	return p, nil
}

func heatmapPanel(t *table.Table) *plot.Plot {
	names, m := insight.CorrelationMatrix(t)
	if len(names) < 2 {
		return nil
	}

	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)
	h := plotter.NewHeatMap(corrGrid{m: m}, cm.Palette(64))

	p := plot.New()
	p.Title.Text = "Correlation Matrix"
	p.Add(h)
	p.NominalX(names...)
	p.NominalY(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	return p
}

// corrGrid adapts a square correlation matrix to plotter.GridXYZ. Row 0 of
// the matrix draws at the top of the heatmap.
type corrGrid struct {
	m [][]float64
}

func (g corrGrid) Dims() (c, r int)   { return len(g.m), len(g.m) }
func (g corrGrid) Z(c, r int) float64 { return g.m[len(g.m)-1-r][c] }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

// writeTiled lays the panels into a fixed grid and writes a single PNG.
func writeTiled(path string, panels []*plot.Plot) error {
	grid := make([][]*plot.Plot, gridRows)
	for r := range grid {
		grid[r] = make([]*plot.Plot, gridCols)
		for c := range grid[r] {
			if i := r*gridCols + c; i < len(panels) {
				grid[r][c] = panels[i]
			}
		}
	}

	img := vgimg.New(vg.Points(1080), vg.Points(720))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: gridRows,
		Cols: gridCols,
		PadX: vg.Millimeter * 4,
		PadY: vg.Millimeter * 4,
	}

	canvases := plot.Align(grid, tiles, dc)
	for r := range grid {
		for c := range grid[r] {
			if grid[r][c] != nil {
				grid[r][c].Draw(canvases[r][c])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("write dashboard %s: %w", path, err)
	}
	return nil
}
