// Package charts draws presenter charts as SVG using gonum/plot.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"xerpihan-dashboard/internal/presenter"
)

const (
	defaultWidth  = 8 * vg.Inch
	defaultHeight = 4.5 * vg.Inch
)

var (
	barWidth = vg.Points(14)
	boxWidth = vg.Points(28)
)

// ErrNoData is returned when a chart has nothing drawable.
var ErrNoData = errors.New("chart has no drawable values")

type Renderer struct {
	Width  vg.Length
	Height vg.Length
}

func NewRenderer() *Renderer {
	return &Renderer{Width: defaultWidth, Height: defaultHeight}
}

// RenderSlot draws a slot's chart. A slot that failed to compute has
// nothing to draw; its error is returned as is.
func (r *Renderer) RenderSlot(s presenter.Slot) ([]byte, error) {
	if s.Error != nil {
		return nil, s.Error
	}
	return r.Render(s.Title, s.Chart)
}

// Render draws c as an SVG document.
func (r *Renderer) Render(title string, c *presenter.Chart) ([]byte, error) {
	if c == nil || c.Data == nil {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = c.X
	if len(c.Y) == 1 {
		p.Y.Label.Text = c.Y[0]
	}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	var err error
	switch c.Kind {
	case presenter.Line:
		err = addLines(p, c)
	case presenter.Bar:
		err = addBars(p, c)
	case presenter.Scatter:
		err = addScatter(p, c)
	case presenter.Box:
		err = addBoxes(p, c)
	default:
		err = fmt.Errorf("unsupported chart kind %q", c.Kind)
	}
	if err != nil {
		return nil, err
	}

	wt, err := p.WriterTo(r.Width, r.Height, "svg")
	if err != nil {
		return nil, fmt.Errorf("encode svg: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write svg: %w", err)
	}
	return buf.Bytes(), nil
}

// addLines draws one line per Y column across the nominal X categories.
func addLines(p *plot.Plot, c *presenter.Chart) error {
	categories, err := c.Data.Column(c.X)
	if err != nil {
		return err
	}

	drawn := 0
	for i, col := range c.Y {
		ys, err := c.Data.Floats(col)
		if err != nil {
			return err
		}

		pts := make(plotter.XYs, 0, len(ys.Values))
		for j, v := range ys.Values {
			if finite(v) {
				pts = append(pts, plotter.XY{X: float64(j), Y: v})
			}
		}
		if len(pts) == 0 {
			continue
		}

		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return fmt.Errorf("line %s: %w", col, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		points.GlyphStyle.Color = plotutil.Color(i)
		points.GlyphStyle.Shape = draw.CircleGlyph{}

		p.Add(line, points)
		p.Legend.Add(col, line, points)
		drawn++
	}
	if drawn == 0 {
		return ErrNoData
	}

	p.NominalX(categories...)
	return nil
}

// addBars draws grouped bars. Wide data (several Y columns) gives one group
// member per column; long data (Color set) gives one per colour value.
func addBars(p *plot.Plot, c *presenter.Chart) error {
	categories, series, err := barSeries(c)
	if err != nil {
		return err
	}
	if len(categories) == 0 || len(series) == 0 {
		return ErrNoData
	}

	n := len(series)
	for i, s := range series {
		bars, err := plotter.NewBarChart(s.values, barWidth)
		if err != nil {
			return fmt.Errorf("bars %s: %w", s.name, err)
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = vg.Length(float64(i)-float64(n-1)/2) * barWidth

		p.Add(bars)
		p.Legend.Add(s.name, bars)
	}

	p.NominalX(categories...)
	return nil
}

type barGroup struct {
	name   string
	values plotter.Values
}

func barSeries(c *presenter.Chart) ([]string, []barGroup, error) {
	xs, err := c.Data.Column(c.X)
	if err != nil {
		return nil, nil, err
	}

	if c.Color == "" {
		var groups []barGroup
		for _, col := range c.Y {
			ys, err := c.Data.Floats(col)
			if err != nil {
				return nil, nil, err
			}
			groups = append(groups, barGroup{name: col, values: zeroMissing(ys.Values)})
		}
		return xs, groups, nil
	}

	if len(c.Y) == 0 {
		return nil, nil, ErrNoData
	}
	colors, err := c.Data.Column(c.Color)
	if err != nil {
		return nil, nil, err
	}
	ys, err := c.Data.Floats(c.Y[0])
	if err != nil {
		return nil, nil, err
	}

	categories := unique(xs)
	names := unique(colors)
	catIdx := indexOf(categories)
	groups := make([]barGroup, len(names))
	groupIdx := indexOf(names)
	for i, name := range names {
		groups[i] = barGroup{name: name, values: make(plotter.Values, len(categories))}
	}
	for row, v := range ys.Values {
		if finite(v) {
			groups[groupIdx[colors[row]]].values[catIdx[xs[row]]] += v
		}
	}
	return categories, groups, nil
}

// addScatter draws one point cloud per Color value, plus the trend line.
func addScatter(p *plot.Plot, c *presenter.Chart) error {
	if len(c.Y) == 0 {
		return ErrNoData
	}
	xs, err := c.Data.Floats(c.X)
	if err != nil {
		return err
	}
	ys, err := c.Data.Floats(c.Y[0])
	if err != nil {
		return err
	}

	groups := make([]string, c.Data.Len())
	var names []string
	if c.Color != "" {
		if groups, err = c.Data.Column(c.Color); err != nil {
			return err
		}
		names = unique(groups)
	} else {
		names = []string{c.Y[0]}
		for i := range groups {
			groups[i] = c.Y[0]
		}
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	drawn := 0
	for i, name := range names {
		var pts plotter.XYs
		for row := range groups {
			if groups[row] != name || !finite(xs.Values[row]) || !finite(ys.Values[row]) {
				continue
			}
			pts = append(pts, plotter.XY{X: xs.Values[row], Y: ys.Values[row]})
			minX = math.Min(minX, xs.Values[row])
			maxX = math.Max(maxX, xs.Values[row])
		}
		if len(pts) == 0 {
			continue
		}

		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("scatter %s: %w", name, err)
		}
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(4)

		p.Add(sc)
		p.Legend.Add(name, sc)
		drawn++
	}
	if drawn == 0 {
		return ErrNoData
	}

	if c.Trend != nil {
		fit := *c.Trend
		trend := plotter.NewFunction(fit.At)
		trend.XMin, trend.XMax = minX, maxX
		trend.Color = plotutil.Color(len(names))
		trend.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(trend)
		p.Legend.Add(fmt.Sprintf("OLS trend (r2 %.2f)", fit.RSquared), trend)
	}
	return nil
}

// addBoxes draws the distribution of Y[0] for each X category.
func addBoxes(p *plot.Plot, c *presenter.Chart) error {
	if len(c.Y) == 0 {
		return ErrNoData
	}
	xs, err := c.Data.Column(c.X)
	if err != nil {
		return err
	}
	ys, err := c.Data.Floats(c.Y[0])
	if err != nil {
		return err
	}

	categories := unique(xs)
	values := make([]plotter.Values, len(categories))
	idx := indexOf(categories)
	for row, v := range ys.Values {
		if finite(v) {
			i := idx[xs[row]]
			values[i] = append(values[i], v)
		}
	}

	drawn := 0
	for i, vs := range values {
		if len(vs) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(boxWidth, float64(i), vs)
		if err != nil {
			return fmt.Errorf("box %s: %w", categories[i], err)
		}
		box.FillColor = plotutil.Color(i)
		p.Add(box)
		drawn++
	}
	if drawn == 0 {
		return ErrNoData
	}

	p.NominalX(categories...)
	return nil
}

func unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func indexOf(values []string) map[string]int {
	m := make(map[string]int, len(values))
	for i, v := range values {
		m[v] = i
	}
	return m
}

func zeroMissing(values []float64) plotter.Values {
	out := make(plotter.Values, len(values))
	for i, v := range values {
		if finite(v) {
			out[i] = v
		}
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
