// Package chart renders weighted estimates as horizontal bar charts,
// optionally faceted by a demographic key, and writes PNG artifacts.
package chart

import (
	"fmt"
	"image/color"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/ad1ttya/pollbar/internal/aggregate"
)

// Options controls shared chart styling and output.
type Options struct {
	Title   string
	Caption string
	Path    string
	// Chart size in inches. Zero values fall back to 8x5 (per facet for
	// faceted charts).
	WidthIn  float64
	HeightIn float64
	Color    color.Color
}

func (o Options) size() (w, h vg.Length) {
	wi, hi := o.WidthIn, o.HeightIn
	if wi <= 0 {
		wi = 8
	}
	if hi <= 0 {
		hi = 5
	}
	return vg.Length(wi) * vg.Inch, vg.Length(hi) * vg.Inch
}

func (o Options) fill() color.Color {
	if o.Color != nil {
		return o.Color
	}
	return color.RGBA{R: 0x33, G: 0x66, B: 0x99, A: 0xff}
}

// ValidationError indicates the aggregate table is not drawable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("chart: %s: %s", e.Field, e.Reason)
}

// HBar draws a single horizontal bar chart of share by the primary category
// and writes it to opt.Path.
func HBar(e *aggregate.Estimates, opt Options) error {
	if err := validate(e, opt); err != nil {
		return err
	}
	labels := make([]string, 0, len(e.Rows))
	shares := make([]float64, 0, len(e.Rows))
	for _, r := range e.Rows {
		labels = append(labels, joinLabels(r.Labels))
		shares = append(shares, r.Share)
	}
	p, err := barPlot(opt.Title, opt.Caption, labels, shares, opt.fill())
	if err != nil {
		return err
	}
	w, h := opt.size()
	if err := p.Save(w, h, opt.Path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

// FacetedHBar draws one subplot per level of facetKey, stacked vertically in
// a single PNG, each with independent axis scaling.
func FacetedHBar(e *aggregate.Estimates, facetKey string, opt Options) error {
	if err := validate(e, opt); err != nil {
		return err
	}
	if len(e.Keys) != 2 {
		return &ValidationError{Field: "keys", Reason: "faceted chart needs exactly two group keys"}
	}
	facets, err := e.Facets(facetKey)
	if err != nil {
		return &ValidationError{Field: "facet", Reason: err.Error()}
	}
	if len(facets) == 0 {
		return &ValidationError{Field: "facet", Reason: "no facet levels with data"}
	}
	primaryIdx := 0
	if e.Keys[0] == facetKey {
		primaryIdx = 1
	}

	plots := make([][]*plot.Plot, len(facets))
	for i, f := range facets {
		labels := make([]string, 0, len(f.Rows))
		shares := make([]float64, 0, len(f.Rows))
		for _, r := range f.Rows {
			labels = append(labels, r.Labels[primaryIdx])
			shares = append(shares, r.Share)
		}
		title := f.Label
		if i == 0 && opt.Title != "" {
			title = opt.Title + " — " + f.Label
		}
		caption := ""
		if i == len(facets)-1 {
			caption = opt.Caption
		}
		p, err := barPlot(title, caption, labels, shares, opt.fill())
		if err != nil {
			return err
		}
		plots[i] = []*plot.Plot{p}
	}

	w, h := opt.size()
	img := vgimg.New(w, h*vg.Length(len(facets)))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: len(facets),
		Cols: 1,
		PadX: vg.Millimeter * 2,
		PadY: vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	f, err := os.Create(opt.Path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}

func validate(e *aggregate.Estimates, opt Options) error {
	if e == nil || len(e.Rows) == 0 {
		return &ValidationError{Field: "rows", Reason: "no estimate rows"}
	}
	if len(e.Keys) == 0 {
		return &ValidationError{Field: "keys", Reason: "no category columns"}
	}
	if opt.Path == "" {
		return &ValidationError{Field: "path", Reason: "no output path"}
	}
	for _, r := range e.Rows {
		if math.IsNaN(r.Share) || math.IsInf(r.Share, 0) || r.Share < 0 {
			return &ValidationError{Field: "share", Reason: fmt.Sprintf("non-finite or negative share for %v", r.Labels)}
		}
	}
	return nil
}

// barPlot lays out one horizontal bar chart. Categories are reversed so the
// first level lands at the top of the axis.
func barPlot(title, caption string, labels []string, shares []float64, fill color.Color) (*plot.Plot, error) {
	n := len(labels)
	vals := make(plotter.Values, n)
	names := make([]string, n)
	for i := 0; i < n; i++ {
		vals[i] = shares[n-1-i]
		names[i] = labels[n-1-i]
	}
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.X.Label.Text = caption
	p.X.Min = 0
	p.X.Tick.Marker = percentTicks{}

	bars, err := plotter.NewBarChart(vals, vg.Points(18))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	bars.Horizontal = true
	bars.Color = fill
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(names...)
	return p, nil
}

// percentTicks formats the share axis as percentages.
type percentTicks struct{}

func (percentTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i, t := range ticks {
		if t.Label == "" {
			continue
		}
		ticks[i].Label = fmt.Sprintf("%.0f%%", t.Value*100)
	}
	return ticks
}

func joinLabels(labels []string) string {
	out := labels[0]
	for _, l := range labels[1:] {
		out += " / " + l
	}
	return out
}
