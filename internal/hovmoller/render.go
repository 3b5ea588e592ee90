package hovmoller

import (
	"image/color"
	"os"
	"path/filepath"

	"soilval/internal/errors"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// RenderOptions controls the rendered figure
type RenderOptions struct {
	Title  string
	Width  vg.Length
	Height vg.Length
	// Colors is the number of palette steps
	Colors int
}

// DefaultRenderOptions returns a 20x10 cm figure
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Title:  "Zonal mean soil moisture",
		Width:  20 * vg.Centimeter,
		Height: 10 * vg.Centimeter,
		Colors: 24,
	}
}

// gridXYZ adapts a Diagram to plotter.GridXYZ: columns are time steps and
// rows are latitude bands.
type gridXYZ struct {
	d *Diagram
}

func (g gridXYZ) Dims() (c, r int)   { return g.d.Steps, len(g.d.Latitudes) }
func (g gridXYZ) Z(c, r int) float64 { return g.d.Values[r][c] }
func (g gridXYZ) X(c int) float64    { return float64(c) }
func (g gridXYZ) Y(r int) float64    { return g.d.Latitudes[r] }

// Render draws d as a heat map and saves it to path. The image format
// follows the file extension (png, svg, pdf, ...).
func Render(d *Diagram, path string, opts RenderOptions) error {
	lo, hi, ok := d.Range()
	if !ok {
		return errors.InvalidInput("diagram has no defined values")
	}
	if hi == lo {
		hi = lo + 1e-9
	}
	if opts.Colors <= 1 {
		opts.Colors = DefaultRenderOptions().Colors
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		def := DefaultRenderOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Time step"
	p.Y.Label.Text = "Latitude (°)"

	h := plotter.NewHeatMap(gridXYZ{d: d}, palette.Heat(opts.Colors, 1))
	h.Min, h.Max = lo, hi
	h.NaN = color.Transparent
	p.Add(h)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.IOError(path, err)
	}
	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		return &errors.AppError{Code: errors.CodeRenderError, Message: "render hovmoller diagram", Cause: err}
	}
	return nil
}
