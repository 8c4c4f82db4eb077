package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var zonePalette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
}

// WriteZonePlot renders the counter history to a static PNG, one line
// per zone. Intended for print material and quick terminal review.
func WriteZonePlot(path, title string, vectors [][]uint32) error {
	zones := 0
	for _, v := range vectors {
		if len(v) > zones {
			zones = len(v)
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "state"
	p.Y.Label.Text = "counter"

	for z := 0; z < zones; z++ {
		pts := make(plotter.XYs, 0, len(vectors))
		for i, v := range vectors {
			var val uint32
			if z < len(v) {
				val = v[z]
			}
			pts = append(pts, plotter.XY{X: float64(i), Y: float64(val)})
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("zone %d line: %w", z, err)
		}
		line.Width = vg.Points(1)
		line.Color = zonePalette[z%len(zonePalette)]
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("zone %d", z), line)
	}

	if err := p.Save(12*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
