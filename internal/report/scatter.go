package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/eoverify/rtcqa/internal/metrics"
)

// maxScatterPoints caps the plotted sample count; beyond it points are
// thinned by stride so plots stay deterministic run to run.
const maxScatterPoints = 2000

// WriteLIAScatterPNG plots backscatter against local incidence angle with the
// fitted regression line and saves it as a PNG. Points are the joint finite
// samples inside the regression filter window; the line color encodes the
// slope quality band.
func WriteLIAScatterPNG(path, title string, liaDeg, bsDB []float64, reg metrics.Regression) error {
	pts := filteredPoints(liaDeg, bsDB)
	if len(pts) == 0 {
		return fmt.Errorf("no valid samples to plot for %s", title)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "LIA (deg)"
	p.Y.Label.Text = "backscatter (dB)"
	p.X.Min, p.X.Max = 15, 60

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("build scatter: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(1)
	scatter.GlyphStyle.Color = color.RGBA{R: 70, G: 110, B: 160, A: 120}
	p.Add(scatter)

	if reg.Valid {
		fit := plotter.XYs{
			{X: 15, Y: reg.Slope*15 + reg.Intercept},
			{X: 60, Y: reg.Slope*60 + reg.Intercept},
		}
		line, err := plotter.NewLine(fit)
		if err != nil {
			return fmt.Errorf("build fit line: %w", err)
		}
		line.Width = vg.Points(2)
		line.Color = qualityColor(reg.Slope)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("slope=%.3f r2=%.3f", reg.Slope, reg.R2), line)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func filteredPoints(liaDeg, bsDB []float64) plotter.XYs {
	var all plotter.XYs
	for i := range liaDeg {
		x, y := liaDeg[i], bsDB[i]
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		if x < 15 || x > 60 || y <= -40 || y >= 5 {
			continue
		}
		all = append(all, plotter.XY{X: x, Y: y})
	}
	if len(all) <= maxScatterPoints {
		return all
	}
	stride := (len(all) + maxScatterPoints - 1) / maxScatterPoints
	thinned := make(plotter.XYs, 0, maxScatterPoints)
	for i := 0; i < len(all); i += stride {
		thinned = append(thinned, all[i])
	}
	return thinned
}

func qualityColor(slope float64) color.Color {
	switch metrics.SlopeQuality(slope) {
	case "good":
		return color.RGBA{G: 140, A: 255}
	case "marginal":
		return color.RGBA{R: 230, G: 150, A: 255}
	default:
		return color.RGBA{R: 200, A: 255}
	}
}
