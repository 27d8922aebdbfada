// Package diagnostics renders a 1-D nested Kriging prediction for visual
// inspection: training points, the aggregated mean curve and a +/-2 sd
// confidence band. It is optional, driver-external tooling, not part of
// the numerical core (spec 1: plotting is out of scope for the core
// itself; this package only ever consumes a finished Result).
package diagnostics

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// NewPredictionPlot plots a 1-D prediction: xTrain/yTrain are the design
// points, xPred/mean/sd2 are the prediction points and the aggregated
// mean/variance at each. mean and sd2 must share xPred's length.
func NewPredictionPlot(xTrain, yTrain, xPred, mean, sd2 []float64) (*plot.Plot, error) {
	if len(xPred) != len(mean) || len(mean) != len(sd2) {
		return nil, fmt.Errorf("diagnostics: xPred, mean and sd2 must have equal length, got %d, %d, %d", len(xPred), len(mean), len(sd2))
	}

	p := plot.New()
	p.Title.Text = "Nested Kriging prediction"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	band, err := confidenceBand(xPred, mean, sd2)
	if err != nil {
		return nil, err
	}
	bandPoly, err := plotter.NewPolygon(band)
	if err != nil {
		return nil, err
	}
	bandPoly.Color = color.RGBA{R: 100, G: 100, B: 255, A: 40}
	bandPoly.LineStyle.Color = color.Transparent
	p.Add(bandPoly)

	meanLine, err := plotter.NewLine(xySeries(xPred, mean))
	if err != nil {
		return nil, err
	}
	meanLine.Color = color.RGBA{B: 200, A: 255}
	p.Add(meanLine)
	p.Legend.Add("mean", meanLine)

	trainScatter, err := plotter.NewScatter(xySeries(xTrain, yTrain))
	if err != nil {
		return nil, err
	}
	trainScatter.Shape = draw.CircleGlyph{}
	trainScatter.GlyphStyle.Color = color.RGBA{R: 200, A: 255}
	trainScatter.GlyphStyle.Radius = vg.Points(3)
	p.Add(trainScatter)
	p.Legend.Add("training", trainScatter)

	return p, nil
}

func xySeries(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range pts {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts
}

// confidenceBand builds a closed polygon tracing mean+2sd forward across
// x and mean-2sd back, the usual way to shade a confidence region with a
// single plotter.Polygon.
func confidenceBand(x, mean, sd2 []float64) (plotter.XYs, error) {
	n := len(x)
	if n == 0 {
		return nil, fmt.Errorf("diagnostics: empty prediction set")
	}
	pts := make(plotter.XYs, 0, 2*n)
	for i := 0; i < n; i++ {
		sd := sqrtNonNeg(sd2[i])
		pts = append(pts, plotter.XY{X: x[i], Y: mean[i] + 2*sd})
	}
	for i := n - 1; i >= 0; i-- {
		sd := sqrtNonNeg(sd2[i])
		pts = append(pts, plotter.XY{X: x[i], Y: mean[i] - 2*sd})
	}
	return pts, nil
}

func sqrtNonNeg(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}
