// Command nestedkriging runs the nested Kriging predictor on a small
// synthetic 1-D dataset and writes a diagnostic plot, mirroring the
// teacher's examples/fall demo: build a scenario, run the algorithm,
// render the result, save it to disk.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/hpwxf/nestedkriging"
	"github.com/hpwxf/nestedkriging/diagnostics"
	"github.com/hpwxf/nestedkriging/internal/synth"
	"github.com/hpwxf/nestedkriging/kernel"
	"gonum.org/v1/plot/vg"
)

func main() {
	n := flag.Int("n", 40, "number of design points")
	clusters := flag.Int("clusters", 4, "number of subgroups")
	seed := flag.Uint64("seed", 1, "random seed for the synthetic dataset")
	out := flag.String("out", "nestedkriging.png", "output plot path")
	krigingType := flag.String("kriging", "simple", "simple or ordinary")
	flag.Parse()

	k, err := kernel.New(kernel.Matern5_2)
	if err != nil {
		log.Fatalf("building kernel: %v", err)
	}

	raw := synth.Points(*seed, *n, 1)
	y, err := synth.GP(*seed, raw, k, 1.0)
	if err != nil {
		log.Fatalf("drawing synthetic response: %v", err)
	}

	x := make([][]float64, *n)
	for i, row := range raw {
		x[i] = row
	}

	cl := make([]int, *n)
	for i := range cl {
		cl[i] = i % *clusters
	}

	const q = 200
	xpred := make([][]float64, q)
	for i := range xpred {
		xpred[i] = []float64{float64(i) / float64(q-1)}
	}

	cfg := &nestedkriging.Config{
		X:           x,
		Y:           y,
		Clusters:    cl,
		Xpred:       xpred,
		CovType:     "matern5_2",
		Param:       []float64{0.2},
		Sd2:         1.0,
		KrigingType: *krigingType,
		NumThreads:  4,
	}

	res, err := nestedkriging.Run(cfg)
	if err != nil {
		log.Fatalf("nested kriging run failed: %v", err)
	}

	fmt.Printf("predicted %d points from %d design points in %d subgroups (%s)\n", q, *n, *clusters, res.Duration)

	xTrain := make([]float64, *n)
	for i, row := range raw {
		xTrain[i] = row[0]
	}
	xPred := make([]float64, q)
	for i, row := range xpred {
		xPred[i] = row[0]
	}

	p, err := diagnostics.NewPredictionPlot(xTrain, y, xPred, res.Mean, res.Sd2)
	if err != nil {
		log.Fatalf("building plot: %v", err)
	}
	if err := p.Save(8*vg.Inch, 5*vg.Inch, *out); err != nil {
		log.Fatalf("saving plot to %s: %v", *out, err)
	}
}
