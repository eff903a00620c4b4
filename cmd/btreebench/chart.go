package main

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// renderChart draws a grouped bar chart comparing per-operation mean
// latency between the B+tree index and the Pebble baseline.
func renderChart(path string, btree, lsm opLatency) error {
	p := plot.New()
	p.Title.Text = "B+tree index vs Pebble LSM: mean latency by operation"
	p.Y.Label.Text = "nanoseconds"
	p.X.Label.Text = "operation"

	ops := []string{"Insert", "Locate", "Scan"}
	btreeValues := plotter.Values{float64(btree.Insert), float64(btree.Locate), float64(btree.Scan)}
	lsmValues := plotter.Values{float64(lsm.Insert), float64(lsm.Locate), float64(lsm.Scan)}

	barWidth := vg.Points(18)

	btreeBars, err := plotter.NewBarChart(btreeValues, barWidth)
	if err != nil {
		return fmt.Errorf("chart: btree bars: %w", err)
	}
	btreeBars.Color = plotter.DefaultLineStyle.Color
	btreeBars.Offset = -barWidth / 2

	lsmBars, err := plotter.NewBarChart(lsmValues, barWidth)
	if err != nil {
		return fmt.Errorf("chart: lsm bars: %w", err)
	}
	lsmBars.Color = plotter.DefaultGlyphStyle.Color
	lsmBars.Offset = barWidth / 2

	p.Add(btreeBars, lsmBars)
	p.Legend.Add("BTreeIndex", btreeBars)
	p.Legend.Add("PebbleLSM", lsmBars)
	p.NominalX(ops...)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("chart: save: %w", err)
	}
	return nil
}
