// Package report renders training diagnostics as CSV tables and PNG charts.
package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"croprec/internal/training"
)

var curveHeader = []string{"size", "train_acc", "test_acc", "train_f1", "test_f1"}

func f6(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}

func WriteCurveCSV(path string, pts []training.CurvePoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(curveHeader); err != nil {
		return err
	}
	for _, p := range pts {
		rec := []string{strconv.Itoa(p.Size), f6(p.TrainAcc), f6(p.TestAcc), f6(p.TrainF1), f6(p.TestF1)}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func PlotCurve(path string, pts []training.CurvePoint) error {
	if len(pts) == 0 {
		return errors.New("no curve points")
	}
	p := plot.New()
	p.Title.Text = "Learning curve"
	p.X.Label.Text = "Training samples"
	p.Y.Label.Text = "Score"
	p.Y.Min = 0
	p.Y.Max = 1

	series := func(get func(training.CurvePoint) float64) plotter.XYs {
		xy := make(plotter.XYs, len(pts))
		for i, pt := range pts {
			xy[i].X = float64(pt.Size)
			xy[i].Y = get(pt)
		}
		return xy
	}
	if err := plotutil.AddLinePoints(p,
		"Train (acc)", series(func(c training.CurvePoint) float64 { return c.TrainAcc }),
		"Test (acc)", series(func(c training.CurvePoint) float64 { return c.TestAcc }),
		"Train (macro F1)", series(func(c training.CurvePoint) float64 { return c.TrainF1 }),
		"Test (macro F1)", series(func(c training.CurvePoint) float64 { return c.TestF1 }),
	); err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

// PlotImportances draws one bar per feature in the given order.
func PlotImportances(path string, names []string, values []float64) error {
	if len(names) != len(values) || len(values) == 0 {
		return errors.Newf("got %d names for %d importances", len(names), len(values))
	}
	p := plot.New()
	p.Title.Text = "Feature importance"
	p.Y.Label.Text = "Mean impurity decrease"
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(30))
	if err != nil {
		return err
	}
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(names...)
	if err := ensureDir(path); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
