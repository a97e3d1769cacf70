package rl

import (
	"fmt"
	"io"
	"os"
	"path"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ReturnsAnalyzer collects the return of every episode
func ReturnsAnalyzer() Analyzer {
	return func(_ string, traces []*Trace) DataSet {
		returns := make([]float64, len(traces))
		for i, t := range traces {
			returns[i] = t.Return()
		}
		return returns
	}
}

// LengthAnalyzer collects the number of steps of every episode
func LengthAnalyzer() Analyzer {
	return func(_ string, traces []*Trace) DataSet {
		lengths := make([]float64, len(traces))
		for i, t := range traces {
			lengths[i] = float64(t.Len())
		}
		return lengths
	}
}

// SummaryPrinter writes the mean and standard deviation of per episode data sets
func SummaryPrinter(out io.Writer, label string) Comparator {
	return func(names []string, datasets []DataSet) error {
		for i, name := range names {
			values, ok := datasets[i].([]float64)
			if !ok {
				return fmt.Errorf("expected per episode values for %s, got %T", name, datasets[i])
			}
			mean, std := stat.MeanStdDev(values, nil)
			fmt.Fprintf(out, "%s: %s %.3f +/- %.3f over %d episodes\n", name, label, mean, std, len(values))
		}
		return nil
	}
}

// ReturnsPlotter plots per episode data sets of all experiments as lines,
// saved as a png under plotPath
func ReturnsPlotter(plotPath, label string) Comparator {
	return func(names []string, datasets []DataSet) error {
		if _, err := os.Stat(plotPath); err != nil {
			if err := os.MkdirAll(plotPath, os.ModePerm); err != nil {
				return err
			}
		}
		p := plot.New()
		p.Title.Text = "Comparison"
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = label
		for i := 0; i < len(names); i++ {
			values, ok := datasets[i].([]float64)
			if !ok {
				return fmt.Errorf("expected per episode values for %s, got %T", names[i], datasets[i])
			}
			points := make(plotter.XYs, len(values))
			for j, v := range values {
				points[j] = plotter.XY{
					X: float64(j),
					Y: v,
				}
			}
			line, err := plotter.NewLine(points)
			if err != nil {
				continue
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(names[i], line)
		}
		return p.Save(8*vg.Inch, 8*vg.Inch, path.Join(plotPath, label+".png"))
	}
}
