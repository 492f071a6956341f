/*
 * plot.go, part of chgbench.
 *
 * Copyright 2024 The chgbench authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Package benchplot draws the contents of a metrics file, to compare the
// backends (and parameter sets) that were run on the same datasets.
package benchplot

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"

	"github.com/rmera/chgbench"
	"github.com/rmera/chgbench/bench"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Labels returns the run labels in a metrics file, sorted.
func Labels(all map[string]bench.Metrics) []string {
	ret := make([]string, 0, len(all))
	for l := range all {
		ret = append(ret, l)
	}
	sort.Strings(ret)
	return ret
}

// MetricNames returns every metric found in any run, sorted.
func MetricNames(all map[string]bench.Metrics) []string {
	seen := map[string]bool{}
	var ret []string
	for _, m := range all {
		for _, r := range m {
			for k := range r {
				if !seen[k] {
					seen[k] = true
					ret = append(ret, k)
				}
			}
		}
	}
	sort.Strings(ret)
	return ret
}

// Mean returns the mean of metric over the datasets of a run that have it,
// and the number of such datasets. It returns NaN if there are none.
func Mean(m bench.Metrics, metric string) (float64, int) {
	var v []float64
	for _, r := range m {
		if x, ok := r[metric]; ok && !math.IsNaN(x) {
			v = append(v, x)
		}
	}
	if len(v) == 0 {
		return math.NaN(), 0
	}
	return stat.Mean(v, nil), len(v)
}

// Ratio returns, for a run, the mean of orig_file_size/compressed_data_size.
func Ratio(m bench.Metrics) (float64, int) {
	var v []float64
	for _, r := range m {
		o, ok1 := r[bench.OrigFileSize]
		c, ok2 := r[bench.CompressedDataSize]
		if ok1 && ok2 && c > 0 {
			v = append(v, o/c)
		}
	}
	if len(v) == 0 {
		return math.NaN(), 0
	}
	return stat.Mean(v, nil), len(v)
}

func basicPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

// BarPlot plots, for each run, the mean of metric over its datasets and saves
// the plot to filename, in the format its extension names (png, svg, pdf...).
// Runs without the metric get no bar.
func BarPlot(all map[string]bench.Metrics, metric, title, filename string) error {
	labels := Labels(all)
	values := make(plotter.Values, len(labels))
	var n int
	for i, l := range labels {
		mean, count := Mean(all[l], metric)
		if count == 0 {
			mean = 0
		}
		n += count
		values[i] = mean
	}
	if n == 0 {
		return fmt.Errorf("BarPlot: no run has the metric %q", metric)
	}
	p := basicPlot(title, "", metric)
	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	return p.Save(vg.Length(2+len(labels))*vg.Inch, 5*vg.Inch, filename)
}

// TradeoffPlot puts every run at its mean compression ratio (x) against its
// mean charge MAE (y), and saves the plot to filename. See BarPlot.
func TradeoffPlot(all map[string]bench.Metrics, title, filename string) error {
	p := basicPlot(title, "compression ratio", bench.MAEMetric(chgbench.Charge))
	var points int
	for i, l := range Labels(all) {
		x, nx := Ratio(all[l])
		y, ny := Mean(all[l], bench.MAEMetric(chgbench.Charge))
		if nx == 0 || ny == 0 {
			continue
		}
		s, err := plotter.NewScatter(plotter.XYs{{X: x, Y: y}})
		if err != nil {
			return err
		}
		s.GlyphStyle.Color = plotutil.Color(i)
		s.GlyphStyle.Shape = plotutil.Shape(i)
		s.GlyphStyle.Radius = vg.Points(4)
		p.Add(s)
		p.Legend.Add(l, s)
		points++
	}
	if points == 0 {
		return fmt.Errorf("TradeoffPlot: no run has both sizes and charge errors")
	}
	return p.Save(5*vg.Inch, 5*vg.Inch, filename)
}

// PlotAll writes one bar plot per metric, plus the tradeoff plot when it can
// be drawn, to dir, as format ("png" or "svg") files. It returns the names of
// the files written.
func PlotAll(all map[string]bench.Metrics, dir, format string) ([]string, error) {
	switch format {
	case "png", "svg":
	default:
		return nil, fmt.Errorf("PlotAll: unsupported image format %q", format)
	}
	var ret []string
	for _, m := range MetricNames(all) {
		name := filepath.Join(dir, m+"."+format)
		if err := BarPlot(all, m, m, name); err != nil {
			return ret, err
		}
		ret = append(ret, name)
	}
	name := filepath.Join(dir, "tradeoff."+format)
	if err := TradeoffPlot(all, "Size versus accuracy", name); err == nil {
		ret = append(ret, name)
	}
	return ret, nil
}
