/*
 * metrics.go, part of chgbench.
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

package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/rmera/chgbench"
	"gopkg.in/yaml.v3"
)

// Metric names.
const (
	CompressDuration   = "compress_duration"    //seconds
	DecompressDuration = "decompress_duration"  //seconds
	OrigFileSize       = "orig_file_size"       //MB
	CompressedDataSize = "compressed_data_size" //MB
)

// MAEMetric is the name of the mean absolute error metric for field f.
func MAEMetric(f chgbench.Field) string {
	return string(f) + "_mae"
}

// PercentageMetric is the name of the mean percentage difference metric
// for field f.
func PercentageMetric(f chgbench.Field) string {
	return string(f) + "_avg_percentage_diff"
}

// Record holds the metrics of one dataset.
type Record map[string]float64

// Metrics holds the records of several datasets, by key.
type Metrics map[string]Record

// ComputeFidelity compares the original and reconstructed grids of every
// dataset present in both maps. Datasets present in only one of them are
// left out. When the original grid is all zeros and the reconstruction is
// not, the percentage metric is left out, as it is infinite.
func ComputeFidelity(originals, reconstructed map[string]*Dataset) Metrics {
	ret := Metrics{}
	for key, orig := range originals {
		rec, ok := reconstructed[key]
		if !ok {
			continue
		}
		r := Record{}
		for _, f := range chgbench.Fields {
			o, g := orig.Grid(f), rec.Grid(f)
			if o == nil || g == nil {
				continue
			}
			mae, pct, err := chgbench.CompareGrids(o, g)
			if err != nil {
				continue
			}
			r[MAEMetric(f)] = mae
			if !math.IsInf(pct, 0) {
				r[PercentageMetric(f)] = pct
			}
		}
		if len(r) > 0 {
			ret[key] = r
		}
	}
	return ret
}

// GenerateMetrics merges the records of the datasets present in every one
// of parts.
func GenerateMetrics(parts ...Metrics) Metrics {
	ret := Metrics{}
	if len(parts) == 0 {
		return ret
	}
	for key := range parts[0] {
		merged := Record{}
		complete := true
		for _, p := range parts {
			r, ok := p[key]
			if !ok {
				complete = false
				break
			}
			for k, v := range r {
				merged[k] = v
			}
		}
		if complete {
			ret[key] = merged
		}
	}
	return ret
}

// WriteMetricsFile stores metrics under label in the JSON file name, keeping
// the other labels already in the file. A missing or unreadable file is
// replaced. Keys are sorted and indented with 4 spaces.
func WriteMetricsFile(name string, metrics Metrics, label string) error {
	all := map[string]json.RawMessage{}
	if old, err := os.ReadFile(name); err == nil {
		if err := json.Unmarshal(old, &all); err != nil {
			all = map[string]json.RawMessage{}
		}
	}
	raw, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	all[label] = raw
	out, err := json.MarshalIndent(all, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(name, append(out, '\n'), 0o644)
}

// WriteReport writes metrics to w as JSON (4-space indent) or YAML.
func WriteReport(w io.Writer, metrics Metrics, format string) error {
	switch format {
	case "", "json":
		out, err := json.MarshalIndent(metrics, "", "    ")
		if err != nil {
			return err
		}
		_, err = w.Write(append(out, '\n'))
		return err
	case "yaml":
		e := yaml.NewEncoder(w)
		e.SetIndent(4)
		if err := e.Encode(metrics); err != nil {
			return err
		}
		return e.Close()
	}
	return &chgbench.ConfigError{Msg: fmt.Sprintf("unknown report format %q", format)}
}

// ReadMetricsFile reads a file written by WriteMetricsFile.
func ReadMetricsFile(name string) (map[string]Metrics, error) {
	raw, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	ret := map[string]Metrics{}
	if err := json.Unmarshal(raw, &ret); err != nil {
		return nil, &chgbench.FormatError{File: name, Msg: "bad metrics file", Err: err}
	}
	return ret, nil
}
