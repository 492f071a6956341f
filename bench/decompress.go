/*
 * decompress.go, part of chgbench.
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
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rmera/chgbench"
	"github.com/rmera/chgbench/backend"
	"github.com/rmera/chgbench/chgcar"
	"github.com/rmera/chgbench/provenance"
	"go.uber.org/zap"
)

type decompressResult struct {
	dataset *Dataset
	record  Record
}

// DecompressDirectory rebuilds every dataset that has artifacts and
// provenance files among, or next to, files. Each reconstructed CHGCAR file
// is written to OutputPath(key). It returns the reconstructed datasets and
// the decompression metrics. Datasets with missing files are skipped, with a
// warning.
func (O *Orchestrator) DecompressDirectory(ctx context.Context, files []string) (map[string]*Dataset, Metrics) {
	seen := map[string]bool{}
	var keys []string
	for _, f := range files {
		key := O.Key(f)
		if seen[key] || !related(f, key) {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	O.log.Info("decompressing", zap.Int("datasets", len(keys)))
	results := runPool(ctx, O.workers, keys, O.decompressKey)
	return O.collect(results, len(keys))
}

// DecompressInMemory rebuilds the datasets compressed by CompressInMemory.
// The reconstructed CHGCAR files are written, from the original file
// templates, to OutputPath(key).
func (O *Orchestrator) DecompressInMemory(ctx context.Context, compressed map[string]*Compressed) (map[string]*Dataset, Metrics) {
	keys := make([]string, 0, len(compressed))
	for k := range compressed {
		keys = append(keys, k)
	}
	O.log.Info("decompressing in memory", zap.Int("datasets", len(keys)))
	results := runPool(ctx, O.workers, keys, func(ctx context.Context, key string) (*decompressResult, error) {
		return O.decompressMemory(ctx, key, compressed[key])
	})
	return O.collect(results, len(keys))
}

func (O *Orchestrator) collect(results <-chan outcome[*decompressResult], n int) (map[string]*Dataset, Metrics) {
	reconstructed := make(map[string]*Dataset, n)
	metrics := Metrics{}
	for r := range results {
		if r.err != nil {
			O.logFailure("decompress", r.key, r.err)
			continue
		}
		reconstructed[r.key] = r.val.dataset
		metrics[r.key] = r.val.record
	}
	O.log.Info("decompression done", zap.Int("ok", len(reconstructed)), zap.Int("failed", n-len(reconstructed)))
	return reconstructed, metrics
}

// RequiredFiles returns the files that must exist to decompress key.
func (O *Orchestrator) RequiredFiles(key string) []string {
	return append(O.store.RequiredFiles(key), O.ArtifactPath(key, chgbench.Charge))
}

func (O *Orchestrator) decompressKey(ctx context.Context, key string) (*decompressResult, error) {
	required := O.RequiredFiles(key)
	if !provenance.CheckRequiredFiles(required) {
		var missing []string
		for _, p := range required {
			if !provenance.CheckRequiredFiles([]string{p}) {
				missing = append(missing, p)
			}
		}
		return nil, &chgbench.MissingProvenanceError{Key: key, Missing: missing}
	}
	prov, err := O.store.Retrieve(key)
	if err != nil {
		return nil, err
	}
	arts := map[chgbench.Field]*backend.Artifact{}
	for _, f := range chgbench.Fields {
		path := O.ArtifactPath(key, f)
		if f == chgbench.Mag {
			if !prov.Aug.Magnetized() {
				continue
			}
			if !provenance.CheckRequiredFiles([]string{path}) {
				return nil, &chgbench.MissingProvenanceError{Key: key, Missing: []string{path}}
			}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		arts[f] = &backend.Artifact{Backend: O.backend.Name(), Key: key, Field: f, Data: data}
	}
	ds, elapsed, err := O.decompressGrids(ctx, key, arts, prov.Dims)
	if err != nil {
		return nil, err
	}
	ds.Structure, ds.Aug = prov.Structure, prov.Aug
	if err := chgcar.WriteFile(O.OutputPath(key), ds.Structure, ds.Aug, ds.Charge, ds.Mag); err != nil {
		return nil, err
	}
	return &decompressResult{dataset: ds, record: Record{DecompressDuration: elapsed.Seconds()}}, nil
}

func (O *Orchestrator) decompressMemory(ctx context.Context, key string, c *Compressed) (*decompressResult, error) {
	ds, elapsed, err := O.decompressGrids(ctx, key, c.Artifacts, c.Dims)
	if err != nil {
		return nil, err
	}
	orig := c.Dataset
	ds.Structure, ds.Aug = orig.Structure, orig.Aug
	if err := chgcar.SerializeFile(O.OutputPath(key), orig.Template, ds.Charge, ds.Mag); err != nil {
		return nil, err
	}
	return &decompressResult{dataset: ds, record: Record{DecompressDuration: elapsed.Seconds()}}, nil
}

// decompressGrids decompresses the artifacts of one dataset. The charge
// artifact is required. The caller decides whether a magnetization one must
// be present.
func (O *Orchestrator) decompressGrids(ctx context.Context, key string, arts map[chgbench.Field]*backend.Artifact, dims chgbench.Dims) (*Dataset, time.Duration, error) {
	if arts[chgbench.Charge] == nil {
		return nil, 0, fmt.Errorf("dataset %s has no charge artifact", key)
	}
	ds := &Dataset{Key: key}
	var elapsed time.Duration
	for _, f := range chgbench.Fields {
		a := arts[f]
		if a == nil {
			continue
		}
		g, d, err := O.backend.Decompress(ctx, a, dims)
		if err != nil {
			return nil, 0, err
		}
		if g.Dims() != dims {
			return nil, 0, &chgbench.BackendError{Backend: O.backend.Name(), Key: key, Field: f, Op: "decompress",
				Err: fmt.Errorf("got a %s grid, expected %s", g.Dims(), dims)}
		}
		if f == chgbench.Charge {
			ds.Charge = g
		} else {
			ds.Mag = g
		}
		elapsed += d
	}
	return ds, elapsed, nil
}
