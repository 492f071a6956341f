/*
 * compress.go, part of chgbench.
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
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rmera/chgbench"
	"github.com/rmera/chgbench/backend"
	"github.com/rmera/chgbench/chgcar"
	"go.uber.org/zap"
)

// inputs returns the keys of the input files among files, and the file for
// each key. For files sharing a key, the first one wins. Reconstructed
// files are not inputs.
func (O *Orchestrator) inputs(files []string) ([]string, map[string]string) {
	var keys []string
	paths := map[string]string{}
	for _, f := range files {
		if !isInput(f) {
			continue
		}
		key := O.Key(f)
		dir, base := filepath.Split(f)
		if key != dir+strings.TrimSuffix(base, filepath.Ext(base)) {
			continue
		}
		if _, ok := paths[key]; ok {
			continue
		}
		keys = append(keys, key)
		paths[key] = f
	}
	return keys, paths
}

type compressResult struct {
	compressed *Compressed
	record     Record
}

// CompressDirectory compresses every input file among files, writing, for
// each dataset, the artifacts and the provenance files next to the input.
// It returns the original datasets and the compression metrics, both keyed
// by dataset key. Datasets that failed are absent from both.
func (O *Orchestrator) CompressDirectory(ctx context.Context, files []string) (map[string]*Dataset, Metrics) {
	compressed, metrics := O.compressAll(ctx, files, true)
	originals := make(map[string]*Dataset, len(compressed))
	for k, c := range compressed {
		originals[k] = c.Dataset
	}
	return originals, metrics
}

// CompressInMemory compresses every input file among files, without writing
// anything. It returns the compressed datasets and the compression metrics.
func (O *Orchestrator) CompressInMemory(ctx context.Context, files []string) (map[string]*Compressed, Metrics) {
	return O.compressAll(ctx, files, false)
}

func (O *Orchestrator) compressAll(ctx context.Context, files []string, write bool) (map[string]*Compressed, Metrics) {
	keys, paths := O.inputs(files)
	O.log.Info("compressing", zap.Int("datasets", len(keys)), zap.Bool("write", write))
	results := runPool(ctx, O.workers, keys, func(ctx context.Context, key string) (*compressResult, error) {
		return O.compressFile(ctx, key, paths[key], write)
	})
	compressed := make(map[string]*Compressed, len(keys))
	metrics := Metrics{}
	for r := range results {
		if r.err != nil {
			O.logFailure("compress", r.key, r.err)
			continue
		}
		compressed[r.key] = r.val.compressed
		metrics[r.key] = r.val.record
	}
	O.log.Info("compression done", zap.Int("ok", len(compressed)), zap.Int("failed", len(keys)-len(compressed)))
	return compressed, metrics
}

// compressFile parses one input file and compresses its grids. If write is
// true and every grid compressed, the artifacts, and then the provenance,
// are written to disk.
func (O *Orchestrator) compressFile(ctx context.Context, key, path string, write bool) (*compressResult, error) {
	v, err := chgcar.ParseFile(path)
	if err != nil {
		return nil, err
	}
	st, err := v.Structure()
	if err != nil {
		return nil, chgbench.ErrDecorate(err, "compressFile "+path)
	}
	ds := &Dataset{Key: key, Charge: v.Charge, Mag: v.Mag, Structure: st, Aug: v.Aug, Template: v.Template}
	c := &Compressed{Dataset: ds, Dims: v.Dims, Artifacts: map[chgbench.Field]*backend.Artifact{}}
	var elapsed time.Duration
	var size int64
	for _, f := range chgbench.Fields {
		g := v.Grid(f)
		if g == nil {
			continue
		}
		a, d, err := O.backend.Compress(ctx, key, f, g)
		if err != nil {
			return nil, err
		}
		c.Artifacts[f] = a
		elapsed += d
		size += int64(len(a.Data))
	}
	if write {
		if err := O.persist(key, c); err != nil {
			return nil, err
		}
	}
	rec := Record{
		CompressDuration:   elapsed.Seconds(),
		OrigFileSize:       fileMB(path),
		CompressedDataSize: mb(size),
	}
	return &compressResult{compressed: c, record: rec}, nil
}

// persist writes the artifacts and the provenance of c. If anything fails,
// the artifacts written so far are removed.
func (O *Orchestrator) persist(key string, c *Compressed) (err error) {
	var written []string
	defer func() {
		if err == nil {
			return
		}
		for _, p := range written {
			os.Remove(p)
		}
	}()
	for _, f := range chgbench.Fields {
		path := O.ArtifactPath(key, f)
		a := c.Artifacts[f]
		if a == nil {
			//a leftover from an older file with the same name would be
			//taken as this dataset's.
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			continue
		}
		written = append(written, path)
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			return err
		}
	}
	ds := c.Dataset
	return O.store.Store(key, ds.Structure, ds.Aug, c.Dims)
}

func (O *Orchestrator) logFailure(phase, key string, err error) {
	fields := []zap.Field{zap.String("phase", phase), zap.String("key", key), zap.Error(err)}
	if t := chgbench.Trail(err); len(t) > 0 {
		fields = append(fields, zap.Strings("trail", t))
	}
	var mp *chgbench.MissingProvenanceError
	if errors.As(err, &mp) {
		O.log.Warn("skipping dataset", fields...)
		return
	}
	O.log.Error("dataset failed", fields...)
}
