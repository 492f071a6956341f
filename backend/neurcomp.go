/*
 * neurcomp.go, part of chgbench.
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

package backend

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rmera/chgbench"
	"github.com/rmera/chgbench/artifact"
	"go.uber.org/zap"
)

// NeurcompConfig configures the neurcomp backend.
type NeurcompConfig struct {
	Python           string  //the Python interpreter
	Dir              string  //directory with neurcomp's train.py, net_compress.py and net_decompress.py
	CompressionRatio float64 //target compression ratio for the network size
	Layers           int     //number of network layers
	CUDA             bool    //reconstruct on the GPU
}

// Neurcomp drives neurcomp, which compresses a volume by fitting a neural
// network to it and quantizing the network weights. Compression is training
// plus weight encoding, and its time includes both.
// Grids are exchanged as NPY arrays of shape (nz, ny, nx).
type Neurcomp struct {
	cfg NeurcompConfig
	runner
}

// NewNeurcomp returns a neurcomp backend.
func NewNeurcomp(cfg NeurcompConfig, log *zap.Logger) (*Neurcomp, error) {
	if cfg.Python == "" {
		cfg.Python = "python"
	}
	if cfg.Dir == "" {
		cfg.Dir = filepath.Join("lib", "neurcomp")
	}
	if cfg.CompressionRatio <= 0 {
		return nil, &chgbench.ConfigError{Msg: fmt.Sprintf("neurcomp: compression ratio must be positive, got %g", cfg.CompressionRatio)}
	}
	if cfg.Layers < 1 {
		return nil, &chgbench.ConfigError{Msg: fmt.Sprintf("neurcomp: need at least one layer, got %d", cfg.Layers)}
	}
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, &chgbench.ConfigError{Msg: "neurcomp: bad directory", Err: err}
	}
	cfg.Dir = dir
	return &Neurcomp{cfg: cfg, runner: runner{log: log}}, nil
}

func (N *Neurcomp) Name() string { return NeurcompName }

func (N *Neurcomp) Ext() string { return "" }

func (N *Neurcomp) Params() []string {
	return []string{strconv.FormatFloat(N.cfg.CompressionRatio, 'g', -1, 64), strconv.Itoa(N.cfg.Layers)}
}

func (N *Neurcomp) script(name string) string {
	return filepath.Join(N.cfg.Dir, name)
}

func (N *Neurcomp) Compress(ctx context.Context, key string, field chgbench.Field, g *chgbench.Grid) (*Artifact, time.Duration, error) {
	var data []byte
	var elapsed time.Duration
	err := inTempDir(N.Name(), func(dir string) error {
		vol := filepath.Join(dir, "volume.npy")
		net, conf := filepath.Join(dir, "volume.pth"), filepath.Join(dir, "volume.json")
		out := filepath.Join(dir, "volume_neurcomp_compressed")
		var b bytes.Buffer
		d := g.Dims()
		if err := artifact.WriteNPY(&b, []int{d[2], d[1], d[0]}, g.Data()); err != nil {
			return err
		}
		if err := os.WriteFile(vol, b.Bytes(), 0o644); err != nil {
			return err
		}
		start := time.Now()
		err := N.run(ctx, dir, N.cfg.Python, N.script("train.py"),
			"--volume", vol, "--network", net, "--config", conf,
			"--compression_ratio", strconv.FormatFloat(N.cfg.CompressionRatio, 'g', -1, 64),
			"--n_layers", strconv.Itoa(N.cfg.Layers))
		if err != nil {
			return err
		}
		err = N.run(ctx, dir, N.cfg.Python, N.script("net_compress.py"),
			"--net", net, "--config", conf, "--compressed", out)
		if err != nil {
			return err
		}
		elapsed = time.Since(start)
		data, err = readOutput(out)
		return err
	})
	if err != nil {
		return nil, 0, compressErr(N, key, field, err)
	}
	return &Artifact{Backend: N.Name(), Key: key, Field: field, Data: data}, elapsed, nil
}

func (N *Neurcomp) Decompress(ctx context.Context, a *Artifact, dims chgbench.Dims) (*chgbench.Grid, time.Duration, error) {
	if err := checkArtifact(N, a); err != nil {
		return nil, 0, err
	}
	var g *chgbench.Grid
	var elapsed time.Duration
	err := inTempDir(N.Name(), func(dir string) error {
		in, recon := filepath.Join(dir, "volume_neurcomp_compressed"), filepath.Join(dir, "volume_decompressed")
		if err := os.WriteFile(in, a.Data, 0o644); err != nil {
			return err
		}
		args := []string{N.script("net_decompress.py"), "--compressed", in,
			"--resolution", fmt.Sprintf("%dx%dx%d", dims[2], dims[1], dims[0]),
			"--recon", recon}
		if N.cfg.CUDA {
			args = append(args, "--cuda")
		}
		start := time.Now()
		if err := N.run(ctx, dir, N.cfg.Python, args...); err != nil {
			return err
		}
		elapsed = time.Since(start)
		f, err := os.Open(recon + ".npy")
		if err != nil {
			return fmt.Errorf("compressor produced no output: %w", err)
		}
		defer f.Close()
		shape, data, err := artifact.ReadNPY(f)
		if err != nil {
			return err
		}
		if len(shape) != 3 || shape[0] != dims[2] || shape[1] != dims[1] || shape[2] != dims[0] {
			return fmt.Errorf("reconstructed volume has shape %v, expected [%d %d %d]", shape, dims[2], dims[1], dims[0])
		}
		g, err = chgbench.NewGrid(dims, data)
		return err
	})
	if err != nil {
		return nil, 0, decompressErr(N, a, err)
	}
	return g, elapsed, nil
}
