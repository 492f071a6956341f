/*
 * tthresh.go, part of chgbench.
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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rmera/chgbench"
	"github.com/rmera/chgbench/artifact"
	"go.uber.org/zap"
)

// TthreshConfig configures the tthresh backend.
type TthreshConfig struct {
	Command string  //the tthresh executable
	Target  string  //"e" (relative error), "r" (RMSE) or "p" (PSNR)
	Value   float64 //the target value
}

// Tthresh drives the tthresh tensor compressor command line program.
// Grids are exchanged with it as raw float64 files.
type Tthresh struct {
	cfg TthreshConfig
	runner
}

// NewTthresh returns a tthresh backend.
func NewTthresh(cfg TthreshConfig, log *zap.Logger) (*Tthresh, error) {
	if cfg.Command == "" {
		cfg.Command = "tthresh"
	}
	cfg.Target = strings.TrimLeft(cfg.Target, "-")
	switch cfg.Target {
	case "e", "r", "p":
	default:
		return nil, &chgbench.ConfigError{Msg: fmt.Sprintf("tthresh: target must be one of e, r or p, got %q", cfg.Target)}
	}
	if cfg.Value <= 0 {
		return nil, &chgbench.ConfigError{Msg: fmt.Sprintf("tthresh: target value must be positive, got %g", cfg.Value)}
	}
	return &Tthresh{cfg: cfg, runner: runner{log: log}}, nil
}

func (T *Tthresh) Name() string { return TthreshName }

func (T *Tthresh) Ext() string { return ".tth" }

func (T *Tthresh) Params() []string {
	return []string{T.cfg.Target, strconv.FormatFloat(T.cfg.Value, 'g', -1, 64)}
}

func (T *Tthresh) Compress(ctx context.Context, key string, field chgbench.Field, g *chgbench.Grid) (*Artifact, time.Duration, error) {
	var data []byte
	var elapsed time.Duration
	err := inTempDir(T.Name(), func(dir string) error {
		in, out := filepath.Join(dir, "grid.raw"), filepath.Join(dir, "grid_compressed.raw")
		if err := os.WriteFile(in, artifact.AppendFloat64s(nil, g.Data()), 0o644); err != nil {
			return err
		}
		d := g.Dims()
		start := time.Now()
		err := T.run(ctx, dir, T.cfg.Command, "-i", in, "-t", "double",
			"-s", strconv.Itoa(d[0]), strconv.Itoa(d[1]), strconv.Itoa(d[2]),
			"-"+T.cfg.Target, strconv.FormatFloat(T.cfg.Value, 'g', -1, 64),
			"-c", out)
		if err != nil {
			return err
		}
		elapsed = time.Since(start)
		data, err = readOutput(out)
		return err
	})
	if err != nil {
		return nil, 0, compressErr(T, key, field, err)
	}
	return &Artifact{Backend: T.Name(), Key: key, Field: field, Data: data}, elapsed, nil
}

func (T *Tthresh) Decompress(ctx context.Context, a *Artifact, dims chgbench.Dims) (*chgbench.Grid, time.Duration, error) {
	if err := checkArtifact(T, a); err != nil {
		return nil, 0, err
	}
	var g *chgbench.Grid
	var elapsed time.Duration
	err := inTempDir(T.Name(), func(dir string) error {
		in, out := filepath.Join(dir, "grid_compressed.raw"), filepath.Join(dir, "grid_compressed_decompressed.raw")
		if err := os.WriteFile(in, a.Data, 0o644); err != nil {
			return err
		}
		start := time.Now()
		if err := T.run(ctx, dir, T.cfg.Command, "-c", in, "-o", out); err != nil {
			return err
		}
		elapsed = time.Since(start)
		var err error
		g, err = rawGrid(out, dims)
		return err
	})
	if err != nil {
		return nil, 0, decompressErr(T, a, err)
	}
	return g, elapsed, nil
}
