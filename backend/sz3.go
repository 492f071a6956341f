/*
 * sz3.go, part of chgbench.
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

// SZ3Config configures the SZ3 backend.
type SZ3Config struct {
	Command    string  //the sz3 executable
	Mode       string  //error bound mode: ABS, REL, PSNR or NORM
	ErrorBound float64 //the error bound, interpreted according to Mode
}

// SZ3 drives the SZ3 error-bounded compressor command line program.
// Grids are exchanged with it as raw little-endian float64 files.
type SZ3 struct {
	cfg SZ3Config
	runner
}

var sz3Modes = map[string]bool{"ABS": true, "REL": true, "PSNR": true, "NORM": true}

// NewSZ3 returns an SZ3 backend.
func NewSZ3(cfg SZ3Config, log *zap.Logger) (*SZ3, error) {
	if cfg.Command == "" {
		cfg.Command = "sz3"
	}
	cfg.Mode = strings.ToUpper(cfg.Mode)
	if cfg.Mode == "" {
		cfg.Mode = "REL"
	}
	if !sz3Modes[cfg.Mode] {
		return nil, &chgbench.ConfigError{Msg: fmt.Sprintf("sz3: unknown error bound mode %q", cfg.Mode)}
	}
	if cfg.ErrorBound <= 0 {
		return nil, &chgbench.ConfigError{Msg: fmt.Sprintf("sz3: error bound must be positive, got %g", cfg.ErrorBound)}
	}
	return &SZ3{cfg: cfg, runner: runner{log: log}}, nil
}

func (S *SZ3) Name() string { return SZ3Name }

func (S *SZ3) Ext() string { return ".sz" }

func (S *SZ3) Params() []string {
	return []string{strconv.FormatFloat(S.cfg.ErrorBound, 'g', -1, 64)}
}

func (S *SZ3) dimArgs(d chgbench.Dims) []string {
	return []string{"-3", strconv.Itoa(d[0]), strconv.Itoa(d[1]), strconv.Itoa(d[2]),
		"-M", S.cfg.Mode, strconv.FormatFloat(S.cfg.ErrorBound, 'g', -1, 64)}
}

func (S *SZ3) Compress(ctx context.Context, key string, field chgbench.Field, g *chgbench.Grid) (*Artifact, time.Duration, error) {
	var data []byte
	var elapsed time.Duration
	err := inTempDir(S.Name(), func(dir string) error {
		in, out := filepath.Join(dir, "grid.dat"), filepath.Join(dir, "grid.dat.sz")
		if err := os.WriteFile(in, artifact.AppendFloat64s(nil, g.Data()), 0o644); err != nil {
			return err
		}
		start := time.Now()
		args := append([]string{"-d", "-i", in, "-z", out}, S.dimArgs(g.Dims())...)
		if err := S.run(ctx, dir, S.cfg.Command, args...); err != nil {
			return err
		}
		elapsed = time.Since(start)
		var err error
		data, err = readOutput(out)
		return err
	})
	if err != nil {
		return nil, 0, compressErr(S, key, field, err)
	}
	return &Artifact{Backend: S.Name(), Key: key, Field: field, Data: data}, elapsed, nil
}

func (S *SZ3) Decompress(ctx context.Context, a *Artifact, dims chgbench.Dims) (*chgbench.Grid, time.Duration, error) {
	if err := checkArtifact(S, a); err != nil {
		return nil, 0, err
	}
	var g *chgbench.Grid
	var elapsed time.Duration
	err := inTempDir(S.Name(), func(dir string) error {
		in, out := filepath.Join(dir, "grid.dat.sz"), filepath.Join(dir, "grid.dat.sz.out")
		if err := os.WriteFile(in, a.Data, 0o644); err != nil {
			return err
		}
		start := time.Now()
		args := append([]string{"-d", "-z", in, "-o", out}, S.dimArgs(dims)...)
		if err := S.run(ctx, dir, S.cfg.Command, args...); err != nil {
			return err
		}
		elapsed = time.Since(start)
		var err error
		g, err = rawGrid(out, dims)
		return err
	})
	if err != nil {
		return nil, 0, decompressErr(S, a, err)
	}
	return g, elapsed, nil
}

// rawGrid reads a grid with dimensions dims from a raw float64 file.
func rawGrid(name string, dims chgbench.Dims) (*chgbench.Grid, error) {
	raw, err := readOutput(name)
	if err != nil {
		return nil, err
	}
	data, err := artifact.Float64s(raw)
	if err != nil {
		return nil, err
	}
	return chgbench.NewGrid(dims, data)
}
