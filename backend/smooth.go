/*
 * smooth.go, part of chgbench.
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
	"strconv"
	"time"

	"github.com/rmera/chgbench"
	"github.com/rmera/chgbench/artifact"
)

// SmoothConfig configures the Fourier smoothing backend.
type SmoothConfig struct {
	Divisor int            //each grid dimension is divided by this (at least 1 point is kept)
	Std     float64        //standard deviation of the Gaussian smearing, in grid points
	Codec   artifact.Codec //general-purpose compression for the downsampled grid
}

// Smooth compresses a grid by smoothing it with a Gaussian and keeping only
// the low frequencies, on a grid Divisor times smaller per dimension. It
// decompresses by Fourier interpolation back to the original grid.
type Smooth struct {
	cfg SmoothConfig
}

// NewSmooth returns a smoothing backend.
func NewSmooth(cfg SmoothConfig) (*Smooth, error) {
	if cfg.Divisor < 1 {
		return nil, &chgbench.ConfigError{Msg: fmt.Sprintf("smooth: divisor must be at least 1, got %d", cfg.Divisor)}
	}
	if cfg.Std < 0 {
		return nil, &chgbench.ConfigError{Msg: fmt.Sprintf("smooth: negative smearing %g", cfg.Std)}
	}
	return &Smooth{cfg: cfg}, nil
}

func (S *Smooth) Name() string { return SmoothName }

func (S *Smooth) Ext() string { return ".bin" + string(S.cfg.Codec) }

func (S *Smooth) Params() []string {
	return []string{strconv.Itoa(S.cfg.Divisor), strconv.FormatFloat(S.cfg.Std, 'g', -1, 64)}
}

// Reduced returns the dimensions of the compressed grid for a grid of
// dimensions d.
func (S *Smooth) Reduced(d chgbench.Dims) chgbench.Dims {
	var r chgbench.Dims
	for i := range d {
		r[i] = max(1, d[i]/S.cfg.Divisor)
	}
	return r
}

func (S *Smooth) Compress(ctx context.Context, key string, field chgbench.Field, g *chgbench.Grid) (*Artifact, time.Duration, error) {
	start := time.Now()
	small := Resample(g, S.Reduced(g.Dims()), S.cfg.Std)
	data, err := artifact.Compress(artifact.EncodeGrid(small), S.cfg.Codec)
	if err != nil {
		return nil, 0, compressErr(S, key, field, err)
	}
	return &Artifact{Backend: S.Name(), Key: key, Field: field, Data: data}, time.Since(start), nil
}

func (S *Smooth) Decompress(ctx context.Context, a *Artifact, dims chgbench.Dims) (*chgbench.Grid, time.Duration, error) {
	if err := checkArtifact(S, a); err != nil {
		return nil, 0, err
	}
	start := time.Now()
	raw, err := artifact.Decompress(a.Data, S.cfg.Codec)
	if err != nil {
		return nil, 0, decompressErr(S, a, err)
	}
	small, err := artifact.DecodeGrid(raw)
	if err != nil {
		return nil, 0, decompressErr(S, a, err)
	}
	return Resample(small, dims, 0), time.Since(start), nil
}
