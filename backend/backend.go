/*
 * backend.go, part of chgbench.
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

// Package backend has the compression backends that chgbench can
// benchmark. Each one turns a grid into an opaque artifact and back.
// Backends carry their whole configuration and no global state, so several
// of them, or several calls to one, can run at the same time.
package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rmera/chgbench"
	"go.uber.org/zap"
)

// Artifact is the compressed form of one grid. Only the backend that
// produced it can read it.
type Artifact struct {
	Backend string
	Key     string
	Field   chgbench.Field
	Data    []byte
}

// Backend is a lossy (or lossless) grid compressor.
type Backend interface {

	//Name identifies the backend in file names and reports.
	Name() string

	//Ext is the extension, including the dot, for files holding the
	//backend's artifacts.
	Ext() string

	//Params returns the backend parameters, as strings, in the order in
	//which they are given in the command line.
	Params() []string

	//Compress compresses g, which must not be modified. It returns the
	//artifact and the time spent compressing.
	Compress(ctx context.Context, key string, field chgbench.Field, g *chgbench.Grid) (*Artifact, time.Duration, error)

	//Decompress rebuilds a grid with the given dimensions from an
	//artifact produced by Compress.
	Decompress(ctx context.Context, a *Artifact, dims chgbench.Dims) (*chgbench.Grid, time.Duration, error)
}

// Label returns the name of a benchmark run with b: the backend name and
// its parameters, joined by underscores.
func Label(b Backend) string {
	return strings.Join(append([]string{b.Name()}, b.Params()...), "_")
}

// Backend names.
const (
	SmoothName   = "smooth"
	SZ3Name      = "sz3"
	TthreshName  = "tthresh"
	NeurcompName = "neurcomp"
)

// Names returns the names of all the backends.
func Names() []string {
	return []string{SmoothName, SZ3Name, TthreshName, NeurcompName}
}

// Options holds the configuration for every backend. Only the section of
// the backend being built is used.
type Options struct {
	Smooth   SmoothConfig
	SZ3      SZ3Config
	Tthresh  TthreshConfig
	Neurcomp NeurcompConfig
	Log      *zap.Logger
}

// New returns the backend called name.
func New(name string, o Options) (Backend, error) {
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	switch name {
	case SmoothName:
		return NewSmooth(o.Smooth)
	case SZ3Name:
		return NewSZ3(o.SZ3, o.Log)
	case TthreshName:
		return NewTthresh(o.Tthresh, o.Log)
	case NeurcompName:
		return NewNeurcomp(o.Neurcomp, o.Log)
	}
	return nil, &chgbench.ConfigError{Msg: fmt.Sprintf("unknown backend %q (available: %s)", name, strings.Join(Names(), ", "))}
}

func compressErr(b Backend, key string, f chgbench.Field, err error) error {
	return &chgbench.BackendError{Backend: b.Name(), Key: key, Field: f, Op: "compress", Err: err}
}

func decompressErr(b Backend, a *Artifact, err error) error {
	return &chgbench.BackendError{Backend: b.Name(), Key: a.Key, Field: a.Field, Op: "decompress", Err: err}
}

func checkArtifact(b Backend, a *Artifact) error {
	if a == nil {
		return &chgbench.BackendError{Backend: b.Name(), Op: "decompress", Err: fmt.Errorf("nil artifact")}
	}
	if a.Backend != b.Name() {
		return decompressErr(b, a, fmt.Errorf("artifact was produced by backend %q", a.Backend))
	}
	return nil
}
