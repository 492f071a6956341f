/*
 * bench.go, part of chgbench.
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

// Package bench runs compression benchmarks over a directory of CHGCAR
// files: it compresses every dataset with a backend, decompresses them back
// into CHGCAR files and measures time, size and accuracy.
//
// Each phase runs one task per dataset on a bounded pool of goroutines.
// A task that fails only drops its dataset, which is then absent from the
// metrics; the reason is logged.
package bench

import (
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/rmera/chgbench"
	"github.com/rmera/chgbench/backend"
	"github.com/rmera/chgbench/chgcar"
	"github.com/rmera/chgbench/provenance"
	"go.uber.org/zap"
)

// InputExt is the extension of the CHGCAR files to benchmark.
const InputExt = ".vasp"

// Dataset is one CHGCAR file, original or reconstructed.
type Dataset struct {
	Key       string
	Charge    *chgbench.Grid
	Mag       *chgbench.Grid //nil if the file has no magnetization
	Structure *chgcar.Structure
	Aug       *chgcar.Augmentation
	Template  *chgcar.Template //only set for datasets read from their original file
}

// Grid returns the grid for field f, which may be nil.
func (D *Dataset) Grid(f chgbench.Field) *chgbench.Grid {
	if f == chgbench.Charge {
		return D.Charge
	}
	return D.Mag
}

// Compressed is a dataset compressed in memory.
type Compressed struct {
	Dataset   *Dataset
	Dims      chgbench.Dims
	Artifacts map[chgbench.Field]*backend.Artifact
}

// Orchestrator runs the phases of a benchmark with one backend.
type Orchestrator struct {
	backend backend.Backend
	store   *provenance.Store
	workers int
	log     *zap.Logger
}

// New returns an orchestrator that runs at most workers tasks at a time
// (runtime.NumCPU() if workers < 1). log can be nil.
func New(b backend.Backend, workers int, log *zap.Logger) *Orchestrator {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("run", uuid.NewString()), zap.String("backend", b.Name()))
	return &Orchestrator{backend: b, store: provenance.NewStore(""), workers: workers, log: log}
}

// Backend returns the orchestrator's backend.
func (O *Orchestrator) Backend() backend.Backend {
	return O.backend
}

// ArtifactPath returns the name of the file holding the artifact for field
// f of dataset key.
func (O *Orchestrator) ArtifactPath(key string, f chgbench.Field) string {
	return key + "_" + O.backend.Name() + "_compressed_" + string(f) + O.backend.Ext()
}

// OutputPath returns the name of the reconstructed CHGCAR file for key.
func (O *Orchestrator) OutputPath(key string) string {
	return key + "_" + O.backend.Name() + InputExt
}

// Key returns the dataset key for a file name. See DatasetKey.
func (O *Orchestrator) Key(path string) string {
	return DatasetKey(path, O.backend.Name())
}

func isInput(path string) bool {
	return filepath.Ext(path) == InputExt
}
