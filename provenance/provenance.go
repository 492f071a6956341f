/*
 * provenance.go, part of chgbench.
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

// Package provenance keeps, next to each dataset, what is needed to rebuild
// a CHGCAR file from its decompressed grids: the structure (as CIF), the
// augmentation lines (as JSON) and the grid dimensions (as a JSON array).
package provenance

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rmera/chgbench"
	"github.com/rmera/chgbench/chgcar"
	"gonum.org/v1/gonum/mat"
)

// File name suffixes, appended to the dataset key.
const (
	StructureSuffix = "_structure.cif"
	AugSuffix       = "_data_aug.txt"
	DimsSuffix      = "_dims.txt"
)

// Provenance is the information retrieved for one dataset.
type Provenance struct {
	Structure *chgcar.Structure
	Lattice   *mat.Dense
	Aug       *chgcar.Augmentation
	Dims      chgbench.Dims
}

// Store reads and writes provenance files. Keys are paths without
// extension; if Dir is not empty, keys are relative to it.
type Store struct {
	Dir string
}

// NewStore returns a store for keys relative to dir ("" for keys that are
// already full paths).
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

func (S *Store) path(key, suffix string) string {
	if S.Dir == "" {
		return key + suffix
	}
	return filepath.Join(S.Dir, key+suffix)
}

// RequiredFiles returns the paths of the three provenance files for key.
func (S *Store) RequiredFiles(key string) []string {
	return []string{S.path(key, StructureSuffix), S.path(key, AugSuffix), S.path(key, DimsSuffix)}
}

// Store writes the provenance files for key, replacing existing ones.
func (S *Store) Store(key string, s *chgcar.Structure, aug *chgcar.Augmentation, dims chgbench.Dims) error {
	paths := S.RequiredFiles(key)
	if err := chgcar.WriteCIFFile(paths[0], s); err != nil {
		return fmt.Errorf("storing structure for %s: %w", key, err)
	}
	if aug == nil {
		aug = &chgcar.Augmentation{Total: []string{}, Diff: []string{}}
	}
	augJSON, err := json.Marshal(aug)
	if err != nil {
		return err
	}
	if err := os.WriteFile(paths[1], augJSON, 0o644); err != nil {
		return fmt.Errorf("storing augmentation data for %s: %w", key, err)
	}
	dimsJSON, _ := json.Marshal([3]int(dims))
	if err := os.WriteFile(paths[2], dimsJSON, 0o644); err != nil {
		return fmt.Errorf("storing dimensions for %s: %w", key, err)
	}
	return nil
}

// Retrieve reads the provenance of key. If any of the files is absent, it
// returns a *chgbench.MissingProvenanceError listing them. Malformed files
// give a *chgbench.FormatError.
func (S *Store) Retrieve(key string) (*Provenance, error) {
	paths := S.RequiredFiles(key)
	var missing []string
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return nil, &chgbench.MissingProvenanceError{Key: key, Missing: missing}
	}
	st, err := chgcar.ReadCIFFile(paths[0])
	if err != nil {
		return nil, chgbench.ErrDecorate(err, "Retrieve")
	}
	ret := &Provenance{Structure: st, Lattice: st.Lattice}
	raw, err := os.ReadFile(paths[1])
	if err != nil {
		return nil, err
	}
	ret.Aug = &chgcar.Augmentation{}
	if err := json.Unmarshal(raw, ret.Aug); err != nil {
		return nil, &chgbench.FormatError{File: paths[1], Msg: "bad augmentation data", Err: err}
	}
	raw, err = os.ReadFile(paths[2])
	if err != nil {
		return nil, err
	}
	var dims []int
	if err := json.Unmarshal(raw, &dims); err != nil {
		return nil, &chgbench.FormatError{File: paths[2], Msg: "bad grid dimensions", Err: err}
	}
	if len(dims) != 3 {
		return nil, &chgbench.FormatError{File: paths[2], Msg: fmt.Sprintf("expected 3 grid dimensions, got %d", len(dims))}
	}
	copy(ret.Dims[:], dims)
	if !ret.Dims.Valid() {
		return nil, &chgbench.FormatError{File: paths[2], Msg: fmt.Sprintf("invalid grid dimensions %v", dims)}
	}
	return ret, nil
}

// CheckRequiredFiles returns true if all the given paths exist.
func CheckRequiredFiles(paths []string) bool {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}
