/*
 * files.go, part of chgbench.
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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rmera/chgbench"
	"github.com/rmera/chgbench/backend"
	"github.com/rmera/chgbench/provenance"
)

// DatasetKey returns the key of the dataset a file belongs to: the path
// without extension(s), cut at the first suffix that chgbench adds to
// the files it writes. Suffixes of all the known backends, plus the given
// ones, are recognized.
//
//	dir/mp-13_chgcar.vasp                        -> dir/mp-13_chgcar
//	dir/mp-13_chgcar_sz3_compressed_charge.sz    -> dir/mp-13_chgcar
//	dir/mp-13_chgcar_structure.cif               -> dir/mp-13_chgcar
//	dir/mp-13_chgcar_sz3.vasp                    -> dir/mp-13_chgcar
func DatasetKey(path string, backends ...string) string {
	dir, base := filepath.Split(path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	suffixes := []string{
		strings.TrimSuffix(provenance.StructureSuffix, filepath.Ext(provenance.StructureSuffix)),
		strings.TrimSuffix(provenance.AugSuffix, filepath.Ext(provenance.AugSuffix)),
		strings.TrimSuffix(provenance.DimsSuffix, filepath.Ext(provenance.DimsSuffix)),
	}
	for _, b := range append(backend.Names(), backends...) {
		for _, f := range chgbench.Fields {
			suffixes = append(suffixes, "_"+b+"_compressed_"+string(f))
		}
		suffixes = append(suffixes, "_"+b)
	}
	for _, s := range suffixes {
		if strings.HasSuffix(base, s) && len(base) > len(s) {
			base = strings.TrimSuffix(base, s)
			break
		}
	}
	return dir + base
}

// related returns true if path is an input file, or a file chgbench wrote
// for some dataset.
func related(path, key string) bool {
	if isInput(path) {
		return true
	}
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return filepath.Base(key) != base
}

// ListFiles returns the paths of the regular files in dir, sorted.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var ret []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			ret = append(ret, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(ret)
	return ret, nil
}

// CheckDir returns a *chgbench.ConfigError if dir is not an existing
// directory.
func CheckDir(dir string) error {
	if dir == "" {
		return &chgbench.ConfigError{Msg: "Invalid directory: no directory given"}
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return &chgbench.ConfigError{Msg: "Invalid directory " + dir, Err: err}
	}
	if !fi.IsDir() {
		return &chgbench.ConfigError{Msg: "Invalid directory " + dir + ": not a directory"}
	}
	return nil
}

func fileMB(path string) float64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return mb(fi.Size())
}

func mb(n int64) float64 {
	return float64(n) / 1024 / 1024
}
