/*
 * parse.go, part of chgbench.
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

package chgcar

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rmera/chgbench"
)

// Volumetric is the content of a CHGCAR file.
type Volumetric struct {
	Dims     chgbench.Dims
	Charge   *chgbench.Grid
	Mag      *chgbench.Grid //nil if the file has no magnetization section
	Aug      *Augmentation
	Template *Template
}

// Grid returns the grid for field f, which may be nil.
func (V *Volumetric) Grid(f chgbench.Field) *chgbench.Grid {
	switch f {
	case chgbench.Charge:
		return V.Charge
	case chgbench.Mag:
		return V.Mag
	}
	return nil
}

// Structure parses the POSCAR header of the file.
func (V *Volumetric) Structure() (*Structure, error) {
	s, err := ParsePOSCAR(V.Template.Header())
	if err != nil {
		return nil, chgbench.ErrDecorate(err, "Structure")
	}
	return s, nil
}

// Augmentation holds the non-grid lines that follow each grid, verbatim.
// Total are the lines after the charge grid (up to the magnetization grid, if
// any), Diff the ones after the magnetization grid. HasMag is set if the
// file had a magnetization grid.
type Augmentation struct {
	Total  []string `json:"total"`
	Diff   []string `json:"diff"`
	HasMag bool     `json:"has_mag,omitempty"`
}

// Magnetized returns true if the file these lines come from had a
// magnetization grid. Files stored without the HasMag flag are taken as
// magnetized when they have Diff lines.
func (A *Augmentation) Magnetized() bool {
	return A != nil && (A.HasMag || len(A.Diff) > 0)
}

const augmentationMarker = "augmentation"

const (
	inHeader = iota
	inCharge
	afterCharge
	inMag
	afterMag
)

// ParseFile opens and parses the CHGCAR file name.
func ParseFile(name string) (*Volumetric, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	v, err := Parse(f)
	if err != nil {
		return nil, chgbench.ErrDecorate(fileErr(err, name), "ParseFile")
	}
	return v, nil
}

// Parse reads a CHGCAR file in one pass. Every line that is not grid data
// goes, unchanged, to the returned template.
// The first blank line ends the header and the line after it holds the grid
// dimensions. A grid ends once it has as many values as the dimensions
// require; an augmentation or blank line before that is an error. If the
// dimensions line shows up again after the charge grid, a magnetization grid
// follows it.
func Parse(r io.Reader) (*Volumetric, error) {
	in := bufio.NewReader(r)
	ret := &Volumetric{Aug: &Augmentation{Total: []string{}, Diff: []string{}}}
	var tmpl []string
	var dimsFields []string
	var data []float64
	state := inHeader
	lineno := 0
	for {
		line, err := in.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if line == "" && err == io.EOF {
			break
		}
		lineno++
		line = strings.TrimRight(line, "\r\n")
		switch state {
		case inHeader:
			tmpl = append(tmpl, line)
			if strings.TrimSpace(line) != "" {
				break
			}
			dline, derr := in.ReadString('\n')
			if derr != nil && derr != io.EOF {
				return nil, derr
			}
			lineno++
			dline = strings.TrimRight(dline, "\r\n")
			dims, perr := parseDims(dline)
			if perr != nil {
				return nil, &chgbench.FormatError{Line: lineno, Msg: "bad grid dimensions line", Err: perr}
			}
			tmpl = append(tmpl, dline)
			ret.Dims = dims
			dimsFields = strings.Fields(dline)
			data = make([]float64, 0, capHint(dims))
			state = inCharge
		case inCharge, inMag:
			//A grid closes on its last value, so reaching the end of
			//the section here means values are missing.
			if strings.Contains(line, augmentationMarker) || strings.TrimSpace(line) == "" {
				return nil, countError(lineno, ret.Dims, len(data))
			}
			for _, tok := range strings.Fields(line) {
				v, perr := parseValue(tok)
				if perr != nil {
					return nil, &chgbench.FormatError{Line: lineno, Msg: fmt.Sprintf("non-numeric grid value %q", tok)}
				}
				data = append(data, v)
			}
			if len(data) > ret.Dims.Volume() {
				return nil, countError(lineno, ret.Dims, len(data))
			}
			if len(data) < ret.Dims.Volume() {
				break
			}
			g, _ := chgbench.NewGrid(ret.Dims, data)
			if state == inCharge {
				ret.Charge = g
				state = afterCharge
			} else {
				ret.Mag = g
				ret.Aug.HasMag = true
				state = afterMag
			}
			data = nil
		case afterCharge:
			tmpl = append(tmpl, line)
			if fieldsEqual(strings.Fields(line), dimsFields) {
				data = make([]float64, 0, capHint(ret.Dims))
				state = inMag
				break
			}
			ret.Aug.Total = append(ret.Aug.Total, line)
		case afterMag:
			tmpl = append(tmpl, line)
			ret.Aug.Diff = append(ret.Aug.Diff, line)
		}
		if err == io.EOF {
			break
		}
	}
	switch state {
	case inHeader:
		return nil, &chgbench.FormatError{Line: lineno, Msg: "no blank line before the grid dimensions"}
	case inCharge, inMag:
		return nil, countError(lineno, ret.Dims, len(data))
	}
	ret.Template = &Template{lines: tmpl}
	return ret, nil
}

func countError(lineno int, dims chgbench.Dims, got int) error {
	return &chgbench.FormatError{Line: lineno, Msg: fmt.Sprintf("grid %s needs %d values, found %d", dims, dims.Volume(), got)}
}

// parseDims reads a grid dimensions line: exactly three positive integers.
func parseDims(line string) (chgbench.Dims, error) {
	var d chgbench.Dims
	f := strings.Fields(line)
	if len(f) != 3 {
		return d, fmt.Errorf("expected 3 integers, got %q", line)
	}
	for i, v := range f {
		n, err := strconv.Atoi(v)
		if err != nil {
			return d, err
		}
		if n <= 0 {
			return d, fmt.Errorf("non-positive grid dimension %d", n)
		}
		d[i] = n
	}
	if !d.Valid() {
		return d, fmt.Errorf("grid %s has more than %d points", d, chgbench.MaxVolume)
	}
	return d, nil
}

// capHint is the initial capacity for a grid's values. The file may hold
// far fewer values than the dimensions promise.
func capHint(d chgbench.Dims) int {
	return min(d.Volume(), 1<<20)
}

func dimsLine(d chgbench.Dims) string {
	return fmt.Sprintf("%5d%5d%5d", d[0], d[1], d[2])
}

func fieldsEqual(a, b []string) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
