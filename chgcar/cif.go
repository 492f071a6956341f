/*
 * cif.go, part of chgbench.
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
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rmera/chgbench"
	"gonum.org/v1/gonum/mat"
)

// WriteCIF writes the structure as a P1 CIF file. Only the cell, the atoms
// and the comment (as _chemical_name_systematic) are written.
func WriteCIF(w io.Writer, S *Structure) error {
	lengths, angles := S.Parameters()
	formula := S.Formula()
	var b strings.Builder
	b.WriteString("# generated by chgbench\n")
	fmt.Fprintf(&b, "data_%s\n", formula)
	fmt.Fprintf(&b, "_chemical_name_systematic   %s\n", cifQuote(S.Comment))
	b.WriteString("_symmetry_space_group_name_H-M   'P 1'\n")
	for i, l := range []string{"a", "b", "c"} {
		fmt.Fprintf(&b, "_cell_length_%s   %.8f\n", l, lengths[i])
	}
	for i, l := range []string{"alpha", "beta", "gamma"} {
		fmt.Fprintf(&b, "_cell_angle_%s   %.8f\n", l, angles[i])
	}
	b.WriteString("_symmetry_Int_Tables_number   1\n")
	fmt.Fprintf(&b, "_chemical_formula_sum   '%s'\n", formula)
	fmt.Fprintf(&b, "_cell_volume   %.8f\n", S.Volume())
	b.WriteString("_cell_formula_units_Z   1\n")
	b.WriteString("loop_\n _symmetry_equiv_pos_site_id\n _symmetry_equiv_pos_as_xyz\n  1  'x, y, z'\n")
	b.WriteString("loop_\n _atom_site_type_symbol\n _atom_site_label\n _atom_site_symmetry_multiplicity\n")
	b.WriteString(" _atom_site_fract_x\n _atom_site_fract_y\n _atom_site_fract_z\n _atom_site_occupancy\n")
	for i, sym := range S.Symbols() {
		p := S.Frac[i]
		fmt.Fprintf(&b, "  %s  %s%d  1  %.8f  %.8f  %.8f  1\n", sym, sym, i, p[0], p[1], p[2])
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteCIFFile writes the structure to the CIF file name.
func WriteCIFFile(name string, S *Structure) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := WriteCIF(f, S); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCIFFile reads the first structure in the CIF file name.
func ReadCIFFile(name string) (*Structure, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := ReadCIF(f)
	if err != nil {
		return nil, chgbench.ErrDecorate(fileErr(err, name), "ReadCIFFile")
	}
	return s, nil
}

// ReadCIF reads the cell and the atom sites of the first data block of a CIF
// file. Symmetry operations are not applied, so the file must list every
// atom in the cell (as P1 files, like the ones WriteCIF produces, do).
// The lattice is built from the cell parameters with c along z.
func ReadCIF(r io.Reader) (*Structure, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	cell := map[string]float64{}
	S := &Structure{}
	var symbols []string
	blocks := 0
	for i := 0; i < len(lines); i++ {
		l := lines[i]
		switch {
		case l == "" || strings.HasPrefix(l, "#"):
			continue
		case strings.HasPrefix(l, "data_"):
			blocks++
			if blocks > 1 {
				i = len(lines)
			}
		case strings.HasPrefix(l, "_cell_length_") || strings.HasPrefix(l, "_cell_angle_"):
			tok := cifTokens(l)
			if len(tok) < 2 {
				return nil, &chgbench.FormatError{Line: i + 1, Msg: "cell parameter without value"}
			}
			v, err := cifNumber(tok[1])
			if err != nil {
				return nil, &chgbench.FormatError{Line: i + 1, Msg: "bad cell parameter", Err: err}
			}
			cell[tok[0]] = v
		case strings.HasPrefix(l, "_chemical_name_systematic"):
			tok := cifTokens(l)
			if len(tok) > 1 && tok[1] != "?" {
				S.Comment = tok[1]
			}
		case l == "loop_":
			var heads []string
			j := i + 1
			for ; j < len(lines) && strings.HasPrefix(lines[j], "_"); j++ {
				heads = append(heads, lines[j])
			}
			var rows [][]string
			for ; j < len(lines); j++ {
				if lines[j] == "" || lines[j] == "loop_" || strings.HasPrefix(lines[j], "_") || strings.HasPrefix(lines[j], "data_") {
					break
				}
				rows = append(rows, cifTokens(lines[j]))
			}
			i = j - 1
			if col(heads, "_atom_site_fract_x") < 0 {
				continue
			}
			var err error
			symbols, S.Frac, err = atomSites(heads, rows)
			if err != nil {
				return nil, err
			}
		}
	}
	var lengths, angles [3]float64
	for k, name := range []string{"a", "b", "c"} {
		v, ok := cell["_cell_length_"+name]
		if !ok {
			return nil, &chgbench.FormatError{Msg: "missing _cell_length_" + name}
		}
		lengths[k] = v
	}
	for k, name := range []string{"alpha", "beta", "gamma"} {
		v, ok := cell["_cell_angle_"+name]
		if !ok {
			return nil, &chgbench.FormatError{Msg: "missing _cell_angle_" + name}
		}
		angles[k] = v
	}
	if len(symbols) == 0 {
		return nil, &chgbench.FormatError{Msg: "no atom sites"}
	}
	S.Lattice = LatticeFromParameters(lengths, angles)
	for i, s := range symbols {
		if i == 0 || s != symbols[i-1] {
			S.Species = append(S.Species, s)
			S.Counts = append(S.Counts, 0)
		}
		S.Counts[len(S.Counts)-1]++
	}
	return S, nil
}

// LatticeFromParameters builds a lattice matrix from the cell lengths and
// angles (degrees). c lies along z, and a in the xz plane.
func LatticeFromParameters(lengths, angles [3]float64) *mat.Dense {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	ca, cb, cg := math.Cos(rad(angles[0])), math.Cos(rad(angles[1])), math.Cos(rad(angles[2]))
	sa, sb := math.Sin(rad(angles[0])), math.Sin(rad(angles[1]))
	val := (ca*cb - cg) / (sa * sb)
	val = math.Max(-1, math.Min(1, val))
	gstar := math.Acos(val)
	a, b, c := lengths[0], lengths[1], lengths[2]
	return mat.NewDense(3, 3, []float64{
		a * sb, 0, a * cb,
		-b * sa * math.Cos(gstar), b * sa * math.Sin(gstar), b * ca,
		0, 0, c,
	})
}

func atomSites(heads []string, rows [][]string) ([]string, [][3]float64, error) {
	xyz := [3]int{col(heads, "_atom_site_fract_x"), col(heads, "_atom_site_fract_y"), col(heads, "_atom_site_fract_z")}
	if xyz[1] < 0 || xyz[2] < 0 {
		return nil, nil, &chgbench.FormatError{Msg: "incomplete fractional coordinates in atom site loop"}
	}
	symcol := col(heads, "_atom_site_type_symbol")
	labelcol := col(heads, "_atom_site_label")
	if symcol < 0 && labelcol < 0 {
		return nil, nil, &chgbench.FormatError{Msg: "atom sites without symbols or labels"}
	}
	symbols := make([]string, 0, len(rows))
	frac := make([][3]float64, 0, len(rows))
	for _, r := range rows {
		if len(r) != len(heads) {
			return nil, nil, &chgbench.FormatError{Msg: fmt.Sprintf("atom site row has %d values, %d expected", len(r), len(heads))}
		}
		var p [3]float64
		for k, c := range xyz {
			v, err := cifNumber(r[c])
			if err != nil {
				return nil, nil, &chgbench.FormatError{Msg: "bad fractional coordinate", Err: err}
			}
			p[k] = v
		}
		var sym string
		if symcol >= 0 {
			sym = r[symcol]
		} else {
			sym = strings.TrimRightFunc(r[labelcol], func(c rune) bool { return c >= '0' && c <= '9' })
		}
		symbols = append(symbols, sym)
		frac = append(frac, p)
	}
	return symbols, frac, nil
}

func col(heads []string, name string) int {
	for i, h := range heads {
		if h == name {
			return i
		}
	}
	return -1
}

// cifNumber parses a CIF number, dropping the standard uncertainty, if any,
// as in 5.4307(2).
func cifNumber(s string) (float64, error) {
	if i := strings.IndexByte(s, '('); i > 0 {
		s = s[:i]
	}
	return strconv.ParseFloat(s, 64)
}

// cifTokens splits a CIF line in whitespace-separated tokens, keeping
// quoted strings together (without the quotes).
func cifTokens(l string) []string {
	var ret []string
	for i := 0; i < len(l); {
		c := l[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '\'' || c == '"':
			end := i + 1
			for end < len(l) && !(l[end] == c && (end+1 == len(l) || l[end+1] == ' ' || l[end+1] == '\t')) {
				end++
			}
			ret = append(ret, l[i+1:min(end, len(l))])
			i = end + 1
		default:
			end := i
			for end < len(l) && l[end] != ' ' && l[end] != '\t' {
				end++
			}
			ret = append(ret, l[i:end])
			i = end
		}
	}
	return ret
}

func cifQuote(s string) string {
	if s == "" {
		return "?"
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	return "\"" + s + "\""
}

func fileErr(err error, name string) error {
	var fe *chgbench.FormatError
	if errors.As(err, &fe) && fe.File == "" {
		fe.File = name
	}
	return err
}
