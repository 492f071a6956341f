/*
 * structure.go, part of chgbench.
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
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/rmera/chgbench"
	"gonum.org/v1/gonum/mat"
)

// Structure is a periodic crystal structure, as given in a POSCAR file.
type Structure struct {
	Comment string
	Lattice *mat.Dense //3x3, one lattice vector per row, in Angstrom
	Species []string
	Counts  []int        //number of atoms of each species, in order
	Frac    [][3]float64 //fractional coordinates
}

// Natoms returns the number of atoms in the structure.
func (S *Structure) Natoms() int {
	n := 0
	for _, c := range S.Counts {
		n += c
	}
	return n
}

// Symbols returns the element symbol of each atom.
func (S *Structure) Symbols() []string {
	ret := make([]string, 0, S.Natoms())
	for i, c := range S.Counts {
		for j := 0; j < c; j++ {
			ret = append(ret, S.Species[i])
		}
	}
	return ret
}

// Formula returns the reduced-order chemical formula, i.e. "Fe2O3".
func (S *Structure) Formula() string {
	total := map[string]int{}
	var order []string
	for i, sp := range S.Species {
		if _, ok := total[sp]; !ok {
			order = append(order, sp)
		}
		total[sp] += S.Counts[i]
	}
	var b strings.Builder
	for _, sp := range order {
		b.WriteString(sp)
		if total[sp] != 1 {
			b.WriteString(strconv.Itoa(total[sp]))
		}
	}
	return b.String()
}

// Volume returns the volume of the cell.
func (S *Structure) Volume() float64 {
	return math.Abs(mat.Det(S.Lattice))
}

// Parameters returns the cell lengths a, b, c and the angles alpha, beta,
// gamma (in degrees).
func (S *Structure) Parameters() (lengths, angles [3]float64) {
	var v [3]*mat.VecDense
	for i := range v {
		v[i] = mat.NewVecDense(3, mat.Row(nil, i, S.Lattice))
		lengths[i] = mat.Norm(v[i], 2)
	}
	angle := func(i, j int) float64 {
		c := mat.Dot(v[i], v[j]) / (lengths[i] * lengths[j])
		c = math.Max(-1, math.Min(1, c))
		return math.Acos(c) * 180 / math.Pi
	}
	angles = [3]float64{angle(1, 2), angle(0, 2), angle(0, 1)}
	return lengths, angles
}

// Cartesian returns the Cartesian coordinates of the atoms, one per row.
func (S *Structure) Cartesian() *mat.Dense {
	n := len(S.Frac)
	if n == 0 {
		return nil
	}
	f := mat.NewDense(n, 3, nil)
	for i, p := range S.Frac {
		f.SetRow(i, p[:])
	}
	var c mat.Dense
	c.Mul(f, S.Lattice)
	return &c
}

// ParsePOSCAR reads a structure from the lines of a POSCAR file (VASP 5 or 4
// layout). For the VASP 4 layout, species names are taken from the comment
// line when it holds as many words as there are species.
func ParsePOSCAR(lines []string) (*Structure, error) {
	if len(lines) < 7 {
		return nil, &chgbench.FormatError{Msg: fmt.Sprintf("POSCAR header too short (%d lines)", len(lines))}
	}
	S := &Structure{Comment: strings.TrimSpace(lines[0])}
	scale, err := floatFields(lines[1], 1, 2)
	if err != nil {
		return nil, err
	}
	lat := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		row, err := floatFields(lines[2+i], 3, 3+i)
		if err != nil {
			return nil, err
		}
		lat.SetRow(i, row)
	}
	s := scale[0]
	if s < 0 {
		//a negative scale is the cell volume
		s = math.Cbrt(-s / math.Abs(mat.Det(lat)))
	}
	lat.Scale(s, lat)
	S.Lattice = lat

	next := 5
	first := strings.Fields(lines[next])
	if len(first) == 0 {
		return nil, &chgbench.FormatError{Line: next + 1, Msg: "missing species or atom counts"}
	}
	if _, err := strconv.Atoi(first[0]); err != nil {
		S.Species = first
		next++
		if next >= len(lines) {
			return nil, &chgbench.FormatError{Line: next + 1, Msg: "missing atom counts"}
		}
	}
	for _, c := range strings.Fields(lines[next]) {
		n, err := strconv.Atoi(c)
		if err != nil {
			return nil, &chgbench.FormatError{Line: next + 1, Msg: fmt.Sprintf("bad atom count %q", c)}
		}
		S.Counts = append(S.Counts, n)
	}
	next++
	if S.Species == nil {
		S.Species = vasp4Species(S.Comment, len(S.Counts))
	}
	if len(S.Species) != len(S.Counts) {
		return nil, &chgbench.FormatError{Line: next, Msg: fmt.Sprintf("%d species but %d atom counts", len(S.Species), len(S.Counts))}
	}
	if next < len(lines) && strings.HasPrefix(strings.ToLower(strings.TrimSpace(lines[next])), "s") {
		next++ //selective dynamics
	}
	if next >= len(lines) {
		return nil, &chgbench.FormatError{Line: next + 1, Msg: "missing coordinate mode line"}
	}
	mode := strings.ToLower(strings.TrimSpace(lines[next]))
	cartesian := strings.HasPrefix(mode, "c") || strings.HasPrefix(mode, "k")
	next++
	n := S.Natoms()
	if len(lines)-next < n {
		return nil, &chgbench.FormatError{Line: len(lines), Msg: fmt.Sprintf("%d atoms declared, %d coordinate lines found", n, len(lines)-next)}
	}
	var inv mat.Dense
	if cartesian {
		if err := inv.Inverse(lat); err != nil {
			return nil, &chgbench.FormatError{Msg: "singular lattice", Err: err}
		}
	}
	S.Frac = make([][3]float64, n)
	for i := 0; i < n; i++ {
		p, err := floatFields(lines[next+i], 3, next+i+1)
		if err != nil {
			return nil, err
		}
		if cartesian {
			for j := range p {
				p[j] *= s
			}
			r := mat.NewVecDense(3, nil)
			r.MulVec(inv.T(), mat.NewVecDense(3, p))
			p = r.RawVector().Data
		}
		copy(S.Frac[i][:], p)
	}
	return S, nil
}

// WritePOSCAR writes the structure in VASP 5 POSCAR format, with direct
// coordinates.
func (S *Structure) WritePOSCAR(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", S.Comment)
	fmt.Fprintf(&b, "   %.14f\n", 1.0)
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&b, "  %12.6f%12.6f%12.6f\n", S.Lattice.At(i, 0), S.Lattice.At(i, 1), S.Lattice.At(i, 2))
	}
	for _, sp := range S.Species {
		fmt.Fprintf(&b, "   %-2s", sp)
	}
	b.WriteString("\n")
	for _, c := range S.Counts {
		fmt.Fprintf(&b, "%6d", c)
	}
	b.WriteString("\nDirect\n")
	for _, p := range S.Frac {
		fmt.Fprintf(&b, "  %.6f  %.6f  %.6f\n", p[0], p[1], p[2])
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// floatFields parses the first n fields of line as floats. lineno is only
// used for error reporting.
func floatFields(line string, n, lineno int) ([]float64, error) {
	f := strings.Fields(line)
	if len(f) < n {
		return nil, &chgbench.FormatError{Line: lineno, Msg: fmt.Sprintf("expected %d numbers, got %q", n, line)}
	}
	ret := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return nil, &chgbench.FormatError{Line: lineno, Msg: fmt.Sprintf("bad number %q", f[i])}
		}
		ret[i] = v
	}
	return ret, nil
}

func vasp4Species(comment string, n int) []string {
	f := strings.Fields(comment)
	if len(f) == n {
		ok := true
		for _, s := range f {
			if !isSymbol(s) {
				ok = false
				break
			}
		}
		if ok {
			return f
		}
	}
	ret := make([]string, n)
	for i := range ret {
		ret[i] = "X"
	}
	return ret
}

func isSymbol(s string) bool {
	if len(s) == 0 || len(s) > 2 || !unicode.IsUpper(rune(s[0])) {
		return false
	}
	return len(s) == 1 || unicode.IsLower(rune(s[1]))
}
