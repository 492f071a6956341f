/*
 * structure_test.go, part of chgbench.
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
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureStructure(Te *testing.T) *Structure {
	v, err := ParseFile(fixture)
	require.NoError(Te, err)
	s, err := v.Structure()
	require.NoError(Te, err)
	return s
}

func TestParsePOSCAR(Te *testing.T) {
	s := fixtureStructure(Te)
	assert.Equal(Te, "Si2", s.Comment)
	assert.Equal(Te, []string{"Si"}, s.Species)
	assert.Equal(Te, []int{2}, s.Counts)
	assert.Equal(Te, []string{"Si", "Si"}, s.Symbols())
	assert.Equal(Te, "Si2", s.Formula())
	assert.InDelta(Te, math.Pow(5.468728, 3), s.Volume(), 1e-9)
	assert.Equal(Te, [3]float64{0.25, 0.25, 0.25}, s.Frac[1])
	l, a := s.Parameters()
	for i := 0; i < 3; i++ {
		assert.InDelta(Te, 5.468728, l[i], 1e-12)
		assert.InDelta(Te, 90, a[i], 1e-12)
	}
	c := s.Cartesian()
	assert.InDelta(Te, 5.468728/4, c.At(1, 2), 1e-12)
}

func TestParsePOSCARCartesianAndVASP4(Te *testing.T) {
	poscar := []string{
		"Na Cl",
		"   2.0",
		"  2.0 0.0 0.0",
		"  0.0 2.0 0.0",
		"  0.0 0.0 2.0",
		"  1 1",
		"Selective dynamics",
		"Cartesian",
		"  0.0 0.0 0.0 T T T",
		"  1.0 1.0 1.0 F F F",
	}
	s, err := ParsePOSCAR(poscar)
	require.NoError(Te, err)
	assert.Equal(Te, []string{"Na", "Cl"}, s.Species)
	for i := 0; i < 3; i++ {
		assert.InDelta(Te, 0.5, s.Frac[1][i], 1e-12)
	}
	assert.InDelta(Te, 64.0, s.Volume(), 1e-12)

	_, err = ParsePOSCAR(poscar[:9])
	assert.Error(Te, err)
	bad := append([]string{}, poscar...)
	bad[3] = "  0.0 x 0.0"
	_, err = ParsePOSCAR(bad)
	assert.Error(Te, err)
}

func TestCIFRoundTrip(Te *testing.T) {
	s := fixtureStructure(Te)
	//make it triclinic, so the lattice gets re-oriented on the way back.
	s.Lattice.Set(1, 0, 1.1)
	s.Lattice.Set(2, 1, -0.7)
	var b bytes.Buffer
	require.NoError(Te, WriteCIF(&b, s))
	assert.Contains(Te, b.String(), "data_Si2")
	back, err := ReadCIF(&b)
	require.NoError(Te, err)
	l1, a1 := s.Parameters()
	l2, a2 := back.Parameters()
	for i := 0; i < 3; i++ {
		assert.InDelta(Te, l1[i], l2[i], 1e-7)
		assert.InDelta(Te, a1[i], a2[i], 1e-7)
	}
	assert.InDelta(Te, s.Volume(), back.Volume(), 1e-5)
	assert.Equal(Te, s.Comment, back.Comment)
	assert.Equal(Te, s.Species, back.Species)
	assert.Equal(Te, s.Counts, back.Counts)
	assert.Equal(Te, s.Frac, back.Frac)
}

func TestReadCIFForeign(Te *testing.T) {
	cif := `data_NaCl
_cell_length_a 5.6402(3)
_cell_length_b 5.6402(3)
_cell_length_c 5.6402(3)
_cell_angle_alpha 90
_cell_angle_beta 90
_cell_angle_gamma 90
loop_
_atom_site_label
_atom_site_fract_x
_atom_site_fract_y
_atom_site_fract_z
Na1 0.0 0.0 0.0
Na2 0.5 0.5 0.0
Cl1 0.5 0.0 0.0

`
	s, err := ReadCIF(strings.NewReader(cif))
	require.NoError(Te, err)
	assert.Equal(Te, []string{"Na", "Cl"}, s.Species)
	assert.Equal(Te, []int{2, 1}, s.Counts)
	assert.Equal(Te, "", s.Comment)
	assert.InDelta(Te, 5.6402*5.6402*5.6402, s.Volume(), 1e-9)

	_, err = ReadCIF(strings.NewReader(strings.Replace(cif, "_cell_length_c 5.6402(3)\n", "", 1)))
	assert.Error(Te, err)
}

func TestWriteFromStructure(Te *testing.T) {
	v, err := ParseFile(fixture)
	require.NoError(Te, err)
	s, err := v.Structure()
	require.NoError(Te, err)
	var b bytes.Buffer
	require.NoError(Te, Write(&b, s, v.Aug, v.Charge, v.Mag))
	back, err := Parse(&b)
	require.NoError(Te, err)
	assert.Equal(Te, v.Charge.Data(), back.Charge.Data())
	assert.Equal(Te, v.Mag.Data(), back.Mag.Data())
	assert.Equal(Te, v.Aug, back.Aug)
	s2, err := back.Structure()
	require.NoError(Te, err)
	assert.Equal(Te, s.Species, s2.Species)
	assert.Equal(Te, s.Frac, s2.Frac)

	//the magnetization grid can't be left out of a magnetized file.
	b.Reset()
	assert.Error(Te, Write(&b, s, v.Aug, v.Charge, nil))
	assert.Error(Te, Write(&b, s, &Augmentation{Total: v.Aug.Total, Diff: v.Aug.Diff}, v.Charge, nil))
	assert.Error(Te, Write(&b, s, &Augmentation{Total: v.Aug.Total, HasMag: true}, v.Charge, nil))

	b.Reset()
	require.NoError(Te, Write(&b, s, &Augmentation{Total: v.Aug.Total}, v.Charge, nil))
	back, err = Parse(&b)
	require.NoError(Te, err)
	assert.Nil(Te, back.Mag)
	assert.False(Te, back.Aug.Magnetized())
	assert.Equal(Te, v.Aug.Total, back.Aug.Total)
}
