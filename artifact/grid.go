/*
 * grid.go, part of chgbench.
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

package artifact

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/rmera/chgbench"
)

var gridMagic = [4]byte{'C', 'H', 'G', 'B'}

const gridHeaderLen = 4 + 3*4

// EncodeGrid returns a self-describing binary representation of g: the
// magic "CHGB", the three dimensions as little-endian uint32, and the values
// as little-endian float64, in grid order.
func EncodeGrid(g *chgbench.Grid) []byte {
	b := make([]byte, gridHeaderLen, gridHeaderLen+8*g.Len())
	copy(b, gridMagic[:])
	d := g.Dims()
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint32(b[4+4*i:], uint32(d[i]))
	}
	return AppendFloat64s(b, g.Data())
}

// DecodeGrid reverses EncodeGrid.
func DecodeGrid(b []byte) (*chgbench.Grid, error) {
	if len(b) < gridHeaderLen || [4]byte(b[:4]) != gridMagic {
		return nil, &chgbench.FormatError{Msg: "not an encoded grid"}
	}
	var d chgbench.Dims
	for i := 0; i < 3; i++ {
		d[i] = int(binary.LittleEndian.Uint32(b[4+4*i:]))
	}
	data, err := Float64s(b[gridHeaderLen:])
	if err != nil {
		return nil, err
	}
	g, err := chgbench.NewGrid(d, data)
	if err != nil {
		return nil, &chgbench.FormatError{Msg: "encoded grid", Err: err}
	}
	return g, nil
}

// AppendFloat64s appends data to b as raw little-endian float64.
func AppendFloat64s(b []byte, data []float64) []byte {
	for _, v := range data {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
	}
	return b
}

// Float64s decodes raw little-endian float64 values.
func Float64s(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, &chgbench.FormatError{Msg: fmt.Sprintf("%d bytes is not a whole number of float64 values", len(b))}
	}
	ret := make([]float64, len(b)/8)
	for i := range ret {
		ret[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return ret, nil
}
