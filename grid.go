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

package chgbench

import (
	"fmt"
)

// Field names one of the two grids in a dataset.
type Field string

const (
	Charge Field = "charge"
	Mag    Field = "mag"
)

// Fields lists the grid fields in the order they appear in a CHGCAR file.
var Fields = []Field{Charge, Mag}

// Dims are the number of grid points along each lattice vector.
type Dims [3]int

// Volume returns the number of points in a grid with the given dimensions.
func (D Dims) Volume() int {
	return D[0] * D[1] * D[2]
}

// MaxVolume is the largest number of points a grid may have.
const MaxVolume = 1 << 30

// Valid returns true if the three dimensions are positive and the grid has
// no more than MaxVolume points.
func (D Dims) Valid() bool {
	if D[0] <= 0 || D[1] <= 0 || D[2] <= 0 {
		return false
	}
	//checked one factor at a time so the product can't overflow.
	return D[1] <= MaxVolume/D[0] && D[2] <= MaxVolume/(D[0]*D[1])
}

func (D Dims) String() string {
	return fmt.Sprintf("%dx%dx%d", D[0], D[1], D[2])
}

// Grid is a 3D scalar field sampled on a regular grid. The samples are kept
// in file order, with the first index running fastest.
// A Grid handed to a backend must not be modified afterwards.
type Grid struct {
	dims Dims
	data []float64
}

// NewGrid returns a grid with the given dimensions, backed by data (not a copy).
func NewGrid(dims Dims, data []float64) (*Grid, error) {
	if !dims.Valid() {
		return nil, fmt.Errorf("invalid grid dimensions %v", [3]int(dims))
	}
	if len(data) != dims.Volume() {
		return nil, fmt.Errorf("grid %s needs %d values, got %d", dims, dims.Volume(), len(data))
	}
	return &Grid{dims: dims, data: data}, nil
}

// ZeroGrid returns a zero-filled grid. It panics if dims are not valid.
func ZeroGrid(dims Dims) *Grid {
	if !dims.Valid() {
		panic(fmt.Sprintf("chgbench: invalid grid dimensions %v", [3]int(dims)))
	}
	return &Grid{dims: dims, data: make([]float64, dims.Volume())}
}

func (G *Grid) Dims() Dims {
	return G.dims
}

// Len returns the number of points in the grid.
func (G *Grid) Len() int {
	return len(G.data)
}

// Data returns the underlying samples, in file order.
func (G *Grid) Data() []float64 {
	return G.data
}

func (G *Grid) index(i, j, k int) int {
	if i < 0 || j < 0 || k < 0 || i >= G.dims[0] || j >= G.dims[1] || k >= G.dims[2] {
		panic(fmt.Sprintf("chgbench: index (%d,%d,%d) out of range for grid %s", i, j, k, G.dims))
	}
	return i + G.dims[0]*(j+G.dims[1]*k)
}

// At returns the value at point (i,j,k).
func (G *Grid) At(i, j, k int) float64 {
	return G.data[G.index(i, j, k)]
}

// Set sets the value at point (i,j,k).
func (G *Grid) Set(i, j, k int, v float64) {
	G.data[G.index(i, j, k)] = v
}

// Clone returns a deep copy of the grid.
func (G *Grid) Clone() *Grid {
	d := make([]float64, len(G.data))
	copy(d, G.data)
	return &Grid{dims: G.dims, data: d}
}
