/*
 * spectral.go, part of chgbench.
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

package backend

import (
	"math"

	"github.com/rmera/chgbench"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Resample returns g sampled on a grid with dimensions out, by Fourier
// interpolation, one axis at a time. Frequencies that the smaller of the two
// grids can't hold are dropped. If sigma > 0, g is first smoothed with a
// Gaussian of standard deviation sigma, in grid points of g.
// A constant grid is resampled exactly.
func Resample(g *chgbench.Grid, out chgbench.Dims, sigma float64) *chgbench.Grid {
	data, d := g.Data(), g.Dims()
	for axis := 0; axis < 3; axis++ {
		data, d = resampleAxis(data, d, axis, out[axis], sigma)
	}
	if d == g.Dims() && sigma <= 0 {
		return g.Clone()
	}
	ret, _ := chgbench.NewGrid(d, data)
	return ret
}

func stride(d chgbench.Dims, axis int) int {
	s := 1
	for i := 0; i < axis; i++ {
		s *= d[i]
	}
	return s
}

func otherAxes(axis int) (int, int) {
	switch axis {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	}
	return 0, 1
}

// resampleAxis resamples every line of data along axis to m points.
func resampleAxis(data []float64, d chgbench.Dims, axis, m int, sigma float64) ([]float64, chgbench.Dims) {
	n := d[axis]
	if n == m && sigma <= 0 {
		return data, d
	}
	nd := d
	nd[axis] = m
	ret := make([]float64, nd.Volume())
	fn, fm := fourier.NewCmplxFFT(n), fourier.NewCmplxFFT(m)
	line := make([]complex128, n)
	coef := make([]complex128, n)
	ycoef := make([]complex128, m)
	seq := make([]complex128, m)
	filter := gaussianFilter(n, sigma)
	o1, o2 := otherAxes(axis)
	s, so := stride(d, axis), stride(nd, axis)
	norm := 1 / float64(n)
	for b := 0; b < d[o2]; b++ {
		for a := 0; a < d[o1]; a++ {
			base := a*stride(d, o1) + b*stride(d, o2)
			obase := a*stride(nd, o1) + b*stride(nd, o2)
			for i := range line {
				line[i] = complex(data[base+i*s], 0)
			}
			fn.Coefficients(coef, line)
			if filter != nil {
				for k := range coef {
					coef[k] *= complex(filter[k], 0)
				}
			}
			spectralCopy(ycoef, coef)
			fm.Sequence(seq, ycoef)
			for i := range seq {
				ret[obase+i*so] = real(seq[i]) * norm
			}
		}
	}
	return ret, nd
}

// spectralCopy copies the coefficients in src to dst, which may have a
// different length, keeping the frequencies both can hold. If the lengths
// differ, the Nyquist frequency is dropped so the result stays real.
func spectralCopy(dst, src []complex128) {
	n, m := len(src), len(dst)
	if n == m {
		copy(dst, src)
		return
	}
	for i := range dst {
		dst[i] = 0
	}
	h := (min(n, m) - 1) / 2
	copy(dst[:h+1], src[:h+1])
	if h > 0 {
		copy(dst[m-h:], src[n-h:])
	}
}

// gaussianFilter returns the frequency response of a Gaussian of standard
// deviation sigma (in samples) for a length n transform, or nil if sigma is
// not positive.
func gaussianFilter(n int, sigma float64) []float64 {
	if sigma <= 0 {
		return nil
	}
	f := make([]float64, n)
	for k := range f {
		freq := float64(k)
		if k > n/2 {
			freq -= float64(n)
		}
		x := 2 * math.Pi * sigma * freq / float64(n)
		f[k] = math.Exp(-0.5 * x * x)
	}
	return f
}
