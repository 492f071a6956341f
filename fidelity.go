/*
 * fidelity.go, part of chgbench.
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
	"math"

	"gonum.org/v1/gonum/floats"
)

// MAE returns the mean absolute error between two equally long series.
func MAE(actual, predicted []float64) (float64, error) {
	if err := sameLen(actual, predicted); err != nil {
		return 0, err
	}
	return floats.Distance(actual, predicted, 1) / float64(len(actual)), nil
}

// MeanPercentageDiff returns 100*sum|a-p|/sum|a|. If sum|a| is zero, it
// returns 0 when both series are equal and +Inf otherwise.
func MeanPercentageDiff(actual, predicted []float64) (float64, error) {
	if err := sameLen(actual, predicted); err != nil {
		return 0, err
	}
	diff := floats.Distance(actual, predicted, 1)
	ref := floats.Norm(actual, 1)
	if ref == 0 {
		if diff == 0 {
			return 0, nil
		}
		return math.Inf(1), nil
	}
	return 100 * diff / ref, nil
}

// CompareGrids returns the MAE and mean percentage difference between an
// original and a reconstructed grid. The grids must have the same dimensions.
func CompareGrids(orig, rec *Grid) (mae, pct float64, err error) {
	if orig.Dims() != rec.Dims() {
		return 0, 0, fmt.Errorf("grid dimensions differ: %s vs %s", orig.Dims(), rec.Dims())
	}
	mae, err = MAE(orig.Data(), rec.Data())
	if err != nil {
		return 0, 0, err
	}
	pct, err = MeanPercentageDiff(orig.Data(), rec.Data())
	return mae, pct, err
}

func sameLen(a, b []float64) error {
	if len(a) != len(b) {
		return fmt.Errorf("series lengths differ: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return fmt.Errorf("empty series")
	}
	return nil
}
