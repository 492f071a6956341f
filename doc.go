/*
 * doc.go, part of chgbench.
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

/*
Package chgbench is a benchmark harness for lossy compression of volumetric
data stored in the CHGCAR format.

A dataset is a CHGCAR file holding a charge density grid and, optionally, a
magnetization density grid. chgbench parses the file (package chgcar), keeps
the information needed to rebuild it (package provenance), hands each grid to
a compression backend (package backend), and then reconstructs the file and
measures how much was lost (package bench).

This root package holds what every other package needs: the Grid type, the
error types and the fidelity metrics.

	Metrics produced per dataset:

	compress_duration, decompress_duration   seconds, summed over both grids
	orig_file_size, compressed_data_size     MB
	charge_mae, mag_mae                      mean absolute error
	charge_avg_percentage_diff,
	mag_avg_percentage_diff                  100 * sum|a-b| / sum|a|

The backends available are a Fourier smoothing/downsampling codec implemented
in Go, and the external SZ3, tthresh and neurcomp programs, which are driven
as subprocesses.
*/
package chgbench
