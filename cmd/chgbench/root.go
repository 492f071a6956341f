/*
 * root.go, part of chgbench.
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

package main

import (
	"io"

	"github.com/rmera/chgbench/backend"
	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "0.1.0"

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "chgbench",
		Short: "Compression benchmarks for CHGCAR charge densities",
		Long: `chgbench compresses the CHGCAR (.vasp) files in a folder with one backend,
writes them back and measures time, size and accuracy.

Methods:
  compress        - compress every file, print the metrics
  decompress      - rebuild every compressed file, print the metrics
  remake          - compress, then decompress, and add every metric to the metrics file
  remake_no_file  - like remake, but keep the compressed data in memory and print the metrics

Example:
  chgbench sz3 ./data remake 1e-4
  chgbench smooth ./data remake_no_file 2 0.5 --format yaml`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.String("config", "", "configuration file (default chgbench.yaml in . or $HOME/.config/chgbench)")
	pf.Int("workers", 0, "number of files processed at once (0: one per CPU)")
	pf.String("log-level", "info", "debug, info, warn or error")
	pf.String("log-format", "console", "json or console")
	pf.String("metrics-file", "metrics.json", "file remake merges its metrics into")
	pf.String("format", "json", "format of the printed metrics, json or yaml")

	root.AddCommand(
		backendCmd(out, backend.SmoothName, "[dims_divisor [smear_std]]",
			"Downsample in Fourier space after a Gaussian smearing", smoothParams),
		backendCmd(out, backend.SZ3Name, "[error_bound]",
			"Compress with the SZ3 error-bounded compressor", sz3Params),
		backendCmd(out, backend.TthreshName, "[e|r|p [value]]",
			"Compress with the tthresh tensor compressor", tthreshParams),
		backendCmd(out, backend.NeurcompName, "[compression_ratio [layers]]",
			"Fit a neural network to each grid with neurcomp", neurcompParams),
		plotCmd(out),
	)
	return root
}
