/*
 * plot.go, part of chgbench.
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
	"fmt"
	"io"

	"github.com/rmera/chgbench/bench"
	"github.com/rmera/chgbench/benchplot"
	"github.com/spf13/cobra"
)

func plotCmd(out io.Writer) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "plot <metrics-file> [output-folder]",
		Short: "Plot every metric of every run in a metrics file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 1 {
				dir = args[1]
				if err := bench.CheckDir(dir); err != nil {
					return err
				}
			}
			all, err := bench.ReadMetricsFile(args[0])
			if err != nil {
				return err
			}
			files, err := benchplot.PlotAll(all, dir, format)
			for _, f := range files {
				fmt.Fprintln(out, f)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&format, "image-format", "png", "png or svg")
	return cmd
}
