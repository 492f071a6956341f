/*
 * write.go, part of chgbench.
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
	"fmt"
	"io"
	"os"

	"github.com/rmera/chgbench"
)

// Write writes a CHGCAR file built from a structure, the augmentation lines
// and the grids. mag may be nil only if aug is not Magnetized.
func Write(w io.Writer, s *Structure, aug *Augmentation, charge, mag *chgbench.Grid) error {
	if charge == nil {
		return fmt.Errorf("no charge grid given")
	}
	if mag != nil && mag.Dims() != charge.Dims() {
		return fmt.Errorf("magnetization grid is %s but charge grid is %s", mag.Dims(), charge.Dims())
	}
	if aug == nil {
		aug = &Augmentation{}
	}
	if mag == nil && aug.Magnetized() {
		return fmt.Errorf("the augmentation data belongs to a magnetized file but no magnetization grid was given")
	}
	bw := bufio.NewWriter(w)
	if err := s.WritePOSCAR(bw); err != nil {
		return err
	}
	dl := dimsLine(charge.Dims())
	fmt.Fprintf(bw, "\n%s\n", dl)
	if err := WriteData(bw, charge.Data()); err != nil {
		return err
	}
	for _, l := range aug.Total {
		bw.WriteString(l + "\n")
	}
	if mag != nil {
		bw.WriteString(dl + "\n")
		if err := WriteData(bw, mag.Data()); err != nil {
			return err
		}
		for _, l := range aug.Diff {
			bw.WriteString(l + "\n")
		}
	}
	return bw.Flush()
}

// WriteFile writes a CHGCAR file called name. See Write.
func WriteFile(name string, s *Structure, aug *Augmentation, charge, mag *chgbench.Grid) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := Write(f, s, aug, charge, mag); err != nil {
		f.Close()
		return chgbench.ErrDecorate(err, "WriteFile")
	}
	return f.Close()
}
