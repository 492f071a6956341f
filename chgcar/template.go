/*
 * template.go, part of chgbench.
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
	"strings"

	"github.com/rmera/chgbench"
)

// Template is a CHGCAR file with its grid values removed.
type Template struct {
	lines []string
}

// NewTemplate returns a template made of the given lines (not copied).
func NewTemplate(lines []string) *Template {
	return &Template{lines: lines}
}

// Lines returns a copy of the template lines.
func (T *Template) Lines() []string {
	return append([]string(nil), T.lines...)
}

// Header returns the lines before the first blank line, which hold the
// crystal structure in POSCAR format.
func (T *Template) Header() []string {
	for i, l := range T.lines {
		if strings.TrimSpace(l) == "" {
			return append([]string(nil), T.lines[:i]...)
		}
	}
	return append([]string(nil), T.lines...)
}

// WriteTo writes the template, one line per line.
func (T *Template) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, l := range T.lines {
		m, err := io.WriteString(w, l+"\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// ReadTemplate reads a template written by WriteTo.
func ReadTemplate(r io.Reader) (*Template, error) {
	var lines []string
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for s.Scan() {
		lines = append(lines, strings.TrimRight(s.Text(), "\r"))
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return &Template{lines: lines}, nil
}

// Serialize writes a CHGCAR file to w, replaying the template and inserting
// charge after the dimensions line, and mag after the dimensions line shows
// up again. mag can be nil only if the template has no magnetization section.
func Serialize(w io.Writer, t *Template, charge, mag *chgbench.Grid) error {
	bw := bufio.NewWriter(w)
	var dims []string
	chargeDone, magDone := false, false
	for i := 0; i < len(t.lines); i++ {
		line := t.lines[i]
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
		switch {
		case dims == nil && strings.TrimSpace(line) == "":
			i++
			if i >= len(t.lines) {
				return &chgbench.FormatError{Msg: "template has no grid dimensions line"}
			}
			if _, err := bw.WriteString(t.lines[i] + "\n"); err != nil {
				return err
			}
			if err := writeGrid(bw, t.lines[i], charge, chgbench.Charge); err != nil {
				return chgbench.ErrDecorate(err, "Serialize")
			}
			dims = strings.Fields(t.lines[i])
			chargeDone = true
		case chargeDone && !magDone && fieldsEqual(strings.Fields(line), dims):
			if mag == nil {
				return fmt.Errorf("template has a magnetization section but no magnetization grid was given")
			}
			if err := writeGrid(bw, line, mag, chgbench.Mag); err != nil {
				return chgbench.ErrDecorate(err, "Serialize")
			}
			magDone = true
		}
	}
	if !chargeDone {
		return &chgbench.FormatError{Msg: "template has no blank line before the grid dimensions"}
	}
	if mag != nil && !magDone {
		return fmt.Errorf("magnetization grid given but the template has no magnetization section")
	}
	return bw.Flush()
}

// SerializeFile writes a CHGCAR file called name. See Serialize.
func SerializeFile(name string, t *Template, charge, mag *chgbench.Grid) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := Serialize(f, t, charge, mag); err != nil {
		f.Close()
		return chgbench.ErrDecorate(err, "SerializeFile")
	}
	return f.Close()
}

func writeGrid(w *bufio.Writer, dline string, g *chgbench.Grid, f chgbench.Field) error {
	if g == nil {
		return fmt.Errorf("no %s grid given", f)
	}
	d, err := parseDims(dline)
	if err != nil {
		return &chgbench.FormatError{Msg: "bad grid dimensions line in template", Err: err}
	}
	if d != g.Dims() {
		return fmt.Errorf("%s grid is %s but the template expects %s", f, g.Dims(), d)
	}
	return WriteData(w, g.Data())
}
