/*
 * npy.go, part of chgbench.
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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rmera/chgbench"
)

var npyMagic = []byte("\x93NUMPY")

// WriteNPY writes data as a C-ordered little-endian float64 NPY (version
// 1.0) array with the given shape.
func WriteNPY(w io.Writer, shape []int, data []float64) error {
	n := 1
	dims := make([]string, len(shape))
	for i, s := range shape {
		n *= s
		dims[i] = strconv.Itoa(s)
	}
	if n != len(data) {
		return fmt.Errorf("shape %v needs %d values, got %d", shape, n, len(data))
	}
	sh := strings.Join(dims, ", ")
	if len(shape) == 1 {
		sh += ","
	}
	header := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': (%s), }", sh)
	//magic + version + header length + header + '\n' must be a multiple of 64.
	pad := 64 - (len(npyMagic)+2+2+len(header)+1)%64
	if pad == 64 {
		pad = 0
	}
	header += strings.Repeat(" ", pad) + "\n"
	bw := bufio.NewWriter(w)
	bw.Write(npyMagic)
	bw.Write([]byte{1, 0})
	binary.Write(bw, binary.LittleEndian, uint16(len(header)))
	bw.WriteString(header)
	if _, err := bw.Write(AppendFloat64s(make([]byte, 0, 8*len(data)), data)); err != nil {
		return err
	}
	return bw.Flush()
}

var (
	npyDescr   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	npyFortran = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	npyShape   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// ReadNPY reads a C-ordered, little-endian float64 or float32 NPY array.
// float32 values are widened to float64.
func ReadNPY(r io.Reader) (shape []int, data []float64, err error) {
	pre := make([]byte, len(npyMagic)+2)
	if _, err := io.ReadFull(r, pre); err != nil {
		return nil, nil, &chgbench.FormatError{Msg: "short NPY file", Err: err}
	}
	if string(pre[:len(npyMagic)]) != string(npyMagic) {
		return nil, nil, &chgbench.FormatError{Msg: "not an NPY file"}
	}
	var hlen int
	switch pre[len(npyMagic)] {
	case 1:
		var l uint16
		err = binary.Read(r, binary.LittleEndian, &l)
		hlen = int(l)
	case 2, 3:
		var l uint32
		err = binary.Read(r, binary.LittleEndian, &l)
		hlen = int(l)
	default:
		return nil, nil, &chgbench.FormatError{Msg: fmt.Sprintf("unsupported NPY version %d", pre[len(npyMagic)])}
	}
	if err != nil {
		return nil, nil, &chgbench.FormatError{Msg: "short NPY header", Err: err}
	}
	hb := make([]byte, hlen)
	if _, err := io.ReadFull(r, hb); err != nil {
		return nil, nil, &chgbench.FormatError{Msg: "short NPY header", Err: err}
	}
	header := string(hb)
	descr := npyDescr.FindStringSubmatch(header)
	fortran := npyFortran.FindStringSubmatch(header)
	shp := npyShape.FindStringSubmatch(header)
	if descr == nil || fortran == nil || shp == nil {
		return nil, nil, &chgbench.FormatError{Msg: "bad NPY header " + header}
	}
	if fortran[1] == "True" {
		return nil, nil, &chgbench.FormatError{Msg: "Fortran-ordered NPY arrays are not supported"}
	}
	n := 1
	for _, s := range strings.Split(shp[1], ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		d, err := strconv.Atoi(s)
		if err != nil {
			return nil, nil, &chgbench.FormatError{Msg: "bad NPY shape " + shp[1]}
		}
		shape = append(shape, d)
		n *= d
	}
	var size int
	switch descr[1] {
	case "<f8", "f8", "float64":
		size = 8
	case "<f4", "f4", "float32":
		size = 4
	default:
		return nil, nil, &chgbench.FormatError{Msg: "unsupported NPY dtype " + descr[1]}
	}
	raw := make([]byte, n*size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, nil, &chgbench.FormatError{Msg: fmt.Sprintf("NPY array %v truncated", shape), Err: err}
	}
	if size == 8 {
		data, err = Float64s(raw)
		return shape, data, err
	}
	data = make([]float64, n)
	for i := range data {
		data[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:])))
	}
	return shape, data, nil
}
