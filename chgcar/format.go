/*
 * format.go, part of chgbench.
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
	"math"
	"strconv"

	"github.com/rmera/chgbench"
)

// ValuesPerLine is the number of grid values written on each data line.
const ValuesPerLine = 5

const mantissaDigits = 11

// FormatValue renders v the way VASP writes grid values: a mantissa in
// [0.1, 1) with 11 decimals and a signed, at least two-digit exponent, i.e.
// 0.12345678901E+03. For negative values the leading zero is replaced
// by the sign, so every value takes the same width. Zero is 0.00000000000E+00.
// NaN and infinities have no such form and come out as NaN, +Inf or -Inf.
func FormatValue(v float64) string {
	if !finite(v) {
		return strconv.FormatFloat(v, 'E', -1, 64)
	}
	return string(appendValue(make([]byte, 0, 24), v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// appendValue formats the finite value v.
func appendValue(b []byte, v float64) []byte {
	if v == 0 {
		b = append(b, "0.00000000000E+00"...)
		return b
	}
	neg := v < 0
	a := math.Abs(v)
	exp := int(math.Floor(math.Log10(a))) + 1
	ms := mantissa(a, exp)
	//Log10 can be off near powers of 10, and rounding to 11 decimals
	//can carry the mantissa up to 1.
	switch {
	case ms[0] != '0':
		exp++
		ms = mantissa(a, exp)
	case ms[2] == '0':
		exp--
		ms = mantissa(a, exp)
	}
	if neg {
		b = append(b, '-')
		b = append(b, ms[1:]...) //".xxxxxxxxxxx"
	} else {
		b = append(b, ms...)
	}
	b = append(b, 'E')
	if exp < 0 {
		b = append(b, '-')
		exp = -exp
	} else {
		b = append(b, '+')
	}
	if exp < 10 {
		b = append(b, '0')
	}
	b = strconv.AppendInt(b, int64(exp), 10)
	return b
}

func mantissa(a float64, exp int) string {
	return strconv.FormatFloat(a/math.Pow10(exp), 'f', mantissaDigits, 64)
}

// WriteData writes data to w, ValuesPerLine values per line (the last line
// may hold fewer), each line starting with one space and values separated by
// one space. A NaN or infinite value is a *chgbench.FormatError, and
// nothing after the last complete line before it is written.
func WriteData(w io.Writer, data []float64) error {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	line := make([]byte, 0, ValuesPerLine*19+2)
	for i := 0; i < len(data); i += ValuesPerLine {
		line = line[:0]
		end := i + ValuesPerLine
		if end > len(data) {
			end = len(data)
		}
		for j, v := range data[i:end] {
			if !finite(v) {
				bw.Flush()
				return &chgbench.FormatError{Msg: fmt.Sprintf("grid value %d is %v", i+j, v)}
			}
			line = append(line, ' ')
			line = appendValue(line, v)
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// parseValue reads one grid value. It accepts anything strconv does,
// including the "-.5E+01" form produced by FormatValue.
func parseValue(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
