/*
 * chgcar_test.go, part of chgbench.
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
	"bytes"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmera/chgbench"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "../test/small_chgcar.vasp"

// a 2x2x2 grid with the values 1 to 8 and no magnetization.
const smallNoMag = `Si2
   1.00000000000000
     5.468728    0.000000    0.000000
     0.000000    5.468728    0.000000
     0.000000    0.000000    5.468728
   Si
     2
Direct
  0.000000  0.000000  0.000000
  0.250000  0.250000  0.250000

    2    2    2
 0.10000000000E+01 0.20000000000E+01 0.30000000000E+01 0.40000000000E+01 0.50000000000E+01
 0.60000000000E+01 0.70000000000E+01 0.80000000000E+01
augmentation occupancies   1  1
  0.1000000E+00
`

func TestFormatValue(Te *testing.T) {
	cases := map[float64]string{
		0:        "0.00000000000E+00",
		1:        "0.10000000000E+01",
		-1:       "-.10000000000E+01",
		0.01:     "0.10000000000E-01",
		12:       "0.12000000000E+02",
		-0.00042: "-.42000000000E-03",
		1e23:     "0.10000000000E+24",
		1e-100:   "0.10000000000E-99",
	}
	for v, want := range cases {
		assert.Equal(Te, want, FormatValue(v), "value %g", v)
	}
	assert.Equal(Te, "NaN", FormatValue(math.NaN()))
	assert.Equal(Te, "-Inf", FormatValue(math.Inf(-1)))
}

func TestWriteData(Te *testing.T) {
	var b bytes.Buffer
	require.NoError(Te, WriteData(&b, []float64{1, 2, 3, 4, 5, 6, 0}))
	want := " 0.10000000000E+01 0.20000000000E+01 0.30000000000E+01 0.40000000000E+01 0.50000000000E+01\n" +
		" 0.60000000000E+01 0.00000000000E+00\n"
	assert.Equal(Te, want, b.String())
}

func TestWriteDataNonFinite(Te *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		var b bytes.Buffer
		err := WriteData(&b, []float64{1, 2, 3, 4, 5, 6, bad, 8})
		var fe *chgbench.FormatError
		require.True(Te, errors.As(err, &fe), "value %v: got %v", bad, err)
		assert.Contains(Te, fe.Msg, "grid value 6")
		assert.NotContains(Te, b.String(), "0.60000000000E+01")
	}
	g, err := chgbench.NewGrid(chgbench.Dims{2, 2, 2}, []float64{1, 2, 3, math.NaN(), 5, 6, 7, 8})
	require.NoError(Te, err)
	v, err := Parse(strings.NewReader(smallNoMag))
	require.NoError(Te, err)
	var out bytes.Buffer
	assert.Error(Te, Serialize(&out, v.Template, g, nil))
}

func TestParseFixture(Te *testing.T) {
	v, err := ParseFile(fixture)
	require.NoError(Te, err)
	assert.Equal(Te, chgbench.Dims{2, 2, 3}, v.Dims)
	require.NotNil(Te, v.Charge)
	require.NotNil(Te, v.Mag)
	assert.Equal(Te, 1.0, v.Charge.At(0, 0, 0))
	assert.Equal(Te, 2.0, v.Charge.At(1, 0, 0))
	assert.Equal(Te, -12.0, v.Charge.At(1, 1, 2))
	assert.InDelta(Te, -0.02, v.Mag.At(1, 0, 0), 1e-15)
	assert.Len(Te, v.Aug.Total, 5)
	assert.Len(Te, v.Aug.Diff, 4)
	assert.True(Te, v.Aug.HasMag)
	assert.Equal(Te, "augmentation occupancies   1  4", v.Aug.Total[0])
	assert.Len(Te, v.Template.Header(), 10)
	assert.Len(Te, v.Template.Lines(), 10+2+5+1+4)
	assert.Same(Te, v.Mag, v.Grid(chgbench.Mag))
}

func TestSerializeIsByteIdentical(Te *testing.T) {
	orig, err := os.ReadFile(fixture)
	require.NoError(Te, err)
	v, err := Parse(bytes.NewReader(orig))
	require.NoError(Te, err)
	var b bytes.Buffer
	require.NoError(Te, Serialize(&b, v.Template, v.Charge, v.Mag))
	assert.Equal(Te, string(orig), b.String())
}

func TestRoundTripPrecision(Te *testing.T) {
	v, err := Parse(strings.NewReader(smallNoMag))
	require.NoError(Te, err)
	r := rand.New(rand.NewSource(3))
	dims := chgbench.Dims{2, 2, 2}
	data := make([]float64, dims.Volume())
	for i := range data {
		data[i] = (r.Float64() - 0.5) * math.Pow10(r.Intn(20)-10)
	}
	data[3] = 0
	g, _ := chgbench.NewGrid(dims, data)
	var b bytes.Buffer
	require.NoError(Te, Serialize(&b, v.Template, g, nil))
	back, err := Parse(&b)
	require.NoError(Te, err)
	for i, want := range data {
		got := back.Charge.Data()[i]
		if want == 0 {
			assert.Equal(Te, 0.0, got)
			continue
		}
		assert.Less(Te, math.Abs((got-want)/want), 1e-10, "element %d: %g vs %g", i, got, want)
	}
	assert.Nil(Te, back.Mag)
}

// End to end on a small file: parse, write it back with the template and
// compare with the input.
func TestSmallNoMagnetization(Te *testing.T) {
	v, err := Parse(strings.NewReader(smallNoMag))
	require.NoError(Te, err)
	assert.Equal(Te, []float64{1, 2, 3, 4, 5, 6, 7, 8}, v.Charge.Data())
	assert.Nil(Te, v.Mag)
	assert.Equal(Te, []string{"augmentation occupancies   1  1", "  0.1000000E+00"}, v.Aug.Total)
	assert.Empty(Te, v.Aug.Diff)
	assert.False(Te, v.Aug.Magnetized())
	dir := Te.TempDir()
	out := filepath.Join(dir, "small.vasp")
	require.NoError(Te, SerializeFile(out, v.Template, v.Charge, nil))
	written, err := os.ReadFile(out)
	require.NoError(Te, err)
	assert.Equal(Te, smallNoMag, string(written))
	fmt.Println("Small CHGCAR written to", out)

	//a magnetization grid the template has no room for.
	err = Serialize(&bytes.Buffer{}, v.Template, v.Charge, v.Charge)
	assert.Error(Te, err)
}

func TestParseErrors(Te *testing.T) {
	lines := strings.Split(smallNoMag, "\n")
	cases := map[string]string{
		"no blank line":     strings.Join(append(append([]string{}, lines[:10]...), lines[11:]...), "\n"),
		"too few values":    strings.Replace(smallNoMag, " 0.60000000000E+01 0.70000000000E+01 0.80000000000E+01", " 0.60000000000E+01 0.70000000000E+01", 1),
		"too many values":   strings.Replace(smallNoMag, "0.80000000000E+01", "0.80000000000E+01 0.9E+01", 1),
		"non-numeric value": strings.Replace(smallNoMag, "0.30000000000E+01", "0.3000000000xE+01", 1),
		"bad dims":          strings.Replace(smallNoMag, "    2    2    2", "    2    2", 1),
		"zero dims":         strings.Replace(smallNoMag, "    2    2    2", "    2    0    2", 1),
		"truncated":         strings.Join(lines[:13], "\n"),
		"huge dims":         strings.Replace(smallNoMag, "    2    2    2", " 1000 1000 2000", 1),
		"overflowing dims":  strings.Replace(smallNoMag, "    2    2    2", " 3000000000 3000000000 3000000000", 1),
		"large grid, short": strings.Replace(smallNoMag, "    2    2    2", "  500  500  500", 1),
	}
	for name, text := range cases {
		_, err := Parse(strings.NewReader(text))
		var fe *chgbench.FormatError
		if assert.True(Te, errors.As(err, &fe), "%s: got %v", name, err) {
			assert.Greater(Te, fe.Line, 0, name)
		}
	}
	//missing file
	_, err := ParseFile(filepath.Join(Te.TempDir(), "missing.vasp"))
	assert.Error(Te, err)
}

func TestParseFileSetsName(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "bad.vasp")
	require.NoError(Te, os.WriteFile(name, []byte("only\na\nheader\n"), 0o644))
	_, err := ParseFile(name)
	var fe *chgbench.FormatError
	require.True(Te, errors.As(err, &fe))
	assert.Equal(Te, name, fe.File)
	assert.Equal(Te, []string{"ParseFile"}, chgbench.Trail(err))
}

func TestAnyValuesPerLine(Te *testing.T) {
	text := strings.Replace(smallNoMag,
		" 0.10000000000E+01 0.20000000000E+01 0.30000000000E+01 0.40000000000E+01 0.50000000000E+01\n 0.60000000000E+01",
		"1 2 3\n4\n5 6", 1)
	v, err := Parse(strings.NewReader(text))
	require.NoError(Te, err)
	assert.Equal(Te, []float64{1, 2, 3, 4, 5, 6, 7, 8}, v.Charge.Data())
}
