/*
 * artifact_test.go, part of chgbench.
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
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/rmera/chgbench"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGrid() *chgbench.Grid {
	d := chgbench.Dims{3, 4, 5}
	data := make([]float64, d.Volume())
	for i := range data {
		data[i] = math.Sin(float64(i)) * 1e-3
	}
	g, _ := chgbench.NewGrid(d, data)
	return g
}

func TestCodecs(Te *testing.T) {
	payload := bytes.Repeat([]byte("charge density "), 500)
	for _, c := range []Codec{None, Gzip, Zstd, Flate, LZW} {
		z, err := Compress(payload, c)
		require.NoError(Te, err, string(c))
		if c != None {
			assert.Less(Te, len(z), len(payload), string(c))
		}
		back, err := Decompress(z, c)
		require.NoError(Te, err, string(c))
		assert.Equal(Te, payload, back, string(c))
	}
	_, err := NewWriter(&bytes.Buffer{}, Codec(".rar"))
	assert.Error(Te, err)
}

func TestCodecNames(Te *testing.T) {
	assert.Equal(Te, Gzip, CodecFor("a_smooth_compressed_charge.bin.gz"))
	assert.Equal(Te, Zstd, CodecFor("x.ZST"))
	assert.Equal(Te, None, CodecFor("x.npy"))
	c, err := ParseCodec("zstd")
	require.NoError(Te, err)
	assert.Equal(Te, Zstd, c)
	c, err = ParseCodec("none")
	require.NoError(Te, err)
	assert.Equal(Te, None, c)
	_, err = ParseCodec("bzip2")
	assert.Error(Te, err)
}

func TestGridEncoding(Te *testing.T) {
	g := testGrid()
	b := EncodeGrid(g)
	assert.Len(Te, b, gridHeaderLen+8*g.Len())
	back, err := DecodeGrid(b)
	require.NoError(Te, err)
	assert.Equal(Te, g.Dims(), back.Dims())
	assert.Equal(Te, g.Data(), back.Data())

	_, err = DecodeGrid(b[:len(b)-8])
	var fe *chgbench.FormatError
	assert.True(Te, errors.As(err, &fe))
	_, err = DecodeGrid([]byte("nope"))
	assert.True(Te, errors.As(err, &fe))
	_, err = Float64s(make([]byte, 7))
	assert.Error(Te, err)
}

func TestNPY(Te *testing.T) {
	g := testGrid()
	d := g.Dims()
	shape := []int{d[2], d[1], d[0]}
	var b bytes.Buffer
	require.NoError(Te, WriteNPY(&b, shape, g.Data()))
	assert.Equal(Te, 0, (b.Len()-8*g.Len())%64)
	assert.True(Te, strings.HasPrefix(b.String(), "\x93NUMPY\x01\x00"))
	sh, data, err := ReadNPY(&b)
	require.NoError(Te, err)
	assert.Equal(Te, shape, sh)
	assert.Equal(Te, g.Data(), data)

	assert.Error(Te, WriteNPY(&bytes.Buffer{}, []int{2, 2}, []float64{1}))
	_, _, err = ReadNPY(strings.NewReader("PK\x03\x04 not numpy"))
	assert.Error(Te, err)
}

func TestNPYFloat32(Te *testing.T) {
	header := "{'descr': '<f4', 'fortran_order': False, 'shape': (3,), }"
	header += strings.Repeat(" ", 64-(10+len(header)+1)%64) + "\n"
	var b bytes.Buffer
	b.WriteString("\x93NUMPY\x01\x00")
	binary.Write(&b, binary.LittleEndian, uint16(len(header)))
	b.WriteString(header)
	for _, v := range []float32{1.5, -2, 0.25} {
		binary.Write(&b, binary.LittleEndian, math.Float32bits(v))
	}
	raw := b.String()
	sh, data, err := ReadNPY(strings.NewReader(raw))
	require.NoError(Te, err)
	assert.Equal(Te, []int{3}, sh)
	assert.Equal(Te, []float64{1.5, -2, 0.25}, data)

	fortran := strings.Replace(raw, "False", "True ", 1)
	_, _, err = ReadNPY(strings.NewReader(fortran))
	assert.Error(Te, err)
}
