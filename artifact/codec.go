/*
 * codec.go, part of chgbench.
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

// Package artifact has the byte-level encodings used for compressed
// artifacts and for the files exchanged with external compressors: stream
// compression chosen by file extension, a small binary grid format, raw
// little-endian float64 and NPY.
package artifact

import (
	"bytes"
	"compress/lzw"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Codec is a general-purpose stream compressor, named by the file
// extension it produces.
type Codec string

const (
	None  Codec = ""
	Gzip  Codec = ".gz"
	Zstd  Codec = ".zst"
	Flate Codec = ".flate"
	LZW   Codec = ".lzw"
)

const lzwLitwidth = 8

// ParseCodec returns the codec for an extension, with or without the dot.
// "none", "raw" and the empty string mean no compression.
func ParseCodec(s string) (Codec, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s != "" && s[0] != '.' {
		s = "." + s
	}
	switch s {
	case "", ".none", ".raw":
		return None, nil
	case ".gz", ".gzip":
		return Gzip, nil
	case ".zst", ".zstd":
		return Zstd, nil
	case ".flate", ".zz":
		return Flate, nil
	case ".lzw":
		return LZW, nil
	}
	return None, fmt.Errorf("unknown codec %q", s)
}

// CodecFor returns the codec matching the extension of name. Files with
// any other extension are taken as uncompressed.
func CodecFor(name string) Codec {
	c, err := ParseCodec(filepath.Ext(name))
	if err != nil {
		return None
	}
	return c
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// *zstd.Decoder has a Close method that returns nothing.
type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// NewWriter returns a writer that compresses to w with codec c. The
// optional level only applies to gzip and flate.
func NewWriter(w io.Writer, c Codec, compressionLevel ...int) (io.WriteCloser, error) {
	level := flate.BestCompression
	if len(compressionLevel) > 0 {
		level = compressionLevel[0]
	}
	switch c {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriterLevel(w, level)
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	case Flate:
		return flate.NewWriter(w, level)
	case LZW:
		return lzw.NewWriter(w, lzw.MSB, lzwLitwidth), nil
	}
	return nil, fmt.Errorf("unknown codec %q", string(c))
}

// NewReader returns a reader that decompresses r with codec c.
func NewReader(r io.Reader, c Codec) (io.ReadCloser, error) {
	switch c {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		return gzip.NewReader(r)
	case Zstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{d}, nil
	case Flate:
		return flate.NewReader(r), nil
	case LZW:
		return lzw.NewReader(r, lzw.MSB, lzwLitwidth), nil
	}
	return nil, fmt.Errorf("unknown codec %q", string(c))
}

// Compress compresses data with codec c.
func Compress(data []byte, c Codec) ([]byte, error) {
	if c == None {
		return data, nil
	}
	var b bytes.Buffer
	w, err := NewWriter(&b, c)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte, c Codec) ([]byte, error) {
	if c == None {
		return data, nil
	}
	r, err := NewReader(bytes.NewReader(data), c)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
