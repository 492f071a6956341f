/*
 * bench_test.go, part of chgbench.
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

package bench

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rmera/chgbench"
	"github.com/rmera/chgbench/artifact"
	"github.com/rmera/chgbench/backend"
	"github.com/rmera/chgbench/chgcar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mock is a lossless backend that can be slowed down or made to fail per
// dataset. The durations it reports depend only on the dataset, so that
// metrics don't change between runs. Compressing the datasets named in fail,
// by base name or as "<base name>:<field>", fails.
type mock struct {
	delay func(key string) time.Duration
	fail  map[string]bool
	calls atomic.Int32
}

func (M *mock) Name() string     { return "mock" }
func (M *mock) Ext() string      { return ".mock" }
func (M *mock) Params() []string { return []string{"1"} }

func (M *mock) Compress(ctx context.Context, key string, f chgbench.Field, g *chgbench.Grid) (*backend.Artifact, time.Duration, error) {
	M.calls.Add(1)
	if M.delay != nil {
		time.Sleep(M.delay(key))
	}
	if M.fail[filepath.Base(key)] || M.fail[filepath.Base(key)+":"+string(f)] {
		return nil, 0, &chgbench.BackendError{Backend: M.Name(), Key: key, Field: f, Op: "compress", Err: errors.New("mock failure")}
	}
	d := time.Duration(len(filepath.Base(key))+len(f)) * time.Millisecond
	return &backend.Artifact{Backend: M.Name(), Key: key, Field: f, Data: artifact.EncodeGrid(g)}, d, nil
}

func (M *mock) Decompress(ctx context.Context, a *backend.Artifact, dims chgbench.Dims) (*chgbench.Grid, time.Duration, error) {
	M.calls.Add(1)
	if M.delay != nil {
		time.Sleep(M.delay(a.Key))
	}
	g, err := artifact.DecodeGrid(a.Data)
	if err != nil {
		return nil, 0, err
	}
	return g, 2 * time.Millisecond, nil
}

const fixture = "../test/small_chgcar.vasp"

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

// inputs fills a temporary directory with n copies of the fixture, called
// ds<i>_chgcar.vasp, plus a file that is not a dataset.
func inputs(Te *testing.T, n int) (string, []string) {
	Te.Helper()
	dir := Te.TempDir()
	raw, err := os.ReadFile(fixture)
	require.NoError(Te, err)
	for i := 0; i < n; i++ {
		require.NoError(Te, os.WriteFile(filepath.Join(dir, fmt.Sprintf("ds%d_chgcar.vasp", i)), raw, 0o644))
	}
	require.NoError(Te, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a dataset"), 0o644))
	files, err := ListFiles(dir)
	require.NoError(Te, err)
	return dir, files
}

func TestDatasetKey(Te *testing.T) {
	cases := []struct{ in, want string }{
		{"d/mp-13_chgcar.vasp", "d/mp-13_chgcar"},
		{"d/mp-13_chgcar_sz3_compressed_charge.sz", "d/mp-13_chgcar"},
		{"d/mp-13_chgcar_smooth_compressed_mag.bin.gz", "d/mp-13_chgcar"},
		{"d/mp-13_chgcar_neurcomp_compressed_mag", "d/mp-13_chgcar"},
		{"d/mp-13_chgcar_structure.cif", "d/mp-13_chgcar"},
		{"d/mp-13_chgcar_data_aug.txt", "d/mp-13_chgcar"},
		{"d/mp-13_chgcar_dims.txt", "d/mp-13_chgcar"},
		{"d/mp-13_chgcar_tthresh.vasp", "d/mp-13_chgcar"},
		{"d/mp-13_chgcar_mock.vasp", "d/mp-13_chgcar"},
		{"mp-13.vasp", "mp-13"},
		{"d/_dims.txt", "d/_dims"},
	}
	for _, c := range cases {
		assert.Equal(Te, c.want, DatasetKey(c.in, "mock"), c.in)
	}
	assert.Equal(Te, "d/x_mock", DatasetKey("d/x_mock.vasp"))
}

func TestCheckDir(Te *testing.T) {
	var ce *chgbench.ConfigError
	assert.True(Te, errors.As(CheckDir(filepath.Join(Te.TempDir(), "nope")), &ce))
	assert.True(Te, errors.As(CheckDir(""), &ce))
	assert.True(Te, errors.As(CheckDir(fixture), &ce))
	assert.NoError(Te, CheckDir(Te.TempDir()))
}

func TestRemake(Te *testing.T) {
	dir, files := inputs(Te, 2)
	require.NoError(Te, os.WriteFile(filepath.Join(dir, "small_chgcar.vasp"), []byte(smallNoMag), 0o644))
	files, err := ListFiles(dir)
	require.NoError(Te, err)
	O := New(&mock{}, 2, nil)
	ctx := context.Background()

	originals, cm := O.CompressDirectory(ctx, files)
	assert.Len(Te, originals, 3)
	assert.Len(Te, cm, 3)
	small := filepath.Join(dir, "small_chgcar")
	for _, p := range O.RequiredFiles(small) {
		assert.FileExists(Te, p)
	}
	assert.NoFileExists(Te, O.ArtifactPath(small, chgbench.Mag))
	assert.FileExists(Te, O.ArtifactPath(filepath.Join(dir, "ds0_chgcar"), chgbench.Mag))

	files, err = ListFiles(dir)
	require.NoError(Te, err)
	reconstructed, dm := O.DecompressDirectory(ctx, files)
	assert.Len(Te, reconstructed, 3)
	all := GenerateMetrics(cm, dm, ComputeFidelity(originals, reconstructed))
	require.Len(Te, all, 3)

	full := all[filepath.Join(dir, "ds1_chgcar")]
	assert.Len(Te, full, 8)
	assert.Equal(Te, 0.0, full[MAEMetric(chgbench.Mag)])
	assert.InDelta(Te, 0.029, full[CompressDuration], 1e-12)
	assert.InDelta(Te, 0.004, full[DecompressDuration], 1e-12)

	rec := all[small]
	assert.Len(Te, rec, 6)
	assert.Equal(Te, 0.0, rec[MAEMetric(chgbench.Charge)])
	assert.Equal(Te, 0.0, rec[PercentageMetric(chgbench.Charge)])
	_, hasMag := rec[MAEMetric(chgbench.Mag)]
	assert.False(Te, hasMag)
	assert.InDelta(Te, float64(len(smallNoMag))/1024/1024, rec[OrigFileSize], 1e-15)
	assert.InDelta(Te, float64(16+8*8)/1024/1024, rec[CompressedDataSize], 1e-15)

	out, err := chgcar.ParseFile(O.OutputPath(small))
	require.NoError(Te, err)
	assert.Equal(Te, []float64{1, 2, 3, 4, 5, 6, 7, 8}, out.Charge.Data())
	assert.Nil(Te, out.Mag)

	//the reconstructed files are not inputs.
	files, err = ListFiles(dir)
	require.NoError(Te, err)
	again, _ := O.CompressDirectory(ctx, files)
	assert.Len(Te, again, 3)

	mf := filepath.Join(dir, "metrics.json")
	require.NoError(Te, WriteMetricsFile(mf, all, backend.Label(O.Backend())))
	back, err := ReadMetricsFile(mf)
	require.NoError(Te, err)
	if d := cmp.Diff(all, back["mock_1"]); d != "" {
		Te.Errorf("metrics file differs (-want +got):\n%s", d)
	}
}

func TestConcurrentRunsAgree(Te *testing.T) {
	const n = 8
	dir, files := inputs(Te, n)
	index := func(key string) time.Duration {
		var i int
		fmt.Sscanf(filepath.Base(key), "ds%d_chgcar", &i)
		return time.Duration(i)
	}
	up := &mock{delay: func(k string) time.Duration { return index(k) * 3 * time.Millisecond }}
	down := &mock{delay: func(k string) time.Duration { return (n - index(k)) * 3 * time.Millisecond }}
	ctx := context.Background()
	_, m1 := New(up, 4, nil).CompressDirectory(ctx, files)
	_, m2 := New(down, 3, nil).CompressDirectory(ctx, files)
	_, m3 := New(&mock{}, 1, nil).CompressDirectory(ctx, files)
	require.Len(Te, m1, n)
	if d := cmp.Diff(m1, m2); d != "" {
		Te.Errorf("metrics depend on completion order (-first +second):\n%s", d)
	}
	if d := cmp.Diff(m1, m3); d != "" {
		Te.Errorf("metrics depend on the number of workers (-first +second):\n%s", d)
	}
	assert.Equal(Te, int32(2*n), up.calls.Load())

	files, _ = ListFiles(dir)
	_, d1 := New(up, 4, nil).DecompressDirectory(ctx, files)
	_, d2 := New(down, 2, nil).DecompressDirectory(ctx, files)
	assert.Len(Te, d1, n)
	assert.Empty(Te, cmp.Diff(d1, d2))
}

func TestFailedDatasetsAreDropped(Te *testing.T) {
	dir, files := inputs(Te, 4)
	//a broken input file
	require.NoError(Te, os.WriteFile(filepath.Join(dir, "broken_chgcar.vasp"), []byte("no\nblank\nline\n"), 0o644))
	files, _ = ListFiles(dir)
	ctx := context.Background()
	O := New(&mock{fail: map[string]bool{"ds2_chgcar": true}}, 2, nil)
	originals, cm := O.CompressDirectory(ctx, files)
	assert.Len(Te, originals, 3)
	assert.NotContains(Te, cm, filepath.Join(dir, "ds2_chgcar"))
	assert.NotContains(Te, cm, filepath.Join(dir, "broken_chgcar"))
	for _, p := range O.RequiredFiles(filepath.Join(dir, "ds2_chgcar")) {
		assert.NoFileExists(Te, p)
	}

	//missing provenance
	require.NoError(Te, os.Remove(filepath.Join(dir, "ds1_chgcar_dims.txt")))
	files, _ = ListFiles(dir)
	reconstructed, dm := New(&mock{}, 2, nil).DecompressDirectory(ctx, files)
	assert.Len(Te, reconstructed, 2)
	assert.Contains(Te, dm, filepath.Join(dir, "ds0_chgcar"))
	assert.Contains(Te, dm, filepath.Join(dir, "ds3_chgcar"))
	assert.NoFileExists(Te, filepath.Join(dir, "ds1_chgcar_mock.vasp"))
	assert.Len(Te, GenerateMetrics(cm, dm, ComputeFidelity(originals, reconstructed)), 2)
}

func TestMissingMagArtifact(Te *testing.T) {
	dir, files := inputs(Te, 2)
	ctx := context.Background()
	O := New(&mock{}, 2, nil)
	originals, cm := O.CompressDirectory(ctx, files)
	require.Len(Te, originals, 2)
	ds0 := filepath.Join(dir, "ds0_chgcar")
	require.NoError(Te, os.Remove(O.ArtifactPath(ds0, chgbench.Mag)))

	files, _ = ListFiles(dir)
	reconstructed, dm := O.DecompressDirectory(ctx, files)
	assert.NotContains(Te, reconstructed, ds0)
	assert.NotContains(Te, dm, ds0)
	assert.NoFileExists(Te, O.OutputPath(ds0))
	all := GenerateMetrics(cm, dm, ComputeFidelity(originals, reconstructed))
	assert.NotContains(Te, all, ds0)
	require.Contains(Te, all, filepath.Join(dir, "ds1_chgcar"))
	assert.Len(Te, all[filepath.Join(dir, "ds1_chgcar")], 8)
}

func TestFailedMagWritesNothing(Te *testing.T) {
	dir, files := inputs(Te, 1)
	ctx := context.Background()
	ds0 := filepath.Join(dir, "ds0_chgcar")
	failing := New(&mock{fail: map[string]bool{"ds0_chgcar:mag": true}}, 1, nil)
	originals, _ := failing.CompressDirectory(ctx, files)
	assert.Empty(Te, originals)
	assert.NoFileExists(Te, failing.ArtifactPath(ds0, chgbench.Charge))
	for _, p := range failing.RequiredFiles(ds0) {
		assert.NoFileExists(Te, p)
	}

	//the files of an earlier run are left as they were.
	O := New(&mock{}, 1, nil)
	originals, _ = O.CompressDirectory(ctx, files)
	require.Len(Te, originals, 1)
	charge := O.ArtifactPath(ds0, chgbench.Charge)
	before, err := os.ReadFile(charge)
	require.NoError(Te, err)
	require.NoError(Te, os.WriteFile(charge, []byte("earlier run"), 0o644))
	originals, _ = failing.CompressDirectory(ctx, files)
	assert.Empty(Te, originals)
	after, err := os.ReadFile(charge)
	require.NoError(Te, err)
	assert.Equal(Te, "earlier run", string(after))
	assert.NotEqual(Te, before, after)
}

func TestInMemory(Te *testing.T) {
	dir, files := inputs(Te, 2)
	ctx := context.Background()
	O := New(&mock{}, 0, nil)
	compressed, cm := O.CompressInMemory(ctx, files)
	require.Len(Te, compressed, 2)
	after, _ := ListFiles(dir)
	assert.Equal(Te, files, after)
	key := filepath.Join(dir, "ds0_chgcar")
	assert.Len(Te, compressed[key].Artifacts, 2)

	reconstructed, dm := O.DecompressInMemory(ctx, compressed)
	originals := map[string]*Dataset{}
	for k, c := range compressed {
		originals[k] = c.Dataset
	}
	all := GenerateMetrics(cm, dm, ComputeFidelity(originals, reconstructed))
	assert.Len(Te, all, 2)
	//lossless backend + template: the output is the input.
	in, _ := os.ReadFile(fixture)
	out, err := os.ReadFile(O.OutputPath(key))
	require.NoError(Te, err)
	assert.Equal(Te, string(in), string(out))
}

func grid(v ...float64) *chgbench.Grid {
	g, _ := chgbench.NewGrid(chgbench.Dims{len(v), 1, 1}, v)
	return g
}

func TestComputeFidelity(Te *testing.T) {
	originals := map[string]*Dataset{
		"a":    {Charge: grid(1, -2, 3, 0), Mag: grid(0, 0, 0, 0)},
		"b":    {Charge: grid(1, 1)},
		"only": {Charge: grid(1)},
	}
	reconstructed := map[string]*Dataset{
		"a":     {Charge: grid(0, 0, 0, 0), Mag: grid(0, 1, 0, 0)},
		"b":     {Charge: grid(1, 1)},
		"other": {Charge: grid(1)},
	}
	m := ComputeFidelity(originals, reconstructed)
	assert.Len(Te, m, 2)
	assert.InDelta(Te, 1.5, m["a"][MAEMetric(chgbench.Charge)], 1e-15)
	assert.InDelta(Te, 100.0, m["a"][PercentageMetric(chgbench.Charge)], 1e-12)
	assert.InDelta(Te, 0.25, m["a"][MAEMetric(chgbench.Mag)], 1e-15)
	_, ok := m["a"][PercentageMetric(chgbench.Mag)]
	assert.False(Te, ok)
	assert.Equal(Te, Record{MAEMetric(chgbench.Charge): 0, PercentageMetric(chgbench.Charge): 0}, m["b"])
}

func TestGenerateMetrics(Te *testing.T) {
	c := Metrics{"a": {CompressDuration: 1}, "b": {CompressDuration: 2}}
	d := Metrics{"a": {DecompressDuration: 3}, "c": {DecompressDuration: 4}}
	want := Metrics{"a": {CompressDuration: 1, DecompressDuration: 3}}
	assert.Empty(Te, cmp.Diff(want, GenerateMetrics(c, d)))
	assert.Empty(Te, GenerateMetrics())
}

func TestWriteMetricsFile(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "metrics.json")
	require.NoError(Te, os.WriteFile(name, []byte("{not json"), 0o644))
	require.NoError(Te, WriteMetricsFile(name, Metrics{"k": {"b": 2, "a": 1}}, "sz3_0.01"))
	require.NoError(Te, WriteMetricsFile(name, Metrics{"k": {"a": 3}}, "smooth_2_0.5"))
	raw, err := os.ReadFile(name)
	require.NoError(Te, err)
	s := string(raw)
	assert.True(Te, strings.Index(s, `"smooth_2_0.5"`) < strings.Index(s, `"sz3_0.01"`))
	assert.Contains(Te, s, "\n    \"smooth_2_0.5\": {\n        \"k\": {\n            \"a\": 3\n")
	back, err := ReadMetricsFile(name)
	require.NoError(Te, err)
	assert.Equal(Te, 2.0, back["sz3_0.01"]["k"]["b"])
}

func TestWriteReport(Te *testing.T) {
	m := Metrics{"k": {CompressDuration: 0.5}}
	var b bytes.Buffer
	require.NoError(Te, WriteReport(&b, m, "json"))
	assert.Equal(Te, "{\n    \"k\": {\n        \"compress_duration\": 0.5\n    }\n}\n", b.String())
	b.Reset()
	require.NoError(Te, WriteReport(&b, m, "yaml"))
	assert.Equal(Te, "k:\n    compress_duration: 0.5\n", b.String())
	var ce *chgbench.ConfigError
	assert.True(Te, errors.As(WriteReport(&b, m, "xml"), &ce))
}

func TestSmoothBackend(Te *testing.T) {
	_, files := inputs(Te, 1)
	b, err := backend.NewSmooth(backend.SmoothConfig{Divisor: 1, Codec: artifact.Zstd})
	require.NoError(Te, err)
	O := New(b, 1, nil)
	ctx := context.Background()
	originals, cm := O.CompressDirectory(ctx, files)
	files, _ = ListFiles(filepath.Dir(files[0]))
	reconstructed, dm := O.DecompressDirectory(ctx, files)
	all := GenerateMetrics(cm, dm, ComputeFidelity(originals, reconstructed))
	require.Len(Te, all, 1)
	for _, r := range all {
		assert.Less(Te, r[MAEMetric(chgbench.Charge)], 1e-12)
		assert.False(Te, math.IsNaN(r[PercentageMetric(chgbench.Mag)]))
	}
}
