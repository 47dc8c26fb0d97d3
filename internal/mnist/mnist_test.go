// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package mnist

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeIDXImages writes a minimal IDX image file: count 2x2 images with
// pixel value i for image i.
func writeIDXImages(t *testing.T, path string, count int, compress bool) {
	t.Helper()

	var buf bytes.Buffer
	for _, field := range []uint32{imagesMagic, uint32(count), 2, 2} {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, field))
	}
	for i := 0; i < count; i++ {
		buf.Write([]byte{byte(i), byte(i), byte(i), byte(i)})
	}
	writeMaybeGzipped(t, path, buf.Bytes(), compress)
}

func writeIDXLabels(t *testing.T, path string, labels []byte, compress bool) {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, labelsMagic))
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(len(labels))))
	buf.Write(labels)
	writeMaybeGzipped(t, path, buf.Bytes(), compress)
}

func writeMaybeGzipped(t *testing.T, path string, data []byte, compress bool) {
	t.Helper()

	if !compress {
		require.NoError(t, os.WriteFile(path, data, 0o644))
		return
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write(data)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
}

func TestReadImages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images-idx3-ubyte")
	writeIDXImages(t, path, 3, false)

	pixels, count, rows, cols, err := ReadImages(path)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2}, pixels)
}

func TestReadImagesGzipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images-idx3-ubyte.gz")
	writeIDXImages(t, path, 2, true)

	pixels, count, _, _, err := ReadImages(path)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, pixels, 8)
}

func TestReadImagesRejectsLabelFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels-idx1-ubyte")
	writeIDXLabels(t, path, []byte{1, 2, 3}, false)

	_, _, _, _, err := ReadImages(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad IDX magic")
}

func TestReadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels-idx1-ubyte")
	writeIDXLabels(t, path, []byte{7, 2, 1, 0}, false)

	labels, err := ReadLabels(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 2, 1, 0}, labels)
}

func TestLoadNormalizesPixels(t *testing.T) {
	dir := t.TempDir()
	writeIDXImages(t, filepath.Join(dir, TestImagesFile), 4, false)
	writeIDXLabels(t, filepath.Join(dir, TestLabelsFile), []byte{0, 1, 2, 3}, false)

	ds, err := Load(dir, false)
	require.NoError(t, err)
	assert.Equal(t, 4, ds.NumSamples)
	assert.Equal(t, 4, ds.InputSize)
	assert.Equal(t, 10, ds.NumClasses)
	assert.Equal(t, []int32{0, 1, 2, 3}, ds.Labels)
	// Image 2 has all pixels = 2.
	assert.InDelta(t, 2.0/255.0, float64(ds.Sample(2)[0]), 1e-7)
}

func TestLoadFallsBackToGzip(t *testing.T) {
	dir := t.TempDir()
	writeIDXImages(t, filepath.Join(dir, TrainImagesFile+".gz"), 2, true)
	writeIDXLabels(t, filepath.Join(dir, TrainLabelsFile+".gz"), []byte{5, 6}, true)

	ds, err := Load(dir, true)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.NumSamples)
	assert.Equal(t, []int32{5, 6}, ds.Labels)
}

func TestLoadRejectsCountMismatch(t *testing.T) {
	dir := t.TempDir()
	writeIDXImages(t, filepath.Join(dir, TestImagesFile), 3, false)
	writeIDXLabels(t, filepath.Join(dir, TestLabelsFile), []byte{1, 2}, false)

	_, err := Load(dir, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 images but 2 labels")
}

func TestSyntheticIsDeterministic(t *testing.T) {
	a := Synthetic(64, 16, 10, 42)
	b := Synthetic(64, 16, 10, 42)
	assert.Equal(t, a.Images, b.Images)
	assert.Equal(t, a.Labels, b.Labels)

	c := Synthetic(64, 16, 10, 7)
	assert.NotEqual(t, a.Images, c.Images)
}

func TestSyntheticBounds(t *testing.T) {
	ds := Synthetic(128, 8, 4, 1)
	assert.Equal(t, 128, ds.NumSamples)
	for _, v := range ds.Images {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
	for _, l := range ds.Labels {
		assert.GreaterOrEqual(t, l, int32(0))
		assert.Less(t, l, int32(4))
	}
}

func TestSplit(t *testing.T) {
	ds := Synthetic(100, 4, 2, 3)
	train, val := ds.Split(0.8)
	assert.Equal(t, 80, train.NumSamples)
	assert.Equal(t, 20, val.NumSamples)
	assert.Len(t, train.Images, 80*4)
	assert.Len(t, val.Images, 20*4)
}

func TestBatchesInOrder(t *testing.T) {
	ds := Synthetic(10, 4, 2, 3)
	batches := ds.Batches(4, nil)

	require.Len(t, batches, 3)
	assert.Equal(t, 4, batches[0].Size)
	assert.Equal(t, 4, batches[1].Size)
	assert.Equal(t, 2, batches[2].Size)
	// Un-shuffled batches slice into the dataset in order.
	assert.Equal(t, ds.Labels[:4], batches[0].Labels)
	assert.Equal(t, ds.Labels[8:], batches[2].Labels)
}

func TestBatchesShuffled(t *testing.T) {
	ds := Synthetic(100, 4, 10, 3)
	batches := ds.Batches(10, rand.New(rand.NewSource(1)))

	require.Len(t, batches, 10)
	seen := make(map[int32]int)
	for _, b := range batches {
		assert.Equal(t, 10, b.Size)
		for _, l := range b.Labels {
			seen[l]++
		}
	}
	// Every sample appears exactly once across batches.
	want := make(map[int32]int)
	for _, l := range ds.Labels {
		want[l]++
	}
	assert.Equal(t, want, seen)
}

func TestBatchesEdgeCases(t *testing.T) {
	ds := Synthetic(5, 4, 2, 3)
	assert.Nil(t, ds.Batches(0, nil))

	empty := &Dataset{InputSize: 4, NumClasses: 2}
	assert.Nil(t, empty.Batches(8, nil))
}
