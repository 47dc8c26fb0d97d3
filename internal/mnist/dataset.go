// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package mnist

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
)

// Standard MNIST file names as distributed.
const (
	TrainImagesFile = "train-images-idx3-ubyte"
	TrainLabelsFile = "train-labels-idx1-ubyte"
	TestImagesFile  = "t10k-images-idx3-ubyte"
	TestLabelsFile  = "t10k-labels-idx1-ubyte"
)

// Dataset holds flattened, normalized samples ready for training:
// pixel values scaled to [0, 1], one row of InputSize features per sample.
type Dataset struct {
	Images     []float32
	Labels     []int32
	NumSamples int
	InputSize  int
	NumClasses int
}

// Load reads the train or test split from dir. Files may be plain or
// gzip-compressed (with a .gz suffix).
func Load(dir string, train bool) (*Dataset, error) {
	imagesFile, labelsFile := TestImagesFile, TestLabelsFile
	if train {
		imagesFile, labelsFile = TrainImagesFile, TrainLabelsFile
	}

	pixels, count, rows, cols, err := ReadImages(findFile(dir, imagesFile))
	if err != nil {
		return nil, fmt.Errorf("load images: %w", err)
	}
	labels, err := ReadLabels(findFile(dir, labelsFile))
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}
	if len(labels) != count {
		return nil, fmt.Errorf("%d images but %d labels", count, len(labels))
	}

	inputSize := rows * cols
	ds := &Dataset{
		Images:     make([]float32, count*inputSize),
		Labels:     make([]int32, count),
		NumSamples: count,
		InputSize:  inputSize,
		NumClasses: 10,
	}
	for i, p := range pixels {
		ds.Images[i] = float32(p) / 255.0
	}
	for i, l := range labels {
		ds.Labels[i] = int32(l)
	}
	return ds, nil
}

// findFile returns dir/name, or dir/name.gz when only the compressed file
// exists.
func findFile(dir, name string) string {
	plain := filepath.Join(dir, name)
	if _, err := os.Stat(plain); err == nil {
		return plain
	}
	return plain + ".gz"
}

// Synthetic generates a deterministic stand-in dataset: one Gaussian
// cluster per class in input space, so a classifier can reach high
// accuracy quickly. Useful for tests and for exercising the training loop
// without the real files.
func Synthetic(numSamples, inputSize, numClasses int, seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed))

	// One random unit-ish center per class.
	centers := make([][]float32, numClasses)
	for c := range centers {
		centers[c] = make([]float32, inputSize)
		for j := range centers[c] {
			centers[c][j] = float32(rng.Float64())
		}
	}

	ds := &Dataset{
		Images:     make([]float32, numSamples*inputSize),
		Labels:     make([]int32, numSamples),
		NumSamples: numSamples,
		InputSize:  inputSize,
		NumClasses: numClasses,
	}
	for i := 0; i < numSamples; i++ {
		class := rng.Intn(numClasses)
		ds.Labels[i] = int32(class)
		row := ds.Images[i*inputSize : (i+1)*inputSize]
		for j := range row {
			v := float64(centers[class][j]) + rng.NormFloat64()*0.1
			row[j] = float32(math.Max(0, math.Min(1, v)))
		}
	}
	return ds
}

// Split partitions the dataset into two: the first fraction of samples and
// the remainder. Shuffle first if ordering matters.
func (d *Dataset) Split(fraction float64) (*Dataset, *Dataset) {
	n := int(float64(d.NumSamples) * fraction)
	first := &Dataset{
		Images:     d.Images[:n*d.InputSize],
		Labels:     d.Labels[:n],
		NumSamples: n,
		InputSize:  d.InputSize,
		NumClasses: d.NumClasses,
	}
	second := &Dataset{
		Images:     d.Images[n*d.InputSize:],
		Labels:     d.Labels[n:],
		NumSamples: d.NumSamples - n,
		InputSize:  d.InputSize,
		NumClasses: d.NumClasses,
	}
	return first, second
}

// Sample returns the features of one sample as a slice into the dataset.
func (d *Dataset) Sample(i int) []float32 {
	return d.Images[i*d.InputSize : (i+1)*d.InputSize]
}
