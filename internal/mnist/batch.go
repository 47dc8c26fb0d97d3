// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package mnist

import (
	"math/rand"
)

// Batch is one mini-batch of flattened samples: Images is row-major
// [Size * InputSize], Labels is [Size].
type Batch struct {
	Images    []float32
	Labels    []int32
	Size      int
	InputSize int
}

// Batches partitions the dataset into mini-batches of batchSize. When rng
// is non-nil, sample order is shuffled (Fisher-Yates) before batching, and
// batch contents are copies; with nil rng, batches slice into the dataset
// in order. The final batch may be smaller.
func (d *Dataset) Batches(batchSize int, rng *rand.Rand) []Batch {
	if batchSize <= 0 || d.NumSamples == 0 {
		return nil
	}

	numBatches := (d.NumSamples + batchSize - 1) / batchSize
	batches := make([]Batch, 0, numBatches)

	if rng == nil {
		for start := 0; start < d.NumSamples; start += batchSize {
			end := start + batchSize
			if end > d.NumSamples {
				end = d.NumSamples
			}
			batches = append(batches, Batch{
				Images:    d.Images[start*d.InputSize : end*d.InputSize],
				Labels:    d.Labels[start:end],
				Size:      end - start,
				InputSize: d.InputSize,
			})
		}
		return batches
	}

	perm := rng.Perm(d.NumSamples)
	for start := 0; start < d.NumSamples; start += batchSize {
		end := start + batchSize
		if end > d.NumSamples {
			end = d.NumSamples
		}
		b := Batch{
			Images:    make([]float32, (end-start)*d.InputSize),
			Labels:    make([]int32, end-start),
			Size:      end - start,
			InputSize: d.InputSize,
		}
		for i, src := range perm[start:end] {
			copy(b.Images[i*d.InputSize:(i+1)*d.InputSize], d.Sample(src))
			b.Labels[i] = d.Labels[src]
		}
		batches = append(batches, b)
	}
	return batches
}
