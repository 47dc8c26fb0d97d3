// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math"
	"math/rand"

	"github.com/fern-ml/fern/internal/tensor"
)

// XavierUniform initializes a weight tensor with values drawn from
// U(-limit, limit) where limit = sqrt(6 / (fan_in + fan_out)).
//
// Keeps activation variance roughly constant across layers at the start of
// training. Float types only.
func XavierUniform[T tensor.DType, B tensor.Backend](t *tensor.Tensor[T, B], fanIn, fanOut int) {
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	fillUniform(t, -limit, limit)
}

// KaimingUniform initializes a weight tensor for layers followed by ReLU,
// drawing from U(-limit, limit) with limit = sqrt(6 / fan_in).
func KaimingUniform[T tensor.DType, B tensor.Backend](t *tensor.Tensor[T, B], fanIn int) {
	limit := math.Sqrt(6.0 / float64(fanIn))
	fillUniform(t, -limit, limit)
}

func fillUniform[T tensor.DType, B tensor.Backend](t *tensor.Tensor[T, B], lo, hi float64) {
	switch data := any(t.Data()).(type) {
	case []float32:
		for i := range data {
			data[i] = float32(lo + rand.Float64()*(hi-lo))
		}
	case []float64:
		for i := range data {
			data[i] = lo + rand.Float64()*(hi-lo)
		}
	default:
		panic("weight init only supports float32 and float64 tensors")
	}
}
