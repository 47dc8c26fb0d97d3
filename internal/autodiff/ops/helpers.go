// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops

import (
	"fmt"

	"github.com/fern-ml/fern/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor to match the target shape,
// undoing any broadcasting from the forward pass.
//
// Example:
//
//	forward:  a[1, 4] + b[3, 4] -> c[3, 4]   (a broadcast along dim 0)
//	backward: grad_c[3, 4] -> grad_a[1, 4]   (sum along dim 0)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()

	// Clone when shapes already match so accumulation never mutates a
	// gradient shared with another operation.
	if gradShape.Equal(targetShape) {
		return grad.Clone()
	}

	// Broadcasting aligns shapes from the right: sum away leading
	// dimensions the target does not have.
	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = backend.SumDim(result, 0, false)
	}

	// Then sum along dimensions where the target is 1.
	for i := 0; i < len(targetShape); i++ {
		if targetShape[i] == 1 && result.Shape()[i] > 1 {
			result = backend.SumDim(result, i, true)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}

	return result
}

// Ones returns a tensor of ones, used to seed the backward pass of a
// scalar output.
func Ones(shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	t, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("ones: %v", err))
	}
	switch dtype {
	case tensor.Float32:
		data := t.AsFloat32()
		for i := range data {
			data[i] = 1
		}
	case tensor.Float64:
		data := t.AsFloat64()
		for i := range data {
			data[i] = 1
		}
	default:
		panic(fmt.Sprintf("ones: unsupported dtype %s", dtype))
	}
	return t
}
