// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"

	"github.com/fern-ml/fern/internal/tensor"
)

// Reshape returns a tensor sharing the same buffer under a new shape.
func (c *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	result, err := t.WithShape(newShape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return result
}

// Transpose permutes the tensor's dimensions, copying into a new contiguous
// buffer. With no axes given, all dimensions are reversed.
func (c *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: got %d axes for %dD tensor", len(axes), ndim))
	}

	seen := make([]bool, ndim)
	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: invalid axes %v for shape %v", axes, shape))
		}
		seen[ax] = true
		outShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(outShape, t.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("transpose: failed to create result tensor: %v", err))
	}

	inStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()
	n := shape.NumElements()
	elemSize := t.DType().Size()
	src, dst := t.Data(), result.Data()

	for i := 0; i < n; i++ {
		// Decompose the output index into coordinates, then map back
		// through the axis permutation to the source offset.
		srcOffset := 0
		rem := i
		for d := 0; d < ndim; d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			srcOffset += coord * inStrides[axes[d]]
		}
		copy(dst[i*elemSize:(i+1)*elemSize], src[srcOffset*elemSize:(srcOffset+1)*elemSize])
	}

	return result
}

// Cast converts a tensor to a different data type.
func (c *Backend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x.Clone()
	}

	result, err := tensor.NewRaw(x.Shape(), dtype, c.device)
	if err != nil {
		panic(fmt.Sprintf("cast: failed to create result tensor: %v", err))
	}

	n := x.NumElements()
	for i := 0; i < n; i++ {
		setAsFloat64(result, i, getAsFloat64(x, i))
	}
	return result
}

func getAsFloat64(t *tensor.RawTensor, i int) float64 {
	switch t.DType() {
	case tensor.Float32:
		return float64(t.AsFloat32()[i])
	case tensor.Float64:
		return t.AsFloat64()[i]
	case tensor.Int32:
		return float64(t.AsInt32()[i])
	case tensor.Int64:
		return float64(t.AsInt64()[i])
	case tensor.Uint8:
		return float64(t.AsUint8()[i])
	default:
		panic(fmt.Sprintf("cast: unsupported dtype %s", t.DType()))
	}
}

func setAsFloat64(t *tensor.RawTensor, i int, v float64) {
	switch t.DType() {
	case tensor.Float32:
		t.AsFloat32()[i] = float32(v)
	case tensor.Float64:
		t.AsFloat64()[i] = v
	case tensor.Int32:
		t.AsInt32()[i] = int32(v)
	case tensor.Int64:
		t.AsInt64()[i] = int64(v)
	case tensor.Uint8:
		t.AsUint8()[i] = uint8(v)
	default:
		panic(fmt.Sprintf("cast: unsupported dtype %s", t.DType()))
	}
}
