// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"

	"github.com/fern-ml/fern/internal/tensor"
)

// Sum reduces all elements to a single-element tensor of shape [1].
func (c *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(tensor.Shape{1}, x.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("sum: failed to create result tensor: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		var sum float32
		for _, v := range x.AsFloat32() {
			sum += v
		}
		result.AsFloat32()[0] = sum
	case tensor.Float64:
		var sum float64
		for _, v := range x.AsFloat64() {
			sum += v
		}
		result.AsFloat64()[0] = sum
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}

	return result
}

// SumDim sums along a dimension. With keepDim the reduced dimension stays
// as size 1, otherwise it is dropped.
func (c *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return c.reduceDim("sumdim", x, dim, keepDim, false)
}

// MeanDim averages along a dimension.
func (c *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return c.reduceDim("meandim", x, dim, keepDim, true)
}

func (c *Backend) reduceDim(name string, x *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("%s: invalid dimension %d for shape %v", name, dim, shape))
	}

	keptShape := shape.Clone()
	keptShape[dim] = 1
	result, err := tensor.NewRaw(keptShape, x.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	strides := shape.ComputeStrides()
	outStrides := keptShape.ComputeStrides()
	n := shape.NumElements()

	switch x.DType() {
	case tensor.Float32:
		xv, rv := x.AsFloat32(), result.AsFloat32()
		for i := 0; i < n; i++ {
			rv[reducedIndex(i, dim, strides, outStrides)] += xv[i]
		}
		if mean {
			scale := 1 / float32(shape[dim])
			for i := range rv {
				rv[i] *= scale
			}
		}
	case tensor.Float64:
		xv, rv := x.AsFloat64(), result.AsFloat64()
		for i := 0; i < n; i++ {
			rv[reducedIndex(i, dim, strides, outStrides)] += xv[i]
		}
		if mean {
			scale := 1 / float64(shape[dim])
			for i := range rv {
				rv[i] *= scale
			}
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	if keepDim {
		return result
	}

	squeezed := make(tensor.Shape, 0, len(shape)-1)
	for i, d := range keptShape {
		if i == dim {
			continue
		}
		squeezed = append(squeezed, d)
	}
	if len(squeezed) == 0 {
		squeezed = tensor.Shape{1}
	}
	view, err := result.WithShape(squeezed)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	return view
}

// reducedIndex maps a flat source index to the flat index in the reduced
// tensor where dimension dim collapses to 0.
func reducedIndex(flat, dim int, strides, outStrides []int) int {
	out := 0
	for d := 0; d < len(strides); d++ {
		coord := flat / strides[d]
		flat %= strides[d]
		if d != dim {
			out += coord * outStrides[d]
		}
	}
	return out
}

// Argmax returns the index of the maximum value along a dimension as an
// Int32 tensor. Only the last dimension of a 2D tensor is supported.
func (c *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("argmax: expected 2D tensor, got %v", shape))
	}
	if dim != 1 && dim != -1 {
		panic(fmt.Sprintf("argmax: only the last dimension is supported, got dim=%d", dim))
	}
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("argmax: unsupported dtype %s", x.DType()))
	}

	rows, cols := shape[0], shape[1]
	result, err := tensor.NewRaw(tensor.Shape{rows}, tensor.Int32, c.device)
	if err != nil {
		panic(fmt.Sprintf("argmax: failed to create result tensor: %v", err))
	}

	xv, rv := x.AsFloat32(), result.AsInt32()
	for r := 0; r < rows; r++ {
		row := xv[r*cols : (r+1)*cols]
		best := 0
		for i, v := range row[1:] {
			if v > row[best] {
				best = i + 1
			}
		}
		rv[r] = int32(best)
	}

	return result
}
