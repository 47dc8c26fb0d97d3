// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"
	"math"

	"github.com/fern-ml/fern/internal/tensor"
)

// MulScalar multiplies every element by a scalar.
func (c *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return c.scalarOp("mulscalar", x, scalar,
		func(v, s float32) float32 { return v * s },
		func(v, s float64) float64 { return v * s })
}

// AddScalar adds a scalar to every element.
func (c *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return c.scalarOp("addscalar", x, scalar,
		func(v, s float32) float32 { return v + s },
		func(v, s float64) float64 { return v + s })
}

func (c *Backend) scalarOp(
	name string,
	x *tensor.RawTensor,
	scalar any,
	f32 func(v, s float32) float32,
	f64 func(v, s float64) float64,
) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		s, ok := toFloat64(scalar)
		if !ok {
			panic(fmt.Sprintf("%s: unsupported scalar type %T", name, scalar))
		}
		xv, rv := x.AsFloat32(), result.AsFloat32()
		for i := range rv {
			rv[i] = f32(xv[i], float32(s))
		}
	case tensor.Float64:
		s, ok := toFloat64(scalar)
		if !ok {
			panic(fmt.Sprintf("%s: unsupported scalar type %T", name, scalar))
		}
		xv, rv := x.AsFloat64(), result.AsFloat64()
		for i := range rv {
			rv[i] = f64(xv[i], s)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}

func toFloat64(scalar any) (float64, bool) {
	switch s := scalar.(type) {
	case float32:
		return float64(s), true
	case float64:
		return s, true
	case int:
		return float64(s), true
	case int32:
		return float64(s), true
	case int64:
		return float64(s), true
	default:
		return 0, false
	}
}

// Exp computes the element-wise exponential.
func (c *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("exp", x,
		func(v float32) float32 { return float32(math.Exp(float64(v))) },
		math.Exp)
}

// Log computes the element-wise natural logarithm.
func (c *Backend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("log", x,
		func(v float32) float32 { return float32(math.Log(float64(v))) },
		math.Log)
}

// ReLU applies max(0, x) element-wise.
func (c *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("relu", x,
		func(v float32) float32 {
			if v > 0 {
				return v
			}
			return 0
		},
		func(v float64) float64 {
			if v > 0 {
				return v
			}
			return 0
		})
}

func (c *Backend) unaryOp(
	name string,
	x *tensor.RawTensor,
	f32 func(v float32) float32,
	f64 func(v float64) float64,
) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		xv, rv := x.AsFloat32(), result.AsFloat32()
		for i := range rv {
			rv[i] = f32(xv[i])
		}
	case tensor.Float64:
		xv, rv := x.AsFloat64(), result.AsFloat64()
		for i := range rv {
			rv[i] = f64(xv[i])
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}

// Softmax applies softmax along the given dimension.
//
// Only the last dimension of a 2D tensor is supported, which is the shape
// classifier logits take: [batch_size, num_classes]. The max-shift keeps
// exp() from overflowing.
func (c *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("softmax: expected 2D tensor, got %v", shape))
	}
	if dim != 1 && dim != -1 {
		panic(fmt.Sprintf("softmax: only the last dimension is supported, got dim=%d", dim))
	}
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("softmax: unsupported dtype %s", x.DType()))
	}

	result, err := tensor.NewRaw(shape, x.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("softmax: failed to create result tensor: %v", err))
	}

	rows, cols := shape[0], shape[1]
	xv, rv := x.AsFloat32(), result.AsFloat32()

	for r := 0; r < rows; r++ {
		row := xv[r*cols : (r+1)*cols]
		out := rv[r*cols : (r+1)*cols]

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}

		var sum float32
		for i, v := range row {
			e := float32(math.Exp(float64(v - maxVal)))
			out[i] = e
			sum += e
		}
		for i := range out {
			out[i] /= sum
		}
	}

	return result
}
