// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu implements the Fern CPU backend. Matrix multiplication is
// delegated to gonum's float32 BLAS; element-wise and reduction kernels are
// plain loops.
package cpu

import (
	"fmt"

	"github.com/fern-ml/fern/internal/tensor"
)

// Backend implements tensor operations on the CPU.
type Backend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *Backend {
	return &Backend{device: tensor.CPU}
}

// Name returns the backend name.
func (c *Backend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (c *Backend) Device() tensor.Device {
	return c.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (c *Backend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (c *Backend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("sub", a, b,
		func(x, y float32) float32 { return x - y },
		func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (c *Backend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (c *Backend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("div", a, b,
		func(x, y float32) float32 { return x / y },
		func(x, y float64) float64 { return x / y })
}

// binaryOp applies an element-wise binary operation with broadcasting.
func (c *Backend) binaryOp(
	name string,
	a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch: %s vs %s", name, a.DType(), b.DType()))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result, err := tensor.NewRaw(outShape, a.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch a.DType() {
	case tensor.Float32:
		if !needsBroadcast {
			av, bv, rv := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
			for i := range rv {
				rv[i] = f32(av[i], bv[i])
			}
		} else {
			broadcastFloat32(result, a, b, f32)
		}
	case tensor.Float64:
		if !needsBroadcast {
			av, bv, rv := a.AsFloat64(), b.AsFloat64(), result.AsFloat64()
			for i := range rv {
				rv[i] = f64(av[i], bv[i])
			}
		} else {
			broadcastFloat64(result, a, b, f64)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}

	return result
}

// broadcastFloat32 applies f element-wise, mapping each output index back to
// the (possibly size-1) source dimensions of a and b.
func broadcastFloat32(result, a, b *tensor.RawTensor, f func(x, y float32) float32) {
	outShape := result.Shape()
	av, bv, rv := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
	aIdx := newBroadcastIndexer(a.Shape(), outShape)
	bIdx := newBroadcastIndexer(b.Shape(), outShape)
	for i := range rv {
		rv[i] = f(av[aIdx.source(i)], bv[bIdx.source(i)])
	}
}

func broadcastFloat64(result, a, b *tensor.RawTensor, f func(x, y float64) float64) {
	outShape := result.Shape()
	av, bv, rv := a.AsFloat64(), b.AsFloat64(), result.AsFloat64()
	aIdx := newBroadcastIndexer(a.Shape(), outShape)
	bIdx := newBroadcastIndexer(b.Shape(), outShape)
	for i := range rv {
		rv[i] = f(av[aIdx.source(i)], bv[bIdx.source(i)])
	}
}

// broadcastIndexer maps flat indices in the broadcast output shape back to
// flat indices in a source shape, treating size-1 source dimensions as
// stride 0.
type broadcastIndexer struct {
	outStrides []int
	srcStrides []int
}

func newBroadcastIndexer(src, out tensor.Shape) broadcastIndexer {
	outStrides := out.ComputeStrides()
	srcStrides := make([]int, len(out))

	realStrides := src.ComputeStrides()
	offset := len(out) - len(src)
	for i := range out {
		si := i - offset
		if si < 0 || src[si] == 1 {
			srcStrides[i] = 0
		} else {
			srcStrides[i] = realStrides[si]
		}
	}
	return broadcastIndexer{outStrides: outStrides, srcStrides: srcStrides}
}

func (bi broadcastIndexer) source(flat int) int {
	src := 0
	for d := 0; d < len(bi.outStrides); d++ {
		coord := flat / bi.outStrides[d]
		flat %= bi.outStrides[d]
		src += coord * bi.srcStrides[d]
	}
	return src
}
