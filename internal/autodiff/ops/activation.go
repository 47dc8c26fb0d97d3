// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops

import (
	"fmt"

	"github.com/fern-ml/fern/internal/tensor"
)

// ReLUOp represents the ReLU activation: output = max(0, x).
//
// d(ReLU(x))/dx = 1 where x > 0, else 0.
type ReLUOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{input: input, output: output}
}

// Backward masks the output gradient where the input was non-positive.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	mask, err := tensor.NewRaw(op.input.Shape(), op.input.DType(), op.input.Device())
	if err != nil {
		panic(fmt.Sprintf("relu: failed to create mask: %v", err))
	}

	switch op.input.DType() {
	case tensor.Float32:
		in, m := op.input.AsFloat32(), mask.AsFloat32()
		for i, v := range in {
			if v > 0 {
				m[i] = 1
			}
		}
	case tensor.Float64:
		in, m := op.input.AsFloat64(), mask.AsFloat64()
		for i, v := range in {
			if v > 0 {
				m[i] = 1
			}
		}
	default:
		panic(fmt.Sprintf("relu: unsupported dtype %s", op.input.DType()))
	}

	return []*tensor.RawTensor{backend.Mul(outputGrad, mask)}
}

// Inputs returns [x].
func (op *ReLUOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns max(0, x).
func (op *ReLUOp) Output() *tensor.RawTensor { return op.output }

// LogOp represents the element-wise natural logarithm.
//
// d(log(x))/dx = 1/x.
type LogOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewLogOp creates a new LogOp.
func NewLogOp(input, output *tensor.RawTensor) *LogOp {
	return &LogOp{input: input, output: output}
}

// Backward computes outputGrad / x.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, op.input)}
}

// Inputs returns [x].
func (op *LogOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns log(x).
func (op *LogOp) Output() *tensor.RawTensor { return op.output }

// SoftmaxOp represents softmax along the last dimension of a 2D tensor.
//
// The softmax Jacobian contracts with the output gradient to:
//
//	grad_x[j] = s[j] * (grad_s[j] - Σ_i grad_s[i] * s[i])
//
// per row, where s = softmax(x).
type SoftmaxOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSoftmaxOp creates a new SoftmaxOp.
func NewSoftmaxOp(input, output *tensor.RawTensor) *SoftmaxOp {
	return &SoftmaxOp{input: input, output: output}
}

// Backward contracts the softmax Jacobian with the output gradient.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.output.Shape()
	if len(shape) != 2 {
		panic("softmax: backward only supports 2D tensors")
	}
	if op.output.DType() != tensor.Float32 {
		panic(fmt.Sprintf("softmax: unsupported dtype %s", op.output.DType()))
	}

	grad, err := tensor.NewRaw(shape, op.output.DType(), op.output.Device())
	if err != nil {
		panic(fmt.Sprintf("softmax: failed to create gradient: %v", err))
	}

	rows, cols := shape[0], shape[1]
	s, gs, gx := op.output.AsFloat32(), outputGrad.AsFloat32(), grad.AsFloat32()

	for r := 0; r < rows; r++ {
		srow := s[r*cols : (r+1)*cols]
		gsrow := gs[r*cols : (r+1)*cols]
		gxrow := gx[r*cols : (r+1)*cols]

		var dot float32
		for i := range srow {
			dot += gsrow[i] * srow[i]
		}
		for i := range srow {
			gxrow[i] = srow[i] * (gsrow[i] - dot)
		}
	}

	return []*tensor.RawTensor{grad}
}

// Inputs returns [x].
func (op *SoftmaxOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns softmax(x).
func (op *SoftmaxOp) Output() *tensor.RawTensor { return op.output }
