// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ops defines the differentiable operations recorded on the
// gradient tape.
//
// Each operation stores its inputs and output during the forward pass and
// computes input gradients from the output gradient during the backward
// pass:
//   - AddOp/SubOp: gradient flows through unchanged (negated for Sub's b)
//   - MulOp/DivOp: product/quotient rules
//   - MatMulOp: d(A@B)/dA = grad@B^T, d(A@B)/dB = A^T@grad
//   - ReLUOp: gradient masked where input <= 0
//   - CrossEntropyOp: softmax(logits) - one_hot(targets), batch-averaged
package ops

import "github.com/fern-ml/fern/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns one gradient per input tensor; nil entries mean no gradient
	// flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors of this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}
