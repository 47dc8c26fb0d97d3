// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation as a
// backend decorator.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	loss := model.Forward(x) // operations are recorded
//	grads := autodiff.Backward(loss, backend)
package autodiff

import (
	"github.com/fern-ml/fern/internal/autodiff"
	"github.com/fern-ml/fern/internal/tensor"
)

// Backend wraps a compute backend and records operations for
// backpropagation.
type Backend[B tensor.Backend] = autodiff.Backend[B]

// Tape records operations during the forward pass.
type Tape = autodiff.Tape

// New creates an autodiff backend wrapping the given compute backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// Backward computes gradients of output with respect to every tensor seen
// during the recorded forward pass, keyed by raw tensor identity.
func Backward[T tensor.DType, B tensor.Backend](
	output *tensor.Tensor[T, *Backend[B]],
	backend *Backend[B],
) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(output, backend)
}
