// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package autodiff

import (
	"github.com/fern-ml/fern/internal/tensor"
)

// Backward computes gradients of output with respect to every tensor the
// tape saw during the forward pass. Recording is stopped before the
// backward walk so gradient arithmetic does not append to the tape.
//
// The gradient map is keyed by raw tensor identity: look up a parameter's
// gradient with grads[param.Raw()].
func Backward[T tensor.DType, B tensor.Backend](
	output *tensor.Tensor[T, *Backend[B]],
	backend *Backend[B],
) map[*tensor.RawTensor]*tensor.RawTensor {
	backend.Tape().StopRecording()
	return backend.Tape().Backward(output.Raw(), backend.Inner())
}
