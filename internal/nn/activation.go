// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/fern-ml/fern/internal/tensor"
)

// ReLU is a stateless module applying the rectified linear unit.
type ReLU[T tensor.DType, B tensor.Backend] struct{}

// NewReLU creates a ReLU activation module.
func NewReLU[T tensor.DType, B tensor.Backend]() *ReLU[T, B] {
	return &ReLU[T, B]{}
}

// Forward applies max(0, x) element-wise.
func (r *ReLU[T, B]) Forward(x *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return x.ReLU()
}

// Parameters returns nil; ReLU has no learnable state.
func (r *ReLU[T, B]) Parameters() []*Parameter[T, B] {
	return nil
}

// StateDict returns an empty map.
func (r *ReLU[T, B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for the stateless ReLU.
func (r *ReLU[T, B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	return nil
}
