// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/fern-ml/fern/internal/tensor"
)

// Parameter is a named learnable tensor.
type Parameter[T tensor.DType, B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[T, B]
}

// NewParameter creates a named parameter wrapping the given tensor.
func NewParameter[T tensor.DType, B tensor.Backend](name string, t *tensor.Tensor[T, B]) *Parameter[T, B] {
	return &Parameter[T, B]{name: name, tensor: t}
}

// Name returns the parameter's identifier within its module.
func (p *Parameter[T, B]) Name() string {
	return p.name
}

// Tensor returns the underlying tensor.
func (p *Parameter[T, B]) Tensor() *tensor.Tensor[T, B] {
	return p.tensor
}

// Raw returns the underlying raw tensor. Gradient maps produced by the
// autodiff tape are keyed by this pointer.
func (p *Parameter[T, B]) Raw() *tensor.RawTensor {
	return p.tensor.Raw()
}

// Set replaces the parameter's data in place by copying from src, which
// must have the same shape and dtype. In-place copy keeps the raw tensor
// pointer stable so optimizer state and gradient maps stay valid.
func (p *Parameter[T, B]) Set(src *tensor.RawTensor) error {
	return p.tensor.Raw().CopyFrom(src)
}
