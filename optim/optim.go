// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient-based optimizers.
package optim

import (
	"github.com/fern-ml/fern/internal/optim"
	"github.com/fern-ml/fern/internal/tensor"
)

// Optimizer updates model parameters from gradients.
type Optimizer = optim.Optimizer

// SGD implements stochastic gradient descent with optional momentum.
type SGD = optim.SGD

// Adam implements the Adam optimizer with bias correction.
type Adam = optim.Adam

// NewSGD creates an SGD optimizer over a model's state dict.
func NewSGD(params map[string]*tensor.RawTensor, lr, momentum float64) *SGD {
	return optim.NewSGD(params, lr, momentum)
}

// NewAdam creates an Adam optimizer with the standard defaults.
func NewAdam(params map[string]*tensor.RawTensor, lr float64) *Adam {
	return optim.NewAdam(params, lr)
}
