// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim implements gradient-based optimizers.
//
// Optimizers operate on a model's state dict: parameters keyed by layer
// identifier. Step receives the gradient map produced by an autodiff
// backward pass, keyed by raw tensor identity, and updates parameters in
// place. Internal state (momentum, moment estimates) is keyed by parameter
// identifier so it can round-trip through checkpoints.
package optim

import (
	"github.com/fern-ml/fern/internal/tensor"
)

// Optimizer updates model parameters from gradients.
type Optimizer interface {
	// Step applies one update using the gradients from a backward pass.
	// Parameters without a gradient in the map are left unchanged.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor) error

	// LR returns the current learning rate.
	LR() float64

	// SetLR changes the learning rate, for schedules.
	SetLR(lr float64)

	// Name returns the optimizer's identifier for checkpoints.
	Name() string

	// StateDict returns the optimizer's internal state keyed by
	// "{kind}.{parameter identifier}", for persistence.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores internal state saved by StateDict. Unknown or
	// mis-shaped entries are an error.
	LoadStateDict(state map[string]*tensor.RawTensor) error
}
