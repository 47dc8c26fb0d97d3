// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network building blocks: layers, containers,
// losses, and weight initialization.
//
// Modules compose into networks; each module exposes its learnable tensors
// through Parameters for optimizers and through StateDict for persistence.
// State dict keys are stable per-architecture, so a network saved from one
// process can be reloaded into a freshly constructed network of the same
// architecture in another.
package nn

import (
	"github.com/fern-ml/fern/internal/tensor"
)

// Module is a neural network component with learnable state.
type Module[T tensor.DType, B tensor.Backend] interface {
	// Forward computes the module's output for the given input.
	Forward(x *tensor.Tensor[T, B]) *tensor.Tensor[T, B]

	// Parameters returns the module's learnable parameters in a stable
	// order.
	Parameters() []*Parameter[T, B]

	// StateDict returns the module's parameters keyed by stable
	// identifiers.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict replaces the module's parameters with the given
	// tensors. Implementations validate before mutating: on error the
	// module is unchanged.
	LoadStateDict(state map[string]*tensor.RawTensor) error
}
