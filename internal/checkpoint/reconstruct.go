// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package checkpoint

import (
	"fmt"

	"github.com/fern-ml/fern/internal/nn"
	"github.com/fern-ml/fern/internal/tensor"
)

// FromClassifier builds a checkpoint from a model's current parameters.
// Tensor data is deep-copied, so later training steps do not mutate the
// checkpoint.
func FromClassifier[T tensor.DType, B tensor.Backend](model *nn.Classifier[T, B]) *Checkpoint {
	state := make(map[string]*tensor.RawTensor)
	for name, raw := range model.StateDict() {
		state[name] = raw.Clone()
	}
	return &Checkpoint{
		Descriptor: Descriptor{
			InputSize:   model.InputSize(),
			OutputSize:  model.OutputSize(),
			HiddenSizes: model.HiddenSizes(),
		},
		State: state,
	}
}

// Reconstruct builds a classifier from the checkpoint's descriptor and
// loads the saved parameters into it.
//
// Validation happens before any weight is touched and is exhaustive: the
// returned error enumerates every identifier whose shape or dtype
// disagrees with the architecture, every identifier the architecture
// expects but the checkpoint lacks, and every identifier the checkpoint
// carries that the architecture has no place for. A checkpoint that does
// not fit is rejected whole; weights are never truncated or reshaped to
// fit.
func Reconstruct[T tensor.DType, B tensor.Backend](ck *Checkpoint, backend B) (*nn.Classifier[T, B], error) {
	if err := ck.Descriptor.Validate(); err != nil {
		return nil, fmt.Errorf("invalid descriptor: %w", err)
	}

	model, err := nn.NewClassifier[T, B](ck.Descriptor.InputSize, ck.Descriptor.OutputSize, ck.Descriptor.HiddenSizes, backend)
	if err != nil {
		return nil, fmt.Errorf("build model %s: %w", ck.Descriptor, err)
	}
	if err := model.LoadStateDict(ck.State); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchitectureMismatch, err)
	}
	return model, nil
}

// ReconstructInto loads the checkpoint's parameters into an existing
// model. The model's architecture must match the checkpoint's descriptor
// exactly; validation is as exhaustive as Reconstruct's.
func ReconstructInto[T tensor.DType, B tensor.Backend](ck *Checkpoint, model *nn.Classifier[T, B]) error {
	if err := model.LoadStateDict(ck.State); err != nil {
		return fmt.Errorf("%w: %v", ErrArchitectureMismatch, err)
	}
	return nil
}
