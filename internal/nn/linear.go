// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"fmt"

	"github.com/fern-ml/fern/internal/tensor"
)

// Linear is a fully connected layer computing y = x @ W^T + b.
//
// The weight is stored as [out_features, in_features] and the bias as
// [out_features], matching the row-per-output-neuron convention used by the
// checkpoint format.
type Linear[T tensor.DType, B tensor.Backend] struct {
	weight *Parameter[T, B]
	bias   *Parameter[T, B]

	inFeatures  int
	outFeatures int
}

// NewLinear creates a Linear layer with Xavier-initialized weights and zero
// bias.
func NewLinear[T tensor.DType, B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[T, B] {
	weight := tensor.Zeros[T, B](tensor.Shape{outFeatures, inFeatures}, backend)
	XavierUniform(weight, inFeatures, outFeatures)
	bias := tensor.Zeros[T, B](tensor.Shape{outFeatures}, backend)

	return &Linear[T, B]{
		weight:      NewParameter("weight", weight),
		bias:        NewParameter("bias", bias),
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
	}
}

// InFeatures returns the input width.
func (l *Linear[T, B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the output width.
func (l *Linear[T, B]) OutFeatures() int {
	return l.outFeatures
}

// Weight returns the weight parameter, shape [out_features, in_features].
func (l *Linear[T, B]) Weight() *Parameter[T, B] {
	return l.weight
}

// Bias returns the bias parameter, shape [out_features].
func (l *Linear[T, B]) Bias() *Parameter[T, B] {
	return l.bias
}

// Forward computes y = x @ W^T + b for input x of shape
// [batch_size, in_features], returning [batch_size, out_features].
func (l *Linear[T, B]) Forward(x *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return x.MatMul(l.weight.Tensor().T()).Add(l.bias.Tensor())
}

// Parameters returns the weight and bias.
func (l *Linear[T, B]) Parameters() []*Parameter[T, B] {
	return []*Parameter[T, B]{l.weight, l.bias}
}

// StateDict returns the layer's tensors keyed "weight" and "bias".
func (l *Linear[T, B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": l.weight.Raw(),
		"bias":   l.bias.Raw(),
	}
}

// LoadStateDict loads "weight" and "bias" from the given state. Shapes and
// dtypes must match the layer exactly.
func (l *Linear[T, B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	weight, ok := state["weight"]
	if !ok {
		return fmt.Errorf("missing key %q", "weight")
	}
	bias, ok := state["bias"]
	if !ok {
		return fmt.Errorf("missing key %q", "bias")
	}

	// Validate both tensors before touching either, so a failed load
	// leaves the layer unchanged.
	if !l.weight.Raw().Shape().Equal(weight.Shape()) {
		return fmt.Errorf("weight: shape mismatch: %v vs %v", l.weight.Raw().Shape(), weight.Shape())
	}
	if !l.bias.Raw().Shape().Equal(bias.Shape()) {
		return fmt.Errorf("bias: shape mismatch: %v vs %v", l.bias.Raw().Shape(), bias.Shape())
	}
	if err := l.weight.Set(weight); err != nil {
		return fmt.Errorf("weight: %w", err)
	}
	if err := l.bias.Set(bias); err != nil {
		return fmt.Errorf("bias: %w", err)
	}
	return nil
}
