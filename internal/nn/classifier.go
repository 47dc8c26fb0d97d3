// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/fern-ml/fern/internal/tensor"
)

// Classifier is a feed-forward network for classification: a stack of
// fully connected hidden layers with ReLU activations, followed by a
// fully connected output layer producing raw logits.
//
// The architecture is fully determined by (input size, output size, hidden
// widths), and so are all parameter shapes:
//
//	hidden.0.weight  [hidden[0], input_size]
//	hidden.0.bias    [hidden[0]]
//	hidden.i.weight  [hidden[i], hidden[i-1]]
//	hidden.i.bias    [hidden[i]]
//	output.weight    [output_size, hidden[last]]
//	output.bias      [output_size]
//
// These keys are the layer identifiers used by checkpoints.
type Classifier[T tensor.DType, B tensor.Backend] struct {
	hidden []*Linear[T, B]
	output *Linear[T, B]

	inputSize   int
	outputSize  int
	hiddenSizes []int
}

// NewClassifier creates a classifier with the given layer widths. Hidden
// must contain at least one width; all widths must be positive.
func NewClassifier[T tensor.DType, B tensor.Backend](inputSize, outputSize int, hiddenSizes []int, backend B) (*Classifier[T, B], error) {
	if inputSize <= 0 {
		return nil, fmt.Errorf("input size must be positive, got %d", inputSize)
	}
	if outputSize <= 0 {
		return nil, fmt.Errorf("output size must be positive, got %d", outputSize)
	}
	if len(hiddenSizes) == 0 {
		return nil, fmt.Errorf("at least one hidden layer is required")
	}
	for i, h := range hiddenSizes {
		if h <= 0 {
			return nil, fmt.Errorf("hidden layer %d: width must be positive, got %d", i, h)
		}
	}

	c := &Classifier[T, B]{
		inputSize:   inputSize,
		outputSize:  outputSize,
		hiddenSizes: append([]int(nil), hiddenSizes...),
	}

	in := inputSize
	for _, h := range hiddenSizes {
		c.hidden = append(c.hidden, NewLinear[T, B](in, h, backend))
		in = h
	}
	c.output = NewLinear[T, B](in, outputSize, backend)

	return c, nil
}

// InputSize returns the expected input feature count.
func (c *Classifier[T, B]) InputSize() int {
	return c.inputSize
}

// OutputSize returns the number of classes.
func (c *Classifier[T, B]) OutputSize() int {
	return c.outputSize
}

// HiddenSizes returns a copy of the hidden layer widths.
func (c *Classifier[T, B]) HiddenSizes() []int {
	return append([]int(nil), c.hiddenSizes...)
}

// HiddenLayers returns the hidden Linear layers in order.
func (c *Classifier[T, B]) HiddenLayers() []*Linear[T, B] {
	return c.hidden
}

// OutputLayer returns the final Linear layer.
func (c *Classifier[T, B]) OutputLayer() *Linear[T, B] {
	return c.output
}

// Forward computes logits for input x of shape [batch_size, input_size],
// returning [batch_size, output_size]. No softmax is applied; pair with a
// cross-entropy loss for training or Softmax/Argmax for inference.
func (c *Classifier[T, B]) Forward(x *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	for _, layer := range c.hidden {
		x = layer.Forward(x).ReLU()
	}
	return c.output.Forward(x)
}

// Parameters returns all weights and biases, hidden layers first, in
// layer order.
func (c *Classifier[T, B]) Parameters() []*Parameter[T, B] {
	var params []*Parameter[T, B]
	for _, layer := range c.hidden {
		params = append(params, layer.Parameters()...)
	}
	params = append(params, c.output.Parameters()...)
	return params
}

// StateDict returns all parameters keyed by layer identifier.
func (c *Classifier[T, B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor, 2*(len(c.hidden)+1))
	for i, layer := range c.hidden {
		state[fmt.Sprintf("hidden.%d.weight", i)] = layer.Weight().Raw()
		state[fmt.Sprintf("hidden.%d.bias", i)] = layer.Bias().Raw()
	}
	state["output.weight"] = c.output.Weight().Raw()
	state["output.bias"] = c.output.Bias().Raw()
	return state
}

// LoadStateDict replaces the classifier's parameters with the given
// tensors.
//
// Validation is exhaustive: every missing identifier, unknown identifier,
// shape mismatch, and dtype mismatch is collected and reported in a single
// error. Nothing is coerced or truncated to fit, and no parameter is
// modified unless the entire state dict is valid.
func (c *Classifier[T, B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	expected := c.StateDict()

	var result *multierror.Error
	for _, name := range sortedKeys(expected) {
		param := expected[name]
		loaded, ok := state[name]
		if !ok {
			result = multierror.Append(result, fmt.Errorf("missing parameter %q (want shape %v)", name, param.Shape()))
			continue
		}
		if !param.Shape().Equal(loaded.Shape()) {
			result = multierror.Append(result, fmt.Errorf("parameter %q: shape mismatch: model wants %v, state has %v",
				name, param.Shape(), loaded.Shape()))
		}
		if param.DType() != loaded.DType() {
			result = multierror.Append(result, fmt.Errorf("parameter %q: dtype mismatch: model wants %s, state has %s",
				name, param.DType(), loaded.DType()))
		}
	}
	for _, name := range sortedKeys(state) {
		if _, ok := expected[name]; !ok {
			result = multierror.Append(result, fmt.Errorf("unknown parameter %q (shape %v) not present in architecture",
				name, state[name].Shape()))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("state dict does not match architecture %d/%v/%d: %w",
			c.inputSize, c.hiddenSizes, c.outputSize, err)
	}

	for name, param := range expected {
		if err := param.CopyFrom(state[name]); err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}
	}
	return nil
}
