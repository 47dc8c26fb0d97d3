// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network building blocks: layers, containers,
// losses, and weight initialization.
package nn

import (
	"github.com/fern-ml/fern/internal/nn"
	"github.com/fern-ml/fern/internal/tensor"
)

// Module is a neural network component with learnable state.
type Module[T tensor.DType, B tensor.Backend] = nn.Module[T, B]

// Parameter is a named learnable tensor.
type Parameter[T tensor.DType, B tensor.Backend] = nn.Parameter[T, B]

// Linear is a fully connected layer computing y = x @ W^T + b.
type Linear[T tensor.DType, B tensor.Backend] = nn.Linear[T, B]

// ReLU is a stateless rectified linear unit module.
type ReLU[T tensor.DType, B tensor.Backend] = nn.ReLU[T, B]

// Sequential chains modules, feeding each one's output to the next.
type Sequential[T tensor.DType, B tensor.Backend] = nn.Sequential[T, B]

// Classifier is a feed-forward classification network: ReLU-activated
// hidden layers followed by a linear output layer producing logits.
type Classifier[T tensor.DType, B tensor.Backend] = nn.Classifier[T, B]

// CrossEntropyLoss computes softmax cross-entropy against integer class
// targets.
type CrossEntropyLoss[T tensor.DType, B tensor.Backend] = nn.CrossEntropyLoss[T, B]

// NewLinear creates a Linear layer with Xavier-initialized weights.
func NewLinear[T tensor.DType, B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[T, B] {
	return nn.NewLinear[T, B](inFeatures, outFeatures, backend)
}

// NewReLU creates a ReLU activation module.
func NewReLU[T tensor.DType, B tensor.Backend]() *ReLU[T, B] {
	return nn.NewReLU[T, B]()
}

// NewSequential creates a Sequential container from the given modules.
func NewSequential[T tensor.DType, B tensor.Backend](modules ...Module[T, B]) *Sequential[T, B] {
	return nn.NewSequential[T, B](modules...)
}

// NewClassifier creates a classifier with the given input size, output
// size, and hidden layer widths.
func NewClassifier[T tensor.DType, B tensor.Backend](inputSize, outputSize int, hiddenSizes []int, backend B) (*Classifier[T, B], error) {
	return nn.NewClassifier[T, B](inputSize, outputSize, hiddenSizes, backend)
}

// NewCrossEntropyLoss creates a cross-entropy loss.
func NewCrossEntropyLoss[T tensor.DType, B tensor.Backend]() *CrossEntropyLoss[T, B] {
	return nn.NewCrossEntropyLoss[T, B]()
}

// NewParameter creates a named parameter wrapping the given tensor.
func NewParameter[T tensor.DType, B tensor.Backend](name string, t *tensor.Tensor[T, B]) *Parameter[T, B] {
	return nn.NewParameter[T, B](name, t)
}

// Accuracy returns the fraction of logit rows whose argmax matches the
// target class.
func Accuracy[T tensor.DType, B tensor.Backend](
	logits *tensor.Tensor[T, B],
	targets *tensor.Tensor[int32, B],
) float64 {
	return nn.Accuracy(logits, targets)
}

// XavierUniform initializes a weight tensor with Xavier/Glorot uniform
// values.
func XavierUniform[T tensor.DType, B tensor.Backend](t *tensor.Tensor[T, B], fanIn, fanOut int) {
	nn.XavierUniform(t, fanIn, fanOut)
}
