// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/fern-ml/fern/internal/tensor"
)

// crossEntropyBackend is implemented by backends offering a fused
// cross-entropy kernel with an analytic gradient. The autodiff backend
// implements it; plain compute backends do not.
type crossEntropyBackend interface {
	CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
}

// CrossEntropyLoss computes softmax cross-entropy between logits and
// integer class targets, averaged over the batch.
type CrossEntropyLoss[T tensor.DType, B tensor.Backend] struct{}

// NewCrossEntropyLoss creates a cross-entropy loss.
func NewCrossEntropyLoss[T tensor.DType, B tensor.Backend]() *CrossEntropyLoss[T, B] {
	return &CrossEntropyLoss[T, B]{}
}

// Forward computes the scalar mean loss for logits [batch_size,
// num_classes] and targets [batch_size].
//
// When the backend provides a fused kernel it is used: one operation on
// the tape with the (softmax - one_hot)/batch gradient, and the stable
// log-sum-exp forward. Otherwise the loss is composed from primitive
// operations, which is sufficient for evaluation on a plain compute
// backend.
func (c *CrossEntropyLoss[T, B]) Forward(
	logits *tensor.Tensor[T, B],
	targets *tensor.Tensor[int32, B],
) *tensor.Tensor[T, B] {
	backend := logits.Backend()

	if ce, ok := any(backend).(crossEntropyBackend); ok {
		raw := ce.CrossEntropy(logits.Raw(), targets.Raw())
		return tensor.New[T, B](raw, backend)
	}

	return c.composed(logits, targets)
}

// composed builds the loss from softmax, log, and a one-hot mask:
// loss = -mean(sum(one_hot * log(softmax(logits)), dim=1)).
func (c *CrossEntropyLoss[T, B]) composed(
	logits *tensor.Tensor[T, B],
	targets *tensor.Tensor[int32, B],
) *tensor.Tensor[T, B] {
	backend := logits.Backend()
	shape := logits.Shape()
	batchSize, numClasses := shape[0], shape[1]

	oneHot := tensor.Zeros[T, B](tensor.Shape{batchSize, numClasses}, backend)
	oneHotData := oneHot.Data()
	for i, class := range targets.Data() {
		oneHotData[i*numClasses+int(class)] = 1
	}

	logProbs := logits.Softmax(1).Log()
	picked := oneHot.Mul(logProbs).Sum()
	return picked.MulScalar(T(-1.0 / float64(batchSize)))
}
