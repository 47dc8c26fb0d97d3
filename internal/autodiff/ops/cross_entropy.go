// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops

import (
	"fmt"
	"math"

	"github.com/fern-ml/fern/internal/tensor"
)

// CrossEntropyOp represents the fused softmax + cross-entropy loss.
//
// Forward:
//
//	loss = mean(-log_softmax(logits)[targets])
//
// using the log-sum-exp trick for numerical stability.
//
// Backward:
//
//	d(loss)/d(logits) = (softmax(logits) - one_hot(targets)) / batch_size
//
// The clean gradient formula is why softmax and cross-entropy are fused
// rather than composed. Logits are [batch_size, num_classes] float32,
// targets are [batch_size] int32 class indices. Gradients flow to logits
// only; targets are not differentiated.
type CrossEntropyOp struct {
	logits  *tensor.RawTensor
	targets *tensor.RawTensor
	output  *tensor.RawTensor
}

// NewCrossEntropyOp creates a new CrossEntropyOp.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{logits: logits, targets: targets, output: output}
}

// Inputs returns [logits].
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits}
}

// Output returns the scalar loss.
func (op *CrossEntropyOp) Output() *tensor.RawTensor { return op.output }

// Backward computes the gradient with respect to logits.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	if len(shape) != 2 {
		panic("cross entropy: backward only supports 2D logits")
	}

	batchSize, numClasses := shape[0], shape[1]

	grad, err := tensor.NewRaw(shape, op.logits.DType(), op.logits.Device())
	if err != nil {
		panic(fmt.Sprintf("cross entropy: failed to create gradient: %v", err))
	}

	logits := op.logits.AsFloat32()
	targets := op.targets.AsInt32()
	gradData := grad.AsFloat32()
	gradScale := outputGrad.AsFloat32()[0] // respect upstream gradient, usually 1

	for b := 0; b < batchSize; b++ {
		row := logits[b*numClasses : (b+1)*numClasses]
		probs := softmaxRow(row)

		target := int(targets[b])
		for i := 0; i < numClasses; i++ {
			g := probs[i]
			if i == target {
				g -= 1.0
			}
			gradData[b*numClasses+i] = gradScale * g / float32(batchSize)
		}
	}

	return []*tensor.RawTensor{grad}
}

// Forward computes the cross-entropy loss outside any autodiff context.
// The autodiff backend records a CrossEntropyOp around it.
func Forward(logits, targets *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic("cross entropy: logits must be 2D [batch_size, num_classes]")
	}
	if len(targets.Shape()) != 1 || targets.Shape()[0] != shape[0] {
		panic("cross entropy: targets must be [batch_size]")
	}
	if logits.DType() != tensor.Float32 || targets.DType() != tensor.Int32 {
		panic(fmt.Sprintf("cross entropy: unsupported dtypes %s/%s", logits.DType(), targets.DType()))
	}

	batchSize, numClasses := shape[0], shape[1]

	output, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, device)
	if err != nil {
		panic(fmt.Sprintf("cross entropy: failed to create output: %v", err))
	}

	logitsData := logits.AsFloat32()
	targetsData := targets.AsInt32()

	var total float32
	for b := 0; b < batchSize; b++ {
		row := logitsData[b*numClasses : (b+1)*numClasses]
		target := int(targetsData[b])
		if target < 0 || target >= numClasses {
			panic(fmt.Sprintf("cross entropy: target %d out of range [0, %d)", target, numClasses))
		}
		total += -logSoftmaxRow(row)[target]
	}
	output.AsFloat32()[0] = total / float32(batchSize)

	return output
}

// logSoftmaxRow computes log(softmax(z)) for one row with the log-sum-exp
// trick.
func logSoftmaxRow(z []float32) []float32 {
	maxVal := z[0]
	for _, v := range z[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	var sumExp float32
	for _, v := range z {
		sumExp += float32(math.Exp(float64(v - maxVal)))
	}
	logSumExp := maxVal + float32(math.Log(float64(sumExp)))

	result := make([]float32, len(z))
	for i, v := range z {
		result[i] = v - logSumExp
	}
	return result
}

// softmaxRow computes softmax(z) for one row with max-shifting.
func softmaxRow(z []float32) []float32 {
	maxVal := z[0]
	for _, v := range z[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	probs := make([]float32, len(z))
	var sum float32
	for i, v := range z {
		probs[i] = float32(math.Exp(float64(v - maxVal)))
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
