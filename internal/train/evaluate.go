// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/fern-ml/fern/internal/autodiff"
	"github.com/fern-ml/fern/internal/mnist"
	"github.com/fern-ml/fern/internal/nn"
	"github.com/fern-ml/fern/internal/tensor"
)

// Evaluate computes mean loss and accuracy over the dataset without
// touching the gradient tape.
func Evaluate[B tensor.Backend](
	model *nn.Classifier[float32, *autodiff.Backend[B]],
	backend *autodiff.Backend[B],
	ds *mnist.Dataset,
	batchSize int,
) (loss, accuracy float64) {
	backend.Tape().StopRecording()

	lossFn := nn.NewCrossEntropyLoss[float32, *autodiff.Backend[B]]()

	var losses []float64
	var correct, total int
	for _, batch := range ds.Batches(batchSize, nil) {
		x, err := tensor.FromSlice(batch.Images, tensor.Shape{batch.Size, batch.InputSize}, backend)
		if err != nil {
			continue
		}
		y, err := tensor.FromSlice(batch.Labels, tensor.Shape{batch.Size}, backend)
		if err != nil {
			continue
		}

		logits := model.Forward(x)
		losses = append(losses, float64(lossFn.Forward(logits, y).Item()))
		correct += int(math.Round(nn.Accuracy(logits, y) * float64(batch.Size)))
		total += batch.Size
	}

	loss, _ = stats.Mean(losses)
	if total > 0 {
		accuracy = float64(correct) / float64(total)
	}
	return loss, accuracy
}
