// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/fern-ml/fern/internal/tensor"
)

// Accuracy returns the fraction of rows in logits [batch_size, num_classes]
// whose argmax equals the corresponding target class.
func Accuracy[T tensor.DType, B tensor.Backend](
	logits *tensor.Tensor[T, B],
	targets *tensor.Tensor[int32, B],
) float64 {
	predictions := logits.Argmax(1).Data()
	expected := targets.Data()
	if len(predictions) == 0 {
		return 0
	}

	correct := 0
	for i := range predictions {
		if predictions[i] == expected[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(predictions))
}
