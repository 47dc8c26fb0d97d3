// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package autodiff

import (
	"sync"

	"github.com/fern-ml/fern/internal/autodiff/ops"
	"github.com/fern-ml/fern/internal/tensor"
)

// Tape records differentiable operations during the forward pass and
// accumulates gradients across backward passes.
//
// Operations are appended in execution order; Backward walks them in
// reverse, propagating gradients from outputs to inputs, and adds the
// result into the tape's gradient accumulator. Accumulation is additive in
// both directions: within one backward pass a tensor used in several
// places sums its contributions, and a second backward pass without
// ZeroGrad in between sums on top of the first. Training loops call
// ZeroGrad (and Clear) at the start of each step so one batch's gradients
// never bleed into the next; leaving ZeroGrad out is how gradient
// accumulation over several mini-batches is implemented.
type Tape struct {
	mu         sync.Mutex
	operations []ops.Operation
	recording  bool
	grads      map[*tensor.RawTensor]*tensor.RawTensor
}

// NewTape creates an empty tape with recording disabled.
func NewTape() *Tape {
	return &Tape{
		operations: make([]ops.Operation, 0, 64),
		grads:      make(map[*tensor.RawTensor]*tensor.RawTensor),
	}
}

// StartRecording enables operation recording.
func (t *Tape) StartRecording() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recording = true
}

// StopRecording disables operation recording. Already recorded operations
// are kept.
func (t *Tape) StopRecording() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recording = false
}

// IsRecording reports whether operations are currently being recorded.
func (t *Tape) IsRecording() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recording
}

// Record appends an operation to the tape.
func (t *Tape) Record(op ops.Operation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.operations = append(t.operations, op)
}

// Clear removes all recorded operations. Accumulated gradients and the
// recording state are unchanged.
func (t *Tape) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.operations = t.operations[:0]
}

// ZeroGrad discards all accumulated gradients. The next backward pass
// starts from scratch.
func (t *Tape) ZeroGrad() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.grads = make(map[*tensor.RawTensor]*tensor.RawTensor)
}

// Grads returns the accumulated gradients, keyed by raw tensor identity.
func (t *Tape) Grads() map[*tensor.RawTensor]*tensor.RawTensor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.grads
}

// NumOperations returns the number of recorded operations.
func (t *Tape) NumOperations() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.operations)
}

// Backward computes gradients of output with respect to every tensor on
// the tape that contributed to it, adds them into the tape's accumulator,
// and returns the accumulator. The map is keyed by raw tensor identity.
//
// Calling Backward again without ZeroGrad adds the new pass's gradients on
// top of the existing ones.
func (t *Tape) Backward(output *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	t.mu.Lock()
	operations := make([]ops.Operation, len(t.operations))
	copy(operations, t.operations)
	t.mu.Unlock()

	// Per-pass gradients, seeded with d(output)/d(output) = 1.
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	grads[output] = ops.Ones(output.Shape(), output.DType(), output.Device())

	for i := len(operations) - 1; i >= 0; i-- {
		op := operations[i]

		outputGrad, ok := grads[op.Output()]
		if !ok {
			// Operation does not contribute to the output being
			// differentiated.
			continue
		}

		inputGrads := op.Backward(outputGrad, backend)
		inputs := op.Inputs()

		for j, input := range inputs {
			if j >= len(inputGrads) || inputGrads[j] == nil {
				continue
			}
			if existing, ok := grads[input]; ok {
				// Same tensor used in multiple places: gradients add.
				grads[input] = backend.Add(existing, inputGrads[j])
			} else {
				grads[input] = inputGrads[j]
			}
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for raw, grad := range grads {
		if existing, ok := t.grads[raw]; ok {
			t.grads[raw] = backend.Add(existing, grad)
		} else {
			t.grads[raw] = grad
		}
	}
	return t.grads
}
