// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fern-ml/fern/internal/autodiff"
	"github.com/fern-ml/fern/internal/backend/cpu"
	"github.com/fern-ml/fern/internal/tensor"
)

func TestBackwardSquare(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x, err := tensor.FromSlice([]float32{2, 3}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	y := x.Mul(x) // y = x², dy/dx = 2x

	grads := autodiff.Backward(y, backend)
	grad, ok := grads[x.Raw()]
	require.True(t, ok, "x should have a gradient")
	assert.InDeltaSlice(t, []float32{4, 6}, grad.AsFloat32(), 1e-5)
}

func TestBackwardMatMul(t *testing.T) {
	backend := autodiff.New(cpu.New())
	a, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float32{5, 6, 7, 8}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	c := a.MatMul(b)

	grads := autodiff.Backward(c, backend)

	// dC/dA = grad @ B^T with grad all ones.
	gradA := grads[a.Raw()]
	require.NotNil(t, gradA)
	assert.InDeltaSlice(t, []float32{11, 15, 11, 15}, gradA.AsFloat32(), 1e-5)

	// dC/dB = A^T @ grad.
	gradB := grads[b.Raw()]
	require.NotNil(t, gradB)
	assert.InDeltaSlice(t, []float32{4, 4, 6, 6}, gradB.AsFloat32(), 1e-5)
}

func TestBackwardReLU(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x, err := tensor.FromSlice([]float32{-1, 2, -3, 4}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	y := x.ReLU()

	grads := autodiff.Backward(y, backend)
	assert.InDeltaSlice(t, []float32{0, 1, 0, 1}, grads[x.Raw()].AsFloat32(), 1e-6)
}

func TestBackwardBroadcastBias(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	bias, err := tensor.FromSlice([]float32{10, 20, 30}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	y := x.Add(bias)

	grads := autodiff.Backward(y, backend)

	// The bias was broadcast across 2 rows: its gradient sums them.
	gradBias := grads[bias.Raw()]
	require.NotNil(t, gradBias)
	assert.Equal(t, tensor.Shape{3}, gradBias.Shape())
	assert.InDeltaSlice(t, []float32{2, 2, 2}, gradBias.AsFloat32(), 1e-6)
}

func TestBackwardSharedTensorSumsContributions(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x, err := tensor.FromSlice([]float32{3}, tensor.Shape{1}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	// y = x + x, dy/dx = 2.
	y := x.Add(x)

	grads := autodiff.Backward(y, backend)
	assert.InDeltaSlice(t, []float32{2}, grads[x.Raw()].AsFloat32(), 1e-6)
}

func TestBackwardTwiceAccumulates(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x, err := tensor.FromSlice([]float32{2, 3}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	y := x.Mul(x)
	backend.Tape().StopRecording()

	first := backend.Tape().Backward(y.Raw(), backend.Inner())
	assert.InDeltaSlice(t, []float32{4, 6}, first[x.Raw()].AsFloat32(), 1e-5)

	// A second backward pass without ZeroGrad doubles the gradient.
	second := backend.Tape().Backward(y.Raw(), backend.Inner())
	assert.InDeltaSlice(t, []float32{8, 12}, second[x.Raw()].AsFloat32(), 1e-5)
}

func TestZeroGradIsolatesPasses(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x, err := tensor.FromSlice([]float32{2, 3}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	y := x.Mul(x)
	backend.Tape().StopRecording()

	backend.Tape().Backward(y.Raw(), backend.Inner())
	backend.Tape().ZeroGrad()

	grads := backend.Tape().Backward(y.Raw(), backend.Inner())
	assert.InDeltaSlice(t, []float32{4, 6}, grads[x.Raw()].AsFloat32(), 1e-5,
		"gradients after ZeroGrad must match a fresh pass")
}

func TestTapeClearDropsOperations(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	_ = x.Mul(x)
	assert.Equal(t, 1, backend.Tape().NumOperations())

	backend.Tape().Clear()
	assert.Equal(t, 0, backend.Tape().NumOperations())
	assert.True(t, backend.Tape().IsRecording(), "Clear must not stop recording")
}

func TestNoRecordingWhenStopped(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	_ = x.Mul(x)
	assert.Equal(t, 0, backend.Tape().NumOperations())
}

func TestCrossEntropyBackward(t *testing.T) {
	backend := autodiff.New(cpu.New())
	logits, err := tensor.FromSlice([]float32{2, 0, 0, 0, 2, 0}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	targets, err := tensor.FromSlice([]int32{0, 1}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	loss := backend.CrossEntropy(logits.Raw(), targets.Raw())
	require.Equal(t, tensor.Shape{1}, loss.Shape())

	// Well-classified rows should give a small positive loss.
	lossVal := loss.AsFloat32()[0]
	assert.Greater(t, lossVal, float32(0))
	assert.Less(t, lossVal, float32(1))

	grads := backend.Tape().Backward(loss, backend.Inner())
	grad := grads[logits.Raw()]
	require.NotNil(t, grad)
	assert.Equal(t, tensor.Shape{2, 3}, grad.Shape())

	// Gradient rows are (softmax - one_hot)/batch: each row sums to zero,
	// with the target entry negative.
	gv := grad.AsFloat32()
	for r := 0; r < 2; r++ {
		var sum float32
		for c := 0; c < 3; c++ {
			sum += gv[r*3+c]
		}
		assert.InDelta(t, 0, sum, 1e-6, "row %d", r)
	}
	assert.Less(t, gv[0], float32(0), "target logit gradient must be negative")
	assert.Less(t, gv[4], float32(0), "target logit gradient must be negative")
}

func TestBackendName(t *testing.T) {
	backend := autodiff.New(cpu.New())
	assert.Equal(t, "Autodiff(CPU)", backend.Name())
}
