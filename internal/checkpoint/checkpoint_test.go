// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package checkpoint_test

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fern-ml/fern/internal/backend/cpu"
	"github.com/fern-ml/fern/internal/checkpoint"
	"github.com/fern-ml/fern/internal/nn"
	"github.com/fern-ml/fern/internal/tensor"
)

func newTestModel(t *testing.T, inputSize, outputSize int, hidden []int) *nn.Classifier[float32, *cpu.Backend] {
	t.Helper()
	model, err := nn.NewClassifier[float32](inputSize, outputSize, hidden, cpu.New())
	require.NoError(t, err)
	return model
}

func TestDescriptorValidate(t *testing.T) {
	valid := checkpoint.Descriptor{InputSize: 784, OutputSize: 10, HiddenSizes: []int{512, 256, 128}}
	assert.NoError(t, valid.Validate())
	assert.Equal(t, "784-512-256-128-10", valid.String())

	// Every defect is reported, not just the first.
	broken := checkpoint.Descriptor{InputSize: 0, OutputSize: -1}
	err := broken.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input size")
	assert.Contains(t, err.Error(), "output size")
	assert.Contains(t, err.Error(), "hidden layer")
}

func TestDescriptorParameterShapes(t *testing.T) {
	d := checkpoint.Descriptor{InputSize: 784, OutputSize: 10, HiddenSizes: []int{512, 256, 128}}

	shapes := d.ParameterShapes()
	assert.Equal(t, tensor.Shape{512, 784}, shapes["hidden.0.weight"])
	assert.Equal(t, tensor.Shape{512}, shapes["hidden.0.bias"])
	assert.Equal(t, tensor.Shape{256, 512}, shapes["hidden.1.weight"])
	assert.Equal(t, tensor.Shape{256}, shapes["hidden.1.bias"])
	assert.Equal(t, tensor.Shape{128, 256}, shapes["hidden.2.weight"])
	assert.Equal(t, tensor.Shape{128}, shapes["hidden.2.bias"])
	assert.Equal(t, tensor.Shape{10, 128}, shapes["output.weight"])
	assert.Equal(t, tensor.Shape{10}, shapes["output.bias"])
	assert.Len(t, shapes, 8)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	model := newTestModel(t, 20, 4, []int{8, 6})
	ck := checkpoint.FromClassifier(model)
	ck.Training = &checkpoint.TrainingMeta{Epoch: 3, Step: 1200, Loss: 0.42, Optimizer: "sgd"}
	ck.RunID = "test-run"

	var buf bytes.Buffer
	require.NoError(t, checkpoint.Encode(&buf, ck))

	decoded, err := checkpoint.Decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, ck.Descriptor, decoded.Descriptor)
	assert.Equal(t, "test-run", decoded.RunID)
	require.NotNil(t, decoded.Training)
	assert.Equal(t, 3, decoded.Training.Epoch)
	assert.Equal(t, 1200, decoded.Training.Step)
	assert.InDelta(t, 0.42, decoded.Training.Loss, 1e-9)

	require.Len(t, decoded.State, len(ck.State))
	for name, raw := range ck.State {
		got, ok := decoded.State[name]
		require.True(t, ok, "missing tensor %s", name)
		assert.Equal(t, raw.Shape(), got.Shape(), name)
		assert.Equal(t, raw.DType(), got.DType(), name)
		assert.Equal(t, raw.AsFloat32(), got.AsFloat32(), name)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	model := newTestModel(t, 10, 3, []int{5})
	ck := checkpoint.FromClassifier(model)
	// Pin the timestamp; a zero CreatedAt is replaced at encode time.
	ck.CreatedAt = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	var a, b bytes.Buffer
	require.NoError(t, checkpoint.Encode(&a, ck))
	require.NoError(t, checkpoint.Encode(&b, ck))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestDecodeBadMagic(t *testing.T) {
	data := make([]byte, 128)
	copy(data, "BORK")

	_, err := checkpoint.Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, checkpoint.ErrBadMagic)
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	model := newTestModel(t, 4, 2, []int{3})
	var buf bytes.Buffer
	require.NoError(t, checkpoint.Encode(&buf, checkpoint.FromClassifier(model)))

	data := buf.Bytes()
	data[0x04] = 99 // version field

	_, err := checkpoint.Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, checkpoint.ErrUnsupportedVersion)
}

func TestDecodeChecksumMismatch(t *testing.T) {
	model := newTestModel(t, 4, 2, []int{3})
	var buf bytes.Buffer
	require.NoError(t, checkpoint.Encode(&buf, checkpoint.FromClassifier(model)))

	data := buf.Bytes()
	data[len(data)-1] ^= 0xFF // flip a bit in the last tensor

	_, err := checkpoint.Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, checkpoint.ErrChecksumMismatch)
}

func TestDecodeTruncated(t *testing.T) {
	model := newTestModel(t, 4, 2, []int{3})
	var buf bytes.Buffer
	require.NoError(t, checkpoint.Encode(&buf, checkpoint.FromClassifier(model)))

	data := buf.Bytes()[:buf.Len()/2]
	_, err := checkpoint.Decode(bytes.NewReader(data))
	assert.Error(t, err)
}

func TestSaveLoadFile(t *testing.T) {
	model := newTestModel(t, 12, 3, []int{6})
	ck := checkpoint.FromClassifier(model)

	path := filepath.Join(t.TempDir(), "model.fern")
	require.NoError(t, checkpoint.Save(path, ck))

	loaded, err := checkpoint.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ck.Descriptor, loaded.Descriptor)
}

func TestReconstructRestoresModel(t *testing.T) {
	backend := cpu.New()
	original := newTestModel(t, 784, 10, []int{512, 256, 128})

	var buf bytes.Buffer
	require.NoError(t, checkpoint.Encode(&buf, checkpoint.FromClassifier(original)))
	decoded, err := checkpoint.Decode(&buf)
	require.NoError(t, err)

	restored, err := checkpoint.Reconstruct[float32](decoded, backend)
	require.NoError(t, err)

	assert.Equal(t, 784, restored.InputSize())
	assert.Equal(t, 10, restored.OutputSize())
	assert.Equal(t, []int{512, 256, 128}, restored.HiddenSizes())

	// Same weights, so the same logits for the same input.
	x := tensor.Rand[float32](tensor.Shape{2, 784}, backend)
	assert.InDeltaSlice(t,
		original.Forward(x).Data(),
		restored.Forward(x).Data(),
		1e-6)
}

func TestReconstructRejectsMismatchedState(t *testing.T) {
	// Parameters saved from a 400/200/100 network must not load into the
	// 512/256/128 architecture the descriptor claims.
	donor := newTestModel(t, 784, 10, []int{400, 200, 100})
	ck := checkpoint.FromClassifier(donor)
	ck.Descriptor.HiddenSizes = []int{512, 256, 128}

	_, err := checkpoint.Reconstruct[float32](ck, cpu.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, checkpoint.ErrArchitectureMismatch)
	// All six mismatched hidden parameters and the output weight are
	// enumerated together.
	for _, name := range []string{
		"hidden.0.weight", "hidden.1.weight", "hidden.2.weight", "output.weight",
	} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestOptimizerStateRoundTrip(t *testing.T) {
	model := newTestModel(t, 6, 2, []int{4})
	ck := checkpoint.FromClassifier(model)

	velocity, err := tensor.NewRaw(tensor.Shape{4, 6}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	velocity.AsFloat32()[0] = 0.5
	ck.OptimizerState = map[string]*tensor.RawTensor{
		"velocity.hidden.0.weight": velocity,
	}

	var buf bytes.Buffer
	require.NoError(t, checkpoint.Encode(&buf, ck))
	decoded, err := checkpoint.Decode(&buf)
	require.NoError(t, err)

	require.Contains(t, decoded.OptimizerState, "velocity.hidden.0.weight")
	assert.Equal(t, float32(0.5), decoded.OptimizerState["velocity.hidden.0.weight"].AsFloat32()[0])
}
