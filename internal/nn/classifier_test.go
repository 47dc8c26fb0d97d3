// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fern-ml/fern/internal/backend/cpu"
	"github.com/fern-ml/fern/internal/nn"
	"github.com/fern-ml/fern/internal/tensor"
)

func TestClassifierParameterShapes(t *testing.T) {
	backend := cpu.New()
	model, err := nn.NewClassifier[float32](784, 10, []int{512, 256, 128}, backend)
	require.NoError(t, err)

	state := model.StateDict()
	want := map[string]tensor.Shape{
		"hidden.0.weight": {512, 784},
		"hidden.0.bias":   {512},
		"hidden.1.weight": {256, 512},
		"hidden.1.bias":   {256},
		"hidden.2.weight": {128, 256},
		"hidden.2.bias":   {128},
		"output.weight":   {10, 128},
		"output.bias":     {10},
	}

	require.Len(t, state, len(want))
	for name, shape := range want {
		raw, ok := state[name]
		require.True(t, ok, "missing %s", name)
		assert.Equal(t, shape, raw.Shape(), name)
	}
}

func TestClassifierForwardShape(t *testing.T) {
	backend := cpu.New()
	model, err := nn.NewClassifier[float32](784, 10, []int{64, 32}, backend)
	require.NoError(t, err)

	x := tensor.Rand[float32](tensor.Shape{16, 784}, backend)
	logits := model.Forward(x)
	assert.Equal(t, tensor.Shape{16, 10}, logits.Shape())
}

func TestClassifierRejectsInvalidArchitecture(t *testing.T) {
	backend := cpu.New()

	_, err := nn.NewClassifier[float32](0, 10, []int{64}, backend)
	assert.Error(t, err)

	_, err = nn.NewClassifier[float32](784, 10, nil, backend)
	assert.Error(t, err)

	_, err = nn.NewClassifier[float32](784, 10, []int{64, -1}, backend)
	assert.Error(t, err)
}

func TestClassifierLoadStateDictRoundTrip(t *testing.T) {
	backend := cpu.New()
	source, err := nn.NewClassifier[float32](20, 4, []int{8}, backend)
	require.NoError(t, err)
	dest, err := nn.NewClassifier[float32](20, 4, []int{8}, backend)
	require.NoError(t, err)

	require.NoError(t, dest.LoadStateDict(source.StateDict()))

	for name, raw := range source.StateDict() {
		assert.Equal(t, raw.AsFloat32(), dest.StateDict()[name].AsFloat32(), name)
	}
}

func TestClassifierLoadStateDictEnumeratesAllMismatches(t *testing.T) {
	backend := cpu.New()
	// Weights trained on a 400/200/100 network do not fit a 512/256/128
	// one; every layer disagrees and every disagreement must be reported.
	source, err := nn.NewClassifier[float32](784, 10, []int{400, 200, 100}, backend)
	require.NoError(t, err)
	dest, err := nn.NewClassifier[float32](784, 10, []int{512, 256, 128}, backend)
	require.NoError(t, err)

	before := make(map[string][]float32)
	for name, raw := range dest.StateDict() {
		before[name] = append([]float32(nil), raw.AsFloat32()...)
	}

	err = dest.LoadStateDict(source.StateDict())
	require.Error(t, err)

	// Every mismatched parameter appears in the single error. Only the
	// first hidden weight ([512, 784] vs [400, 784]) and all downstream
	// layers differ; input width alone makes nothing match except nothing.
	for _, name := range []string{
		"hidden.0.weight", "hidden.0.bias",
		"hidden.1.weight", "hidden.1.bias",
		"hidden.2.weight", "hidden.2.bias",
		"output.weight",
	} {
		assert.Contains(t, err.Error(), name)
	}

	// No partial application: the destination is untouched.
	for name, raw := range dest.StateDict() {
		assert.Equal(t, before[name], raw.AsFloat32(), name)
	}
}

func TestClassifierLoadStateDictMissingAndUnknown(t *testing.T) {
	backend := cpu.New()
	model, err := nn.NewClassifier[float32](10, 2, []int{4}, backend)
	require.NoError(t, err)

	state := model.StateDict()
	delete(state, "output.bias")
	extra, err2 := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err2)
	state["decoder.weight"] = extra

	err = model.LoadStateDict(state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing parameter "output.bias"`)
	assert.Contains(t, err.Error(), `unknown parameter "decoder.weight"`)
}

func TestLinearForward(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear[float32](3, 2, backend)

	// Overwrite the random init with known values.
	copy(layer.Weight().Raw().AsFloat32(), []float32{1, 0, 0, 0, 1, 0})
	copy(layer.Bias().Raw().AsFloat32(), []float32{10, 20})

	x, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{1, 3}, backend)
	require.NoError(t, err)

	y := layer.Forward(x)
	assert.Equal(t, tensor.Shape{1, 2}, y.Shape())
	assert.InDeltaSlice(t, []float32{11, 22}, y.Data(), 1e-6)
}

func TestSequentialStateDictKeys(t *testing.T) {
	backend := cpu.New()
	seq := nn.NewSequential[float32, *cpu.Backend](
		nn.NewLinear[float32](4, 3, backend),
		nn.NewReLU[float32, *cpu.Backend](),
		nn.NewLinear[float32](3, 2, backend),
	)

	state := seq.StateDict()
	for _, key := range []string{"0.weight", "0.bias", "2.weight", "2.bias"} {
		assert.Contains(t, state, key)
	}
	assert.Len(t, state, 4)

	require.NoError(t, seq.LoadStateDict(state))
}

func TestAccuracy(t *testing.T) {
	backend := cpu.New()
	logits, err := tensor.FromSlice([]float32{
		0.9, 0.1, // predicts 0
		0.2, 0.8, // predicts 1
		0.7, 0.3, // predicts 0
	}, tensor.Shape{3, 2}, backend)
	require.NoError(t, err)
	targets, err := tensor.FromSlice([]int32{0, 1, 1}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	assert.InDelta(t, 2.0/3.0, nn.Accuracy(logits, targets), 1e-9)
}

func TestCrossEntropyLossUniformLogits(t *testing.T) {
	backend := cpu.New()
	// Uniform logits give loss = ln(num_classes).
	logits := tensor.Zeros[float32](tensor.Shape{4, 10}, backend)
	targets, err := tensor.FromSlice([]int32{0, 3, 5, 9}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	loss := nn.NewCrossEntropyLoss[float32, *cpu.Backend]().Forward(logits, targets)
	assert.InDelta(t, 2.302585, float64(loss.Item()), 1e-4)
}

func TestXavierUniformBounds(t *testing.T) {
	backend := cpu.New()
	w := tensor.Zeros[float32](tensor.Shape{100, 50}, backend)
	nn.XavierUniform(w, 50, 100)

	// limit = sqrt(6/150) ≈ 0.2; allow slack for float conversion.
	var nonZero int
	for _, v := range w.Data() {
		if v != 0 {
			nonZero++
		}
		assert.LessOrEqual(t, v, float32(0.3))
		assert.GreaterOrEqual(t, v, float32(-0.3))
	}
	assert.Greater(t, nonZero, 4000, "init should touch nearly every element")
}
