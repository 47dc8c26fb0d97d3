// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fern-ml/fern/internal/tensor"
)

func fromFloat32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat32(), data)
	return raw
}

func TestAdd(t *testing.T) {
	b := New()
	x := fromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	y := fromFloat32(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	result := b.Add(x, y)
	assert.Equal(t, []float32{11, 22, 33, 44}, result.AsFloat32())
}

func TestAddBroadcastBias(t *testing.T) {
	b := New()
	x := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	bias := fromFloat32(t, []float32{10, 20, 30}, tensor.Shape{3})

	result := b.Add(x, bias)
	assert.Equal(t, tensor.Shape{2, 3}, result.Shape())
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, result.AsFloat32())
}

func TestMulBroadcastColumn(t *testing.T) {
	b := New()
	x := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	col := fromFloat32(t, []float32{2, 10}, tensor.Shape{2, 1})

	result := b.Mul(x, col)
	assert.Equal(t, []float32{2, 4, 6, 40, 50, 60}, result.AsFloat32())
}

func TestMatMul(t *testing.T) {
	b := New()
	// (2x3) @ (3x2) -> (2x2)
	x := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	y := fromFloat32(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	result := b.MatMul(x, y)
	assert.Equal(t, tensor.Shape{2, 2}, result.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, result.AsFloat32())
}

func TestTranspose2D(t *testing.T) {
	b := New()
	x := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	result := b.Transpose(x)
	assert.Equal(t, tensor.Shape{3, 2}, result.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, result.AsFloat32())
}

func TestReshape(t *testing.T) {
	b := New()
	x := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	result := b.Reshape(x, tensor.Shape{3, 2})
	assert.Equal(t, tensor.Shape{3, 2}, result.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, result.AsFloat32())
}

func TestReLU(t *testing.T) {
	b := New()
	x := fromFloat32(t, []float32{-1, 0, 2, -3}, tensor.Shape{4})

	result := b.ReLU(x)
	assert.Equal(t, []float32{0, 0, 2, 0}, result.AsFloat32())
}

func TestSoftmaxRowsSumToOne(t *testing.T) {
	b := New()
	x := fromFloat32(t, []float32{1, 2, 3, 1000, 1001, 1002}, tensor.Shape{2, 3})

	result := b.Softmax(x, 1)
	rv := result.AsFloat32()
	for r := 0; r < 2; r++ {
		var sum float32
		for c := 0; c < 3; c++ {
			sum += rv[r*3+c]
		}
		assert.InDelta(t, 1.0, sum, 1e-5, "row %d", r)
	}
	// Large logits must not overflow: both rows have the same relative
	// logits, so the same probabilities.
	for c := 0; c < 3; c++ {
		assert.InDelta(t, rv[c], rv[3+c], 1e-5)
	}
}

func TestSumDim(t *testing.T) {
	b := New()
	x := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	rows := b.SumDim(x, 0, false)
	assert.Equal(t, tensor.Shape{3}, rows.Shape())
	assert.Equal(t, []float32{5, 7, 9}, rows.AsFloat32())

	cols := b.SumDim(x, 1, true)
	assert.Equal(t, tensor.Shape{2, 1}, cols.Shape())
	assert.Equal(t, []float32{6, 15}, cols.AsFloat32())
}

func TestMeanDim(t *testing.T) {
	b := New()
	x := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	result := b.MeanDim(x, 1, false)
	assert.Equal(t, tensor.Shape{2}, result.Shape())
	assert.InDeltaSlice(t, []float32{2, 5}, result.AsFloat32(), 1e-6)
}

func TestSum(t *testing.T) {
	b := New()
	x := fromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})

	result := b.Sum(x)
	assert.Equal(t, tensor.Shape{1}, result.Shape())
	assert.Equal(t, float32(10), result.AsFloat32()[0])
}

func TestArgmax(t *testing.T) {
	b := New()
	x := fromFloat32(t, []float32{0.1, 0.9, 0.0, 0.3, 0.2, 0.5}, tensor.Shape{2, 3})

	result := b.Argmax(x, 1)
	assert.Equal(t, tensor.Shape{2}, result.Shape())
	assert.Equal(t, []int32{1, 2}, result.AsInt32())
}

func TestCast(t *testing.T) {
	b := New()
	raw, err := tensor.NewRaw(tensor.Shape{3}, tensor.Uint8, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsUint8(), []uint8{0, 128, 255})

	result := b.Cast(raw, tensor.Float32)
	assert.Equal(t, tensor.Float32, result.DType())
	assert.InDeltaSlice(t, []float32{0, 128, 255}, result.AsFloat32(), 1e-6)
}

func TestDivScalarOpsAndExpLog(t *testing.T) {
	b := New()
	x := fromFloat32(t, []float32{1, 2, 4}, tensor.Shape{3})

	half := b.MulScalar(x, float32(0.5))
	assert.InDeltaSlice(t, []float32{0.5, 1, 2}, half.AsFloat32(), 1e-6)

	shifted := b.AddScalar(x, float32(1))
	assert.InDeltaSlice(t, []float32{2, 3, 5}, shifted.AsFloat32(), 1e-6)

	// log(exp(x)) == x
	roundTrip := b.Log(b.Exp(x))
	assert.InDeltaSlice(t, []float32{1, 2, 4}, roundTrip.AsFloat32(), 1e-5)
}
