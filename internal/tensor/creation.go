// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err) // shape validation should prevent this
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, 1, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor with values drawn from the standard normal
// distribution N(0, 1) via the Box-Muller transform. Float types only.
// Uses math/rand, not crypto/rand: seeded reproducibility matters for ML.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	var dummy T
	switch any(dummy).(type) {
	case float32:
		data := any(t.Data()).([]float32)
		for i := 0; i < len(data); i += 2 {
			u1 := rand.Float64()
			u2 := rand.Float64()
			r := math.Sqrt(-2.0 * math.Log(u1))
			data[i] = float32(r * math.Cos(2.0*math.Pi*u2))
			if i+1 < len(data) {
				data[i+1] = float32(r * math.Sin(2.0*math.Pi*u2))
			}
		}
	case float64:
		data := any(t.Data()).([]float64)
		for i := 0; i < len(data); i += 2 {
			u1 := rand.Float64()
			u2 := rand.Float64()
			r := math.Sqrt(-2.0 * math.Log(u1))
			data[i] = r * math.Cos(2.0*math.Pi*u2)
			if i+1 < len(data) {
				data[i+1] = r * math.Sin(2.0*math.Pi*u2)
			}
		}
	default:
		panic("Randn only supports float32 and float64 types")
	}
	return t
}

// Rand creates a tensor with values uniformly distributed in [0, 1).
// Float types only.
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	var dummy T
	switch any(dummy).(type) {
	case float32:
		data := any(t.Data()).([]float32)
		for i := range data {
			data[i] = rand.Float32()
		}
	case float64:
		data := any(t.Data()).([]float64)
		for i := range data {
			data[i] = rand.Float64()
		}
	default:
		panic("Rand only supports float32 and float64 types")
	}
	return t
}

// Arange creates a 1D tensor with values from start to end (exclusive),
// step 1.
func Arange[T DType, B Backend](start, end T, b B) *Tensor[T, B] {
	n := int(float64(end) - float64(start))
	if n <= 0 {
		panic("Arange: end must be greater than start")
	}
	t := Zeros[T, B](Shape{n}, b)
	data := t.Data()
	for i := range data {
		data[i] = start + T(i)
	}
	return t
}
