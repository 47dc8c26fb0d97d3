// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/fern-ml/fern/internal/tensor"
)

// MatMul performs 2D matrix multiplication: [M, K] @ [K, N] -> [M, N].
//
// Float32 matrices are multiplied with gonum's BLAS sgemm. Float64 falls
// back to a naive triple loop; it only appears in tests.
func (c *Backend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %v and %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: inner dimensions do not match: %v @ %v", aShape, bShape))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch: %s vs %s", a.DType(), b.DType()))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]
	result, err := tensor.NewRaw(tensor.Shape{m, n}, a.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: failed to create result tensor: %v", err))
	}

	switch a.DType() {
	case tensor.Float32:
		A := blas32.General{Rows: m, Cols: k, Stride: k, Data: a.AsFloat32()}
		B := blas32.General{Rows: k, Cols: n, Stride: n, Data: b.AsFloat32()}
		C := blas32.General{Rows: m, Cols: n, Stride: n, Data: result.AsFloat32()}
		blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, A, B, 0, C)

	case tensor.Float64:
		av, bv, rv := a.AsFloat64(), b.AsFloat64(), result.AsFloat64()
		for i := 0; i < m; i++ {
			for l := 0; l < k; l++ {
				x := av[i*k+l]
				if x == 0 {
					continue
				}
				for j := 0; j < n; j++ {
					rv[i*n+j] += x * bv[l*n+j]
				}
			}
		}

	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}

	return result
}
