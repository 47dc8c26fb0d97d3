// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package checkpoint implements the .fern checkpoint format: persistence
// for classifier parameters together with the architecture descriptor
// needed to rebuild the model, optional optimizer state, and training
// progress metadata.
//
// File layout:
//
//	[64-byte fixed header] [JSON header] [padding] [tensor data]
//
// The fixed header carries the magic, format version, section sizes, and a
// SHA-256 checksum of everything after it. The JSON header carries the
// architecture descriptor and per-tensor metadata (name, dtype, shape,
// offset). Tensor data is raw little-endian buffers, each aligned to a
// 64-byte boundary.
package checkpoint

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/fern-ml/fern/internal/tensor"
)

// Descriptor records a classifier architecture: everything needed to
// rebuild the network and derive every parameter shape.
type Descriptor struct {
	// InputSize is the input feature count.
	InputSize int `json:"input_size"`

	// OutputSize is the number of classes.
	OutputSize int `json:"output_size"`

	// HiddenSizes lists the hidden layer widths in order.
	HiddenSizes []int `json:"hidden_sizes"`
}

// Validate checks that all widths are positive and at least one hidden
// layer is present.
func (d Descriptor) Validate() error {
	var result *multierror.Error
	if d.InputSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("input size must be positive, got %d", d.InputSize))
	}
	if d.OutputSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("output size must be positive, got %d", d.OutputSize))
	}
	if len(d.HiddenSizes) == 0 {
		result = multierror.Append(result, fmt.Errorf("at least one hidden layer is required"))
	}
	for i, h := range d.HiddenSizes {
		if h <= 0 {
			result = multierror.Append(result, fmt.Errorf("hidden layer %d: width must be positive, got %d", i, h))
		}
	}
	return result.ErrorOrNil()
}

// String returns a compact architecture summary like "784-512-256-128-10".
func (d Descriptor) String() string {
	s := fmt.Sprintf("%d", d.InputSize)
	for _, h := range d.HiddenSizes {
		s += fmt.Sprintf("-%d", h)
	}
	return s + fmt.Sprintf("-%d", d.OutputSize)
}

// ParameterShapes returns the expected shape for every parameter
// identifier of the described architecture. Hidden layer i has weight
// [hidden[i], width(i-1)] where width(-1) is the input size; the output
// layer has weight [output_size, hidden[last]]. Every bias is the layer's
// output width.
func (d Descriptor) ParameterShapes() map[string]tensor.Shape {
	shapes := make(map[string]tensor.Shape, 2*(len(d.HiddenSizes)+1))
	in := d.InputSize
	for i, h := range d.HiddenSizes {
		shapes[fmt.Sprintf("hidden.%d.weight", i)] = tensor.Shape{h, in}
		shapes[fmt.Sprintf("hidden.%d.bias", i)] = tensor.Shape{h}
		in = h
	}
	shapes["output.weight"] = tensor.Shape{d.OutputSize, in}
	shapes["output.bias"] = tensor.Shape{d.OutputSize}
	return shapes
}
