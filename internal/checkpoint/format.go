// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package checkpoint

import (
	"time"

	"github.com/fern-ml/fern/internal/tensor"
)

// Binary format constants.
const (
	// Magic identifies a .fern checkpoint file.
	Magic = "FERN"

	// Version is the current format version.
	Version uint32 = 1

	// fixedHeaderSize is the size of the fixed header preceding the JSON
	// header.
	fixedHeaderSize = 64

	// alignment is the boundary each tensor buffer is aligned to. Aligned
	// offsets let readers map buffers directly into SIMD-friendly slices.
	alignment = 64
)

// Fixed header field offsets.
const (
	offsetMagic      = 0x00 // 4 bytes
	offsetVersion    = 0x04 // uint32 LE
	offsetFlags      = 0x08 // uint32 LE, reserved
	offsetHeaderSize = 0x10 // uint64 LE, JSON header length
	offsetDataSize   = 0x18 // uint64 LE, tensor data length including padding
	offsetChecksum   = 0x20 // 32 bytes, SHA-256 of JSON header + data
)

// TensorMeta describes one serialized tensor within the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset uint64 `json:"offset"`
	Size   uint64 `json:"size"`
}

// TrainingMeta records training progress at save time.
type TrainingMeta struct {
	Epoch     int     `json:"epoch"`
	Step      int     `json:"step"`
	Loss      float64 `json:"loss"`
	Optimizer string  `json:"optimizer,omitempty"`
}

// header is the JSON header serialized after the fixed header.
type header struct {
	Descriptor       Descriptor    `json:"descriptor"`
	Tensors          []TensorMeta  `json:"tensors"`
	OptimizerTensors []TensorMeta  `json:"optimizer_tensors,omitempty"`
	Training         *TrainingMeta `json:"training,omitempty"`
	RunID            string        `json:"run_id,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

// Checkpoint is the in-memory form of a .fern file: the architecture
// descriptor, the model parameters keyed by layer identifier, and optional
// training state.
type Checkpoint struct {
	// Descriptor records the architecture the parameters belong to.
	Descriptor Descriptor

	// State maps layer identifiers to parameter tensors.
	State map[string]*tensor.RawTensor

	// OptimizerState maps optimizer state identifiers (for example
	// "velocity.hidden.0.weight") to tensors. May be nil.
	OptimizerState map[string]*tensor.RawTensor

	// Training records progress at save time. May be nil for checkpoints
	// that only carry parameters.
	Training *TrainingMeta

	// RunID identifies the training run that produced the checkpoint.
	RunID string

	// CreatedAt is the save timestamp.
	CreatedAt time.Time
}

// alignUp rounds n up to the next multiple of alignment.
func alignUp(n uint64) uint64 {
	return (n + alignment - 1) &^ (alignment - 1)
}
