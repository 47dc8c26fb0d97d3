// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package checkpoint provides the public API for the .fern checkpoint
// format: saving and loading classifier parameters together with the
// architecture descriptor needed to rebuild the model.
package checkpoint

import (
	"io"

	"github.com/fern-ml/fern/internal/checkpoint"
	"github.com/fern-ml/fern/internal/nn"
	"github.com/fern-ml/fern/internal/tensor"
)

// Descriptor records a classifier architecture.
type Descriptor = checkpoint.Descriptor

// Checkpoint is the in-memory form of a .fern file.
type Checkpoint = checkpoint.Checkpoint

// TensorMeta describes one serialized tensor.
type TensorMeta = checkpoint.TensorMeta

// TrainingMeta records training progress at save time.
type TrainingMeta = checkpoint.TrainingMeta

// Sentinel errors for checkpoint decoding, usable with errors.Is.
var (
	ErrBadMagic             = checkpoint.ErrBadMagic
	ErrUnsupportedVersion   = checkpoint.ErrUnsupportedVersion
	ErrHeaderCorrupt        = checkpoint.ErrHeaderCorrupt
	ErrChecksumMismatch     = checkpoint.ErrChecksumMismatch
	ErrArchitectureMismatch = checkpoint.ErrArchitectureMismatch
)

// Encode writes the checkpoint to w in the .fern binary format.
func Encode(w io.Writer, ck *Checkpoint) error {
	return checkpoint.Encode(w, ck)
}

// Decode reads a .fern checkpoint from r, verifying magic, version, and
// checksum.
func Decode(r io.Reader) (*Checkpoint, error) {
	return checkpoint.Decode(r)
}

// Save encodes the checkpoint to a file, atomically.
func Save(path string, ck *Checkpoint) error {
	return checkpoint.Save(path, ck)
}

// Load decodes a checkpoint from a file.
func Load(path string) (*Checkpoint, error) {
	return checkpoint.Load(path)
}

// FromClassifier builds a checkpoint from a model's current parameters.
func FromClassifier[T tensor.DType, B tensor.Backend](model *nn.Classifier[T, B]) *Checkpoint {
	return checkpoint.FromClassifier(model)
}

// Reconstruct builds a classifier from the checkpoint's descriptor and
// loads the saved parameters into it, validating exhaustively.
func Reconstruct[T tensor.DType, B tensor.Backend](ck *Checkpoint, backend B) (*nn.Classifier[T, B], error) {
	return checkpoint.Reconstruct[T, B](ck, backend)
}

// ReconstructInto loads the checkpoint's parameters into an existing
// model of matching architecture.
func ReconstructInto[T tensor.DType, B tensor.Backend](ck *Checkpoint, model *nn.Classifier[T, B]) error {
	return checkpoint.ReconstructInto(ck, model)
}
