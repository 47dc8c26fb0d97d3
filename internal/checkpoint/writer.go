// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package checkpoint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fern-ml/fern/internal/tensor"
)

// Encode writes the checkpoint to w in the .fern binary format.
//
// Tensor order is deterministic: names are sorted, so encoding the same
// checkpoint twice produces byte-identical output apart from CreatedAt.
func Encode(w io.Writer, ck *Checkpoint) error {
	if err := ck.Descriptor.Validate(); err != nil {
		return fmt.Errorf("invalid descriptor: %w", err)
	}

	// Lay out tensors: model parameters first, then optimizer state, each
	// buffer aligned.
	var offset uint64
	modelMetas, offset := layoutTensors(ck.State, offset)
	optimMetas, offset := layoutTensors(ck.OptimizerState, offset)
	dataSize := offset

	createdAt := ck.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	headerJSON, err := json.Marshal(header{
		Descriptor:       ck.Descriptor,
		Tensors:          modelMetas,
		OptimizerTensors: optimMetas,
		Training:         ck.Training,
		RunID:            ck.RunID,
		CreatedAt:        createdAt,
	})
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}

	// Pad the JSON header so the data section starts aligned.
	paddedHeaderSize := alignUp(fixedHeaderSize+uint64(len(headerJSON))) - fixedHeaderSize

	body := make([]byte, paddedHeaderSize+dataSize)
	copy(body, headerJSON)
	writeTensorData(body[paddedHeaderSize:], ck.State, modelMetas)
	writeTensorData(body[paddedHeaderSize:], ck.OptimizerState, optimMetas)

	fixed := make([]byte, fixedHeaderSize)
	copy(fixed[offsetMagic:], Magic)
	binary.LittleEndian.PutUint32(fixed[offsetVersion:], Version)
	binary.LittleEndian.PutUint32(fixed[offsetFlags:], 0)
	binary.LittleEndian.PutUint64(fixed[offsetHeaderSize:], paddedHeaderSize)
	binary.LittleEndian.PutUint64(fixed[offsetDataSize:], dataSize)
	checksum := sha256.Sum256(body)
	copy(fixed[offsetChecksum:], checksum[:])

	if _, err := w.Write(fixed); err != nil {
		return fmt.Errorf("write fixed header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

// Save encodes the checkpoint to a file. The file is written to a temporary
// path and renamed into place, so an interrupted save never leaves a
// truncated checkpoint behind.
func Save(path string, ck *Checkpoint) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".fern-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := Encode(tmp, ck); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename checkpoint into place: %w", err)
	}
	return nil
}

// layoutTensors assigns aligned offsets to the tensors in name order,
// starting at base. Returns the metadata and the offset past the last
// buffer.
func layoutTensors(state map[string]*tensor.RawTensor, base uint64) ([]TensorMeta, uint64) {
	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	metas := make([]TensorMeta, 0, len(names))
	offset := base
	for _, name := range names {
		t := state[name]
		size := uint64(t.ByteSize())
		metas = append(metas, TensorMeta{
			Name:   name,
			DType:  t.DType().String(),
			Shape:  append([]int(nil), t.Shape()...),
			Offset: offset,
			Size:   size,
		})
		offset = alignUp(offset + size)
	}
	return metas, offset
}

// writeTensorData copies each tensor's bytes into data at its assigned
// offset.
func writeTensorData(data []byte, state map[string]*tensor.RawTensor, metas []TensorMeta) {
	for _, meta := range metas {
		copy(data[meta.Offset:meta.Offset+meta.Size], state[meta.Name].Data())
	}
}
