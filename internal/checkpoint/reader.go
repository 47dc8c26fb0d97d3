// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package checkpoint

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fern-ml/fern/internal/tensor"
)

// Decode reads a .fern checkpoint from r.
//
// Decoding verifies the magic, version, and SHA-256 checksum before
// trusting any metadata, and validates every tensor's metadata against the
// data section before allocating buffers.
func Decode(r io.Reader) (*Checkpoint, error) {
	fixed := make([]byte, fixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, fmt.Errorf("read fixed header: %w", err)
	}

	if string(fixed[offsetMagic:offsetMagic+4]) != Magic {
		return nil, fmt.Errorf("%w: got %q", ErrBadMagic, fixed[offsetMagic:offsetMagic+4])
	}
	version := binary.LittleEndian.Uint32(fixed[offsetVersion:])
	if version > Version {
		return nil, fmt.Errorf("%w: file is v%d, reader supports up to v%d", ErrUnsupportedVersion, version, Version)
	}

	headerSize := binary.LittleEndian.Uint64(fixed[offsetHeaderSize:])
	dataSize := binary.LittleEndian.Uint64(fixed[offsetDataSize:])

	body := make([]byte, headerSize+dataSize)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("%w: body truncated: %v", ErrHeaderCorrupt, err)
	}

	checksum := sha256.Sum256(body)
	if !bytes.Equal(checksum[:], fixed[offsetChecksum:offsetChecksum+sha256.Size]) {
		return nil, ErrChecksumMismatch
	}

	headerJSON := bytes.TrimRight(body[:headerSize], "\x00")
	var hdr header
	if err := json.Unmarshal(headerJSON, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHeaderCorrupt, err)
	}
	if err := hdr.Descriptor.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid descriptor: %v", ErrHeaderCorrupt, err)
	}

	data := body[headerSize:]
	state, err := readTensors(hdr.Tensors, data)
	if err != nil {
		return nil, err
	}
	optimState, err := readTensors(hdr.OptimizerTensors, data)
	if err != nil {
		return nil, err
	}
	if len(optimState) == 0 {
		optimState = nil
	}

	return &Checkpoint{
		Descriptor:     hdr.Descriptor,
		State:          state,
		OptimizerState: optimState,
		Training:       hdr.Training,
		RunID:          hdr.RunID,
		CreatedAt:      hdr.CreatedAt,
	}, nil
}

// Load decodes a checkpoint from a file.
func Load(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// readTensors materializes tensors from the data section per the metadata.
func readTensors(metas []TensorMeta, data []byte) (map[string]*tensor.RawTensor, error) {
	tensors := make(map[string]*tensor.RawTensor, len(metas))
	for _, meta := range metas {
		dtype, ok := tensor.ParseDataType(meta.DType)
		if !ok {
			return nil, fmt.Errorf("%w: tensor %q has unknown dtype %q", ErrHeaderCorrupt, meta.Name, meta.DType)
		}
		shape := tensor.Shape(meta.Shape)
		if err := shape.Validate(); err != nil {
			return nil, fmt.Errorf("%w: tensor %q has invalid shape %v: %v", ErrHeaderCorrupt, meta.Name, meta.Shape, err)
		}
		want := uint64(shape.NumElements() * dtype.Size())
		if meta.Size != want {
			return nil, fmt.Errorf("%w: tensor %q size %d does not match shape %v (%d bytes)",
				ErrHeaderCorrupt, meta.Name, meta.Size, meta.Shape, want)
		}
		if meta.Offset+meta.Size > uint64(len(data)) {
			return nil, fmt.Errorf("%w: tensor %q extends past data section", ErrHeaderCorrupt, meta.Name)
		}
		if _, exists := tensors[meta.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate tensor %q", ErrHeaderCorrupt, meta.Name)
		}

		raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
		if err != nil {
			return nil, fmt.Errorf("%w: tensor %q: %v", ErrHeaderCorrupt, meta.Name, err)
		}
		copy(raw.Data(), data[meta.Offset:meta.Offset+meta.Size])
		tensors[meta.Name] = raw
	}
	return tensors, nil
}
