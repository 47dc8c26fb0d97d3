// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package checkpoint

import "errors"

// Sentinel errors for checkpoint decoding. Wrap details with %w so callers
// can branch with errors.Is.
var (
	// ErrBadMagic means the file does not start with the FERN magic.
	ErrBadMagic = errors.New("not a fern checkpoint: bad magic")

	// ErrUnsupportedVersion means the file's format version is newer than
	// this reader understands.
	ErrUnsupportedVersion = errors.New("unsupported checkpoint version")

	// ErrHeaderCorrupt means the JSON header could not be parsed or its
	// tensor metadata is inconsistent with the data section.
	ErrHeaderCorrupt = errors.New("checkpoint header corrupt")

	// ErrChecksumMismatch means the file's contents do not match the
	// checksum recorded in the fixed header.
	ErrChecksumMismatch = errors.New("checkpoint checksum mismatch")

	// ErrArchitectureMismatch means a state dict does not fit the model it
	// was loaded into.
	ErrArchitectureMismatch = errors.New("checkpoint does not match model architecture")
)
