// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package mnist loads MNIST-style datasets stored in the IDX binary
// format, and can synthesize a stand-in dataset when the real files are
// not on disk.
package mnist

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
)

// IDX magic numbers: dtype byte 0x08 (unsigned byte) plus dimension count.
const (
	imagesMagic uint32 = 0x00000803 // 3 dimensions: count, rows, cols
	labelsMagic uint32 = 0x00000801 // 1 dimension: count
)

// ReadImages reads an IDX image file (t10k-images-idx3-ubyte and friends),
// returning the raw pixels and the image geometry. Transparently handles
// gzip-compressed files.
func ReadImages(path string) (pixels []byte, count, rows, cols int, err error) {
	r, closeFn, err := openIDX(path)
	if err != nil {
		return nil, 0, 0, 0, err
	}
	defer closeFn()

	var headerFields [4]uint32
	for i := range headerFields {
		if err := binary.Read(r, binary.BigEndian, &headerFields[i]); err != nil {
			return nil, 0, 0, 0, fmt.Errorf("read IDX header: %w", err)
		}
	}
	if headerFields[0] != imagesMagic {
		return nil, 0, 0, 0, fmt.Errorf("%s: bad IDX magic 0x%08x, want 0x%08x", path, headerFields[0], imagesMagic)
	}
	count, rows, cols = int(headerFields[1]), int(headerFields[2]), int(headerFields[3])

	pixels = make([]byte, count*rows*cols)
	if _, err := io.ReadFull(r, pixels); err != nil {
		return nil, 0, 0, 0, fmt.Errorf("read %d images: %w", count, err)
	}
	return pixels, count, rows, cols, nil
}

// ReadLabels reads an IDX label file, returning one class index per
// sample.
func ReadLabels(path string) ([]byte, error) {
	r, closeFn, err := openIDX(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var magic, count uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("read IDX header: %w", err)
	}
	if magic != labelsMagic {
		return nil, fmt.Errorf("%s: bad IDX magic 0x%08x, want 0x%08x", path, magic, labelsMagic)
	}
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("read IDX header: %w", err)
	}

	labels := make([]byte, count)
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, fmt.Errorf("read %d labels: %w", count, err)
	}
	return labels, nil
}

// openIDX opens an IDX file, wrapping it in a gzip reader when the name
// ends in .gz.
func openIDX(path string) (io.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open IDX file: %w", err)
	}

	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("open gzip stream: %w", err)
		}
		return gz, func() error {
			gz.Close()
			return f.Close()
		}, nil
	}
	return bufio.NewReader(f), f.Close, nil
}
