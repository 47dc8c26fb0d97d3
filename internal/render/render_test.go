// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImage(t *testing.T) {
	out := Image([]float32{0, 1, 0.5, 0}, 2, 2)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, " @", lines[0])
	assert.Equal(t, byte(' '), lines[1][1])
	// Mid-intensity maps into the interior of the ramp.
	assert.NotEqual(t, byte(' '), lines[1][0])
	assert.NotEqual(t, byte('@'), lines[1][0])
}

func TestImageClampsOutOfRange(t *testing.T) {
	out := Image([]float32{-0.5, 1.5}, 1, 2)
	assert.Equal(t, " @\n", out)
}

func TestProbabilities(t *testing.T) {
	out := Probabilities([]float32{0.75, 0.25}, nil, 4)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "0")
	assert.Contains(t, lines[0], "75.00%")
	assert.Equal(t, 3, strings.Count(lines[0], "█"))
	assert.Contains(t, lines[1], "25.00%")
	assert.Equal(t, 1, strings.Count(lines[1], "█"))
}

func TestProbabilitiesWithLabels(t *testing.T) {
	out := Probabilities([]float32{1.0}, []string{"seven"}, 10)
	assert.Contains(t, out, "seven")
	assert.Contains(t, out, "100.00%")
	assert.Equal(t, 10, strings.Count(out, "█"))
}
