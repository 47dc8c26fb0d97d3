// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package render draws terminal views of samples and predictions: an
// ASCII rendering of a grayscale image next to a class probability bar
// chart.
package render

import (
	"fmt"
	"strings"
)

// ramp maps intensity to density, darkest to brightest.
const ramp = " .:-=+*#%@"

// Image renders a grayscale image (values in [0, 1], row-major
// rows x cols) as ASCII art, one character per pixel.
func Image(pixels []float32, rows, cols int) string {
	var sb strings.Builder
	sb.Grow(rows * (cols + 1))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := pixels[r*cols+c]
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			idx := int(v * float32(len(ramp)-1))
			sb.WriteByte(ramp[idx])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Probabilities renders a horizontal bar chart of class probabilities.
// Labels may be nil, in which case class indices are used.
func Probabilities(probs []float32, labels []string, width int) string {
	if width <= 0 {
		width = 40
	}

	var sb strings.Builder
	for i, p := range probs {
		label := fmt.Sprintf("%d", i)
		if i < len(labels) {
			label = labels[i]
		}
		filled := int(p * float32(width))
		if filled > width {
			filled = width
		}
		sb.WriteString(fmt.Sprintf("%8s %6.2f%% %s\n",
			label, p*100, strings.Repeat("█", filled)))
	}
	return sb.String()
}
