// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fern-ml/fern/internal/autodiff"
	"github.com/fern-ml/fern/internal/backend/cpu"
	"github.com/fern-ml/fern/internal/checkpoint"
	"github.com/fern-ml/fern/internal/render"
	"github.com/fern-ml/fern/internal/tensor"
)

var predictCmd = &cobra.Command{
	Use:   "predict <checkpoint.fern>",
	Short: "Classify one sample and show class probabilities",
	Args:  cobra.ExactArgs(1),
	RunE:  runPredict,
}

func init() {
	flags := predictCmd.Flags()
	flags.String("data-dir", "", "directory with MNIST IDX files")
	flags.Bool("synthetic", false, "draw the sample from a synthetic dataset")
	flags.Int("index", 0, "sample index within the test split")
	flags.Int64("seed", 42, "random seed for the synthetic dataset")
	flags.Bool("show-image", true, "render the sample as ASCII art")
}

func runPredict(cmd *cobra.Command, args []string) error {
	ck, err := checkpoint.Load(args[0])
	if err != nil {
		return err
	}

	backend := autodiff.New(cpu.New())
	model, err := checkpoint.Reconstruct[float32](ck, backend)
	if err != nil {
		return err
	}

	synthetic, _ := cmd.Flags().GetBool("synthetic")
	seed, _ := cmd.Flags().GetInt64("seed")
	index, _ := cmd.Flags().GetInt("index")
	showImage, _ := cmd.Flags().GetBool("show-image")

	testSet, err := loadEvalSet(cmd, synthetic, seed, ck.Descriptor.InputSize, ck.Descriptor.OutputSize)
	if err != nil {
		return err
	}
	if index < 0 || index >= testSet.NumSamples {
		return fmt.Errorf("index %d out of range: dataset has %d samples", index, testSet.NumSamples)
	}

	sample := testSet.Sample(index)
	x, err := tensor.FromSlice(sample, tensor.Shape{1, testSet.InputSize}, backend)
	if err != nil {
		return err
	}

	probs := model.Forward(x).Softmax(1)
	predicted := int(probs.Argmax(1).Data()[0])

	out := cmd.OutOrStdout()
	if showImage {
		// MNIST images are square; fall back to one row otherwise.
		side := squareSide(testSet.InputSize)
		if side > 0 {
			fmt.Fprintln(out, render.Image(sample, side, side))
		}
	}
	fmt.Fprintf(out, "predicted: %d    actual: %d\n\n", predicted, testSet.Labels[index])
	fmt.Fprint(out, render.Probabilities(probs.Data(), nil, 40))
	return nil
}

// squareSide returns s when n == s*s, otherwise 0.
func squareSide(n int) int {
	for s := 1; s*s <= n; s++ {
		if s*s == n {
			return s
		}
	}
	return 0
}
