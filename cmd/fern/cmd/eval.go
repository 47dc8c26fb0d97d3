// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fern-ml/fern/internal/autodiff"
	"github.com/fern-ml/fern/internal/backend/cpu"
	"github.com/fern-ml/fern/internal/checkpoint"
	"github.com/fern-ml/fern/internal/mnist"
	"github.com/fern-ml/fern/internal/train"
)

var evalCmd = &cobra.Command{
	Use:   "eval <checkpoint.fern>",
	Short: "Evaluate a checkpoint against a dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runEval,
}

func init() {
	flags := evalCmd.Flags()
	flags.String("data-dir", "", "directory with MNIST IDX files")
	flags.Bool("synthetic", false, "evaluate on a synthetic dataset")
	flags.Int("batch-size", 64, "evaluation batch size")
	flags.Int64("seed", 42, "random seed for the synthetic dataset")
}

func runEval(cmd *cobra.Command, args []string) error {
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
	batchSize, _ := cmd.Flags().GetInt("batch-size")

	testSet, err := loadEvalSet(cmd, synthetic, seed, ck.Descriptor.InputSize, ck.Descriptor.OutputSize)
	if err != nil {
		return err
	}

	loss, accuracy := train.Evaluate(model, backend, testSet, batchSize)
	fmt.Fprintf(cmd.OutOrStdout(), "checkpoint:  %s\n", args[0])
	fmt.Fprintf(cmd.OutOrStdout(), "architecture: %s\n", ck.Descriptor)
	fmt.Fprintf(cmd.OutOrStdout(), "samples:     %d\n", testSet.NumSamples)
	fmt.Fprintf(cmd.OutOrStdout(), "loss:        %.4f\n", loss)
	fmt.Fprintf(cmd.OutOrStdout(), "accuracy:    %.2f%%\n", accuracy*100)
	return nil
}

func loadEvalSet(cmd *cobra.Command, synthetic bool, seed int64, inputSize, numClasses int) (*mnist.Dataset, error) {
	if synthetic {
		return mnist.Synthetic(512, inputSize, numClasses, seed+1), nil
	}
	dir, _ := cmd.Flags().GetString("data-dir")
	if dir == "" {
		dir = viper.GetString("data-dir")
	}
	if dir == "" {
		return nil, fmt.Errorf("either --data-dir or --synthetic is required")
	}
	return mnist.Load(dir, false)
}
