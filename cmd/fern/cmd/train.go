// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/fern-ml/fern/internal/backend/cpu"
	"github.com/fern-ml/fern/internal/mnist"
	"github.com/fern-ml/fern/internal/train"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a classifier and write checkpoints",
	RunE:  runTrain,
}

func init() {
	flags := trainCmd.Flags()
	flags.String("data-dir", "", "directory with MNIST IDX files")
	flags.Bool("synthetic", false, "train on a synthetic dataset instead of files")
	flags.Int("epochs", 5, "number of training epochs")
	flags.Int("batch-size", 64, "mini-batch size")
	flags.Float64("learning-rate", 0.01, "optimizer learning rate")
	flags.Float64("momentum", 0.9, "SGD momentum")
	flags.String("optimizer", "sgd", "optimizer: sgd or adam")
	flags.IntSlice("hidden-sizes", []int{512, 256, 128}, "hidden layer widths")
	flags.String("checkpoint-dir", ".", "directory for checkpoint files")
	flags.Int("checkpoint-every", 0, "save a checkpoint every N epochs (0: final only)")
	flags.Int64("seed", 42, "random seed")

	viper.BindPFlags(flags)
}

func runTrain(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg := train.Config{
		Epochs:          viper.GetInt("epochs"),
		BatchSize:       viper.GetInt("batch-size"),
		LearningRate:    viper.GetFloat64("learning-rate"),
		Momentum:        viper.GetFloat64("momentum"),
		Optimizer:       viper.GetString("optimizer"),
		HiddenSizes:     viper.GetIntSlice("hidden-sizes"),
		CheckpointDir:   viper.GetString("checkpoint-dir"),
		CheckpointEvery: viper.GetInt("checkpoint-every"),
		Seed:            viper.GetInt64("seed"),
	}

	trainSet, testSet, err := loadDatasets(cfg.Seed)
	if err != nil {
		return err
	}

	trainer, err := train.New(trainSet.InputSize, trainSet.NumClasses, cfg, cpu.New(), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loss, err := trainer.Run(ctx, trainSet, testSet)
	if err != nil {
		return err
	}
	logger.Info("training complete",
		zap.String("run_id", trainer.RunID()),
		zap.Float64("final_loss", loss),
	)
	return nil
}

// loadDatasets loads the train and test splits from --data-dir, or
// synthesizes both when --synthetic is set.
func loadDatasets(seed int64) (trainSet, testSet *mnist.Dataset, err error) {
	if viper.GetBool("synthetic") {
		trainSet = mnist.Synthetic(4096, 784, 10, seed)
		testSet = mnist.Synthetic(512, 784, 10, seed+1)
		return trainSet, testSet, nil
	}

	dir := viper.GetString("data-dir")
	if dir == "" {
		return nil, nil, fmt.Errorf("either --data-dir or --synthetic is required")
	}
	trainSet, err = mnist.Load(dir, true)
	if err != nil {
		return nil, nil, err
	}
	testSet, err = mnist.Load(dir, false)
	if err != nil {
		return nil, nil, err
	}
	return trainSet, testSet, nil
}
