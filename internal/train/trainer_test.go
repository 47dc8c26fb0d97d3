// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fern-ml/fern/internal/backend/cpu"
	"github.com/fern-ml/fern/internal/checkpoint"
	"github.com/fern-ml/fern/internal/mnist"
	"github.com/fern-ml/fern/internal/train"
)

func smallConfig() train.Config {
	cfg := train.DefaultConfig()
	cfg.Epochs = 3
	cfg.BatchSize = 32
	cfg.LearningRate = 0.1
	cfg.HiddenSizes = []int{32, 16}
	return cfg
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, train.DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*train.Config)
	}{
		{"zero epochs", func(c *train.Config) { c.Epochs = 0 }},
		{"zero batch size", func(c *train.Config) { c.BatchSize = 0 }},
		{"negative learning rate", func(c *train.Config) { c.LearningRate = -1 }},
		{"unknown optimizer", func(c *train.Config) { c.Optimizer = "lbfgs" }},
		{"no hidden layers", func(c *train.Config) { c.HiddenSizes = nil }},
		{"zero-width hidden layer", func(c *train.Config) { c.HiddenSizes = []int{512, 0} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := train.DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Epochs = 0
	_, err := train.New(16, 4, cfg, cpu.New(), nil)
	assert.Error(t, err)
}

func TestStepReturnsFiniteLoss(t *testing.T) {
	trainer, err := train.New(16, 4, smallConfig(), cpu.New(), nil)
	require.NoError(t, err)

	ds := mnist.Synthetic(32, 16, 4, 1)
	batches := ds.Batches(32, nil)
	require.Len(t, batches, 1)

	loss, err := trainer.Step(batches[0])
	require.NoError(t, err)
	assert.Greater(t, loss, 0.0)
	assert.Less(t, loss, 100.0)
}

func TestTrainingReducesLoss(t *testing.T) {
	trainer, err := train.New(16, 4, smallConfig(), cpu.New(), nil)
	require.NoError(t, err)

	ds := mnist.Synthetic(256, 16, 4, 7)
	batches := ds.Batches(32, nil)

	first, err := trainer.Step(batches[0])
	require.NoError(t, err)

	for epoch := 0; epoch < 5; epoch++ {
		for _, b := range batches {
			_, err := trainer.Step(b)
			require.NoError(t, err)
		}
	}

	last, err := trainer.Step(batches[0])
	require.NoError(t, err)
	assert.Less(t, last, first, "loss should decrease over training")
}

func TestRunTrainsAndCheckpoints(t *testing.T) {
	cfg := smallConfig()
	cfg.Epochs = 2
	cfg.CheckpointDir = t.TempDir()

	trainer, err := train.New(16, 4, cfg, cpu.New(), nil)
	require.NoError(t, err)

	ds := mnist.Synthetic(128, 16, 4, 7)
	trainSet, val := ds.Split(0.75)

	loss, err := trainer.Run(context.Background(), trainSet, val)
	require.NoError(t, err)
	assert.Greater(t, loss, 0.0)

	matches, err := filepath.Glob(filepath.Join(cfg.CheckpointDir, "*.fern"))
	require.NoError(t, err)
	assert.NotEmpty(t, matches)
}

func TestRunHonorsContextCancellation(t *testing.T) {
	trainer, err := train.New(16, 4, smallConfig(), cpu.New(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ds := mnist.Synthetic(64, 16, 4, 1)
	_, err = trainer.Run(ctx, ds, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResumeRestoresProgress(t *testing.T) {
	cfg := smallConfig()
	trainer, err := train.New(16, 4, cfg, cpu.New(), nil)
	require.NoError(t, err)

	ds := mnist.Synthetic(64, 16, 4, 3)
	for _, b := range ds.Batches(32, nil) {
		_, err := trainer.Step(b)
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "resume.fern")
	require.NoError(t, trainer.SaveCheckpoint(path, 1.5))

	ck, err := checkpoint.Load(path)
	require.NoError(t, err)
	require.NotNil(t, ck.Training)
	assert.Equal(t, 2, ck.Training.Step)
	assert.Equal(t, "sgd", ck.Training.Optimizer)
	assert.InDelta(t, 1.5, ck.Training.Loss, 1e-9)

	resumed, err := train.Resume(ck, cfg, cpu.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, trainer.RunID(), resumed.RunID())

	// The restored model produces the same predictions as the saved one.
	origLoss, origAcc := train.Evaluate(trainer.Model(), trainer.Backend(), ds, 32)
	resLoss, resAcc := train.Evaluate(resumed.Model(), resumed.Backend(), ds, 32)
	assert.InDelta(t, origLoss, resLoss, 1e-5)
	assert.InDelta(t, origAcc, resAcc, 1e-9)
}

func TestResumeRejectsBrokenOptimizerState(t *testing.T) {
	cfg := smallConfig()
	trainer, err := train.New(16, 4, cfg, cpu.New(), nil)
	require.NoError(t, err)

	ds := mnist.Synthetic(32, 16, 4, 3)
	_, err = trainer.Step(ds.Batches(32, nil)[0])
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "broken.fern")
	require.NoError(t, trainer.SaveCheckpoint(path, 1.0))

	ck, err := checkpoint.Load(path)
	require.NoError(t, err)
	require.NotEmpty(t, ck.OptimizerState)

	// Rename an optimizer tensor so it no longer matches any parameter.
	for name, raw := range ck.OptimizerState {
		delete(ck.OptimizerState, name)
		ck.OptimizerState["velocity.decoder.weight"] = raw
		break
	}
	_, err = train.Resume(ck, cfg, cpu.New(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "restore optimizer state")
}

func TestEvaluate(t *testing.T) {
	trainer, err := train.New(16, 4, smallConfig(), cpu.New(), nil)
	require.NoError(t, err)

	ds := mnist.Synthetic(64, 16, 4, 5)
	loss, acc := train.Evaluate(trainer.Model(), trainer.Backend(), ds, 16)
	assert.Greater(t, loss, 0.0)
	assert.GreaterOrEqual(t, acc, 0.0)
	assert.LessOrEqual(t, acc, 1.0)
}
