// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train drives the training loop: mini-batch gradient descent over
// a classifier, with logging, progress reporting, evaluation, and periodic
// checkpointing.
package train

import (
	"fmt"
)

// Config holds training hyperparameters.
type Config struct {
	// Epochs is the number of passes over the training set.
	Epochs int `mapstructure:"epochs"`

	// BatchSize is the mini-batch size.
	BatchSize int `mapstructure:"batch-size"`

	// LearningRate for the optimizer.
	LearningRate float64 `mapstructure:"learning-rate"`

	// Momentum for SGD. Ignored by Adam.
	Momentum float64 `mapstructure:"momentum"`

	// Optimizer selects "sgd" or "adam".
	Optimizer string `mapstructure:"optimizer"`

	// HiddenSizes lists the hidden layer widths.
	HiddenSizes []int `mapstructure:"hidden-sizes"`

	// CheckpointDir is where checkpoints are written. Empty disables
	// checkpointing.
	CheckpointDir string `mapstructure:"checkpoint-dir"`

	// CheckpointEvery saves a checkpoint every N epochs. Zero means only
	// the final checkpoint is written.
	CheckpointEvery int `mapstructure:"checkpoint-every"`

	// Seed for mini-batch shuffling.
	Seed int64 `mapstructure:"seed"`
}

// DefaultConfig returns the hyperparameters used when nothing is
// configured: the 784-512-256-128-10 architecture trained with SGD.
func DefaultConfig() Config {
	return Config{
		Epochs:       5,
		BatchSize:    64,
		LearningRate: 0.01,
		Momentum:     0.9,
		Optimizer:    "sgd",
		HiddenSizes:  []int{512, 256, 128},
		Seed:         42,
	}
}

// Validate checks the configuration for values the trainer cannot run
// with.
func (c Config) Validate() error {
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive, got %g", c.LearningRate)
	}
	if c.Optimizer != "sgd" && c.Optimizer != "adam" {
		return fmt.Errorf("unknown optimizer %q: want sgd or adam", c.Optimizer)
	}
	if len(c.HiddenSizes) == 0 {
		return fmt.Errorf("at least one hidden layer is required")
	}
	for i, h := range c.HiddenSizes {
		if h <= 0 {
			return fmt.Errorf("hidden layer %d: width must be positive, got %d", i, h)
		}
	}
	return nil
}
