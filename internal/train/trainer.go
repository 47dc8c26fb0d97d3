// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/fern-ml/fern/internal/autodiff"
	"github.com/fern-ml/fern/internal/checkpoint"
	"github.com/fern-ml/fern/internal/mnist"
	"github.com/fern-ml/fern/internal/nn"
	"github.com/fern-ml/fern/internal/optim"
	"github.com/fern-ml/fern/internal/tensor"
)

// Trainer runs mini-batch gradient descent over a classifier.
//
// Each step records the forward pass on a fresh gradient tape, walks it
// backward, and hands the resulting gradients to the optimizer. The tape
// is cleared at the start of every step: gradients from one batch never
// leak into the next, while within one backward pass every reuse of a
// tensor still sums its contributions.
type Trainer[B tensor.Backend] struct {
	model     *nn.Classifier[float32, *autodiff.Backend[B]]
	backend   *autodiff.Backend[B]
	optimizer optim.Optimizer
	loss      *nn.CrossEntropyLoss[float32, *autodiff.Backend[B]]
	cfg       Config
	logger    *zap.Logger
	rng       *rand.Rand

	runID string
	epoch int
	step  int
}

// New creates a trainer for a fresh classifier with the configured
// architecture.
func New[B tensor.Backend](inputSize, outputSize int, cfg Config, inner B, logger *zap.Logger) (*Trainer[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training config: %w", err)
	}

	backend := autodiff.New(inner)
	model, err := nn.NewClassifier[float32](inputSize, outputSize, cfg.HiddenSizes, backend)
	if err != nil {
		return nil, err
	}
	return newWithModel(model, backend, cfg, logger)
}

// Resume creates a trainer from a checkpoint, restoring model weights,
// optimizer state, and training progress.
func Resume[B tensor.Backend](ck *checkpoint.Checkpoint, cfg Config, inner B, logger *zap.Logger) (*Trainer[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training config: %w", err)
	}

	backend := autodiff.New(inner)
	model, err := checkpoint.Reconstruct[float32](ck, backend)
	if err != nil {
		return nil, err
	}

	t, err := newWithModel(model, backend, cfg, logger)
	if err != nil {
		return nil, err
	}
	if ck.OptimizerState != nil {
		if err := t.optimizer.LoadStateDict(ck.OptimizerState); err != nil {
			return nil, fmt.Errorf("restore optimizer state: %w", err)
		}
	}
	if ck.Training != nil {
		t.epoch = ck.Training.Epoch
		t.step = ck.Training.Step
		if adam, ok := t.optimizer.(*optim.Adam); ok {
			adam.SetStep(ck.Training.Step)
		}
	}
	if ck.RunID != "" {
		t.runID = ck.RunID
	}
	return t, nil
}

func newWithModel[B tensor.Backend](
	model *nn.Classifier[float32, *autodiff.Backend[B]],
	backend *autodiff.Backend[B],
	cfg Config,
	logger *zap.Logger,
) (*Trainer[B], error) {
	var optimizer optim.Optimizer
	switch cfg.Optimizer {
	case "sgd":
		optimizer = optim.NewSGD(model.StateDict(), cfg.LearningRate, cfg.Momentum)
	case "adam":
		optimizer = optim.NewAdam(model.StateDict(), cfg.LearningRate)
	default:
		return nil, fmt.Errorf("unknown optimizer %q", cfg.Optimizer)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer[B]{
		model:     model,
		backend:   backend,
		optimizer: optimizer,
		loss:      nn.NewCrossEntropyLoss[float32, *autodiff.Backend[B]](),
		cfg:       cfg,
		logger:    logger,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		runID:     uuid.NewString(),
	}, nil
}

// Model returns the classifier being trained.
func (t *Trainer[B]) Model() *nn.Classifier[float32, *autodiff.Backend[B]] {
	return t.model
}

// Backend returns the autodiff backend driving this trainer.
func (t *Trainer[B]) Backend() *autodiff.Backend[B] {
	return t.backend
}

// RunID identifies this training run in checkpoints and logs.
func (t *Trainer[B]) RunID() string {
	return t.runID
}

// Step runs one optimization step on a batch and returns the batch loss.
func (t *Trainer[B]) Step(batch mnist.Batch) (float64, error) {
	x, err := tensor.FromSlice(batch.Images, tensor.Shape{batch.Size, batch.InputSize}, t.backend)
	if err != nil {
		return 0, fmt.Errorf("batch images: %w", err)
	}
	y, err := tensor.FromSlice(batch.Labels, tensor.Shape{batch.Size}, t.backend)
	if err != nil {
		return 0, fmt.Errorf("batch labels: %w", err)
	}

	t.backend.Tape().Clear()
	t.backend.Tape().ZeroGrad()
	t.backend.Tape().StartRecording()

	logits := t.model.Forward(x)
	loss := t.loss.Forward(logits, y)

	grads := autodiff.Backward(loss, t.backend)
	if err := t.optimizer.Step(grads); err != nil {
		return 0, fmt.Errorf("optimizer step: %w", err)
	}

	t.step++
	return float64(loss.Item()), nil
}

// Run trains for the configured number of epochs, evaluating on val after
// each epoch when val is non-nil. Returns the final epoch's mean training
// loss.
func (t *Trainer[B]) Run(ctx context.Context, trainSet, val *mnist.Dataset) (float64, error) {
	t.logger.Info("starting training",
		zap.String("run_id", t.runID),
		zap.String("architecture", t.describeArch()),
		zap.String("optimizer", t.optimizer.Name()),
		zap.Int("epochs", t.cfg.Epochs),
		zap.Int("batch_size", t.cfg.BatchSize),
		zap.Float64("learning_rate", t.cfg.LearningRate),
		zap.Int("train_samples", trainSet.NumSamples),
	)

	var meanLoss float64
	for epoch := t.epoch; epoch < t.cfg.Epochs; epoch++ {
		batches := trainSet.Batches(t.cfg.BatchSize, t.rng)
		bar := progressbar.NewOptions(len(batches),
			progressbar.OptionSetDescription(fmt.Sprintf("epoch %d/%d", epoch+1, t.cfg.Epochs)),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		losses := make([]float64, 0, len(batches))
		for _, batch := range batches {
			select {
			case <-ctx.Done():
				return meanLoss, ctx.Err()
			default:
			}

			loss, err := t.Step(batch)
			if err != nil {
				return meanLoss, fmt.Errorf("epoch %d step %d: %w", epoch, t.step, err)
			}
			losses = append(losses, loss)
			bar.Add(1)
		}
		t.epoch = epoch + 1

		meanLoss, _ = stats.Mean(losses)
		stddev, _ := stats.StandardDeviation(losses)
		fields := []zap.Field{
			zap.Int("epoch", t.epoch),
			zap.Int("step", t.step),
			zap.Float64("train_loss", meanLoss),
			zap.Float64("train_loss_stddev", stddev),
		}

		if val != nil {
			valLoss, valAcc := Evaluate(t.model, t.backend, val, t.cfg.BatchSize)
			fields = append(fields,
				zap.Float64("val_loss", valLoss),
				zap.Float64("val_accuracy", valAcc),
			)
		}
		t.logger.Info("epoch complete", fields...)

		if t.cfg.CheckpointDir != "" && t.cfg.CheckpointEvery > 0 && t.epoch%t.cfg.CheckpointEvery == 0 {
			if err := t.SaveCheckpoint(t.checkpointPath(), meanLoss); err != nil {
				return meanLoss, err
			}
		}
	}

	if t.cfg.CheckpointDir != "" {
		if err := t.SaveCheckpoint(t.checkpointPath(), meanLoss); err != nil {
			return meanLoss, err
		}
	}
	return meanLoss, nil
}

// SaveCheckpoint writes the model, optimizer state, and training progress
// to path.
func (t *Trainer[B]) SaveCheckpoint(path string, loss float64) error {
	ck := checkpoint.FromClassifier(t.model)
	ck.OptimizerState = t.optimizer.StateDict()
	ck.Training = &checkpoint.TrainingMeta{
		Epoch:     t.epoch,
		Step:      t.step,
		Loss:      loss,
		Optimizer: t.optimizer.Name(),
	}
	ck.RunID = t.runID

	if err := checkpoint.Save(path, ck); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	t.logger.Info("checkpoint saved",
		zap.String("path", path),
		zap.Int("epoch", t.epoch),
		zap.Float64("loss", loss),
	)
	return nil
}

func (t *Trainer[B]) checkpointPath() string {
	return filepath.Join(t.cfg.CheckpointDir, fmt.Sprintf("%s-epoch%03d.fern", t.runID, t.epoch))
}

func (t *Trainer[B]) describeArch() string {
	d := checkpoint.Descriptor{
		InputSize:   t.model.InputSize(),
		OutputSize:  t.model.OutputSize(),
		HiddenSizes: t.model.HiddenSizes(),
	}
	return d.String()
}
