// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package trainer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/tomtom215/kbqa/internal/checkpoint"
	"github.com/tomtom215/kbqa/internal/dataset"
	"github.com/tomtom215/kbqa/internal/metrics"
	"github.com/tomtom215/kbqa/internal/network"
	"github.com/tomtom215/kbqa/internal/ranking"
)

// ErrEmptySplit is returned when training is started without examples.
var ErrEmptySplit = errors.New("training split is empty")

// plateauThreshold is the relative improvement the scheduler requires.
const plateauThreshold = 1e-4

// TrainResult summarizes a training run.
type TrainResult struct {
	// Epochs is the number of epochs run.
	Epochs int `json:"epochs"`
	// BestF1 is the best validation F1 reached.
	BestF1 float64 `json:"best_f1"`
	// BestEpoch is the epoch that reached BestF1, 0 if F1 never improved.
	BestEpoch int `json:"best_epoch"`
	// EarlyStopped reports whether patience ran out before Epochs.
	EarlyStopped bool `json:"early_stopped"`
	// Updates is the number of optimizer steps applied by the agent.
	Updates int `json:"updates"`
}

// MarginScores are the averaged answer metrics at one ranking margin.
type MarginScores struct {
	Margin float64 `json:"margin"`
	ranking.Scores
}

// Train runs epochs over train until the epoch limit or until validation F1
// has not improved for ValidPatience epochs. Each epoch shuffles train with
// one permutation, accumulates the sampled training loss, computes the
// validation loss and F1, steps the plateau scheduler and saves the model
// whenever F1 improves. The context is checked between batches.
func (a *Agent) Train(ctx context.Context, train, valid []dataset.Example) (*TrainResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sampler == nil {
		return nil, ErrNoSampler
	}
	if len(train) == 0 {
		return nil, ErrEmptySplit
	}

	a.logger.Info().
		Int("train_size", len(train)).
		Int("valid_size", len(valid)).
		Int("batch_size", a.config.BatchSize).
		Int("mem_size", a.sampler.MemSize()).
		Msg("training started")

	examples := slices.Clone(train)
	sched := network.NewPlateau(a.opt, a.config.LRFactor, a.config.plateauPatience(), plateauThreshold)
	res := &TrainResult{}
	best := 0.0
	stale := 0

	for epoch := 1; epoch <= a.config.Epochs; epoch++ {
		start := time.Now()
		stale++

		a.rng.Shuffle(len(examples), func(i, j int) {
			examples[i], examples[j] = examples[j], examples[i]
		})

		a.opt.ZeroGrad()
		trainLoss, err := a.epochLoss(ctx, examples, true)
		if err != nil {
			return res, fmt.Errorf("epoch %d: train: %w", epoch, err)
		}
		validLoss, err := a.epochLoss(ctx, valid, false)
		if err != nil {
			return res, fmt.Errorf("epoch %d: validation loss: %w", epoch, err)
		}
		f1, err := a.validF1(ctx, valid)
		if err != nil {
			return res, fmt.Errorf("epoch %d: validation F1: %w", epoch, err)
		}
		res.Epochs = epoch

		elapsed := time.Since(start)
		a.logger.Info().
			Int("epoch", epoch).
			Int("num_epochs", a.config.Epochs).
			Dur("runtime", elapsed).
			Float64("train_loss", trainLoss).
			Float64("valid_loss", validLoss).
			Float64("valid_f1", f1).
			Float64("learning_rate", a.opt.LR()).
			Msg("epoch complete")
		metrics.RecordEpoch(trainLoss, validLoss, f1, a.opt.LR(), elapsed)

		if sched.Step(f1) {
			a.logger.Info().Float64("learning_rate", a.opt.LR()).Msg("reduced learning rate")
			metrics.RecordLRReduction(a.opt.LR())
		}

		if f1 > best {
			best = f1
			stale = 0
			res.BestEpoch = epoch
			metrics.RecordBestF1(best)
			if err := a.save(checkpoint.Metadata{Epoch: epoch, BestF1: best}); err != nil {
				return res, err
			}
		}

		if stale >= a.config.ValidPatience {
			res.EarlyStopped = true
			metrics.RecordEarlyStop()
			a.logger.Info().
				Int("epoch", epoch).
				Float64("best_f1", best).
				Msg("early stopping, no validation improvement")
			break
		}
	}

	res.BestF1 = best
	res.Updates = a.updates
	a.logger.Info().
		Int("epochs", res.Epochs).
		Float64("best_f1", res.BestF1).
		Int("best_epoch", res.BestEpoch).
		Msg("training finished")
	return res, nil
}

// epochLoss averages the sampled loss over the batches of examples.
func (a *Agent) epochLoss(ctx context.Context, examples []dataset.Example, training bool) (float64, error) {
	batches := dataset.Batches(examples, a.config.BatchSize)
	total := 0.0
	for step, b := range batches {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		loss, err := a.trainStep(b, step, training)
		if err != nil {
			return 0, fmt.Errorf("batch %d: %w", step, err)
		}
		total += loss / float64(len(batches))
	}
	return total, nil
}

// validF1 predicts valid one question at a time with the first test margin.
func (a *Agent) validF1(ctx context.Context, valid []dataset.Example) (float64, error) {
	if len(valid) == 0 {
		return 0, nil
	}
	preds, err := a.predict(ctx, valid, a.config.TestMargins[0], 1)
	if err != nil {
		return 0, err
	}
	return ranking.AverageScores(goldLabels(valid), predictedLabels(preds)).F1, nil
}

// Predict ranks every example with margin in batches of TestBatchSize.
func (a *Agent) Predict(ctx context.Context, examples []dataset.Example, margin float64) ([]Prediction, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.predict(ctx, examples, margin, a.config.TestBatchSize)
}

func (a *Agent) predict(ctx context.Context, examples []dataset.Example, margin float64, batchSize int) ([]Prediction, error) {
	out := make([]Prediction, 0, len(examples))
	for i, b := range dataset.Batches(examples, batchSize) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		preds, err := a.predictStep(b, margin)
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", i, err)
		}
		out = append(out, preds...)
	}
	return out, nil
}

// Evaluate predicts a labeled split at every configured test margin and
// returns the averaged precision, recall and F1 per margin.
func (a *Agent) Evaluate(ctx context.Context, examples []dataset.Example) ([]MarginScores, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	gold := goldLabels(examples)
	out := make([]MarginScores, 0, len(a.config.TestMargins))
	for _, margin := range a.config.TestMargins {
		preds, err := a.predict(ctx, examples, margin, a.config.TestBatchSize)
		if err != nil {
			return nil, fmt.Errorf("margin %g: %w", margin, err)
		}
		scores := ranking.AverageScores(gold, predictedLabels(preds))
		a.logger.Info().
			Float64("margin", margin).
			Float64("precision", scores.Precision).
			Float64("recall", scores.Recall).
			Float64("f1", scores.F1).
			Msg("evaluation")
		out = append(out, MarginScores{Margin: margin, Scores: scores})
	}
	return out, nil
}

func goldLabels(examples []dataset.Example) [][]string {
	out := make([][]string, len(examples))
	for i := range examples {
		out[i] = examples[i].GoldLabels
	}
	return out
}

func predictedLabels(preds []Prediction) [][]string {
	out := make([][]string, len(preds))
	for i := range preds {
		out[i] = preds[i].Labels
	}
	return out
}
