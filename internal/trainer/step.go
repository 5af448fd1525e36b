// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package trainer

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/kbqa/internal/dataset"
	"github.com/tomtom215/kbqa/internal/memory"
	"github.com/tomtom215/kbqa/internal/metrics"
	"github.com/tomtom215/kbqa/internal/network"
	"github.com/tomtom215/kbqa/internal/ranking"
)

// ErrNoSampler is returned by training operations of an agent created
// without a negative sampler.
var ErrNoSampler = errors.New("negative sampler not set")

// Prediction is the ranked answer set of one question.
type Prediction struct {
	ID string `json:"id,omitempty"`
	// Answers holds the accepted candidates by descending score.
	Answers []ranking.Prediction `json:"answers"`
	// Labels holds the distinct labels of Answers.
	Labels []string `json:"labels"`
	// Attention is the query attention of the final hop.
	Attention []float64 `json:"attention,omitempty"`
}

// TrainStep runs one sampled batch forward, accumulates gradients and
// applies an optimizer step every GradAccumSteps batches. step is the batch
// position within the epoch. It returns the batch loss.
func (a *Agent) TrainStep(examples []dataset.Example, step int) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.trainStep(examples, step, true)
}

// ValidationLoss returns the loss of a sampled batch without updating the
// network.
func (a *Agent) ValidationLoss(examples []dataset.Example) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.trainStep(examples, 0, false)
}

func (a *Agent) trainStep(examples []dataset.Example, step int, training bool) (float64, error) {
	if a.sampler == nil {
		return 0, ErrNoSampler
	}
	if len(examples) == 0 {
		return 0, nil
	}

	start := time.Now()
	batch, err := a.builder.BuildTraining(dataset.Records(examples), dataset.Queries(examples), dataset.Gold(examples), a.sampler)
	if err != nil {
		return 0, fmt.Errorf("build training batch: %w", err)
	}
	metrics.RecordBatchBuild("training", len(examples), time.Since(start))

	out, err := a.net.Forward(batch, training)
	if err != nil {
		return 0, fmt.Errorf("forward: %w", err)
	}
	loss, grads, err := network.HopLoss(out.Hops, batch.Gold, a.config.Margin)
	if err != nil {
		return 0, fmt.Errorf("loss: %w", err)
	}
	if !training {
		return loss, nil
	}

	if steps := a.config.GradAccumSteps; steps > 1 {
		inv := 1 / float64(steps)
		for _, hop := range grads {
			for _, row := range hop {
				for k := range row {
					row[k] *= inv
				}
			}
		}
	}
	if err := a.net.Backward(out, grads); err != nil {
		return 0, fmt.Errorf("backward: %w", err)
	}
	if (step+1)%a.config.GradAccumSteps == 0 {
		a.opt.Step()
		a.opt.ZeroGrad()
		a.updates++
	}
	return loss, nil
}

// Score builds the inference memory of every question and runs the network
// in evaluation mode.
func (a *Agent) Score(records []memory.Record, queries []memory.Query) (*memory.Batch, *network.Output, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.score(records, queries)
}

func (a *Agent) score(records []memory.Record, queries []memory.Query) (*memory.Batch, *network.Output, error) {
	start := time.Now()
	batch, err := a.builder.BuildInference(records, queries)
	if err != nil {
		return nil, nil, fmt.Errorf("build inference batch: %w", err)
	}
	metrics.RecordBatchBuild("inference", len(records), time.Since(start))

	out, err := a.net.Forward(batch, false)
	if err != nil {
		return nil, nil, fmt.Errorf("forward: %w", err)
	}
	return batch, out, nil
}

// PredictStep ranks the candidates of one batch of questions with margin.
func (a *Agent) PredictStep(examples []dataset.Example, margin float64) ([]Prediction, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.predictStep(examples, margin)
}

func (a *Agent) predictStep(examples []dataset.Example, margin float64) ([]Prediction, error) {
	if len(examples) == 0 {
		return nil, nil
	}
	_, out, err := a.score(dataset.Records(examples), dataset.Queries(examples))
	if err != nil {
		return nil, err
	}

	final := out.Final()
	preds := make([]Prediction, len(examples))
	for i := range examples {
		labels := examples[i].CandidateLabels
		answers := ranking.Rank(final[i], labels, margin, a.config.UnknownLabel)
		preds[i] = Prediction{
			ID:      examples[i].ID,
			Answers: answers,
			Labels:  ranking.Labels(answers, labels),
		}
		if i < len(out.QueryAttention) {
			preds[i].Attention = out.QueryAttention[i]
		}
	}
	return preds, nil
}
