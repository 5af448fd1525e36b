// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

/*
Package trainer drives a scoring network over candidate memories.

An Agent owns the network, its Adam optimizer and the memory builder. It
trains on sampled memories with the hop-averaged margin loss, selects the
model by validation F1 with plateau learning-rate reduction and early
stopping, and ranks inference memories into answer sets.

# Training

	agent, err := trainer.NewAgent(cfg, net, builder, sampler, logger)
	if _, err := agent.Load(); err != nil {
		return err
	}
	result, err := agent.Train(ctx, train, valid)

Each epoch shuffles the training examples with a single permutation so that
queries, records and gold sets stay aligned. Gradients of GradAccumSteps
consecutive batches are summed before one optimizer step. The checkpoint is
rewritten whenever validation F1 improves.

# Inference

Predict builds inference memories over all real candidates and accepts
every candidate within the margin of the top score whose label is not the
unknown label. Evaluate repeats this for each configured test margin.

# Thread Safety

Training operations take an exclusive lock. Score, Predict and Evaluate
share a read lock and may run concurrently.
*/
package trainer
