// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package trainer

import (
	"fmt"

	"github.com/tomtom215/kbqa/internal/checkpoint"
)

// Config contains the training and inference parameters of an Agent.
type Config struct {
	// LearningRate is the initial Adam learning rate.
	// Default: 0.001.
	LearningRate float64 `json:"learning_rate"`

	// BatchSize is the number of questions per training batch.
	// Default: 32.
	BatchSize int `json:"batch_size"`

	// GradAccumSteps is the number of batches whose gradients are summed
	// before one optimizer step.
	// Default: 1.
	GradAccumSteps int `json:"grad_accumulated_steps"`

	// Epochs is the maximum number of training epochs.
	// Default: 100.
	Epochs int `json:"num_epochs"`

	// ValidPatience is the number of epochs without validation F1
	// improvement before training stops. The learning rate is reduced
	// after ValidPatience/3 stagnant epochs.
	// Default: 10.
	ValidPatience int `json:"valid_patience"`

	// Margin is the training hinge margin.
	// Default: 1.0.
	Margin float64 `json:"margin"`

	// LRFactor multiplies the learning rate on a plateau.
	// Default: 0.1.
	LRFactor float64 `json:"lr_factor"`

	// TestMargins are the ranking margins evaluated on labeled splits. The
	// first one is used for validation and answering.
	// Default: [0.9].
	TestMargins []float64 `json:"test_margin"`

	// TestBatchSize is the batch size of prediction.
	// Default: 1.
	TestBatchSize int `json:"test_batch_size"`

	// UnknownLabel is the candidate label never accepted as an answer.
	// Default: "UNK".
	UnknownLabel string `json:"unknown_label"`

	// ModelFile is the checkpoint path. Empty disables persistence.
	ModelFile string `json:"model_file"`

	// Compression is the checkpoint codec: none, lz4 or zstd.
	// Default: zstd.
	Compression string `json:"compression"`

	// Seed drives the epoch shuffle. If zero, the default seed 42 is used.
	Seed int64 `json:"seed"`
}

// DefaultConfig returns the default agent configuration.
func DefaultConfig() *Config {
	return &Config{
		LearningRate:   0.001,
		BatchSize:      32,
		GradAccumSteps: 1,
		Epochs:         100,
		ValidPatience:  10,
		Margin:         1.0,
		LRFactor:       0.1,
		TestMargins:    []float64{0.9},
		TestBatchSize:  1,
		UnknownLabel:   "UNK",
		Compression:    "zstd",
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be positive, got %f", c.LearningRate)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.GradAccumSteps < 1 {
		return fmt.Errorf("grad_accumulated_steps must be positive, got %d", c.GradAccumSteps)
	}
	if c.Epochs < 1 {
		return fmt.Errorf("num_epochs must be positive, got %d", c.Epochs)
	}
	if c.ValidPatience < 1 {
		return fmt.Errorf("valid_patience must be positive, got %d", c.ValidPatience)
	}
	if c.Margin <= 0 {
		return fmt.Errorf("margin must be positive, got %f", c.Margin)
	}
	if c.LRFactor <= 0 || c.LRFactor >= 1 {
		return fmt.Errorf("lr_factor must be in (0, 1), got %f", c.LRFactor)
	}
	if len(c.TestMargins) == 0 {
		return fmt.Errorf("test_margin must name at least one margin")
	}
	for _, m := range c.TestMargins {
		if m < 0 {
			return fmt.Errorf("test_margin must be non-negative, got %f", m)
		}
	}
	if c.TestBatchSize < 1 {
		return fmt.Errorf("test_batch_size must be positive, got %d", c.TestBatchSize)
	}
	if _, err := checkpoint.ParseCompression(c.Compression); err != nil {
		return fmt.Errorf("compression: %w", err)
	}
	return nil
}

// plateauPatience is the scheduler patience derived from ValidPatience.
func (c *Config) plateauPatience() int {
	return c.ValidPatience / 3
}
