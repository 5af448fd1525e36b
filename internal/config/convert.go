// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package config

import (
	"os"

	"github.com/tomtom215/kbqa/internal/kbqa"
	"github.com/tomtom215/kbqa/internal/logging"
	"github.com/tomtom215/kbqa/internal/network"
	"github.com/tomtom215/kbqa/internal/store"
	"github.com/tomtom215/kbqa/internal/trainer"
	"github.com/tomtom215/kbqa/internal/vocab"
)

// NetworkConfig returns the scoring network configuration.
func (c *Config) NetworkConfig(tokens vocab.Tokens) network.Config {
	features := make([]network.FeatureSpec, len(c.Model.Features))
	for i, f := range c.Model.Features {
		features[i] = network.FeatureSpec{Name: f.Name, Vocab: f.Vocab}
	}
	return network.Config{
		VocabSize:     c.Model.VocabSize,
		WordDim:       c.Model.WordDim,
		HiddenDim:     c.Model.HiddenDim,
		MarkValues:    c.Model.MarkValues,
		Features:      features,
		NumHops:       c.Model.NumHops,
		WordDropout:   c.Model.WordDropout,
		QueryDropout:  c.Model.QueryDropout,
		AnswerDropout: c.Model.AnswerDropout,
		InitScale:     c.Model.InitScale,
		FixWordEmbed:  c.Model.FixWordEmbed,
		Pad:           tokens.Pad,
		Seed:          c.Seed,
	}
}

// TrainerConfig returns the training agent configuration.
func (c *Config) TrainerConfig() *trainer.Config {
	return &trainer.Config{
		LearningRate:   c.Training.LearningRate,
		BatchSize:      c.Training.BatchSize,
		GradAccumSteps: c.Training.GradAccumSteps,
		Epochs:         c.Training.Epochs,
		ValidPatience:  c.Training.ValidPatience,
		Margin:         c.Training.Margin,
		LRFactor:       c.Training.LRFactor,
		TestMargins:    append([]float64(nil), c.Inference.TestMargins...),
		TestBatchSize:  c.Inference.TestBatchSize,
		UnknownLabel:   c.Inference.UnknownLabel,
		ModelFile:      c.Paths.ModelFile,
		Compression:    c.Checkpoint.Compression,
		Seed:           c.Seed,
	}
}

// AnswerConfig returns the answer service configuration. The first test
// margin is the answering margin.
func (c *Config) AnswerConfig() kbqa.Config {
	return kbqa.Config{
		Margin:               c.Inference.TestMargins[0],
		UnknownLabel:         c.Inference.UnknownLabel,
		AugmentSimilar:       c.Inference.AugmentSimilar,
		SimilarityScoreRatio: c.Inference.SimilarityScoreRatio,
		TopicPrefix:          c.Inference.TopicPrefix,
		MaxQueryLen:          c.Model.QuerySize,
	}
}

// StoreConfig returns the bundle store configuration.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Path:        c.Store.Dir,
		InMemory:    c.Store.InMemory,
		SyncWrites:  c.Store.SyncWrites,
		Compression: c.Store.Compression,
		CacheSize:   c.Store.CacheSize,
		CacheTTL:    c.Store.CacheTTL,
	}
}

// LoggingConfig returns the logger configuration writing to stderr.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		Caller:    c.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	}
}
