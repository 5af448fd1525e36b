// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kbqa/internal/config"
	"github.com/tomtom215/kbqa/internal/logging"
	"github.com/tomtom215/kbqa/internal/memory"
	"github.com/tomtom215/kbqa/internal/network"
	"github.com/tomtom215/kbqa/internal/trainer"
	"github.com/tomtom215/kbqa/internal/vocab"
)

// components are the pieces shared by the train, predict and answer commands.
type components struct {
	vocab *vocab.Vocabulary
	agent *trainer.Agent
	// restored reports whether a checkpoint was loaded.
	restored bool
}

// buildComponents loads the vocabulary and stopwords, builds the memory
// builder, sampler and network, and restores the checkpoint when present.
func buildComponents(c *config.Config) (*components, error) {
	logger := logging.Logger()
	tokens := vocab.DefaultTokens()

	v, err := vocab.Load(c.Paths.VocabPath(), tokens)
	if err != nil {
		return nil, err
	}
	stops, err := vocab.LoadStopwords(c.Paths.StopwordsPath())
	if err != nil {
		return nil, err
	}
	if len(stops) == 0 {
		logging.Warn().Str("path", c.Paths.StopwordsPath()).Msg("No stopwords loaded")
	}

	matcher := memory.NewMatcher(v, stops, c.Memory.ConstraintMentionTypes)
	builder := memory.NewBuilder(matcher, c.Memory.CtxBowSize, tokens)
	sampler := memory.NewSampler(c.Memory.MemSize, c.Seed)

	netCfg := c.NetworkConfig(tokens)
	netCfg.VocabSize = max(netCfg.VocabSize, v.Size())
	net, err := network.NewMemNet(netCfg)
	if err != nil {
		return nil, fmt.Errorf("create network: %w", err)
	}
	if err := loadWordVectors(net, v, c, logger); err != nil {
		return nil, err
	}

	agent, err := trainer.NewAgent(c.TrainerConfig(), net, builder, sampler, logger)
	if err != nil {
		return nil, err
	}
	restored, err := agent.Load()
	if err != nil {
		return nil, err
	}

	logging.Info().
		Int("vocab", v.Size()).
		Int("stopwords", len(stops)).
		Int("hops", netCfg.NumHops).
		Bool("restored", restored).
		Msg("Model ready")
	return &components{vocab: v, agent: agent, restored: restored}, nil
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func loadWordVectors(net *network.MemNet, v *vocab.Vocabulary, c *config.Config, logger zerolog.Logger) error {
	path := c.Paths.WordVectorsPath()
	vectors, err := network.LoadWordVectors(path, v, c.Model.WordDim)
	if err != nil {
		return err
	}
	if vectors == nil {
		logger.Info().Str("path", path).Msg("No pretrained word vectors, using random init")
		return nil
	}
	n, err := net.SetWordVectors(vectors)
	if err != nil {
		return fmt.Errorf("set word vectors: %w", err)
	}
	logger.Info().Str("path", path).Int("words", n).Msg("Loaded pretrained word vectors")
	return nil
}
