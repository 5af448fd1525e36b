// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package trainer

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kbqa/internal/checkpoint"
	"github.com/tomtom215/kbqa/internal/logging"
	"github.com/tomtom215/kbqa/internal/memory"
	"github.com/tomtom215/kbqa/internal/metrics"
	"github.com/tomtom215/kbqa/internal/network"
)

// ErrNoNetwork is returned when an agent is created without a network.
var ErrNoNetwork = errors.New("scoring network not set")

// Agent drives a scoring network over candidate memories. Training holds
// an exclusive lock; scoring may run concurrently with other scoring.
type Agent struct {
	config *Config
	logger zerolog.Logger

	net     network.Network
	opt     *network.Adam
	builder *memory.Builder
	sampler *memory.Sampler
	codec   checkpoint.Compression

	mu sync.RWMutex

	// Random source for the epoch shuffle
	rng *rand.Rand

	// Number of optimizer updates applied
	updates int
}

// NewAgent creates an agent over net. The sampler is only used for training
// and validation loss and may be nil for inference-only agents.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewAgent(cfg *Config, net network.Network, builder *memory.Builder, sampler *memory.Sampler, logger zerolog.Logger) (*Agent, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if net == nil {
		return nil, ErrNoNetwork
	}
	if builder == nil {
		return nil, fmt.Errorf("memory builder not set")
	}
	codec, err := checkpoint.ParseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}

	return &Agent{
		config:  cfg,
		logger:  logging.WithComponent(logger, "trainer"),
		net:     net,
		opt:     network.NewAdam(net.Parameters(), cfg.LearningRate),
		builder: builder,
		sampler: sampler,
		codec:   codec,
		rng:     rand.New(rand.NewSource(seed)), //nolint:gosec // math/rand is fine for epoch shuffling
	}, nil
}

// Config returns the agent configuration.
func (a *Agent) Config() *Config {
	return a.config
}

// LearningRate returns the current optimizer learning rate.
func (a *Agent) LearningRate() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.opt.LR()
}

// Save writes parameters and optimizer state to the configured model file.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (a *Agent) Save(meta checkpoint.Metadata) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.save(meta)
}

//nolint:gocritic // meta passed by value is acceptable for this write operation
func (a *Agent) save(meta checkpoint.Metadata) error {
	if a.config.ModelFile == "" {
		return nil
	}
	payload := &checkpoint.Payload{
		Params: network.Snapshot(a.net),
		Optim:  a.opt.State(),
	}
	saved, err := checkpoint.Save(a.config.ModelFile, payload, meta, a.codec)
	if err != nil {
		metrics.RecordCheckpointSave(0, err)
		return fmt.Errorf("save model: %w", err)
	}
	metrics.RecordCheckpointSave(saved.SizeBytes, nil)

	a.logger.Info().
		Str("path", a.config.ModelFile).
		Int("epoch", saved.Epoch).
		Float64("best_f1", saved.BestF1).
		Str("compression", saved.Compression.String()).
		Int64("size_bytes", saved.SizeBytes).
		Msg("saved model")
	return nil
}

// Load restores parameters and optimizer state from the configured model
// file. A missing file leaves the randomly initialized network in place and
// returns (false, nil).
func (a *Agent) Load() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.config.ModelFile == "" {
		return false, nil
	}
	payload, meta, err := checkpoint.Load(a.config.ModelFile)
	if errors.Is(err, os.ErrNotExist) {
		a.logger.Info().Str("path", a.config.ModelFile).Msg("no saved model, starting from random initialization")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load model: %w", err)
	}

	if err := network.Restore(a.net, payload.Params); err != nil {
		return false, fmt.Errorf("restore parameters: %w", err)
	}
	if err := a.opt.SetState(payload.Optim); err != nil {
		return false, fmt.Errorf("restore optimizer: %w", err)
	}

	a.logger.Info().
		Str("path", a.config.ModelFile).
		Int("epoch", meta.Epoch).
		Float64("best_f1", meta.BestF1).
		Time("saved_at", meta.SavedAt).
		Msg("loaded model")
	return true, nil
}
