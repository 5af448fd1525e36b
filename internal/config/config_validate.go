// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/kbqa/internal/validation"
)

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validateModel(); err != nil {
		return err
	}

	if err := c.validateTraining(); err != nil {
		return err
	}

	return c.validateStore()
}

// validateModel checks that feature names are unique.
func (c *Config) validateModel() error {
	seen := make(map[string]struct{}, len(c.Model.Features))
	for _, f := range c.Model.Features {
		name := strings.ToLower(f.Name)
		if _, ok := seen[name]; ok {
			return fmt.Errorf("model.features: duplicate feature %q", f.Name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// validateTraining checks that a training question always has room for a
// negative candidate.
func (c *Config) validateTraining() error {
	if c.Memory.MemSize < 2 {
		return fmt.Errorf("memory.mem_size must leave room for a negative, got %d", c.Memory.MemSize)
	}
	return nil
}

// validateStore requires a directory unless the store is in memory.
func (c *Config) validateStore() error {
	if !c.Store.InMemory && c.Store.Dir == "" {
		return fmt.Errorf("store.dir is required unless store.in_memory is set")
	}
	return nil
}
