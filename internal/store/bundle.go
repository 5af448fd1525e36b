// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package store

import (
	"errors"
	"fmt"

	"github.com/tomtom215/kbqa/internal/memory"
)

// ErrInvalidBundle is returned for a bundle that cannot be stored.
var ErrInvalidBundle = errors.New("invalid candidate bundle")

// Candidate describes one real candidate answer of a bundle.
type Candidate struct {
	// ID is the knowledge-graph identifier of the candidate.
	ID string `json:"id"`
	// Label is the display name returned as the answer.
	Label string `json:"label"`
	// Path is the relation path from the topic entity.
	Path []string `json:"path,omitempty"`
}

// Bundle is the pre-extracted candidate memory reachable from one topic
// entity together with the metadata needed to report answers.
type Bundle struct {
	Topic  string        `json:"topic"`
	Record memory.Record `json:"record"`
	// Candidates holds one entry per real candidate of Record, in order.
	Candidates []Candidate `json:"candidates"`
}

// Validate checks that the bundle is keyed and aligned with its record.
func (b *Bundle) Validate() error {
	if b.Topic == "" {
		return fmt.Errorf("%w: empty topic", ErrInvalidBundle)
	}
	if err := b.Record.Validate(); err != nil {
		return err
	}
	if len(b.Candidates) != b.Record.RealCount() {
		return fmt.Errorf("%w: %d candidates for %d record rows",
			ErrInvalidBundle, len(b.Candidates), b.Record.RealCount())
	}
	return nil
}

// Labels returns the candidate labels in record order.
func (b *Bundle) Labels() []string {
	out := make([]string, len(b.Candidates))
	for i, c := range b.Candidates {
		out[i] = c.Label
	}
	return out
}
