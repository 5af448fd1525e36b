// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

// Package memory turns a question's pre-extracted candidate record into the
// fixed-shape candidate memory the scoring network consumes.
//
// Every candidate record ends with one dummy candidate meaning "no answer".
// It never counts as a real candidate, but padding slots (source index -1)
// copy its features. Context evidence is derived per slot by matching each
// raw context name against the question (see Matcher), and the resulting
// bags, marks and lengths are padded to one batch-wide shape.
//
// Two entry points share a single alignment routine:
//
//	batch, err := builder.BuildInference(records, queries)
//	batch, err := builder.BuildTraining(records, queries, gold, sampler)
package memory

import (
	"errors"
	"fmt"
)

// DummyIndex is the slot source index resolving to the dummy candidate.
const DummyIndex = -1

var (
	// ErrInvalidRecord is returned for a candidate record whose fields disagree
	// on the number of candidates or that lacks the dummy candidate.
	ErrInvalidRecord = errors.New("invalid candidate record")

	// ErrInvalidGold is returned when a gold index is out of range or repeated.
	ErrInvalidGold = errors.New("invalid gold label set")

	// ErrBatchShape is returned when parallel batch inputs differ in length.
	ErrBatchShape = errors.New("batch inputs differ in length")
)

// Mention is a named-entity mention detected in a question.
type Mention struct {
	Tokens []string `json:"tokens"`
	Type   string   `json:"type"`
}

// Query is the vectorized form of one question.
type Query struct {
	// TokenIDs are the vocabulary ids of the question tokens.
	TokenIDs []int `json:"token_ids"`
	// Words are the ids of the question words (what, which, ...).
	Words []int `json:"words"`
	// Raw are the original question tokens.
	Raw []string `json:"raw"`
	// Mentions are the entity mentions found in the question.
	Mentions []Mention `json:"mentions"`
	// Marks flag constraint tokens, aligned with TokenIDs.
	Marks []int `json:"marks"`
	// Length is the number of real tokens in TokenIDs.
	Length int `json:"length"`
}

// Feature is one named per-candidate field of a candidate record, such as
// entity type ids, relation path ids or name bag-of-words ids. Values holds
// one row per candidate, dummy last.
type Feature struct {
	Name   string  `json:"name"`
	Values [][]int `json:"values"`
}

// Record is the pre-extracted candidate memory of one question.
type Record struct {
	Features []Feature `json:"features"`
	// Contexts holds, per candidate, the raw token sequences of the context
	// entity names to be matched against the question.
	Contexts [][][]string `json:"contexts"`
}

// Size returns the number of candidates including the dummy.
func (r *Record) Size() int {
	return len(r.Contexts)
}

// RealCount returns the number of real candidates.
func (r *Record) RealCount() int {
	if len(r.Contexts) == 0 {
		return 0
	}
	return len(r.Contexts) - 1
}

// Validate checks that every field has one row per candidate and that the
// dummy candidate is present.
func (r *Record) Validate() error {
	if len(r.Contexts) == 0 {
		return fmt.Errorf("%w: missing dummy candidate", ErrInvalidRecord)
	}
	for _, f := range r.Features {
		if len(f.Values) != len(r.Contexts) {
			return fmt.Errorf("%w: feature %q has %d rows, want %d",
				ErrInvalidRecord, f.Name, len(f.Values), len(r.Contexts))
		}
	}
	return nil
}

// resolve maps a slot source index to a row, -1 being the dummy row.
func (r *Record) resolve(idx int) int {
	if idx < 0 {
		return len(r.Contexts) + idx
	}
	return idx
}

// Context is the aligned context evidence of one question, indexed by
// [slot][item] and, for bags and marks, [bow position].
type Context struct {
	Bags    [][][]int `json:"bags"`
	Marks   [][][]int `json:"marks"`
	Lengths [][]int   `json:"lengths"`
	// Counts is the number of real context items per slot before padding.
	Counts []int `json:"counts"`
}

// Entry is the aligned candidate memory of one question.
type Entry struct {
	// Count is the number of real candidates represented in Slots.
	Count int `json:"count"`
	// Slots holds the source candidate index of each slot, DummyIndex for
	// padding.
	Slots []int `json:"slots"`
	// Features holds the gathered feature rows, one per slot.
	Features []Feature `json:"features"`
	Context  Context   `json:"context"`
}

// Feature returns the gathered rows of the named feature.
func (e *Entry) Feature(name string) ([][]int, bool) {
	for _, f := range e.Features {
		if f.Name == name {
			return f.Values, true
		}
	}
	return nil, false
}

// Batch is the unit handed to the scoring network.
type Batch struct {
	Entries []Entry
	Queries []Query
	// Mask is 1 for slots where at least one context item matched.
	Mask [][]float64
	// Gold holds the slot positions of the gold candidates. It is only set
	// by BuildTraining, where gold always occupies the leading slots.
	Gold [][]int
	// CandidateSlots is the common number of slots per question.
	CandidateSlots int
	// ContextSlots is the common number of context items per slot.
	ContextSlots int
	// BowSize is the common bag-of-words size per context item.
	BowSize int
}

// Size returns the number of questions in the batch.
func (b *Batch) Size() int {
	return len(b.Entries)
}
