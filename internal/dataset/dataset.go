// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

// Package dataset loads vectorized question splits.
//
// A split is a JSON-lines file with one Example per line. Each example
// carries the encoded question, its candidate record (dummy candidate
// last), the gold candidate indices and the display labels used for
// answer-level scoring.
package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kbqa/internal/memory"
)

// maxLineBytes bounds a single example line.
const maxLineBytes = 64 << 20

// ErrInvalidExample is returned for a structurally inconsistent example.
var ErrInvalidExample = errors.New("invalid example")

// Example is one vectorized question.
type Example struct {
	ID     string        `json:"id"`
	Query  memory.Query  `json:"query"`
	Record memory.Record `json:"record"`
	// Gold holds indices of the gold candidates in Record.
	Gold []int `json:"gold"`
	// CandidateLabels holds the display label of every real candidate.
	CandidateLabels []string `json:"candidate_labels"`
	// GoldLabels holds the reference answers.
	GoldLabels []string `json:"gold_labels"`
}

// Validate checks the example against its candidate record.
func (e *Example) Validate() error {
	if err := e.Record.Validate(); err != nil {
		return err
	}
	n := e.Record.RealCount()
	seen := make(map[int]struct{}, len(e.Gold))
	for _, g := range e.Gold {
		if g < 0 || g >= n {
			return fmt.Errorf("%w: gold index %d outside %d candidates", ErrInvalidExample, g, n)
		}
		if _, dup := seen[g]; dup {
			return fmt.Errorf("%w: gold index %d repeated", ErrInvalidExample, g)
		}
		seen[g] = struct{}{}
	}
	if len(e.CandidateLabels) != 0 && len(e.CandidateLabels) != n {
		return fmt.Errorf("%w: %d candidate labels for %d candidates", ErrInvalidExample, len(e.CandidateLabels), n)
	}
	if e.Query.Length > len(e.Query.TokenIDs) {
		return fmt.Errorf("%w: query length %d exceeds %d tokens", ErrInvalidExample, e.Query.Length, len(e.Query.TokenIDs))
	}
	return nil
}

// Read decodes examples from JSON lines. Blank lines are skipped.
func Read(r io.Reader) ([]Example, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var out []Example
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ex Example
		if err := json.Unmarshal(raw, &ex); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := ex.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, ex)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read examples: %w", err)
	}
	return out, nil
}

// Load reads a split file.
func Load(path string) ([]Example, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from trusted configuration
	if err != nil {
		return nil, fmt.Errorf("open split: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	examples, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return examples, nil
}

// Batches splits examples into consecutive slices of at most size. The
// returned slices share the backing array.
func Batches(examples []Example, size int) [][]Example {
	if size < 1 {
		size = 1
	}
	out := make([][]Example, 0, (len(examples)+size-1)/size)
	for start := 0; start < len(examples); start += size {
		end := min(start+size, len(examples))
		out = append(out, examples[start:end])
	}
	return out
}

// Records returns the candidate records of examples.
func Records(examples []Example) []memory.Record {
	out := make([]memory.Record, len(examples))
	for i := range examples {
		out[i] = examples[i].Record
	}
	return out
}

// Queries returns the queries of examples.
func Queries(examples []Example) []memory.Query {
	out := make([]memory.Query, len(examples))
	for i := range examples {
		out[i] = examples[i].Query
	}
	return out
}

// Gold returns the gold index sets of examples.
func Gold(examples []Example) [][]int {
	out := make([][]int, len(examples))
	for i := range examples {
		out[i] = examples[i].Gold
	}
	return out
}
