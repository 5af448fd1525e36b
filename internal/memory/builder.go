// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package memory

import (
	"fmt"

	"github.com/tomtom215/kbqa/internal/vocab"
)

// Builder assembles candidate memory batches.
type Builder struct {
	matcher *Matcher
	maxBow  int
	tokens  vocab.Tokens
}

// NewBuilder creates a builder whose context bags hold at most maxBow tokens.
func NewBuilder(matcher *Matcher, maxBow int, tokens vocab.Tokens) *Builder {
	if maxBow < 1 {
		maxBow = 1
	}
	return &Builder{matcher: matcher, maxBow: maxBow, tokens: tokens}
}

// plan is the slot layout of one question before alignment.
type plan struct {
	slots []int
	count int
}

// BuildInference aligns every real candidate of each question. Questions
// with fewer candidates than the largest one are padded with dummy slots.
func (b *Builder) BuildInference(records []Record, queries []Query) (*Batch, error) {
	if err := checkInputs(records, queries); err != nil {
		return nil, err
	}

	size := 0
	for i := range records {
		size = max(size, records[i].Size())
	}
	size = max(size-1, 1)

	plans := make([]plan, len(records))
	for i := range records {
		n := records[i].RealCount()
		slots := make([]int, 0, size)
		for j := 0; j < n; j++ {
			slots = append(slots, j)
		}
		for len(slots) < size {
			slots = append(slots, DummyIndex)
		}
		plans[i] = plan{slots: slots, count: n}
	}

	return b.align(records, queries, plans, size), nil
}

// BuildTraining aligns a sampled working set of each question. Gold
// candidates occupy the leading slots and Batch.Gold holds their positions.
func (b *Builder) BuildTraining(records []Record, queries []Query, gold [][]int, sampler *Sampler) (*Batch, error) {
	if err := checkInputs(records, queries); err != nil {
		return nil, err
	}
	if len(gold) != len(records) {
		return nil, fmt.Errorf("%w: %d records, %d gold sets", ErrBatchShape, len(records), len(gold))
	}

	plans := make([]plan, len(records))
	newGold := make([][]int, len(records))
	for i := range records {
		s, err := sampler.Sample(gold[i], records[i].RealCount())
		if err != nil {
			return nil, fmt.Errorf("sample question %d: %w", i, err)
		}
		plans[i] = plan{slots: s.Indices, count: s.Count}
		positions := make([]int, s.NumGold)
		for k := range positions {
			positions[k] = k
		}
		newGold[i] = positions
	}

	batch := b.align(records, queries, plans, sampler.MemSize())
	batch.Gold = newGold
	return batch, nil
}

// align gathers features and context evidence for every planned slot and
// pads context items to the batch-wide maximum.
func (b *Builder) align(records []Record, queries []Query, plans []plan, slots int) *Batch {
	bow := b.bowSize(records)

	batch := &Batch{
		Entries:        make([]Entry, len(records)),
		Queries:        queries,
		Mask:           make([][]float64, len(records)),
		CandidateSlots: slots,
		BowSize:        bow,
	}

	maxItems := 1
	for i := range records {
		rec := &records[i]
		q := &queries[i]
		p := plans[i]

		entry := Entry{
			Count:    p.count,
			Slots:    p.slots,
			Features: gatherFeatures(rec, p.slots),
			Context: Context{
				Bags:    make([][][]int, len(p.slots)),
				Marks:   make([][][]int, len(p.slots)),
				Lengths: make([][]int, len(p.slots)),
				Counts:  make([]int, len(p.slots)),
			},
		}
		mask := make([]float64, len(p.slots))

		for s, idx := range p.slots {
			for _, name := range rec.Contexts[rec.resolve(idx)] {
				sub := b.matcher.Overlap(q, name)
				if len(sub) == 0 {
					continue
				}
				mask[s] = 1
				entry.Context.Bags[s] = append(entry.Context.Bags[s], b.bag(sub, bow))
				entry.Context.Lengths[s] = append(entry.Context.Lengths[s], max(min(bow, len(sub)), 1))
				entry.Context.Marks[s] = append(entry.Context.Marks[s], markSpan(q, sub, bow))
			}
			entry.Context.Counts[s] = len(entry.Context.Bags[s])
			maxItems = max(maxItems, entry.Context.Counts[s])
		}

		batch.Entries[i] = entry
		batch.Mask[i] = mask
	}

	for i := range batch.Entries {
		ctx := &batch.Entries[i].Context
		for s := range ctx.Bags {
			for k := ctx.Counts[s]; k < maxItems; k++ {
				ctx.Bags[s] = append(ctx.Bags[s], b.padBag(bow))
				ctx.Marks[s] = append(ctx.Marks[s], make([]int, bow))
				ctx.Lengths[s] = append(ctx.Lengths[s], 1)
			}
		}
	}
	batch.ContextSlots = maxItems

	return batch
}

// bowSize clamps the longest raw context name in the batch to [1, maxBow].
func (b *Builder) bowSize(records []Record) int {
	longest := 0
	for i := range records {
		for _, cand := range records[i].Contexts {
			for _, name := range cand {
				longest = max(longest, len(name))
			}
		}
	}
	return max(min(longest, b.maxBow), 1)
}

func (b *Builder) bag(sub []int, bow int) []int {
	out := b.padBag(bow)
	copy(out, sub)
	return out
}

func (b *Builder) padBag(bow int) []int {
	out := make([]int, bow)
	if b.tokens.Pad != 0 {
		for i := range out {
			out[i] = b.tokens.Pad
		}
	}
	return out
}

// markSpan slices the question marks at the first occurrence of sub in the
// question ids. No occurrence yields all zeros.
func markSpan(q *Query, sub []int, bow int) []int {
	out := make([]int, bow)
	start, end := FindSubsequence(q.TokenIDs, sub)
	if start < 0 {
		return out
	}
	end = min(end, len(q.Marks))
	if start < end {
		copy(out, q.Marks[start:end])
	}
	return out
}

func gatherFeatures(rec *Record, slots []int) []Feature {
	out := make([]Feature, len(rec.Features))
	for f, feat := range rec.Features {
		rows := make([][]int, len(slots))
		for s, idx := range slots {
			rows[s] = append([]int(nil), feat.Values[rec.resolve(idx)]...)
		}
		out[f] = Feature{Name: feat.Name, Values: rows}
	}
	return out
}

func checkInputs(records []Record, queries []Query) error {
	if len(records) != len(queries) {
		return fmt.Errorf("%w: %d records, %d queries", ErrBatchShape, len(records), len(queries))
	}
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}
	return nil
}
