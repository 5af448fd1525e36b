// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package memory

import (
	"fmt"
	"math/rand"
)

// Sample is the working set of one training question.
type Sample struct {
	// Indices lists the source candidate index of every slot: sampled gold
	// first, then sampled negatives, then DummyIndex padding.
	Indices []int
	// NumGold is the number of leading gold slots.
	NumGold int
	// Count is the number of real candidates in the working set.
	Count int
}

// Sampler draws bounded gold and negative working sets. It is not safe for
// concurrent use.
type Sampler struct {
	memSize int
	rng     *rand.Rand
}

// NewSampler creates a sampler filling memSize slots per question. A zero
// seed selects the default seed 42.
func NewSampler(memSize int, seed int64) *Sampler {
	if seed == 0 {
		seed = 42
	}
	return &Sampler{
		memSize: memSize,
		rng:     rand.New(rand.NewSource(seed)), //nolint:gosec // math/rand is fine for negative sampling
	}
}

// MemSize returns the number of slots per question.
func (s *Sampler) MemSize() int {
	return s.memSize
}

// GoldQuota returns how many gold candidates a working set of memSize slots
// holds for a question with n real candidates and numGold gold ones. When the
// gold set fills memory, the quota shrinks so that negatives still get up to
// half of the slots.
func GoldQuota(memSize, n, numGold int) int {
	if memSize > numGold {
		return numGold
	}
	return memSize - min(memSize/2, n-numGold)
}

// Sample draws the working set for a question with n real candidates.
func (s *Sampler) Sample(gold []int, n int) (Sample, error) {
	if err := validateGold(gold, n); err != nil {
		return Sample{}, err
	}

	numGold := GoldQuota(s.memSize, n, len(gold))
	indices := make([]int, 0, s.memSize)
	indices = append(indices, s.choose(gold, numGold)...)

	if n > len(gold) {
		isGold := make(map[int]struct{}, len(gold))
		for _, g := range gold {
			isGold[g] = struct{}{}
		}
		negatives := make([]int, 0, n-len(gold))
		for i := 0; i < n; i++ {
			if _, ok := isGold[i]; !ok {
				negatives = append(negatives, i)
			}
		}
		indices = append(indices, s.choose(negatives, min(s.memSize, n)-numGold)...)
	}

	for i := 0; i < s.memSize-n; i++ {
		indices = append(indices, DummyIndex)
	}

	return Sample{
		Indices: indices,
		NumGold: numGold,
		Count:   min(s.memSize, n),
	}, nil
}

// choose draws k distinct elements of pool in random order.
func (s *Sampler) choose(pool []int, k int) []int {
	if k <= 0 {
		return nil
	}
	p := append([]int(nil), pool...)
	for i := 0; i < k; i++ {
		j := i + s.rng.Intn(len(p)-i)
		p[i], p[j] = p[j], p[i]
	}
	return p[:k]
}

func validateGold(gold []int, n int) error {
	seen := make(map[int]struct{}, len(gold))
	for _, g := range gold {
		if g < 0 || g >= n {
			return fmt.Errorf("%w: index %d outside [0,%d)", ErrInvalidGold, g, n)
		}
		if _, dup := seen[g]; dup {
			return fmt.Errorf("%w: index %d repeated", ErrInvalidGold, g)
		}
		seen[g] = struct{}{}
	}
	return nil
}
