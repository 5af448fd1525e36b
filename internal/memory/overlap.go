// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package memory

import (
	"strings"

	"github.com/tomtom215/kbqa/internal/vocab"
)

// Matcher finds the text overlap between a question and a context entity
// name.
type Matcher struct {
	vocab           *vocab.Vocabulary
	stops           vocab.Stopwords
	constraintTypes map[string]struct{}
}

// NewMatcher creates a matcher. Mention types are compared lowercased.
func NewMatcher(v *vocab.Vocabulary, stops vocab.Stopwords, constraintTypes []string) *Matcher {
	types := make(map[string]struct{}, len(constraintTypes))
	for _, t := range constraintTypes {
		types[strings.ToLower(t)] = struct{}{}
	}
	if stops == nil {
		stops = vocab.Stopwords{}
	}
	return &Matcher{vocab: v, stops: stops, constraintTypes: types}
}

// Overlap returns the vocabulary ids of the longest common token run between
// the question and the context name, or nil when the run is empty or made
// only of stopwords. A run contained in a constraint-type mention collapses
// to that type's marker token.
func (m *Matcher) Overlap(q *Query, ctxName []string) []int {
	sub := LongestCommonSubstring(q.Raw, ctxName)
	if m.allStopwords(sub) {
		return nil
	}

	joined := strings.Join(sub, "_")
	for _, men := range q.Mentions {
		typ := strings.ToLower(men.Type)
		if _, ok := m.constraintTypes[typ]; !ok {
			continue
		}
		if strings.Contains(strings.Join(men.Tokens, "_"), joined) {
			return []int{m.vocab.Lookup(vocab.TypeMarker(typ))}
		}
	}

	return m.vocab.LookupAll(sub)
}

func (m *Matcher) allStopwords(tokens []string) bool {
	for _, t := range tokens {
		if !m.stops.Contains(t) {
			return false
		}
	}
	return true
}

// LongestCommonSubstring returns the longest contiguous run of tokens shared
// by a and b, taken from a. The earliest run in a wins ties.
func LongestCommonSubstring(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	longest, end := 0, 0
	for x := 1; x <= len(a); x++ {
		for y := 1; y <= len(b); y++ {
			if a[x-1] == b[y-1] {
				cur[y] = prev[y-1] + 1
				if cur[y] > longest {
					longest = cur[y]
					end = x
				}
			} else {
				cur[y] = 0
			}
		}
		prev, cur = cur, prev
	}
	if longest == 0 {
		return nil
	}
	return a[end-longest : end]
}

// FindSubsequence returns the half-open span of the first occurrence of tgt
// in src, or (-1, -1).
func FindSubsequence(src, tgt []int) (start, end int) {
	if len(tgt) == 0 {
		return -1, -1
	}
	for i := 0; i+len(tgt) <= len(src); i++ {
		if src[i] != tgt[0] {
			continue
		}
		match := true
		for k := 1; k < len(tgt); k++ {
			if src[i+k] != tgt[k] {
				match = false
				break
			}
		}
		if match {
			return i, i + len(tgt)
		}
	}
	return -1, -1
}
