// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

// Package ranking turns per-candidate scores into an accepted answer set and
// scores answer sets against gold labels.
package ranking

import (
	"sort"
)

// DummySentinel is the score at or below which the top candidate is treated
// as the dummy "no answer" candidate.
const DummySentinel = -1e4

// Prediction is one accepted candidate.
type Prediction struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Rank accepts every candidate whose score is within margin of the top score
// and whose label is not unknown. Only indices below len(labels) are
// considered, so padding and dummy slots never surface. The result is sorted
// by descending score; equal scores keep index order.
func Rank(scores []float64, labels []string, margin float64, unknown string) []Prediction {
	if len(labels) == 0 || len(scores) == 0 {
		return nil
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	top := scores[order[0]]
	if top <= DummySentinel {
		return nil
	}

	var out []Prediction
	for _, j := range order {
		if j >= len(labels) {
			continue
		}
		if scores[j]+margin >= top && labels[j] != unknown {
			out = append(out, Prediction{Index: j, Score: scores[j]})
		}
	}
	return out
}

// Labels maps predictions to their labels, dropping repeats.
func Labels(preds []Prediction, labels []string) []string {
	out := make([]string, 0, len(preds))
	for _, p := range preds {
		out = append(out, labels[p.Index])
	}
	return Unique(out)
}

// Unique returns items without repeats, keeping first occurrences in order.
func Unique(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
