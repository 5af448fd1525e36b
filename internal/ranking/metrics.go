// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package ranking

import (
	"regexp"
	"strings"
)

var articles = regexp.MustCompile(`\b(a|an|the)\b`)

// Normalize lowercases an answer, drops articles and collapses whitespace.
func Normalize(s string) string {
	s = articles.ReplaceAllString(strings.ToLower(s), " ")
	return strings.Join(strings.Fields(s), " ")
}

// Scores holds averaged answer-set metrics.
type Scores struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// PRF computes precision, recall and F1 of one predicted answer set.
// Answers are compared after Normalize. Two empty sets score 1.
func PRF(gold, pred []string) Scores {
	g := normalizedSet(gold)
	p := normalizedSet(pred)
	if len(g) == 0 && len(p) == 0 {
		return Scores{Precision: 1, Recall: 1, F1: 1}
	}
	if len(g) == 0 || len(p) == 0 {
		return Scores{}
	}

	hits := 0
	for a := range p {
		if _, ok := g[a]; ok {
			hits++
		}
	}
	if hits == 0 {
		return Scores{}
	}
	precision := float64(hits) / float64(len(p))
	recall := float64(hits) / float64(len(g))
	return Scores{
		Precision: precision,
		Recall:    recall,
		F1:        2 * precision * recall / (precision + recall),
	}
}

// AverageScores averages PRF over aligned gold and predicted answer sets.
// Missing predictions count as empty.
func AverageScores(gold, pred [][]string) Scores {
	if len(gold) == 0 {
		return Scores{}
	}
	var sum Scores
	for i := range gold {
		var p []string
		if i < len(pred) {
			p = pred[i]
		}
		s := PRF(gold[i], p)
		sum.Precision += s.Precision
		sum.Recall += s.Recall
		sum.F1 += s.F1
	}
	n := float64(len(gold))
	return Scores{Precision: sum.Precision / n, Recall: sum.Recall / n, F1: sum.F1 / n}
}

func normalizedSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		out[Normalize(it)] = struct{}{}
	}
	return out
}
