// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package network

import "fmt"

// GoldMask returns, per question, 1 at the gold slot positions and 0
// elsewhere over slots positions.
func GoldMask(gold [][]int, slots int) [][]float64 {
	out := make([][]float64, len(gold))
	for i, g := range gold {
		row := make([]float64, slots)
		for _, pos := range g {
			if pos >= 0 && pos < slots {
				row[pos] = 1
			}
		}
		out[i] = row
	}
	return out
}

// AdjustMargin lowers gold scores by margin-1 so that a unit-margin hinge
// enforces the given margin.
func AdjustMargin(scores, goldMask [][]float64, margin float64) [][]float64 {
	out := make([][]float64, len(scores))
	for i, row := range scores {
		adj := make([]float64, len(row))
		for j, s := range row {
			adj[j] = s - (margin-1)*goldMask[i][j]
		}
		out[i] = adj
	}
	return out
}

// MultiLabelMarginLoss returns the batch mean of
// sum_{j in gold, i not in gold} max(0, 1 - (x[j] - x[i])) / C
// and its gradient with respect to x.
func MultiLabelMarginLoss(x [][]float64, gold [][]int) (float64, [][]float64, error) {
	if len(x) != len(gold) {
		return 0, nil, fmt.Errorf("%w: %d score rows, %d gold sets", ErrShape, len(x), len(gold))
	}
	grads := make([][]float64, len(x))
	if len(x) == 0 {
		return 0, grads, nil
	}
	batch := float64(len(x))

	total := 0.0
	for n, row := range x {
		g := make([]float64, len(row))
		grads[n] = g
		if len(row) == 0 {
			continue
		}
		isGold := make([]bool, len(row))
		for _, j := range gold[n] {
			if j < 0 || j >= len(row) {
				return 0, nil, fmt.Errorf("%w: gold position %d outside %d slots", ErrShape, j, len(row))
			}
			isGold[j] = true
		}

		c := float64(len(row))
		sum := 0.0
		for _, j := range gold[n] {
			for i := range row {
				if isGold[i] {
					continue
				}
				v := 1 - (row[j] - row[i])
				if v <= 0 {
					continue
				}
				sum += v
				g[j] -= 1 / (c * batch)
				g[i] += 1 / (c * batch)
			}
		}
		total += sum / c
	}
	return total / batch, grads, nil
}

// HopLoss averages the margin loss over hops. It returns the loss and the
// gradient with respect to every hop score.
func HopLoss(hops [][][]float64, gold [][]int, margin float64) (float64, [][][]float64, error) {
	if len(hops) == 0 {
		return 0, nil, nil
	}
	grads := make([][][]float64, len(hops))
	total := 0.0
	for h, scores := range hops {
		slots := 0
		if len(scores) > 0 {
			slots = len(scores[0])
		}
		adj := AdjustMargin(scores, GoldMask(gold, slots), margin)
		loss, g, err := MultiLabelMarginLoss(adj, gold)
		if err != nil {
			return 0, nil, fmt.Errorf("hop %d: %w", h, err)
		}
		total += loss
		grads[h] = g
	}

	hops64 := float64(len(hops))
	for _, g := range grads {
		for _, row := range g {
			for k := range row {
				row[k] /= hops64
			}
		}
	}
	return total / hops64, grads, nil
}
