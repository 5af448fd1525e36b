// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package network

import "math"

// LRSetter is an optimizer whose learning rate can be changed.
type LRSetter interface {
	LR() float64
	SetLR(lr float64)
}

// Plateau reduces the learning rate when a maximized metric stops improving
// by a relative threshold for more than patience steps.
type Plateau struct {
	opt       LRSetter
	factor    float64
	patience  int
	threshold float64
	minLR     float64

	best float64
	bad  int
}

// NewPlateau creates a scheduler for opt.
func NewPlateau(opt LRSetter, factor float64, patience int, threshold float64) *Plateau {
	return &Plateau{
		opt:       opt,
		factor:    factor,
		patience:  patience,
		threshold: threshold,
		best:      math.Inf(-1),
	}
}

// Step records metric and reports whether the learning rate was reduced.
func (p *Plateau) Step(metric float64) bool {
	if metric > p.best*(1+p.threshold) || math.IsInf(p.best, -1) {
		p.best = metric
		p.bad = 0
		return false
	}
	p.bad++
	if p.bad <= p.patience {
		return false
	}
	p.bad = 0

	old := p.opt.LR()
	lr := math.Max(old*p.factor, p.minLR)
	if old-lr > 1e-8 {
		p.opt.SetLR(lr)
		return true
	}
	return false
}

// Best returns the best metric seen.
func (p *Plateau) Best() float64 {
	return p.best
}
