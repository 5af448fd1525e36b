// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package network

import (
	"fmt"
	"math"
)

// AdamState is the serializable optimizer state.
type AdamState struct {
	LR float64
	T  int
	M  map[string][]float64
	V  map[string][]float64
}

// Adam implements the Adam optimizer with bias correction.
type Adam struct {
	params []*Parameter
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      int
	m      [][]float64
	v      [][]float64
}

// NewAdam creates an optimizer over params.
func NewAdam(params []*Parameter, lr float64) *Adam {
	a := &Adam{
		params: params,
		lr:     lr,
		beta1:  0.9,
		beta2:  0.999,
		eps:    1e-8,
		m:      make([][]float64, len(params)),
		v:      make([][]float64, len(params)),
	}
	for i, p := range params {
		a.m[i] = make([]float64, len(p.Data))
		a.v[i] = make([]float64, len(p.Data))
	}
	return a
}

// LR returns the learning rate.
func (a *Adam) LR() float64 {
	return a.lr
}

// SetLR sets the learning rate.
func (a *Adam) SetLR(lr float64) {
	a.lr = lr
}

// Step applies one update from the accumulated gradients. Frozen parameters
// are skipped. Gradients are left in place; call ZeroGrad to clear them.
func (a *Adam) Step() {
	a.t++
	b1Corr := 1 - math.Pow(a.beta1, float64(a.t))
	b2Corr := 1 - math.Pow(a.beta2, float64(a.t))

	for i, p := range a.params {
		if p.Frozen {
			continue
		}
		mi, vi := a.m[i], a.v[i]
		for k, g := range p.Grad {
			mi[k] = a.beta1*mi[k] + (1-a.beta1)*g
			vi[k] = a.beta2*vi[k] + (1-a.beta2)*g*g
			mhat := mi[k] / b1Corr
			vhat := vi[k] / b2Corr
			p.Data[k] -= a.lr * mhat / (math.Sqrt(vhat) + a.eps)
		}
	}
}

// ZeroGrad clears the gradients of the optimized parameters.
func (a *Adam) ZeroGrad() {
	ZeroGrad(a.params)
}

// State copies the optimizer state.
func (a *Adam) State() AdamState {
	st := AdamState{
		LR: a.lr,
		T:  a.t,
		M:  make(map[string][]float64, len(a.params)),
		V:  make(map[string][]float64, len(a.params)),
	}
	for i, p := range a.params {
		st.M[p.Name] = append([]float64(nil), a.m[i]...)
		st.V[p.Name] = append([]float64(nil), a.v[i]...)
	}
	return st
}

// SetState restores a state produced by State.
func (a *Adam) SetState(st AdamState) error {
	for i, p := range a.params {
		m, okM := st.M[p.Name]
		v, okV := st.V[p.Name]
		if !okM || !okV {
			return fmt.Errorf("%w: optimizer state for %q missing", ErrShape, p.Name)
		}
		if len(m) != len(p.Data) || len(v) != len(p.Data) {
			return fmt.Errorf("%w: optimizer state for %q has wrong size", ErrShape, p.Name)
		}
		copy(a.m[i], m)
		copy(a.v[i], v)
	}
	a.t = st.T
	if st.LR > 0 {
		a.lr = st.LR
	}
	return nil
}
