// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

// Package network defines the scoring network contract used by the trainer
// and provides a reference memory network, the multi-label margin loss, the
// Adam optimizer and a plateau learning-rate scheduler.
//
// A network scores every slot of a memory.Batch once per memory hop. Slots
// beyond an entry's real candidate count score MaskedScore so that ranking
// and loss ignore them.
package network

import (
	"errors"
	"fmt"

	"github.com/tomtom215/kbqa/internal/memory"
)

// MaskedScore is the score of padding slots.
const MaskedScore = -1e20

var (
	// ErrIDRange is returned when a token, feature or mark id has no
	// embedding row.
	ErrIDRange = errors.New("id outside embedding table")

	// ErrNoForward is returned by Backward for an output it did not produce.
	ErrNoForward = errors.New("output was not produced by this network")

	// ErrShape is returned when restored parameters or gradients do not
	// match the network.
	ErrShape = errors.New("shape mismatch")
)

// Parameter is a named trainable tensor stored row-major.
type Parameter struct {
	Name string
	Rows int
	Cols int
	Data []float64
	Grad []float64
	// Frozen parameters are saved but never updated.
	Frozen bool
}

// NewParameter allocates a zeroed rows x cols parameter.
func NewParameter(name string, rows, cols int) *Parameter {
	return &Parameter{
		Name: name,
		Rows: rows,
		Cols: cols,
		Data: make([]float64, rows*cols),
		Grad: make([]float64, rows*cols),
	}
}

// Row returns row r of the data.
func (p *Parameter) Row(r int) []float64 {
	return p.Data[r*p.Cols : (r+1)*p.Cols]
}

// GradRow returns row r of the gradient.
func (p *Parameter) GradRow(r int) []float64 {
	return p.Grad[r*p.Cols : (r+1)*p.Cols]
}

// ZeroGrad clears the gradient.
func (p *Parameter) ZeroGrad() {
	clear(p.Grad)
}

// Output is the result of one forward pass.
type Output struct {
	// Hops holds scores indexed by [hop][question][slot]. The last hop is
	// the final score.
	Hops [][][]float64
	// QueryAttention holds per-question attention over question tokens.
	QueryAttention [][]float64

	cache any
}

// Final returns the last hop's scores.
func (o *Output) Final() [][]float64 {
	if len(o.Hops) == 0 {
		return nil
	}
	return o.Hops[len(o.Hops)-1]
}

// Network scores candidate memory batches.
type Network interface {
	// Forward scores a batch. Training enables dropout.
	Forward(batch *memory.Batch, training bool) (*Output, error)
	// Backward accumulates parameter gradients given the loss gradient with
	// respect to every hop score of out.
	Backward(out *Output, grads [][][]float64) error
	// Parameters returns the network parameters in a stable order.
	Parameters() []*Parameter
}

// Snapshot copies parameter data by name.
func Snapshot(n Network) map[string][]float64 {
	out := make(map[string][]float64)
	for _, p := range n.Parameters() {
		out[p.Name] = append([]float64(nil), p.Data...)
	}
	return out
}

// Restore loads parameter data by name. Every parameter must be present
// with a matching size.
func Restore(n Network, data map[string][]float64) error {
	for _, p := range n.Parameters() {
		src, ok := data[p.Name]
		if !ok {
			return fmt.Errorf("%w: parameter %q missing", ErrShape, p.Name)
		}
		if len(src) != len(p.Data) {
			return fmt.Errorf("%w: parameter %q has %d values, want %d", ErrShape, p.Name, len(src), len(p.Data))
		}
		copy(p.Data, src)
	}
	return nil
}

// ZeroGrad clears the gradients of every parameter.
func ZeroGrad(params []*Parameter) {
	for _, p := range params {
		p.ZeroGrad()
	}
}
