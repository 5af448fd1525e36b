// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package network

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/tomtom215/kbqa/internal/memory"
)

// FeatureSpec describes one candidate feature field consumed by MemNet.
type FeatureSpec struct {
	Name string
	// Vocab is the size of the feature's own embedding table. Zero means the
	// field holds word ids and shares the word embeddings.
	Vocab int
}

// Config configures MemNet.
type Config struct {
	VocabSize int
	// WordDim is the word embedding width.
	WordDim int
	// HiddenDim is the width of query and candidate representations.
	HiddenDim int
	// MarkValues is the number of distinct constraint mark values.
	MarkValues int
	Features   []FeatureSpec
	NumHops    int

	WordDropout   float64
	QueryDropout  float64
	AnswerDropout float64

	// InitScale bounds the uniform initialization of embeddings.
	InitScale float64
	// FixWordEmbed freezes the word embeddings.
	FixWordEmbed bool
	// Pad is the padding id. Its word row stays zero and padded feature ids
	// are skipped.
	Pad int
	// Seed drives initialization and dropout. Zero selects 42.
	Seed int64
}

// DefaultConfig returns the reference network configuration.
func DefaultConfig() Config {
	return Config{
		VocabSize:  10860,
		WordDim:    300,
		HiddenDim:  128,
		MarkValues: 3,
		Features: []FeatureSpec{
			{Name: "bow"},
			{Name: "type", Vocab: 7},
			{Name: "path", Vocab: 11},
		},
		NumHops:       1,
		WordDropout:   0.3,
		QueryDropout:  0.3,
		AnswerDropout: 0.2,
		InitScale:     0.08,
		Seed:          42,
	}
}

// MemNet is a bag-of-embeddings memory network. The question is the
// projected mean of its word embeddings; each candidate is the sum of its
// feature embeddings and the mean of its context items. Hop h scores
// candidate j as sum_k q_h[k] * gate_h[k] * c_j[k], and the query of the next
// hop adds the attention-weighted candidate sum. It is not safe for
// concurrent use.
type MemNet struct {
	cfg    Config
	word   *Parameter
	proj   *Parameter
	mark   *Parameter
	feats  map[string]*Parameter
	gates  []*Parameter
	params []*Parameter
	rng    *rand.Rand
}

// NewMemNet creates a randomly initialized network.
func NewMemNet(cfg Config) (*MemNet, error) {
	if cfg.VocabSize < 1 || cfg.WordDim < 1 || cfg.HiddenDim < 1 || cfg.NumHops < 1 {
		return nil, fmt.Errorf("network sizes must be positive: vocab=%d word=%d hidden=%d hops=%d",
			cfg.VocabSize, cfg.WordDim, cfg.HiddenDim, cfg.NumHops)
	}
	if cfg.MarkValues < 1 {
		cfg.MarkValues = 1
	}
	if cfg.InitScale <= 0 {
		cfg.InitScale = 0.08
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}

	n := &MemNet{
		cfg:   cfg,
		feats: make(map[string]*Parameter),
		rng:   rand.New(rand.NewSource(cfg.Seed)), //nolint:gosec // math/rand is fine for weight init and dropout
	}

	n.word = n.addParam(NewParameter("word_embed", cfg.VocabSize, cfg.WordDim))
	n.word.Frozen = cfg.FixWordEmbed
	n.uniform(n.word)
	if cfg.Pad >= 0 && cfg.Pad < cfg.VocabSize {
		clear(n.word.Row(cfg.Pad))
	}

	n.proj = n.addParam(NewParameter("word_proj", cfg.HiddenDim, cfg.WordDim))
	n.uniform(n.proj)

	n.mark = n.addParam(NewParameter("mark_embed", cfg.MarkValues, cfg.HiddenDim))
	n.uniform(n.mark)

	for _, f := range cfg.Features {
		if f.Vocab <= 0 {
			continue
		}
		if _, dup := n.feats[f.Name]; dup {
			return nil, fmt.Errorf("duplicate feature %q", f.Name)
		}
		p := n.addParam(NewParameter("feature_"+f.Name, f.Vocab, cfg.HiddenDim))
		n.uniform(p)
		n.feats[f.Name] = p
	}

	for h := 0; h < cfg.NumHops; h++ {
		g := n.addParam(NewParameter(fmt.Sprintf("hop_gate_%d", h), 1, cfg.HiddenDim))
		for k := range g.Data {
			g.Data[k] = 1
		}
		n.gates = append(n.gates, g)
	}

	return n, nil
}

func (n *MemNet) addParam(p *Parameter) *Parameter {
	n.params = append(n.params, p)
	return p
}

func (n *MemNet) uniform(p *Parameter) {
	for k := range p.Data {
		p.Data[k] = (n.rng.Float64()*2 - 1) * n.cfg.InitScale
	}
}

// Parameters implements Network.
func (n *MemNet) Parameters() []*Parameter {
	return n.params
}

// Config returns the network configuration.
func (n *MemNet) Config() Config {
	return n.cfg
}

// SetWordVectors overwrites word embedding rows. Vectors must have WordDim
// values; ids outside the vocabulary are skipped. It returns the number of
// rows written.
func (n *MemNet) SetWordVectors(vectors map[int][]float64) (int, error) {
	written := 0
	for id, vec := range vectors {
		if id < 0 || id >= n.word.Rows {
			continue
		}
		if len(vec) != n.word.Cols {
			return written, fmt.Errorf("%w: vector for id %d has %d values, want %d", ErrShape, id, len(vec), n.word.Cols)
		}
		copy(n.word.Row(id), vec)
		written++
	}
	return written, nil
}

// group is a weighted bag of rows of one table.
type group struct {
	table  *Parameter
	ids    []int
	weight float64
}

func (g group) addTo(dst []float64) {
	for _, id := range g.ids {
		axpy(dst, g.weight, g.table.Row(id))
	}
}

func (g group) backward(d []float64) {
	for _, id := range g.ids {
		axpy(g.table.GradRow(id), g.weight, d)
	}
}

// meanGroup builds a group averaging the given ids.
func meanGroup(table *Parameter, ids []int, scale float64) (group, bool, error) {
	if len(ids) == 0 {
		return group{}, false, nil
	}
	for _, id := range ids {
		if id < 0 || id >= table.Rows {
			return group{}, false, fmt.Errorf("%w: %s id %d, table has %d rows", ErrIDRange, table.Name, id, table.Rows)
		}
	}
	return group{table: table, ids: ids, weight: scale / float64(len(ids))}, true, nil
}

func (n *MemNet) dropPad(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id != n.cfg.Pad {
			out = append(out, id)
		}
	}
	return out
}

// queryGroups returns the word groups of a question.
func (n *MemNet) queryGroups(q *memory.Query) ([]group, error) {
	var out []group
	for _, ids := range [][]int{n.dropPad(queryTokens(q)), n.dropPad(q.Words)} {
		g, ok, err := meanGroup(n.word, ids, 1)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, g)
		}
	}
	return out, nil
}

// candidateGroups returns the word-space and hidden-space groups of slot j.
func (n *MemNet) candidateGroups(e *memory.Entry, j int) (wordSide, hiddenSide []group, err error) {
	for _, f := range n.cfg.Features {
		rows, ok := e.Feature(f.Name)
		if !ok || j >= len(rows) {
			continue
		}
		table := n.word
		if f.Vocab > 0 {
			table = n.feats[f.Name]
		}
		g, ok, err := meanGroup(table, n.dropPad(rows[j]), 1)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		if f.Vocab > 0 {
			hiddenSide = append(hiddenSide, g)
		} else {
			wordSide = append(wordSide, g)
		}
	}

	ctx := &e.Context
	if j >= len(ctx.Counts) || ctx.Counts[j] == 0 {
		return wordSide, hiddenSide, nil
	}
	items := ctx.Counts[j]
	for k := 0; k < items; k++ {
		l := min(ctx.Lengths[j][k], len(ctx.Bags[j][k]))
		bag, ok, err := meanGroup(n.word, ctx.Bags[j][k][:l], 1/float64(items))
		if err != nil {
			return nil, nil, err
		}
		if ok {
			wordSide = append(wordSide, bag)
		}
		marks, ok, err := meanGroup(n.mark, ctx.Marks[j][k][:min(l, len(ctx.Marks[j][k]))], 1/float64(items))
		if err != nil {
			return nil, nil, err
		}
		if ok {
			hiddenSide = append(hiddenSide, marks)
		}
	}
	return wordSide, hiddenSide, nil
}

func queryTokens(q *memory.Query) []int {
	l := q.Length
	if l <= 0 || l > len(q.TokenIDs) {
		l = len(q.TokenIDs)
	}
	return q.TokenIDs[:l]
}

type questionCache struct {
	count int

	queryWords []group
	uq         []float64
	uqScale    []float64
	qScale     []float64
	qs         [][]float64

	wordSide   [][]group
	hiddenSide [][]group
	uc         [][]float64
	ucScale    [][]float64
	cand       [][]float64
	cScale     [][]float64

	probs [][]float64
}

type forwardCache struct {
	owner     *MemNet
	questions []questionCache
}

// Forward implements Network.
func (n *MemNet) Forward(batch *memory.Batch, training bool) (*Output, error) {
	hops := n.cfg.NumHops
	out := &Output{
		Hops:           make([][][]float64, hops),
		QueryAttention: make([][]float64, batch.Size()),
	}
	for h := range out.Hops {
		out.Hops[h] = make([][]float64, batch.Size())
	}
	c := &forwardCache{owner: n, questions: make([]questionCache, batch.Size())}

	for i := range batch.Entries {
		qc, scores, attn, err := n.forwardQuestion(&batch.Entries[i], &batch.Queries[i], batch.CandidateSlots, training)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		for h := range scores {
			out.Hops[h][i] = scores[h]
		}
		out.QueryAttention[i] = attn
		c.questions[i] = qc
	}

	out.cache = c
	return out, nil
}

func (n *MemNet) forwardQuestion(e *memory.Entry, q *memory.Query, slots int, training bool) (questionCache, [][]float64, []float64, error) {
	var qc questionCache
	hidden := n.cfg.HiddenDim

	groups, err := n.queryGroups(q)
	if err != nil {
		return qc, nil, nil, err
	}
	qc.queryWords = groups
	qc.uq = make([]float64, n.cfg.WordDim)
	for _, g := range groups {
		g.addTo(qc.uq)
	}
	qc.uqScale = n.dropout(qc.uq, n.cfg.WordDropout, training)
	q0 := n.project(qc.uq)
	qc.qScale = n.dropout(q0, n.cfg.QueryDropout, training)

	qc.count = min(e.Count, slots, len(e.Slots))
	qc.wordSide = make([][]group, qc.count)
	qc.hiddenSide = make([][]group, qc.count)
	qc.uc = make([][]float64, qc.count)
	qc.ucScale = make([][]float64, qc.count)
	qc.cand = make([][]float64, qc.count)
	qc.cScale = make([][]float64, qc.count)
	for j := 0; j < qc.count; j++ {
		ws, hs, err := n.candidateGroups(e, j)
		if err != nil {
			return qc, nil, nil, fmt.Errorf("slot %d: %w", j, err)
		}
		qc.wordSide[j], qc.hiddenSide[j] = ws, hs

		u := make([]float64, n.cfg.WordDim)
		for _, g := range ws {
			g.addTo(u)
		}
		qc.ucScale[j] = n.dropout(u, n.cfg.WordDropout, training)
		qc.uc[j] = u

		cj := n.project(u)
		for _, g := range hs {
			g.addTo(cj)
		}
		qc.cScale[j] = n.dropout(cj, n.cfg.AnswerDropout, training)
		qc.cand[j] = cj
	}

	scores := make([][]float64, n.cfg.NumHops)
	qc.qs = make([][]float64, n.cfg.NumHops)
	qc.probs = make([][]float64, n.cfg.NumHops)
	cur := q0
	for h := 0; h < n.cfg.NumHops; h++ {
		qc.qs[h] = cur
		gate := n.gates[h].Data
		s := make([]float64, slots)
		for j := range s {
			s[j] = MaskedScore
		}
		for j := 0; j < qc.count; j++ {
			s[j] = gatedDot(cur, gate, qc.cand[j])
		}
		scores[h] = s

		if h < n.cfg.NumHops-1 {
			p := softmax(s[:qc.count])
			qc.probs[h] = p
			next := append(make([]float64, 0, hidden), cur...)
			for j := 0; j < qc.count; j++ {
				axpy(next, p[j], qc.cand[j])
			}
			cur = next
		}
	}

	return qc, scores, n.queryAttention(q, &qc, scores[len(scores)-1]), nil
}

// queryAttention weighs each question token by its projected embedding's
// agreement with the best scoring candidate.
func (n *MemNet) queryAttention(q *memory.Query, qc *questionCache, final []float64) []float64 {
	tokens := queryTokens(q)
	if len(tokens) == 0 {
		return nil
	}
	if qc.count == 0 {
		out := make([]float64, len(tokens))
		for t := range out {
			out[t] = 1 / float64(len(tokens))
		}
		return out
	}

	best := 0
	for j := 1; j < qc.count; j++ {
		if final[j] > final[best] {
			best = j
		}
	}
	logits := make([]float64, len(tokens))
	for t, id := range tokens {
		if id < 0 || id >= n.word.Rows {
			continue
		}
		logits[t] = dot(n.project(n.word.Row(id)), qc.cand[best])
	}
	return softmax(logits)
}

// Backward implements Network.
func (n *MemNet) Backward(out *Output, grads [][][]float64) error {
	c, ok := out.cache.(*forwardCache)
	if !ok || c.owner != n {
		return ErrNoForward
	}
	if len(grads) != n.cfg.NumHops {
		return fmt.Errorf("%w: %d hop gradients, want %d", ErrShape, len(grads), n.cfg.NumHops)
	}
	for h := range grads {
		if len(grads[h]) != len(c.questions) {
			return fmt.Errorf("%w: hop %d has %d question gradients, want %d", ErrShape, h, len(grads[h]), len(c.questions))
		}
	}

	for i := range c.questions {
		qg := make([][]float64, len(grads))
		for h := range grads {
			qg[h] = grads[h][i]
		}
		if err := n.backwardQuestion(&c.questions[i], qg); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}
	return nil
}

func (n *MemNet) backwardQuestion(qc *questionCache, grads [][]float64) error {
	hidden := n.cfg.HiddenDim
	dc := make([][]float64, qc.count)
	for j := range dc {
		dc[j] = make([]float64, hidden)
	}

	var dqNext []float64
	for h := n.cfg.NumHops - 1; h >= 0; h-- {
		if len(grads[h]) < qc.count {
			return fmt.Errorf("%w: hop %d has %d slot gradients, want at least %d", ErrShape, h, len(grads[h]), qc.count)
		}
		ds := append([]float64(nil), grads[h][:qc.count]...)
		dq := make([]float64, hidden)

		if dqNext != nil {
			copy(dq, dqNext)
			p := qc.probs[h]
			dp := make([]float64, qc.count)
			avg := 0.0
			for j := 0; j < qc.count; j++ {
				dp[j] = dot(qc.cand[j], dqNext)
				axpy(dc[j], p[j], dqNext)
				avg += p[j] * dp[j]
			}
			for j := 0; j < qc.count; j++ {
				ds[j] += p[j] * (dp[j] - avg)
			}
		}

		q := qc.qs[h]
		gate := n.gates[h]
		for j := 0; j < qc.count; j++ {
			if ds[j] == 0 {
				continue
			}
			cj := qc.cand[j]
			for k := 0; k < hidden; k++ {
				dq[k] += ds[j] * gate.Data[k] * cj[k]
				gate.Grad[k] += ds[j] * q[k] * cj[k]
				dc[j][k] += ds[j] * q[k] * gate.Data[k]
			}
		}
		dqNext = dq
	}

	scale(dqNext, qc.qScale)
	duq := n.projectBackward(dqNext, qc.uq)
	scale(duq, qc.uqScale)
	for _, g := range qc.queryWords {
		g.backward(duq)
	}

	for j := 0; j < qc.count; j++ {
		d := dc[j]
		scale(d, qc.cScale[j])
		for _, g := range qc.hiddenSide[j] {
			g.backward(d)
		}
		du := n.projectBackward(d, qc.uc[j])
		scale(du, qc.ucScale[j])
		for _, g := range qc.wordSide[j] {
			g.backward(du)
		}
	}

	if n.cfg.Pad >= 0 && n.cfg.Pad < n.word.Rows {
		clear(n.word.GradRow(n.cfg.Pad))
	}
	return nil
}

// project maps a word-space vector to hidden space.
func (n *MemNet) project(u []float64) []float64 {
	out := make([]float64, n.proj.Rows)
	for r := range out {
		out[r] = dot(n.proj.Row(r), u)
	}
	return out
}

// projectBackward accumulates the projection gradient for output gradient d
// and input u, and returns the input gradient.
func (n *MemNet) projectBackward(d, u []float64) []float64 {
	du := make([]float64, n.proj.Cols)
	for r := 0; r < n.proj.Rows; r++ {
		if d[r] == 0 {
			continue
		}
		axpy(n.proj.GradRow(r), d[r], u)
		axpy(du, d[r], n.proj.Row(r))
	}
	return du
}

// dropout applies inverted dropout in place and returns the scale applied,
// or nil when disabled.
func (n *MemNet) dropout(v []float64, p float64, training bool) []float64 {
	if !training || p <= 0 {
		return nil
	}
	keep := 1 - p
	s := make([]float64, len(v))
	for k := range v {
		if n.rng.Float64() >= p {
			s[k] = 1 / keep
		}
		v[k] *= s[k]
	}
	return s
}

func scale(v, s []float64) {
	if s == nil {
		return
	}
	for k := range v {
		v[k] *= s[k]
	}
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for k := range a {
		sum += a[k] * b[k]
	}
	return sum
}

func gatedDot(a, g, b []float64) float64 {
	sum := 0.0
	for k := range a {
		sum += a[k] * g[k] * b[k]
	}
	return sum
}

func axpy(dst []float64, alpha float64, x []float64) {
	for k := range dst {
		dst[k] += alpha * x[k]
	}
}

func softmax(x []float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	m := math.Inf(-1)
	for _, v := range x {
		m = math.Max(m, v)
	}
	out := make([]float64, len(x))
	sum := 0.0
	for k, v := range x {
		out[k] = math.Exp(v - m)
		sum += out[k]
	}
	for k := range out {
		out[k] /= sum
	}
	return out
}
