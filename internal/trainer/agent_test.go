// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package trainer

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kbqa/internal/checkpoint"
	"github.com/tomtom215/kbqa/internal/dataset"
	"github.com/tomtom215/kbqa/internal/memory"
	"github.com/tomtom215/kbqa/internal/network"
	"github.com/tomtom215/kbqa/internal/vocab"
)

// fakeNet scores a slot by the negated source candidate index, so
// candidate 0 always ranks first and candidate 1 trails it by 1.
type fakeNet struct {
	w         *network.Parameter
	forwards  int
	backwards int
	training  int
}

func newFakeNet() *fakeNet {
	return &fakeNet{w: network.NewParameter("w", 1, 1)}
}

func (f *fakeNet) Forward(batch *memory.Batch, training bool) (*network.Output, error) {
	f.forwards++
	if training {
		f.training++
	}
	scores := make([][]float64, batch.Size())
	for i, e := range batch.Entries {
		row := make([]float64, batch.CandidateSlots)
		for j := range row {
			if j >= e.Count {
				row[j] = network.MaskedScore
				continue
			}
			row[j] = -float64(e.Slots[j])
		}
		scores[i] = row
	}
	return &network.Output{Hops: [][][]float64{scores}}, nil
}

func (f *fakeNet) Backward(_ *network.Output, _ [][][]float64) error {
	f.backwards++
	f.w.Grad[0]++
	return nil
}

func (f *fakeNet) Parameters() []*network.Parameter {
	return []*network.Parameter{f.w}
}

func testBuilder(t *testing.T) *memory.Builder {
	t.Helper()
	v, err := vocab.New(map[string]int{"__pad__": 0, "__unk__": 1, "a": 2, "b": 3}, vocab.DefaultTokens())
	if err != nil {
		t.Fatal(err)
	}
	return memory.NewBuilder(memory.NewMatcher(v, nil, nil), 4, vocab.DefaultTokens())
}

func testExample(id string, gold string) dataset.Example {
	return dataset.Example{
		ID: id,
		Query: memory.Query{
			TokenIDs: []int{2, 3},
			Words:    []int{2},
			Raw:      []string{"a", "b"},
			Marks:    []int{0, 0},
			Length:   2,
		},
		Record: memory.Record{
			Features: []memory.Feature{{Name: "type", Values: [][]int{{1}, {2}, {0}}}},
			Contexts: [][][]string{{{"b"}}, {}, {}},
		},
		Gold:            []int{0},
		CandidateLabels: []string{"tomato soup", "bread"},
		GoldLabels:      []string{gold},
	}
}

func testExamples(n int, gold string) []dataset.Example {
	out := make([]dataset.Example, n)
	for i := range out {
		out[i] = testExample(string(rune('a'+i)), gold)
	}
	return out
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BatchSize = 2
	cfg.Epochs = 10
	cfg.ValidPatience = 2
	cfg.ModelFile = filepath.Join(t.TempDir(), "models", "kbqa.ckpt")
	return cfg
}

func newTestAgent(t *testing.T, cfg *Config, net network.Network) *Agent {
	t.Helper()
	agent, err := NewAgent(cfg, net, testBuilder(t), memory.NewSampler(4, 1), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewAgent() error = %v", err)
	}
	return agent
}

func TestNewAgent_Errors(t *testing.T) {
	builder := testBuilder(t)
	tests := []struct {
		name    string
		cfg     *Config
		net     network.Network
		builder *memory.Builder
	}{
		{"nil network", nil, nil, builder},
		{"nil builder", nil, newFakeNet(), nil},
		{"invalid config", &Config{}, newFakeNet(), builder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAgent(tt.cfg, tt.net, tt.builder, nil, zerolog.Nop()); err == nil {
				t.Error("NewAgent() expected error")
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"zero learning rate", func(c *Config) { c.LearningRate = 0 }},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }},
		{"zero accumulation", func(c *Config) { c.GradAccumSteps = 0 }},
		{"zero epochs", func(c *Config) { c.Epochs = 0 }},
		{"zero patience", func(c *Config) { c.ValidPatience = 0 }},
		{"zero margin", func(c *Config) { c.Margin = 0 }},
		{"factor one", func(c *Config) { c.LRFactor = 1 }},
		{"no test margin", func(c *Config) { c.TestMargins = nil }},
		{"negative test margin", func(c *Config) { c.TestMargins = []float64{-1} }},
		{"zero test batch", func(c *Config) { c.TestBatchSize = 0 }},
		{"unknown codec", func(c *Config) { c.Compression = "gzip" }},
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected error")
			}
		})
	}
}

func TestTrain_EarlyStopsAfterPatience(t *testing.T) {
	net := newFakeNet()
	cfg := testConfig(t)
	agent := newTestAgent(t, cfg, net)

	res, err := agent.Train(context.Background(), testExamples(4, "tomato soup"), testExamples(2, "the tomato soup"))
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	want := &TrainResult{Epochs: 3, BestF1: 1, BestEpoch: 1, EarlyStopped: true, Updates: 6}
	if !reflect.DeepEqual(res, want) {
		t.Errorf("Train() = %+v, want %+v", res, want)
	}
	if _, err := os.Stat(cfg.ModelFile); err != nil {
		t.Errorf("model file not written: %v", err)
	}
	// 2 train + 1 validation loss batch per epoch, plus 2 single-question
	// validation predictions.
	if net.forwards != 3*5 {
		t.Errorf("forwards = %d, want 15", net.forwards)
	}
	if net.training != 3*2 {
		t.Errorf("training forwards = %d, want 6", net.training)
	}
}

func TestTrain_GradientAccumulation(t *testing.T) {
	net := newFakeNet()
	cfg := testConfig(t)
	cfg.GradAccumSteps = 2
	agent := newTestAgent(t, cfg, net)

	res, err := agent.Train(context.Background(), testExamples(4, "tomato soup"), testExamples(1, "tomato soup"))
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if res.Updates != res.Epochs {
		t.Errorf("Updates = %d, want one per epoch (%d)", res.Updates, res.Epochs)
	}
	if net.backwards != 2*res.Epochs {
		t.Errorf("backwards = %d, want %d", net.backwards, 2*res.Epochs)
	}
}

func TestTrain_NoImprovement(t *testing.T) {
	cfg := testConfig(t)
	agent := newTestAgent(t, cfg, newFakeNet())

	res, err := agent.Train(context.Background(), testExamples(2, "x"), testExamples(2, "bread"))
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if res.BestEpoch != 0 || res.BestF1 != 0 || res.Epochs != cfg.ValidPatience || !res.EarlyStopped {
		t.Errorf("Train() = %+v", res)
	}
	if _, err := os.Stat(cfg.ModelFile); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("model file written without improvement: %v", err)
	}
}

func TestTrain_Errors(t *testing.T) {
	agent := newTestAgent(t, testConfig(t), newFakeNet())
	if _, err := agent.Train(context.Background(), nil, nil); !errors.Is(err, ErrEmptySplit) {
		t.Errorf("Train(nil) error = %v, want ErrEmptySplit", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := agent.Train(ctx, testExamples(2, "x"), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Train(cancelled) error = %v, want context.Canceled", err)
	}

	noSampler, err := NewAgent(testConfig(t), newFakeNet(), testBuilder(t), nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := noSampler.Train(context.Background(), testExamples(1, "x"), nil); !errors.Is(err, ErrNoSampler) {
		t.Errorf("Train() without sampler error = %v, want ErrNoSampler", err)
	}
	if _, err := noSampler.TrainStep(testExamples(1, "x"), 0); !errors.Is(err, ErrNoSampler) {
		t.Errorf("TrainStep() without sampler error = %v, want ErrNoSampler", err)
	}
}

func TestPredictStep(t *testing.T) {
	agent := newTestAgent(t, testConfig(t), newFakeNet())

	unk := testExample("u", "bread")
	unk.CandidateLabels = []string{"UNK", "bread"}

	tests := []struct {
		name   string
		ex     dataset.Example
		margin float64
		want   []string
	}{
		{"top only", testExample("a", ""), 0.5, []string{"tomato soup"}},
		{"margin boundary", testExample("a", ""), 1.0, []string{"tomato soup", "bread"}},
		{"unknown excluded", unk, 1.5, []string{"bread"}},
		{"no labels", dataset.Example{Query: unk.Query, Record: unk.Record}, 1.5, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preds, err := agent.PredictStep([]dataset.Example{tt.ex}, tt.margin)
			if err != nil {
				t.Fatalf("PredictStep() error = %v", err)
			}
			if len(preds) != 1 || !reflect.DeepEqual(preds[0].Labels, tt.want) {
				t.Errorf("PredictStep() labels = %v, want %v", preds[0].Labels, tt.want)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	cfg := testConfig(t)
	cfg.TestMargins = []float64{0.5, 1.5}
	agent := newTestAgent(t, cfg, newFakeNet())

	got, err := agent.Evaluate(context.Background(), testExamples(3, "tomato soup"))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Evaluate() returned %d margins", len(got))
	}
	if got[0].Margin != 0.5 || got[0].F1 != 1 {
		t.Errorf("margin 0.5 = %+v, want F1 1", got[0])
	}
	if got[1].Precision != 0.5 || got[1].Recall != 1 || math.Abs(got[1].F1-2.0/3.0) > 1e-12 {
		t.Errorf("margin 1.5 = %+v, want P 0.5 R 1 F1 2/3", got[1])
	}
}

func TestSaveLoad(t *testing.T) {
	cfg := testConfig(t)
	net := newFakeNet()
	net.w.Data[0] = 0.25
	agent := newTestAgent(t, cfg, net)

	fresh := newTestAgent(t, cfg, newFakeNet())
	if ok, err := fresh.Load(); ok || err != nil {
		t.Fatalf("Load() before save = %v, %v; want false, nil", ok, err)
	}

	if err := agent.Save(checkpoint.Metadata{Epoch: 3, BestF1: 0.5}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	restored := newFakeNet()
	loader := newTestAgent(t, cfg, restored)
	ok, err := loader.Load()
	if err != nil || !ok {
		t.Fatalf("Load() = %v, %v", ok, err)
	}
	if restored.w.Data[0] != 0.25 {
		t.Errorf("restored w = %v, want 0.25", restored.w.Data[0])
	}
}

func TestMemNetTraining(t *testing.T) {
	ncfg := network.Config{
		VocabSize:  4,
		WordDim:    4,
		HiddenDim:  4,
		MarkValues: 3,
		Features:   []network.FeatureSpec{{Name: "type", Vocab: 3}},
		NumHops:    2,
		InitScale:  0.3,
		Seed:       5,
	}
	net, err := network.NewMemNet(ncfg)
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(t)
	cfg.LearningRate = 0.05
	cfg.Epochs = 3
	cfg.ValidPatience = 10
	agent := newTestAgent(t, cfg, net)

	initial := network.Snapshot(net)
	train := testExamples(4, "tomato soup")
	res, err := agent.Train(context.Background(), train, testExamples(2, "tomato soup"))
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if res.Updates != 6 {
		t.Errorf("Updates = %d, want 6", res.Updates)
	}
	if reflect.DeepEqual(initial, network.Snapshot(net)) {
		t.Error("parameters unchanged after training")
	}
	loss, err := agent.ValidationLoss(train)
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		t.Errorf("ValidationLoss() = %v", loss)
	}

	// A reloaded network scores identically.
	if err := agent.Save(checkpoint.Metadata{Epoch: res.Epochs}); err != nil {
		t.Fatal(err)
	}
	clone, err := network.NewMemNet(ncfg)
	if err != nil {
		t.Fatal(err)
	}
	reloaded := newTestAgent(t, cfg, clone)
	if ok, err := reloaded.Load(); !ok || err != nil {
		t.Fatalf("Load() = %v, %v", ok, err)
	}
	ex := testExamples(1, "")
	_, a, err := agent.Score(dataset.Records(ex), dataset.Queries(ex))
	if err != nil {
		t.Fatal(err)
	}
	_, b, err := reloaded.Score(dataset.Records(ex), dataset.Queries(ex))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Final(), b.Final()) {
		t.Errorf("reloaded scores %v differ from %v", b.Final(), a.Final())
	}
}
