// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/kbqa/internal/memory"
	"github.com/tomtom215/kbqa/internal/metrics"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testBundle(topic string) *Bundle {
	return &Bundle{
		Topic: topic,
		Record: memory.Record{
			Features: []memory.Feature{{Name: "type", Values: [][]int{{1}, {2}, {0}}}},
			Contexts: [][][]string{{{"garlic"}}, {}, {}},
		},
		Candidates: []Candidate{
			{ID: "r1", Label: "garlic soup", Path: []string{"tagged_dishes"}},
			{ID: "r2", Label: "bread", Path: []string{"tagged_dishes"}},
		},
	}
}

func TestStore_PutGet(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	want := testBundle("soup")
	if err := s.Put(ctx, want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := s.Get(ctx, "soup")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
	if labels := got.Labels(); !reflect.DeepEqual(labels, []string{"garlic soup", "bread"}) {
		t.Errorf("Labels() = %v", labels)
	}

	if _, err := s.Get(ctx, "salad"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrRecordNotFound", err)
	}
}

func TestStore_Cache(t *testing.T) {
	s, err := Open(Config{InMemory: true, CacheSize: 4}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()
	cacheHits := metrics.StoreLookups.WithLabelValues("cache_hit")

	if err := s.Put(ctx, testBundle("soup")); err != nil {
		t.Fatal(err)
	}
	first, err := s.Get(ctx, "soup")
	if err != nil {
		t.Fatal(err)
	}
	before := testutil.ToFloat64(cacheHits)
	second, err := s.Get(ctx, "soup")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("second Get() did not return the cached bundle")
	}
	if got := testutil.ToFloat64(cacheHits); got != before+1 {
		t.Errorf("cache hits = %v, want %v", got, before+1)
	}

	// Put replaces the cached bundle
	updated := testBundle("soup")
	updated.Candidates[0].Label = "garlic broth"
	if err := s.Put(ctx, updated); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "soup")
	if err != nil {
		t.Fatal(err)
	}
	if got.Candidates[0].Label != "garlic broth" {
		t.Errorf("Get() after Put label = %q, want garlic broth", got.Candidates[0].Label)
	}

	// Import invalidates everything
	input := `{"topic":"soup","record":{"features":[],"contexts":[[],[]]},"candidates":[{"id":"r9","label":"miso"}]}`
	if _, err := s.Import(ctx, strings.NewReader(input)); err != nil {
		t.Fatal(err)
	}
	got, err = s.Get(ctx, "soup")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Candidates) != 1 || got.Candidates[0].ID != "r9" {
		t.Errorf("Get() after Import = %+v", got.Candidates)
	}

	if err := s.Delete(ctx, "soup"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "soup"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrRecordNotFound", err)
	}
}

func TestStore_CacheNeverStaleAfterWrite(t *testing.T) {
	s, err := Open(Config{InMemory: true, CacheSize: 4}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	if err := s.Put(ctx, testBundle("soup")); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					_, _ = s.Get(ctx, "soup")
				}
			}
		}()
	}

	for v := 0; v < 50; v++ {
		b := testBundle("soup")
		b.Candidates[0].Label = fmt.Sprintf("soup v%d", v)
		if err := s.Put(ctx, b); err != nil {
			t.Fatal(err)
		}
		got, err := s.Get(ctx, "soup")
		if err != nil {
			t.Fatal(err)
		}
		if got.Candidates[0].Label != b.Candidates[0].Label {
			t.Fatalf("Get() after Put = %q, want %q", got.Candidates[0].Label, b.Candidates[0].Label)
		}
	}
	close(done)
	wg.Wait()
}

func TestStore_FailedImportClearsCache(t *testing.T) {
	s, err := Open(Config{InMemory: true, CacheSize: 4}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	if err := s.Put(ctx, testBundle("soup")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "soup"); err != nil {
		t.Fatal(err)
	}
	if s.cache.Len() != 1 {
		t.Fatalf("cache size = %d, want 1", s.cache.Len())
	}

	input := `{"topic":"soup","record":{"features":[],"contexts":[[],[]]},"candidates":[{"id":"r9","label":"miso"}]}
{broken`
	if _, err := s.Import(ctx, strings.NewReader(input)); err == nil {
		t.Fatal("Import() expected error")
	}
	if s.cache.Len() != 0 {
		t.Errorf("cache size after failed import = %d, want 0", s.cache.Len())
	}
}

func TestStore_PutInvalid(t *testing.T) {
	s := setupStore(t)
	tests := []struct {
		name   string
		modify func(b *Bundle)
	}{
		{"empty topic", func(b *Bundle) { b.Topic = "" }},
		{"missing candidate", func(b *Bundle) { b.Candidates = b.Candidates[:1] }},
		{"missing dummy", func(b *Bundle) { b.Record.Contexts = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBundle("soup")
			tt.modify(b)
			if err := s.Put(context.Background(), b); err == nil {
				t.Error("Put() expected error")
			}
		})
	}
}

func TestStore_Lookup(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	for _, topic := range []string{"soup", "salad"} {
		if err := s.Put(ctx, testBundle(topic)); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		topics  []string
		want    string
		wantErr error
	}{
		{"first present", []string{"stew", "salad", "soup"}, "salad", nil},
		{"exact", []string{"soup"}, "soup", nil},
		{"none present", []string{"stew"}, "", ErrRecordNotFound},
		{"no topics", nil, "", ErrRecordNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := s.Lookup(ctx, tt.topics)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Lookup() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && b.Topic != tt.want {
				t.Errorf("Lookup() topic = %q, want %q", b.Topic, tt.want)
			}
		})
	}
}

func TestStore_DeleteAndTopics(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	for _, topic := range []string{"soup", "bread", "salad"} {
		if err := s.Put(ctx, testBundle(topic)); err != nil {
			t.Fatal(err)
		}
	}

	topics, err := s.Topics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(topics, []string{"bread", "salad", "soup"}) {
		t.Errorf("Topics() = %v", topics)
	}

	if err := s.Delete(ctx, "salad"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, "salad"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
	if _, err := s.Get(ctx, "salad"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Get(deleted) error = %v", err)
	}
}

func TestStore_Import(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	input := `{"topic":"soup","record":{"features":[],"contexts":[[["garlic"]],[]]},"candidates":[{"id":"r1","label":"garlic soup"}]}

{"topic":"salad","record":{"features":[],"contexts":[[],[],[]]},"candidates":[{"id":"r2","label":"a"},{"id":"r3","label":"b"}]}
`
	n, err := s.Import(ctx, strings.NewReader(input))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Import() = %d, want 2", n)
	}
	b, err := s.Get(ctx, "salad")
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Candidates) != 2 {
		t.Errorf("imported candidates = %v", b.Candidates)
	}
}

func TestStore_ImportErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  string
	}{
		{"malformed", "{\"topic\":\n", "line 1"},
		{"misaligned", `{"topic":"soup","record":{"contexts":[[]]},"candidates":[]}` + "\n" +
			`{"topic":"x","record":{"contexts":[[],[]]},"candidates":[]}`, "line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupStore(t)
			_, err := s.Import(context.Background(), strings.NewReader(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.line) {
				t.Errorf("Import() error = %v, want mention of %s", err, tt.line)
			}
		})
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open(Config{}, zerolog.Nop()); err == nil {
		t.Error("Open() without path expected error")
	}

	s, err := Open(Config{Path: t.TempDir(), SyncWrites: true, Compression: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() on disk error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
