// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package kbqa

import (
	"reflect"
	"testing"

	"github.com/tomtom215/kbqa/internal/memory"
	"github.com/tomtom215/kbqa/internal/vocab"
)

func testVocab(t *testing.T) *vocab.Vocabulary {
	t.Helper()
	v, err := vocab.New(map[string]int{
		"<pad>": 0, "<unk>": 1, "what": 2, "soup": 3, "tomato": 4,
		"garlic": 5, "without": 6, "with": 7, "olive": 8, "oil": 9,
	}, vocab.DefaultTokens())
	if err != nil {
		t.Fatalf("vocab.New() error = %v", err)
	}
	return v
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"What soup, without TOMATO?", []string{"what", "soup", "without", "tomato"}},
		{"  ", []string{}},
		{"gluten-free mom's bread", []string{"gluten-free", "mom's", "bread"}},
		{"crème brûlée", []string{"crème", "brûlée"}},
	}

	for _, tt := range tests {
		got := Tokenize(tt.in)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEncoder_Encode(t *testing.T) {
	enc := NewEncoder(testVocab(t), 0)

	q := enc.Encode(&Request{
		Question: "What soup with garlic, without tomato?",
		Entities: [][]string{{"Tomato", "ingredient"}, {"bad"}},
		Persona: Persona{
			IngredientLikes:    []string{"garlic"},
			IngredientDislikes: []string{"tomato"},
		},
	})

	want := memory.Query{
		TokenIDs: []int{2, 3, 7, 5, 6, 4},
		Words:    []int{2},
		Raw:      []string{"what", "soup", "with", "garlic", "without", "tomato"},
		Mentions: []memory.Mention{{Tokens: []string{"tomato"}, Type: "ingredient"}},
		Marks:    []int{0, 0, 0, 1, 0, 2},
		Length:   6,
	}
	if !reflect.DeepEqual(q, want) {
		t.Errorf("Encode() = %+v, want %+v", q, want)
	}
}

func TestEncoder_Marks(t *testing.T) {
	tests := []struct {
		name     string
		question string
		persona  Persona
		want     []int
	}{
		{
			name:     "no persona",
			question: "soup with garlic",
			want:     []int{0, 0, 0},
		},
		{
			name:     "multi-token phrase",
			question: "soup without olive oil",
			persona:  Persona{IngredientDislikes: []string{"Olive Oil"}},
			want:     []int{0, 0, 2, 2},
		},
		{
			name:     "explicit constrained entities win",
			question: "garlic soup with tomato",
			persona: Persona{
				IngredientLikes:     []string{"garlic"},
				ConstrainedEntities: map[string][]string{DislikesKey: {"tomato"}},
			},
			want: []int{0, 0, 0, 2},
		},
		{
			name:     "every occurrence marked",
			question: "tomato soup with tomato",
			persona:  Persona{IngredientLikes: []string{"tomato"}},
			want:     []int{1, 0, 0, 1},
		},
		{
			name:     "dislike overrides like",
			question: "tomato soup",
			persona: Persona{
				IngredientLikes:    []string{"tomato"},
				IngredientDislikes: []string{"tomato"},
			},
			want: []int{2, 0},
		},
	}

	enc := NewEncoder(testVocab(t), 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := enc.Encode(&Request{Question: tt.question, Persona: tt.persona})
			if !reflect.DeepEqual(q.Marks, tt.want) {
				t.Errorf("Marks = %v, want %v", q.Marks, tt.want)
			}
		})
	}
}

func TestEncoder_Truncates(t *testing.T) {
	enc := NewEncoder(testVocab(t), 2)
	q := enc.Encode(&Request{Question: "what soup with garlic"})

	if q.Length != 2 || len(q.TokenIDs) != 2 || len(q.Marks) != 2 {
		t.Errorf("got length %d ids %v marks %v, want 2 tokens", q.Length, q.TokenIDs, q.Marks)
	}
}

func TestPersona_Constraints(t *testing.T) {
	p := Persona{IngredientLikes: []string{"garlic"}}
	got := p.Constraints()
	want := map[string][]string{LikesKey: {"garlic"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Constraints() = %v, want %v", got, want)
	}

	if got := (&Persona{}).Constraints(); len(got) != 0 {
		t.Errorf("empty persona Constraints() = %v, want empty", got)
	}
}
