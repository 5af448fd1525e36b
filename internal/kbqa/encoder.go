// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package kbqa

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/tomtom215/kbqa/internal/memory"
	"github.com/tomtom215/kbqa/internal/vocab"
)

// questionWords are the interrogatives fed to the network as query words.
var questionWords = map[string]struct{}{
	"who": {}, "whom": {}, "whose": {}, "what": {}, "which": {},
	"when": {}, "where": {}, "why": {}, "how": {},
}

// Encoder vectorizes request questions.
type Encoder struct {
	vocab  *vocab.Vocabulary
	maxLen int
}

// NewEncoder creates an encoder. Questions longer than maxLen tokens are
// truncated; maxLen < 1 disables truncation.
func NewEncoder(v *vocab.Vocabulary, maxLen int) *Encoder {
	return &Encoder{vocab: v, maxLen: maxLen}
}

// Tokenize lowercases s and splits it on anything that is not a letter,
// digit, hyphen or apostrophe.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '\''
	})
}

// Encode builds the query of req. Constraint marks come from the persona:
// tokens of a liked entity get mark 1, disliked ones mark 2.
func (e *Encoder) Encode(req *Request) memory.Query {
	raw := Tokenize(req.Question)
	if e.maxLen > 0 && len(raw) > e.maxLen {
		raw = raw[:e.maxLen]
	}

	q := memory.Query{
		TokenIDs: e.vocab.LookupAll(raw),
		Words:    []int{},
		Raw:      raw,
		Mentions: []memory.Mention{},
		Marks:    make([]int, len(raw)),
		Length:   len(raw),
	}

	for _, w := range raw {
		if _, ok := questionWords[w]; ok {
			q.Words = append(q.Words, e.vocab.Lookup(w))
		}
	}

	for _, ent := range req.Entities {
		if len(ent) != 2 {
			continue
		}
		if toks := Tokenize(ent[0]); len(toks) > 0 {
			q.Mentions = append(q.Mentions, memory.Mention{Tokens: toks, Type: ent[1]})
		}
	}

	applyMarks(raw, q.Marks, req.Persona.Constraints())
	return q
}

// applyMarks marks every occurrence of each constrained phrase. Likes are
// applied first so a dislike wins on overlap.
func applyMarks(raw []string, marks []int, constraints map[string][]string) {
	for _, key := range []string{LikesKey, DislikesKey} {
		mark, _ := strconv.Atoi(key)
		for _, phrase := range constraints[key] {
			toks := Tokenize(phrase)
			if len(toks) == 0 {
				continue
			}
			for start := 0; start+len(toks) <= len(raw); start++ {
				if equalTokens(raw[start:start+len(toks)], toks) {
					for k := range toks {
						marks[start+k] = mark
					}
				}
			}
		}
	}
}

func equalTokens(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
