// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

// Package vocab holds the word vocabulary, the reserved token ids and the
// context stopword set shared by the memory builder and the query encoder.
//
// Reserved ids are carried in an explicit Tokens value that callers pass to
// each component at construction time.
package vocab

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

// Reserved token ids.
const (
	PadID = 0
	UnkID = 1
)

// ErrDuplicateID is returned when two words map to the same id.
var ErrDuplicateID = errors.New("duplicate vocabulary id")

// Tokens carries the reserved token ids and the naming scheme of the
// constraint type markers.
type Tokens struct {
	Pad int
	Unk int
}

// DefaultTokens returns the reserved ids used by every shipped vocabulary.
func DefaultTokens() Tokens {
	return Tokens{Pad: PadID, Unk: UnkID}
}

// TypeMarker returns the vocabulary word standing in for a mention of the
// given entity type, e.g. "__tag__".
func TypeMarker(mentionType string) string {
	return "__" + strings.ToLower(mentionType) + "__"
}

// Vocabulary maps words to ids.
type Vocabulary struct {
	tokens Tokens
	ids    map[string]int
	words  map[int]string
}

// New builds a vocabulary from a word to id mapping.
func New(ids map[string]int, tokens Tokens) (*Vocabulary, error) {
	v := &Vocabulary{
		tokens: tokens,
		ids:    make(map[string]int, len(ids)),
		words:  make(map[int]string, len(ids)),
	}
	for w, id := range ids {
		if prev, ok := v.words[id]; ok {
			return nil, fmt.Errorf("%w: %d used by %q and %q", ErrDuplicateID, id, prev, w)
		}
		v.ids[w] = id
		v.words[id] = w
	}
	return v, nil
}

// Load reads a JSON object of word to id from path.
func Load(path string, tokens Tokens) (*Vocabulary, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted configuration
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	var ids map[string]int
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode vocabulary %s: %w", path, err)
	}
	return New(ids, tokens)
}

// Tokens returns the reserved ids of this vocabulary.
func (v *Vocabulary) Tokens() Tokens {
	return v.tokens
}

// Size returns the number of words.
func (v *Vocabulary) Size() int {
	return len(v.ids)
}

// ID returns the id of word and whether it is known.
func (v *Vocabulary) ID(word string) (int, bool) {
	id, ok := v.ids[word]
	return id, ok
}

// Lookup returns the id of word, or the unknown id.
func (v *Vocabulary) Lookup(word string) int {
	if id, ok := v.ids[word]; ok {
		return id
	}
	return v.tokens.Unk
}

// LookupAll maps every word through Lookup.
func (v *Vocabulary) LookupAll(words []string) []int {
	out := make([]int, len(words))
	for i, w := range words {
		out[i] = v.Lookup(w)
	}
	return out
}

// Word returns the word for id, or the empty string.
func (v *Vocabulary) Word(id int) string {
	return v.words[id]
}

// Words returns the id to word mapping as a slice indexed by id. Gaps are
// left empty.
func (v *Vocabulary) Words() []string {
	maxID := -1
	for id := range v.words {
		if id > maxID {
			maxID = id
		}
	}
	out := make([]string, maxID+1)
	for id, w := range v.words {
		out[id] = w
	}
	return out
}

// Stopwords is a set of context stopwords.
type Stopwords map[string]struct{}

// NewStopwords builds a set from words.
func NewStopwords(words ...string) Stopwords {
	s := make(Stopwords, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// Contains reports whether w is a stopword.
func (s Stopwords) Contains(w string) bool {
	_, ok := s[w]
	return ok
}

// ReadStopwords reads one stopword per line. Blank lines and lines starting
// with '#' are skipped.
func ReadStopwords(r io.Reader) (Stopwords, error) {
	s := make(Stopwords)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s[line] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stopwords: %w", err)
	}
	return s, nil
}

// LoadStopwords reads a stopword file. A missing file yields an empty set.
func LoadStopwords(path string) (Stopwords, error) {
	if path == "" {
		return Stopwords{}, nil
	}
	f, err := os.Open(path) //nolint:gosec // path comes from trusted configuration
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Stopwords{}, nil
		}
		return nil, fmt.Errorf("open stopwords: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read-only file
	return ReadStopwords(f)
}
