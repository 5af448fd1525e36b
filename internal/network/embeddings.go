// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package network

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// WordIndex resolves words to ids.
type WordIndex interface {
	ID(word string) (int, bool)
}

// ReadWordVectors parses whitespace separated "word v1 ... vd" lines and
// keeps the vectors of words known to index. Lines of another width are
// rejected.
func ReadWordVectors(r io.Reader, index WordIndex, dim int) (map[int][]float64, error) {
	out := make(map[int][]float64)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		id, ok := index.ID(fields[0])
		if !ok {
			continue
		}
		if len(fields)-1 != dim {
			return nil, fmt.Errorf("%w: line %d has %d values, want %d", ErrShape, line, len(fields)-1, dim)
		}
		vec := make([]float64, dim)
		for k, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			vec[k] = v
		}
		out[id] = vec
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read word vectors: %w", err)
	}
	return out, nil
}

// LoadWordVectors reads a word vector file. A missing file yields no
// vectors and no error.
func LoadWordVectors(path string, index WordIndex, dim int) (map[int][]float64, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path) //nolint:gosec // path comes from trusted configuration
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open word vectors: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read-only file
	return ReadWordVectors(f, index, dim)
}
