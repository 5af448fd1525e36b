// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package config

import "path/filepath"

// Resolve joins a relative data path with DataDir. Empty and absolute paths
// are returned unchanged.
func (p *PathsConfig) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || p.DataDir == "" {
		return path
	}
	return filepath.Join(p.DataDir, path)
}

// VocabPath returns the resolved vocabulary path.
func (p *PathsConfig) VocabPath() string { return p.Resolve(p.Vocab) }

// StopwordsPath returns the resolved stopword path.
func (p *PathsConfig) StopwordsPath() string { return p.Resolve(p.Stopwords) }

// WordVectorsPath returns the resolved pretrained word vector path.
func (p *PathsConfig) WordVectorsPath() string { return p.Resolve(p.PreWord2Vec) }

// Split returns the resolved path of the named data split: train, valid or test.
func (p *PathsConfig) Split(name string) string {
	switch name {
	case "train":
		return p.Resolve(p.TrainData)
	case "valid":
		return p.Resolve(p.ValidData)
	case "test":
		return p.Resolve(p.TestData)
	default:
		return ""
	}
}
