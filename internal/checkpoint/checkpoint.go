// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

// Package checkpoint persists network parameters and optimizer state.
//
// # File Format
//
// A checkpoint file is a single CBOR value holding Metadata and the
// compressed payload. The payload is the deterministic CBOR encoding of
// Payload; its BLAKE3 checksum is recorded in the metadata and verified on
// load.
package checkpoint

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"github.com/tomtom215/kbqa/internal/network"
)

// Deterministic encoding, so equal payloads hash equally.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	var err error
	if encMode, err = opts.EncMode(); err != nil {
		panic("checkpoint: CBOR encoder initialization failed: " + err.Error())
	}
	if decMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic("checkpoint: CBOR decoder initialization failed: " + err.Error())
	}
}

func checksum(raw []byte) string {
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// ErrChecksumMismatch is returned when a payload does not match its
// recorded checksum.
var ErrChecksumMismatch = errors.New("checkpoint checksum mismatch")

// Metadata describes a stored checkpoint.
type Metadata struct {
	// Epoch is the training epoch that produced the checkpoint.
	Epoch int `json:"epoch"`

	// BestF1 is the validation F1 at save time.
	BestF1 float64 `json:"best_f1"`

	SavedAt time.Time `json:"saved_at"`

	// Checksum is the hex BLAKE3-256 of the uncompressed payload.
	Checksum string `json:"checksum"`

	Compression Compression `json:"compression"`

	// RawBytes is the uncompressed payload size.
	RawBytes int `json:"raw_bytes"`

	// SizeBytes is the stored payload size.
	SizeBytes int64 `json:"size_bytes"`
}

// Payload is the persisted training state.
type Payload struct {
	Params map[string][]float64
	Optim  network.AdamState
}

type storedFile struct {
	Metadata       Metadata
	CompressedData []byte
}

// Save writes payload to path, creating the parent directory.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func Save(path string, payload *Payload, meta Metadata, c Compression) (*Metadata, error) {
	raw, err := encMode.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode checkpoint: %w", err)
	}

	meta.Checksum = checksum(raw)
	meta.RawBytes = len(raw)

	data, used, err := compress(raw, c)
	if err != nil {
		return nil, fmt.Errorf("compress checkpoint: %w", err)
	}
	meta.Compression = used
	meta.SizeBytes = int64(len(data))
	meta.SavedAt = time.Now().UTC()

	out, err := encMode.Marshal(storedFile{Metadata: meta, CompressedData: data})
	if err != nil {
		return nil, fmt.Errorf("encode checkpoint file: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
			return nil, fmt.Errorf("create checkpoint directory: %w", err)
		}
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return nil, fmt.Errorf("write checkpoint: %w", err)
	}
	return &meta, nil
}

// Load reads a checkpoint written by Save. A missing file yields an error
// wrapping os.ErrNotExist.
func Load(path string) (*Payload, *Metadata, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted configuration
	if err != nil {
		return nil, nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var sf storedFile
	if err := decMode.Unmarshal(data, &sf); err != nil {
		return nil, nil, fmt.Errorf("decode checkpoint file: %w", err)
	}

	raw, err := decompress(sf.CompressedData, sf.Metadata.Compression, sf.Metadata.RawBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("decompress checkpoint: %w", err)
	}

	if got := checksum(raw); got != sf.Metadata.Checksum {
		return nil, nil, fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, sf.Metadata.Checksum, got)
	}

	var p Payload
	if err := decMode.Unmarshal(raw, &p); err != nil {
		return nil, nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &p, &sf.Metadata, nil
}
