// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

// Package store keeps pre-extracted candidate bundles in BadgerDB, keyed by
// topic entity.
package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/kbqa/internal/cache"
	"github.com/tomtom215/kbqa/internal/logging"
	"github.com/tomtom215/kbqa/internal/metrics"
)

// Key prefix for candidate bundles
const bundleKeyPrefix = "bundle:"

// maxLineBytes bounds a single bundle line during import.
const maxLineBytes = 64 << 20

// ErrRecordNotFound is returned when no bundle exists for a topic entity.
var ErrRecordNotFound = errors.New("candidate record not found")

// Config configures the bundle store.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string `json:"path"`

	// InMemory keeps the database in memory only.
	InMemory bool `json:"in_memory"`

	// SyncWrites fsyncs every write.
	SyncWrites bool `json:"sync_writes"`

	// Compression enables Snappy block compression.
	Compression bool `json:"compression"`

	// CacheSize is the number of decoded bundles kept in memory. Zero
	// disables the cache.
	CacheSize int `json:"cache_size"`

	// CacheTTL bounds how long a cached bundle is served. Zero keeps
	// bundles until evicted.
	CacheTTL time.Duration `json:"cache_ttl"`
}

// Store is a BadgerDB-backed bundle store. It is safe for concurrent use.
// Bundles returned by Get and Lookup may be shared with the cache and must
// not be modified.
type Store struct {
	db     *badger.DB
	cache  *cache.LRU[string, *Bundle] // nil when disabled
	logger zerolog.Logger

	// fill orders cache fills (read lock) against writes and their
	// invalidation (write lock), so a write is never followed by a stale fill.
	fill sync.RWMutex
}

// Open opens (or creates) the store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg Config, logger zerolog.Logger) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("store path is required")
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	opts.Logger = logging.NewBadgerLogger(logger)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logging.WithComponent(logger, "store"),
	}
	if cfg.CacheSize > 0 {
		s.cache = cache.New[string, *Bundle](cfg.CacheSize, cfg.CacheTTL)
	}
	s.logger.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Int("cache_size", cfg.CacheSize).
		Msg("candidate store opened")
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func bundleKey(topic string) []byte {
	return []byte(bundleKeyPrefix + topic)
}

// Put stores a bundle, replacing any bundle for the same topic.
func (s *Store) Put(ctx context.Context, b *Bundle) error {
	if err := b.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	s.fill.Lock()
	defer s.fill.Unlock()
	defer s.forget(b.Topic)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(bundleKey(b.Topic), data)
	})
}

// Get returns the bundle of topic.
func (s *Store) Get(ctx context.Context, topic string) (*Bundle, error) {
	if s.cache != nil {
		if b, ok := s.cache.Get(topic); ok {
			metrics.RecordStoreCacheHit()
			return b, nil
		}
	}

	s.fill.RLock()
	defer s.fill.RUnlock()

	var b Bundle
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(bundleKey(topic))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRecordNotFound
		}
		if err != nil {
			return fmt.Errorf("get bundle: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &b)
		})
	})

	switch {
	case errors.Is(err, ErrRecordNotFound):
		metrics.RecordStoreLookup(false, nil)
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, topic)
	case err != nil:
		metrics.RecordStoreLookup(false, err)
		return nil, err
	}
	metrics.RecordStoreLookup(true, nil)
	if s.cache != nil {
		s.cache.Add(topic, &b)
	}
	return &b, nil
}

func (s *Store) forget(topic string) {
	if s.cache != nil {
		s.cache.Remove(topic)
	}
}

func (s *Store) clearCache() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

// Lookup returns the bundle of the first topic present in the store.
func (s *Store) Lookup(ctx context.Context, topics []string) (*Bundle, error) {
	for _, topic := range topics {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := s.Get(ctx, topic)
		if errors.Is(err, ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, ErrRecordNotFound
}

// Delete removes the bundle of topic. Deleting a missing topic is not an
// error.
func (s *Store) Delete(ctx context.Context, topic string) error {
	s.fill.Lock()
	defer s.fill.Unlock()
	defer s.forget(topic)
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(bundleKey(topic)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete bundle: %w", err)
		}
		return nil
	})
}

// Topics lists the stored topic entities in key order.
func (s *Store) Topics(ctx context.Context) ([]string, error) {
	var topics []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(bundleKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			topics = append(topics, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	return topics, nil
}

// Import bulk-loads bundles from JSON lines and returns the number stored.
// Blank lines are skipped. A malformed or invalid line aborts the import;
// bundles before it may already be written.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	s.fill.Lock()
	defer s.fill.Unlock()
	// The batch may commit part of the input before failing.
	defer s.clearCache()

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	count, line := 0, 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return count, err
		}

		var b Bundle
		if err := json.Unmarshal(raw, &b); err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		if err := b.Validate(); err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		data, err := json.Marshal(&b)
		if err != nil {
			return count, fmt.Errorf("line %d: marshal bundle: %w", line, err)
		}
		if err := wb.Set(bundleKey(b.Topic), data); err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		count++
	}
	if err := sc.Err(); err != nil {
		return count, fmt.Errorf("read bundles: %w", err)
	}
	if err := wb.Flush(); err != nil {
		return count, fmt.Errorf("flush bundles: %w", err)
	}

	metrics.RecordImport(count)
	s.logger.Info().Int("bundles", count).Msg("imported candidate bundles")
	return count, nil
}
