// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

/*
Package cache provides a generic thread-safe LRU cache with TTL support.

The candidate store keeps recently looked-up bundles here so repeated
questions about the same topic entity skip BadgerDB and JSON decoding.

# Usage

	c := cache.New[string, *store.Bundle](1024, 10*time.Minute)
	c.Add(topic, bundle)
	if b, ok := c.Get(topic); ok {
	    // use b
	}

Entries expire lazily on Get; CleanupExpired drops them eagerly. A zero TTL
keeps entries until they are evicted.

# Thread Safety

All methods are safe for concurrent use. Cached values are shared, so callers
must treat them as read-only.
*/
package cache
