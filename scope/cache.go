// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scope

import (
	"path/filepath"
	"sync"
)

// cacheEntry holds the resolved declarations for one file.
//
// The resolver caches the result of walking a file rather than the raw
// syntax tree: the declaration list is all later queries need, and it does
// not pin tree-sitter's C-side memory for the life of the process.
type cacheEntry struct {
	// declarations is every declaration found in the file, in source order.
	declarations []Scope

	// approximate is true when declarations came from the text fallback.
	approximate bool
}

// ParseCache caches per-file resolution results, keyed by canonical path.
//
// Description:
//
//	The cache is an explicit object passed into a Resolver rather than
//	hidden package state, so tests can reset it between cases and multiple
//	embeddings can each own an independent cache. Entries live for the life
//	of the cache; analysis runs process a bounded operator-specified file
//	set, so there is no eviction.
//
// Thread Safety:
//
//	ParseCache is safe for concurrent use.
type ParseCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

// NewParseCache creates an empty ParseCache.
func NewParseCache() *ParseCache {
	return &ParseCache{
		entries: make(map[string]*cacheEntry),
	}
}

// canonicalKey resolves a path to its canonical absolute form so repeated
// queries through different spellings of the same path share one entry.
func canonicalKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// get returns the cached entry for a path, if present.
func (c *ParseCache) get(path string) (*cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[canonicalKey(path)]
	return e, ok
}

// put stores an entry for a path, replacing any previous entry.
func (c *ParseCache) put(path string, e *cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[canonicalKey(path)] = e
}

// Len returns the number of cached files.
func (c *ParseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Reset discards all cached entries.
func (c *ParseCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}
