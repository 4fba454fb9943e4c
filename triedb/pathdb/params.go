// Copyright 2022 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package pathdb is the trie node store: a content-addressed, layered
// in-memory diff stack sitting on top of a disk-backed key-value store, the
// way an execution client keeps recent trie states available for reorgs
// without re-walking the whole trie on every block.
package pathdb

// CommitThreshold is the number of diff layers allowed to accumulate above
// the disk layer before the bottom-most one is forced down to disk.
const CommitThreshold = 128

// DefaultCleanCacheSize is the default byte budget for the disk layer's
// clean-node cache when a Config doesn't override it.
const DefaultCleanCacheSize = 16 * 1024 * 1024

// DefaultBufferSize is the default byte budget for the disk layer's dirty
// write buffer before it is forced to flush to the underlying store.
const DefaultBufferSize = 8 * 1024 * 1024

// Config tunes a Database's memory budgets. The zero value is valid and
// falls back to the defaults above.
type Config struct {
	CleanCacheSize int // Maximum memory allowance for clean node cache
	DirtyBufferSize int // Maximum memory allowance for the dirty write buffer
}

func (c Config) withDefaults() Config {
	if c.CleanCacheSize == 0 {
		c.CleanCacheSize = DefaultCleanCacheSize
	}
	if c.DirtyBufferSize == 0 {
		c.DirtyBufferSize = DefaultBufferSize
	}
	return c
}
