// Copyright 2014 The go-ethereum Authors
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

// Package ethdb defines the key-value storage interfaces the rest of the
// engine programs against, so callers need not know which backend is
// underneath. The only backend in this module is the in-memory store in
// ethdb/memorydb, used by tests and by range-proof verification.
package ethdb

import "io"

// KeyValueReader wraps the read-only key-value store methods.
type KeyValueReader interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
}

// KeyValueWriter wraps the write-only key-value store methods.
type KeyValueWriter interface {
	Put(key []byte, value []byte) error
	Delete(key []byte) error
}

// KeyValueRangeDeleter wraps the deletion of a range of keys in one call.
// Nothing in this module calls it; the pruning job deletes key by key.
type KeyValueRangeDeleter interface {
	DeleteRange(start, end []byte) error
}

// KeyValueStater wraps the Stat method of a backing data store.
type KeyValueStater interface {
	Stat(property string) (string, error)
}

// Iterator iterates over a database's key/value pairs in ascending key order.
//
// Callers must call Release when done to free resources, and must not modify
// the returned slices — they are only valid until the next call to Next.
type Iterator interface {
	Next() bool
	Error() error
	Key() []byte
	Value() []byte
	Release()
}

// Iteratee wraps the NewIterator method of a backing data store. Iteration
// starts at the first key greater than or equal to start, restricted to keys
// with the given prefix.
type Iteratee interface {
	NewIterator(prefix []byte, start []byte) Iterator
}

// Batch is a write-only batch that accumulates changes and commits them to
// its host database in a single call to Write. A batch cannot be used
// concurrently from multiple goroutines.
type Batch interface {
	KeyValueWriter

	ValueSize() int
	Write() error
	Reset()
	Replay(w KeyValueWriter) error
}

// Batcher wraps the NewBatch methods of a backing data store.
type Batcher interface {
	NewBatch() Batch
	NewBatchWithSize(size int) Batch
}

// Compacter wraps the Compact method of a backing data store.
type Compacter interface {
	Compact(start []byte, limit []byte) error
}

// KeyValueStore contains all the methods required for a backend to serve as
// the engine's storage layer.
type KeyValueStore interface {
	KeyValueReader
	KeyValueWriter
	KeyValueRangeDeleter
	KeyValueStater
	Iteratee
	Batcher
	Compacter
	io.Closer
}
