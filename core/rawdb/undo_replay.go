// Copyright 2015 The go-ethereum Authors
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

package rawdb

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gosnap-io/gosnap/ethdb"
)

// writeLogEntry is one row's prior value, recorded before a flat-table write
// so a reorg can restore it. Value == nil means the row did not exist.
type writeLogEntry struct {
	Key   []byte
	Value []byte
}

// writeUndoLogs persists, for block number, the previous value of every flat
// account and storage row the block's UpdateBatch is about to overwrite.
// Idempotent: writing the same block number's log twice just overwrites it.
func writeUndoLogs(w ethdb.KeyValueWriter, number uint64, accountLog, storageLog map[string][]byte) error {
	if enc, err := encodeWriteLog(accountLog); err != nil {
		return err
	} else if err := w.Put(accountWriteLogKey(number), enc); err != nil {
		return err
	}
	if enc, err := encodeWriteLog(storageLog); err != nil {
		return err
	} else if err := w.Put(storageWriteLogKey(number), enc); err != nil {
		return err
	}
	return nil
}

func encodeWriteLog(m map[string][]byte) ([]byte, error) {
	entries := make([]writeLogEntry, 0, len(m))
	for k, v := range m {
		entries = append(entries, writeLogEntry{Key: []byte(k), Value: v})
	}
	return rlp.EncodeToBytes(entries)
}

func decodeWriteLog(enc []byte) ([]writeLogEntry, error) {
	if len(enc) == 0 {
		return nil, nil
	}
	var entries []writeLogEntry
	if err := rlp.DecodeBytes(enc, &entries); err != nil {
		return nil, fmt.Errorf("rawdb: decode write log: %w", err)
	}
	return entries, nil
}

// UndoWritesUntilCanonical rolls the flat account/storage tables back to
// their state as of block `target`, by replaying undo logs in descending
// order from `from` down to target+1. Safe to call repeatedly with the same
// range: once a log's rows are restored, restoring them again is a no-op.
func UndoWritesUntilCanonical(kv ethdb.KeyValueStore, from, target uint64) error {
	if target >= from {
		return nil
	}
	w := kv.NewBatch()
	for number := from; number > target; number-- {
		if err := undoOneBlock(kv, w, number); err != nil {
			return err
		}
	}
	return w.Write()
}

func undoOneBlock(kv ethdb.KeyValueStore, w ethdb.KeyValueWriter, number uint64) error {
	accEnc, err := kv.Get(accountWriteLogKey(number))
	if err != nil {
		accEnc = nil
	}
	accounts, err := decodeWriteLog(accEnc)
	if err != nil {
		return err
	}
	for _, e := range accounts {
		if err := restoreRow(w, e); err != nil {
			return err
		}
	}

	storeEnc, err := kv.Get(storageWriteLogKey(number))
	if err != nil {
		storeEnc = nil
	}
	storage, err := decodeWriteLog(storeEnc)
	if err != nil {
		return err
	}
	for _, e := range storage {
		if err := restoreRow(w, e); err != nil {
			return err
		}
	}
	return nil
}

func restoreRow(w ethdb.KeyValueWriter, e writeLogEntry) error {
	// RLP decodes a logged nil value as an empty slice.
	if len(e.Value) == 0 {
		return w.Delete(e.Key)
	}
	return w.Put(e.Key, e.Value)
}

// ReplayWritesUntilHead re-applies the canonical writes recorded in
// UpdateBatch.FlatAccountUpdates/FlatStorageUpdates for each batch in
// order, moving the flat tables forward again after an UndoWritesUntilCanonical
// rollback (e.g. once the competing branch is discovered stale). Idempotent:
// replaying a batch that is already applied reproduces the same rows.
func ReplayWritesUntilHead(db *Database, batches []*UpdateBatch) error {
	for _, batch := range batches {
		if err := db.ApplyUpdates(batch); err != nil {
			return fmt.Errorf("rawdb: replay block %d: %w", batch.Meta.Number, err)
		}
	}
	return nil
}
