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
	"context"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gosnap-io/gosnap/ethdb"
)

// KeepBlocks is the number of recent blocks' undo logs kept around to
// service a reorg or a re-org-depth debug query; older undo logs are
// eligible for pruning. Receipt chunks are not pruned.
const KeepBlocks = 128

// pruneInterval is how often the background pruning worker wakes up to
// check whether the canonical head has advanced far enough to prune again.
const pruneInterval = 1 * time.Minute

// Pruner periodically deletes write-undo logs for blocks older than
// KeepBlocks behind the current head, and records what it removed in a
// per-block pruning log so the operation itself is auditable.
type Pruner struct {
	kv  ethdb.KeyValueStore
	head func() uint64
}

// NewPruner builds a pruning worker; head returns the current canonical
// head's block number.
func NewPruner(kv ethdb.KeyValueStore, head func() uint64) *Pruner {
	return &Pruner{kv: kv, head: head}
}

// Run blocks until ctx is cancelled, pruning on each tick of pruneInterval.
func (p *Pruner) Run(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.pruneOnce(); err != nil {
				log.Warn("Pruning pass failed", "err", err)
			}
		}
	}
}

func (p *Pruner) pruneOnce() error {
	head := p.head()
	if head <= KeepBlocks {
		return nil
	}
	boundary := head - KeepBlocks
	w := p.kv.NewBatch()
	var pruned [][]byte
	for number := uint64(0); number < boundary; number++ {
		for _, key := range [][]byte{accountWriteLogKey(number), storageWriteLogKey(number)} {
			if v, err := p.kv.Get(key); err == nil && v != nil {
				pruned = append(pruned, key)
				if err := w.Delete(key); err != nil {
					return err
				}
			}
		}
	}
	if len(pruned) == 0 {
		return nil
	}
	if err := writePruningLog(w, boundary, pruned); err != nil {
		return err
	}
	return w.Write()
}

func writePruningLog(w ethdb.KeyValueWriter, boundary uint64, keys [][]byte) error {
	enc, err := encodeWriteLog(keysOnly(keys))
	if err != nil {
		return err
	}
	return w.Put(pruningLogKey(boundary), enc)
}

func keysOnly(keys [][]byte) map[string][]byte {
	m := make(map[string][]byte, len(keys))
	for _, k := range keys {
		m[string(k)] = nil
	}
	return m
}
