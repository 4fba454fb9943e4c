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

package pathdb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gosnap-io/gosnap/ethdb"
)

// buffer aggregates dirty trie nodes and flat state across however many diff
// layers have been folded into the disk layer so far, so that their writes
// hit the underlying key-value store as one batch instead of one write per
// committed block.
type buffer struct {
	limit  uint64
	layers uint64
	nodes  *nodeSet
	states *stateSet
}

func newBuffer(limit int, nodes *nodeSet, states *stateSet, layers uint64) *buffer {
	if nodes == nil {
		nodes = newNodeSet(nil)
	}
	if states == nil {
		states = newStates(nil, nil)
	}
	return &buffer{limit: uint64(limit), nodes: nodes, states: states, layers: layers}
}

func (b *buffer) account(hash common.Hash) ([]byte, bool) {
	return b.states.account(hash)
}

func (b *buffer) storage(addrHash, slotHash common.Hash) ([]byte, bool) {
	return b.states.storage(addrHash, slotHash)
}

func (b *buffer) node(owner common.Hash, path []byte) ([]byte, bool) {
	return b.nodes.node(owner, path)
}

// commit folds a freshly flattened diff layer's writes into the buffer.
func (b *buffer) commit(nodes *nodeSet, states *stateSet) {
	b.layers++
	b.nodes.merge(nodes)
	b.states.merge(states)
}

func (b *buffer) empty() bool {
	return b.nodes.empty() && b.states.empty()
}

func (b *buffer) size() uint64 {
	return b.nodes.size + b.states.size
}

// flush persists the buffer's aggregated writes to kv as a single atomic
// batch, then resets the buffer to empty. It is a no-op unless force is set
// or the buffer has grown past its configured byte limit.
func (b *buffer) flush(kv ethdb.KeyValueStore, force bool) error {
	if !force && b.size() < b.limit {
		return nil
	}
	if b.empty() {
		b.layers = 0
		return nil
	}
	batch := kv.NewBatch()
	for owner, sub := range b.nodes.nodes {
		for path, blob := range sub {
			key := trieNodeKey(owner, []byte(path))
			if blob == nil {
				if err := batch.Delete(key); err != nil {
					return err
				}
				continue
			}
			if err := batch.Put(key, blob); err != nil {
				return err
			}
		}
	}
	for hash, blob := range b.states.accounts {
		if err := writeCachedAccount(batch, hash, blob); err != nil {
			return err
		}
	}
	for addrHash, sub := range b.states.storages {
		for slotHash, blob := range sub {
			if err := writeCachedStorage(batch, addrHash, slotHash, blob); err != nil {
				return err
			}
		}
	}
	if err := batch.Write(); err != nil {
		log.Crit("Failed to flush trie node buffer", "err", err)
		return err
	}
	log.Debug("Flushed trie node buffer", "layers", b.layers, "size", common.StorageSize(b.size()))
	b.nodes = newNodeSet(nil)
	b.states = newStates(nil, nil)
	b.layers = 0
	return nil
}
