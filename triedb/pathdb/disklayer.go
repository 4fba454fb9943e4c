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
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/VictoriaMetrics/fastcache"
	"github.com/gosnap-io/gosnap/ethdb"
)

var (
	cleanHitMeter  = metrics.NewRegisteredMeter("pathdb/clean/hit", nil)
	cleanMissMeter = metrics.NewRegisteredMeter("pathdb/clean/miss", nil)
)

// diskLayer is the persistent bottom of the layer stack: every write that
// survives CommitThreshold diff layers ends up here, cached in front by a
// clean-node fastcache and behind by a dirty write buffer.
type diskLayer struct {
	root   common.Hash
	id     uint64
	kv     ethdb.KeyValueStore
	clean  *fastcache.Cache
	buffer *buffer
	stale  bool
	lock   sync.RWMutex
}

func newDiskLayer(root common.Hash, id uint64, kv ethdb.KeyValueStore, clean *fastcache.Cache, buf *buffer) *diskLayer {
	if clean == nil {
		clean = fastcache.New(DefaultCleanCacheSize)
	}
	if buf == nil {
		buf = newBuffer(DefaultBufferSize, nil, nil, 0)
	}
	return &diskLayer{root: root, id: id, kv: kv, clean: clean, buffer: buf}
}

func (dl *diskLayer) rootHash() common.Hash { return dl.root }
func (dl *diskLayer) stateID() uint64       { return dl.id }
func (dl *diskLayer) parentLayer() layer    { return nil }

func (dl *diskLayer) markStale() {
	dl.lock.Lock()
	defer dl.lock.Unlock()
	dl.stale = true
}

func (dl *diskLayer) isStale() bool {
	dl.lock.RLock()
	defer dl.lock.RUnlock()
	return dl.stale
}

func (dl *diskLayer) node(owner common.Hash, path []byte) ([]byte, bool, error) {
	if blob, ok := dl.buffer.node(owner, path); ok {
		return blob, blob != nil, nil
	}
	key := trieNodeKey(owner, path)
	if v, ok := dl.clean.HasGet(nil, key); ok {
		cleanHitMeter.Mark(1)
		return v, len(v) > 0, nil
	}
	cleanMissMeter.Mark(1)
	blob, err := dl.kv.Get(key)
	if err != nil {
		return nil, false, nil
	}
	dl.clean.Set(key, blob)
	return blob, true, nil
}

func (dl *diskLayer) account(hash common.Hash) ([]byte, bool, error) {
	if blob, ok := dl.buffer.account(hash); ok {
		return blob, blob != nil, nil
	}
	blob, err := dl.kv.Get(cachedAccountKey(hash))
	if err != nil {
		return nil, false, nil
	}
	return blob, true, nil
}

func (dl *diskLayer) storage(addrHash, slotHash common.Hash) ([]byte, bool, error) {
	if blob, ok := dl.buffer.storage(addrHash, slotHash); ok {
		return blob, blob != nil, nil
	}
	blob, err := dl.kv.Get(cachedStorageKey(addrHash, slotHash))
	if err != nil {
		return nil, false, nil
	}
	return blob, true, nil
}

// commit folds a flattened diff layer's writes into the disk layer's dirty
// buffer, flushing the buffer to the underlying store if it has grown past
// its configured size (or unconditionally, if force is set). Returns the new
// disk layer that should replace dl in the stack. The old one is marked
// stale, but its node, account and storage reads do not check that flag, so
// a reader still holding it keeps reading from it.
func (dl *diskLayer) commit(bottom *diffLayer, force bool) (*diskLayer, error) {
	dl.markStale()

	ndl := newDiskLayer(bottom.root, bottom.id, dl.kv, dl.clean, dl.buffer)
	ndl.buffer.commit(bottom.nodes, bottom.states)
	if err := ndl.buffer.flush(ndl.kv, force); err != nil {
		return nil, err
	}
	return ndl, nil
}
