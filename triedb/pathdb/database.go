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
	"fmt"
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gosnap-io/gosnap/ethdb"
)

// GeneratorHooks lets the flat-KV snapshot generator (core/state/snapshot)
// cooperate with the bottom-layer commit: the generator must not read the
// disk layer's tables mid-flush, so the commit pauses it for the duration of
// phase 2 and resumes it once the buffer flush (if any) completes.
type GeneratorHooks struct {
	Pause  func()
	Resume func()
}

// Database owns the full layer stack — one persistent diskLayer plus a
// chain of diffLayers above it — and the COMMIT_THRESHOLD-gated three-phase
// protocol that folds the oldest diff layer down to disk once the chain
// grows too deep. Parallel block application is disallowed (the chain is
// strictly linear): Update always extends the current head.
type Database struct {
	config  Config
	kv      ethdb.KeyValueStore
	lock    sync.RWMutex
	disk    *diskLayer
	top     layer
	hooks   GeneratorHooks
}

// NewDatabase opens a layered trie node store backed by kv, bootstrapped
// with a disk layer at root (the store's current persisted state root).
func NewDatabase(kv ethdb.KeyValueStore, root common.Hash, config Config) *Database {
	cfg := config.withDefaults()
	dl := newDiskLayer(root, 0, kv, fastcache.New(cfg.CleanCacheSize), newBuffer(cfg.DirtyBufferSize, nil, nil, 0))
	return &Database{config: cfg, kv: kv, disk: dl, top: dl}
}

// SetGeneratorHooks installs the pause/resume callbacks the bottom-layer
// commit invokes around its buffer flush.
func (db *Database) SetGeneratorHooks(hooks GeneratorHooks) {
	db.lock.Lock()
	defer db.lock.Unlock()
	db.hooks = hooks
}

// Head returns the root hash of the current top-of-stack layer.
func (db *Database) Head() common.Hash {
	db.lock.RLock()
	defer db.lock.RUnlock()
	return db.top.rootHash()
}

// Update pushes a new diff layer on top of the current head, recording
// root's trie-node and flat-state writes relative to parentRoot. parentRoot
// must name the current head exactly — there is no branching stack.
func (db *Database) Update(parentRoot, root common.Hash, nodes *nodeSet, states *stateSet) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.top.rootHash() != parentRoot {
		return fmt.Errorf("pathdb: update parent %s does not match current head %s", parentRoot, db.top.rootHash())
	}
	dl := newDiffLayer(db.top, root, db.top.stateID()+1, nodes, states)
	db.top = dl
	return nil
}

// depth returns how many diff layers currently sit above the disk layer.
func (db *Database) depth() int {
	dl, ok := db.top.(*diffLayer)
	if !ok {
		return 0
	}
	return dl.depth()
}

// Commitable reports whether the diff stack has grown past CommitThreshold
// and a bottom-layer commit is due.
func (db *Database) Commitable() bool {
	db.lock.RLock()
	defer db.lock.RUnlock()
	return db.depth() > CommitThreshold
}

// Cap folds bottom diff layers down to disk until the stack is at most
// CommitThreshold layers deep. Called after every Update in normal
// operation; a caller that needs every pending write durable immediately
// (e.g. on shutdown) should use Commit instead.
func (db *Database) Cap() error {
	db.lock.Lock()
	defer db.lock.Unlock()
	for db.depth() > CommitThreshold {
		if err := db.commitBottomLocked(false); err != nil {
			return err
		}
	}
	return nil
}

// Commit forces every pending diff layer down to disk, regardless of
// CommitThreshold — used on clean shutdown so no in-memory-only state is
// lost.
func (db *Database) Commit() error {
	db.lock.Lock()
	defer db.lock.Unlock()
	for db.depth() > 0 {
		if err := db.commitBottomLocked(true); err != nil {
			return err
		}
	}
	return nil
}

// commitBottomLocked implements the three-phase bottom-layer commit. Phase 1
// (pushing the new top and publishing the read-visible head pointer) is
// already done by the time this runs — every caller reaches here only after
// Update has linked the new diff layer in. This function covers phases 2 and
// 3: pausing the flat-KV generator and flushing the bottom diff layer's
// writes into the disk layer's buffer, then dropping the committed layer
// from the stack. Caller must hold db.lock.
func (db *Database) commitBottomLocked(force bool) error {
	top, ok := db.top.(*diffLayer)
	if !ok {
		return nil // nothing but the disk layer left
	}
	bottom := top.bottom()

	if db.hooks.Pause != nil {
		db.hooks.Pause()
	}
	ndl, err := db.disk.commit(bottom, force)
	if db.hooks.Resume != nil {
		db.hooks.Resume()
	}
	if err != nil {
		return err
	}

	if bottom == top {
		db.top = ndl
	} else {
		cur := top
		for {
			parent, ok := cur.parent.(*diffLayer)
			if !ok || parent == bottom {
				cur.parent = ndl
				break
			}
			cur = parent
		}
	}
	db.disk = ndl
	log.Debug("Committed bottom trie diff layer", "root", bottom.root, "id", bottom.id, "depth", db.depth())
	return nil
}

// Node looks up a single trie node by its owning trie and path, walking the
// layer stack top-down until it finds a write or falls through to the disk
// layer's clean cache and key-value store.
func (db *Database) Node(root common.Hash, owner common.Hash, path []byte) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	l, err := db.layerAt(root)
	if err != nil {
		return nil, err
	}
	blob, found, err := l.node(owner, path)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("pathdb: node owner=%s path=%x not found", owner, path)
	}
	return blob, nil
}

// Account looks up a flat account blob visible at root.
func (db *Database) Account(root common.Hash, hash common.Hash) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	l, err := db.layerAt(root)
	if err != nil {
		return nil, err
	}
	blob, _, err := l.account(hash)
	return blob, err
}

// layerAt returns the layer whose root is root, searching the single linear
// chain from the head down to the disk layer.
func (db *Database) layerAt(root common.Hash) (layer, error) {
	l := db.top
	for l != nil {
		if l.rootHash() == root {
			return l, nil
		}
		l = l.parentLayer()
	}
	return nil, fmt.Errorf("pathdb: unknown layer root %s", root)
}
