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
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosnap-io/gosnap/ethdb/memorydb"
)

func hashN(b byte) common.Hash {
	var h common.Hash
	h[31] = b
	return h
}

func TestUpdateRejectsWrongParent(t *testing.T) {
	kv := memorydb.New()
	db := NewDatabase(kv, common.Hash{}, Config{})
	err := db.Update(hashN(1), hashN(2), newNodeSet(nil), newStates(nil, nil))
	if err == nil {
		t.Fatalf("expected error updating from a non-head parent")
	}
}

func TestUpdateThenNodeVisibleAtHead(t *testing.T) {
	kv := memorydb.New()
	db := NewDatabase(kv, common.Hash{}, Config{})

	nodes := newNodeSet(nil)
	nodes.put(common.Hash{}, []byte{0x1}, []byte("node-a"))
	if err := db.Update(common.Hash{}, hashN(1), nodes, newStates(nil, nil)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	blob, err := db.Node(hashN(1), common.Hash{}, []byte{0x1})
	if err != nil {
		t.Fatalf("Node: %v", err)
	}
	if !bytes.Equal(blob, []byte("node-a")) {
		t.Fatalf("have %q, want node-a", blob)
	}
}

func TestCapFoldsBottomLayersToDisk(t *testing.T) {
	kv := memorydb.New()
	db := NewDatabase(kv, common.Hash{}, Config{})

	parent := common.Hash{}
	for i := 1; i <= CommitThreshold+5; i++ {
		nodes := newNodeSet(nil)
		nodes.put(common.Hash{}, []byte{byte(i)}, []byte{byte(i)})
		root := hashN(byte(i))
		if err := db.Update(parent, root, nodes, newStates(nil, nil)); err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}
		parent = root
	}
	if err := db.Cap(); err != nil {
		t.Fatalf("Cap: %v", err)
	}
	if depth := db.depth(); depth > CommitThreshold {
		t.Fatalf("depth %d still exceeds CommitThreshold %d after Cap", depth, CommitThreshold)
	}
	// The oldest write must now be reachable from disk directly.
	blob, err := db.kv.Get(trieNodeKey(common.Hash{}, []byte{1}))
	if err != nil || !bytes.Equal(blob, []byte{1}) {
		t.Fatalf("expected node 1 flushed to disk: blob=%q err=%v", blob, err)
	}
}

func TestCommitForcesEverythingToDisk(t *testing.T) {
	kv := memorydb.New()
	db := NewDatabase(kv, common.Hash{}, Config{})
	nodes := newNodeSet(nil)
	nodes.put(common.Hash{}, []byte{0x9}, []byte("last"))
	if err := db.Update(common.Hash{}, hashN(9), nodes, newStates(nil, nil)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := db.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if db.depth() != 0 {
		t.Fatalf("expected depth 0 after full Commit, have %d", db.depth())
	}
	blob, err := kv.Get(trieNodeKey(common.Hash{}, []byte{0x9}))
	if err != nil || !bytes.Equal(blob, []byte("last")) {
		t.Fatalf("expected node flushed after Commit: blob=%q err=%v", blob, err)
	}
}

func TestGeneratorHooksCalledDuringCap(t *testing.T) {
	kv := memorydb.New()
	db := NewDatabase(kv, common.Hash{}, Config{})
	var paused, resumed int
	db.SetGeneratorHooks(GeneratorHooks{
		Pause:  func() { paused++ },
		Resume: func() { resumed++ },
	})
	parent := common.Hash{}
	for i := 1; i <= CommitThreshold+1; i++ {
		root := hashN(byte(i))
		if err := db.Update(parent, root, newNodeSet(nil), newStates(nil, nil)); err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}
		parent = root
	}
	if err := db.Cap(); err != nil {
		t.Fatalf("Cap: %v", err)
	}
	if paused == 0 || paused != resumed {
		t.Fatalf("expected balanced pause/resume calls, have paused=%d resumed=%d", paused, resumed)
	}
}
