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
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosnap-io/gosnap/core/rawdb"
	"github.com/gosnap-io/gosnap/ethdb/memorydb"
)

func TestTreeUpdateRejectsWrongParent(t *testing.T) {
	db := rawdb.NewDatabase(memorydb.New())
	tree := New(db, nil)
	err := tree.Update(common.HexToHash("0x2"), common.HexToHash("0x1"), nil, nil)
	if err == nil {
		t.Fatalf("expected error updating from a non-head parent")
	}
}

func TestTreeUpdateThenReadThroughDiff(t *testing.T) {
	db := rawdb.NewDatabase(memorydb.New())
	tree := New(db, nil)

	var hash common.Hash
	hash[common.HashLength-1] = 0xAA
	accounts := map[common.Hash][]byte{hash: []byte("acc")}
	if err := tree.Update(common.HexToHash("0x1"), common.Hash{}, accounts, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := tree.top.Account(hash)
	if err != nil || !bytes.Equal(got, []byte("acc")) {
		t.Fatalf("have %q err=%v", got, err)
	}
}

func TestTreeCapFlushesOldestLayer(t *testing.T) {
	kv := memorydb.New()
	db := rawdb.NewDatabase(kv)
	tree := New(db, nil)

	parent := common.Hash{}
	var firstHash common.Hash
	firstHash[common.HashLength-1] = 0x01
	for i := 1; i <= DiffLayerLimit+3; i++ {
		root := common.BigToHash(common.Big1)
		root[0] = byte(i)
		var h common.Hash
		h[common.HashLength-1] = byte(i)
		if err := tree.Update(root, parent, map[common.Hash][]byte{h: {byte(i)}}, nil); err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}
		parent = root
	}
	if err := tree.Cap(); err != nil {
		t.Fatalf("Cap: %v", err)
	}
	if tree.depth() > DiffLayerLimit {
		t.Fatalf("depth %d still exceeds DiffLayerLimit after Cap", tree.depth())
	}

	var addr common.Address
	copy(addr[:], firstHash[common.HashLength-common.AddressLength:])
	blob, err := rawdb.ReadFlatAccount(kv, addr)
	if err != nil || !bytes.Equal(blob, []byte{1}) {
		t.Fatalf("expected oldest account flushed to the flat table, have %q err=%v", blob, err)
	}
}
