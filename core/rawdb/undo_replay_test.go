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
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosnap-io/gosnap/core/types"
	"github.com/gosnap-io/gosnap/ethdb/memorydb"
)

// TestUndoThenReplayRestoresHead writes two blocks' worth of flat-account
// updates, undoes back to block 1, and replays block 2 again, checking the
// flat row ends up exactly where it started.
func TestUndoThenReplayRestoresHead(t *testing.T) {
	kv := memorydb.New()
	db := NewDatabase(kv)
	addr := common.HexToAddress("0x01")

	b1 := &UpdateBatch{
		Blocks:             []*types.BlockHeader{{Number: 1}},
		FlatAccountUpdates: map[common.Address][]byte{addr: []byte("v1")},
		Meta:               FlatTablesBlockMetadata{Number: 1},
	}
	b2 := &UpdateBatch{
		Blocks:             []*types.BlockHeader{{Number: 2}},
		FlatAccountUpdates: map[common.Address][]byte{addr: []byte("v2")},
		Meta:               FlatTablesBlockMetadata{Number: 2},
	}
	if err := db.ApplyUpdates(b1); err != nil {
		t.Fatalf("apply b1: %v", err)
	}
	if err := db.ApplyUpdates(b2); err != nil {
		t.Fatalf("apply b2: %v", err)
	}

	if err := UndoWritesUntilCanonical(kv, 2, 1); err != nil {
		t.Fatalf("undo: %v", err)
	}
	got, _ := ReadFlatAccount(kv, addr)
	if !bytes.Equal(got, []byte("v1")) {
		t.Fatalf("after undo expected v1, have %q", got)
	}

	if err := ReplayWritesUntilHead(db, []*UpdateBatch{b2}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	got, _ = ReadFlatAccount(kv, addr)
	if !bytes.Equal(got, []byte("v2")) {
		t.Fatalf("after replay expected v2, have %q", got)
	}
}

func TestUndoWritesUntilCanonicalNoOpWhenAlreadyThere(t *testing.T) {
	kv := memorydb.New()
	if err := UndoWritesUntilCanonical(kv, 5, 5); err != nil {
		t.Fatalf("undo to same block should be a no-op: %v", err)
	}
}
