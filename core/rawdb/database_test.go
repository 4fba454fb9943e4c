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

func TestWriteReadHeaderAndCanonicalHash(t *testing.T) {
	kv := memorydb.New()
	h := &types.BlockHeader{Number: 3, ParentHash: common.HexToHash("0x01")}
	if err := WriteHeader(kv, h); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	got, err := ReadHeader(kv, 3, h.Hash())
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if got.Number != h.Number || got.ParentHash != h.ParentHash {
		t.Fatalf("header mismatch: have %+v", got)
	}
	hash, ok := ReadCanonicalHash(kv, 3)
	if !ok || hash != h.Hash() {
		t.Fatalf("canonical hash mismatch: have %v, ok=%v", hash, ok)
	}
}

func TestReceiptChunkRoundTrip(t *testing.T) {
	kv := memorydb.New()
	hash := common.HexToHash("0xaa")
	chunks := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	if err := WriteReceiptChunks(kv, 1, hash, chunks); err != nil {
		t.Fatalf("WriteReceiptChunks: %v", err)
	}
	got, err := ReadReceiptChunks(kv, 1, hash)
	if err != nil {
		t.Fatalf("ReadReceiptChunks: %v", err)
	}
	if len(got) != len(chunks) {
		t.Fatalf("chunk count mismatch: have %d, want %d", len(got), len(chunks))
	}
	for i := range chunks {
		if !bytes.Equal(got[i], chunks[i]) {
			t.Fatalf("chunk %d mismatch: have %q, want %q", i, got[i], chunks[i])
		}
	}
}

func TestReceiptChunksTooMany(t *testing.T) {
	kv := memorydb.New()
	chunks := make([][]byte, maxReceiptChunks+1)
	if err := WriteReceiptChunks(kv, 1, common.Hash{}, chunks); err == nil {
		t.Fatalf("expected error exceeding maxReceiptChunks")
	}
}

func TestTxLookupEntryRoundTrip(t *testing.T) {
	db := memorydb.New()
	hash := common.HexToHash("0x1234")
	entry := TxLookupEntry{BlockNumber: 7, BlockHash: common.HexToHash("0xabcd"), Index: 3}
	if err := WriteTxLookupEntry(db, hash, entry); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, ok := ReadTxLookupEntry(db, hash)
	if !ok {
		t.Fatal("expected entry to be found")
	}
	if got != entry {
		t.Fatalf("mismatch: have %+v, want %+v", got, entry)
	}
	if _, ok := ReadTxLookupEntry(db, common.HexToHash("0xdead")); ok {
		t.Fatal("expected no entry for unwritten hash")
	}
}

func TestApplyUpdatesAtomicAndFlatRows(t *testing.T) {
	kv := memorydb.New()
	db := NewDatabase(kv)

	h := &types.BlockHeader{Number: 1}
	addr := common.HexToAddress("0xbeef")
	batch := &UpdateBatch{
		Blocks:             []*types.BlockHeader{h},
		Bodies:             map[common.Hash][]byte{h.Hash(): []byte("body")},
		FlatAccountUpdates: map[common.Address][]byte{addr: []byte("acct-v1")},
		Meta:               FlatTablesBlockMetadata{Number: 1, Hash: h.Hash()},
	}
	if err := db.ApplyUpdates(batch); err != nil {
		t.Fatalf("ApplyUpdates: %v", err)
	}

	gotBody, err := ReadBody(kv, 1, h.Hash())
	if err != nil || !bytes.Equal(gotBody, []byte("body")) {
		t.Fatalf("body mismatch: have %q, err %v", gotBody, err)
	}
	gotAcct, err := ReadFlatAccount(kv, addr)
	if err != nil || !bytes.Equal(gotAcct, []byte("acct-v1")) {
		t.Fatalf("flat account mismatch: have %q, err %v", gotAcct, err)
	}
	meta, err := ReadFlatTablesMetadata(kv)
	if err != nil || meta.Number != 1 {
		t.Fatalf("metadata mismatch: have %+v, err %v", meta, err)
	}
}
