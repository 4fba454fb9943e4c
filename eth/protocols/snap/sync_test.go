// Copyright 2021 The go-ethereum Authors
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

package snap

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gosnap-io/gosnap/core/rawdb"
	"github.com/gosnap-io/gosnap/core/types"
	"github.com/gosnap-io/gosnap/eth/downloader"
	"github.com/gosnap-io/gosnap/ethdb/memorydb"
	"github.com/gosnap-io/gosnap/trie"
	"github.com/holiman/uint256"
)

// testPeer is a fixed-response stand-in for the devp2p transport, grounded
// on the teacher's eth/protocols/snap sync_test.go testPeer: canned answers
// keyed off the request shape, no actual networking.
type testPeer struct {
	accounts [][2][]byte
	storage  [][][2][]byte
	codes    [][]byte
}

func (p *testPeer) ID() common.Hash { return common.Hash{1} }

func (p *testPeer) RequestHeaders(ctx context.Context, start, chunkLimit uint64) ([]*types.BlockHeader, error) {
	return []*types.BlockHeader{{Number: start}}, nil
}

func (p *testPeer) RequestAccountRange(ctx context.Context, root, origin, limit common.Hash) ([][2][]byte, [][]byte, error) {
	if origin != (common.Hash{}) {
		return nil, nil, nil
	}
	return p.accounts, nil, nil
}

func (p *testPeer) RequestStorageRanges(ctx context.Context, root common.Hash, accounts []common.Hash, origin, limit common.Hash) ([][][2][]byte, [][]byte, error) {
	return p.storage, nil, nil
}

func (p *testPeer) RequestByteCodes(ctx context.Context, hashes []common.Hash) ([][]byte, error) {
	return p.codes, nil
}

func (p *testPeer) RequestTrieNodes(ctx context.Context, root common.Hash, paths [][][]byte) ([][]byte, error) {
	return make([][]byte, len(paths)), nil
}

func encodedAccount(t *testing.T, nonce uint64, root common.Hash, code []byte) []byte {
	t.Helper()
	acc := &types.AccountState{
		Nonce:    nonce,
		Balance:  uint256.NewInt(0),
		Root:     root,
		CodeHash: crypto.Keccak256(code),
	}
	if len(code) == 0 {
		acc.CodeHash = types.EmptyCodeHash.Bytes()
	}
	enc, err := acc.EncodeRLP()
	if err != nil {
		t.Fatalf("encode account: %v", err)
	}
	return enc
}

func newTestSyncer(t *testing.T) *Syncer {
	t.Helper()
	db := rawdb.NewDatabase(memorydb.New())
	return NewSyncer(db, downloader.NewPeerSet())
}

func TestDispatchAccountRangeVerifiesAndStores(t *testing.T) {
	s := newTestSyncer(t)

	code := []byte{0x60, 0x00}
	keyA := common.HexToHash("0x10")
	keyB := common.HexToHash("0x20")
	blobA := encodedAccount(t, 1, common.Hash{}, nil)
	blobB := encodedAccount(t, 2, common.Hash{}, code)

	root, err := trie.Build([]common.Hash{keyA, keyB}, [][]byte{blobA, blobB}, memorydb.New())
	if err != nil {
		t.Fatalf("build reference trie: %v", err)
	}
	s.pivot = &types.BlockHeader{Root: root}

	peer := &testPeer{accounts: [][2][]byte{{keyA.Bytes(), blobA}, {keyB.Bytes(), blobB}}}
	task := &downloader.Task{
		Kind:          downloader.TaskAccountRanges,
		AccountRanges: &downloader.AccountRangesRequest{StartHash: common.Hash{}, EndHash: common.HexToHash("0xff")},
	}
	if err := s.dispatchAccountRange(context.Background(), peer, task); err != nil {
		t.Fatalf("dispatchAccountRange: %v", err)
	}
	if len(s.accounts) != 2 {
		t.Fatalf("expected 2 accounts recorded, got %d", len(s.accounts))
	}
	if s.state.AccountsSynced != 2 {
		t.Fatalf("expected AccountsSynced=2, got %d", s.state.AccountsSynced)
	}
	if rec, ok := s.byHash[keyB]; !ok || rec.account.Nonce != 2 {
		t.Fatalf("expected account %s indexed by hash", keyB)
	}
}

func TestDispatchAccountRangeRejectsBadProof(t *testing.T) {
	s := newTestSyncer(t)
	s.pivot = &types.BlockHeader{Root: common.HexToHash("0xdeadbeef")}

	keyA := common.HexToHash("0x10")
	blobA := encodedAccount(t, 1, common.Hash{}, nil)
	peer := &testPeer{accounts: [][2][]byte{{keyA.Bytes(), blobA}}}
	task := &downloader.Task{
		Kind:          downloader.TaskAccountRanges,
		AccountRanges: &downloader.AccountRangesRequest{StartHash: common.Hash{}, EndHash: common.HexToHash("0xff")},
	}
	if err := s.dispatchAccountRange(context.Background(), peer, task); err == nil {
		t.Fatal("expected a root-mismatch error, got nil")
	}
}

func TestDispatchStorageRangesVerifiesAndWrites(t *testing.T) {
	s := newTestSyncer(t)

	slotKey := common.HexToHash("0x01")
	slotVal := []byte{0x2a}
	storageRoot, err := trie.Build([]common.Hash{slotKey}, [][]byte{slotVal}, memorydb.New())
	if err != nil {
		t.Fatalf("build storage trie: %v", err)
	}

	acctHash := common.HexToHash("0xaa")
	rec := accountRecord{hash: acctHash, account: &types.AccountState{Root: storageRoot}}
	s.accounts = []accountRecord{rec}
	s.byHash = map[common.Hash]*accountRecord{acctHash: &s.accounts[0]}
	s.pivot = &types.BlockHeader{Root: common.Hash{}}

	peer := &testPeer{storage: [][][2][]byte{{{slotKey.Bytes(), slotVal}}}}
	task := &downloader.Task{
		Kind:          downloader.TaskStorageRanges,
		StorageRanges: &downloader.StorageRangesRequest{StartIdx: 0, EndIdx: 0},
	}
	if err := s.dispatchStorageRanges(context.Background(), peer, task); err != nil {
		t.Fatalf("dispatchStorageRanges: %v", err)
	}
	got, err := rawdb.ReadFlatStorage(s.db.KeyValueStore(), addressFromHash(acctHash), slotKey)
	if err != nil {
		t.Fatalf("read back flat storage: %v", err)
	}
	if string(got) != string(slotVal) {
		t.Fatalf("expected slot value %x, got %x", slotVal, got)
	}
	if s.state.StorageAccounts != 1 {
		t.Fatalf("expected StorageAccounts=1, got %d", s.state.StorageAccounts)
	}
}

func TestDispatchBytecodeValidatesHash(t *testing.T) {
	s := newTestSyncer(t)

	goodCode := []byte{0x60, 0x01}
	goodHash := crypto.Keccak256Hash(goodCode)
	badHash := common.HexToHash("0xbadbad")

	s.codeHashOrder = []common.Hash{goodHash, badHash}
	peer := &testPeer{codes: [][]byte{goodCode, []byte{0xff}}}
	task := &downloader.Task{
		Kind:     downloader.TaskBytecode,
		Bytecode: &downloader.BytecodeRequest{StartIdx: 0, EndIdx: 2},
	}
	if err := s.dispatchBytecode(context.Background(), peer, task); err != nil {
		t.Fatalf("dispatchBytecode: %v", err)
	}
	if string(s.codes[goodHash]) != string(goodCode) {
		t.Fatalf("expected valid bytecode to be stored")
	}
	if _, ok := s.codes[badHash]; ok {
		t.Fatalf("expected mismatched-hash bytecode to be rejected")
	}
	if s.state.BytecodesSynced != 1 {
		t.Fatalf("expected BytecodesSynced=1, got %d", s.state.BytecodesSynced)
	}
}

func TestCommitWritesAccountsAndCodes(t *testing.T) {
	s := newTestSyncer(t)

	addr := addressFromHash(common.HexToHash("0x01"))
	blob := encodedAccount(t, 7, common.Hash{}, nil)
	s.accounts = []accountRecord{{hash: common.HexToHash("0x01"), blob: blob}}
	codeHash := crypto.Keccak256Hash([]byte{0x60})
	s.codes = map[common.Hash][]byte{codeHash: {0x60}}
	s.pivot = &types.BlockHeader{Number: 42}

	if err := s.commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	got, err := rawdb.ReadFlatAccount(s.db.KeyValueStore(), addr)
	if err != nil {
		t.Fatalf("read back flat account: %v", err)
	}
	if string(got) != string(blob) {
		t.Fatalf("flat account mismatch")
	}
	gotCode, err := rawdb.ReadCode(s.db.KeyValueStore(), codeHash)
	if err != nil {
		t.Fatalf("read back code: %v", err)
	}
	if string(gotCode) != string([]byte{0x60}) {
		t.Fatalf("code mismatch")
	}
}
