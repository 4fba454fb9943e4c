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

// Package snap implements the snap-sync wire protocol's message shapes and
// the Syncer state machine that sequences a pivot-based state download.
package snap

import "github.com/ethereum/go-ethereum/common"

// Protocol message codes.
const (
	GetAccountRangeMsg = 0x00
	AccountRangeMsg    = 0x01
	GetStorageRangesMsg = 0x02
	StorageRangesMsg    = 0x03
	GetByteCodesMsg     = 0x04
	ByteCodesMsg        = 0x05
	GetTrieNodesMsg     = 0x06
	TrieNodesMsg        = 0x07
)

// MaxResponseBytes is this protocol's advertised response size budget; kept
// here too (alongside eth/downloader's copy) since it's a wire-level
// constant both the request and response side must agree on.
const MaxResponseBytes = 512 * 1024

// GetAccountRangePacket requests an account range from the trie rooted at
// Root, between Origin and Limit (inclusive), capped at Bytes of response.
type GetAccountRangePacket struct {
	ID     uint64
	Root   common.Hash
	Origin common.Hash
	Limit  common.Hash
	Bytes  uint64
}

// AccountData is one leaf in an AccountRangePacket.
type AccountData struct {
	Hash common.Hash
	Body []byte // RLP-encoded AccountState
}

// AccountRangePacket answers a GetAccountRangePacket with the leaves found
// plus a Merkle proof bracketing the returned range.
type AccountRangePacket struct {
	ID       uint64
	Accounts []AccountData
	Proof    [][]byte
}

// GetStorageRangesPacket requests the storage ranges of one or more
// accounts under the trie rooted at Root.
type GetStorageRangesPacket struct {
	ID       uint64
	Root     common.Hash
	Accounts []common.Hash
	Origin   []byte
	Limit    []byte
	Bytes    uint64
}

// StorageData is one leaf in a StorageRangesPacket's per-account slot list.
type StorageData struct {
	Hash common.Hash
	Body []byte // big-endian U256 slot value
}

// StorageRangesPacket answers a GetStorageRangesPacket with one slot list
// per requested account (in request order) plus a proof for the last
// account's (possibly partial) range.
type StorageRangesPacket struct {
	ID    uint64
	Slots [][]StorageData
	Proof [][]byte
}

// GetByteCodesPacket requests the contract bytecodes named by Hashes.
type GetByteCodesPacket struct {
	ID     uint64
	Hashes []common.Hash
	Bytes  uint64
}

// ByteCodesPacket answers a GetByteCodesPacket, in request order; a missing
// bytecode is represented by an empty slice at its position.
type ByteCodesPacket struct {
	ID    uint64
	Codes [][]byte
}

// GetTrieNodesPacket requests healing trie nodes at Paths (grouped by
// account via TrieNodePathSet) from the trie rooted at Root.
type GetTrieNodesPacket struct {
	ID    uint64
	Root  common.Hash
	Paths []TrieNodePathSet
	Bytes uint64
}

// TrieNodesPacket answers a GetTrieNodesPacket, in request order; a missing
// node is represented by an empty slice at its position.
type TrieNodesPacket struct {
	ID    uint64
	Nodes [][]byte
}
