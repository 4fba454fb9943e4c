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

// Package rawdb is the storage engine façade: it owns the on-disk table/key
// layout and exposes typed accessors so the rest of the engine never builds
// a raw key by hand.
package rawdb

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

// Table key prefixes. Each is chosen short (1-2 bytes) to keep keys compact
// in the underlying key-value store; values are RLP or packed binary.
var (
	headerPrefix        = []byte("h") // headerPrefix + num(8) + hash -> header
	headerHashSuffix    = []byte("n") // headerPrefix + num(8) + headerHashSuffix -> hash
	headerNumberPrefix  = []byte("H") // headerNumberPrefix + hash -> num(8)
	blockBodyPrefix     = []byte("b") // blockBodyPrefix + num(8) + hash -> body
	blockReceiptsPrefix = []byte("r") // blockReceiptsPrefix + num(8) + hash + chunkIndex(1) -> receipt chunk
	txLookupPrefix      = []byte("l") // txLookupPrefix + hash -> RLP(TxLookupEntry{blockNumber, blockHash, index})
	codePrefix          = []byte("c") // codePrefix + hash -> contract bytecode
	skeletonHeaderPrefix = []byte("S") // skeletonHeaderPrefix + num(8) -> header, used while filling the skeleton

	flatAccountPrefix = []byte("A") // flatAccountPrefix + address(20) -> account RLP
	flatStoragePrefix = []byte("O") // flatStoragePrefix + address(20) + slotHash(32) -> storage value

	accountWriteLogPrefix = []byte("wa") // accountWriteLogPrefix + num(8) -> undo log for account-info writes
	storageWriteLogPrefix = []byte("ws") // storageWriteLogPrefix + num(8) -> undo log for storage writes
	pruningLogPrefix      = []byte("p")  // pruningLogPrefix + num(8) -> keys pruned at this block

	flatTablesMetadataKey  = []byte("FlatTablesBlockMetadata")
	snapshotGeneratorKey   = []byte("SnapshotGenerator")
	headHeaderKey          = []byte("LastHeader")
)

// encodeBlockNumber renders num as the fixed-width big-endian key component
// every number-prefixed table sorts by, so a range scan visits blocks in
// canonical order.
func encodeBlockNumber(num uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, num)
	return enc
}

func decodeBlockNumber(enc []byte) uint64 {
	return binary.BigEndian.Uint64(enc)
}

// headerKeyPrefix = headerPrefix + num(8)
func headerKeyPrefix(number uint64) []byte {
	return append(append([]byte{}, headerPrefix...), encodeBlockNumber(number)...)
}

// headerKey = headerPrefix + num(8) + hash
func headerKey(number uint64, hash common.Hash) []byte {
	return append(headerKeyPrefix(number), hash.Bytes()...)
}

// headerHashKey = headerPrefix + num(8) + headerHashSuffix
func headerHashKey(number uint64) []byte {
	return append(headerKeyPrefix(number), headerHashSuffix...)
}

// headerNumberKey = headerNumberPrefix + hash
func headerNumberKey(hash common.Hash) []byte {
	return append(append([]byte{}, headerNumberPrefix...), hash.Bytes()...)
}

// blockBodyKey = blockBodyPrefix + num(8) + hash
func blockBodyKey(number uint64, hash common.Hash) []byte {
	return append(append(append([]byte{}, blockBodyPrefix...), encodeBlockNumber(number)...), hash.Bytes()...)
}

// blockReceiptsKeyPrefix = blockReceiptsPrefix + num(8) + hash
func blockReceiptsKeyPrefix(number uint64, hash common.Hash) []byte {
	return append(append(append([]byte{}, blockReceiptsPrefix...), encodeBlockNumber(number)...), hash.Bytes()...)
}

// blockReceiptsKey addresses a single chunk of a block's (possibly chunked)
// receipt list. maxReceiptChunks bounds chunkIndex to a single byte.
const maxReceiptChunks = 256

func blockReceiptsKey(number uint64, hash common.Hash, chunkIndex uint8) []byte {
	return append(blockReceiptsKeyPrefix(number, hash), chunkIndex)
}

// skeletonHeaderKey = skeletonHeaderPrefix + num(8)
func skeletonHeaderKey(number uint64) []byte {
	return append(append([]byte{}, skeletonHeaderPrefix...), encodeBlockNumber(number)...)
}

// txLookupKey = txLookupPrefix + hash
func txLookupKey(hash common.Hash) []byte {
	return append(append([]byte{}, txLookupPrefix...), hash.Bytes()...)
}

// codeKey = codePrefix + hash
func codeKey(hash common.Hash) []byte {
	return append(append([]byte{}, codePrefix...), hash.Bytes()...)
}

// flatAccountKey = flatAccountPrefix + address(20)
func flatAccountKey(addr common.Address) []byte {
	return append(append([]byte{}, flatAccountPrefix...), addr.Bytes()...)
}

// flatStorageKey = flatStoragePrefix + address(20) + slotHash(32)
func flatStorageKey(addr common.Address, slotHash common.Hash) []byte {
	return append(append(append([]byte{}, flatStoragePrefix...), addr.Bytes()...), slotHash.Bytes()...)
}

func accountWriteLogKey(number uint64) []byte {
	return append(append([]byte{}, accountWriteLogPrefix...), encodeBlockNumber(number)...)
}

func storageWriteLogKey(number uint64) []byte {
	return append(append([]byte{}, storageWriteLogPrefix...), encodeBlockNumber(number)...)
}

func pruningLogKey(number uint64) []byte {
	return append(append([]byte{}, pruningLogPrefix...), encodeBlockNumber(number)...)
}
