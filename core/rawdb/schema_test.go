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
)

func TestEncodeDecodeBlockNumber(t *testing.T) {
	for _, n := range []uint64{0, 1, 255, 256, 1 << 40} {
		if got := decodeBlockNumber(encodeBlockNumber(n)); got != n {
			t.Fatalf("round trip %d: got %d", n, got)
		}
	}
}

func TestHeaderKeysSharePrefix(t *testing.T) {
	hash := common.HexToHash("0xabcd")
	prefix := headerKeyPrefix(7)
	key := headerKey(7, hash)
	if !bytes.HasPrefix(key, prefix) {
		t.Fatalf("headerKey must start with headerKeyPrefix")
	}
	if !bytes.Equal(key, append(append([]byte{}, prefix...), hash.Bytes()...)) {
		t.Fatalf("headerKey layout mismatch")
	}
}

func TestBlockReceiptsKeyChunkIndexVaries(t *testing.T) {
	hash := common.HexToHash("0x01")
	a := blockReceiptsKey(5, hash, 0)
	b := blockReceiptsKey(5, hash, 1)
	if bytes.Equal(a, b) {
		t.Fatalf("different chunk indices must produce different keys")
	}
	if !bytes.HasPrefix(a, blockReceiptsKeyPrefix(5, hash)) {
		t.Fatalf("chunk key must share the block's receipts prefix")
	}
}

func TestFlatStorageKeyLayout(t *testing.T) {
	addr := common.HexToAddress("0x1234")
	slot := common.HexToHash("0x5678")
	key := flatStorageKey(addr, slot)
	if len(key) != len(flatStoragePrefix)+common.AddressLength+common.HashLength {
		t.Fatalf("unexpected flat storage key length %d", len(key))
	}
}
