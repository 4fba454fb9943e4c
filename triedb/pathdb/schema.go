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
	"github.com/ethereum/go-ethereum/common"
	"github.com/gosnap-io/gosnap/ethdb"
)

// Key prefixes for the namespace pathdb owns within the shared key-value
// store. These are internal caches local to the layered node store — the
// long-lived, canonical flat account/storage tables are core/rawdb's, keyed
// by raw address rather than hash; pathdb's own hash-keyed copies exist only
// to let a disk-layer read see the state a not-yet-generated flat snapshot
// will eventually carry.
var (
	trieNodePrefix    = []byte("P")  // trieNodePrefix + owner(32) + path -> node blob
	cachedAccountPrefix = []byte("Pa") // cachedAccountPrefix + hash(32) -> account blob
	cachedStoragePrefix = []byte("Ps") // cachedStoragePrefix + addrHash(32) + slotHash(32) -> value
)

func trieNodeKey(owner common.Hash, path []byte) []byte {
	key := make([]byte, 0, len(trieNodePrefix)+common.HashLength+len(path))
	key = append(key, trieNodePrefix...)
	key = append(key, owner.Bytes()...)
	key = append(key, path...)
	return key
}

func cachedAccountKey(hash common.Hash) []byte {
	return append(append([]byte{}, cachedAccountPrefix...), hash.Bytes()...)
}

func cachedStorageKey(addrHash, slotHash common.Hash) []byte {
	key := append(append([]byte{}, cachedStoragePrefix...), addrHash.Bytes()...)
	return append(key, slotHash.Bytes()...)
}

func writeCachedAccount(w ethdb.KeyValueWriter, hash common.Hash, blob []byte) error {
	if blob == nil {
		return w.Delete(cachedAccountKey(hash))
	}
	return w.Put(cachedAccountKey(hash), blob)
}

func writeCachedStorage(w ethdb.KeyValueWriter, addrHash, slotHash common.Hash, blob []byte) error {
	if blob == nil {
		return w.Delete(cachedStorageKey(addrHash, slotHash))
	}
	return w.Put(cachedStorageKey(addrHash, slotHash), blob)
}
