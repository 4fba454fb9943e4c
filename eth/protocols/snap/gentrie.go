// Copyright 2024 The go-ethereum Authors
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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosnap-io/gosnap/ethdb"
	"github.com/gosnap-io/gosnap/trie"
)

// LeafCallback is invoked once per resolved account during
// GenerateAccountTrieRoot, letting the caller kick off the account's
// storage-range sync before the whole account range has been verified.
type LeafCallback func(accountHash common.Hash, blob []byte) error

// GenerateTrieRoot rebuilds a trie from a complete, sorted stream of
// (key, value) leaves accumulated over a snap-sync range phase and writes
// every internal node to store, returning the resulting root hash. This is
// the moment a healed/ranged account or storage trie is turned back into
// real trie nodes once range sync for it has fully completed.
func GenerateTrieRoot(keys []common.Hash, values [][]byte, store ethdb.KeyValueWriter) (common.Hash, error) {
	if len(keys) != len(values) {
		return common.Hash{}, fmt.Errorf("snap: key/value count mismatch building trie: %d keys, %d values", len(keys), len(values))
	}
	return trie.Build(keys, values, store)
}

// GenerateAccountTrieRoot rebuilds the account trie from a sorted stream of
// (accountHash, accountRLP) leaves, invoking leaf for every account so the
// caller can enqueue that account's own storage-range sync without waiting
// for the whole account trie to finish reconstructing.
func GenerateAccountTrieRoot(accountHashes []common.Hash, accountBlobs [][]byte, store ethdb.KeyValueWriter, leaf LeafCallback) (common.Hash, error) {
	if leaf != nil {
		for i, hash := range accountHashes {
			if err := leaf(hash, accountBlobs[i]); err != nil {
				return common.Hash{}, err
			}
		}
	}
	return GenerateTrieRoot(accountHashes, accountBlobs, store)
}
