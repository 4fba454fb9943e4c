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

package snap

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosnap-io/gosnap/trie"
)

// SyncPath identifies a trie node either in a single (account) trie, or in
// a stacked account->storage trie. It has one element addressing nodes in
// the account trie, or two when the second element addresses a node inside
// one account's storage trie.
type SyncPath [][]byte

// NewSyncPath converts an expanded nibble path into its compact wire form.
// A path under 64 nibbles addresses the account trie; anything longer is
// split at the 64-nibble account/storage boundary.
func NewSyncPath(path trie.Nibbles) SyncPath {
	if len(path) < 64 {
		return SyncPath{trie.EncodeCompactPath(path)}
	}
	return SyncPath{trie.EncodeCompactPath(path[:64]), trie.EncodeCompactPath(path[64:])}
}

// TrieNodePathSet groups the individual paths requested under one account,
// the wire shape a GetTrieNodes request batches healing requests into.
type TrieNodePathSet [][]byte

// sortByAccountPath takes hashes and paths, and sorts them. After that, it
// collapses all paths that are under the same account hash/path prefix into
// a single path-set, the form GetTrieNodes batches requests in.
func sortByAccountPath(hashes []common.Hash, paths []trie.Nibbles) ([]common.Hash, []trie.Nibbles, []TrieNodePathSet) {
	sortSlice(hashes, paths)

	var pathsets []TrieNodePathSet
	for _, path := range paths {
		sp := NewSyncPath(path)
		if len(pathsets) > 0 && bytes.Equal(pathsets[len(pathsets)-1][0], sp[0]) {
			pathsets[len(pathsets)-1] = append(pathsets[len(pathsets)-1], sp[1:]...)
			continue
		}
		pathsets = append(pathsets, TrieNodePathSet(sp))
	}
	return hashes, paths, pathsets
}

// sortSlice reorders hashes and paths in-place by ascending path, keeping
// the two slices aligned.
func sortSlice(hashes []common.Hash, paths []trie.Nibbles) {
	type entry struct {
		hash common.Hash
		path trie.Nibbles
	}
	entries := make([]entry, len(hashes))
	for i := range hashes {
		entries[i] = entry{hashes[i], paths[i]}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].path.Less(entries[j].path)
	})
	for i, e := range entries {
		hashes[i] = e.hash
		paths[i] = e.path
	}
}
