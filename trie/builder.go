// Copyright 2014 The go-ethereum Authors
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

package trie

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosnap-io/gosnap/ethdb"
	"github.com/gosnap-io/gosnap/ethdb/memorydb"
)

// Build constructs a trie from sorted, strictly increasing (key, value)
// pairs in the manner of a stack trie — each node is folded and hashed as
// soon as its full subtree is known, with no backtracking — and persists
// every out-of-line node's encoding into store, keyed by its hash. It
// returns the resulting root hash.
//
// This is the same construction VerifyRangeProof's interior regions use
// internally; it is exported because tests (and any code that wants to hand
// a peer an edge proof) need a real node store to walk Prove against.
func Build(keys []common.Hash, values [][]byte, store ethdb.KeyValueWriter) (common.Hash, error) {
	if len(keys) != len(values) {
		return common.Hash{}, fmt.Errorf("%w: %d keys, %d values", ErrInconsistentLengths, len(keys), len(values))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1].Cmp(keys[i]) >= 0 {
			return common.Hash{}, fmt.Errorf("%w: at index %d", ErrNonMonotoneKeys, i)
		}
	}
	if len(keys) == 0 {
		return emptyRootHash, nil
	}
	entries := make([]rangeEntry, len(keys))
	for i, k := range keys {
		entries[i] = rangeEntry{path: FromBytes(k.Bytes()), value: values[i]}
	}
	ref, err := buildTrieStoring(entries, 0, store)
	if err != nil {
		return common.Hash{}, err
	}
	root, err := forceRootHash(ref)
	if err != nil {
		return common.Hash{}, err
	}
	if ref.IsInline() {
		if err := store.Put(root.Bytes(), ref.Inline); err != nil {
			return common.Hash{}, err
		}
	}
	return root, nil
}

// buildTrieStoring is buildTrie with every out-of-line node additionally
// persisted to store as it is produced.
func buildTrieStoring(entries []rangeEntry, depth int, store ethdb.KeyValueWriter) (NodeRef, error) {
	switch len(entries) {
	case 0:
		return NodeRef{}, nil
	case 1:
		e := entries[0]
		enc, err := encodeNode(LeafNode{Partial: e.path[depth:], Value: e.value})
		if err != nil {
			return NodeRef{}, err
		}
		return storeRef(enc, store)
	}

	prefixEnd := commonPrefixDepth(entries, depth)
	if prefixEnd > depth {
		child, err := buildBranchStoring(entries, prefixEnd, store)
		if err != nil {
			return NodeRef{}, err
		}
		enc, err := encodeNode(ExtensionNode{Prefix: entries[0].path[depth:prefixEnd], Child: child})
		if err != nil {
			return NodeRef{}, err
		}
		return storeRef(enc, store)
	}
	return buildBranchStoring(entries, depth, store)
}

func buildBranchStoring(entries []rangeEntry, depth int, store ethdb.KeyValueWriter) (NodeRef, error) {
	var branch BranchNode
	var groups [16][]rangeEntry
	for _, e := range entries {
		if len(e.path) == depth {
			branch.Value = e.value
			continue
		}
		groups[e.path[depth]] = append(groups[e.path[depth]], e)
	}
	for nib, grp := range groups {
		if len(grp) == 0 {
			continue
		}
		ref, err := buildTrieStoring(grp, depth+1, store)
		if err != nil {
			return NodeRef{}, err
		}
		branch.Choices[nib] = ref
	}
	enc, err := encodeNode(branch)
	if err != nil {
		return NodeRef{}, err
	}
	return storeRef(enc, store)
}

func storeRef(enc []byte, store ethdb.KeyValueWriter) (NodeRef, error) {
	ref := refForEncoding(enc)
	if !ref.IsInline() {
		if err := store.Put(ref.Hash.Bytes(), enc); err != nil {
			return NodeRef{}, err
		}
	}
	return ref, nil
}

// Prove walks the trie rooted at root, resolving nodes from store, and
// returns a proof database holding every node visited on the path to key —
// an edge proof suitable for VerifyRangeProof.
func Prove(root common.Hash, key common.Hash, store ethdb.KeyValueReader) (*memorydb.Database, error) {
	proof := memorydb.New()
	ref := HashRef(root)
	path := FromBytes(key.Bytes())
	depth := 0

	for {
		enc, err := lookup(ref, store)
		if err != nil {
			return nil, err
		}
		if !ref.IsInline() {
			if err := proof.Put(ref.Hash.Bytes(), enc); err != nil {
				return nil, err
			}
		}
		node, err := decodeNode(enc)
		if err != nil {
			return nil, err
		}
		switch n := node.(type) {
		case LeafNode:
			return proof, nil
		case ExtensionNode:
			ref = n.Child
			depth += len(n.Prefix)
		case BranchNode:
			if depth >= len(path) {
				return proof, nil
			}
			ref = n.Choices[path[depth]]
			depth++
			if ref.IsEmpty() {
				return proof, nil
			}
		default:
			return nil, fmt.Errorf("trie: unreachable node kind %T", n)
		}
	}
}

func lookup(ref NodeRef, store ethdb.KeyValueReader) ([]byte, error) {
	if ref.IsInline() {
		return ref.Inline, nil
	}
	enc, err := store.Get(ref.Hash.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: hash %s: %v", ErrMissingProofNode, ref.Hash, err)
	}
	return enc, nil
}
