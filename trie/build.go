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
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// rangeEntry is one leaf to be placed into a trie being rebuilt from a
// sorted key/value range, in the style of a stack trie: the full path is
// known up front so nodes can be folded bottom-up without backtracking.
type rangeEntry struct {
	path  Nibbles
	value []byte
}

// buildTrie constructs the minimal subtree holding entries, all of which
// share the prefix consumed by depth nibbles already, and returns a
// reference to its root node. It never force-hashes — callers at the true
// trie root must do that themselves, since a root is never inlined into a
// parent.
func buildTrie(entries []rangeEntry, depth int) (NodeRef, error) {
	switch len(entries) {
	case 0:
		return NodeRef{}, nil
	case 1:
		e := entries[0]
		leaf := LeafNode{Partial: e.path[depth:], Value: e.value}
		enc, err := encodeNode(leaf)
		if err != nil {
			return NodeRef{}, err
		}
		return refForEncoding(enc), nil
	}

	prefixEnd := commonPrefixDepth(entries, depth)
	if prefixEnd > depth {
		child, err := buildBranch(entries, prefixEnd)
		if err != nil {
			return NodeRef{}, err
		}
		ext := ExtensionNode{Prefix: entries[0].path[depth:prefixEnd], Child: child}
		enc, err := encodeNode(ext)
		if err != nil {
			return NodeRef{}, err
		}
		return refForEncoding(enc), nil
	}
	return buildBranch(entries, depth)
}

// commonPrefixDepth returns the largest depth' >= depth such that every
// entry agrees on path[depth:depth'] and still has at least depth' nibbles
// remaining (an entry terminating exactly at some point stops the common
// run there, since it must be placed in a branch's own value slot).
func commonPrefixDepth(entries []rangeEntry, depth int) int {
	d := depth
	for {
		if d >= len(entries[0].path) {
			return d
		}
		b := entries[0].path[d]
		for _, e := range entries[1:] {
			if d >= len(e.path) || e.path[d] != b {
				return d
			}
		}
		d++
	}
}

// buildBranch groups entries by their next nibble at depth and recurses into
// each group, folding an entry that terminates exactly at depth into the
// branch's own value slot.
func buildBranch(entries []rangeEntry, depth int) (NodeRef, error) {
	var branch BranchNode
	var groups [16][]rangeEntry
	for _, e := range entries {
		if len(e.path) == depth {
			branch.Value = e.value
			continue
		}
		nib := e.path[depth]
		groups[nib] = append(groups[nib], e)
	}
	for nib, grp := range groups {
		if len(grp) == 0 {
			continue
		}
		ref, err := buildTrie(grp, depth+1)
		if err != nil {
			return NodeRef{}, err
		}
		branch.Choices[nib] = ref
	}
	enc, err := encodeNode(branch)
	if err != nil {
		return NodeRef{}, err
	}
	return refForEncoding(enc), nil
}

// rootHashFromEntries rebuilds a full trie from entries (sorted, all 64
// nibbles deep, as produced from 32-byte keys) and returns its root hash,
// force-hashed regardless of encoded size.
func rootHashFromEntries(entries []rangeEntry) (common.Hash, error) {
	if len(entries) == 0 {
		return emptyRootHash, nil
	}
	ref, err := buildTrie(entries, 0)
	if err != nil {
		return common.Hash{}, err
	}
	return forceRootHash(ref)
}

// forceRootHash resolves a NodeRef that sits at a trie's root into its hash,
// re-hashing the embedded encoding if it happened to be small enough that
// buildTrie would ordinarily have inlined it into a parent.
func forceRootHash(ref NodeRef) (common.Hash, error) {
	if ref.IsInline() {
		return common.BytesToHash(crypto.Keccak256(ref.Inline)), nil
	}
	if ref.IsEmpty() {
		return emptyRootHash, nil
	}
	return ref.Hash, nil
}
