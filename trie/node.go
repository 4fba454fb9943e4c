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
)

// maxInlineSize is the largest encoded node that may be embedded by value
// inside its parent instead of being referenced by hash.
const maxInlineSize = 31

// NodeRef is either the 32-byte hash of an out-of-line node, or — for small
// enough sub-tries — the node's own RLP encoding inlined in place of a hash.
type NodeRef struct {
	Hash   common.Hash
	Inline []byte
}

// HashRef builds a NodeRef pointing at an out-of-line node by hash.
func HashRef(h common.Hash) NodeRef { return NodeRef{Hash: h} }

// InlineRef builds a NodeRef embedding an encoded node directly. It panics if
// b exceeds the 31-byte inline bound; callers are expected to have already
// checked the RLP length before choosing to inline.
func InlineRef(b []byte) NodeRef {
	if len(b) > maxInlineSize {
		panic("trie: inline node reference exceeds 31 bytes")
	}
	return NodeRef{Inline: append([]byte(nil), b...)}
}

// IsInline reports whether r embeds its node rather than referencing it by
// hash.
func (r NodeRef) IsInline() bool { return r.Inline != nil }

// IsEmpty reports whether r refers to nothing (the zero value of NodeRef,
// used for absent branch children).
func (r NodeRef) IsEmpty() bool { return r.Inline == nil && r.Hash == (common.Hash{}) }

// Node is the tagged union of Merkle-Patricia node shapes. The three
// concrete types below are the only implementations; callers type-switch on
// the interface rather than on a discriminant field.
type Node interface {
	isNode()
}

// LeafNode terminates a path: Partial is the remaining nibbles below the
// parent and Value is the stored payload.
type LeafNode struct {
	Partial Nibbles
	Value   []byte
}

// ExtensionNode compresses a run of single-child branches into one prefix.
type ExtensionNode struct {
	Prefix Nibbles
	Child  NodeRef
}

// BranchNode fans out on the next nibble; Value holds a payload stored at
// the branch itself (a key that terminates exactly here).
type BranchNode struct {
	Choices [16]NodeRef
	Value   []byte
}

func (LeafNode) isNode()      {}
func (ExtensionNode) isNode() {}
func (BranchNode) isNode()    {}

// NodeResolver looks up a node by its content hash, falling through whatever
// layered store or proof database backs it.
type NodeResolver func(hash common.Hash) (Node, error)

// Trie is a root hash paired with a way to resolve the nodes beneath it. It
// carries no mutation methods of its own — construction happens through the
// stack-trie builder, and the root plus resolver is all range-proof
// verification needs.
type Trie struct {
	Root    common.Hash
	Resolve NodeResolver
}
