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
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// emptyRootHash is the Keccak-256 of the RLP encoding of an empty byte
// string — the canonical root hash of a trie holding no keys at all.
var emptyRootHash = common.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

// decodeNode parses the RLP encoding of a single trie node. The format is
// fixed by the wire protocol peers speak: a 2-element list is a leaf or
// extension (distinguished by the hex-prefix terminator flag on its first
// element), a 17-element list is a branch.
func decodeNode(buf []byte) (Node, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("trie: empty node encoding")
	}
	elems, _, err := rlp.SplitList(buf)
	if err != nil {
		return nil, fmt.Errorf("trie: decode node as list: %w", err)
	}
	switch c, _ := rlp.CountValues(elems); c {
	case 2:
		return decodeShortNode(elems)
	case 17:
		return decodeFullNode(elems)
	default:
		return nil, fmt.Errorf("trie: invalid node list length %d", c)
	}
}

func decodeShortNode(elems []byte) (Node, error) {
	kbuf, rest, err := rlp.SplitString(elems)
	if err != nil {
		return nil, fmt.Errorf("trie: decode short-node key: %w", err)
	}
	path, terminator, err := decodeCompact(kbuf)
	if err != nil {
		return nil, err
	}
	if terminator {
		val, _, err := rlp.SplitString(rest)
		if err != nil {
			return nil, fmt.Errorf("trie: decode leaf value: %w", err)
		}
		return LeafNode{Partial: path, Value: append([]byte(nil), val...)}, nil
	}
	ref, rest, err := decodeRef(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("trie: trailing bytes after extension child")
	}
	return ExtensionNode{Prefix: path, Child: ref}, nil
}

func decodeFullNode(elems []byte) (Node, error) {
	var branch BranchNode
	rest := elems
	for i := 0; i < 16; i++ {
		ref, next, err := decodeRef(rest)
		if err != nil {
			return nil, fmt.Errorf("trie: decode branch child %d: %w", i, err)
		}
		branch.Choices[i] = ref
		rest = next
	}
	val, _, err := rlp.SplitString(rest)
	if err != nil {
		return nil, fmt.Errorf("trie: decode branch value: %w", err)
	}
	if len(val) > 0 {
		branch.Value = append([]byte(nil), val...)
	}
	return branch, nil
}

// decodeRef parses a single child slot: an empty string for an absent child,
// a 32-byte string for an out-of-line hash reference, or an embedded list
// for an inline sub-node.
func decodeRef(buf []byte) (NodeRef, []byte, error) {
	kind, content, rest, err := rlp.Split(buf)
	if err != nil {
		return NodeRef{}, nil, fmt.Errorf("trie: split child reference: %w", err)
	}
	switch kind {
	case rlp.String:
		if len(content) == 0 {
			return NodeRef{}, rest, nil
		}
		if len(content) != 32 {
			return NodeRef{}, nil, fmt.Errorf("trie: child hash reference has length %d, want 32", len(content))
		}
		return HashRef(common.BytesToHash(content)), rest, nil
	case rlp.List:
		raw := buf[:len(buf)-len(rest)]
		if len(raw) > maxInlineSize {
			return NodeRef{}, nil, fmt.Errorf("trie: inline child node of %d bytes exceeds 31-byte bound", len(raw))
		}
		return InlineRef(raw), rest, nil
	default:
		return NodeRef{}, nil, fmt.Errorf("trie: unexpected RLP kind %v for child reference", kind)
	}
}

// refRLP renders a NodeRef the way it appears inside its parent's encoding:
// an inline reference is spliced in as raw already-encoded bytes, a hash
// reference is RLP-encoded as a 32-byte string, and an absent child is the
// empty string.
func refRLP(ref NodeRef) rlp.RawValue {
	switch {
	case ref.IsInline():
		return rlp.RawValue(ref.Inline)
	case ref.IsEmpty():
		return rlp.RawValue{0x80}
	default:
		enc, _ := rlp.EncodeToBytes(ref.Hash[:])
		return rlp.RawValue(enc)
	}
}

// encodeNode renders n in the same wire format decodeNode consumes.
func encodeNode(n Node) ([]byte, error) {
	switch nd := n.(type) {
	case LeafNode:
		return rlp.EncodeToBytes([]interface{}{encodeCompact(nd.Partial, true), nd.Value})
	case ExtensionNode:
		return rlp.EncodeToBytes([]interface{}{encodeCompact(nd.Prefix, false), refRLP(nd.Child)})
	case BranchNode:
		items := make([]interface{}, 17)
		for i := 0; i < 16; i++ {
			items[i] = refRLP(nd.Choices[i])
		}
		if len(nd.Value) > 0 {
			items[16] = nd.Value
		} else {
			items[16] = []byte{}
		}
		return rlp.EncodeToBytes(items)
	default:
		return nil, fmt.Errorf("trie: unknown node type %T", n)
	}
}

// refForEncoding returns the NodeRef a parent should hold for a freshly
// encoded child: embedded in place if it is small enough, otherwise a hash
// reference. The builders also return it for a trie's own root; callers then
// pass that through forceRootHash, which hashes the root whatever its size
// since there is no parent to embed it into.
func refForEncoding(enc []byte) NodeRef {
	if len(enc) < 32 {
		return InlineRef(enc)
	}
	return HashRef(common.BytesToHash(crypto.Keccak256(enc)))
}

