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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosnap-io/gosnap/ethdb"
)

// Failure kinds a caller can match on with errors.Is.
var (
	ErrInconsistentLengths = errors.New("trie: inconsistent key/value lengths")
	ErrNonMonotoneKeys     = errors.New("trie: keys are not strictly increasing")
	ErrEmptyValue          = errors.New("trie: empty value in range")
	ErrInvalidEdgeKeys     = errors.New("trie: invalid edge keys")
	ErrMissingProofNode    = errors.New("trie: missing proof node")
	ErrRootMismatch        = errors.New("trie: reconstructed root does not match claimed root")
)

// region classifies a node's position relative to the two proven edges.
type region int

const (
	regionExternalLeft region = iota
	regionExternalRight
	regionBoundary
	regionInterior
)

// VerifyRangeProof checks that keys/values is exactly the set of trie
// entries between firstKey and the last of keys (inclusive), given edge
// proofs authenticating the boundary of that range against rootHash. It
// reports whether the trie holds any key strictly greater than the last
// supplied key.
//
// proof is nil for an unbounded, proof-free check: keys/values must then be
// the trie's entire leaf set, and rootHash is verified directly against a
// trie built from them.
func VerifyRangeProof(rootHash common.Hash, firstKey common.Hash, keys []common.Hash, values [][]byte, proof ethdb.KeyValueReader) (more bool, err error) {
	if len(keys) != len(values) {
		return false, fmt.Errorf("%w: %d keys, %d values", ErrInconsistentLengths, len(keys), len(values))
	}
	for i, v := range values {
		if len(v) == 0 {
			return false, fmt.Errorf("%w: at index %d", ErrEmptyValue, i)
		}
		if i > 0 && keys[i-1].Cmp(keys[i]) >= 0 {
			return false, fmt.Errorf("%w: at index %d", ErrNonMonotoneKeys, i)
		}
	}
	if len(keys) > 0 && firstKey.Cmp(keys[0]) > 0 {
		return false, fmt.Errorf("%w: range start greater than first key %s", ErrInvalidEdgeKeys, keys[0])
	}

	entries := make([]rangeEntry, len(keys))
	for i, k := range keys {
		entries[i] = rangeEntry{path: FromBytes(k.Bytes()), value: values[i]}
	}

	// Case 1: no proof at all — keys/values must be the complete leaf set.
	if proof == nil {
		if len(keys) == 0 {
			return false, fmt.Errorf("%w: no proof and no keys supplied", ErrInvalidEdgeKeys)
		}
		got, err := rootHashFromEntries(entries)
		if err != nil {
			return false, err
		}
		if got != rootHash {
			return false, fmt.Errorf("%w: have %s, want %s", ErrRootMismatch, got, rootHash)
		}
		return false, nil
	}

	lowerPath := FromBytes(firstKey.Bytes())
	upperPath := lowerPath
	if len(keys) > 0 {
		upperPath = FromBytes(keys[len(keys)-1].Bytes())
	}

	v := &verifier{
		proof:     proof,
		entries:   entries,
		lowerPath: lowerPath,
		upperPath: upperPath,
	}
	rootRef, err := v.build(HashRef(rootHash), Nibbles{})
	if err != nil {
		return false, err
	}
	got, err := forceRootHash(rootRef)
	if err != nil {
		return false, err
	}
	if got != rootHash {
		return false, fmt.Errorf("%w: have %s, want %s", ErrRootMismatch, got, rootHash)
	}
	return v.moreRight, nil
}

// verifier walks the two boundary proof paths from the root, trusting the
// supplied range to fill in everything strictly between them.
type verifier struct {
	proof     ethdb.KeyValueReader
	entries   []rangeEntry
	lowerPath Nibbles
	upperPath Nibbles
	moreRight bool
}

func (v *verifier) classify(path Nibbles) region {
	d := len(path)
	cmpLower := path.Cmp(v.lowerPath[:d])
	cmpUpper := path.Cmp(v.upperPath[:d])
	switch {
	case cmpLower < 0:
		return regionExternalLeft
	case cmpUpper > 0:
		return regionExternalRight
	case cmpLower == 0 || cmpUpper == 0:
		return regionBoundary
	default:
		return regionInterior
	}
}

func (v *verifier) entriesUnder(path Nibbles) []rangeEntry {
	var out []rangeEntry
	for _, e := range v.entries {
		if path.PrefixOf(e.path) {
			out = append(out, e)
		}
	}
	return out
}

func (v *verifier) valueAt(path Nibbles) ([]byte, bool) {
	for _, e := range v.entries {
		if e.path.Equal(path) {
			return e.value, true
		}
	}
	return nil, false
}

func (v *verifier) resolve(ref NodeRef) (Node, error) {
	switch {
	case ref.IsInline():
		return decodeNode(ref.Inline)
	case ref.IsEmpty():
		return nil, fmt.Errorf("%w: cannot resolve an absent reference", ErrMissingProofNode)
	default:
		enc, err := v.proof.Get(ref.Hash[:])
		if err != nil {
			return nil, fmt.Errorf("%w: hash %s: %v", ErrMissingProofNode, ref.Hash, err)
		}
		return decodeNode(enc)
	}
}

// build walks ref, which sits at path nibbles deep, and returns the NodeRef
// a parent should hold for it post-verification. External subtrees are
// passed through untouched (their hash is taken on faith, same as any
// sibling a normal trie lookup never visits); interior subtrees are rebuilt
// entirely from the supplied range, ignoring whatever proof content might
// otherwise claim to be there; boundary nodes are decoded and recursed into.
func (v *verifier) build(ref NodeRef, path Nibbles) (NodeRef, error) {
	switch v.classify(path) {
	case regionExternalLeft:
		return ref, nil
	case regionExternalRight:
		if !ref.IsEmpty() {
			v.moreRight = true
		}
		return ref, nil
	case regionInterior:
		return buildTrie(v.entriesUnder(path), len(path))
	}

	if ref.IsEmpty() {
		if len(v.entriesUnder(path)) != 0 {
			return NodeRef{}, fmt.Errorf("%w: range claims a key under an empty proof branch", ErrMissingProofNode)
		}
		return ref, nil
	}
	node, err := v.resolve(ref)
	if err != nil {
		return NodeRef{}, err
	}
	switch n := node.(type) {
	case LeafNode:
		full := path.Extend(n.Partial)
		if val, ok := v.valueAt(full); ok {
			enc, err := encodeNode(LeafNode{Partial: n.Partial, Value: val})
			if err != nil {
				return NodeRef{}, err
			}
			return refForEncoding(enc), nil
		}
		if len(v.entriesUnder(path)) != 0 {
			return NodeRef{}, fmt.Errorf("%w: proof leaf does not match supplied range at %x", ErrRootMismatch, full)
		}
		return ref, nil
	case ExtensionNode:
		childPath := path.Extend(n.Prefix)
		childRef, err := v.build(n.Child, childPath)
		if err != nil {
			return NodeRef{}, err
		}
		enc, err := encodeNode(ExtensionNode{Prefix: n.Prefix, Child: childRef})
		if err != nil {
			return NodeRef{}, err
		}
		return refForEncoding(enc), nil
	case BranchNode:
		var nb BranchNode
		nb.Value = n.Value
		for i := 0; i < 16; i++ {
			childRef, err := v.build(n.Choices[i], path.Append(byte(i)))
			if err != nil {
				return NodeRef{}, err
			}
			nb.Choices[i] = childRef
		}
		enc, err := encodeNode(nb)
		if err != nil {
			return NodeRef{}, err
		}
		return refForEncoding(enc), nil
	default:
		return NodeRef{}, fmt.Errorf("trie: unreachable node kind %T", n)
	}
}
