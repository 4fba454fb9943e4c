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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosnap-io/gosnap/ethdb/memorydb"
)

// hashOf builds a deterministic, strictly-ordered 32-byte key/value out of a
// small integer, the way the concrete end-to-end scenarios describe ("key
// repeated 32 bytes").
func hashOf(b byte) common.Hash {
	var h common.Hash
	for i := range h {
		h[i] = b
	}
	return h
}

func buildRange(t *testing.T, lo, hi int) ([]common.Hash, [][]byte, *memorydb.Database, common.Hash) {
	t.Helper()
	store := memorydb.New()
	keys := make([]common.Hash, 0, hi-lo+1)
	values := make([][]byte, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		k := hashOf(byte(i))
		keys = append(keys, k)
		values = append(values, k.Bytes())
	}
	root, err := Build(keys, values, store)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return keys, values, store, root
}

func sliceRange(keys []common.Hash, values [][]byte, lo, hi int, base int) ([]common.Hash, [][]byte) {
	return keys[lo-base : hi-base+1], values[lo-base : hi-base+1]
}

// Scenario 1: range with two edge proofs, both keys present.
func TestVerifyRangeProofTwoEdgeProofs(t *testing.T) {
	keys, values, store, root := buildRange(t, 25, 100)

	proofLo, err := Prove(root, hashOf(50), store)
	if err != nil {
		t.Fatalf("Prove(50): %v", err)
	}
	proofHi, err := Prove(root, hashOf(75), store)
	if err != nil {
		t.Fatalf("Prove(75): %v", err)
	}
	proof := mergeProofs(proofLo, proofHi)

	rk, rv := sliceRange(keys, values, 50, 75, 25)
	more, err := VerifyRangeProof(root, hashOf(50), rk, rv, proof)
	if err != nil {
		t.Fatalf("VerifyRangeProof: %v", err)
	}
	if !more {
		t.Fatalf("expected more_right=true for a 50..75 slice of a 25..100 trie")
	}
}

// Scenario 2: full leaf set, no proofs.
func TestVerifyRangeProofFullLeafSetNoProof(t *testing.T) {
	keys, values, _, root := buildRange(t, 0, 149)

	more, err := VerifyRangeProof(root, keys[0], keys, values, nil)
	if err != nil {
		t.Fatalf("VerifyRangeProof: %v", err)
	}
	if more {
		t.Fatalf("expected more_right=false for the complete leaf set")
	}
}

// Scenario 3: absence proof at the right edge.
func TestVerifyRangeProofAbsenceAtRightEdge(t *testing.T) {
	_, _, store, root := buildRange(t, 1, 200)

	absent := hashOf(201)
	proof, err := Prove(root, absent, store)
	if err != nil {
		t.Fatalf("Prove(201): %v", err)
	}

	more, err := VerifyRangeProof(root, absent, nil, nil, proof)
	if err != nil {
		t.Fatalf("VerifyRangeProof: %v", err)
	}
	if more {
		t.Fatalf("expected more_right=false proving absence at the right edge")
	}
}

// Scenario 4: a deleted middle proof node must cause rejection.
func TestVerifyRangeProofMissingProofNode(t *testing.T) {
	keys, values, store, root := buildRange(t, 25, 100)

	proofLo, err := Prove(root, hashOf(50), store)
	if err != nil {
		t.Fatalf("Prove(50): %v", err)
	}
	proofHi, err := Prove(root, hashOf(75), store)
	if err != nil {
		t.Fatalf("Prove(75): %v", err)
	}
	proof := mergeProofs(proofLo, proofHi)

	victim := middleKey(t, proofHi)
	if err := proof.Delete(victim); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	rk, rv := sliceRange(keys, values, 50, 75, 25)
	_, err = VerifyRangeProof(root, hashOf(50), rk, rv, proof)
	if err == nil {
		t.Fatalf("expected rejection after deleting a proof node")
	}
	if !errors.Is(err, ErrMissingProofNode) {
		t.Fatalf("expected ErrMissingProofNode, got %v", err)
	}
}

func TestVerifyRangeProofRejectsNonMonotoneKeys(t *testing.T) {
	keys, values, store, root := buildRange(t, 10, 20)
	proof, err := Prove(root, keys[0], store)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	badKeys := []common.Hash{keys[1], keys[0]}
	badValues := [][]byte{values[1], values[0]}
	_, err = VerifyRangeProof(root, badKeys[0], badKeys, badValues, proof)
	if !errors.Is(err, ErrNonMonotoneKeys) {
		t.Fatalf("expected ErrNonMonotoneKeys, got %v", err)
	}
}

func TestVerifyRangeProofRejectsEmptyValue(t *testing.T) {
	keys, values, store, root := buildRange(t, 10, 20)
	proof, err := Prove(root, keys[0], store)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	badValues := append([][]byte(nil), values...)
	badValues[0] = nil
	_, err = VerifyRangeProof(root, keys[0], keys, badValues, proof)
	if !errors.Is(err, ErrEmptyValue) {
		t.Fatalf("expected ErrEmptyValue, got %v", err)
	}
}

// mergeProofs combines two proof databases into one, as a caller assembling
// the two edge proofs of a range request would.
func mergeProofs(a, b *memorydb.Database) *memorydb.Database {
	out := memorydb.New()
	it := a.NewIterator(nil, nil)
	for it.Next() {
		out.Put(it.Key(), it.Value())
	}
	it.Release()
	it = b.NewIterator(nil, nil)
	for it.Next() {
		out.Put(it.Key(), it.Value())
	}
	it.Release()
	return out
}

// middleKey returns the last key of db in iteration order, so that deleting
// it simulates a dropped proof node. The stored value is not decoded, so the
// chosen node can be any node of the proof, the root included.
func middleKey(t *testing.T, db *memorydb.Database) []byte {
	t.Helper()
	it := db.NewIterator(nil, nil)
	defer it.Release()
	var best []byte
	for it.Next() {
		best = append([]byte(nil), it.Key()...)
	}
	if best == nil {
		t.Fatalf("proof database is empty")
	}
	return best
}
