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

// Package trie implements the Merkle-Patricia node shapes, nibble-path
// arithmetic and range-proof verification the rest of the engine relies on
// to validate data fetched from untrusted peers.
package trie

import "fmt"

// Nibbles is an ordered sequence of 4-bit path components (values 0-15),
// used to address into a Merkle-Patricia trie one hex digit at a time.
type Nibbles []byte

// FromBytes splits b into its constituent nibbles, high nibble first.
func FromBytes(b []byte) Nibbles {
	n := make(Nibbles, len(b)*2)
	for i, v := range b {
		n[i*2] = v >> 4
		n[i*2+1] = v & 0x0f
	}
	return n
}

// ToBytes packs n two nibbles to a byte. It fails if n has an odd length.
func (n Nibbles) ToBytes() ([]byte, error) {
	if len(n)%2 != 0 {
		return nil, fmt.Errorf("trie: nibble sequence of odd length %d has no byte representation", len(n))
	}
	b := make([]byte, len(n)/2)
	for i := range b {
		b[i] = n[i*2]<<4 | n[i*2+1]
	}
	return b, nil
}

// Cmp orders two nibble sequences lexicographically, treating a shorter
// sequence that is a prefix of a longer one as smaller.
func (n Nibbles) Cmp(o Nibbles) int {
	for i := 0; i < len(n) && i < len(o); i++ {
		switch {
		case n[i] < o[i]:
			return -1
		case n[i] > o[i]:
			return 1
		}
	}
	switch {
	case len(n) < len(o):
		return -1
	case len(n) > len(o):
		return 1
	default:
		return 0
	}
}

func (n Nibbles) Less(o Nibbles) bool    { return n.Cmp(o) < 0 }
func (n Nibbles) Equal(o Nibbles) bool   { return n.Cmp(o) == 0 }
func (n Nibbles) Greater(o Nibbles) bool { return n.Cmp(o) > 0 }

// PrefixOf reports whether n is a prefix of o.
func (n Nibbles) PrefixOf(o Nibbles) bool {
	if len(n) > len(o) {
		return false
	}
	for i, v := range n {
		if o[i] != v {
			return false
		}
	}
	return true
}

// CommonPrefixLen returns the length of the longest common prefix of n and o.
func (n Nibbles) CommonPrefixLen(o Nibbles) int {
	i := 0
	for i < len(n) && i < len(o) && n[i] == o[i] {
		i++
	}
	return i
}

// Append returns a new sequence with b appended.
func (n Nibbles) Append(b byte) Nibbles {
	out := make(Nibbles, len(n)+1)
	copy(out, n)
	out[len(n)] = b
	return out
}

// Extend returns a new sequence with o appended after n.
func (n Nibbles) Extend(o Nibbles) Nibbles {
	out := make(Nibbles, len(n)+len(o))
	copy(out, n)
	copy(out[len(n):], o)
	return out
}

// Copy returns an independent copy of n.
func (n Nibbles) Copy() Nibbles {
	out := make(Nibbles, len(n))
	copy(out, n)
	return out
}
