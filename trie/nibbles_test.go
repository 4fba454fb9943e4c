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

package trie

import (
	"bytes"
	"testing"
)

func TestNibblesRoundTrip(t *testing.T) {
	in := []byte{0x12, 0xab, 0xff, 0x00}
	n := FromBytes(in)
	if len(n) != 8 {
		t.Fatalf("FromBytes produced %d nibbles, want 8", len(n))
	}
	out, err := n.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	if !bytes.Equal(out, in) {
		t.Fatalf("round trip mismatch: have %x, want %x", out, in)
	}
}

func TestNibblesToBytesOddLength(t *testing.T) {
	n := Nibbles{1, 2, 3}
	if _, err := n.ToBytes(); err == nil {
		t.Fatalf("ToBytes on odd-length nibbles should have failed")
	}
}

func TestNibblesOrdering(t *testing.T) {
	a := Nibbles{1, 2, 3}
	b := Nibbles{1, 2, 4}
	c := Nibbles{1, 2}

	if !a.Less(b) {
		t.Errorf("expected %v < %v", a, b)
	}
	if !b.Greater(a) {
		t.Errorf("expected %v > %v", b, a)
	}
	if !a.Equal(Nibbles{1, 2, 3}) {
		t.Errorf("expected %v == %v", a, Nibbles{1, 2, 3})
	}
	if !c.PrefixOf(a) {
		t.Errorf("expected %v to be a prefix of %v", c, a)
	}
	if a.PrefixOf(c) {
		t.Errorf("did not expect %v to be a prefix of %v", a, c)
	}
}

func TestNibblesAppendExtend(t *testing.T) {
	n := Nibbles{1, 2}
	got := n.Append(3)
	want := Nibbles{1, 2, 3}
	if !got.Equal(want) {
		t.Fatalf("Append: have %v, want %v", got, want)
	}
	// Append must not mutate the receiver's backing array.
	n2 := n.Append(9)
	if got.Equal(n2) {
		t.Fatalf("Append shares backing array between calls")
	}

	got = n.Extend(Nibbles{3, 4})
	want = Nibbles{1, 2, 3, 4}
	if !got.Equal(want) {
		t.Fatalf("Extend: have %v, want %v", got, want)
	}
}

func TestNibblesCommonPrefixLen(t *testing.T) {
	a := Nibbles{1, 2, 3, 4}
	b := Nibbles{1, 2, 9, 9}
	if got := a.CommonPrefixLen(b); got != 2 {
		t.Fatalf("CommonPrefixLen: have %d, want 2", got)
	}
}
