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

package types

import "testing"

func TestIsChildOf(t *testing.T) {
	parent := &BlockHeader{Number: 10}
	child := &BlockHeader{Number: 11, ParentHash: parent.Hash()}
	if !child.IsChildOf(parent) {
		t.Fatalf("expected child to be recognized as parent's successor")
	}

	notChild := &BlockHeader{Number: 12, ParentHash: parent.Hash()}
	if notChild.IsChildOf(parent) {
		t.Fatalf("number gap should break the child relationship")
	}

	wrongParent := &BlockHeader{Number: 11, ParentHash: child.Hash()}
	if wrongParent.IsChildOf(parent) {
		t.Fatalf("mismatched parent hash should break the child relationship")
	}
}
