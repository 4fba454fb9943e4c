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

package pathdb

import "github.com/ethereum/go-ethereum/common"

// layer is the common read surface of both a diffLayer and the diskLayer at
// the bottom of the stack, so a lookup can walk up from the disk without
// caring which kind of layer it is currently looking at.
type layer interface {
	rootHash() common.Hash
	stateID() uint64
	parentLayer() layer
	node(owner common.Hash, path []byte) ([]byte, bool, error)
	account(hash common.Hash) ([]byte, bool, error)
	storage(addrHash, slotHash common.Hash) ([]byte, bool, error)
}

// diffLayer is an immutable, copy-on-write snapshot of one state
// transition's writes, chained to its parent layer. Readers never mutate a
// diffLayer in place; a new one is pushed on top instead.
type diffLayer struct {
	root   common.Hash
	id     uint64
	parent layer
	nodes  *nodeSet
	states *stateSet
}

func newDiffLayer(parent layer, root common.Hash, id uint64, nodes *nodeSet, states *stateSet) *diffLayer {
	return &diffLayer{root: root, id: id, parent: parent, nodes: nodes, states: states}
}

func (dl *diffLayer) rootHash() common.Hash { return dl.root }
func (dl *diffLayer) stateID() uint64       { return dl.id }
func (dl *diffLayer) parentLayer() layer    { return dl.parent }

func (dl *diffLayer) node(owner common.Hash, path []byte) ([]byte, bool, error) {
	if blob, ok := dl.nodes.node(owner, path); ok {
		return blob, true, nil
	}
	if dl.parent == nil {
		return nil, false, nil
	}
	return dl.parent.node(owner, path)
}

func (dl *diffLayer) account(hash common.Hash) ([]byte, bool, error) {
	if blob, ok := dl.states.account(hash); ok {
		return blob, true, nil
	}
	if dl.parent == nil {
		return nil, false, nil
	}
	return dl.parent.account(hash)
}

func (dl *diffLayer) storage(addrHash, slotHash common.Hash) ([]byte, bool, error) {
	if blob, ok := dl.states.storage(addrHash, slotHash); ok {
		return blob, true, nil
	}
	if dl.parent == nil {
		return nil, false, nil
	}
	return dl.parent.storage(addrHash, slotHash)
}

// depth counts how many diffLayers sit between dl and the disk layer,
// inclusive of dl itself — used to decide when the bottom-most one is due
// for a forced disk commit.
func (dl *diffLayer) depth() int {
	n := 1
	for p := dl.parent; p != nil; {
		if next, ok := p.(*diffLayer); ok {
			n++
			p = next.parent
		} else {
			break
		}
	}
	return n
}

// bottom walks down to the diffLayer sitting directly above the disk layer.
func (dl *diffLayer) bottom() *diffLayer {
	cur := dl
	for {
		parent, ok := cur.parent.(*diffLayer)
		if !ok {
			return cur
		}
		cur = parent
	}
}
