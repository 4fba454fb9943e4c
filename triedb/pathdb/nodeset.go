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

// nodeSet aggregates the dirty trie-node writes of one state transition (or
// several merged transitions). It is keyed by trie owner (the zero hash for
// the account trie, an account's address hash for its storage trie) and by
// the node's hex-prefixed path within that trie. A nil value records a
// deletion (the node was invalidated and no longer exists).
type nodeSet struct {
	nodes map[common.Hash]map[string][]byte
	size  uint64
}

func newNodeSet(nodes map[common.Hash]map[string][]byte) *nodeSet {
	if nodes == nil {
		nodes = make(map[common.Hash]map[string][]byte)
	}
	ns := &nodeSet{nodes: nodes}
	for _, sub := range nodes {
		for path, blob := range sub {
			ns.size += uint64(len(path) + len(blob))
		}
	}
	return ns
}

func (s *nodeSet) node(owner common.Hash, path []byte) ([]byte, bool) {
	sub, ok := s.nodes[owner]
	if !ok {
		return nil, false
	}
	blob, ok := sub[string(path)]
	return blob, ok
}

// put records a single node write (or, if blob is nil, a deletion).
func (s *nodeSet) put(owner common.Hash, path []byte, blob []byte) {
	sub, ok := s.nodes[owner]
	if !ok {
		sub = make(map[string][]byte)
		s.nodes[owner] = sub
	}
	if old, existed := sub[string(path)]; existed {
		s.size -= uint64(len(path) + len(old))
	}
	sub[string(path)] = blob
	s.size += uint64(len(path) + len(blob))
}

// merge folds other's writes into s, with other's values taking precedence
// since it represents a later state transition.
func (s *nodeSet) merge(other *nodeSet) {
	if other == nil {
		return
	}
	for owner, sub := range other.nodes {
		for path, blob := range sub {
			s.put(owner, []byte(path), blob)
		}
	}
}

// empty reports whether the set carries no writes at all.
func (s *nodeSet) empty() bool {
	return len(s.nodes) == 0
}
