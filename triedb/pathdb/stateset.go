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

// stateSet aggregates one state transition's flat account and storage slot
// writes, the same data the flat-KV snapshot layer eventually persists. A
// nil value records a deletion.
type stateSet struct {
	accounts map[common.Hash][]byte
	storages map[common.Hash]map[common.Hash][]byte
	size     uint64
}

func newStates(accounts map[common.Hash][]byte, storages map[common.Hash]map[common.Hash][]byte) *stateSet {
	if accounts == nil {
		accounts = make(map[common.Hash][]byte)
	}
	if storages == nil {
		storages = make(map[common.Hash]map[common.Hash][]byte)
	}
	s := &stateSet{accounts: accounts, storages: storages}
	for _, v := range accounts {
		s.size += uint64(common.HashLength + len(v))
	}
	for _, sub := range storages {
		for _, v := range sub {
			s.size += uint64(2*common.HashLength + len(v))
		}
	}
	return s
}

func (s *stateSet) account(hash common.Hash) ([]byte, bool) {
	v, ok := s.accounts[hash]
	return v, ok
}

func (s *stateSet) storage(addrHash, slotHash common.Hash) ([]byte, bool) {
	sub, ok := s.storages[addrHash]
	if !ok {
		return nil, false
	}
	v, ok := sub[slotHash]
	return v, ok
}

func (s *stateSet) putAccount(hash common.Hash, blob []byte) {
	if old, ok := s.accounts[hash]; ok {
		s.size -= uint64(common.HashLength + len(old))
	}
	s.accounts[hash] = blob
	s.size += uint64(common.HashLength + len(blob))
}

func (s *stateSet) putStorage(addrHash, slotHash common.Hash, blob []byte) {
	sub, ok := s.storages[addrHash]
	if !ok {
		sub = make(map[common.Hash][]byte)
		s.storages[addrHash] = sub
	}
	if old, existed := sub[slotHash]; existed {
		s.size -= uint64(2*common.HashLength + len(old))
	}
	sub[slotHash] = blob
	s.size += uint64(2*common.HashLength + len(blob))
}

// merge folds other's writes into s, other's values taking precedence.
func (s *stateSet) merge(other *stateSet) {
	if other == nil {
		return
	}
	for hash, blob := range other.accounts {
		s.putAccount(hash, blob)
	}
	for addrHash, sub := range other.storages {
		for slotHash, blob := range sub {
			s.putStorage(addrHash, slotHash, blob)
		}
	}
}

func (s *stateSet) empty() bool {
	return len(s.accounts) == 0 && len(s.storages) == 0
}
