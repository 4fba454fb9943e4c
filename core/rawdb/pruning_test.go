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

package rawdb

import (
	"testing"

	"github.com/gosnap-io/gosnap/ethdb/memorydb"
)

func TestPruneOnceRemovesLogsOlderThanKeepBlocks(t *testing.T) {
	kv := memorydb.New()
	if err := kv.Put(accountWriteLogKey(0), []byte("log")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	head := uint64(KeepBlocks + 1)
	p := NewPruner(kv, func() uint64 { return head })
	if err := p.pruneOnce(); err != nil {
		t.Fatalf("pruneOnce: %v", err)
	}
	if v, _ := kv.Get(accountWriteLogKey(0)); v != nil {
		t.Fatalf("expected block 0's write log to be pruned")
	}
	if v, err := kv.Get(pruningLogKey(head - KeepBlocks)); err != nil || v == nil {
		t.Fatalf("expected a pruning log recording the removal, err=%v", err)
	}
}

func TestPruneOnceNoOpBelowKeepBlocks(t *testing.T) {
	kv := memorydb.New()
	p := NewPruner(kv, func() uint64 { return KeepBlocks - 1 })
	if err := p.pruneOnce(); err != nil {
		t.Fatalf("pruneOnce: %v", err)
	}
}
