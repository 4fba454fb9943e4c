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

package downloader

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func TestPeerSetRegisterUnregister(t *testing.T) {
	ps := NewPeerSet()
	id := common.HexToHash("0x1")
	if err := ps.Register(id, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := ps.Register(id, nil); err != ErrPeerAlreadyRegistered {
		t.Fatalf("expected ErrPeerAlreadyRegistered, got %v", err)
	}
	if ps.Len() != 1 {
		t.Fatalf("Len = %d, want 1", ps.Len())
	}
	if err := ps.Unregister(id); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if err := ps.Unregister(id); err != ErrPeerNotRegistered {
		t.Fatalf("expected ErrPeerNotRegistered, got %v", err)
	}
}

func TestPeerSetBusyExcludedFromSelection(t *testing.T) {
	ps := NewPeerSet()
	a, b := common.HexToHash("0x1"), common.HexToHash("0x2")
	ps.Register(a, nil)
	ps.Register(b, nil)

	if err := ps.MarkBusy(a, time.Now()); err != nil {
		t.Fatalf("MarkBusy: %v", err)
	}
	for i := 0; i < 10; i++ {
		p, ok := ps.GetRandomPeer()
		if !ok || p.ID != b {
			t.Fatalf("expected only the free peer to be selectable, got %+v ok=%v", p, ok)
		}
	}
	if err := ps.MarkFree(a); err != nil {
		t.Fatalf("MarkFree: %v", err)
	}
	ps.AdjustScore(a, 10)
	best, ok := ps.GetBestPeer()
	if !ok || best.ID != a {
		t.Fatalf("expected highest-scored free peer a, got %+v ok=%v", best, ok)
	}
}

func TestPeerSetResetTimedOutBusyPeers(t *testing.T) {
	ps := NewPeerSet()
	id := common.HexToHash("0x1")
	ps.Register(id, nil)

	past := time.Now().Add(-2 * PeerReplyTimeout)
	if err := ps.MarkBusy(id, past); err != nil {
		t.Fatalf("MarkBusy: %v", err)
	}
	freed := ps.ResetTimedOutBusyPeers(time.Now())
	if len(freed) != 1 || freed[0] != id {
		t.Fatalf("expected %v freed, got %v", id, freed)
	}
	p, ok := ps.GetRandomPeer()
	if !ok || p.IsBusy() {
		t.Fatalf("expected peer freed by timeout reset, got %+v ok=%v", p, ok)
	}
	if p.Score != -1 {
		t.Fatalf("expected timeout penalty of -1, got %d", p.Score)
	}
}

func TestPeerSetEmptySelection(t *testing.T) {
	ps := NewPeerSet()
	if _, ok := ps.GetRandomPeer(); ok {
		t.Fatalf("expected no peer available in an empty set")
	}
	if _, ok := ps.GetBestPeer(); ok {
		t.Fatalf("expected no peer available in an empty set")
	}
}
