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
	"errors"
	"math/rand"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosnap-io/gosnap/internal/syncx"
)

// ErrPeerAlreadyRegistered is returned by Register for a duplicate peer id.
var ErrPeerAlreadyRegistered = errors.New("downloader: peer already registered")

// ErrPeerNotRegistered is returned by operations naming an unknown peer id.
var ErrPeerNotRegistered = errors.New("downloader: peer not registered")

// PeerSet is the scheduler's table of connected peers: who is free, who is
// busy, and how trustworthy each has proven to be so far. All mutation goes
// through a deadlock-checked mutex since the scheduler, the peer-timeout
// sweep, and response handlers all touch it concurrently.
type PeerSet struct {
	lock  *syncx.ClosableMutex
	peers map[common.Hash]*Peer
}

// NewPeerSet builds an empty peer table.
func NewPeerSet() *PeerSet {
	return &PeerSet{lock: syncx.NewClosableMutex(), peers: make(map[common.Hash]*Peer)}
}

// Register adds a newly connected peer with a neutral starting score.
func (ps *PeerSet) Register(id common.Hash, caps map[string]bool) error {
	ps.lock.MustLock()
	defer ps.lock.Unlock()
	if _, ok := ps.peers[id]; ok {
		return ErrPeerAlreadyRegistered
	}
	ps.peers[id] = &Peer{ID: id, Capabilities: caps}
	return nil
}

// Unregister drops a disconnected peer from the table.
func (ps *PeerSet) Unregister(id common.Hash) error {
	ps.lock.MustLock()
	defer ps.lock.Unlock()
	if _, ok := ps.peers[id]; !ok {
		return ErrPeerNotRegistered
	}
	delete(ps.peers, id)
	return nil
}

// MarkBusy records that id has just been handed a task.
func (ps *PeerSet) MarkBusy(id common.Hash, at time.Time) error {
	ps.lock.MustLock()
	defer ps.lock.Unlock()
	p, ok := ps.peers[id]
	if !ok {
		return ErrPeerNotRegistered
	}
	t := at
	p.RequestTime = &t
	return nil
}

// MarkFree clears id's in-flight task, making it eligible for scheduling
// again.
func (ps *PeerSet) MarkFree(id common.Hash) error {
	ps.lock.MustLock()
	defer ps.lock.Unlock()
	p, ok := ps.peers[id]
	if !ok {
		return ErrPeerNotRegistered
	}
	p.RequestTime = nil
	return nil
}

// AdjustScore adds the caller-chosen delta to id's score. The scheduler
// passes +1 for a successful response and -1 for a failed or timed-out
// request; an invalid response gets no larger penalty than that.
func (ps *PeerSet) AdjustScore(id common.Hash, delta int64) {
	ps.lock.MustLock()
	defer ps.lock.Unlock()
	if p, ok := ps.peers[id]; ok {
		p.Score += delta
	}
}

// GetRandomPeer returns a uniformly random free peer, or false if none are
// free.
func (ps *PeerSet) GetRandomPeer() (*Peer, bool) {
	ps.lock.MustLock()
	defer ps.lock.Unlock()
	free := ps.freeLocked()
	if len(free) == 0 {
		return nil, false
	}
	return free[rand.Intn(len(free))], true
}

// GetBestPeer returns the highest-scoring free peer, or false if none are
// free. Ties break toward whichever iteration order the map happens to
// produce, matching the "no ordering assumed across peers" design note.
func (ps *PeerSet) GetBestPeer() (*Peer, bool) {
	ps.lock.MustLock()
	defer ps.lock.Unlock()
	free := ps.freeLocked()
	if len(free) == 0 {
		return nil, false
	}
	best := free[0]
	for _, p := range free[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best, true
}

func (ps *PeerSet) freeLocked() []*Peer {
	var free []*Peer
	for _, p := range ps.peers {
		if !p.IsBusy() {
			free = append(free, p)
		}
	}
	return free
}

// ResetTimedOutBusyPeers force-frees every peer that has held its task past
// PEER_REPLY_TIMEOUT as of now, and returns their ids so the caller can
// return the corresponding tasks to the pending queue.
func (ps *PeerSet) ResetTimedOutBusyPeers(now time.Time) []common.Hash {
	ps.lock.MustLock()
	defer ps.lock.Unlock()
	var freed []common.Hash
	for id, p := range ps.peers {
		if p.TimedOut(now) {
			p.RequestTime = nil
			p.Score -= 1
			freed = append(freed, id)
		}
	}
	return freed
}

// Len returns the number of registered peers.
func (ps *PeerSet) Len() int {
	ps.lock.MustLock()
	defer ps.lock.Unlock()
	return len(ps.peers)
}
