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
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosnap-io/gosnap/core/types"
)

// SyncPeer is the seam between the scheduler and the actual network
// transport (devp2p/RLPx), which is out of scope here. A real deployment's
// protocol handler implements this against a live connection; tests and the
// scheduler's own unit tests implement it against canned responses.
type SyncPeer interface {
	ID() common.Hash
	RequestHeaders(ctx context.Context, start, chunkLimit uint64) ([]*types.BlockHeader, error)
	RequestAccountRange(ctx context.Context, root common.Hash, origin, limit common.Hash) ([][2][]byte, [][]byte, error)
	RequestStorageRanges(ctx context.Context, root common.Hash, accounts []common.Hash, origin, limit common.Hash) ([][][2][]byte, [][]byte, error)
	RequestByteCodes(ctx context.Context, hashes []common.Hash) ([][]byte, error)
	RequestTrieNodes(ctx context.Context, root common.Hash, paths [][][]byte) ([][]byte, error)
}

// Peer is the scheduler's bookkeeping record for one connected SyncPeer: its
// capability set, its earned score, and whether it currently holds an
// in-flight task.
type Peer struct {
	ID           common.Hash
	Capabilities map[string]bool
	Score        int64
	RequestTime  *time.Time // non-nil while the peer holds an assigned task
}

// IsBusy reports whether the peer is currently serving a request.
func (p *Peer) IsBusy() bool {
	return p.RequestTime != nil
}

// TimedOut reports whether a busy peer has held its task past
// PEER_REPLY_TIMEOUT as of now.
func (p *Peer) TimedOut(now time.Time) bool {
	return p.RequestTime != nil && now.After(p.RequestTime.Add(PeerReplyTimeout))
}
