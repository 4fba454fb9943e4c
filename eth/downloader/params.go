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

// Package downloader is the peer-handler scheduler: it tracks which peers
// are connected and how well they have performed, and drives the task queue
// that keeps them all busy fetching the next piece of chain or state data.
package downloader

import "time"

const (
	// PeerReplyTimeout is how long a peer may hold an assigned task before
	// it is force-freed and the task returned to the pending queue.
	PeerReplyTimeout = 15 * time.Second

	// RequestRetryAttempts bounds how many different peers a single task
	// may be handed to before the scheduler gives up on it.
	RequestRetryAttempts = 5

	// MaxResponseBytes is the response size budget advertised in every
	// range/bytecode/trie-node request.
	MaxResponseBytes = 512 * 1024

	// SnapLimit bounds how far ahead of the current pivot a new pivot may
	// be chosen.
	SnapLimit = 128

	// ChunkCount is how many pieces the initial account-hash space is cut
	// into for the range-sync phase.
	ChunkCount = 800

	// MaxBlockBodiesToRequest bounds a single GetBlockBodies request.
	MaxBlockBodiesToRequest = 128

	// MaxBytecodesRequestSize bounds a single GetByteCodes request.
	MaxBytecodesRequestSize = 100

	// AssignTasksInterval is the scheduler's task-dispatch tick.
	AssignTasksInterval = 10 * time.Millisecond

	// UpdatePeersInterval is how often the scheduler re-evaluates peer
	// liveness (forcing free any peer stuck past PeerReplyTimeout).
	UpdatePeersInterval = 5 * time.Second
)
