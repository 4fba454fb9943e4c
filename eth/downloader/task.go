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

import "github.com/ethereum/go-ethereum/common"

// TaskStatus is a task's position in the scheduler's lifecycle.
type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskInFlight
	TaskCompleted
)

// TaskKind distinguishes the four request shapes the scheduler dispatches.
// Only one of the per-kind payload fields on Task is populated, matching the
// kind.
type TaskKind int

const (
	TaskHeaders TaskKind = iota
	TaskAccountRanges
	TaskStorageRanges
	TaskBytecode
)

// HeadersRequest asks a peer for a run of block headers starting at Start.
type HeadersRequest struct {
	Start      uint64
	ChunkLimit uint64
}

// AccountRangesRequest asks a peer for the slice of the account trie falling
// in [StartHash, EndHash].
type AccountRangesRequest struct {
	StartHash common.Hash
	EndHash   common.Hash
}

// StorageRangesRequest asks a peer for the storage slots of the accounts at
// StartIdx..EndIdx (inclusive indices into the syncer's account list; every
// account in between is covered, whether or not it has storage), optionally
// bounded to [StartHash, EndHash] when resuming a partial account's storage.
type StorageRangesRequest struct {
	StartIdx  int
	EndIdx    int
	StartHash common.Hash
	EndHash   *common.Hash
}

// BytecodeRequest asks a peer for the contract code hashes at StartIdx..EndIdx.
type BytecodeRequest struct {
	StartIdx int
	EndIdx   int
}

// Task is the scheduler's unit of dispatch: exactly one peer may hold it at
// a time, and it carries its own retry budget so the scheduler can give up
// on a request that no peer can satisfy.
type Task struct {
	ID     uint64
	Kind   TaskKind
	Status TaskStatus

	Headers       *HeadersRequest
	AccountRanges *AccountRangesRequest
	StorageRanges *StorageRangesRequest
	Bytecode      *BytecodeRequest

	Attempts   int
	AssignedTo common.Hash
}

// Exhausted reports whether the task has used up its retry budget and
// should be abandoned rather than reassigned.
func (t *Task) Exhausted() bool {
	return t.Attempts >= RequestRetryAttempts
}

// Assign marks the task in-flight with peer and bumps its attempt counter.
func (t *Task) Assign(peer common.Hash) {
	t.Status = TaskInFlight
	t.AssignedTo = peer
	t.Attempts++
}

// Release returns the task to the pending pool, e.g. after a timeout or an
// invalid response, leaving the attempt counter intact.
func (t *Task) Release() {
	t.Status = TaskPending
	t.AssignedTo = common.Hash{}
}

// Complete marks the task done; it is never rescheduled again.
func (t *Task) Complete() {
	t.Status = TaskCompleted
}
