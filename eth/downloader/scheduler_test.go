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
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosnap-io/gosnap/core/types"
)

type fakeSyncPeer struct {
	id common.Hash
}

func (f *fakeSyncPeer) ID() common.Hash { return f.id }
func (f *fakeSyncPeer) RequestHeaders(ctx context.Context, start, chunkLimit uint64) ([]*types.BlockHeader, error) {
	return nil, nil
}
func (f *fakeSyncPeer) RequestAccountRange(ctx context.Context, root common.Hash, origin, limit common.Hash) ([][2][]byte, [][]byte, error) {
	return nil, nil, nil
}
func (f *fakeSyncPeer) RequestStorageRanges(ctx context.Context, root common.Hash, accounts []common.Hash, origin, limit common.Hash) ([][][2][]byte, [][]byte, error) {
	return nil, nil, nil
}
func (f *fakeSyncPeer) RequestByteCodes(ctx context.Context, hashes []common.Hash) ([][]byte, error) {
	return nil, nil
}
func (f *fakeSyncPeer) RequestTrieNodes(ctx context.Context, root common.Hash, paths [][][]byte) ([][]byte, error) {
	return nil, nil
}

func waitForIdle(t *testing.T, s *Scheduler, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.Idle() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("scheduler did not drain within %s", timeout)
}

func TestSchedulerAssignsPendingTaskToFreePeer(t *testing.T) {
	peers := NewPeerSet()
	id := common.HexToHash("0x1")
	peers.Register(id, nil)

	dispatched := make(chan uint64, 1)
	s := NewScheduler(peers, func(ctx context.Context, peer SyncPeer, task *Task) error {
		dispatched <- task.ID
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx, func() []SyncPeer { return []SyncPeer{&fakeSyncPeer{id: id}} })
	defer s.Stop()

	s.AddTasks([]*Task{{ID: 1, Kind: TaskAccountRanges, AccountRanges: &AccountRangesRequest{}}})

	select {
	case got := <-dispatched:
		if got != 1 {
			t.Fatalf("dispatched task %d, want 1", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("task was never dispatched")
	}
	waitForIdle(t, s, 2*time.Second)
}

func TestSchedulerRetriesFailedTaskThenGivesUp(t *testing.T) {
	peers := NewPeerSet()
	id := common.HexToHash("0x1")
	peers.Register(id, nil)

	var attempts int
	done := make(chan struct{})
	s := NewScheduler(peers, func(ctx context.Context, peer SyncPeer, task *Task) error {
		attempts++
		if attempts == RequestRetryAttempts {
			close(done)
		}
		return errors.New("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx, func() []SyncPeer { return []SyncPeer{&fakeSyncPeer{id: id}} })
	defer s.Stop()

	s.AddTasks([]*Task{{ID: 7, Kind: TaskBytecode, Bytecode: &BytecodeRequest{}}})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("task was not retried to exhaustion, attempts=%d", attempts)
	}
	waitForIdle(t, s, 2*time.Second)
	if attempts != RequestRetryAttempts {
		t.Fatalf("attempts = %d, want %d", attempts, RequestRetryAttempts)
	}
}

func TestSchedulerCancelTasksDropsPending(t *testing.T) {
	peers := NewPeerSet()
	s := NewScheduler(peers, func(ctx context.Context, peer SyncPeer, task *Task) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx, func() []SyncPeer { return nil })
	defer s.Stop()

	s.AddTasks([]*Task{{ID: 3, Kind: TaskHeaders, Headers: &HeadersRequest{}}})
	time.Sleep(20 * time.Millisecond)
	s.CancelTasks(3)
	waitForIdle(t, s, 2*time.Second)
}
