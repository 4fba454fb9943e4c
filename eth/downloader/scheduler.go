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
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gosnap-io/gosnap/common/prque"
	"github.com/gosnap-io/gosnap/metrics"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var (
	tasksDispatchedMeter = metrics.NewRegisteredCounter("downloader/tasks/dispatched", nil)
	tasksFailedMeter     = metrics.NewRegisteredCounter("downloader/tasks/failed", nil)
	tasksExhaustedMeter  = metrics.NewRegisteredCounter("downloader/tasks/exhausted", nil)
	pendingTasksGauge    = metrics.NewRegisteredGauge("downloader/tasks/pending", nil)
)

// maxInFlightDispatches bounds how many peer requests a single
// AssignTasks tick may fan out concurrently, so a burst of free peers can't
// outrun the scheduler's own loop.
const maxInFlightDispatches = 16

// perPeerRateLimit caps how many requests the scheduler will issue to a
// single peer per second, independent of how many tasks are pending.
const perPeerRateLimit = 10

// updatePeersMsg asks the scheduler to re-evaluate peer liveness, freeing
// any peer stuck past PeerReplyTimeout and requeueing its task.
type updatePeersMsg struct{}

// assignTasksMsg asks the scheduler to hand pending tasks to free peers.
type assignTasksMsg struct{}

// taskFinishedMsg reports the outcome of one dispatched request.
type taskFinishedMsg struct {
	taskID uint64
	peer   common.Hash
	err    error
}

// updateStateMsg pushes new tasks into the pending queue, e.g. once a
// range response reveals more accounts needing storage, or a new pivot
// invalidates stale work.
type updateStateMsg struct {
	add    []*Task
	cancel map[uint64]bool
}

// Scheduler is the peer-handler actor: it owns the pending task queue and
// the peer table, and drives dispatch purely by typed messages delivered
// over channels, matching the "callback-driven peer code becomes message
// passing" design note.
type Scheduler struct {
	peers *PeerSet

	mu       sync.Mutex
	pending  *prque.Prque[int64, *Task]
	inFlight map[uint64]*Task
	limiters map[common.Hash]*rate.Limiter

	updatePeers  chan updatePeersMsg
	assignTasks  chan assignTasksMsg
	taskFinished chan taskFinishedMsg
	updateState  chan updateStateMsg
	done         chan struct{}

	dispatch func(ctx context.Context, peer SyncPeer, task *Task) error
}

// NewScheduler builds a Scheduler around peers. dispatch performs the
// actual network round-trip for one task against one peer; tests supply a
// canned implementation, production wires it to the SyncPeer methods.
func NewScheduler(peers *PeerSet, dispatch func(ctx context.Context, peer SyncPeer, task *Task) error) *Scheduler {
	return &Scheduler{
		peers:        peers,
		pending:      prque.New[int64, *Task](nil),
		inFlight:     make(map[uint64]*Task),
		limiters:     make(map[common.Hash]*rate.Limiter),
		updatePeers:  make(chan updatePeersMsg, 1),
		assignTasks:  make(chan assignTasksMsg, 1),
		taskFinished: make(chan taskFinishedMsg, maxInFlightDispatches),
		updateState:  make(chan updateStateMsg, 1),
		done:         make(chan struct{}),
		dispatch:     dispatch,
	}
}

// AddTasks enqueues new pending tasks from outside the actor's own
// goroutine.
func (s *Scheduler) AddTasks(tasks []*Task) {
	s.updateState <- updateStateMsg{add: tasks}
}

// CancelTasks drops the named tasks from the pending/in-flight sets, used
// when a pivot goes stale and its outstanding work must be abandoned.
func (s *Scheduler) CancelTasks(ids ...uint64) {
	cancel := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		cancel[id] = true
	}
	s.updateState <- updateStateMsg{cancel: cancel}
}

// Idle reports whether the scheduler has no pending or in-flight work.
func (s *Scheduler) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Empty() && len(s.inFlight) == 0
}

// taskPriority ranks tasks by fewest attempts first, so a task that has
// already burned through retries doesn't starve fresh work ahead of it in
// the queue once it's requeued.
func taskPriority(t *Task) int64 {
	return -int64(t.Attempts)
}

// pushPending enqueues t, must be called with s.mu held.
func (s *Scheduler) pushPending(t *Task) {
	s.pending.Push(t, taskPriority(t))
	pendingTasksGauge.Update(int64(s.pending.Size()))
}

// Stop shuts the actor loop down.
func (s *Scheduler) Stop() {
	close(s.done)
}

// Run drives the actor loop until ctx is cancelled or Stop is called.
// AssignTasksInterval and UpdatePeersInterval tick the two periodic
// messages; AddTasks/CancelTasks/internal completions feed the rest.
func (s *Scheduler) Run(ctx context.Context, peerLister func() []SyncPeer) {
	assignTicker := time.NewTicker(AssignTasksInterval)
	defer assignTicker.Stop()
	peersTicker := time.NewTicker(UpdatePeersInterval)
	defer peersTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-assignTicker.C:
			s.handleAssignTasks(ctx, peerLister)
		case <-peersTicker.C:
			s.handleUpdatePeers()
		case msg := <-s.updateState:
			s.handleUpdateState(msg)
		case msg := <-s.taskFinished:
			s.handleTaskFinished(msg)
		case <-s.assignTasks:
			s.handleAssignTasks(ctx, peerLister)
		case <-s.updatePeers:
			s.handleUpdatePeers()
		}
	}
}

func (s *Scheduler) handleUpdateState(msg updateStateMsg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range msg.add {
		s.pushPending(t)
	}
	for id := range msg.cancel {
		if t, ok := s.inFlight[id]; ok {
			delete(s.inFlight, id)
			t.Complete()
		}
	}
	if len(msg.cancel) > 0 {
		s.dropPendingLocked(msg.cancel)
	}
}

// dropPendingLocked drains the pending queue, discarding any task whose ID
// is in cancel, and rebuilds it from what's left. Must be called with s.mu
// held.
func (s *Scheduler) dropPendingLocked(cancel map[uint64]bool) {
	var kept []*Task
	for !s.pending.Empty() {
		t := s.pending.PopItem()
		if !cancel[t.ID] {
			kept = append(kept, t)
		}
	}
	for _, t := range kept {
		s.pushPending(t)
	}
}

func (s *Scheduler) handleUpdatePeers() {
	freed := s.peers.ResetTimedOutBusyPeers(time.Now())
	if len(freed) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.inFlight {
		for _, f := range freed {
			if t.AssignedTo == f {
				delete(s.inFlight, id)
				t.Release()
				if !t.Exhausted() {
					s.pushPending(t)
				} else {
					tasksExhaustedMeter.Inc(1)
					log.Warn("downloader: task exhausted its retry budget", "task", t.ID)
				}
			}
		}
	}
}

func (s *Scheduler) handleTaskFinished(msg taskFinishedMsg) {
	s.peers.MarkFree(msg.peer)
	s.mu.Lock()
	t, ok := s.inFlight[msg.taskID]
	if ok {
		delete(s.inFlight, msg.taskID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	if msg.err != nil {
		tasksFailedMeter.Inc(1)
		s.peers.AdjustScore(msg.peer, -1)
		t.Release()
		if t.Exhausted() {
			tasksExhaustedMeter.Inc(1)
			log.Warn("downloader: task exhausted its retry budget", "task", t.ID, "err", msg.err)
			return
		}
		s.mu.Lock()
		s.pushPending(t)
		s.mu.Unlock()
		return
	}
	s.peers.AdjustScore(msg.peer, 1)
	t.Complete()
}

// handleAssignTasks hands pending tasks to free peers, fanning the actual
// network calls out across a bounded errgroup so one tick can't spawn an
// unbounded number of goroutines.
func (s *Scheduler) handleAssignTasks(ctx context.Context, peerLister func() []SyncPeer) {
	s.mu.Lock()
	var runnable []*Task
	for len(runnable) < maxInFlightDispatches && !s.pending.Empty() {
		runnable = append(runnable, s.pending.PopItem())
	}
	pendingTasksGauge.Update(int64(s.pending.Size()))
	s.mu.Unlock()

	if len(runnable) == 0 {
		return
	}
	byID := make(map[common.Hash]SyncPeer)
	for _, p := range peerLister() {
		byID[p.ID()] = p
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(maxInFlightDispatches)

	for _, task := range runnable {
		peerRecord, ok := s.peers.GetBestPeer()
		if !ok {
			s.mu.Lock()
			s.pushPending(task)
			s.mu.Unlock()
			continue
		}
		peer, ok := byID[peerRecord.ID]
		if !ok {
			s.mu.Lock()
			s.pushPending(task)
			s.mu.Unlock()
			continue
		}
		limiter := s.limiterFor(peerRecord.ID)
		s.peers.MarkBusy(peerRecord.ID, time.Now())
		task.Assign(peerRecord.ID)
		s.mu.Lock()
		s.inFlight[task.ID] = task
		s.mu.Unlock()

		task, peer, id := task, peer, peerRecord.ID
		tasksDispatchedMeter.Inc(1)
		group.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				s.taskFinished <- taskFinishedMsg{taskID: task.ID, peer: id, err: err}
				return nil
			}
			err := s.dispatch(gctx, peer, task)
			s.taskFinished <- taskFinishedMsg{taskID: task.ID, peer: id, err: err}
			return nil
		})
	}
	go group.Wait()
}

func (s *Scheduler) limiterFor(id common.Hash) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[id]
	if !ok {
		l = rate.NewLimiter(perPeerRateLimit, perPeerRateLimit)
		s.limiters[id] = l
	}
	return l
}
