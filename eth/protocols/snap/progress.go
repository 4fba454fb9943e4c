// Copyright 2024 The go-ethereum Authors
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

package snap

import "github.com/ethereum/go-ethereum/common"

// storageTask is a suspended storage-range interval awaiting completion for
// one account.
type storageTask struct {
	Next common.Hash // Next storage slot to sync in this interval
	Last common.Hash // Last storage slot to sync in this interval
}

// accountTask is a suspended account-range interval, together with any
// storage sub-tasks spawned for the large-contract accounts inside it.
type accountTask struct {
	Next common.Hash // Next account to sync in this interval
	Last common.Hash // Last account to sync in this interval

	SubTasks         map[common.Hash][]*storageTask // Storage intervals still needing fetching for large contracts
	StorageCompleted []common.Hash                  // Accounts whose storage has fully synced, pending trie healing
}

// SyncProgress is the persisted, resumable state of an in-flight Syncer:
// the suspended account-range tasks (and the storage sub-tasks nested
// inside them), serialized across a restart. The field layout is additive
// over the legacy shape so an older persisted blob still decodes.
type SyncProgress struct {
	Tasks []*accountTask
}

// Done reports whether every task has fully drained.
func (p *SyncProgress) Done() bool {
	return len(p.Tasks) == 0
}
