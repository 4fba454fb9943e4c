// Copyright 2019 The go-ethereum Authors
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

// Package snapshot builds and maintains the flat key-value mirror of account
// and storage state: a generator walks the trie once in the background and
// writes it out address-by-address, while a small stack of diff layers lets
// recent blocks' writes be read immediately without waiting on generation.
package snapshot

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gosnap-io/gosnap/core/rawdb"
)

// genBatchSize is how many leaves the generator writes before yielding to a
// pending Continue/Stop control signal — the cooperative pause granularity
// described for the flat-KV generator.
const genBatchSize = 10000

// genState is the control-channel vocabulary a caller drives the generator
// with.
type genState int

const (
	genContinue genState = iota
	genStop
)

// AccountSource is the account trie the generator walks, yielded in
// ascending hash order starting at (and including) from.
type AccountSource interface {
	// Next returns up to limit (hash, encoded-account) pairs starting at or
	// after from, and whether more entries remain beyond the last one
	// returned.
	Next(from common.Hash, limit int) (entries []AccountEntry, more bool, err error)
}

// AccountEntry is one leaf the generator copies into the flat account
// table.
type AccountEntry struct {
	Hash    common.Hash
	Address common.Address
	Blob    []byte
}

// GeneratorStats tracks progress for logging and for the persisted
// checkpoint.
type GeneratorStats struct {
	Accounts uint64
	Start    time.Time
}

// Generator walks a trie's account leaves in ascending order and writes
// them into the flat account table, pausing cooperatively on every
// genBatchSize-leaf batch boundary to check for a Stop signal (e.g. a pivot
// change invalidating the state being generated) or to record a
// last_written checkpoint it can resume from.
type Generator struct {
	db     *rawdb.Database
	source AccountSource

	control chan genState
	done    chan struct{}

	// lastWritten is the checkpoint: nil means generation has not started,
	// a non-nil hash names the last account hash durably written so a
	// restart resumes just past it instead of from genesis.
	lastWritten *common.Hash
	stats       GeneratorStats
}

// NewGenerator builds a generator that will populate db's flat account table
// by walking source, resuming from resumeFrom if non-nil.
func NewGenerator(db *rawdb.Database, source AccountSource, resumeFrom *common.Hash) *Generator {
	return &Generator{
		db:          db,
		source:      source,
		control:     make(chan genState),
		done:        make(chan struct{}),
		lastWritten: resumeFrom,
	}
}

// Run drives the generator to completion or until Stop is called. It is
// meant to be launched in its own goroutine; Done() reports completion.
func (g *Generator) Run() {
	defer close(g.done)
	g.stats.Start = time.Now()

	origin := common.Hash{}
	if g.lastWritten != nil {
		origin = increment(*g.lastWritten)
	}
	for {
		select {
		case state := <-g.control:
			if state == genStop {
				log.Info("Flat-KV generation paused", "accounts", g.stats.Accounts, "last", origin)
				return
			}
		default:
		}

		entries, more, err := g.source.Next(origin, genBatchSize)
		if err != nil {
			log.Error("Flat-KV generation aborted by source error", "err", err)
			return
		}
		if len(entries) == 0 && !more {
			log.Info("Flat-KV generation complete", "accounts", g.stats.Accounts, "elapsed", time.Since(g.stats.Start))
			return
		}
		if err := g.writeBatch(entries); err != nil {
			log.Error("Flat-KV generation failed to write batch", "err", err)
			return
		}
		g.stats.Accounts += uint64(len(entries))
		if len(entries) > 0 {
			last := entries[len(entries)-1].Hash
			g.lastWritten = &last
			origin = increment(last)
		}
		if !more {
			log.Info("Flat-KV generation complete", "accounts", g.stats.Accounts, "elapsed", time.Since(g.stats.Start))
			return
		}
	}
}

func (g *Generator) writeBatch(entries []AccountEntry) error {
	updates := make(map[common.Address][]byte, len(entries))
	for _, e := range entries {
		updates[e.Address] = e.Blob
	}
	return g.db.ApplyUpdates(&rawdb.UpdateBatch{FlatAccountUpdates: updates})
}

// Continue delivers a continue signal to a running generator, which Run
// accepts and carries on. Stop ends Run rather than pausing it, so Continue
// does not restart a stopped generator; it returns at once if Run has exited.
func (g *Generator) Continue() {
	select {
	case g.control <- genContinue:
	case <-g.done:
	}
}

// Stop requests the generator exit at the next batch boundary and blocks
// until it has done so (or already finished).
func (g *Generator) Stop() {
	select {
	case g.control <- genStop:
	case <-g.done:
	}
	<-g.done
}

// Done reports whether the generator has exited (completed or stopped).
func (g *Generator) Done() <-chan struct{} {
	return g.done
}

// LastWritten returns the checkpoint as of the last completed batch, for
// persisting across restarts.
func (g *Generator) LastWritten() *common.Hash {
	return g.lastWritten
}

// increment returns the hash immediately following h in big-endian order,
// the smallest value strictly greater than h (saturating at all-0xff).
func increment(h common.Hash) common.Hash {
	next := h
	for i := len(next) - 1; i >= 0; i-- {
		next[i]++
		if next[i] != 0 {
			return next
		}
	}
	return h
}
