// Copyright 2021 The go-ethereum Authors
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

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// hashSpace is the size of the 256 bit hash space accounts/storage slots
// live in.
var hashSpace = new(big.Int).Exp(big.NewInt(2), big.NewInt(256), nil)

// maxUint256 is the largest representable hash, the end of the space.
var maxUint256 = new(uint256.Int).Not(uint256.NewInt(0))

// hashRange splits the remaining hash space after a starting point into a
// fixed number of equal-ish sized chunks, for parallel account/storage
// range requests across peers.
type hashRange struct {
	current *uint256.Int
	step    *uint256.Int
}

// newHashRange creates a hashRange initiated at start, with the step sized
// to fill the desired number of chunks across the remaining space.
func newHashRange(start common.Hash, chunks uint64) *hashRange {
	left := new(big.Int).Sub(hashSpace, start.Big())
	step := new(big.Int).Div(
		new(big.Int).Add(left, new(big.Int).SetUint64(chunks-1)),
		new(big.Int).SetUint64(chunks),
	)
	stepInt := new(uint256.Int)
	stepInt.SetFromBig(step)

	return &hashRange{
		current: new(uint256.Int).SetBytes(start[:]),
		step:    stepInt,
	}
}

// Next advances the range to the next interval, reporting false once the
// space is exhausted.
func (r *hashRange) Next() bool {
	next, overflow := new(uint256.Int).AddOverflow(r.current, r.step)
	if overflow {
		return false
	}
	r.current = next
	return true
}

// Start returns the first hash of the current interval.
func (r *hashRange) Start() common.Hash {
	return common.Hash(r.current.Bytes32())
}

// End returns the last hash of the current interval, capped at the top of
// the hash space for the final, possibly shorter, chunk.
func (r *hashRange) End() common.Hash {
	next, overflow := new(uint256.Int).AddOverflow(r.current, r.step)
	if overflow {
		return common.Hash(maxUint256.Bytes32())
	}
	end := new(uint256.Int).Sub(next, uint256.NewInt(1))
	return common.Hash(end.Bytes32())
}
