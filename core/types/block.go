// Copyright 2014 The go-ethereum Authors
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

package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// BlockHeader carries only the fields the sync engine reads while walking
// the canonical chain: enough to validate strict number/parent-hash
// monotonicity and to anchor a pivot's state and receipt roots.
type BlockHeader struct {
	Number      uint64
	ParentHash  common.Hash
	Root        common.Hash // state root
	ReceiptHash common.Hash
	Time        uint64
}

// Hash returns the Keccak-256 of the header's RLP encoding, the value every
// child header's ParentHash must equal.
func (h *BlockHeader) Hash() common.Hash {
	enc, err := rlp.EncodeToBytes(h)
	if err != nil {
		panic(err)
	}
	return crypto.Keccak256Hash(enc)
}

// IsChildOf reports whether h is the immediate canonical successor of
// parent: one greater in number, and naming parent's hash.
func (h *BlockHeader) IsChildOf(parent *BlockHeader) bool {
	return h.Number == parent.Number+1 && h.ParentHash == parent.Hash()
}
