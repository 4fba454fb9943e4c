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

// Package types holds the on-chain record shapes the sync engine reads and
// writes: account state as it sits at a trie leaf, and the trimmed block
// header fields the scheduler needs to walk the canonical chain.
package types

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// EmptyCodeHash is the Keccak-256 of an empty byte string, the code hash
// every externally-owned account carries.
var EmptyCodeHash = common.HexToHash("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")

// EmptyRootHash is the root of the empty trie, the storage root every
// account without storage carries.
var EmptyRootHash = common.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

// AccountState is the RLP-encoded value stored at an account trie leaf.
// Field order is part of the wire and storage format and must not change.
type AccountState struct {
	Nonce    uint64
	Balance  *uint256.Int
	Root     common.Hash // storage trie root
	CodeHash []byte
}

// NewEmptyAccountState returns the zero-value account a freshly created,
// never-funded address would decode to.
func NewEmptyAccountState() *AccountState {
	return &AccountState{
		Balance:  new(uint256.Int),
		CodeHash: EmptyCodeHash.Bytes(),
	}
}

// IsEmptyCodeHash reports whether a lives at the code hash of an
// externally-owned account (no contract code).
func (a *AccountState) IsEmptyCodeHash() bool {
	return bytes.Equal(a.CodeHash, EmptyCodeHash.Bytes())
}

// IsEmptyRoot reports whether a carries no storage.
func (a *AccountState) IsEmptyRoot() bool {
	return a.Root == EmptyRootHash || a.Root == (common.Hash{})
}

// EncodeRLP renders the account in its canonical trie-leaf encoding.
func (a *AccountState) EncodeRLP() ([]byte, error) {
	balance := a.Balance
	if balance == nil {
		balance = new(uint256.Int)
	}
	return rlp.EncodeToBytes([]interface{}{a.Nonce, balance, a.Root, a.CodeHash})
}

// DecodeAccountRLP parses an account's trie-leaf encoding back into a
// *AccountState.
func DecodeAccountRLP(blob []byte) (*AccountState, error) {
	var raw struct {
		Nonce    uint64
		Balance  *uint256.Int
		Root     common.Hash
		CodeHash []byte
	}
	if err := rlp.DecodeBytes(blob, &raw); err != nil {
		return nil, err
	}
	return &AccountState{
		Nonce:    raw.Nonce,
		Balance:  raw.Balance,
		Root:     raw.Root,
		CodeHash: raw.CodeHash,
	}, nil
}
