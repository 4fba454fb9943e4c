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

// Package eth implements the companion "eth" wire protocol that carries
// headers, bodies, receipts and transactions alongside the snap-sync
// protocol's state ranges. Every request/response pair here is correlated
// by RequestId rather than connection order, the eth/66+ convention.
package eth

import (
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gosnap-io/gosnap/core/types"
)

// Protocol message codes.
const (
	NewBlockHashesMsg             = 0x01
	TransactionsMsg               = 0x02
	GetBlockHeadersMsg            = 0x03
	BlockHeadersMsg               = 0x04
	GetBlockBodiesMsg             = 0x05
	BlockBodiesMsg                = 0x06
	NewBlockMsg                   = 0x07
	NewPooledTransactionHashesMsg = 0x08
	GetPooledTransactionsMsg      = 0x09
	PooledTransactionsMsg         = 0x0a
	GetReceiptsMsg                = 0x0f
	ReceiptsMsg                   = 0x10
)

// HashOrNumber is a union field: a header request's origin is either a
// block hash or a block number, never both, encoded as whichever of the
// two was set.
type HashOrNumber struct {
	Hash   common.Hash
	Number uint64
}

// EncodeRLP implements rlp.Encoder, encoding hn's number if no hash is set
// or its hash if no number is set, and refusing to encode both.
func (hn *HashOrNumber) EncodeRLP(w io.Writer) error {
	if hn.Hash == (common.Hash{}) {
		return rlp.Encode(w, hn.Number)
	}
	if hn.Number != 0 {
		return fmt.Errorf("eth: both origin hash (%x) and number (%d) provided", hn.Hash, hn.Number)
	}
	return rlp.Encode(w, hn.Hash)
}

// DecodeRLP implements rlp.Decoder, reconstructing whichever of hash/number
// was present based on the encoded item's size.
func (hn *HashOrNumber) DecodeRLP(s *rlp.Stream) error {
	_, size, err := s.Kind()
	switch {
	case err != nil:
		return err
	case size == 32:
		hn.Number = 0
		return s.Decode(&hn.Hash)
	case size <= 8:
		hn.Hash = common.Hash{}
		return s.Decode(&hn.Number)
	default:
		return fmt.Errorf("eth: invalid origin size %d, want 0..8 or 32", size)
	}
}

// GetBlockHeadersRequest queries for a contiguous run of headers starting
// at Origin (hash or number), Amount headers apart by Skip, optionally
// walking backward.
type GetBlockHeadersRequest struct {
	Origin  HashOrNumber
	Amount  uint64
	Skip    uint64
	Reverse bool
}

// GetBlockHeadersPacket is GetBlockHeadersRequest tagged with the
// RequestId its matching BlockHeadersPacket must echo back.
type GetBlockHeadersPacket struct {
	RequestId uint64
	Query     GetBlockHeadersRequest
}

// BlockHeadersPacket answers a GetBlockHeadersPacket with the headers
// found, in the request's walk order.
type BlockHeadersPacket struct {
	RequestId    uint64
	BlockHeaders []*types.BlockHeader
}

// GetBlockBodiesPacket requests the bodies of the listed block hashes.
type GetBlockBodiesPacket struct {
	RequestId uint64
	Hashes    []common.Hash
}

// BlockBodiesPacket answers a GetBlockBodiesPacket, in request order; a
// missing body is represented by an empty slice at its position. Bodies
// are carried as opaque RLP blobs — this protocol layer never decodes
// transaction lists, only ferries them to the storage engine façade.
type BlockBodiesPacket struct {
	RequestId uint64
	Bodies    [][]byte
}

// GetReceiptsPacket requests the receipts of the listed block hashes.
type GetReceiptsPacket struct {
	RequestId uint64
	Hashes    []common.Hash
}

// ReceiptsPacket answers a GetReceiptsPacket with one ordered list of
// opaque receipt blobs per requested block, matching
// core/rawdb.UpdateBatch.Receipts's per-block chunk shape.
type ReceiptsPacket struct {
	RequestId uint64
	Receipts  [][][]byte
}

// NewBlockPacket announces a newly mined/received block together with the
// chain's total difficulty through it, the pre-merge broadcast this
// protocol still carries for wire compatibility even though post-merge
// sync pins its pivot from header requests instead.
type NewBlockPacket struct {
	Header *types.BlockHeader
	Body   []byte // opaque RLP-encoded body
	TD     *big.Int
}

// NewPooledTransactionHashesPacket announces transactions a peer holds
// without sending their bodies, letting the receiver pull only the ones
// it doesn't already have (eth/68's type+size-annotated form).
type NewPooledTransactionHashesPacket struct {
	Types  []byte
	Sizes  []uint32
	Hashes []common.Hash
}

// GetPooledTransactionsPacket requests the full bodies of previously
// announced transaction hashes.
type GetPooledTransactionsPacket struct {
	RequestId uint64
	Hashes    []common.Hash
}

// PooledTransactionsPacket answers a GetPooledTransactionsPacket, in
// request order; a transaction the peer no longer holds is simply
// omitted rather than padded with an empty placeholder.
type PooledTransactionsPacket struct {
	RequestId    uint64
	Transactions [][]byte
}

// TransactionsPacket is an unsolicited broadcast of full transaction
// bodies, carrying no RequestId since it answers nothing.
type TransactionsPacket [][]byte
