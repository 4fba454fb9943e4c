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

package eth

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// Tests that the custom union field encoder and decoder works correctly.
func TestHashOrNumberEncodeDecode(t *testing.T) {
	var hash common.Hash
	for i := range hash {
		hash[i] = byte(i)
	}
	tests := []struct {
		origin HashOrNumber
		fail   bool
	}{
		{origin: HashOrNumber{Number: 314}},
		{origin: HashOrNumber{Hash: hash}},
		{origin: HashOrNumber{Hash: hash, Number: 314}, fail: true},
	}
	for i, tt := range tests {
		enc, err := rlp.EncodeToBytes(&tt.origin)
		if err != nil && !tt.fail {
			t.Fatalf("test %d: failed to encode: %v", i, err)
		} else if err == nil && tt.fail {
			t.Fatalf("test %d: encode should have failed", i)
		}
		if tt.fail {
			continue
		}
		var got HashOrNumber
		if err := rlp.DecodeBytes(enc, &got); err != nil {
			t.Fatalf("test %d: failed to decode: %v", i, err)
		}
		if got.Hash != tt.origin.Hash || got.Number != tt.origin.Number {
			t.Fatalf("test %d: encode/decode mismatch: have %+v, want %+v", i, got, tt.origin)
		}
	}
}

func TestGetBlockHeadersPacketEncodeDecode(t *testing.T) {
	packet := &GetBlockHeadersPacket{
		RequestId: 7,
		Query: GetBlockHeadersRequest{
			Origin:  HashOrNumber{Number: 314},
			Amount:  192,
			Skip:    1,
			Reverse: true,
		},
	}
	enc, err := rlp.EncodeToBytes(packet)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got GetBlockHeadersPacket
	if err := rlp.DecodeBytes(enc, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RequestId != packet.RequestId || got.Query != packet.Query {
		t.Fatalf("mismatch: have %+v, want %+v", got, packet)
	}
}

func TestBlockBodiesPacketRoundTrip(t *testing.T) {
	packet := &BlockBodiesPacket{
		RequestId: 9,
		Bodies:    [][]byte{{0x01, 0x02}, {}},
	}
	enc, err := rlp.EncodeToBytes(packet)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got BlockBodiesPacket
	if err := rlp.DecodeBytes(enc, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RequestId != packet.RequestId || len(got.Bodies) != len(packet.Bodies) {
		t.Fatalf("mismatch: have %+v, want %+v", got, packet)
	}
}
