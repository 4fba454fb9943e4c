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

package trie

import "fmt"

// EncodeCompactPath hex-prefix encodes a raw nibble path with no terminator
// flag, the form used to address trie nodes (as opposed to leaf values) over
// the wire.
func EncodeCompactPath(n Nibbles) []byte {
	return encodeCompact(n, false)
}

// encodeCompact hex-prefix encodes a nibble path for the wire, folding the
// leaf/extension distinction and the odd-length flag into the high nibble of
// the first byte, exactly as upstream execution clients do.
func encodeCompact(n Nibbles, terminator bool) []byte {
	term := byte(0)
	if terminator {
		term = 1
	}
	buf := make([]byte, len(n)/2+1)
	buf[0] = term << 5
	if len(n)&1 == 1 {
		buf[0] |= 1 << 4
		buf[0] |= n[0]
		n = n[1:]
	}
	for i := 0; i < len(n); i += 2 {
		buf[i/2+1] = n[i]<<4 | n[i+1]
	}
	return buf
}

// decodeCompact is the inverse of encodeCompact.
func decodeCompact(compact []byte) (path Nibbles, terminator bool, err error) {
	if len(compact) == 0 {
		return nil, false, fmt.Errorf("trie: empty compact-encoded path")
	}
	flag := compact[0]
	terminator = flag&0x20 != 0
	odd := flag&0x10 != 0

	path = make(Nibbles, 0, 2*(len(compact)-1)+1)
	if odd {
		path = append(path, flag&0x0f)
	} else if flag&0x0f != 0 {
		return nil, false, fmt.Errorf("trie: non-zero low nibble on even-length compact path")
	}
	for _, b := range compact[1:] {
		path = append(path, b>>4, b&0x0f)
	}
	return path, terminator, nil
}
