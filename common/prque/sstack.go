// CookieJar - A contestant's algorithm toolbox
// Copyright (c) 2013 Peter Szilagyi. All rights reserved.
//
// CookieJar is dual licensed: use of this source code is governed by a BSD
// license that can be found in the LICENSE file. Alternatively, the CookieJar
// toolbox may be used in accordance with the terms and conditions contained
// in a signed written agreement between you and the author(s).

package prque

import "cmp"

// blockSize is the size of the data blocks of which the sstack is built up.
const blockSize = 4096

// item is a wrapper over the data stored in the queue.
type item[P cmp.Ordered, V any] struct {
	value    V
	priority P
}

// SetIndexCallback is a callback that an element is given when it is moved
// inside the heap structure. Used to keep track of the current index of
// elements for fast removal (e.g. from a Scheduler's in-flight task set).
type SetIndexCallback[V any] func(data V, index int)

// sstack is a linked list of fixed size stacks, acting as a fast, resizable
// stack of (value, priority) items for the Prque heap to sort.
type sstack[P cmp.Ordered, V any] struct {
	setIndex SetIndexCallback[V]
	size     int
	capacity int
	offset   int

	blocks [][]*item[P, V]
	active []*item[P, V]
}

// newSstack creates a new, empty stack.
func newSstack[P cmp.Ordered, V any](setIndex SetIndexCallback[V]) *sstack[P, V] {
	result := new(sstack[P, V])
	result.setIndex = setIndex
	result.active = make([]*item[P, V], blockSize)
	result.blocks = [][]*item[P, V]{result.active}
	result.capacity = blockSize
	return result
}

// Push pushes a value onto the stack, expanding it if necessary. Required by
// sort.Interface through heap.Interface.
func (s *sstack[P, V]) Push(data any) {
	if s.size == s.capacity {
		s.active = make([]*item[P, V], blockSize)
		s.blocks = append(s.blocks, s.active)
		s.capacity += blockSize
		s.offset = 0
	} else if s.offset == blockSize {
		s.active = s.blocks[s.size/blockSize]
		s.offset = 0
	}
	s.active[s.offset] = data.(*item[P, V])
	if s.setIndex != nil {
		s.setIndex(s.active[s.offset].value, s.size)
	}
	s.offset++
	s.size++
}

// Pop pops a value off the stack and returns it. Required by sort.Interface
// through heap.Interface.
func (s *sstack[P, V]) Pop() (res any) {
	s.size--
	s.offset--
	if s.offset < 0 {
		s.offset = blockSize - 1
		s.active = s.blocks[s.size/blockSize]
	}
	res, s.active[s.offset] = s.active[s.offset], nil
	if s.setIndex != nil {
		s.setIndex(res.(*item[P, V]).value, -1)
	}
	return
}

// Len returns the size of the stack. Required by sort.Interface through
// heap.Interface.
func (s *sstack[P, V]) Len() int {
	return s.size
}

// Less compares the priority of two elements of the stack (higher first, so
// the stack sorts into a max-heap).
func (s *sstack[P, V]) Less(i, j int) bool {
	return s.blocks[i/blockSize][i%blockSize].priority > s.blocks[j/blockSize][j%blockSize].priority
}

// Swap swaps two elements in the stack.
func (s *sstack[P, V]) Swap(i, j int) {
	ib, io, jb, jo := i/blockSize, i%blockSize, j/blockSize, j%blockSize
	a, b := s.blocks[jb][jo], s.blocks[ib][io]
	if s.setIndex != nil {
		s.setIndex(a.value, i)
		s.setIndex(b.value, j)
	}
	s.blocks[ib][io], s.blocks[jb][jo] = a, b
}

// Reset clears the stack, effectively returning it to its initial state.
func (s *sstack[P, V]) Reset() {
	*s = *newSstack[P, V](s.setIndex)
}
