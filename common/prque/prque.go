// CookieJar - A contestant's algorithm toolbox
// Copyright (c) 2013 Peter Szilagyi. All rights reserved.
//
// CookieJar is dual licensed: use of this source code is governed by a BSD
// license that can be found in the LICENSE file. Alternatively, the CookieJar
// toolbox may be used in accordance with the terms and conditions contained
// in a signed written agreement between you and the author(s).

// Package prque provides a priority queue data structure supporting arbitrary
// value types and any ordered priority type.
package prque

import (
	"cmp"
	"container/heap"
)

// Prque is a priority queue data structure, supporting any value type and a
// user-supplied ordered priority. Lower-ranked priorities pop first is not
// assumed: the highest priority value is always popped first.
type Prque[P cmp.Ordered, V any] struct {
	cont *sstack[P, V]
}

// New creates a new priority queue. setIndex, if non-nil, is invoked every
// time a value's position in the internal heap changes, letting the caller
// maintain an O(1) index -> value lookup for out-of-order removal.
func New[P cmp.Ordered, V any](setIndex SetIndexCallback[V]) *Prque[P, V] {
	return &Prque[P, V]{newSstack[P, V](setIndex)}
}

// Push adds a value to the queue, ranked by the given priority.
func (p *Prque[P, V]) Push(data V, priority P) {
	heap.Push(p.cont, &item[P, V]{data, priority})
}

// Peek returns the value with the highest priority without removing it.
func (p *Prque[P, V]) Peek() (V, P) {
	it := p.cont.blocks[0][0]
	return it.value, it.priority
}

// Pop removes and returns the value with the highest priority.
func (p *Prque[P, V]) Pop() (V, P) {
	it := heap.Pop(p.cont).(*item[P, V])
	return it.value, it.priority
}

// PopItem pops the value with the highest priority, dropping the priority.
func (p *Prque[P, V]) PopItem() V {
	return heap.Pop(p.cont).(*item[P, V]).value
}

// Remove removes the element at index i from the queue, re-heapifying as
// needed. The index matches whatever was last reported through the
// SetIndexCallback passed to New.
func (p *Prque[P, V]) Remove(i int) V {
	return heap.Remove(p.cont, i).(*item[P, V]).value
}

// Empty checks whether the queue has no elements.
func (p *Prque[P, V]) Empty() bool {
	return p.cont.Len() == 0
}

// Size returns the number of elements in the queue.
func (p *Prque[P, V]) Size() int {
	return p.cont.Len()
}

// Reset clears the queue, dropping every element.
func (p *Prque[P, V]) Reset() {
	*p.cont = *newSstack[P, V](p.cont.setIndex)
}
