// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ring implements a fixed-capacity, single-producer/single-consumer
// lock-free queue. Every lane of the ATLAS bus is one instance.
//
// Capacity must be a power of two: index projection is a bit-mask rather than
// a modulo, and pressure (len/capacity) is exactly representable at the
// empty and full boundaries.
//
// Ring is SPSC by contract, not by runtime check: a single goroutine may call
// Push, and a single (possibly different) goroutine may call Pop, Len,
// Pressure, and IsEmpty concurrently with Push. Clear is consumer-side too but
// must not run concurrently with Push. Callers that need
// multiple producers must serialize their own Push calls (an outer mutex, or
// one Ring per producer).
package ring

import "sync/atomic"

// Ring is a bounded circular buffer. The zero value is not usable; construct
// with New.
type Ring[T any] struct {
	data []T
	mask uint64

	// head/tail are full-width monotonic counters; only their low bits are
	// used to index data. No ABA is possible: wrap only happens in the index
	// projection, never in the counters themselves.
	head atomic.Uint64
	_    [56]byte // padding: separate head's cache line from tail's
	tail atomic.Uint64
	_    [56]byte
}

// New allocates a Ring with the given capacity, which must be a power of two
// and at least 1. It panics otherwise, mirroring the constructor contract of
// every lock-free ring in the reference pack.
func New[T any](capacity int) *Ring[T] {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		panic("ring: capacity must be a power of two")
	}
	return &Ring[T]{
		data: make([]T, capacity),
		mask: uint64(capacity) - 1,
	}
}

// Push enqueues an item. It returns false without blocking if the ring is
// full; the caller decides whether to retry, drop, or escalate.
func (r *Ring[T]) Push(v T) bool {
	head := r.head.Load() // acquire: observe consumer progress
	tail := r.tail.Load()
	if tail-head >= uint64(len(r.data)) {
		return false
	}
	r.data[tail&r.mask] = v
	r.tail.Store(tail + 1) // release: publish the new slot
	return true
}

// Pop dequeues the oldest item. The second return value is false if the ring
// is empty; this is a normal condition, not an error.
func (r *Ring[T]) Pop() (T, bool) {
	head := r.head.Load()
	tail := r.tail.Load() // acquire: observe producer progress
	if head >= tail {
		var zero T
		return zero, false
	}
	v := r.data[head&r.mask]
	var zero T
	r.data[head&r.mask] = zero // drop the reference so Clear-adjacent GC isn't pinned
	r.head.Store(head + 1)     // release: publish the freed slot
	return v, true
}

// Len returns the current occupancy. Under concurrent Push/Pop this is a
// snapshot and may be stale by the time the caller observes it.
func (r *Ring[T]) Len() int {
	head := r.head.Load()
	tail := r.tail.Load()
	return int(tail - head)
}

// Capacity returns the fixed capacity supplied to New.
func (r *Ring[T]) Capacity() int {
	return len(r.data)
}

// IsEmpty reports whether the ring currently holds no items.
func (r *Ring[T]) IsEmpty() bool {
	return r.Len() == 0
}

// Pressure returns occupancy as a fraction of capacity, clamped to [0, 1].
// At len == 0 this is exactly 0.0; at len == capacity it is exactly 1.0.
func (r *Ring[T]) Pressure() float32 {
	l := r.Len()
	if l <= 0 {
		return 0
	}
	cap := len(r.data)
	if l >= cap {
		return 1
	}
	return float32(l) / float32(cap)
}

// Clear drops all contained items. Consumer-side only: callers must not Push
// concurrently with Clear.
func (r *Ring[T]) Clear() {
	var zero T
	for i := range r.data {
		r.data[i] = zero
	}
	r.head.Store(0)
	r.tail.Store(0)
}
