// Copyright 2026 The Cockroach Authors
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

// Package cuckoo is a Go implementation of a set using cuckoo hashing. See
// https://en.wikipedia.org/wiki/Cuckoo_hashing.
//
// # Cuckoo hashing
//
// Cuckoo hashing is an open-addressing scheme that stores elements in two
// parallel slot arrays ("bucket groups"), each indexed by its own hash
// function. An element x has exactly two candidate slots: hash1(x) in group
// 0 and hash2(x) in group 1. Lookup and removal therefore probe at most two
// slots, giving O(1) worst-case cost rather than the expected-case O(1) of
// chained or linearly probed tables.
//
// Insertion is where the scheme earns its name. If both candidate slots for
// a new element are occupied, the new element kicks the group-0 occupant out
// of its nest and takes the slot. The displaced element moves to its own
// candidate slot in group 1, displacing again if that slot is taken, and so
// on. The walk usually terminates quickly: with two groups at less than half
// load the displacement chain finds an empty slot after a handful of hops.
// If the chain cycles, the walk gives up after a fixed bound and the table
// doubles in capacity and rehashes, which breaks the cycle by halving the
// load factor.
//
// The two hash functions are seeded randomly for every Set instance, so
// slot placement differs between instances even for identical insertion
// sequences. A given instance keeps its seeds for life; resizing changes
// only the capacity mask applied to the raw hashes.
//
// A Set is NOT goroutine-safe.
package cuckoo

import (
	"fmt"
	"hash/maphash"
	"strings"
)

const (
	debug = false

	// initialCapacity is the per-group slot count of a new Set. Capacity is
	// always a power of two so that slot indexes can be computed by masking
	// the hash rather than dividing.
	initialCapacity = 16

	// maxEvictions bounds the displacement walk during insertion. The bound
	// exists purely to guarantee termination: a walk that runs this long has
	// almost certainly entered a cycle, and the table grows instead.
	maxEvictions = 100

	// defaultMaxLoadFactor is carried on the Set for observability but does
	// not trigger resizing; the table grows only when a displacement walk
	// exhausts its bound.
	defaultMaxLoadFactor = 0.2
)

// hashFn is the hash strategy shared by both bucket groups. Each group
// applies it with its own seed.
type hashFn[T comparable] func(seed maphash.Seed, v T) uint64

// slot is one position within a bucket group: an element plus an occupancy
// flag.
type slot[T comparable] struct {
	elem T
	full bool
}

// Set is an unordered set of comparable elements with Insert, Remove, and
// Contains operations, implemented with cuckoo hashing. Every element
// occupies one of exactly two candidate slots, so Contains and Remove probe
// at most two locations. By default a Set hashes with hash/maphash; a
// different hash strategy can be specified using the WithHash option.
//
// A Set is NOT goroutine-safe. Callers sharing a Set across goroutines must
// provide their own exclusive locking.
type Set[T comparable] struct {
	// groups are the two bucket arrays. They always have equal power-of-two
	// length. A present element x is at slot hash1(x) of groups[0] or slot
	// hash2(x) of groups[1], never both.
	groups [2][]slot[T]
	// seeds are the per-instance random seeds of the two hash functions.
	// They are drawn at construction and reused unchanged across resizes,
	// so an element's raw hashes are stable for the lifetime of the Set.
	seeds [2]maphash.Seed
	hash  hashFn[T]
	// used is the number of occupied slots across both groups.
	used int
	// maxLoadFactor is informational. Resizing is reactive: it happens when
	// a displacement walk exhausts its bound, not when load crosses this
	// threshold.
	maxLoadFactor float64
}

// New constructs an empty Set with a capacity of 16 slots per bucket group.
// The two hash functions are freshly seeded on every call, so slot
// placement is not reproducible across Set instances; this guards against
// adversarially chosen element sequences.
func New[T comparable](options ...option[T]) *Set[T] {
	s := &Set[T]{
		seeds:         [2]maphash.Seed{maphash.MakeSeed(), maphash.MakeSeed()},
		hash:          maphash.Comparable[T],
		maxLoadFactor: defaultMaxLoadFactor,
	}
	s.groups[0] = make([]slot[T], initialCapacity)
	s.groups[1] = make([]slot[T], initialCapacity)

	for _, op := range options {
		op.apply(s)
	}
	return s
}

// Contains returns true if v is present in the set. It probes exactly the
// two candidate slots for v and has no side effects.
func (s *Set[T]) Contains(v T) bool {
	if sl := &s.groups[0][s.slotIndex(0, v)]; sl.full && sl.elem == v {
		return true
	}
	sl := &s.groups[1][s.slotIndex(1, v)]
	return sl.full && sl.elem == v
}

// Insert adds v to the set, returning true if v was newly added and false
// if it was already present. A false return leaves the set unchanged.
//
// Insertion may displace existing elements to their alternate candidate
// slot, and may grow the table if the displacement chain cannot be
// resolved, but membership of previously inserted elements is never
// affected.
func (s *Set[T]) Insert(v T) bool {
	// Checking membership up front costs two extra probes but keeps set
	// semantics: a duplicate insert must not mutate the table.
	if s.Contains(v) {
		return false
	}

	if i := s.slotIndex(0, v); !s.groups[0][i].full {
		s.setSlot(0, i, v)
		return true
	}
	if i := s.slotIndex(1, v); !s.groups[1][i].full {
		s.setSlot(1, i, v)
		return true
	}

	// Both candidate slots are taken. Walk the displacement chain: the new
	// element kicks the group-0 occupant out of its slot, the displaced
	// element moves to its group-1 slot if that one is empty, and otherwise
	// the displaced element restarts the walk at group 0.
	current := v
	for i := 0; i < maxEvictions; i++ {
		j := s.slotIndex(0, current)
		if !s.groups[0][j].full {
			s.setSlot(0, j, current)
			return true
		}
		current = s.displace(0, j, current)

		j = s.slotIndex(1, current)
		if !s.groups[1][j].full {
			s.setSlot(1, j, current)
			return true
		}
	}

	// The walk exhausted its bound, which means the displacement chain has
	// almost certainly cycled. Grow the table and re-insert the element
	// left in hand; everything else placed during the walk is live in the
	// groups and is carried over by the rehash. The re-insert runs the full
	// algorithm and can in principle grow the table again.
	s.resizeAndRehash()
	s.Insert(current)
	return true
}

// Remove deletes v from the set, returning true if v was present. Removal
// never resizes the table.
func (s *Set[T]) Remove(v T) bool {
	if sl := &s.groups[0][s.slotIndex(0, v)]; sl.full && sl.elem == v {
		*sl = slot[T]{}
		s.used--
		s.checkInvariants()
		return true
	}
	if sl := &s.groups[1][s.slotIndex(1, v)]; sl.full && sl.elem == v {
		*sl = slot[T]{}
		s.used--
		s.checkInvariants()
		return true
	}
	return false
}

// Len returns the number of elements in the set.
func (s *Set[T]) Len() int {
	return s.used
}

// LoadFactor returns the fraction of slots currently occupied across both
// bucket groups.
func (s *Set[T]) LoadFactor() float64 {
	return float64(s.used) / float64(2*len(s.groups[0]))
}

// All calls yield sequentially for each element present in the set. If
// yield returns false, iteration stops. The iteration order is unspecified
// and differs between Set instances. The set must not be mutated during
// iteration.
func (s *Set[T]) All(yield func(v T) bool) {
	for g := range s.groups {
		for i := range s.groups[g] {
			if sl := &s.groups[g][i]; sl.full {
				if !yield(sl.elem) {
					return
				}
			}
		}
	}
}

// Clear removes all elements from the set. The current capacity is
// retained.
func (s *Set[T]) Clear() {
	for g := range s.groups {
		clear(s.groups[g])
	}
	s.used = 0
	s.checkInvariants()
}

// slotIndex returns the candidate slot index for v within the given bucket
// group. The group length is a power of two, so masking by length-1 is
// equivalent to reducing the raw hash modulo the length. The result is
// stable for a given element and capacity.
func (s *Set[T]) slotIndex(group int, v T) uint64 {
	return s.hash(s.seeds[group], v) & uint64(len(s.groups[group])-1)
}

// setSlot fills an empty slot and bumps the element count.
func (s *Set[T]) setSlot(group int, i uint64, v T) {
	s.groups[group][i] = slot[T]{elem: v, full: true}
	s.used++
	s.checkInvariants()
}

// displace stores v into the given slot and returns the previous occupant.
// The slot must be occupied: the displacement walk only swaps after a
// failed empty check, so finding the slot empty here means the table state
// is corrupt.
func (s *Set[T]) displace(group int, i uint64, v T) T {
	sl := &s.groups[group][i]
	if !sl.full {
		panic(fmt.Sprintf("displacing empty slot %d of group %d\n%s",
			i, group, s.debugString()))
	}
	prev := sl.elem
	sl.elem = v
	return prev
}

// resizeAndRehash doubles the capacity of both bucket groups and reinserts
// every live element, then replaces the receiver's state wholesale. The
// hash seeds are reused: only the capacity mask changes, so elements land
// at new indexes without their raw hashes changing. Reinsertion runs the
// full insert algorithm, so a resize can nest another resize if the drained
// elements still cannot settle; each doubling halves the load factor, so
// the nesting terminates for any hash pair that eventually separates the
// elements.
func (s *Set[T]) resizeAndRehash() {
	resized := Set[T]{
		seeds:         s.seeds,
		hash:          s.hash,
		maxLoadFactor: s.maxLoadFactor,
	}
	newCapacity := 2 * len(s.groups[0])
	resized.groups[0] = make([]slot[T], newCapacity)
	resized.groups[1] = make([]slot[T], newCapacity)

	for g := range s.groups {
		for i := range s.groups[g] {
			if sl := &s.groups[g][i]; sl.full {
				resized.Insert(sl.elem)
			}
		}
	}
	*s = resized
	s.checkInvariants()
}

// capacity returns the per-group slot count.
func (s *Set[T]) capacity() int {
	return len(s.groups[0])
}

func (s *Set[T]) checkInvariants() {
	if debug {
		s.validateInvariants()
	}
}

// validateInvariants panics if the structural invariants do not hold: the
// groups have equal power-of-two length, every occupied slot holds its
// element at that element's candidate index, no element is present in both
// groups, and used matches the occupied-slot count.
func (s *Set[T]) validateInvariants() {
	if len(s.groups[0]) != len(s.groups[1]) {
		panic(fmt.Sprintf("invariant failed: group lengths differ: %d vs %d",
			len(s.groups[0]), len(s.groups[1])))
	}
	if c := len(s.groups[0]); c < initialCapacity || c&(c-1) != 0 {
		panic(fmt.Sprintf("invariant failed: capacity %d is not a power of two >= %d",
			c, initialCapacity))
	}

	var used int
	for g := range s.groups {
		for i := range s.groups[g] {
			sl := &s.groups[g][i]
			if !sl.full {
				continue
			}
			used++
			if j := s.slotIndex(g, sl.elem); j != uint64(i) {
				panic(fmt.Sprintf("invariant failed: %v stored at slot %d of group %d, but hashes to slot %d\n%s",
					sl.elem, i, g, j, s.debugString()))
			}
		}
	}
	for i := range s.groups[0] {
		sl := &s.groups[0][i]
		if !sl.full {
			continue
		}
		if other := &s.groups[1][s.slotIndex(1, sl.elem)]; other.full && other.elem == sl.elem {
			panic(fmt.Sprintf("invariant failed: %v present in both groups\n%s",
				sl.elem, s.debugString()))
		}
	}
	if used != s.used {
		panic(fmt.Sprintf("invariant failed: found %d occupied slots, but size is %d\n%s",
			used, s.used, s.debugString()))
	}
}

func (s *Set[T]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  used=%d\n", s.capacity(), s.used)
	for g := range s.groups {
		fmt.Fprintf(&buf, "group %d:\n", g)
		for i := range s.groups[g] {
			if sl := &s.groups[g][i]; sl.full {
				fmt.Fprintf(&buf, "  %4d: %v\n", i, sl.elem)
			}
		}
	}
	return buf.String()
}
