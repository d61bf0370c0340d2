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

package cuckoo

import "hash/maphash"

// option provide an interface to do work on Set while it is being created.
type option[T comparable] interface {
	apply(s *Set[T])
}

type hashOption[T comparable] struct {
	hash hashFn[T]
}

func (op hashOption[T]) apply(s *Set[T]) {
	s.hash = op.hash
}

// WithHash is an option to specify the hash function to use for a Set[T].
// The function is applied with each bucket group's seed in turn, so it must
// be deterministic for a given seed and element, and equal elements must
// hash identically. By default a Set uses maphash.Comparable.
func WithHash[T comparable](hash func(seed maphash.Seed, v T) uint64) option[T] {
	return hashOption[T]{hash}
}
