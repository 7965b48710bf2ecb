// Copyright 2025 Blink Labs Software
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

package registry

import (
	"github.com/ethereum/go-ethereum/common"
)

// Entry is a keyed value stored in a registry
type Entry[V any] struct {
	Key   common.Address
	Value V
}

// Registry is an address-keyed arena supporting O(1) insert, update, lookup
// and delete while keeping all entries enumerable. Deletion moves the last
// entry into the freed slot, so iteration order is insertion order only until
// the first non-tail delete.
type Registry[V any] struct {
	entries []Entry[V]
	index   map[common.Address]int
	copyFn  func(V) V
}

// New creates an empty registry. The optional copyFn is used to deep copy
// values in Clone and Entries.
func New[V any](copyFn func(V) V) *Registry[V] {
	if copyFn == nil {
		copyFn = func(v V) V { return v }
	}
	return &Registry[V]{
		index:  make(map[common.Address]int),
		copyFn: copyFn,
	}
}

// Upsert inserts or replaces the value for key and reports whether the key
// was newly added
func (r *Registry[V]) Upsert(key common.Address, value V) bool {
	if idx, ok := r.index[key]; ok {
		r.entries[idx].Value = value
		return false
	}
	r.index[key] = len(r.entries)
	r.entries = append(r.entries, Entry[V]{Key: key, Value: value})
	return true
}

// Delete removes key. When the removed entry was not the last one, the last
// entry takes its slot and its key is returned with moved set to true.
func (r *Registry[V]) Delete(key common.Address) (movedKey common.Address, moved bool, found bool) {
	idx, ok := r.index[key]
	if !ok {
		return common.Address{}, false, false
	}
	lastIdx := len(r.entries) - 1
	if idx != lastIdx {
		last := r.entries[lastIdx]
		r.entries[idx] = last
		r.index[last.Key] = idx
		movedKey = last.Key
		moved = true
	}
	// Clear the vacated tail slot so the value can be collected
	r.entries[lastIdx] = Entry[V]{}
	r.entries = r.entries[:lastIdx]
	delete(r.index, key)
	return movedKey, moved, true
}

func (r *Registry[V]) Get(key common.Address) (V, bool) {
	idx, ok := r.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return r.copyFn(r.entries[idx].Value), true
}

func (r *Registry[V]) Has(key common.Address) bool {
	_, ok := r.index[key]
	return ok
}

func (r *Registry[V]) Len() int {
	return len(r.entries)
}

// Keys returns the keys in arena order
func (r *Registry[V]) Keys() []common.Address {
	ret := make([]common.Address, 0, len(r.entries))
	for _, entry := range r.entries {
		ret = append(ret, entry.Key)
	}
	return ret
}

// Entries returns copies of all entries in arena order
func (r *Registry[V]) Entries() []Entry[V] {
	ret := make([]Entry[V], 0, len(r.entries))
	for _, entry := range r.entries {
		ret = append(
			ret,
			Entry[V]{Key: entry.Key, Value: r.copyFn(entry.Value)},
		)
	}
	return ret
}

// Clone returns an independent copy of the registry that preserves arena order
func (r *Registry[V]) Clone() *Registry[V] {
	ret := &Registry[V]{
		entries: r.Entries(),
		index:   make(map[common.Address]int, len(r.index)),
		copyFn:  r.copyFn,
	}
	for k, v := range r.index {
		ret.index[k] = v
	}
	return ret
}
