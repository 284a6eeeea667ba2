// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkadelivery

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Opaque is the untyped handle that travels through the engine in place of a
// delivery token.  Handles are never reused within a producer.
type Opaque uint64

// pending is what an Opaque stands for while its message is in flight.
type pending[T any] struct {
	token  T
	record *kgo.Record
	sent   time.Time
}

// opaqueRegistry converts typed tokens into opaque handles and back.
//
// encode takes ownership of the token; decode hands it back and forgets the
// handle in the same critical section, so a handle decodes at most once no
// matter how many goroutines race on it.
type opaqueRegistry[T any] struct {
	next atomic.Uint64

	mu      sync.Mutex
	entries map[Opaque]pending[T]
}

func newOpaqueRegistry[T any]() *opaqueRegistry[T] {
	return &opaqueRegistry[T]{
		entries: make(map[Opaque]pending[T]),
	}
}

// encode registers the token for the record and returns its handle.
func (r *opaqueRegistry[T]) encode(token T, rec *kgo.Record) Opaque {
	id := Opaque(r.next.Add(1))

	r.mu.Lock()
	r.entries[id] = pending[T]{
		token:  token,
		record: rec,
		sent:   time.Now(),
	}
	r.mu.Unlock()

	return id
}

// decode returns the entry for the handle and removes it.  The second and
// later calls for the same handle report false.
func (r *opaqueRegistry[T]) decode(id Opaque) (pending[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	return p, ok
}

// drain removes every outstanding entry.  Only used at final teardown, when
// the engine is gone and no promise can arrive for them any more.
func (r *opaqueRegistry[T]) drain() map[Opaque]pending[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.entries
	r.entries = make(map[Opaque]pending[T])
	return out
}

func (r *opaqueRegistry[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
