// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkadelivery

import (
	"context"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// event is one finalized message waiting to be polled.
type event struct {
	id     Opaque
	record *kgo.Record
	err    error
}

// eventQueue buffers promise results between the engine's goroutines and
// whoever polls.  take hands each event to exactly one caller.
type eventQueue struct {
	mu     sync.Mutex
	events []event

	// ready holds at most one wakeup.  A stale wakeup is harmless: waiters
	// re-check the slice.
	ready chan struct{}

	// closed is closed when the producer shuts down to release blocked pollers.
	closed    chan struct{}
	closeOnce sync.Once
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		ready:  make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (q *eventQueue) push(ev event) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *eventQueue) take() []event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = nil
	return out
}

// requeue puts events back at the front of the queue, ahead of anything that
// arrived since they were taken.
func (q *eventQueue) requeue(evs []event) {
	if len(evs) == 0 {
		return
	}

	q.mu.Lock()
	q.events = append(append(make([]event, 0, len(evs)+len(q.events)), evs...), q.events...)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// wait takes the ready events, waiting up to timeout for the first one.
// A zero timeout never blocks; a negative one waits until an event arrives,
// ctx ends, or the queue is closed.
func (q *eventQueue) wait(ctx context.Context, timeout time.Duration) []event {
	if evs := q.take(); len(evs) > 0 || timeout == 0 {
		return evs
	}

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	for {
		select {
		case <-q.ready:
		case <-expired:
			return q.take()
		case <-ctx.Done():
			return q.take()
		case <-q.closed:
			return q.take()
		}

		if evs := q.take(); len(evs) > 0 {
			return evs
		}
	}
}

// isClosed reports whether the producer has shut down.  Waits on a closed
// queue return at once.
func (q *eventQueue) isClosed() bool {
	select {
	case <-q.closed:
		return true
	default:
		return false
	}
}

func (q *eventQueue) close() {
	q.closeOnce.Do(func() {
		close(q.closed)
	})
}
