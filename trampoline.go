// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkadelivery

import (
	"context"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// promise is the engine-side half of the trampoline.  It runs on franz-go's
// goroutines, so it only queues the result; user code runs when polled.
func (h *handle[T]) promise(id Opaque) func(*kgo.Record, error) {
	return func(r *kgo.Record, err error) {
		h.events.push(event{
			id:     id,
			record: r,
			err:    err,
		})
	}
}

// poll dispatches the ready events on the calling goroutine, waiting up to
// timeout for the first one.  It returns how many events it processed,
// including those dropped for an already redeemed handle.
func (h *handle[T]) poll(ctx context.Context, timeout time.Duration) int {
	evs := h.events.wait(ctx, timeout)

	next := 0
	defer func() {
		// A panicking handler must not lose the rest of the batch.
		if next < len(evs) {
			h.events.requeue(evs[next+1:])
		}
	}()

	for _, ev := range evs {
		h.dispatch(ev)
		next++
	}
	return next
}

// drain polls without waiting until the queue is empty.
func (h *handle[T]) drain() {
	for h.events.len() > 0 {
		h.poll(context.Background(), 0)
	}
}

// dispatch is the caller-side half of the trampoline: it turns one event back
// into a typed token and invokes the handler.  Events whose handle was
// already redeemed are dropped.
func (h *handle[T]) dispatch(ev event) {
	p, ok := h.tokens.decode(ev.id)
	if !ok {
		logAt(h.logger, kgo.LogLevelWarn, "dropping delivery report with unknown opaque",
			"opaque", uint64(ev.id))
		return
	}

	rec := ev.record
	if rec == nil {
		rec = p.record
	}
	h.deliver(p, rec, ev.err)
}

// deliver reports a decoded entry.  The report borrows rec; once the handler
// and listeners return, rec goes back to the pool and the slot is released,
// even if the handler panics.
func (h *handle[T]) deliver(p pending[T], rec *kgo.Record, err error) {
	report := DeliveryReport{
		Record: rec,
		Err:    classifyDeliveryError(err),
	}
	size := recordSize(p.record)

	defer func() {
		report.Record = nil
		h.records.put(rec)
		h.release(size)
	}()

	h.handler.Delivery(&report, p.token)
	h.dispatchEvent(&report, p.sent)
}
