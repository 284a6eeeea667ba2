// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkadelivery

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Infinite makes Poll wait until an event arrives or the producer closes.
const Infinite time.Duration = -1

// Producer sends messages without blocking and reports each outcome, exactly
// once, to the DeliveryHandler it was created with.
//
// Reports are only handed out by Poll (or Flush and Close, which poll).  Call
// Poll regularly, or use a PollingProducer, or reports pile up and Send
// eventually fails with ErrQueueFull.
//
// A Producer is a reference to shared state: Clone returns another reference
// to the same engine, counters and report queue.  Each reference must be
// closed; the engine shuts down when the last one is.
//
// All methods are safe for concurrent use.
type Producer[T any] struct {
	h      *handle[T]
	closed atomic.Bool
}

// New creates a producer from the configuration.  The handler receives
// every delivery report and must stay usable until the last reference is
// closed.
//
// Returns an error if the configuration is invalid or the engine cannot be
// created.
func New[T any](cfg Config, handler DeliveryHandler[T]) (*Producer[T], error) {
	return newProducer(cfg, handler, defaultClientFactory)
}

// NewNop creates a producer that ignores delivery reports.
func NewNop(cfg Config) (*Producer[struct{}], error) {
	return New[struct{}](cfg, NopDelivery{})
}

func newProducer[T any](cfg Config, handler DeliveryHandler[T], factory clientFactory) (*Producer[T], error) {
	if handler == nil {
		return nil, errors.Join(ErrValidation, fmt.Errorf("delivery handler is required"))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	client, err := factory(cfg.toKgoOpts()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}

	logAt(cfg.Logger, kgo.LogLevelInfo, "producer started",
		"queue_capacity", cfg.QueueCapacity)

	return &Producer[T]{
		h: newHandle(cfg, handler, client),
	}, nil
}

// Send queues a message for delivery and returns immediately.
//
// A nil error means the message was accepted: its outcome will reach the
// handler, with token, exactly once.  A non-nil error is a *SendError[T]
// holding the token; the message was never accepted and no report will
// follow.  The error matches ErrInvalidArgument, ErrMessageTooLarge,
// ErrQueueFull (QueueCapacity messages or MaxBufferedBytes bytes in flight)
// or ErrClosed.
func (p *Producer[T]) Send(msg *Message, token T) error {
	if p.closed.Load() {
		return &SendError[T]{Token: token, Err: ErrClosed}
	}

	h := p.h
	if err := msg.validate(h.cfg.MaxMessageBytes); err != nil {
		return &SendError[T]{Token: token, Err: err}
	}

	rec := h.records.get(msg)
	size := recordSize(rec)
	if err := h.reserve(size); err != nil {
		h.records.put(rec)
		return &SendError[T]{Token: token, Err: err}
	}

	id := h.tokens.encode(token, rec)

	if err := h.send(rec, id); err != nil {
		// The engine never took the record, so take the token back here.
		back, _ := h.tokens.decode(id)
		h.records.put(rec)
		h.release(size)
		return &SendError[T]{Token: back.token, Err: err}
	}

	return nil
}

// Poll hands every ready delivery report to the handler, on the calling
// goroutine, and returns how many engine events it processed.  An event for
// a message that was already reported is counted but dropped.  Poll waits up
// to timeout for the first event: zero never blocks, Infinite waits until
// one arrives or the producer is closed.
//
// Polling any clone drains the queue shared by all of them.
func (p *Producer[T]) Poll(timeout time.Duration) int {
	if p.closed.Load() {
		return 0
	}
	return p.h.poll(context.Background(), timeout)
}

// Flush sends everything buffered and polls until every accepted message has
// been reported or ctx ends.  It does not cancel anything; messages still in
// flight when ctx ends keep going and are reported by later polls.
//
// Returns an error matching ErrTimeout if messages remain in flight.
func (p *Producer[T]) Flush(ctx context.Context) error {
	if p.closed.Load() {
		return ErrClosed
	}
	return p.h.flush(ctx)
}

// InFlight returns the number of accepted messages whose report has not been
// handled yet.  It only grows through Send.
func (p *Producer[T]) InFlight() int {
	return int(p.h.inFlight.Load())
}

// Buffered returns the records and bytes the engine currently buffers.
// Returns zeros once the engine is closed.
func (p *Producer[T]) Buffered() (records, bytes int64) {
	return p.h.buffered()
}

// Clone returns a new reference to the same producer.  It must be closed
// independently.  Cloning a closed reference returns a closed reference.
func (p *Producer[T]) Clone() *Producer[T] {
	c := &Producer[T]{h: p.h}
	if p.closed.Load() || !p.h.acquire() {
		c.closed.Store(true)
	}
	return c
}

// Close releases this reference.  Safe to call multiple times.
//
// Closing the last reference flushes (bounded by ctx, or by CleanupTimeout
// when ctx has no deadline), closes the engine, and reports every message
// still pending, as a failure if it never completed, before returning.
func (p *Producer[T]) Close(ctx context.Context) {
	if p.closed.Swap(true) {
		return
	}
	if p.h.refs.Add(-1) > 0 {
		return
	}

	// Apply CleanupTimeout only if the context doesn't already have a deadline.
	if timeout := p.h.cfg.CleanupTimeout; timeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
	}

	p.h.shutdown(ctx)
}
