// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkadelivery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/xmidt-org/eventor"
)

// flushPollInterval bounds each poll while Flush waits for in-flight messages.
const flushPollInterval = 50 * time.Millisecond

// handle is the state shared by every Producer clone and the poll loop.
// It is torn down when the last reference is closed.
type handle[T any] struct {
	cfg     Config
	logger  kgo.Logger
	handler DeliveryHandler[T]

	tokens  *opaqueRegistry[T]
	events  *eventQueue
	records *recordPool

	listeners eventor.Eventor[func(*DeliveryEvent)]

	// inFlight counts messages accepted by Send whose report has not been
	// dispatched yet; inFlightBytes sums their recordSize.
	inFlight      atomic.Int64
	inFlightBytes atomic.Int64

	// refs counts open Producer references.
	refs atomic.Int64

	// mu keeps engine calls from racing with Close; closed flips once.
	mu     sync.RWMutex
	client kafkaClient
	closed bool
}

func newHandle[T any](cfg Config, handler DeliveryHandler[T], client kafkaClient) *handle[T] {
	h := &handle[T]{
		cfg:     cfg,
		logger:  cfg.Logger,
		handler: handler,
		tokens:  newOpaqueRegistry[T](),
		events:  newEventQueue(),
		records: newRecordPool(),
		client:  client,
	}
	for _, listener := range cfg.DeliveryListeners {
		h.listeners.Add(listener)
	}
	h.refs.Store(1)
	return h
}

// reserve claims an in-flight slot for a message of size bytes.  It fails
// with ErrQueueFull when QueueCapacity messages or MaxBufferedBytes bytes
// are already in flight.
func (h *handle[T]) reserve(size int64) error {
	limit := int64(h.cfg.QueueCapacity)
	for {
		n := h.inFlight.Load()
		if n >= limit {
			return errors.Join(ErrQueueFull, fmt.Errorf("%d messages in flight", n))
		}
		if h.inFlight.CompareAndSwap(n, n+1) {
			break
		}
	}

	maxBytes := int64(h.cfg.MaxBufferedBytes)
	if maxBytes <= 0 {
		h.inFlightBytes.Add(size)
		return nil
	}
	for {
		b := h.inFlightBytes.Load()
		if b+size > maxBytes {
			h.inFlight.Add(-1)
			return errors.Join(ErrQueueFull,
				fmt.Errorf("%d bytes in flight, message of %d bytes exceeds the limit of %d", b, size, maxBytes))
		}
		if h.inFlightBytes.CompareAndSwap(b, b+size) {
			return nil
		}
	}
}

// release gives back what reserve claimed.
func (h *handle[T]) release(size int64) {
	h.inFlightBytes.Add(-size)
	h.inFlight.Add(-1)
}

// acquire adds a reference unless the handle is already torn down.
func (h *handle[T]) acquire() bool {
	for {
		n := h.refs.Load()
		if n <= 0 {
			return false
		}
		if h.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// send hands the record to the engine.  Once it returns nil the engine owns
// the record and exactly one promise will follow.
func (h *handle[T]) send(rec *kgo.Record, id Opaque) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrClosed
	}

	h.client.TryProduce(rec.Context, rec, h.promise(id))
	return nil
}

// flush asks the engine to send everything buffered and polls until every
// accepted message has been reported or ctx ends.
func (h *handle[T]) flush(ctx context.Context) error {
	engineDone := make(chan error, 1)
	go func() {
		h.mu.RLock()
		defer h.mu.RUnlock()

		if h.closed {
			engineDone <- nil
			return
		}
		engineDone <- h.client.Flush(ctx)
	}()

	for h.inFlight.Load() > 0 && ctx.Err() == nil {
		h.poll(ctx, flushPollInterval)
	}

	engineErr := <-engineDone
	if n := h.inFlight.Load(); n > 0 {
		return errors.Join(
			ErrTimeout,
			fmt.Errorf("%d messages still in flight", n),
			ctx.Err(),
			engineErr,
		)
	}
	return nil
}

func (h *handle[T]) buffered() (records, bytes int64) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return 0, 0
	}
	return h.client.BufferedProduceRecords(), h.client.BufferedProduceBytes()
}

// shutdown flushes, closes the engine and reports everything still pending.
// Every token accepted by Send comes back exactly once, through the handler,
// before shutdown returns.
func (h *handle[T]) shutdown(ctx context.Context) {
	logAt(h.logger, kgo.LogLevelInfo, "closing producer, flushing buffered messages",
		"in_flight", h.inFlight.Load())

	if err := h.flush(ctx); err != nil {
		logAt(h.logger, kgo.LogLevelWarn, "flush incomplete during shutdown", "error", err.Error())
	}

	h.mu.Lock()
	h.closed = true
	h.client.Close()
	h.mu.Unlock()

	h.events.close()

	// The engine fails what it still buffered while closing; report those.
	h.drain()

	orphans := h.tokens.drain()
	if len(orphans) > 0 {
		logAt(h.logger, kgo.LogLevelWarn, "failing messages the engine never reported",
			"count", len(orphans))
	}
	for _, p := range orphans {
		h.deliver(p, p.record, kgo.ErrClientClosed)
	}

	logAt(h.logger, kgo.LogLevelInfo, "producer closed")
}
