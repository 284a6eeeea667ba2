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

// LoopState is the lifecycle of a PollingProducer's poll loop.  It only
// moves forward.
type LoopState int32

const (
	// NotStarted is the state before the loop goroutine is launched.
	NotStarted LoopState = iota

	// Running means the loop is polling.
	Running

	// StopRequested means Stop was called; the loop drains and exits.
	StopRequested

	// Stopped means the loop goroutine has exited.
	Stopped
)

// String returns the string representation of the LoopState.
func (s LoopState) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Running:
		return "Running"
	case StopRequested:
		return "StopRequested"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// PollingProducer is a Producer with a goroutine that polls it, so delivery
// reports reach the handler without the caller ever calling Poll.  Send,
// Poll, Flush, InFlight, Buffered and Clone are the embedded Producer's.
//
// Close (or Stop) must be called to end the goroutine.  A stopped
// PollingProducer cannot be restarted.
type PollingProducer[T any] struct {
	*Producer[T]

	interval time.Duration
	state    atomic.Int32

	// wake cuts the current poll short when Stop is called.
	wake   context.Context
	cancel context.CancelFunc

	// done is closed when the loop exits; err is set before that.
	done chan struct{}
	err  error
}

// NewPolling creates a producer and starts polling it every PollInterval.
func NewPolling[T any](cfg Config, handler DeliveryHandler[T]) (*PollingProducer[T], error) {
	p, err := New(cfg, handler)
	if err != nil {
		return nil, err
	}
	return StartPolling(p, p.h.cfg.PollInterval), nil
}

// StartPolling starts a poll loop over p and takes over p: closing the
// returned PollingProducer closes p.  Each poll waits up to interval
// (DefaultPollInterval if not positive).
//
// No loop is started for a closed p; the result is already Stopped.
func StartPolling[T any](p *Producer[T], interval time.Duration) *PollingProducer[T] {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	wake, cancel := context.WithCancel(context.Background())
	pp := &PollingProducer[T]{
		Producer: p,
		interval: interval,
		wake:     wake,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	if p.closed.Load() {
		cancel()
		pp.state.Store(int32(Stopped))
		close(pp.done)
		return pp
	}

	if pp.state.CompareAndSwap(int32(NotStarted), int32(Running)) {
		go pp.run()
	}
	return pp
}

// State returns the current loop state.
func (pp *PollingProducer[T]) State() LoopState {
	return LoopState(pp.state.Load())
}

// run polls until a stop has been requested and a poll comes back empty, or
// until the producer shuts down underneath it.  Checking for the stop only
// after an idle poll means a burst of reports is fully handled before the
// loop honors the request.
func (pp *PollingProducer[T]) run() {
	h := pp.h
	defer close(pp.done)
	defer func() {
		if r := recover(); r != nil {
			pp.err = errors.Join(ErrPollerFailed, fmt.Errorf("delivery handler panicked: %v", r))
			logAt(h.logger, kgo.LogLevelError, "poll loop terminated by panic", "panic", fmt.Sprint(r))
		}
		pp.state.Store(int32(Stopped))
		logAt(h.logger, kgo.LogLevelDebug, "poll loop terminated")
	}()

	logAt(h.logger, kgo.LogLevelDebug, "poll loop started", "interval", pp.interval.String())
	for {
		n := h.poll(pp.wake, pp.interval)
		if n > 0 {
			logAt(h.logger, kgo.LogLevelDebug, "handled delivery reports", "count", n)
			continue
		}

		if pp.State() == StopRequested || h.events.isClosed() {
			// A report can land between the idle poll and the state check;
			// one last non-blocking pass picks it up.
			h.drain()
			return
		}
	}
}

// Stop asks the loop to finish and waits until it has exited.  The loop
// first handles every report already queued.  After Stop returns nil no
// further report is handled unless the caller polls.
//
// Returns an error matching ErrPollerFailed if the loop died from a
// panicking handler, or if ctx ended first; in the latter case the loop
// still exits on its own.
func (pp *PollingProducer[T]) Stop(ctx context.Context) error {
	if pp.state.CompareAndSwap(int32(Running), int32(StopRequested)) {
		logAt(pp.h.logger, kgo.LogLevelDebug, "stopping poll loop")
		pp.cancel()
	}

	select {
	case <-pp.done:
		return pp.err
	case <-ctx.Done():
		return errors.Join(ErrPollerFailed, fmt.Errorf("waiting for poll loop: %w", ctx.Err()))
	}
}

// Close stops the loop and closes the producer reference.  A loop that does
// not stop cleanly is logged, never returned.  Safe to call multiple times.
//
// Close always waits for the loop to exit, even past the end of ctx, so no
// report reaches the handler from the loop once Close returns.  ctx still
// bounds the flush of the last reference.
func (pp *PollingProducer[T]) Close(ctx context.Context) {
	if err := pp.Stop(ctx); err != nil {
		logAt(pp.h.logger, kgo.LogLevelWarn, "poll loop did not stop cleanly", "error", err.Error())
		<-pp.done
	}
	pp.Producer.Close(ctx)
}
