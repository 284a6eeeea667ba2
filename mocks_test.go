// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkadelivery

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

// mockKafkaClient is a mock implementation of kafkaClient for testing.
type mockKafkaClient struct {
	mock.Mock
}

func (m *mockKafkaClient) TryProduce(ctx context.Context, r *kgo.Record, cb func(*kgo.Record, error)) {
	m.Called(ctx, r, cb)
}

func (m *mockKafkaClient) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockKafkaClient) Close() {
	m.Called()
}

func (m *mockKafkaClient) BufferedProduceRecords() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

func (m *mockKafkaClient) BufferedProduceBytes() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

// fakeSend is one record the fake engine has buffered.
type fakeSend struct {
	record  *kgo.Record
	promise func(*kgo.Record, error)
}

// fakeClient buffers records until a test completes them.  Promises always
// run on a goroutine of their own, the way franz-go calls them.
type fakeClient struct {
	mu      sync.Mutex
	sends   []fakeSend
	offset  int64
	closed  bool
	flushes int

	// flushCtx is the context of the latest Flush call.
	flushCtx context.Context

	// holdFlush makes Flush wait for its context instead of completing.
	holdFlush bool

	// leaky makes Close drop buffered records without calling their promises.
	leaky bool
}

func (f *fakeClient) TryProduce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, fakeSend{record: r, promise: promise})
}

// complete finalizes every buffered record with err and waits until all the
// promises have run.  Successful records are assigned partition 0 and
// increasing offsets.
func (f *fakeClient) complete(err error) int {
	return f.completeWith(func(*kgo.Record) error { return err })
}

// completeWith finalizes every buffered record with the error fn picks.
func (f *fakeClient) completeWith(fn func(*kgo.Record) error) int {
	f.mu.Lock()
	sends := f.sends
	f.sends = nil
	for _, s := range sends {
		if fn(s.record) == nil {
			s.record.Offset = f.offset
			f.offset++
		}
	}
	f.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, s := range sends {
			s.promise(s.record, fn(s.record))
		}
	}()
	wg.Wait()
	return len(sends)
}

func (f *fakeClient) Flush(ctx context.Context) error {
	f.mu.Lock()
	f.flushes++
	f.flushCtx = ctx
	hold := f.holdFlush
	f.mu.Unlock()

	if hold {
		<-ctx.Done()
		return ctx.Err()
	}
	f.complete(nil)
	return nil
}

func (f *fakeClient) Close() {
	f.mu.Lock()
	f.closed = true
	leaky := f.leaky
	if leaky {
		f.sends = nil
	}
	f.mu.Unlock()

	if !leaky {
		f.complete(kgo.ErrClientClosed)
	}
}

func (f *fakeClient) BufferedProduceRecords() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.sends))
}

func (f *fakeClient) BufferedProduceBytes() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.sends {
		n += int64(len(s.record.Key) + len(s.record.Value))
	}
	return n
}

func (f *fakeClient) pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func (f *fakeClient) lastFlush() context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushCtx
}

func (f *fakeClient) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// newTestProducer creates a Producer over a fakeClient.
func newTestProducer[T any](t *testing.T, cfg Config, handler DeliveryHandler[T]) (*Producer[T], *fakeClient) {
	t.Helper()
	if len(cfg.Brokers) == 0 {
		cfg.Brokers = []string{"localhost:9092"}
	}

	fc := &fakeClient{}
	p, err := newProducer(cfg, handler, func(...kgo.Opt) (kafkaClient, error) {
		return fc, nil
	})
	require.NoError(t, err)
	return p, fc
}

// delivered is one report captured by a recorder.
type delivered[T any] struct {
	token  T
	report DeliveryReport
}

// recorder keeps a copy of every report it is handed.
type recorder[T any] struct {
	mu  sync.Mutex
	got []delivered[T]
}

func (r *recorder[T]) Delivery(report *DeliveryReport, token T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, delivered[T]{token: token, report: report.Copy()})
}

func (r *recorder[T]) all() []delivered[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivered[T]{}, r.got...)
}

func (r *recorder[T]) tokens() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, 0, len(r.got))
	for _, d := range r.got {
		out = append(out, d.token)
	}
	return out
}

func (r *recorder[T]) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}
