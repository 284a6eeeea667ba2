// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkadelivery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is what Send hands to the engine.  Send copies Key, Value and
// Headers, so the caller may reuse the slices as soon as Send returns.
type Message struct {
	// Topic is the destination topic.  Required.
	Topic string

	// Partition pins the message to one partition.  Nil lets the partitioner
	// pick one from the key.  A partition the topic does not have fails the
	// message asynchronously.
	Partition *int32

	// Key is optional.  Nil and empty are different on the wire.
	Key []byte

	// Value is optional.  Nil produces a tombstone.
	Value []byte

	// Headers are optional.
	Headers []kgo.RecordHeader

	// Timestamp is optional.  The zero value means the time of Send.
	Timestamp time.Time
}

// PartitionOf returns a pointer suitable for Message.Partition.
func PartitionOf(p int32) *int32 {
	return &p
}

func (m *Message) validate(maxBytes int) error {
	if m == nil {
		return errors.Join(ErrInvalidArgument, fmt.Errorf("message is nil"))
	}
	if m.Topic == "" {
		return errors.Join(ErrInvalidArgument, fmt.Errorf("topic is required"))
	}
	if m.Partition != nil && *m.Partition < 0 {
		return errors.Join(ErrInvalidArgument, fmt.Errorf("partition %d is negative", *m.Partition))
	}
	if maxBytes > 0 && len(m.Key)+len(m.Value) > maxBytes {
		return errors.Join(ErrMessageTooLarge,
			fmt.Errorf("key and value are %d bytes, limit is %d", len(m.Key)+len(m.Value), maxBytes))
	}
	return nil
}

// recordSize is what a record counts against MaxBufferedBytes.
func recordSize(r *kgo.Record) int64 {
	if r == nil {
		return 0
	}
	n := len(r.Key) + len(r.Value)
	for _, h := range r.Headers {
		n += len(h.Key) + len(h.Value)
	}
	return int64(n)
}

// partitionKey marks a record context that carries an explicit partition.
type partitionKey struct{}

// recordPool recycles records once their delivery report has been handled.
// Records handed out by get never alias caller memory.
type recordPool struct {
	pool sync.Pool
}

func newRecordPool() *recordPool {
	return &recordPool{
		pool: sync.Pool{
			New: func() any { return new(kgo.Record) },
		},
	}
}

func (p *recordPool) get(m *Message) *kgo.Record {
	r := p.pool.Get().(*kgo.Record)

	r.Topic = m.Topic
	r.Key = copyInto(r.Key, m.Key)
	r.Value = copyInto(r.Value, m.Value)
	r.Headers = r.Headers[:0]
	for _, h := range m.Headers {
		r.Headers = append(r.Headers, kgo.RecordHeader{
			Key:   h.Key,
			Value: cloneBytes(h.Value),
		})
	}
	r.Timestamp = m.Timestamp

	r.Context = context.Background()
	if m.Partition != nil {
		r.Partition = *m.Partition
		r.Context = context.WithValue(r.Context, partitionKey{}, *m.Partition)
	}
	return r
}

// put resets the record and returns it to the pool.  The byte buffers are
// kept for the next message.
func (p *recordPool) put(r *kgo.Record) {
	if r == nil {
		return
	}
	key, value, headers := r.Key, r.Value, r.Headers
	*r = kgo.Record{}
	if key != nil {
		r.Key = key[:0]
	}
	if value != nil {
		r.Value = value[:0]
	}
	r.Headers = headers[:0]
	p.pool.Put(r)
}

// copyInto copies src into dst's storage.  A nil src yields nil so null keys
// and values survive the copy.
func copyInto(dst, src []byte) []byte {
	if src == nil {
		return nil
	}
	if dst == nil {
		dst = make([]byte, 0, len(src))
	}
	return append(dst[:0], src...)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}

func cloneHeaders(hs []kgo.RecordHeader) []kgo.RecordHeader {
	if hs == nil {
		return nil
	}
	out := make([]kgo.RecordHeader, len(hs))
	for i, h := range hs {
		out[i] = kgo.RecordHeader{Key: h.Key, Value: cloneBytes(h.Value)}
	}
	return out
}
