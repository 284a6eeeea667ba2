// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkadelivery

import (
	"github.com/twmb/franz-go/pkg/kgo"
)

// DeliveryReport is the outcome of one accepted message.
//
// A nil Err means the broker acknowledged the message and Record carries the
// assigned partition, offset and timestamp.  A non-nil Err means delivery
// failed for good; Record is the message as it was sent.
//
// The report is borrowed from the producer: it and its Record are only valid
// until Delivery returns, after which the buffers are reused for other
// messages.  Use Copy to keep anything.
type DeliveryReport struct {
	Record *kgo.Record
	Err    error
}

// OK reports whether the message was delivered.
func (r *DeliveryReport) OK() bool {
	return r.Err == nil
}

// Copy returns a report that does not share memory with the producer.
func (r *DeliveryReport) Copy() DeliveryReport {
	out := DeliveryReport{Err: r.Err}
	if r.Record == nil {
		return out
	}

	rec := *r.Record
	rec.Key = cloneBytes(r.Record.Key)
	rec.Value = cloneBytes(r.Record.Value)
	rec.Headers = cloneHeaders(r.Record.Headers)
	rec.Context = nil
	out.Record = &rec
	return out
}

// DeliveryHandler receives the outcome of every accepted message together
// with the token passed to Send.
//
// Delivery runs on whichever goroutine polls the producer.  With more than
// one poller, or with a PollingProducer plus manual Poll calls, it can run
// concurrently with itself and must be safe for that.
type DeliveryHandler[T any] interface {
	Delivery(report *DeliveryReport, token T)
}

// DeliveryFunc adapts a function to DeliveryHandler.
type DeliveryFunc[T any] func(*DeliveryReport, T)

// Delivery calls f(report, token).
func (f DeliveryFunc[T]) Delivery(report *DeliveryReport, token T) {
	f(report, token)
}

// NopDelivery ignores every outcome.  Use it when only Send/Flush matter.
type NopDelivery struct{}

// Delivery does nothing.
func (NopDelivery) Delivery(*DeliveryReport, struct{}) {}

var (
	_ DeliveryHandler[struct{}] = NopDelivery{}
	_ DeliveryHandler[int]      = DeliveryFunc[int](nil)
)
