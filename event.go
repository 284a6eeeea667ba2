// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkadelivery

import (
	"time"
)

// DeliveryEvent summarizes one delivery report for observability listeners.
// Unlike DeliveryReport it holds no message data and may be retained.
type DeliveryEvent struct {
	// Topic is the topic the message was sent to.
	Topic string

	// Partition is the partition the message landed on, or -1 if it failed
	// before one was chosen.
	Partition int32

	// Offset is the assigned offset on success, -1 otherwise.
	Offset int64

	// Error is the delivery error (nil for successful deliveries).
	Error error

	// ErrorType is the error classification (empty for success).
	// Values: "broker_error", "timeout", "client_closed", "unknown".
	ErrorType string

	// Duration is the time from Send to the delivery report being handled.
	Duration time.Duration
}

// AddDeliveryListener adds a listener called after every delivery report,
// on the goroutine that polled it.  The returned function removes the
// listener.
func (p *Producer[T]) AddDeliveryListener(fn func(*DeliveryEvent)) func() {
	return p.h.listeners.Add(fn)
}

func (h *handle[T]) dispatchEvent(report *DeliveryReport, sent time.Time) {
	event := DeliveryEvent{
		Partition: -1,
		Offset:    -1,
		Error:     report.Err,
		ErrorType: errorType(report.Err),
		Duration:  time.Since(sent),
	}
	if r := report.Record; r != nil {
		event.Topic = r.Topic
		if report.Err == nil {
			event.Partition = r.Partition
			event.Offset = r.Offset
		}
	}

	h.listeners.Visit(func(listener func(*DeliveryEvent)) {
		listener(&event)
	})
}
