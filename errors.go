// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkadelivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	// ErrValidation indicates configuration validation failed.
	ErrValidation = &metricError{
		metric:  "validation_error",
		message: "validation error",
	}

	// ErrInvalidArgument indicates a message was rejected before it reached
	// the engine because it was malformed (missing topic, bad partition).
	ErrInvalidArgument = &metricError{
		metric:  "invalid_argument",
		message: "invalid argument",
	}

	// ErrQueueFull indicates the local queue is at QueueCapacity.  Poll more
	// often or wait for outstanding deliveries before retrying.
	ErrQueueFull = &metricError{
		metric:  "queue_full",
		message: "local queue full",
	}

	// ErrMessageTooLarge indicates the key and value exceed MaxMessageBytes.
	ErrMessageTooLarge = &metricError{
		metric:  "message_too_large",
		message: "message too large",
	}

	// ErrClosed indicates the producer reference has been closed.
	ErrClosed = &metricError{
		metric:  "closed",
		message: "producer closed",
	}

	// ErrBroker indicates the Kafka broker rejected the message.
	ErrBroker = &metricError{
		metric:  "broker_error",
		message: "broker error",
	}

	// ErrTimeout indicates a delivery or flush deadline passed.
	ErrTimeout = &metricError{
		metric:  "timeout",
		message: "timeout",
	}

	// ErrClientClosed indicates the engine was closed before the message was
	// delivered.
	ErrClientClosed = &metricError{
		metric:  "client_closed",
		message: "client closed before delivery",
	}

	// ErrPollerFailed indicates the background poll loop ended abnormally.
	ErrPollerFailed = &metricError{
		metric:  "poller_failed",
		message: "poll loop failed",
	}

	// ErrUnknown classifies delivery errors that match nothing else.
	ErrUnknown = &metricError{
		metric:  "unknown",
		message: "delivery failed",
	}
)

// metricError is an internal error type that wraps errors with a type classification
// for metrics and observability.
type metricError struct {
	metric  string // Type classification for metrics (e.g., "queue_full", "validation_error")
	message string // Human-readable message
}

// Error implements the error interface.
func (e *metricError) Error() string {
	return e.message
}

func (e *metricError) Metric() string {
	return e.metric
}

func (e *metricError) Is(target error) bool {
	if t, ok := target.(*metricError); ok {
		return e.message == t.message
	}
	return false
}

// errorType extracts the error type string for metrics classification.
// Walks the error chain to find metricError types.
func errorType(err error) string {
	if err == nil {
		return ""
	}

	var me *metricError
	if errors.As(err, &me) {
		return me.Metric()
	}

	return "unknown"
}

// SendError is returned by Send when a message is rejected before the engine
// takes ownership of it.  No delivery report will ever be produced for the
// message, so the token is handed back here.
type SendError[T any] struct {
	// Token is the token passed to Send.
	Token T

	// Err is the reason for the rejection; it matches one of the Err*
	// sentinels with errors.Is.
	Err error
}

func (e *SendError[T]) Error() string {
	return fmt.Sprintf("send rejected: %v", e.Err)
}

func (e *SendError[T]) Unwrap() error {
	return e.Err
}

// classifyDeliveryError tags an engine error with the sentinel matching it.
// The original error stays in the chain.
func classifyDeliveryError(err error) error {
	if err == nil {
		return nil
	}

	var ke *kerr.Error
	switch {
	case errors.Is(err, kgo.ErrRecordTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, kerr.RequestTimedOut):
		return errors.Join(ErrTimeout, err)
	case errors.Is(err, kgo.ErrClientClosed):
		return errors.Join(ErrClientClosed, err)
	case errors.As(err, &ke):
		return errors.Join(ErrBroker, err)
	}

	var me *metricError
	if errors.As(err, &me) {
		return err
	}
	return errors.Join(ErrUnknown, err)
}
