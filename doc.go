// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package kafkadelivery provides a non-blocking Kafka producer that reports
// the outcome of every message, exactly once, together with a caller-chosen
// token.
//
// # Overview
//
// Send hands a message to the franz-go client and returns as soon as the
// message is buffered.  The client batches, retries and talks to the brokers
// on its own goroutines.  When a message is finally delivered or given up on,
// its outcome is queued, and the next Poll hands it to the DeliveryHandler
// together with the token passed to Send:
//
//	type tracker struct{}
//
//	func (tracker) Delivery(r *kafkadelivery.DeliveryReport, orderID int) {
//	    if r.Err != nil {
//	        log.Printf("order %d failed: %v", orderID, r.Err)
//	        return
//	    }
//	    log.Printf("order %d at %s/%d@%d", orderID, r.Record.Topic, r.Record.Partition, r.Record.Offset)
//	}
//
//	p, err := kafkadelivery.New[int](kafkadelivery.Config{
//	    Brokers: []string{"localhost:9092"},
//	}, tracker{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close(context.Background())
//
//	err = p.Send(&kafkadelivery.Message{Topic: "orders", Value: []byte("hello")}, 42)
//	...
//	p.Poll(100 * time.Millisecond)
//
// # Tokens
//
// The token never travels through the client.  Send swaps it for an Opaque
// handle and the handle is swapped back when the outcome is polled; a handle
// is redeemed at most once.  If Send fails, the message was never accepted,
// no report will follow, and the token comes back inside *SendError[T].
// Every accepted token comes back exactly once, through the handler, at the
// latest when the last Producer reference is closed.
//
// # Reports are borrowed
//
// The DeliveryReport and its Record are only valid during the Delivery call;
// the buffers are recycled for later messages.  Copy what must outlive it.
//
// # Polling
//
// Reports only reach the handler from Poll, Flush or Close, on the goroutine
// that calls them.  PollingProducer runs the polling on its own goroutine:
//
//	p, err := kafkadelivery.NewPolling[int](cfg, tracker{})
//	...
//	defer p.Close(context.Background())
//
// Stopping a PollingProducer handles every report already queued before the
// goroutine exits, and Close waits for that.
//
// # Backpressure
//
// QueueCapacity bounds the accepted messages whose report has not been
// handled.  Beyond it Send fails with ErrQueueFull.  InFlight reports the
// current count.
//
// # Clones
//
// Clone returns another reference to the same producer: the same client,
// in-flight counter, report queue and handler.  Polling through any clone
// handles reports for messages sent through all of them.
//
// # Subpackages
//
//   - kgolog adapts zap and zerolog loggers for Config.Logger.
//   - prommetrics exports delivery events as Prometheus metrics.
//   - fxdelivery provides a PollingProducer to fx applications.
//   - wrproute routes WRP messages to topics.
package kafkadelivery
