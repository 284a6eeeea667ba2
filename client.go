// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkadelivery

import (
	"context"

	"github.com/twmb/franz-go/pkg/kgo"
)

// kafkaClient is the subset of the franz-go client the producer drives.
// The engine owns batching, retries and broker I/O; the producer only hands
// it records and waits for the promises.
type kafkaClient interface {
	// TryProduce buffers a record without blocking.  The promise is called
	// exactly once from one of the client's goroutines.
	TryProduce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))

	// Flush sends everything buffered and waits for the promises.
	Flush(ctx context.Context) error

	// Close closes the Kafka client and fails anything still buffered.
	Close()

	// BufferedProduceRecords returns the current number of buffered records.
	BufferedProduceRecords() int64

	// BufferedProduceBytes returns the current number of buffered bytes.
	BufferedProduceBytes() int64
}

// clientFactory creates the engine from options.  It is the "client factory"
// collaborator; tests replace it with a fake engine.
type clientFactory func(opts ...kgo.Opt) (kafkaClient, error)

func defaultClientFactory(opts ...kgo.Opt) (kafkaClient, error) {
	return kgo.NewClient(opts...)
}

// Verify that *kgo.Client implements kafkaClient interface at compile time.
var _ kafkaClient = (*kgo.Client)(nil)
