// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

//go:build integration

package kafkadelivery_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/xmidt-org/kafkadelivery"
	"github.com/xmidt-org/wrp-go/v5"
)

// messageConsumeWait bounds every wait on the broker.
const messageConsumeWait = 10 * time.Second

// setupKafka starts a single-node Kafka for the test and returns its broker
// address.  The container is terminated when the test ends.
func setupKafka(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// testcontainers checks the image version to pick KRaft mode.
	container, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.8.0",
		kafka.WithClusterID("kafkadelivery-test"),
	)
	require.NoError(t, err, "Failed to start Kafka container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate Kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "Failed to get Kafka brokers")
	require.NotEmpty(t, brokers, "No Kafka brokers available")

	waitForKafka(t, brokers[0])
	return brokers[0]
}

// waitForKafka blocks until broker answers a ping.
func waitForKafka(t *testing.T, broker string) {
	t.Helper()

	client, err := kgo.NewClient(kgo.SeedBrokers(broker))
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return client.Ping(ctx) == nil
	}, 3*messageConsumeWait, time.Second, "Kafka at %s never became ready", broker)
}

// testConfig returns a producer configuration for broker.
func testConfig(broker string) kafkadelivery.Config {
	return kafkadelivery.Config{
		Brokers:                []string{broker},
		AllowAutoTopicCreation: true,
		DeliveryTimeout:        20 * time.Second,
	}
}

// collector records every delivery report with its token.
type collector struct {
	mu      sync.Mutex
	reports map[int]kafkadelivery.DeliveryReport
}

func newCollector() *collector {
	return &collector{reports: make(map[int]kafkadelivery.DeliveryReport)}
}

func (c *collector) Delivery(report *kafkadelivery.DeliveryReport, token int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[token] = report.Copy()
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reports)
}

func (c *collector) get(token int) (kafkadelivery.DeliveryReport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.reports[token]
	return r, ok
}

// pollUntil polls p until want reports were handled or the wait expires.
func pollUntil(t *testing.T, p *kafkadelivery.Producer[int], c *collector, want int) {
	t.Helper()

	deadline := time.Now().Add(messageConsumeWait)
	for c.count() < want && time.Now().Before(deadline) {
		p.Poll(100 * time.Millisecond)
	}
	require.Equal(t, want, c.count(), "delivery reports handled")
}

// consumeMessages reads topic from the start until want records arrived or
// messageConsumeWait passed, and returns what it read.
func consumeMessages(t *testing.T, broker string, topic string, want int) []*kgo.Record {
	t.Helper()

	client, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err, "Failed to create Kafka consumer")
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), messageConsumeWait)
	defer cancel()

	var records []*kgo.Record
	for len(records) < want && ctx.Err() == nil {
		fetches := client.PollFetches(ctx)
		fetches.EachError(func(topic string, partition int32, err error) {
			if ctx.Err() == nil {
				t.Logf("Fetch error on %s[%d]: %v", topic, partition, err)
			}
		})
		records = append(records, fetches.Records()...)
	}
	return records
}

// decodeWRPMessage decodes a msgpack-encoded WRP message from a Kafka record.
func decodeWRPMessage(t *testing.T, record *kgo.Record) *wrp.Message {
	t.Helper()

	var msg wrp.Message
	decoder := wrp.NewDecoderBytes(record.Value, wrp.Msgpack)
	err := decoder.Decode(&msg)
	require.NoError(t, err, "Failed to decode WRP message")

	return &msg
}

// verifyWRPMessage verifies that a Kafka record contains the expected WRP message.
func verifyWRPMessage(t *testing.T, record *kgo.Record, expected *wrp.Message) {
	t.Helper()

	actual := decodeWRPMessage(t, record)

	// Verify key fields
	require.Equal(t, expected.Type, actual.Type, "Message type mismatch")
	require.Equal(t, expected.Source, actual.Source, "Source mismatch")
	require.Equal(t, expected.Destination, actual.Destination, "Destination mismatch")
	require.Equal(t, string(expected.Payload), string(actual.Payload), "Payload mismatch")

	// The record key is the device id
	require.Equal(t, expected.Source, string(record.Key), "Record key should match Source")
}

// createTestMessage creates a WRP event for testing.
func createTestMessage(eventType string, deviceID string) *wrp.Message {
	return &wrp.Message{
		Type:        wrp.SimpleEventMessageType,
		Source:      deviceID,
		Destination: "event:" + eventType + "/" + deviceID,
		Payload:     []byte(`{"status":"online"}`),
	}
}
