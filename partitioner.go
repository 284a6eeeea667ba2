// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkadelivery

import "github.com/twmb/franz-go/pkg/kgo"

// explicitPartitioner honors Message.Partition when it was set and defers to
// the fallback otherwise.  kgo fails records whose chosen partition is out of
// range, which is how an unknown explicit partition surfaces.
type explicitPartitioner struct {
	fallback kgo.Partitioner
}

func newExplicitPartitioner() kgo.Partitioner {
	return &explicitPartitioner{
		fallback: kgo.StickyKeyPartitioner(nil),
	}
}

func (p *explicitPartitioner) ForTopic(topic string) kgo.TopicPartitioner {
	return &explicitTopicPartitioner{
		fallback: p.fallback.ForTopic(topic),
	}
}

type explicitTopicPartitioner struct {
	fallback kgo.TopicPartitioner
}

func (p *explicitTopicPartitioner) RequiresConsistency(r *kgo.Record) bool {
	if _, ok := explicitPartition(r); ok {
		return true
	}
	return p.fallback.RequiresConsistency(r)
}

func (p *explicitTopicPartitioner) Partition(r *kgo.Record, n int) int {
	if part, ok := explicitPartition(r); ok {
		return int(part)
	}
	return p.fallback.Partition(r, n)
}

func explicitPartition(r *kgo.Record) (int32, bool) {
	if r.Context == nil {
		return 0, false
	}
	part, ok := r.Context.Value(partitionKey{}).(int32)
	return part, ok
}

// OnNewBatch forwards batch boundaries so the sticky fallback still rotates
// partitions for keyless records.
func (p *explicitTopicPartitioner) OnNewBatch() {
	if nb, ok := p.fallback.(kgo.TopicPartitionerOnNewBatch); ok {
		nb.OnNewBatch()
	}
}
