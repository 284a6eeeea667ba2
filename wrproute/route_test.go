// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package wrproute

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/kafkadelivery"
	"github.com/xmidt-org/wrp-go/v5"
)

func TestRouteValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		route   Route
		wantErr bool
	}{
		{
			name:  "single topic",
			route: Route{Pattern: "*", Topic: "events"},
		}, {
			name:  "round robin",
			route: Route{Pattern: "device-*", Topics: []string{"a", "b"}, Shard: ShardRoundRobin},
		}, {
			name:  "device id",
			route: Route{Pattern: "*", Topics: []string{"a", "b"}, Shard: ShardDeviceID},
		}, {
			name:  "metadata",
			route: Route{Pattern: "*", Topics: []string{"a", "b"}, Shard: ShardMetadata("tenant_id")},
		}, {
			name:    "bad pattern",
			route:   Route{Pattern: "", Topic: "events"},
			wantErr: true,
		}, {
			name:    "topic and topics",
			route:   Route{Pattern: "*", Topic: "single", Topics: []string{"a"}, Shard: ShardRoundRobin},
			wantErr: true,
		}, {
			name:    "single topic with shard",
			route:   Route{Pattern: "*", Topic: "single", Shard: ShardRoundRobin},
			wantErr: true,
		}, {
			name:    "no topic",
			route:   Route{Pattern: "*"},
			wantErr: true,
		}, {
			name:    "topics without shard",
			route:   Route{Pattern: "*", Topics: []string{"a", "b"}},
			wantErr: true,
		}, {
			name:    "empty topic in list",
			route:   Route{Pattern: "*", Topics: []string{"a", ""}, Shard: ShardRoundRobin},
			wantErr: true,
		}, {
			name:    "unknown shard",
			route:   Route{Pattern: "*", Topics: []string{"a"}, Shard: "random"},
			wantErr: true,
		}, {
			name:    "metadata without field",
			route:   Route{Pattern: "*", Topics: []string{"a"}, Shard: "metadata:"},
			wantErr: true,
		}, {
			name:    "metadata with blank field",
			route:   Route{Pattern: "*", Topics: []string{"a"}, Shard: "metadata:  "},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.route.validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, kafkadelivery.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestShardMetadataField(t *testing.T) {
	t.Parallel()

	field, ok := ShardMetadata("tenant_id").MetadataField()
	assert.True(t, ok)
	assert.Equal(t, "tenant_id", field)

	_, ok = Shard("metadata:").MetadataField()
	assert.False(t, ok)

	_, ok = ShardDeviceID.MetadataField()
	assert.False(t, ok)
}

func TestRouteTopic(t *testing.T) {
	t.Parallel()

	compile := func(t *testing.T, r Route) *compiledRoute {
		t.Helper()
		cr, err := r.compile()
		require.NoError(t, err)
		return cr
	}

	t.Run("single topic", func(t *testing.T) {
		t.Parallel()
		r := compile(t, Route{Pattern: "*", Topic: "events"})
		assert.Equal(t, "events", r.topic(&wrp.Message{}))
	})

	t.Run("round robin cycles", func(t *testing.T) {
		t.Parallel()
		r := compile(t, Route{Pattern: "*", Topics: []string{"a", "b", "c"}, Shard: ShardRoundRobin})
		var got []string
		for range 4 {
			got = append(got, r.topic(&wrp.Message{}))
		}
		assert.Equal(t, []string{"a", "b", "c", "a"}, got)
	})

	t.Run("device id is stable", func(t *testing.T) {
		t.Parallel()
		r := compile(t, Route{Pattern: "*", Topics: []string{"a", "b", "c"}, Shard: ShardDeviceID})
		msg := &wrp.Message{Source: "mac:112233445566"}
		first := r.topic(msg)
		for range 5 {
			assert.Equal(t, first, r.topic(msg))
		}
		assert.Equal(t, r.Topics[bucket("mac:112233445566", 3)], first)
	})

	t.Run("metadata is stable", func(t *testing.T) {
		t.Parallel()
		r := compile(t, Route{Pattern: "*", Topics: []string{"a", "b"}, Shard: ShardMetadata("tenant")})
		msg := &wrp.Message{Metadata: map[string]string{"tenant": "acme"}}
		assert.Equal(t, r.Topics[bucket("acme", 2)], r.topic(msg))
	})

	t.Run("missing hash value falls back to round robin", func(t *testing.T) {
		t.Parallel()
		r := compile(t, Route{Pattern: "*", Topics: []string{"a", "b"}, Shard: ShardMetadata("tenant")})
		assert.Equal(t, "a", r.topic(&wrp.Message{}))
		assert.Equal(t, "b", r.topic(&wrp.Message{Metadata: map[string]string{"other": "x"}}))
	})

	t.Run("round robin is safe for concurrent use", func(t *testing.T) {
		t.Parallel()
		const (
			goroutines = 10
			iterations = 100
		)
		r := compile(t, Route{Pattern: "*", Topics: []string{"a", "b"}, Shard: ShardRoundRobin})

		var mu sync.Mutex
		counts := map[string]int{}
		var wg sync.WaitGroup
		for range goroutines {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range iterations {
					topic := r.topic(&wrp.Message{})
					mu.Lock()
					counts[topic]++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, goroutines*iterations/2, counts["a"])
		assert.Equal(t, goroutines*iterations/2, counts["b"])
	})
}

func TestBucket(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, bucket("anything", 0))
	assert.Equal(t, 0, bucket("anything", -1))
	assert.Equal(t, 0, bucket("anything", 1))

	for _, s := range []string{"", "a", "mac:112233445566", "tenant-42"} {
		got := bucket(s, 7)
		assert.GreaterOrEqual(t, got, 0)
		assert.Less(t, got, 7)
		assert.Equal(t, got, bucket(s, 7))
	}
}
