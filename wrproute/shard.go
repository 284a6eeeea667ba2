// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package wrproute

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/xmidt-org/kafkadelivery"
)

// Shard specifies how a route spreads messages across its Topics.
type Shard string

const (
	// ShardNone is for single-topic routes.
	ShardNone Shard = ""

	// ShardRoundRobin cycles through the topics.
	ShardRoundRobin Shard = "roundrobin"

	// ShardDeviceID hashes the device id in the WRP Source, so a device always
	// lands on the same topic.
	ShardDeviceID Shard = "deviceid"

	metadataPrefix = "metadata:"
)

// ShardMetadata hashes the named metadata field, e.g. ShardMetadata("tenant_id")
// is "metadata:tenant_id".
func ShardMetadata(field string) Shard {
	return Shard(metadataPrefix + field)
}

// MetadataField returns the field of a "metadata:<field>" strategy.
func (s Shard) MetadataField() (string, bool) {
	field, ok := strings.CutPrefix(string(s), metadataPrefix)
	if !ok || field == "" {
		return "", false
	}
	return field, true
}

func (s Shard) validate() error {
	switch s {
	case ShardRoundRobin, ShardDeviceID:
		return nil
	}

	if strings.HasPrefix(string(s), metadataPrefix) {
		if field, _ := s.MetadataField(); strings.TrimSpace(field) == "" {
			return errors.Join(kafkadelivery.ErrValidation,
				fmt.Errorf("metadata sharding requires a field name (e.g., 'metadata:tenant_id')"))
		}
		return nil
	}

	return errors.Join(kafkadelivery.ErrValidation,
		fmt.Errorf("shard strategy '%s' is invalid: must be '%s', '%s' or 'metadata:<field>'",
			s, ShardRoundRobin, ShardDeviceID))
}

// bucket maps s onto [0, n) with FNV-1a.
func bucket(s string, n int) int {
	if n <= 0 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	//nolint:gosec // G115: the modulo keeps the result in int range
	return int(h.Sum32() % uint32(n))
}
