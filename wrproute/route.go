// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package wrproute

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/xmidt-org/kafkadelivery"
	"github.com/xmidt-org/wrp-go/v5"
)

// Route maps the event types matching Pattern to a topic.
type Route struct {
	// Pattern selects the event types this route handles.
	Pattern Pattern `yaml:"pattern"`

	// CaseInsensitive matches the pattern ignoring case.
	CaseInsensitive bool `yaml:"case_insensitive"`

	// Topic is the single destination.  Mutually exclusive with Topics.
	Topic string `yaml:"topic"`

	// Topics are spread over with Shard.  Mutually exclusive with Topic.
	Topics []string `yaml:"topics"`

	// Shard is required with Topics and must be empty with Topic.
	Shard Shard `yaml:"shard"`
}

func (r *Route) validate() error {
	if err := r.Pattern.validate(); err != nil {
		return err
	}

	if r.Topic != "" {
		if len(r.Topics) != 0 {
			return errors.Join(kafkadelivery.ErrValidation,
				fmt.Errorf("topic and topics are mutually exclusive"))
		}
		if r.Shard != ShardNone {
			return errors.Join(kafkadelivery.ErrValidation,
				fmt.Errorf("shard strategy must be empty for single-topic routes"))
		}
		return nil
	}

	if len(r.Topics) == 0 {
		return errors.Join(kafkadelivery.ErrValidation,
			fmt.Errorf("either topic or topics must be set"))
	}
	for i, t := range r.Topics {
		if t == "" {
			return errors.Join(kafkadelivery.ErrValidation, fmt.Errorf("topic %d is empty", i))
		}
	}
	if r.Shard == ShardNone {
		return errors.Join(kafkadelivery.ErrValidation,
			fmt.Errorf("shard strategy is required for multi-topic routes"))
	}
	return r.Shard.validate()
}

// compiledRoute is a validated Route ready for matching.
type compiledRoute struct {
	Route
	matcher matcher
	next    atomic.Uint64
}

func (r Route) compile() (*compiledRoute, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	m, err := r.Pattern.compile(r.CaseInsensitive)
	if err != nil {
		return nil, err
	}
	return &compiledRoute{
		Route:   r,
		matcher: m,
	}, nil
}

// topic picks the destination for msg.  Hash strategies fall back to
// round-robin when the hashed value is missing.
func (r *compiledRoute) topic(msg *wrp.Message) string {
	if r.Topic != "" {
		return r.Topic
	}

	var key string
	switch r.Shard {
	case ShardDeviceID:
		key = msg.Source
	default:
		if field, ok := r.Shard.MetadataField(); ok && msg.Metadata != nil {
			key = msg.Metadata[field]
		}
	}

	if key == "" {
		return r.roundRobin()
	}
	return r.Topics[bucket(key, len(r.Topics))]
}

func (r *compiledRoute) roundRobin() string {
	n := r.next.Add(1) - 1
	//nolint:gosec // G115: the modulo keeps the result in int range
	return r.Topics[int(n%uint64(len(r.Topics)))]
}
