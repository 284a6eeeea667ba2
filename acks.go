// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkadelivery

import (
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Acks specifies the broker acknowledgment a delivery report waits for.
type Acks string

const (
	// AcksAll requires all ISR replicas to acknowledge (strongest durability).
	AcksAll Acks = "all"

	// AcksLeader requires only the leader replica to acknowledge.
	AcksLeader Acks = "leader"

	// AcksNone reports success as soon as the request is written.
	AcksNone Acks = "none"
)

var acksTypes = map[Acks]kgo.Acks{
	AcksAll:    kgo.AllISRAcks(),
	AcksLeader: kgo.LeaderAck(),
	AcksNone:   kgo.NoAck(),
}

// validateAcks validates the Acks enum value.  Empty means AcksAll.
func validateAcks(acks Acks) error {
	if acks == "" {
		return nil
	}

	if _, ok := acksTypes[acks]; ok {
		return nil
	}

	return errors.Join(ErrValidation,
		fmt.Errorf("acks '%s' is invalid: must be '%s', '%s', '%s' or empty",
			acks, AcksAll, AcksLeader, AcksNone))
}

// opts returns the client options for the acks level.  Idempotent writes
// need every replica, so they are disabled for the weaker levels.
func (a Acks) opts() []kgo.Opt {
	if a == "" || a == AcksAll {
		return []kgo.Opt{kgo.RequiredAcks(kgo.AllISRAcks())}
	}
	return []kgo.Opt{
		kgo.RequiredAcks(acksTypes[a]),
		kgo.DisableIdempotentWrite(),
	}
}
