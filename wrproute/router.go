// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package wrproute turns WRP messages into kafkadelivery messages: it picks
// the topic from the event type, encodes the message as msgpack and keys it
// by device id so a device's events stay ordered within a partition.
package wrproute

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/xmidt-org/kafkadelivery"
	"github.com/xmidt-org/wrp-go/v5"
)

var (
	// ErrNoRoute means no route matched the message's event type.
	ErrNoRoute = errors.New("no route matched")

	// ErrEncoding means the message could not be encoded or keyed.
	ErrEncoding = errors.New("wrp encoding failed")
)

// Config is the routing table.  The first matching route wins.
type Config struct {
	Routes  []Route `yaml:"routes"`
	Headers Headers `yaml:"headers"`
}

func (c Config) validate() error {
	if len(c.Routes) == 0 {
		return errors.Join(kafkadelivery.ErrValidation, fmt.Errorf("routes must not be empty"))
	}
	for i := range c.Routes {
		if err := c.Routes[i].validate(); err != nil {
			return fmt.Errorf("route %d: %w", i, err)
		}
	}
	return c.Headers.validate()
}

type table struct {
	routes  []*compiledRoute
	headers Headers
}

func (c Config) compile() (*table, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	t := table{
		routes:  make([]*compiledRoute, 0, len(c.Routes)),
		headers: c.Headers,
	}
	for _, r := range c.Routes {
		cr, err := r.compile()
		if err != nil {
			return nil, err
		}
		t.routes = append(t.routes, cr)
	}
	return &t, nil
}

// Router maps WRP messages to Kafka messages.  The table can be swapped
// with Update while messages are being routed.
type Router struct {
	table atomic.Pointer[table]
}

// New validates cfg and returns a Router for it.
func New(cfg Config) (*Router, error) {
	var r Router
	if err := r.Update(cfg); err != nil {
		return nil, err
	}
	return &r, nil
}

// Update replaces the routing table.  An invalid cfg leaves the current one
// in place.  Round-robin positions restart.
func (r *Router) Update(cfg Config) error {
	t, err := cfg.compile()
	if err != nil {
		return err
	}
	r.table.Store(t)
	return nil
}

// Topic returns the topic msg routes to.
func (r *Router) Topic(msg *wrp.Message) (string, error) {
	return r.table.Load().topic(msg)
}

func (t *table) topic(msg *wrp.Message) (string, error) {
	locator, err := wrp.ParseLocator(msg.Destination)
	if err != nil {
		return "", errors.Join(ErrNoRoute, err)
	}

	for _, route := range t.routes {
		if route.matcher.match(locator.Authority) {
			return route.topic(msg), nil
		}
	}
	return "", errors.Join(ErrNoRoute,
		fmt.Errorf("no route for event type '%s'", locator.Authority))
}

// Message builds the Kafka message for msg.
func (r *Router) Message(msg *wrp.Message) (*kafkadelivery.Message, error) {
	if msg == nil {
		return nil, errors.Join(kafkadelivery.ErrInvalidArgument, fmt.Errorf("wrp message is nil"))
	}

	t := r.table.Load()
	topic, err := t.topic(msg)
	if err != nil {
		return nil, err
	}

	value, err := msg.EncodeMsgpack(nil)
	if err != nil {
		return nil, errors.Join(ErrEncoding, fmt.Errorf("msgpack encoding failed"), err)
	}

	id, err := wrp.ParseDeviceID(msg.Source)
	if err != nil {
		return nil, errors.Join(ErrEncoding,
			fmt.Errorf("invalid device ID in WRP Source `%s`", msg.Source), err)
	}

	return &kafkadelivery.Message{
		Topic:   topic,
		Key:     id.Bytes(),
		Value:   value,
		Headers: t.headers.build(msg),
	}, nil
}

// Sender is the part of a producer Send needs; *kafkadelivery.Producer and
// *kafkadelivery.PollingProducer both satisfy it.
type Sender[T any] interface {
	Send(msg *kafkadelivery.Message, token T) error
}

// Send routes msg and sends it with token.  A message that cannot be routed
// is rejected like any other: the error is a *kafkadelivery.SendError[T]
// holding the token, and matches kafkadelivery.ErrInvalidArgument.
func Send[T any](p Sender[T], r *Router, msg *wrp.Message, token T) error {
	km, err := r.Message(msg)
	if err != nil {
		return &kafkadelivery.SendError[T]{
			Token: token,
			Err:   errors.Join(kafkadelivery.ErrInvalidArgument, err),
		}
	}
	return p.Send(km, token)
}
