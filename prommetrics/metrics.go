// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package prommetrics exports kafkadelivery delivery events as Prometheus
// metrics.
//
//	m, err := prommetrics.New(prometheus.DefaultRegisterer, "myapp")
//	if err != nil {
//		return err
//	}
//	cfg.DeliveryListeners = append(cfg.DeliveryListeners, m.Observe)
package prommetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/kafkadelivery"
)

// OutcomeSuccess is the outcome label of a successful delivery.  Failed
// deliveries are labeled with their error type.
const OutcomeSuccess = "success"

const (
	labelTopic   = "topic"
	labelOutcome = "outcome"
)

// DefaultLatencyBuckets are the histogram buckets used for delivery
// latency, in seconds.
var DefaultLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// Metrics holds the delivery collectors.
type Metrics struct {
	deliveries *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// New creates the delivery collectors and registers them with reg.  The
// namespace prefixes every metric name and may be empty.
func New(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := Metrics{
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "kafka_deliveries_total",
				Help:      "Delivery reports handled, by topic and outcome.",
			},
			[]string{labelTopic, labelOutcome},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "kafka_delivery_duration_seconds",
				Help:      "Time from send to the delivery report being handled.",
				Buckets:   DefaultLatencyBuckets,
			},
			[]string{labelTopic, labelOutcome},
		),
	}

	if err := reg.Register(m.deliveries); err != nil {
		return nil, err
	}
	if err := reg.Register(m.latency); err != nil {
		reg.Unregister(m.deliveries)
		return nil, err
	}
	return &m, nil
}

// Observe records one delivery event.  It has the signature of a delivery
// listener.
func (m *Metrics) Observe(e *kafkadelivery.DeliveryEvent) {
	outcome := OutcomeSuccess
	if e.Error != nil {
		outcome = e.ErrorType
	}

	m.deliveries.WithLabelValues(e.Topic, outcome).Inc()
	m.latency.WithLabelValues(e.Topic, outcome).Observe(e.Duration.Seconds())
}
