// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package fxdelivery provides a kafkadelivery.PollingProducer to an fx
// application.
//
//	app := fx.New(
//	    fxdelivery.Module[MyToken](),
//	    fx.Provide(
//	        loadKafkadeliveryConfig,
//	        func(h *MyHandler) kafkadelivery.DeliveryHandler[MyToken] { return h },
//	    ),
//	)
//
// A *zap.Logger and a prometheus.Registerer are picked up when the
// application provides them.  The producer is closed when the application
// stops.
package fxdelivery

import (
	"context"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/kafkadelivery"
	"github.com/xmidt-org/kafkadelivery/kgolog"
	"github.com/xmidt-org/kafkadelivery/prommetrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module returns the fx module for tokens of type T.  It provides both the
// *kafkadelivery.PollingProducer[T] and its embedded *kafkadelivery.Producer[T].
func Module[T any]() fx.Option {
	return fx.Module("kafkadelivery",
		fx.Provide(
			New[T],
			func(pp *kafkadelivery.PollingProducer[T]) *kafkadelivery.Producer[T] {
				return pp.Producer
			},
		),
	)
}

// Params groups the dependencies of New.
type Params[T any] struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Config     kafkadelivery.Config
	Handler    kafkadelivery.DeliveryHandler[T]
	Logger     *zap.Logger           `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// New creates the polling producer and ties its Close to the lifecycle.
// Config.Logger, when set, wins over the injected logger.
func New[T any](p Params[T]) (*kafkadelivery.PollingProducer[T], error) {
	cfg := p.Config
	if cfg.Logger == nil && p.Logger != nil {
		cfg.Logger = kgolog.Zap(p.Logger.Named("kafkadelivery"))
	}

	if p.Registerer != nil {
		m, err := prommetrics.New(p.Registerer, "")
		if err != nil {
			return nil, err
		}
		cfg.DeliveryListeners = append(slices.Clone(cfg.DeliveryListeners), m.Observe)
	}

	pp, err := kafkadelivery.NewPolling(cfg, p.Handler)
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			pp.Close(ctx)
			return nil
		},
	})
	return pp, nil
}
