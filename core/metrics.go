/*
 * Nuts node
 * Copyright (C) 2021 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package core

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsNamespace is the namespace of all metrics exposed by the wallet.
const MetricsNamespace = "nuts_wallet"

// NewMetricsEngine creates a new Engine for exposing prometheus metrics via http.
// Metrics are exposed on /metrics, by default the GoCollector and ProcessCollector are enabled.
func NewMetricsEngine() *MetricsEngine {
	return &MetricsEngine{}
}

// MetricsEngine registers the default collectors and routes /metrics.
type MetricsEngine struct {
	collectors []prometheus.Collector
}

// Name returns the name of the engine.
func (e *MetricsEngine) Name() string {
	return "Metrics"
}

// Configure registers the Go and process collectors.
func (e *MetricsEngine) Configure(_ ServerConfig) error {
	e.collectors = []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	return RegisterCollectors(e.collectors...)
}

// Start does nothing, metrics are served by the HTTP engine.
func (e *MetricsEngine) Start() error {
	return nil
}

// Shutdown unregisters the collectors registered by Configure.
func (e *MetricsEngine) Shutdown() error {
	for _, c := range e.collectors {
		prometheus.Unregister(c)
	}
	return nil
}

// Routes registers the /metrics handler.
func (e *MetricsEngine) Routes(router EchoRouter) {
	router.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterCollectors registers the given collectors with the default registerer, ignoring collectors that were registered before.
func RegisterCollectors(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := prometheus.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}
