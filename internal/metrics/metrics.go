// Copyright (C) 2025 RAP Project
//
// This file is part of rap-go.
//
// rap-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// rap-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with rap-go.  If not, see <https://www.gnu.org/licenses/>.
// Package metrics exports prometheus collectors for the rap server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rap-project/rap-go/pkg/verifier"
)

// Namespace prefixes every metric name
const Namespace = "rap_server"

// ResultOK labels successful verifications
const ResultOK = "ok"

// Metrics holds the server collectors on a private registry.
// It implements verifier.Observer.
type Metrics struct {
	registry *prometheus.Registry

	verifications   *prometheus.CounterVec
	verifyDuration  prometheus.Histogram
	keyLookups      *prometheus.CounterVec
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var _ verifier.Observer = (*Metrics)(nil)

// New creates the collectors, including the Go runtime and process collectors
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		verifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "signature",
				Name:      "verifications_total",
				Help:      "Signed requests checked, by result (ok or rejection kind)",
			},
			[]string{"result"},
		),
		verifyDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "signature",
				Name:      "verification_duration_seconds",
				Help:      "Time spent verifying a signed request, including key resolution",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		keyLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "keys",
				Name:      "remote_lookups_total",
				Help:      "Remote key lookups, by outcome",
			},
			[]string{"outcome"},
		),
		requestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveVerification counts one verification
func (m *Metrics) ObserveVerification(kind verifier.ErrorKind, elapsed time.Duration) {
	result := ResultOK
	if kind != verifier.KindNone {
		result = kind.String()
	}
	m.verifications.WithLabelValues(result).Inc()
	m.verifyDuration.Observe(elapsed.Seconds())
}

// ObserveKeyLookup counts one remote key lookup
func (m *Metrics) ObserveKeyLookup(outcome string) {
	m.keyLookups.WithLabelValues(outcome).Inc()
}

// TrackActors exports the number of local actors reported by count
func (m *Metrics) TrackActors(count func() int) {
	promauto.With(m.registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "keys",
			Name:      "local_actors",
			Help:      "Local actors with a key pair",
		},
		func() float64 { return float64(count()) },
	)
}

// Middleware records request counts and latency per route template, so
// actor ids do not become label values
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.requestCounter.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the registry for additional collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
