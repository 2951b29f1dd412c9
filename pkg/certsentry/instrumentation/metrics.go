/*
Copyright 2025 The CertSentry Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package instrumentation exposes Prometheus metrics and a health
// endpoint over HTTP.
package instrumentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Metrics holds every exported series on a private registry, so tests
// can run many instances without collisions.
type Metrics struct {
	registry *prometheus.Registry

	EntriesProcessed prometheus.Counter
	Matches          prometheus.Counter
	SinkEmits        *prometheus.CounterVec
	SinkEmitDuration *prometheus.HistogramVec
	LogsHealth       *prometheus.GaugeVec
	QueueDepth       prometheus.Gauge
}

// New registers all series on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto(registry)

	return &Metrics{
		registry:         registry,
		EntriesProcessed: factory.counter("certsentry_entries_processed_total", "Certificates drained from the poller queue."),
		Matches:          factory.counter("certsentry_matches_total", "Watchlist matches emitted."),
		SinkEmits: factory.counterVec("certsentry_sink_emit_total",
			"Sink emissions by sink and status.", "sink", "status"),
		SinkEmitDuration: factory.histogramVec("certsentry_sink_emit_duration_seconds",
			"Sink emission latency.", "sink"),
		LogsHealth: factory.gaugeVec("certsentry_logs_health",
			"Monitored logs by health status.", "status"),
		QueueDepth: factory.gauge("certsentry_queue_depth", "Certificates waiting in the shared queue."),
	}
}

// ObserveEmit implements sink.Observer.
func (m *Metrics) ObserveEmit(sink string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SinkEmits.WithLabelValues(sink, status).Inc()
	m.SinkEmitDuration.WithLabelValues(sink).Observe(duration.Seconds())
}

// SetHealthCounts updates the per-status log gauges.
func (m *Metrics) SetHealthCounts(healthy, degraded, failed int) {
	m.LogsHealth.WithLabelValues("healthy").Set(float64(healthy))
	m.LogsHealth.WithLabelValues("degraded").Set(float64(degraded))
	m.LogsHealth.WithLabelValues("failed").Set(float64(failed))
}

// HealthFunc supplies the current per-status log counts for /healthz.
type HealthFunc func() (healthy, degraded, failed int)

// Handler returns the HTTP surface: /metrics and /healthz.
func (m *Metrics) Handler(healthFn HealthFunc) http.Handler {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		healthy, degraded, failed := 0, 0, 0
		if healthFn != nil {
			healthy, degraded, failed = healthFn()
		}
		status := "ok"
		if failed > 0 && healthy == 0 {
			status = "degraded"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   status,
			"healthy":  healthy,
			"degraded": degraded,
			"failed":   failed,
		})
	}).Methods(http.MethodGet)
	return router
}

// Serve runs the metrics server until the context ends.
func (m *Metrics) Serve(ctx context.Context, addr string, healthFn HealthFunc) error {
	server := &http.Server{
		Addr:    addr,
		Handler: m.Handler(healthFn),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logrus.Warnf("metrics server shutdown: %v", err)
		}
	}()

	logrus.Infof("metrics listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// promauto-style helpers bound to one registry.
type factory struct {
	registry *prometheus.Registry
}

func promauto(r *prometheus.Registry) factory {
	return factory{registry: r}
}

func (f factory) counter(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	f.registry.MustRegister(c)
	return c
}

func (f factory) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	f.registry.MustRegister(c)
	return c
}

func (f factory) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: help}, labels)
	f.registry.MustRegister(h)
	return h
}

func (f factory) gauge(name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	f.registry.MustRegister(g)
	return g
}

func (f factory) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
	f.registry.MustRegister(g)
	return g
}
